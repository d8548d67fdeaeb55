package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/refinery/internal/config"
	"github.com/papapumpkin/refinery/internal/validate"
)

var checkSchemasCmd = &cobra.Command{
	Use:   "check-schemas",
	Short: "Compile the schema documents without running the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if _, err := validate.Load(cfg.SchemaDir); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "schemas in %s compile\n", cfg.SchemaDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkSchemasCmd)
}
