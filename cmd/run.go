package cmd

import (
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/refinery/internal/config"
	"github.com/papapumpkin/refinery/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full repair pipeline over a corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if !cfg.Verbose {
			log.SetOutput(io.Discard)
		}

		inputDir, _ := cmd.Flags().GetString("in")
		outputDir, _ := cmd.Flags().GetString("out")

		orders, err := pipeline.Run(cmd.Context(), pipeline.Options{
			InputDir:  inputDir,
			OutputDir: outputDir,
			SchemaDir: cfg.SchemaDir,
			Strict:    cfg.Strict,
			Workers:   cfg.Workers,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(orders)
	},
}

func init() {
	runCmd.Flags().String("in", "", "path to the raw corpus directory")
	runCmd.Flags().String("out", "", "output directory for the cleaned corpus")
	runCmd.Flags().Bool("strict", false, "fail on any unresolved ambiguity or validation error")
	runCmd.Flags().Int("workers", 0, "parallel file parsers (default: CPU count)")
	_ = runCmd.MarkFlagRequired("in")
	_ = runCmd.MarkFlagRequired("out")
	_ = viper.BindPFlag("strict", runCmd.Flags().Lookup("strict"))
	_ = viper.BindPFlag("workers", runCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(runCmd)
}
