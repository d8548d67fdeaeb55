package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/refinery/internal/config"
	"github.com/papapumpkin/refinery/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the pipeline whenever the input corpus changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if !cfg.Verbose {
			log.SetOutput(io.Discard)
		}

		inputDir, _ := cmd.Flags().GetString("in")
		outputDir, _ := cmd.Flags().GetString("out")
		opts := pipeline.Options{
			InputDir:  inputDir,
			OutputDir: outputDir,
			SchemaDir: cfg.SchemaDir,
			Strict:    cfg.Strict,
			Workers:   cfg.Workers,
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watchTree(watcher, inputDir); err != nil {
			return err
		}

		runOnce := func() {
			if _, err := pipeline.Run(cmd.Context(), opts); err != nil {
				// A broken rerun must not kill the watcher.
				fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
				return
			}
			fmt.Fprintln(os.Stderr, "corpus rebuilt")
		}
		runOnce()

		// Debounce bursts of events (editors write several times per save).
		var timer *time.Timer
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, runOnce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}
		}
	},
}

// watchTree registers the input root and every subdirectory; fsnotify
// watches are not recursive.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func init() {
	watchCmd.Flags().String("in", "", "path to the raw corpus directory")
	watchCmd.Flags().String("out", "", "output directory for the cleaned corpus")
	_ = watchCmd.MarkFlagRequired("in")
	_ = watchCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(watchCmd)
}
