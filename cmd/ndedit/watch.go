package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tbrandt/ndedit/internal/bufstore"
	"github.com/tbrandt/ndedit/internal/config"
	"github.com/tbrandt/ndedit/internal/ui"
	"github.com/tbrandt/ndedit/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <source.json>",
	Short: "Keep an NDJSON source and its expanded buffer in sync",
	Long: `Watch a source file and its expanded buffer, rebuilding each from the other.

On startup the source is backed up and expanded into the buffer. From then
on, saving the source re-expands the buffer and saving the buffer packs the
edits back into the source. Self-triggered events are suppressed so the two
rebuilds never feed each other.

Example usage:
  ndedit watch export.ndjson            # Edit ndedit_data/buffer.json freely

Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source := args[0]

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger := cfg.NewLogger("[watch] ")
		paths := cfg.Paths(source)
		store := bufstore.New(paths, logger)

		backup, err := store.BackupSource()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error backing up source: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Backed up source to %s\n", ui.RenderAccent("*"), backup)

		if err := store.CreateBuffers(); err != nil {
			fmt.Fprintf(os.Stderr, "Error expanding source: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Expanded %s into %s\n", ui.RenderPass("*"), paths.Source, paths.Buffer)

		watcher, err := watch.NewWatcher([]string{paths.Source, paths.Buffer}, cfg.Debounce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating watcher: %v\n", err)
			os.Exit(1)
		}
		if err := watcher.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
			os.Exit(1)
		}
		defer watcher.Stop()

		go func() {
			for err := range watcher.Errors() {
				logger.Printf("Watcher error: %v", err)
			}
		}()

		fmt.Printf("%s Watching %s and %s\n", ui.RenderAccent("*"), paths.Source, paths.Buffer)
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		controller := watch.NewController(store, logger)
		if err := controller.Run(ctx, watcher.Changes()); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
			os.Exit(1)
		}

		fmt.Println("\nStopped")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
