package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tbrandt/ndedit/internal/bufstore"
	"github.com/tbrandt/ndedit/internal/config"
	"github.com/tbrandt/ndedit/internal/ui"
)

var expandCmd = &cobra.Command{
	Use:   "expand <source.json>",
	Short: "Expand a source file into its editable buffer once",
	Long: `Expand an NDJSON source into the pretty-printed buffer and memory sidecar.

This is the one-shot form of watch: it writes the buffer and memory files
and exits without watching for changes.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		paths := cfg.Paths(args[0])
		store := bufstore.New(paths, cfg.NewLogger("[expand] "))

		if err := store.CreateBuffers(); err != nil {
			fmt.Fprintf(os.Stderr, "Error expanding source: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Wrote %s and %s\n", ui.RenderPass("*"), paths.Buffer, paths.Memory)
	},
}

var packCmd = &cobra.Command{
	Use:   "pack <source.json>",
	Short: "Pack buffer edits back into the source file once",
	Long: `Regenerate the NDJSON source from the expanded buffer.

Requires the memory sidecar written by a previous expand or watch; without
it the original encoding cannot be restored.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		paths := cfg.Paths(args[0])
		store := bufstore.New(paths, cfg.NewLogger("[pack] "))

		if err := store.RegenerateSource(); err != nil {
			fmt.Fprintf(os.Stderr, "Error packing buffer: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("*"), paths.Source)
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(packCmd)
}
