package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ndedit",
	Short: "Edit newline-delimited JSON with encoded fields as a pretty buffer",
	Long: `ndedit makes NDJSON files with double-encoded JSON string fields editable.

Dashboard exports and similar NDJSON files bury whole JSON documents inside
string fields. ndedit expands a source file into a pretty-printed buffer
where those fields are real JSON, records which locations were encoded in a
memory sidecar, and packs edits back into the original encoding without
losing a byte.

The watch command keeps source and buffer in sync continuously: edit either
file and the other is rebuilt.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
