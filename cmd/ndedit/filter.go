package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tbrandt/ndedit/internal/fieldfilter"
	"github.com/tbrandt/ndedit/internal/ui"
)

var filterCmd = &cobra.Command{
	Use:   "filter <library.ndjson>",
	Short: "Drop dashboard objects that reference disallowed fields",
	Long: `Filter a dashboard-library NDJSON export against an allowed-field list.

Saved searches and visualizations reference index fields, some inside
double-encoded attributes. Objects referencing any field outside the
allowed list are removed; other object types pass through unchanged.

The field list is one field name per line. If the file does not exist,
every field is allowed and the export passes through unfiltered.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source := args[0]
		fieldsPath, _ := cmd.Flags().GetString("fields")
		outputPath, _ := cmd.Flags().GetString("output")

		if !strings.HasSuffix(source, ".ndjson") {
			fmt.Fprintf(os.Stderr, "%s filename should be .ndjson\n", ui.RenderWarn("WARN:"))
		}

		allowed, err := fieldfilter.LoadFieldSet(fieldsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading field list: %v\n", err)
			os.Exit(1)
		}

		in, err := os.Open(source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
			os.Exit(1)
		}
		defer in.Close()

		items, err := fieldfilter.ReadLibrary(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading library: %v\n", err)
			os.Exit(1)
		}

		logger := log.New(os.Stderr, "[filter] ", log.LstdFlags)
		kept, err := fieldfilter.Filter(items, allowed, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error filtering library: %v\n", err)
			os.Exit(1)
		}

		out := os.Stdout
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}

		if err := fieldfilter.WriteNDJSON(out, kept); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "%s Kept %d of %d objects\n", ui.RenderPass("*"), len(kept), len(items))
	},
}

func init() {
	filterCmd.Flags().StringP("fields", "f", "data/fields.txt", "File listing allowed fields, one per line")
	filterCmd.Flags().StringP("output", "o", "", "Write filtered NDJSON here instead of stdout")
	rootCmd.AddCommand(filterCmd)
}
