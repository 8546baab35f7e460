package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tbrandt/ndedit/internal/compose"
	"github.com/tbrandt/ndedit/internal/ui"
)

var composeCmd = &cobra.Command{
	Use:   "compose <node-count>",
	Short: "Generate a docker-compose file for an OpenSearch cluster",
	Long: `Generate a docker-compose definition for a multi-node OpenSearch cluster.

Each node gets its own service, data volume, and host-port pair (REST on
9200 and up, performance analyzer on 9600 and up), and an OpenSearch
Dashboards container is attached to all of them.

Example usage:
  ndedit compose 3                      # Three nodes plus dashboards
  ndedit compose 5 -o cluster.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		count, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: node count must be a number, got %q\n", args[0])
			os.Exit(1)
		}
		outputPath, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")

		file, err := compose.Generate(count)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		rendered, err := compose.Render(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if _, err := os.Stat(outputPath); err == nil && !force {
			overwrite := false
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite?", outputPath)).
				Value(&overwrite)
			if err := prompt.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !overwrite {
				fmt.Println("Aborted")
				return
			}
		}

		if err := os.WriteFile(outputPath, rendered, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("%s Wrote %s for %d node(s)\n", ui.RenderPass("*"), outputPath, count)
	},
}

func init() {
	composeCmd.Flags().StringP("output", "o", "docker-compose.yml", "Output file")
	composeCmd.Flags().Bool("force", false, "Overwrite the output file without asking")
	rootCmd.AddCommand(composeCmd)
}
