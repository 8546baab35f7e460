package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tbrandt/ndedit/internal/release"
	"github.com/tbrandt/ndedit/internal/ui"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Generate release notes from merged pull requests",
	Long: `Generate markdown release notes for a commit range on a GitHub repository.

Commits between base (exclusive) and head (inclusive) are scanned for PR
references, the PRs are fetched, and their titles are grouped into sections
by label: breaking, enhancement, bug, infrastructure, documentation, and
maintenance. PRs labeled skip-changelog are omitted.

An API token is read from a TOKEN file in the working directory or the
GITHUB_TOKEN environment variable; public repositories work without one.

Example usage:
  ndedit release -r https://github.com/acme/widgets -b abc1234 --head def5678 -v 2.14.0`,
	Run: func(cmd *cobra.Command, args []string) {
		repoURL, _ := cmd.Flags().GetString("repo")
		base, _ := cmd.Flags().GetString("base")
		head, _ := cmd.Flags().GetString("head")
		version, _ := cmd.Flags().GetString("version")
		quiet, _ := cmd.Flags().GetBool("quiet")

		owner, repo, err := release.ParseRepoURL(repoURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := release.ValidateCommitHash(base); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := release.ValidateCommitHash(head); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		logger := log.New(os.Stderr, "[release] ", log.LstdFlags)
		if quiet {
			logger = log.New(io.Discard, "", 0)
		}
		logger.Printf("Generating release notes for commits %s...%s on %s/%s",
			base[:release.MinHashLength], head[:release.MinHashLength], owner, repo)

		client := release.NewClient(owner, repo)
		notes, contribs, err := release.BuildNotes(cmd.Context(), client, base, head, version, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if release.HasBreaking(contribs) {
			fmt.Fprintf(os.Stderr, "%s there are breaking changes. These can only occur in major releases.\n",
				ui.RenderWarn("WARNING:"))
		}

		fmt.Println(notes)
	},
}

func init() {
	releaseCmd.Flags().StringP("repo", "r", "", "The repository URL to make a release for")
	releaseCmd.Flags().StringP("base", "b", "", "The base commit, not included in the changelog")
	releaseCmd.Flags().String("head", "", "The head commit, included in the changelog")
	releaseCmd.Flags().StringP("version", "v", "[VERSION]", "The version to make the release notes for")
	releaseCmd.Flags().Bool("quiet", false, "Don't send progress output on stderr")
	_ = releaseCmd.MarkFlagRequired("repo")
	_ = releaseCmd.MarkFlagRequired("base")
	_ = releaseCmd.MarkFlagRequired("head")
	rootCmd.AddCommand(releaseCmd)
}
