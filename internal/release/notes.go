package release

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MinHashLength is the shortest commit hash accepted on the command line.
const MinHashLength = 7

// category maps a PR label to its release-notes section. A category with
// an empty Title is excluded from the notes.
type category struct {
	Label string
	Title string
}

// categories lists the sections in render order. The first matching label
// on a PR wins.
var categories = []category{
	{"breaking", "Breaking"},
	{"enhancement", "Features"},
	{"bug", "Bug Fixes"},
	{"infrastructure", "Infrastructure"},
	{"documentation", "Documentation"},
	{"maintenance", "Maintenance"},
	{"unknown", "UNKNOWN (Needs Manual Categorization)"},
	{"skip-changelog", ""},
}

// ValidateCommitHash checks that hash is hexadecimal and long enough to be
// unambiguous.
func ValidateCommitHash(hash string) error {
	for _, c := range hash {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return fmt.Errorf("commit hash %q is not hexadecimal", hash)
		}
	}
	if len(hash) < MinHashLength {
		return fmt.Errorf("commit hash %q too short: min length is %d", hash, MinHashLength)
	}
	return nil
}

// ParseRepoURL extracts owner and repository from a GitHub URL.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("repo %q is not a valid URL: %w", repoURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host != "github.com" {
		return "", "", fmt.Errorf("repo %q is not a GitHub URL", repoURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repo %q does not name owner/repository", repoURL)
	}
	return parts[0], parts[1], nil
}

var prRefPattern = regexp.MustCompile(`\(#(\d+)\)`)

// CommitPR returns the lowest PR number referenced as "(#123)" in the
// headline of a commit message, or 0 if none.
func CommitPR(message string) int {
	headline, _, _ := strings.Cut(message, "\n")
	matches := prRefPattern.FindAllStringSubmatch(headline, -1)

	lowest := 0
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if lowest == 0 || n < lowest {
			lowest = n
		}
	}
	return lowest
}

// Contribution is one pull request's entry in the release notes.
type Contribution struct {
	PullReq  int
	Author   string
	Title    string
	Category string
	Link     string
}

// NewContribution classifies a pull request by its labels.
func NewContribution(pr Pull) Contribution {
	return Contribution{
		PullReq:  pr.Number,
		Author:   pr.User.Login,
		Title:    pr.Title,
		Category: extractCategory(pr.Labels),
		Link:     pr.HTMLURL,
	}
}

// extractCategory returns the first known category label on the PR, or
// "unknown".
func extractCategory(labels []Label) string {
	names := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		names[l.Name] = struct{}{}
	}
	for _, cat := range categories {
		if _, ok := names[cat.Label]; ok {
			return cat.Label
		}
	}
	return "unknown"
}

// HasBreaking reports whether any contribution carries the breaking label.
func HasBreaking(contribs []Contribution) bool {
	for _, c := range contribs {
		if c.Category == "breaking" {
			return true
		}
	}
	return false
}

// MakeNotes renders the markdown release notes. Contributions labeled
// skip-changelog are omitted; within a section PRs are listed newest
// first, with any leading "[component]" prefix stripped from the title.
func MakeNotes(contribs []Contribution, version string) string {
	byCategory := make(map[string][]Contribution)
	for _, c := range contribs {
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Version %s Release Notes\n\n", version)
	fmt.Fprintf(&b, "Compatible with OpenSearch and OpenSearch Dashboards version %s\n\n", version)

	for _, cat := range categories {
		entries := byCategory[cat.Label]
		if len(entries) == 0 || cat.Title == "" {
			continue
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].PullReq > entries[j].PullReq
		})

		fmt.Fprintf(&b, "### %s\n", cat.Title)
		for _, entry := range entries {
			title := entry.Title
			if strings.HasPrefix(title, "[") {
				if _, rest, ok := strings.Cut(title, "]"); ok {
					title = rest
				}
			}
			fmt.Fprintf(&b, "* %s ([#%d](%s))\n", strings.TrimSpace(title), entry.PullReq, entry.Link)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// BuildNotes runs the full pipeline: compare commits, resolve the PRs they
// reference, and render the notes.
func BuildNotes(ctx context.Context, client *Client, base, head, version string, logger *log.Logger) (string, []Contribution, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[release] ", log.LstdFlags)
	}

	commits, err := client.CompareCommits(ctx, base, head)
	if err != nil {
		return "", nil, err
	}
	logger.Printf("Found %d commits, searching for associated PRs", len(commits))

	numbers := make(map[int]struct{})
	refs := 0
	for _, commit := range commits {
		if n := CommitPR(commit.Commit.Message); n != 0 {
			numbers[n] = struct{}{}
			refs++
		}
	}
	if refs > len(numbers) {
		logger.Printf("Deduplicated %d PR references to %d PRs", refs, len(numbers))
	}

	pulls, err := client.MergedPulls(ctx, numbers)
	if err != nil {
		return "", nil, err
	}
	logger.Printf("Successfully found %d associated PRs", len(pulls))
	if len(pulls) < len(numbers) {
		missing := make(map[int]struct{}, len(numbers))
		for n := range numbers {
			missing[n] = struct{}{}
		}
		for _, pr := range pulls {
			delete(missing, pr.Number)
		}
		logger.Printf("Unable to find PRs: %v", keys(missing))
	}

	contribs := make([]Contribution, 0, len(pulls))
	for _, pr := range pulls {
		contribs = append(contribs, NewContribution(pr))
	}

	return MakeNotes(contribs, version), contribs, nil
}

func keys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
