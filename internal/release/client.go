// Package release generates GitHub release notes from the merged pull
// requests between two commits, categorized by PR label.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	apiBase    = "https://api.github.com"
	apiVersion = "2022-11-28"

	// Merged PRs are fetched newest-first; a PR not in the first few
	// pages is treated as not found.
	pullPageSize = 50
	pullMaxPages = 5
)

// Client talks to the GitHub REST API for one repository.
type Client struct {
	owner   string
	repo    string
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for owner/repo. The API token is read from a
// TOKEN file in the working directory, falling back to the GITHUB_TOKEN
// environment variable; unauthenticated access works for public repos.
func NewClient(owner, repo string) *Client {
	return &Client{
		owner:   owner,
		repo:    repo,
		baseURL: fmt.Sprintf("%s/repos/%s/%s", apiBase, owner, repo),
		token:   loadToken(),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func loadToken() string {
	if data, err := os.ReadFile("TOKEN"); err == nil {
		return strings.TrimSpace(string(data))
	}
	return os.Getenv("GITHUB_TOKEN")
}

// Commit is the subset of the compare API's commit entries we need.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
}

// Pull is the subset of a pull request used for release notes.
type Pull struct {
	Number  int     `json:"number"`
	Title   string  `json:"title"`
	HTMLURL string  `json:"html_url"`
	User    User    `json:"user"`
	Labels  []Label `json:"labels"`
}

// User is a GitHub account reference.
type User struct {
	Login string `json:"login"`
}

// Label is a GitHub issue label reference.
type Label struct {
	Name string `json:"name"`
}

// fetch performs one GET against the repository API and decodes the JSON
// response into out.
func (c *Client) fetch(ctx context.Context, path string, out any) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return fmt.Errorf("GitHub API error %d: %s", resp.StatusCode, apiErr.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// CompareCommits returns the commits between base (exclusive) and head
// (inclusive).
func (c *Client) CompareCommits(ctx context.Context, base, head string) ([]Commit, error) {
	var result struct {
		Commits []Commit `json:"commits"`
	}
	if err := c.fetch(ctx, fmt.Sprintf("compare/%s...%s", base, head), &result); err != nil {
		return nil, err
	}
	return result.Commits, nil
}

// MergedPulls finds closed pull requests by number, paging through the
// most recently updated ones. Numbers not found in the searched pages are
// simply absent from the result.
func (c *Client) MergedPulls(ctx context.Context, numbers map[int]struct{}) ([]Pull, error) {
	remaining := make(map[int]struct{}, len(numbers))
	for n := range numbers {
		remaining[n] = struct{}{}
	}

	var found []Pull
	for page := 1; page <= pullMaxPages; page++ {
		if len(remaining) == 0 {
			break
		}

		path := "pulls?state=closed&sort=updated&direction=desc" +
			"&page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(pullPageSize)
		var pulls []Pull
		if err := c.fetch(ctx, path, &pulls); err != nil {
			return nil, err
		}

		for _, pr := range pulls {
			if _, ok := remaining[pr.Number]; ok {
				found = append(found, pr)
				delete(remaining, pr.Number)
			}
		}

		if len(pulls) < pullPageSize {
			break
		}
	}

	return found, nil
}
