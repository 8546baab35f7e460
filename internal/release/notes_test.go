package release

import (
	"strings"
	"testing"
)

// TestValidateCommitHash covers hex and length validation.
func TestValidateCommitHash(t *testing.T) {
	if err := ValidateCommitHash("abc1234"); err != nil {
		t.Errorf("7-char hex hash rejected: %v", err)
	}
	if err := ValidateCommitHash("ABCDEF0123456789abcdef0123456789abcdef01"); err != nil {
		t.Errorf("full hash rejected: %v", err)
	}
	if err := ValidateCommitHash("abc123"); err == nil {
		t.Error("expected error for 6-char hash")
	}
	if err := ValidateCommitHash("abcdefg"); err == nil {
		t.Error("expected error for non-hex hash")
	}
}

// TestParseRepoURL covers GitHub URL parsing.
func TestParseRepoURL(t *testing.T) {
	owner, repo, err := ParseRepoURL("https://github.com/opensearch-project/dashboards")
	if err != nil {
		t.Fatalf("ParseRepoURL failed: %v", err)
	}
	if owner != "opensearch-project" || repo != "dashboards" {
		t.Errorf("got %s/%s", owner, repo)
	}

	owner, repo, err = ParseRepoURL("http://github.com/a/b/tree/main")
	if err != nil {
		t.Fatalf("ParseRepoURL failed on http with extra path: %v", err)
	}
	if owner != "a" || repo != "b" {
		t.Errorf("got %s/%s, want a/b", owner, repo)
	}

	if _, _, err := ParseRepoURL("https://gitlab.com/a/b"); err == nil {
		t.Error("expected error for non-GitHub host")
	}
	if _, _, err := ParseRepoURL("https://github.com/only-owner"); err == nil {
		t.Error("expected error for missing repo segment")
	}
}

// TestCommitPR verifies PR reference extraction from commit headlines.
func TestCommitPR(t *testing.T) {
	tests := []struct {
		message string
		want    int
	}{
		{"Fix crash on empty input (#42)", 42},
		{"Backport (#10) of fix (#42)", 10},
		{"Refers to (#5)\nBody mentions (#3)", 5},
		{"No reference here", 0},
		{"Issue #7 without parens", 0},
	}
	for _, tt := range tests {
		if got := CommitPR(tt.message); got != tt.want {
			t.Errorf("CommitPR(%q) = %d, want %d", tt.message, got, tt.want)
		}
	}
}

// TestExtractCategory verifies label precedence and the unknown fallback.
func TestExtractCategory(t *testing.T) {
	got := extractCategory([]Label{{Name: "bug"}, {Name: "breaking"}})
	if got != "breaking" {
		t.Errorf("category = %s, want breaking", got)
	}

	got = extractCategory([]Label{{Name: "triage"}})
	if got != "unknown" {
		t.Errorf("category = %s, want unknown", got)
	}

	got = extractCategory(nil)
	if got != "unknown" {
		t.Errorf("category = %s, want unknown", got)
	}
}

// TestMakeNotes verifies section ordering, PR sorting, prefix stripping,
// and skip-changelog exclusion.
func TestMakeNotes(t *testing.T) {
	contribs := []Contribution{
		{PullReq: 10, Title: "Add dark mode", Category: "enhancement", Link: "https://example.com/10"},
		{PullReq: 30, Title: "[theme] Fix contrast", Category: "bug", Link: "https://example.com/30"},
		{PullReq: 20, Title: "Bump deps", Category: "skip-changelog", Link: "https://example.com/20"},
		{PullReq: 40, Title: "Faster startup", Category: "enhancement", Link: "https://example.com/40"},
	}

	notes := MakeNotes(contribs, "2.14.0")

	if !strings.HasPrefix(notes, "## Version 2.14.0 Release Notes") {
		t.Errorf("missing header:\n%s", notes)
	}
	if !strings.Contains(notes, "Compatible with OpenSearch and OpenSearch Dashboards version 2.14.0") {
		t.Error("missing compatibility line")
	}

	features := strings.Index(notes, "### Features")
	bugs := strings.Index(notes, "### Bug Fixes")
	if features == -1 || bugs == -1 || features > bugs {
		t.Errorf("sections missing or out of order:\n%s", notes)
	}

	if strings.Contains(notes, "Bump deps") {
		t.Error("skip-changelog entry leaked into notes")
	}
	if !strings.Contains(notes, "* Fix contrast ([#30](https://example.com/30))") {
		t.Errorf("title prefix not stripped:\n%s", notes)
	}

	// Newest PR first within a section.
	fast := strings.Index(notes, "Faster startup")
	dark := strings.Index(notes, "Add dark mode")
	if fast == -1 || dark == -1 || fast > dark {
		t.Errorf("entries not sorted by PR number descending:\n%s", notes)
	}

	if strings.HasSuffix(notes, "\n") {
		t.Error("notes should not end with a newline")
	}
}

// TestMakeNotes_Empty verifies notes with no contributions still carry the
// header.
func TestMakeNotes_Empty(t *testing.T) {
	notes := MakeNotes(nil, "1.0.0")
	if !strings.Contains(notes, "## Version 1.0.0 Release Notes") {
		t.Errorf("missing header:\n%s", notes)
	}
	if strings.Contains(notes, "###") {
		t.Errorf("empty notes should have no sections:\n%s", notes)
	}
}

// TestHasBreaking verifies breaking-change detection.
func TestHasBreaking(t *testing.T) {
	if HasBreaking([]Contribution{{Category: "bug"}}) {
		t.Error("false positive")
	}
	if !HasBreaking([]Contribution{{Category: "bug"}, {Category: "breaking"}}) {
		t.Error("false negative")
	}
}
