package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Frontmatter(t *testing.T) {
	content := "---\ntitle: Widget Guide\ntags:\n  - docs\n---\n\nBody text here."

	doc, err := Parse("guide.md", content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.Title != "Widget Guide" {
		t.Errorf("Title = %q, want %q", doc.Title, "Widget Guide")
	}
	if got := doc.Frontmatter["title"]; got != "Widget Guide" {
		t.Errorf("Frontmatter[title] = %v", got)
	}
	if !strings.Contains(doc.Content, "Body text here.") {
		t.Errorf("Content = %q, missing body", doc.Content)
	}
	if strings.Contains(doc.Content, "tags:") {
		t.Errorf("Content = %q, frontmatter not stripped", doc.Content)
	}
}

func TestParse_MalformedFrontmatterIgnored(t *testing.T) {
	content := "---\n: not yaml [\n---\n\n# Heading\n\nText."

	doc, err := Parse("bad.md", content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Frontmatter) != 0 {
		t.Errorf("Frontmatter = %v, want empty", doc.Frontmatter)
	}
	if doc.Title != "Heading" {
		t.Errorf("Title = %q, want %q", doc.Title, "Heading")
	}
}

func TestParse_SectionPaths(t *testing.T) {
	content := "# Widgets\n\nintro\n\n## Setup\n\nsetup steps\n\n### Install\n\ninstall steps\n\n## Usage\n\nusage notes\n"

	doc, err := Parse("README.md", content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantPaths := []string{
		"# Widgets",
		"# Widgets > ## Setup",
		"# Widgets > ## Setup > ### Install",
		"# Widgets > ## Usage",
	}
	if len(doc.Sections) != len(wantPaths) {
		t.Fatalf("got %d sections, want %d", len(doc.Sections), len(wantPaths))
	}
	for i, want := range wantPaths {
		if doc.Sections[i].Path != want {
			t.Errorf("section[%d].Path = %q, want %q", i, doc.Sections[i].Path, want)
		}
	}
	if doc.Sections[1].Content != "setup steps" {
		t.Errorf("section[1].Content = %q", doc.Sections[1].Content)
	}
}

func TestParse_HeadingInsideCodeFence(t *testing.T) {
	content := "# Real\n\ntext\n\n```\n# not a heading\n```\n\nmore text\n"

	doc, err := Parse("README.md", content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(doc.Sections))
	}
	if !strings.Contains(doc.Sections[0].Content, "# not a heading") {
		t.Errorf("fenced heading dropped from content: %q", doc.Sections[0].Content)
	}
}

func TestLoadFiles_RelativeSources(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "docs")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	paths := []string{
		filepath.Join(root, "README.md"),
		filepath.Join(sub, "guide.md"),
	}
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("# Doc\n\ntext\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := LoadFiles(root, paths)
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].Source != "README.md" {
		t.Errorf("docs[0].Source = %q", docs[0].Source)
	}
	if docs[1].Source != "docs/guide.md" {
		t.Errorf("docs[1].Source = %q", docs[1].Source)
	}
}

func TestLoadFiles_SkipsUnreadable(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good.md")
	if err := os.WriteFile(good, []byte("# Good\n\ntext\n"), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadFiles(root, []string{filepath.Join(root, "missing.md"), good})
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if docs[0].Source != "good.md" {
		t.Errorf("docs[0].Source = %q", docs[0].Source)
	}
}

func TestCountTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"   \n\t", 0},
		{"one", 1},
		{"alpha beta  gamma\ndelta", 4},
	}
	for _, tt := range tests {
		if got := CountTokens(tt.content); got != tt.want {
			t.Errorf("CountTokens(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestCountCodeBlocks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"none", "plain text", 0},
		{"one block", "```go\nfmt.Println()\n```\n", 1},
		{"two blocks", "```\na\n```\ntext\n```sh\nb\n```\n", 2},
		{"unclosed fence", "```\ndangling\n", 0},
		{"indented fence", "  ```\nx\n  ```\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountCodeBlocks(tt.content); got != tt.want {
				t.Errorf("CountCodeBlocks() = %d, want %d", got, tt.want)
			}
		})
	}
}
