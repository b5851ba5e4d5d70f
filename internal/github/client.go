// Package github fetches a repository's markdown files through the GitHub
// REST API (tree walk + blob downloads).
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doc2dev/doc2dev/internal/gitref"
	"github.com/doc2dev/doc2dev/internal/metrics"
)

// Sentinel errors for fetch failures. Check with errors.Is().
var (
	// ErrNoMarkdownFiles indicates the repository tree contains no markdown
	// blobs, or every download failed.
	ErrNoMarkdownFiles = errors.New("no markdown files found")

	// ErrUpstream indicates a GitHub API failure that makes continuation
	// meaningless (missing repo, auth, rate limit).
	ErrUpstream = errors.New("github api error")
)

// ProgressFunc receives per-file download progress.
type ProgressFunc func(current, total int, message string)

// Client talks to the GitHub REST API.
type Client struct {
	token       string
	baseURL     string
	http        *http.Client
	concurrency int
	metrics     *metrics.Collector
}

// NewClient creates a GitHub client. An empty token means unauthenticated
// requests (60/hour rate limit). Concurrency bounds parallel blob downloads.
// The metrics collector may be nil.
func NewClient(token string, concurrency int, mc *metrics.Collector) *Client {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Client{
		token:       token,
		baseURL:     "https://api.github.com",
		http:        &http.Client{Timeout: 30 * time.Second},
		concurrency: concurrency,
		metrics:     mc,
	}
}

type ghRepo struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
}

type ghTree struct {
	SHA       string        `json:"sha"`
	Truncated bool          `json:"truncated"`
	Tree      []ghTreeEntry `json:"tree"`
}

type ghTreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

type ghBlob struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *Client) apiGet(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(v)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d (auth or rate limit)", ErrUpstream, resp.StatusCode)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status 404", ErrUpstream)
	default:
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
}

// isMarkdown reports whether a tree path names a markdown file.
func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// FetchMarkdown walks the repository's default-branch tree, downloads every
// markdown blob into destDir (preserving tree paths), and returns the written
// file paths. Individual blob failures are logged and skipped; only an empty
// result is fatal. onProgress may be nil.
func (c *Client) FetchMarkdown(ctx context.Context, repo gitref.Repo, destDir string, onProgress ProgressFunc) ([]string, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordTiming(metrics.OpDownload, time.Since(start))
		}
	}()

	progress := func(current, total int, msg string) {
		if onProgress != nil {
			onProgress(current, total, msg)
		}
	}

	var meta ghRepo
	if err := c.apiGet(ctx, "/repos/"+repo.Path(), &meta); err != nil {
		return nil, fmt.Errorf("get repository %s: %w", repo.Path(), err)
	}
	slog.Info("fetching repository tree", "repo", repo.Path(), "branch", meta.DefaultBranch)

	progress(0, 1, "fetching repository contents...")

	var tree ghTree
	treePath := fmt.Sprintf("/repos/%s/git/trees/%s?recursive=1", repo.Path(), meta.DefaultBranch)
	if err := c.apiGet(ctx, treePath, &tree); err != nil {
		return nil, fmt.Errorf("get tree %s@%s: %w", repo.Path(), meta.DefaultBranch, err)
	}
	if tree.Truncated {
		slog.Warn("repository tree truncated by API", "repo", repo.Path())
	}

	var mdEntries []ghTreeEntry
	for _, entry := range tree.Tree {
		if entry.Type == "blob" && isMarkdown(entry.Path) {
			mdEntries = append(mdEntries, entry)
		}
	}
	if len(mdEntries) == 0 {
		return nil, fmt.Errorf("%s: %w", repo.Path(), ErrNoMarkdownFiles)
	}

	total := len(mdEntries)
	slog.Info("found markdown files", "repo", repo.Path(), "count", total)
	progress(0, total, fmt.Sprintf("found %d markdown files, downloading...", total))

	// Bounded-concurrency downloads; a failed file is skipped, never fatal
	// for its siblings.
	var done atomic.Int32
	written := make([]string, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, entry := range mdEntries {
		g.Go(func() error {
			path, err := c.downloadBlob(gctx, repo, entry, destDir)
			current := int(done.Add(1))
			if err != nil {
				slog.Warn("skipping file", "repo", repo.Path(), "file", entry.Path, "error", err)
				progress(current, total, fmt.Sprintf("skipped %s: %v", entry.Path, err))
				return nil
			}
			written[i] = path
			progress(current, total, fmt.Sprintf("downloaded %d/%d: %s", current, total, entry.Path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]string, 0, total)
	for _, p := range written {
		if p != "" {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: all downloads failed: %w", repo.Path(), ErrNoMarkdownFiles)
	}

	slog.Info("download complete", "repo", repo.Path(), "files", len(files), "skipped", total-len(files))
	return files, nil
}

// downloadBlob fetches one blob and writes it under destDir at its tree path.
func (c *Client) downloadBlob(ctx context.Context, repo gitref.Repo, entry ghTreeEntry, destDir string) (string, error) {
	var blob ghBlob
	blobPath := fmt.Sprintf("/repos/%s/git/blobs/%s", repo.Path(), entry.SHA)
	if err := c.apiGet(ctx, blobPath, &blob); err != nil {
		return "", fmt.Errorf("get blob: %w", err)
	}

	var content []byte
	if blob.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decode blob: %w", err)
		}
		content = decoded
	} else {
		content = []byte(blob.Content)
	}

	filePath := filepath.Join(destDir, filepath.FromSlash(entry.Path))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return filePath, nil
}
