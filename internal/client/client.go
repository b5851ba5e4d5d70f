// Package client provides a typed HTTP client for the doc2dev server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client talks to the doc2dev HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, uses the DOC2DEV_SERVER_URL env
// var or defaults to localhost:8080. Timeout is configurable via
// DOC2DEV_CLIENT_TIMEOUT (default 10m; queries can wait on an LLM).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("DOC2DEV_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 10 * time.Minute
	if t := os.Getenv("DOC2DEV_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientID generates a fresh subscriber key for progress watching.
func NewClientID() string {
	return uuid.New().String()[:8]
}

// Repository mirrors the server's registry record.
type Repository struct {
	ID          any       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	Status      string    `json:"status"`
	Tokens      int       `json:"tokens"`
	Snippets    int       `json:"snippets"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DownloadResult is the admission outcome of a submit call.
type DownloadResult struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	TableName string `json:"table_name"`
	QueryURL  string `json:"query_url"`
	RepoPath  string `json:"repo_path"`
}

// ChunkMatch is one search hit.
type ChunkMatch struct {
	Content     string  `json:"content"`
	Source      string  `json:"source"`
	HeadingPath string  `json:"heading_path,omitempty"`
	Score       float64 `json:"score"`
}

// QueryResult is the answer to a search query.
type QueryResult struct {
	Results []ChunkMatch `json:"results"`
	Summary string       `json:"summary,omitempty"`
}

// ProgressEvent is one ingestion progress update.
type ProgressEvent struct {
	Type     string `json:"type"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (%s): %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(data))
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Download submits a repository for ingestion.
func (c *Client) Download(ctx context.Context, repoURL, libraryName, clientID string) (*DownloadResult, error) {
	req := map[string]string{"repo_url": repoURL}
	if libraryName != "" {
		req["library_name"] = libraryName
	}
	if clientID != "" {
		req["client_id"] = clientID
	}

	var result DownloadResult
	if err := c.do(ctx, http.MethodPost, "/api/download", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListRepositories returns all registered repositories.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	var repos []Repository
	if err := c.do(ctx, http.MethodGet, "/api/repositories", nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepository fetches one repository by its owner/name path.
func (c *Client) GetRepository(ctx context.Context, path string) (*Repository, error) {
	encoded := strings.Replace(path, "/", "_", 1)
	var repo Repository
	if err := c.do(ctx, http.MethodGet, "/api/repositories/"+url.PathEscape(encoded), nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// DeleteRepository removes a repository record and its chunk table.
func (c *Client) DeleteRepository(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/repositories/"+url.PathEscape(id), nil, nil)
}

// Query searches an ingested repository's chunks.
func (c *Client) Query(ctx context.Context, table, query string, k int, summarize bool) (*QueryResult, error) {
	req := map[string]any{
		"query":      query,
		"table_name": table,
		"summarize":  summarize,
	}
	if k > 0 {
		req["k"] = k
	}

	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/api/query", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WatchProgress connects to the progress websocket for clientID and invokes
// onEvent for each received event. It returns when the context is done, the
// connection drops, or onEvent returns an error.
func (c *Client) WatchProgress(ctx context.Context, clientID string, onEvent func(ProgressEvent) error) error {
	wsEndpoint := c.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/ws/" + url.PathEscape(clientID))
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	// Unblock ReadJSON when the context is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var event ProgressEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}
		if err := onEvent(event); err != nil {
			return err
		}
	}
}
