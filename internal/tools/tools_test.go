package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doc2dev/doc2dev/internal/models"
	"github.com/doc2dev/doc2dev/internal/service"
	"github.com/doc2dev/doc2dev/internal/tools"
)

type fakeLister struct {
	repos []models.Repository
	err   error
}

func (f *fakeLister) List(context.Context) ([]models.Repository, error) {
	return f.repos, f.err
}

type fakeDocSearcher struct {
	result *service.SearchResult
	err    error

	lastTable     string
	lastQuery     string
	lastK         int
	lastSummarize bool
}

func (f *fakeDocSearcher) Search(_ context.Context, table, query string, k int, summarize bool) (*service.SearchResult, error) {
	f.lastTable = table
	f.lastQuery = query
	f.lastK = k
	f.lastSummarize = summarize
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// dialTools starts a tool server over in-memory transports and returns a
// connected client session.
func dialTools(t *testing.T, deps *tools.Dependencies) *mcp.ClientSession {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "doc2dev-test",
		Version: "0.0.1",
	}, nil)
	tools.RegisterAll(server, deps)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

func testDeps() *tools.Dependencies {
	return &tools.Dependencies{
		Repos: &fakeLister{repos: []models.Repository{
			{Name: "Widgets", Path: "acme/widgets", URL: "https://github.com/acme/widgets", Status: models.RepoStatusCompleted},
			{Name: "Kubebuilder", Path: "kubernetes-sigs/kubebuilder", URL: "https://github.com/kubernetes-sigs/kubebuilder", Status: models.RepoStatusCompleted},
		}},
		Search: &fakeDocSearcher{result: &service.SearchResult{
			Results: []models.ChunkMatch{
				{Content: "Assemble widgets from parts.", Source: "README.md", Score: 0.9},
			},
			Summary: "Widgets are assembled from parts.",
		}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return text.Text
}

func TestListTools(t *testing.T) {
	session := dialTools(t, testDeps())

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Tools, 2)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.Contains(t, names, "search-library-id")
	assert.Contains(t, names, "get-library-docs")
}

func TestSearchLibraryID(t *testing.T) {
	session := dialTools(t, testDeps())

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search-library-id",
		Arguments: map[string]any{"libraryName": "kubebuilder"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		Status    string `json:"status"`
		Message   string `json:"message"`
		Libraries []struct {
			LibraryID  string `json:"libraryID"`
			Repository string `json:"repository"`
		} `json:"libraries"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Libraries, 1)
	assert.Equal(t, "kubernetes_sigs_kubebuilder", resp.Libraries[0].LibraryID)
	assert.Equal(t, "kubernetes-sigs/kubebuilder", resp.Libraries[0].Repository)
}

func TestSearchLibraryIDNoMatches(t *testing.T) {
	session := dialTools(t, testDeps())

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search-library-id",
		Arguments: map[string]any{"libraryName": "nonexistent"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		Libraries []any `json:"libraries"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &resp))
	assert.Empty(t, resp.Libraries)
}

func TestSearchLibraryIDEmptyName(t *testing.T) {
	session := dialTools(t, testDeps())

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search-library-id",
		Arguments: map[string]any{"libraryName": ""},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSearchLibraryIDListFailure(t *testing.T) {
	deps := testDeps()
	deps.Repos = &fakeLister{err: errors.New("connection refused")}
	session := dialTools(t, deps)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search-library-id",
		Arguments: map[string]any{"libraryName": "widgets"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetLibraryDocs(t *testing.T) {
	deps := testDeps()
	searcher := deps.Search.(*fakeDocSearcher)
	session := dialTools(t, deps)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get-library-docs",
		Arguments: map[string]any{
			"libraryID": "acme_widgets",
			"question":  "how are widgets assembled",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		Status        string              `json:"status"`
		Documentation string              `json:"documentation"`
		Results       []models.ChunkMatch `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Widgets are assembled from parts.", resp.Documentation)
	require.Len(t, resp.Results, 1)

	assert.Equal(t, "acme_widgets", searcher.lastTable)
	assert.Equal(t, "how are widgets assembled", searcher.lastQuery)
	assert.Equal(t, 5, searcher.lastK)
	assert.True(t, searcher.lastSummarize)
}

func TestGetLibraryDocsNoSummary(t *testing.T) {
	deps := testDeps()
	deps.Search = &fakeDocSearcher{result: &service.SearchResult{
		Results: []models.ChunkMatch{{Content: "raw hit", Source: "README.md"}},
	}}
	session := dialTools(t, deps)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get-library-docs",
		Arguments: map[string]any{
			"libraryID": "acme_widgets",
			"question":  "anything",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp struct {
		Documentation string `json:"documentation"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &resp))
	assert.Equal(t, "No summary available", resp.Documentation)
}

func TestGetLibraryDocsInvalidID(t *testing.T) {
	deps := testDeps()
	searcher := deps.Search.(*fakeDocSearcher)
	session := dialTools(t, deps)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get-library-docs",
		Arguments: map[string]any{
			"libraryID": "docs; REMOVE TABLE repository",
			"question":  "anything",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, searcher.lastTable, "invalid IDs must not reach the search")
}

func TestGetLibraryDocsMissingFields(t *testing.T) {
	session := dialTools(t, testDeps())

	for name, args := range map[string]map[string]any{
		"empty question": {"libraryID": "acme_widgets", "question": ""},
		"empty id":       {"libraryID": "", "question": "how"},
	} {
		result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      "get-library-docs",
			Arguments: args,
		})
		require.NoError(t, err, name)
		assert.True(t, result.IsError, name)
	}
}

func TestGetLibraryDocsSearchFailure(t *testing.T) {
	deps := testDeps()
	deps.Search = &fakeDocSearcher{err: errors.New("table not found")}
	session := dialTools(t, deps)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get-library-docs",
		Arguments: map[string]any{
			"libraryID": "acme_missing",
			"question":  "anything",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
