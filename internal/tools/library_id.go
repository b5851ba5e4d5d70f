package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/doc2dev/doc2dev/internal/gitref"
)

// SearchLibraryIDInput defines the input schema for the search-library-id
// tool.
type SearchLibraryIDInput struct {
	LibraryName string `json:"libraryName" jsonschema:"required,Library name to search for (e.g. elasticsearch, langchain)"`
}

// libraryEntry is one match in a search-library-id response.
type libraryEntry struct {
	LibraryID   string `json:"libraryID"`
	Repository  string `json:"repository"`
	Description string `json:"description"`
}

type searchLibraryIDResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Libraries []libraryEntry `json:"libraries"`
}

// NewSearchLibraryIDHandler creates the search-library-id tool handler. It
// fuzzy-matches the registered repositories by name and path and returns the
// library IDs get-library-docs expects.
func NewSearchLibraryIDHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchLibraryIDInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchLibraryIDInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.LibraryName == "" {
			return ErrorResult("Library name cannot be empty", "Provide a library name to search for"), nil, nil
		}

		repos, err := deps.Repos.List(ctx)
		if err != nil {
			deps.Logger.Error("library lookup failed", "error", err)
			return ErrorResult("Failed to search for library ID", "Database may be unavailable"), nil, nil
		}

		needle := strings.ToLower(input.LibraryName)
		libraries := make([]libraryEntry, 0)
		for _, r := range repos {
			if !strings.Contains(strings.ToLower(r.Name), needle) &&
				!strings.Contains(strings.ToLower(r.Path), needle) {
				continue
			}
			id := gitref.TableNameFromPath(r.Path)
			libraries = append(libraries, libraryEntry{
				LibraryID:   id,
				Repository:  r.Path,
				Description: fmt.Sprintf("Table: %s, Repository: %s", id, r.Path),
			})
		}

		result := searchLibraryIDResult{
			Status:    "success",
			Message:   fmt.Sprintf("Found %d libraries matching %q", len(libraries), input.LibraryName),
			Libraries: libraries,
		}
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")

		deps.Logger.Info("library search completed", "query", input.LibraryName, "results", len(libraries))
		return TextResult(string(jsonBytes)), nil, nil
	}
}
