package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/doc2dev/doc2dev/internal/gitref"
	"github.com/doc2dev/doc2dev/internal/models"
)

// docsResultCount is the number of chunks retrieved per question.
const docsResultCount = 5

// GetLibraryDocsInput defines the input schema for the get-library-docs
// tool.
type GetLibraryDocsInput struct {
	LibraryID string `json:"libraryID" jsonschema:"required,Library ID from search-library-id (e.g. kubernetes_sigs_kubebuilder)"`
	Question  string `json:"question" jsonschema:"required,Question to ask about the library"`
}

type getLibraryDocsResult struct {
	Status        string              `json:"status"`
	Message       string              `json:"message"`
	Documentation string              `json:"documentation"`
	Results       []models.ChunkMatch `json:"results"`
}

// NewGetLibraryDocsHandler creates the get-library-docs tool handler. It
// runs a summarized search over the library's chunk table and returns the
// summary with the raw hits.
func NewGetLibraryDocsHandler(deps *Dependencies) mcp.ToolHandlerFor[GetLibraryDocsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetLibraryDocsInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.LibraryID == "" {
			return ErrorResult("Library ID cannot be empty", "Resolve it with search-library-id first"), nil, nil
		}
		if input.Question == "" {
			return ErrorResult("Question cannot be empty", "Provide a question about the library"), nil, nil
		}
		// Library IDs name chunk tables, which are interpolated into queries.
		if !gitref.ValidTableName(input.LibraryID) {
			return ErrorResult(fmt.Sprintf("Invalid library ID %q", input.LibraryID), "Resolve it with search-library-id first"), nil, nil
		}

		res, err := deps.Search.Search(ctx, input.LibraryID, input.Question, docsResultCount, true)
		if err != nil {
			deps.Logger.Error("documentation query failed", "library_id", input.LibraryID, "error", err)
			return ErrorResult("Failed to get library documentation", "Check that the library has been ingested"), nil, nil
		}

		documentation := res.Summary
		if documentation == "" {
			documentation = "No summary available"
		}

		result := getLibraryDocsResult{
			Status:        "success",
			Message:       fmt.Sprintf("Retrieved documentation from table %q", input.LibraryID),
			Documentation: documentation,
			Results:       res.Results,
		}
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")

		deps.Logger.Info("documentation retrieved", "library_id", input.LibraryID, "results", len(res.Results))
		return TextResult(string(jsonBytes)), nil, nil
	}
}
