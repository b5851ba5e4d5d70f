package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server. Called from main
// after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search-library-id",
		Description: "Resolve a library name into a library ID by fuzzy-matching the ingested repositories",
	}, NewSearchLibraryIDHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get-library-docs",
		Description: "Fetch up-to-date documentation for an ingested library by asking a question about it",
	}, NewGetLibraryDocsHandler(deps))
}
