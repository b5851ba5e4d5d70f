// Package tools provides the MCP tool handlers and their registration.
package tools

import (
	"context"
	"log/slog"

	"github.com/doc2dev/doc2dev/internal/models"
	"github.com/doc2dev/doc2dev/internal/service"
)

// RepositoryLister enumerates the registered repositories.
type RepositoryLister interface {
	List(ctx context.Context) ([]models.Repository, error)
}

// DocSearcher answers questions against an ingested repository's chunks.
type DocSearcher interface {
	Search(ctx context.Context, table, query string, k int, summarize bool) (*service.SearchResult, error)
}

// Dependencies holds the shared services the tool handlers close over.
type Dependencies struct {
	Repos  RepositoryLister
	Search DocSearcher
	Logger *slog.Logger
}
