package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doc2dev/doc2dev/internal/gitref"
	"github.com/doc2dev/doc2dev/internal/models"
)

// RegistryReader extends Registry with the query surface the HTTP API and
// CLI use.
type RegistryReader interface {
	Registry
	GetRepositoryByID(ctx context.Context, id string) (*models.Repository, error)
	ListRepositories(ctx context.Context) ([]models.Repository, error)
	DeleteRepository(ctx context.Context, id string) error
}

// TableDropper removes a repository's derived chunk table.
type TableDropper interface {
	DropChunkTable(ctx context.Context, table string) error
}

// RepositoryService exposes read and delete operations on the registry.
type RepositoryService struct {
	registry RegistryReader
	dropper  TableDropper
}

// NewRepositoryService wires a repository query service.
func NewRepositoryService(registry RegistryReader, dropper TableDropper) *RepositoryService {
	return &RepositoryService{registry: registry, dropper: dropper}
}

// List returns all registered repositories.
func (s *RepositoryService) List(ctx context.Context) ([]models.Repository, error) {
	return s.registry.ListRepositories(ctx)
}

// GetByPath returns the record for an owner/name path, or nil.
func (s *RepositoryService) GetByPath(ctx context.Context, path string) (*models.Repository, error) {
	return s.registry.GetRepositoryByPath(ctx, path)
}

// GetByID returns the record for a registry id, or nil.
func (s *RepositoryService) GetByID(ctx context.Context, id string) (*models.Repository, error) {
	return s.registry.GetRepositoryByID(ctx, id)
}

// Delete removes a repository record and its derived chunk table. The table
// drop is best-effort: its failure is logged and the record is still deleted,
// freeing the path for re-ingestion.
func (s *RepositoryService) Delete(ctx context.Context, id string) error {
	record, err := s.registry.GetRepositoryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup repository: %w", err)
	}
	if record == nil {
		return nil
	}

	table := gitref.TableNameFromPath(record.Path)
	if err := s.dropper.DropChunkTable(ctx, table); err != nil {
		slog.Warn("failed to drop chunk table, deleting record anyway", "table", table, "error", err)
	}

	if err := s.registry.DeleteRepository(ctx, id); err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}

	slog.Info("repository deleted", "path", record.Path, "table", table)
	return nil
}
