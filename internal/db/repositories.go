// Registry queries for repository records.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/doc2dev/doc2dev/internal/metrics"
	"github.com/doc2dev/doc2dev/internal/models"
)

// CreateRepository inserts a new registry record. The unique path index
// rejects duplicates; a violation surfaces as ErrAlreadyExists so racing
// submissions for the same path collapse into the "exists" outcome.
func (c *Client) CreateRepository(ctx context.Context, name, description, path, url string, status models.RepoStatus) (*models.Repository, error) {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	results, err := surrealdb.Query[[]models.Repository](ctx, c.db, `
		CREATE repository SET
			name = $name,
			description = $description,
			path = $path,
			url = $url,
			status = $status,
			tokens = 0,
			snippets = 0
		RETURN AFTER
	`, map[string]any{
		"name":        name,
		"description": description,
		"path":        path,
		"url":         url,
		"status":      string(status),
	})
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create repository: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetRepositoryByPath returns the record for an owner/name path, or nil if
// none exists.
func (c *Client) GetRepositoryByPath(ctx context.Context, path string) (*models.Repository, error) {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	results, err := surrealdb.Query[[]models.Repository](ctx, c.db, `
		SELECT * FROM repository WHERE path = $path LIMIT 1
	`, map[string]any{"path": path})
	if err != nil {
		return nil, fmt.Errorf("get repository by path: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// GetRepositoryByID returns the record with the given ID, or nil if none.
func (c *Client) GetRepositoryByID(ctx context.Context, id string) (*models.Repository, error) {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	results, err := surrealdb.Query[[]models.Repository](ctx, c.db, `
		SELECT * FROM type::record("repository", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// ListRepositories returns all registry records ordered by name.
func (c *Client) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	results, err := surrealdb.Query[[]models.Repository](ctx, c.db, `
		SELECT * FROM repository ORDER BY name
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Repository{}, nil
	}
	return (*results)[0].Result, nil
}

// UpdateRepositoryStatus sets the lifecycle status of a record. A single
// UPDATE statement keeps the status write atomic per record.
func (c *Client) UpdateRepositoryStatus(ctx context.Context, id string, status models.RepoStatus) error {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	results, err := surrealdb.Query[[]models.Repository](ctx, c.db, `
		UPDATE type::record("repository", $id) SET
			status = $status,
			updated_at = time::now()
		RETURN AFTER
	`, map[string]any{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("update repository status: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("update repository status: %w", ErrNotFound)
	}
	return nil
}

// UpdateRepositoryCounts writes the token and snippet counters, set once at
// completion.
func (c *Client) UpdateRepositoryCounts(ctx context.Context, id string, tokens, snippets int) error {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	results, err := surrealdb.Query[[]models.Repository](ctx, c.db, `
		UPDATE type::record("repository", $id) SET
			tokens = $tokens,
			snippets = $snippets,
			updated_at = time::now()
		RETURN AFTER
	`, map[string]any{"id": id, "tokens": tokens, "snippets": snippets})
	if err != nil {
		return fmt.Errorf("update repository counts: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("update repository counts: %w", ErrNotFound)
	}
	return nil
}

// DeleteRepository removes a registry record. Dropping the associated chunk
// table is the caller's responsibility (best-effort, see service layer).
func (c *Client) DeleteRepository(ctx context.Context, id string) error {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("repository", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	return nil
}
