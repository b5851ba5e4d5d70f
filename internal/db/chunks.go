// Per-repository chunk tables (the derived vector storage).
//
// Table names are interpolated into the SQL via type::table / DEFINE
// statements; SurrealDB has no parameter binding for table names. Callers
// validate names with gitref.ValidTableName before they reach this package.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/doc2dev/doc2dev/internal/metrics"
	"github.com/doc2dev/doc2dev/internal/models"
)

// InitChunkTable creates (and optionally first drops) the chunk table for a
// repository, with an HNSW index matching the embedder dimension.
func (c *Client) InitChunkTable(ctx context.Context, table string, dimension int, dropOld bool) error {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	if dropOld {
		if _, err := surrealdb.Query[any](ctx, c.db,
			fmt.Sprintf("REMOVE TABLE IF EXISTS %s", table), nil); err != nil {
			return fmt.Errorf("drop chunk table %s: %w", table, err)
		}
	}

	sql := fmt.Sprintf(`
		DEFINE TABLE IF NOT EXISTS %[1]s SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS content ON %[1]s TYPE string;
		DEFINE FIELD IF NOT EXISTS source ON %[1]s TYPE string;
		DEFINE FIELD IF NOT EXISTS heading_path ON %[1]s TYPE option<string>;
		DEFINE FIELD IF NOT EXISTS embedding ON %[1]s TYPE array<float>;
		DEFINE INDEX IF NOT EXISTS %[1]s_embedding ON %[1]s FIELDS embedding
			HNSW DIMENSION %[2]d DIST COSINE TYPE F32;
	`, table, dimension)

	if _, err := surrealdb.Query[any](ctx, c.db, sql, nil); err != nil {
		return fmt.Errorf("init chunk table %s: %w", table, err)
	}
	return nil
}

// InsertChunks writes embedded chunks into a repository's chunk table.
func (c *Client) InsertChunks(ctx context.Context, table string, chunks []models.Chunk) error {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	if len(chunks) == 0 {
		return nil
	}

	rows := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		rows[i] = map[string]any{
			"content":      ch.Content,
			"source":       ch.Source,
			"heading_path": ch.HeadingPath,
			"embedding":    ch.Embedding,
		}
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		INSERT INTO type::table($table) $rows
	`, map[string]any{"table": table, "rows": rows})
	if err != nil {
		return fmt.Errorf("insert chunks into %s: %w", table, err)
	}
	return nil
}

// SearchChunks performs a cosine KNN search over a repository's chunk table.
func (c *Client) SearchChunks(ctx context.Context, table string, embedding []float32, k int) ([]models.ChunkMatch, error) {
	defer c.recordTiming(metrics.OpDBSearch, time.Now())

	if k <= 0 {
		k = 5
	}

	sql := fmt.Sprintf(`
		SELECT content, source, heading_path,
			vector::similarity::cosine(embedding, $emb) AS score
		FROM %s
		WHERE embedding <|%d,40|> $emb
		ORDER BY score DESC
	`, table, k)

	results, err := surrealdb.Query[[]models.ChunkMatch](ctx, c.db, sql, map[string]any{
		"emb": embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks in %s: %w", table, err)
	}

	if results == nil || len(*results) == 0 {
		return []models.ChunkMatch{}, nil
	}
	return (*results)[0].Result, nil
}

// CountChunks returns the number of rows in a chunk table. Missing tables
// count as zero.
func (c *Client) CountChunks(ctx context.Context, table string) (int, error) {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, `
		SELECT count() AS count FROM type::table($table) GROUP ALL
	`, map[string]any{"table": table})
	if err != nil {
		return 0, fmt.Errorf("count chunks in %s: %w", table, err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}

// DropChunkTable removes a repository's chunk table. Used by delete cascade;
// callers treat failure as non-fatal.
func (c *Client) DropChunkTable(ctx context.Context, table string) error {
	defer c.recordTiming(metrics.OpDBQuery, time.Now())

	_, err := surrealdb.Query[any](ctx, c.db,
		fmt.Sprintf("REMOVE TABLE IF EXISTS %s", table), nil)
	if err != nil {
		return fmt.Errorf("drop chunk table %s: %w", table, err)
	}
	return nil
}
