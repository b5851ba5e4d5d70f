// Package models defines data structures for the doc2dev document index.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RepoStatus is the persisted lifecycle state of a repository record.
type RepoStatus string

const (
	// RepoStatusInProgress is set at job admission, before any stage runs.
	RepoStatusInProgress RepoStatus = "in_progress"
	// RepoStatusCompleted is terminal; counters are written with it.
	RepoStatusCompleted RepoStatus = "completed"
	// RepoStatusFailed is terminal and reachable from any non-terminal state.
	RepoStatusFailed RepoStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s RepoStatus) Terminal() bool {
	return s == RepoStatusCompleted || s == RepoStatusFailed
}

// Repository is the registry record for an ingested GitHub repository.
// Exactly one record exists per owner/name path; it is the sole source of
// truth for submission dedup.
type Repository struct {
	ID          surrealmodels.RecordID `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Path        string                 `json:"path"`
	URL         string                 `json:"url"`
	Status      RepoStatus             `json:"status"`
	Tokens      int                    `json:"tokens"`
	Snippets    int                    `json:"snippets"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Chunk is one embedded row in a repository's derived chunk table.
type Chunk struct {
	ID          *surrealmodels.RecordID `json:"id,omitempty"`
	Content     string                  `json:"content"`
	Source      string                  `json:"source"`
	HeadingPath string                  `json:"heading_path,omitempty"`
	Embedding   []float32               `json:"embedding"`
}

// ChunkMatch is a chunk returned from a similarity search, with its score.
type ChunkMatch struct {
	Content     string  `json:"content"`
	Source      string  `json:"source"`
	HeadingPath string  `json:"heading_path,omitempty"`
	Score       float64 `json:"score"`
}
