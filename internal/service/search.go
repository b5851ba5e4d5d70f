package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doc2dev/doc2dev/internal/llm"
	"github.com/doc2dev/doc2dev/internal/models"
)

// Searcher runs similarity queries against a chunk table.
type Searcher interface {
	SearchChunks(ctx context.Context, table string, embedding []float32, k int) ([]models.ChunkMatch, error)
}

// QueryEmbedder embeds a single query string.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Summarizer condenses search hits into a query-focused answer.
type Summarizer interface {
	SummarizeResults(ctx context.Context, query string, results []llm.SearchHit) (string, error)
}

// SearchService answers queries over an ingested repository's chunks.
type SearchService struct {
	searcher   Searcher
	embedder   QueryEmbedder
	summarizer Summarizer
}

// NewSearchService wires a search service. The summarizer may be nil, in
// which case summaries are never produced.
func NewSearchService(searcher Searcher, embedder QueryEmbedder, summarizer Summarizer) *SearchService {
	return &SearchService{searcher: searcher, embedder: embedder, summarizer: summarizer}
}

// SearchResult is the answer to one query.
type SearchResult struct {
	Results []models.ChunkMatch `json:"results"`
	Summary string              `json:"summary,omitempty"`
}

// Search embeds the query, retrieves the top-k chunks from the table, and
// optionally summarizes them. A summarizer failure drops the summary only;
// the raw results are still returned.
func (s *SearchService) Search(ctx context.Context, table, query string, k int, summarize bool) (*SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.searcher.SearchChunks(ctx, table, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", table, err)
	}

	result := &SearchResult{Results: matches}

	if summarize && s.summarizer != nil && len(matches) > 0 {
		hits := make([]llm.SearchHit, len(matches))
		for i, m := range matches {
			hits[i] = llm.SearchHit{Content: m.Content, Source: m.Source, HeadingPath: m.HeadingPath}
		}
		summary, err := s.summarizer.SummarizeResults(ctx, query, hits)
		if err != nil {
			slog.Warn("summarization failed, returning raw results", "table", table, "error", err)
		} else {
			result.Summary = summary
		}
	}

	return result, nil
}
