// Package service implements the ingestion pipeline and the query surface
// over the repository registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/doc2dev/doc2dev/internal/db"
	"github.com/doc2dev/doc2dev/internal/gitref"
	"github.com/doc2dev/doc2dev/internal/github"
	"github.com/doc2dev/doc2dev/internal/models"
	"github.com/doc2dev/doc2dev/internal/parser"
)

// Registry is the subset of db.Client the ingestion pipeline needs.
type Registry interface {
	CreateRepository(ctx context.Context, name, description, path, url string, status models.RepoStatus) (*models.Repository, error)
	GetRepositoryByPath(ctx context.Context, path string) (*models.Repository, error)
	UpdateRepositoryStatus(ctx context.Context, id string, status models.RepoStatus) error
	UpdateRepositoryCounts(ctx context.Context, id string, tokens, snippets int) error
}

// Fetcher downloads a repository's markdown files into a directory.
type Fetcher interface {
	FetchMarkdown(ctx context.Context, repo gitref.Repo, destDir string, onProgress github.ProgressFunc) ([]string, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// ChunkStore persists embedded chunks into a per-repository table.
type ChunkStore interface {
	InitChunkTable(ctx context.Context, table string, dimension int, dropOld bool) error
	InsertChunks(ctx context.Context, table string, chunks []models.Chunk) error
}

// Notifier pushes progress events to a subscriber. A false return means the
// subscriber is gone and the caller should stop notifying it.
type Notifier interface {
	Deliver(clientID string, event models.ProgressEvent) bool
}

// SubmitStatus tags the admission outcome.
type SubmitStatus string

const (
	// StatusAccepted means a background ingestion job was started.
	StatusAccepted SubmitStatus = "accepted"
	// StatusExists means the repository is already registered; nothing ran.
	StatusExists SubmitStatus = "exists"
)

// SubmitRequest is an admission request for one repository.
type SubmitRequest struct {
	RepoURL string
	// TableName overrides the derived chunk table name.
	TableName string
	// ClientID selects the progress subscriber. Empty disables notification.
	ClientID string
}

// SubmitOutcome is the synchronous result of an admission call.
type SubmitOutcome struct {
	Status    SubmitStatus
	RepoPath  string
	TableName string
	QueryURL  string

	// ExistingStatus is the registered record's lifecycle status when the
	// outcome is StatusExists, empty otherwise.
	ExistingStatus models.RepoStatus
}

// IngestService admits ingestion jobs and runs them in the background.
type IngestService struct {
	registry Registry
	fetcher  Fetcher
	embedder Embedder
	store    ChunkStore
	notifier Notifier

	chunkCfg      parser.ChunkConfig
	embedBatch    int
	queryPageBase string

	jobs sync.WaitGroup
}

// NewIngestService wires an ingestion service. queryPageBase is the frontend
// base URL used to build query-page links.
func NewIngestService(registry Registry, fetcher Fetcher, embedder Embedder, store ChunkStore, notifier Notifier, queryPageBase string) *IngestService {
	return &IngestService{
		registry:      registry,
		fetcher:       fetcher,
		embedder:      embedder,
		store:         store,
		notifier:      notifier,
		chunkCfg:      parser.DefaultChunkConfig(),
		embedBatch:    32,
		queryPageBase: queryPageBase,
	}
}

// Wait blocks until all in-flight background jobs finish. Used on shutdown
// and by tests.
func (s *IngestService) Wait() {
	s.jobs.Wait()
}

// QueryURL builds the frontend query-page link for a repository.
func (s *IngestService) QueryURL(table, name, path string) string {
	q := url.Values{}
	q.Set("table", table)
	q.Set("repo_name", name)
	q.Set("repo_path", path)
	return fmt.Sprintf("%s/query?%s", s.queryPageBase, q.Encode())
}

// Submit resolves the reference, deduplicates by path, and on a fresh path
// registers the repository and starts a background job. It never blocks on
// stage work. Resubmitting a known path yields StatusExists, not an error.
func (s *IngestService) Submit(ctx context.Context, req SubmitRequest) (SubmitOutcome, error) {
	repo, err := gitref.Resolve(req.RepoURL)
	if err != nil {
		return SubmitOutcome{}, err
	}

	// Table name is fixed at admission. An explicit override is normalized
	// the same way as the derived name; anything that still contains
	// characters a SurrealQL identifier cannot hold is rejected here, since
	// table names are interpolated, not parameter-bound.
	table := repo.TableName()
	if req.TableName != "" {
		table = gitref.TableNameFromPath(req.TableName)
	}
	if !gitref.ValidTableName(table) {
		return SubmitOutcome{}, fmt.Errorf("%w: %q", gitref.ErrInvalidTableName, table)
	}

	existing, err := s.registry.GetRepositoryByPath(ctx, repo.Path())
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		slog.Info("repository already registered", "path", repo.Path(), "status", existing.Status)
		return SubmitOutcome{
			Status:         StatusExists,
			RepoPath:       repo.Path(),
			TableName:      table,
			QueryURL:       s.QueryURL(table, existing.Name, repo.Path()),
			ExistingStatus: existing.Status,
		}, nil
	}

	record, err := s.registry.CreateRepository(ctx, repo.DisplayName(), "", repo.Path(), repo.URL(), models.RepoStatusInProgress)
	if err != nil {
		// Lost the unique-path race to a concurrent submit.
		if errors.Is(err, db.ErrAlreadyExists) {
			slog.Info("lost admission race, repository exists", "path", repo.Path())
			return SubmitOutcome{
				Status:    StatusExists,
				RepoPath:  repo.Path(),
				TableName: table,
				QueryURL:  s.QueryURL(table, repo.DisplayName(), repo.Path()),
				// The racing creator registered the record in_progress.
				ExistingStatus: models.RepoStatusInProgress,
			}, nil
		}
		return SubmitOutcome{}, fmt.Errorf("register repository: %w", err)
	}

	job := &ingestJob{
		repo:     repo,
		recordID: models.MustRecordIDString(record.ID),
		table:    table,
		clientID: req.ClientID,
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("ingestion job panicked", "path", job.repo.Path(), "panic", r)
				s.failJob(context.Background(), job, models.EventDownload, fmt.Errorf("internal panic: %v", r))
			}
		}()
		s.run(context.Background(), job)
	}()

	slog.Info("ingestion job admitted", "path", repo.Path(), "table", table)
	return SubmitOutcome{
		Status:    StatusAccepted,
		RepoPath:  repo.Path(),
		TableName: table,
		QueryURL:  s.QueryURL(table, record.Name, repo.Path()),
	}, nil
}

// ingestJob is the in-memory state of one background ingestion.
type ingestJob struct {
	repo     gitref.Repo
	recordID string
	table    string

	// clientID is cleared after the first failed delivery.
	clientID string
}

// notify delivers an event while the job still has a live subscriber.
func (s *IngestService) notify(job *ingestJob, eventType, status string, current, total int, message string) {
	if job.clientID == "" {
		return
	}
	delivered := s.notifier.Deliver(job.clientID, models.ProgressEvent{
		Type:     eventType,
		Status:   status,
		Progress: models.Percent(current, total),
		Current:  current,
		Total:    total,
		Message:  message,
	})
	if !delivered {
		slog.Debug("subscriber gone, muting job notifications", "path", job.repo.Path(), "client_id", job.clientID)
		job.clientID = ""
	}
}

// failJob marks the registry record failed and emits a stage error event.
func (s *IngestService) failJob(ctx context.Context, job *ingestJob, eventType string, cause error) {
	slog.Error("ingestion job failed", "path", job.repo.Path(), "stage", eventType, "error", cause)
	s.notify(job, eventType, models.StatusError, 0, 0, cause.Error())
	if err := s.registry.UpdateRepositoryStatus(ctx, job.recordID, models.RepoStatusFailed); err != nil {
		slog.Error("failed to mark repository failed", "path", job.repo.Path(), "error", err)
	}
}

// run executes the download, load, embed, and persist stages for one job.
// The workspace is removed on every exit path.
func (s *IngestService) run(ctx context.Context, job *ingestJob) {
	workspace, err := os.MkdirTemp("", "doc2dev-ingest-*")
	if err != nil {
		s.failJob(ctx, job, models.EventDownload, fmt.Errorf("create workspace: %w", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			slog.Warn("workspace cleanup failed", "path", job.repo.Path(), "workspace", workspace, "error", err)
		}
	}()

	// Download.
	s.notify(job, models.EventDownload, models.StatusStarted, 0, 0, fmt.Sprintf("downloading %s", job.repo.Path()))

	files, err := s.fetcher.FetchMarkdown(ctx, job.repo, workspace, func(current, total int, message string) {
		s.notify(job, models.EventDownload, models.StatusInProgress, current, total, message)
	})
	if err != nil {
		s.failJob(ctx, job, models.EventDownload, err)
		return
	}
	s.notify(job, models.EventDownload, models.StatusCompleted, len(files), len(files), fmt.Sprintf("downloaded %d files", len(files)))

	// Load and split.
	docs, err := parser.LoadFiles(workspace, files)
	if err != nil {
		s.failJob(ctx, job, models.EventEmbedding, fmt.Errorf("load documents: %w", err))
		return
	}

	var chunks []models.Chunk
	tokens := 0
	codeBlocks := 0
	for _, doc := range docs {
		tokens += parser.CountTokens(doc.Content)
		codeBlocks += parser.CountCodeBlocks(doc.Content)
		for _, c := range parser.ChunkDocument(doc, s.chunkCfg) {
			chunks = append(chunks, models.Chunk{
				Content:     c.Content,
				Source:      doc.Source,
				HeadingPath: c.HeadingPath,
			})
		}
	}
	if len(chunks) == 0 {
		s.failJob(ctx, job, models.EventEmbedding, fmt.Errorf("no content to embed in %s", job.repo.Path()))
		return
	}

	// Embed and store.
	s.notify(job, models.EventEmbedding, models.StatusStarted, 0, len(chunks), fmt.Sprintf("embedding %d chunks", len(chunks)))

	if err := s.store.InitChunkTable(ctx, job.table, s.embedder.Dimension(), true); err != nil {
		s.failJob(ctx, job, models.EventEmbedding, fmt.Errorf("init chunk table: %w", err))
		return
	}
	if err := s.embedAndStore(ctx, job, chunks); err != nil {
		s.failJob(ctx, job, models.EventEmbedding, err)
		return
	}
	s.notify(job, models.EventEmbedding, models.StatusCompleted, len(chunks), len(chunks), fmt.Sprintf("embedded %d chunks", len(chunks)))

	// Persist bookkeeping. The embeddings are already durable, so registry
	// write failures degrade the record but do not fail the job.
	bookkeepingOK := true
	if err := s.registry.UpdateRepositoryStatus(ctx, job.recordID, models.RepoStatusCompleted); err != nil {
		slog.Error("failed to mark repository completed", "path", job.repo.Path(), "error", err)
		bookkeepingOK = false
	}
	if err := s.registry.UpdateRepositoryCounts(ctx, job.recordID, tokens, len(chunks)); err != nil {
		slog.Error("failed to write repository counters", "path", job.repo.Path(), "error", err)
		bookkeepingOK = false
	}

	if bookkeepingOK {
		s.notify(job, models.EventDatabase, models.StatusCompleted, len(chunks), len(chunks),
			fmt.Sprintf("ingested %s: %d snippets, %d tokens, %d code blocks", job.repo.Path(), len(chunks), tokens, codeBlocks))
	} else {
		s.notify(job, models.EventDatabase, models.StatusError, len(chunks), len(chunks),
			"ingestion finished but repository bookkeeping failed")
	}

	slog.Info("ingestion job finished",
		"path", job.repo.Path(),
		"table", job.table,
		"files", len(files),
		"snippets", len(chunks),
		"tokens", tokens,
		"bookkeeping_ok", bookkeepingOK)
}

// embedAndStore embeds chunks in batches and inserts them as they complete.
func (s *IngestService) embedAndStore(ctx context.Context, job *ingestJob, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += s.embedBatch {
		end := min(start+s.embedBatch, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		if err := s.store.InsertChunks(ctx, job.table, batch); err != nil {
			return fmt.Errorf("insert chunks %d-%d: %w", start, end, err)
		}

		s.notify(job, models.EventEmbedding, models.StatusInProgress, end, len(chunks),
			fmt.Sprintf("embedded %d/%d chunks", end, len(chunks)))
	}
	return nil
}
