//go:build integration

// Integration tests for SurrealDB operations. A real SurrealDB instance is
// started via testcontainers; run with -tags integration.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/doc2dev/doc2dev/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// dummyEmbedding returns a deterministic test vector. 8 dimensions keeps the
// HNSW index cheap; the seed shifts the direction so cosine scores differ.
func dummyEmbedding(seed int) []float32 {
	embedding := make([]float32, 8)
	for i := range embedding {
		embedding[i] = float32((i+seed)%8) / 8.0
	}
	return embedding
}

// =============================================================================
// REPOSITORY TESTS
// =============================================================================

func TestCreateRepository(t *testing.T) {
	ctx := context.Background()

	record, err := testDB.CreateRepository(ctx, "widgets", "widget docs",
		"acme/widgets", "https://github.com/acme/widgets", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}
	if record.Name != "widgets" {
		t.Errorf("expected name widgets, got %s", record.Name)
	}
	if record.Path != "acme/widgets" {
		t.Errorf("expected path acme/widgets, got %s", record.Path)
	}
	if record.Status != models.RepoStatusInProgress {
		t.Errorf("expected status in_progress, got %s", record.Status)
	}
	if record.Tokens != 0 || record.Snippets != 0 {
		t.Errorf("expected zero counters, got tokens=%d snippets=%d", record.Tokens, record.Snippets)
	}
}

func TestCreateRepositoryDuplicatePath(t *testing.T) {
	ctx := context.Background()

	_, err := testDB.CreateRepository(ctx, "gadgets", "",
		"acme/gadgets", "https://github.com/acme/gadgets", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("first CreateRepository failed: %v", err)
	}

	_, err = testDB.CreateRepository(ctx, "gadgets-again", "",
		"acme/gadgets", "https://github.com/acme/gadgets", models.RepoStatusInProgress)
	if err == nil {
		t.Fatal("expected duplicate path to fail")
	}
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetRepositoryByPath(t *testing.T) {
	ctx := context.Background()

	created, err := testDB.CreateRepository(ctx, "sprockets", "",
		"acme/sprockets", "https://github.com/acme/sprockets", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}

	found, err := testDB.GetRepositoryByPath(ctx, "acme/sprockets")
	if err != nil {
		t.Fatalf("GetRepositoryByPath failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected record, got nil")
	}
	if found.ID.String() != created.ID.String() {
		t.Errorf("expected id %s, got %s", created.ID, found.ID)
	}

	missing, err := testDB.GetRepositoryByPath(ctx, "acme/nothing")
	if err != nil {
		t.Fatalf("GetRepositoryByPath failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown path, got %+v", missing)
	}
}

func TestGetRepositoryByID(t *testing.T) {
	ctx := context.Background()

	created, err := testDB.CreateRepository(ctx, "byid", "",
		"acme/byid", "https://github.com/acme/byid", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}
	id := models.MustRecordIDString(created.ID)

	found, err := testDB.GetRepositoryByID(ctx, id)
	if err != nil {
		t.Fatalf("GetRepositoryByID failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected record, got nil")
	}
	if found.Path != "acme/byid" {
		t.Errorf("expected path acme/byid, got %s", found.Path)
	}

	missing, err := testDB.GetRepositoryByID(ctx, "doesnotexist")
	if err != nil {
		t.Fatalf("GetRepositoryByID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestUpdateRepositoryStatus(t *testing.T) {
	ctx := context.Background()

	created, err := testDB.CreateRepository(ctx, "statuses", "",
		"acme/statuses", "https://github.com/acme/statuses", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}
	id := models.MustRecordIDString(created.ID)

	if err := testDB.UpdateRepositoryStatus(ctx, id, models.RepoStatusCompleted); err != nil {
		t.Fatalf("UpdateRepositoryStatus failed: %v", err)
	}

	found, err := testDB.GetRepositoryByID(ctx, id)
	if err != nil {
		t.Fatalf("GetRepositoryByID failed: %v", err)
	}
	if found.Status != models.RepoStatusCompleted {
		t.Errorf("expected completed, got %s", found.Status)
	}

	err = testDB.UpdateRepositoryStatus(ctx, "doesnotexist", models.RepoStatusFailed)
	if err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestUpdateRepositoryCounts(t *testing.T) {
	ctx := context.Background()

	created, err := testDB.CreateRepository(ctx, "counters", "",
		"acme/counters", "https://github.com/acme/counters", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}
	id := models.MustRecordIDString(created.ID)

	if err := testDB.UpdateRepositoryCounts(ctx, id, 1234, 56); err != nil {
		t.Fatalf("UpdateRepositoryCounts failed: %v", err)
	}

	found, err := testDB.GetRepositoryByID(ctx, id)
	if err != nil {
		t.Fatalf("GetRepositoryByID failed: %v", err)
	}
	if found.Tokens != 1234 {
		t.Errorf("expected tokens 1234, got %d", found.Tokens)
	}
	if found.Snippets != 56 {
		t.Errorf("expected snippets 56, got %d", found.Snippets)
	}
}

func TestListRepositories(t *testing.T) {
	ctx := context.Background()

	_, err := testDB.CreateRepository(ctx, "listed", "",
		"acme/listed", "https://github.com/acme/listed", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}

	records, err := testDB.ListRepositories(ctx)
	if err != nil {
		t.Fatalf("ListRepositories failed: %v", err)
	}
	found := false
	for _, r := range records {
		if r.Path == "acme/listed" {
			found = true
		}
	}
	if !found {
		t.Error("expected acme/listed in listing")
	}
}

func TestDeleteRepository(t *testing.T) {
	ctx := context.Background()

	created, err := testDB.CreateRepository(ctx, "doomed", "",
		"acme/doomed", "https://github.com/acme/doomed", models.RepoStatusInProgress)
	if err != nil {
		t.Fatalf("CreateRepository failed: %v", err)
	}
	id := models.MustRecordIDString(created.ID)

	if err := testDB.DeleteRepository(ctx, id); err != nil {
		t.Fatalf("DeleteRepository failed: %v", err)
	}

	found, err := testDB.GetRepositoryByID(ctx, id)
	if err != nil {
		t.Fatalf("GetRepositoryByID failed: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil after delete, got %+v", found)
	}
}

// =============================================================================
// CHUNK TABLE TESTS
// =============================================================================

func TestChunkTableLifecycle(t *testing.T) {
	ctx := context.Background()
	table := "acme_chunks"

	if err := testDB.InitChunkTable(ctx, table, 8, true); err != nil {
		t.Fatalf("InitChunkTable failed: %v", err)
	}

	chunks := []models.Chunk{
		{Content: "Install with go get.", Source: "docs/install.md", HeadingPath: "# Install", Embedding: dummyEmbedding(0)},
		{Content: "Configure via env vars.", Source: "docs/config.md", HeadingPath: "# Config", Embedding: dummyEmbedding(1)},
		{Content: "Run the server.", Source: "docs/run.md", Embedding: dummyEmbedding(2)},
	}
	if err := testDB.InsertChunks(ctx, table, chunks); err != nil {
		t.Fatalf("InsertChunks failed: %v", err)
	}

	count, err := testDB.CountChunks(ctx, table)
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 chunks, got %d", count)
	}

	matches, err := testDB.SearchChunks(ctx, table, dummyEmbedding(0), 2)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if len(matches) > 2 {
		t.Errorf("expected at most 2 matches, got %d", len(matches))
	}
	if matches[0].Content != "Install with go get." {
		t.Errorf("expected exact-vector chunk first, got %q", matches[0].Content)
	}
	if matches[0].Score < matches[len(matches)-1].Score {
		t.Error("expected matches ordered by descending score")
	}

	if err := testDB.DropChunkTable(ctx, table); err != nil {
		t.Fatalf("DropChunkTable failed: %v", err)
	}
	count, err = testDB.CountChunks(ctx, table)
	if err != nil {
		t.Fatalf("CountChunks after drop failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 chunks after drop, got %d", count)
	}
}

func TestInitChunkTableDropOld(t *testing.T) {
	ctx := context.Background()
	table := "acme_reingest"

	if err := testDB.InitChunkTable(ctx, table, 8, true); err != nil {
		t.Fatalf("InitChunkTable failed: %v", err)
	}
	if err := testDB.InsertChunks(ctx, table, []models.Chunk{
		{Content: "old content", Source: "old.md", Embedding: dummyEmbedding(0)},
	}); err != nil {
		t.Fatalf("InsertChunks failed: %v", err)
	}

	// Re-init with dropOld wipes prior rows.
	if err := testDB.InitChunkTable(ctx, table, 8, true); err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
	count, err := testDB.CountChunks(ctx, table)
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table after re-init, got %d rows", count)
	}
}

func TestInsertChunksEmpty(t *testing.T) {
	ctx := context.Background()

	if err := testDB.InsertChunks(ctx, "acme_empty", nil); err != nil {
		t.Errorf("expected nil error for empty insert, got %v", err)
	}
}
