// Package main provides the doc2dev API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doc2dev/doc2dev/internal/config"
	"github.com/doc2dev/doc2dev/internal/db"
	"github.com/doc2dev/doc2dev/internal/github"
	"github.com/doc2dev/doc2dev/internal/llm"
	"github.com/doc2dev/doc2dev/internal/metrics"
	"github.com/doc2dev/doc2dev/internal/server"
	"github.com/doc2dev/doc2dev/internal/service"
	"github.com/doc2dev/doc2dev/internal/ws"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("starting doc2dev-server", "port", cfg.ServerPort, "version", Version)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger, collector)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := store.InitSchema(ctx); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	embedder, err := llm.NewEmbedder(cfg, collector)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}

	// Summaries are optional: without an LLM, queries still return raw hits.
	var summarizer service.Summarizer
	if model, err := llm.NewModel(cfg, collector); err != nil {
		slog.Warn("summarization disabled", "error", err)
	} else {
		summarizer = model
	}

	hub := ws.NewHub()
	fetcher := github.NewClient(cfg.GitHubToken, cfg.FetchConcurrency, collector)

	ingest := service.NewIngestService(store, fetcher, embedder, store, hub, cfg.QueryPageBase)
	repos := service.NewRepositoryService(store, store)
	search := service.NewSearchService(store, embedder, summarizer)

	srv := server.New(cfg.ServerPort, ingest, repos, search, hub, collector, logger, Version)

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Shutdown waits for in-flight ingestion jobs to drain.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
