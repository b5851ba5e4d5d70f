// Package main provides the doc2dev MCP server. It exposes the ingested
// documentation to MCP clients over stdio.
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
	"github.com/doc2dev/doc2dev/internal/llm"
	"github.com/doc2dev/doc2dev/internal/mcpserver"
	"github.com/doc2dev/doc2dev/internal/metrics"
	"github.com/doc2dev/doc2dev/internal/service"
	"github.com/doc2dev/doc2dev/internal/tools"
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

	logger.Info("starting doc2dev-mcp", "version", Version, "surrealdb_url", cfg.SurrealDBURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	collector := metrics.NewCollector()

	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := db.NewClient(connectCtx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger, collector)
	connectCancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	embedder, err := llm.NewEmbedder(cfg, collector)
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}

	// Summaries are optional: without an LLM the docs tool returns raw hits.
	var summarizer service.Summarizer
	if model, err := llm.NewModel(cfg, collector); err != nil {
		logger.Warn("summarization disabled", "error", err)
	} else {
		summarizer = model
	}

	repos := service.NewRepositoryService(store, store)
	search := service.NewSearchService(store, embedder, summarizer)

	srv := mcpserver.New(Version, logger)
	srv.Setup()
	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Repos:  repos,
		Search: search,
		Logger: logger,
	})
	logger.Info("tools registered", "count", 2)

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
