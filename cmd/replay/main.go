package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/faqstudio/backend/internal/domain/catalog"
	"github.com/faqstudio/backend/internal/infra/config"
	"github.com/faqstudio/backend/internal/infra/embedding"
	"github.com/faqstudio/backend/internal/infra/embedding/ollama"
	"github.com/faqstudio/backend/internal/infra/entryrepo"
	"github.com/faqstudio/backend/internal/infra/exportlog"
	"github.com/faqstudio/backend/internal/infra/vectorindex"
	"github.com/faqstudio/backend/pkg/logger"
)

// Offline repair tool: replays the export log into the canonical store and
// optionally rebuilds the secondary index from canonical entries.
func main() {
	restore := flag.Bool("restore", true, "replay export-log records into the canonical store")
	reindex := flag.Bool("reindex", false, "rebuild the vector index from canonical entries")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logg := logger.New()

	var embedder catalog.Embedder
	if baseURL := strings.TrimSpace(cfg.Embedding.BaseURL); baseURL == "" {
		embedder = embedding.NewDeterministic(0)
	} else {
		embedder = ollama.NewClient(baseURL, cfg.Embedding.Model, cfg.Embedding.Timeout, cfg.Embedding.MaxTokens, logg)
	}

	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		log.Fatal("DATABASE_URL is required for replay")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatalf("invalid postgres dsn: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Fatalf("postgres ping failed: %v", err)
	}
	repo := entryrepo.NewPostgresRepository(pool)

	exportLog, err := exportlog.NewFileLog(cfg.ExportLog.Path)
	if err != nil {
		log.Fatalf("failed to open export log: %v", err)
	}

	var index catalog.VectorIndex
	if url := strings.TrimSpace(cfg.Chroma.URL); url == "" {
		index = vectorindex.NewMemoryIndex()
	} else {
		index = vectorindex.NewChromaIndex(url, cfg.Chroma.Collection, cfg.Chroma.Timeout)
	}

	repair := catalog.NewRepair(catalog.Config{ReplayThrottle: cfg.Replay.Throttle}, embedder, repo, exportLog, index, logg)

	if *restore {
		report, err := repair.RestoreCanonical(ctx)
		if err != nil {
			log.Fatalf("restore failed: %v", err)
		}
		fmt.Printf("restore: total=%d inserted=%d skipped=%d failed=%d\n",
			report.Total, report.Inserted, report.Skipped, report.Failed)
	}

	if *reindex {
		report, err := repair.RebuildIndex(ctx)
		if err != nil {
			log.Fatalf("reindex failed: %v", err)
		}
		fmt.Printf("reindex: total=%d inserted=%d skipped=%d failed=%d\n",
			report.Total, report.Inserted, report.Skipped, report.Failed)
	}
}
