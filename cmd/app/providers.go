package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/faqstudio/backend/internal/domain/catalog"
	"github.com/faqstudio/backend/internal/infra/categoryfile"
	"github.com/faqstudio/backend/internal/infra/config"
	"github.com/faqstudio/backend/internal/infra/embedding"
	"github.com/faqstudio/backend/internal/infra/embedding/ollama"
	"github.com/faqstudio/backend/internal/infra/entryrepo"
	"github.com/faqstudio/backend/internal/infra/exportlog"
	"github.com/faqstudio/backend/internal/infra/snapshot"
	"github.com/faqstudio/backend/internal/infra/statstore"
	"github.com/faqstudio/backend/internal/infra/vectorindex"
)

func provideCatalogConfig(cfg *config.Config) catalog.Config {
	return catalog.Config{
		DefaultThreshold:    cfg.Similarity.DefaultThreshold,
		DefaultTopK:         cfg.Similarity.DefaultTopK,
		MaxTopK:             cfg.Similarity.MaxTopK,
		ShortQueryBoost:     cfg.Similarity.ShortQueryBoost.Enabled,
		ShortQueryDelta:     cfg.Similarity.ShortQueryBoost.Delta,
		ShortQueryMinTokens: cfg.Similarity.ShortQueryBoost.MinTokens,
		FlushInterval:       cfg.Mirror.FlushInterval,
		ReplayThrottle:      cfg.Replay.Throttle,
	}
}

func provideEmbedder(cfg *config.Config, logger *slog.Logger) catalog.Embedder {
	baseURL := strings.TrimSpace(cfg.Embedding.BaseURL)
	if baseURL == "" {
		logger.Info("embedding base url not set, using deterministic embedder")
		return embedding.NewDeterministic(0)
	}
	return ollama.NewClient(baseURL, cfg.Embedding.Model, cfg.Embedding.Timeout, cfg.Embedding.MaxTokens, logger)
}

func provideEntryRepository(cfg *config.Config, logger *slog.Logger) catalog.EntryRepository {
	fallback := entryrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres canonical repository enabled")
	return entryrepo.NewPostgresRepository(pool)
}

func provideExportLog(cfg *config.Config) (catalog.ExportLog, error) {
	return exportlog.NewFileLog(cfg.ExportLog.Path)
}

func provideVectorIndex(cfg *config.Config, logger *slog.Logger) catalog.VectorIndex {
	url := strings.TrimSpace(cfg.Chroma.URL)
	if url == "" {
		logger.Info("chroma url not set, using memory index")
		return vectorindex.NewMemoryIndex()
	}
	logger.Info("chroma index enabled", "url", url, "collection", cfg.Chroma.Collection)
	return vectorindex.NewChromaIndex(url, cfg.Chroma.Collection, cfg.Chroma.Timeout)
}

func provideCategoryRegistry(cfg *config.Config) (catalog.CategoryRegistry, error) {
	return categoryfile.NewRegistry(cfg.Categories.Path, cfg.Categories.Defaults)
}

func provideCheckStats(cfg *config.Config, logger *slog.Logger) catalog.CheckStats {
	if cfg.Stats.Enabled {
		opt, err := buildValkeyOptions(cfg.Stats.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory stats", "error", err)
			return statstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory stats", "error", err)
			return statstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory stats", "error", err)
		} else {
			logger.Info("valkey check stats enabled", "addr", cfg.Stats.Addr)
			return statstore.NewValkeyStore(client, "faq")
		}
	}
	return statstore.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideSnapshotStore(cfg *config.Config, logger *slog.Logger) catalog.SnapshotStore {
	if !cfg.Snapshot.Enabled {
		return nil
	}
	store, err := snapshot.NewMinioStore(
		cfg.Snapshot.Endpoint,
		cfg.Snapshot.AccessKey,
		cfg.Snapshot.SecretKey,
		cfg.Snapshot.Bucket,
		cfg.Snapshot.Region,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize snapshot store, snapshots disabled", "error", err)
		return nil
	}
	logger.Info("snapshot uploads enabled", "bucket", cfg.Snapshot.Bucket)
	return store
}

func provideReconciler(cfg catalog.Config, log catalog.ExportLog, index catalog.VectorIndex, snapshots catalog.SnapshotStore, logger *slog.Logger) *catalog.Reconciler {
	return catalog.NewReconciler(log, index, snapshots, cfg.FlushInterval, logger)
}
