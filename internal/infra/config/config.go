package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ExportLog  ExportLogConfig  `yaml:"exportLog"`
	Categories CategoriesConfig `yaml:"categories"`
	Chroma     ChromaConfig     `yaml:"chroma"`
	Mirror     MirrorConfig     `yaml:"mirror"`
	Stats      StatsConfig      `yaml:"stats"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Replay     ReplayConfig     `yaml:"replay"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// AuthConfig guards mutating and admin routes with a shared-secret bearer token.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// EmbeddingConfig points at the Ollama-compatible embedding provider.
type EmbeddingConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"maxTokens"`
}

// SimilarityConfig drives the duplicate detection policy.
type SimilarityConfig struct {
	DefaultThreshold float64               `yaml:"defaultThreshold"`
	DefaultTopK      int                   `yaml:"defaultTopK"`
	MaxTopK          int                   `yaml:"maxTopK"`
	ShortQueryBoost  ShortQueryBoostConfig `yaml:"shortQueryBoost"`
}

// ShortQueryBoostConfig raises the effective threshold for queries shorter
// than MinTokens whitespace-delimited tokens. Off unless explicitly enabled.
type ShortQueryBoostConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Delta     float64 `yaml:"delta"`
	MinTokens int     `yaml:"minTokens"`
}

// PostgresConfig contains DSN and pooling settings for the canonical store.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ExportLogConfig locates the append-only JSON mirror.
type ExportLogConfig struct {
	Path string `yaml:"path"`
}

// CategoriesConfig locates the persisted category registry.
type CategoriesConfig struct {
	Path     string   `yaml:"path"`
	Defaults []string `yaml:"defaults"`
}

// ChromaConfig points at the secondary vector index.
type ChromaConfig struct {
	URL        string        `yaml:"url"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MirrorConfig controls the background mirror reconciler.
type MirrorConfig struct {
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// StatsConfig enables the duplicate-check trending counters.
type StatsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// SnapshotConfig enables export-log snapshot uploads to object storage.
type SnapshotConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// ReplayConfig tunes the replay repair procedure.
type ReplayConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 120,
				Burst:             20,
			},
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "http://ollama:11434",
			Model:     "bge-m3",
			Timeout:   20 * time.Second,
			MaxTokens: 1000,
		},
		Similarity: SimilarityConfig{
			DefaultThreshold: 0.85,
			DefaultTopK:      3,
			MaxTopK:          10,
			ShortQueryBoost: ShortQueryBoostConfig{
				Delta:     0.05,
				MinTokens: 4,
			},
		},
		ExportLog: ExportLogConfig{
			Path: "data/questions.json",
		},
		Categories: CategoriesConfig{
			Path:     "data/categories.json",
			Defaults: []string{"tahakkuk", "tahsilat", "diger"},
		},
		Chroma: ChromaConfig{
			Collection: "faq_questions",
			Timeout:    10 * time.Second,
		},
		Mirror: MirrorConfig{
			FlushInterval: 30 * time.Second,
		},
		Replay: ReplayConfig{
			Throttle: 200 * time.Millisecond,
		},
	}
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("EMBED_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Embedding.Timeout = parsed
		}
	}
	if v := os.Getenv("EMBED_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.MaxTokens = parsed
		}
	}
	if v := os.Getenv("SIM_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Similarity.DefaultThreshold = parsed
		}
	}
	if v := os.Getenv("SIM_SHORT_QUERY_BOOST"); v != "" {
		cfg.Similarity.ShortQueryBoost.Enabled = isTruthy(v)
	}
	if v := os.Getenv("JSON_PATH"); v != "" {
		cfg.ExportLog.Path = v
	}
	if v := os.Getenv("CATEGORIES_PATH"); v != "" {
		cfg.Categories.Path = v
	}
	if v := os.Getenv("CHROMA_URL"); v != "" {
		cfg.Chroma.URL = v
	}
	if v := os.Getenv("CHROMA_COLLECTION"); v != "" {
		cfg.Chroma.Collection = v
	}
	if v := os.Getenv("STATS_VALKEY_ADDR"); v != "" {
		cfg.Stats.Enabled = true
		cfg.Stats.Addr = v
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = isTruthy(v)
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("REPLAY_THROTTLE"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Replay.Throttle = parsed
		}
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Address) == "" {
		return errors.New("http.address cannot be empty")
	}
	// an empty base URL selects the offline deterministic embedder
	if c.Embedding.BaseURL != "" && !strings.HasPrefix(c.Embedding.BaseURL, "http://") && !strings.HasPrefix(c.Embedding.BaseURL, "https://") {
		return errors.New("embedding.baseUrl must start with http:// or https://")
	}
	if strings.TrimSpace(c.Embedding.Model) == "" {
		return errors.New("embedding.model cannot be empty")
	}
	if c.Embedding.Timeout <= 0 {
		return errors.New("embedding.timeout must be positive")
	}
	if c.Similarity.DefaultThreshold < 0 || c.Similarity.DefaultThreshold > 1 {
		return errors.New("similarity.defaultThreshold must be within [0, 1]")
	}
	if c.Similarity.MaxTopK < 1 {
		return errors.New("similarity.maxTopK must be positive")
	}
	if c.Similarity.DefaultTopK < 1 || c.Similarity.DefaultTopK > c.Similarity.MaxTopK {
		return errors.New("similarity.defaultTopK must be within [1, maxTopK]")
	}
	if c.Similarity.ShortQueryBoost.Enabled && c.Similarity.ShortQueryBoost.Delta < 0 {
		return errors.New("similarity.shortQueryBoost.delta cannot be negative")
	}
	if strings.TrimSpace(c.ExportLog.Path) == "" {
		return errors.New("exportLog.path cannot be empty")
	}
	if strings.TrimSpace(c.Categories.Path) == "" {
		return errors.New("categories.path cannot be empty")
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty when auth is enabled")
	}
	if c.Stats.Enabled && strings.TrimSpace(c.Stats.Addr) == "" {
		return errors.New("stats.addr cannot be empty when stats are enabled")
	}
	if c.Snapshot.Enabled && (c.Snapshot.Endpoint == "" || c.Snapshot.Bucket == "") {
		return errors.New("snapshot.endpoint and snapshot.bucket are required when snapshots are enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Mirror.FlushInterval <= 0 {
		return errors.New("mirror.flushInterval must be positive")
	}
	if c.Replay.Throttle < 0 {
		return errors.New("replay.throttle cannot be negative")
	}
	return nil
}
