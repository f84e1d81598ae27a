// Package config loads nebula settings from the environment and an optional
// dotenv file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

const (
	keyHost              = "host"
	keyPort              = "port"
	keySnapshotDir       = "snapshot_dir"
	keyLogLevel          = "log_level"
	keyLogDir            = "log_dir"
	keyTraceStdout       = "trace_stdout"
	keyEmbeddingBackend  = "embedding_backend"
	keyEmbeddingURL      = "embedding_url"
	keyEmbeddingModel    = "embedding_model"
	keyEmbeddingTimeout  = "embedding_timeout"
	keyEmbeddingCacheTTL = "embedding_cache_ttl"
	keyKeywordTopN       = "keyword_top_n"
)

// Config holds all server configuration.
type Config struct {
	// Server
	Host string
	Port int

	// Snapshot files are written below this directory.
	SnapshotDir string

	// Logging and tracing
	LogLevel    slog.Level
	LogDir      string
	TraceStdout bool

	// Keyword extraction
	EmbeddingBackend  string
	EmbeddingURL      string
	EmbeddingModel    string
	EmbeddingTimeout  time.Duration
	EmbeddingCacheTTL time.Duration
	KeywordTopN       int
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads configuration from environment variables with defaults. Values
// in envFile are used for variables the environment does not set; a missing
// envFile is not an error.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Host:              v.GetString(keyHost),
		Port:              v.GetInt(keyPort),
		SnapshotDir:       v.GetString(keySnapshotDir),
		LogDir:            v.GetString(keyLogDir),
		TraceStdout:       v.GetBool(keyTraceStdout),
		EmbeddingBackend:  strings.ToLower(v.GetString(keyEmbeddingBackend)),
		EmbeddingURL:      v.GetString(keyEmbeddingURL),
		EmbeddingModel:    v.GetString(keyEmbeddingModel),
		EmbeddingTimeout:  v.GetDuration(keyEmbeddingTimeout),
		EmbeddingCacheTTL: v.GetDuration(keyEmbeddingCacheTTL),
		KeywordTopN:       v.GetInt(keyKeywordTopN),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyHost, "127.0.0.1")
	v.SetDefault(keyPort, 8000)
	v.SetDefault(keySnapshotDir, "snapshots")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogDir, "")
	v.SetDefault(keyTraceStdout, false)
	v.SetDefault(keyEmbeddingBackend, "http")
	v.SetDefault(keyEmbeddingURL, "http://127.0.0.1:8080/v1/embeddings")
	v.SetDefault(keyEmbeddingModel, "jhgan/ko-sroberta-multitask")
	v.SetDefault(keyEmbeddingTimeout, "30s")
	v.SetDefault(keyEmbeddingCacheTTL, "10m")
	v.SetDefault(keyKeywordTopN, 5)
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.SnapshotDir == "" {
		return errors.New("SNAPSHOT_DIR must not be empty")
	}
	switch c.EmbeddingBackend {
	case "http":
		if c.EmbeddingURL == "" {
			return errors.New("EMBEDDING_URL is required for the http backend")
		}
	case "hashing":
	default:
		return fmt.Errorf("EMBEDDING_BACKEND must be http or hashing, got %q", c.EmbeddingBackend)
	}
	if c.EmbeddingTimeout <= 0 {
		return fmt.Errorf("EMBEDDING_TIMEOUT must be positive, got %s", c.EmbeddingTimeout)
	}
	if c.EmbeddingCacheTTL < 0 {
		return fmt.Errorf("EMBEDDING_CACHE_TTL must not be negative, got %s", c.EmbeddingCacheTTL)
	}
	if c.KeywordTopN < 1 {
		return fmt.Errorf("KEYWORD_TOP_N must be at least 1, got %d", c.KeywordTopN)
	}
	return nil
}
