package keyword

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrModelUnavailable = errors.New("keyword model unavailable")

const (
	BackendHTTP    = "http"
	BackendHashing = "hashing"

	hashingDims   = 384
	cacheCapacity = 50000
	warmupText    = "모델 준비"
)

// Options selects and configures the embedding backend.
type Options struct {
	Backend  string
	URL      string
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Loader builds an Extractor. It is called until it succeeds once.
type Loader func(ctx context.Context) (*Extractor, error)

// ModelHolder owns the process-wide Extractor. The extractor is created on
// first use and never replaced afterwards; a failed load is retried on the
// next call.
type ModelHolder struct {
	mu     sync.Mutex
	load   Loader
	model  *Extractor
	logger *slog.Logger
}

func NewModelHolder(load Loader, logger *slog.Logger) *ModelHolder {
	return &ModelHolder{load: load, logger: logger.With("comp", "keyword")}
}

// Get returns the loaded extractor, loading it if needed.
func (h *ModelHolder) Get(ctx context.Context) (*Extractor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.model != nil {
		return h.model, nil
	}

	start := time.Now()
	model, err := h.load(ctx)
	if err != nil {
		h.logger.Error("keyword model load failed", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	h.logger.Info("keyword model loaded", "elapsed", time.Since(start))
	h.model = model
	return model, nil
}

// Loaded reports whether the extractor has been created.
func (h *ModelHolder) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.model != nil
}

// NewLoader returns a Loader for the backend described by opts. The HTTP
// backend is probed with a warm-up request so an unreachable server fails
// the load instead of the first real extraction.
func NewLoader(opts Options, logger *slog.Logger) Loader {
	return func(ctx context.Context) (*Extractor, error) {
		var embedder Embedder
		switch opts.Backend {
		case BackendHTTP:
			if opts.URL == "" {
				return nil, errors.New("embedding URL is not configured")
			}
			httpEmbedder := NewHTTPEmbedder(opts.URL, opts.Model, opts.Timeout)
			if _, err := httpEmbedder.Embed(ctx, []string{warmupText}); err != nil {
				return nil, fmt.Errorf("failed to reach embedding model %s: %w", opts.Model, err)
			}
			embedder = httpEmbedder
		case BackendHashing:
			embedder = NewHashingEmbedder(hashingDims)
		default:
			return nil, fmt.Errorf("unknown embedding backend %q", opts.Backend)
		}

		logger.Info("embedding backend ready", "backend", opts.Backend, "model", opts.Model)
		if opts.CacheTTL > 0 {
			embedder = NewCachedEmbedder(embedder, opts.CacheTTL, cacheCapacity)
		}
		return NewExtractor(embedder), nil
	}
}
