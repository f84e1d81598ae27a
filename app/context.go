package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nrtkbb/nebula/config"
	"github.com/nrtkbb/nebula/keyword"
	"github.com/nrtkbb/nebula/scanner"
	"github.com/spf13/afero"
)

// AppContext carries the long-lived services shared by the HTTP server and
// the CLI commands.
type AppContext struct {
	Config      *config.Config
	Logger      *slog.Logger
	Inspector   *scanner.Inspector
	Snapshotter *scanner.Snapshotter
	Keywords    *keyword.ModelHolder
	Context     context.Context
	Cancel      context.CancelFunc
	Cleanup     sync.Once

	closers  []func() error
	closeLog func() error
}

func NewAppContext(parentCtx context.Context, cfg *config.Config, logger *slog.Logger) *AppContext {
	return NewAppContextWithFs(parentCtx, cfg, logger, afero.NewOsFs())
}

// NewAppContextWithFs is NewAppContext over an arbitrary filesystem.
func NewAppContextWithFs(parentCtx context.Context, cfg *config.Config, logger *slog.Logger, fsys afero.Fs) *AppContext {
	ctx, cancel := context.WithCancel(parentCtx)
	inspector := scanner.NewInspector(fsys, logger)
	return &AppContext{
		Config:      cfg,
		Logger:      logger,
		Inspector:   inspector,
		Snapshotter: scanner.NewSnapshotter(fsys, inspector, cfg.SnapshotDir, logger),
		Keywords:    keyword.NewModelHolder(keyword.NewLoader(KeywordOptions(cfg), logger), logger),
		Context:     ctx,
		Cancel:      cancel,
	}
}

// KeywordOptions maps the embedding settings of cfg to keyword.Options.
func KeywordOptions(cfg *config.Config) keyword.Options {
	return keyword.Options{
		Backend:  cfg.EmbeddingBackend,
		URL:      cfg.EmbeddingURL,
		Model:    cfg.EmbeddingModel,
		Timeout:  cfg.EmbeddingTimeout,
		CacheTTL: cfg.EmbeddingCacheTTL,
	}
}

// OnCleanup registers fn to run during PerformCleanup, in reverse order of
// registration.
func (app *AppContext) OnCleanup(fn func() error) {
	app.closers = append(app.closers, fn)
}

func (app *AppContext) PerformCleanup() {
	app.Cleanup.Do(func() {
		app.Logger.Info("starting shutdown")
		app.Cancel()

		for i := len(app.closers) - 1; i >= 0; i-- {
			if err := app.closers[i](); err != nil {
				app.Logger.Error("cleanup step failed", "err", err)
			}
		}

		app.Logger.Info("graceful shutdown completed")
		if app.closeLog != nil {
			app.closeLog()
		}
	})
}
