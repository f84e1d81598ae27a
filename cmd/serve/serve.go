package serve

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/nrtkbb/nebula/api"
	"github.com/nrtkbb/nebula/app"
	"github.com/nrtkbb/nebula/config"
)

const shutdownTimeout = 10 * time.Second

type Command struct {
	Config *config.Config

	host string
	port int
}

func (*Command) Name() string     { return "serve" }
func (*Command) Synopsis() string { return "Start the HTTP API server" }
func (*Command) Usage() string {
	return `serve [-host <host>] [-port <port>]:
  Start the HTTP API for folder inspection, folder snapshots and keyword extraction.
  Defaults come from HOST and PORT.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.host, "host", "", "address to listen on (overrides HOST)")
	f.IntVar(&c.port, "port", 0, "port to listen on (overrides PORT)")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := *c.Config
	if c.host != "" {
		cfg.Host = c.host
	}
	if c.port != 0 {
		if c.port < 0 || c.port > 65535 {
			f.Usage()
			return subcommands.ExitUsageError
		}
		cfg.Port = c.port
	}

	appCtx, err := app.Setup(ctx, &cfg, os.Stdout)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()
	app.SetupSignalHandling(appCtx)

	h := api.NewHandler(appCtx.Inspector, appCtx.Snapshotter, appCtx.Keywords, cfg.KeywordTopN, appCtx.Logger)
	e := api.NewServer(h, appCtx.Logger)

	errCh := make(chan error, 1)
	go func() {
		appCtx.Logger.Info("starting server", "addr", cfg.Addr(), "snapshot_dir", cfg.SnapshotDir, "embedding_backend", cfg.EmbeddingBackend)
		errCh <- e.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appCtx.Logger.Error("server failed", "err", err)
			return subcommands.ExitFailure
		}
	case <-appCtx.Context.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			appCtx.Logger.Error("server shutdown failed", "err", err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
