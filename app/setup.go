package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nrtkbb/nebula/config"
	"github.com/nrtkbb/nebula/logging"
)

// Setup builds the logger described by cfg, writing console output to
// console, and returns an AppContext whose cleanup closes the log file.
func Setup(parentCtx context.Context, cfg *config.Config, console io.Writer) (*AppContext, error) {
	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Dir:     cfg.LogDir,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	app := NewAppContext(parentCtx, cfg, logger)
	app.closeLog = closeLog
	return app, nil
}

// SetupSignalHandling cancels the app context on SIGINT or SIGTERM. A second
// signal within five seconds exits immediately.
func SetupSignalHandling(app *AppContext) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var forceQuit atomic.Bool

	go func() {
		for sig := range sigChan {
			app.Logger.Info("received signal", "signal", sig.String())
			if forceQuit.Load() {
				app.Logger.Warn("forcing immediate shutdown")
				os.Exit(1)
			}

			forceQuit.Store(true)
			app.Logger.Info("press Ctrl+C again to force quit")
			app.Cancel()

			go func() {
				time.Sleep(5 * time.Second)
				forceQuit.Store(false)
			}()
		}
	}()
}

// WriteJSON writes v to w as indented JSON without HTML escaping.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
