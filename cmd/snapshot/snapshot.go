package snapshot

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
	"github.com/nrtkbb/nebula/api"
	"github.com/nrtkbb/nebula/app"
	"github.com/nrtkbb/nebula/config"
)

type Command struct {
	Config *config.Config

	pageSize int
	outDir   string
}

func (*Command) Name() string     { return "snapshot" }
func (*Command) Synopsis() string { return "Write a recursive snapshot of a directory" }
func (*Command) Usage() string {
	return `snapshot [-page-size <n>] [-out <directory>] <directory>:
  Walk a directory, skipping hidden entries, and write the listing as JSON
  pages into the snapshot directory (SNAPSHOT_DIR unless -out is given).
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.pageSize, "page-size", 0, "entries per page (0 writes a single file)")
	f.StringVar(&c.outDir, "out", "", "snapshot directory (overrides SNAPSHOT_DIR)")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.pageSize < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	cfg := *c.Config
	if c.outDir != "" {
		cfg.SnapshotDir = c.outDir
	}

	appCtx, err := app.Setup(ctx, &cfg, os.Stderr)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()
	app.SetupSignalHandling(appCtx)

	var pageSize *int
	if c.pageSize > 0 {
		pageSize = &c.pageSize
	}

	result, err := appCtx.Snapshotter.Snapshot(appCtx.Context, f.Arg(0), pageSize)
	if err != nil {
		appCtx.Logger.Error("snapshot failed", "path", f.Arg(0), "err", err)
		return subcommands.ExitFailure
	}

	if err := app.WriteJSON(os.Stdout, api.NewSnapshotResponse(result)); err != nil {
		appCtx.Logger.Error("failed to write output", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
