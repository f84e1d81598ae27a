package inspect

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
	"github.com/nrtkbb/nebula/app"
	"github.com/nrtkbb/nebula/config"
)

type Command struct {
	Config *config.Config
}

func (*Command) Name() string     { return "inspect" }
func (*Command) Synopsis() string { return "List the visible entries of a directory" }
func (*Command) Usage() string {
	return `inspect <directory>:
  Print the immediate, non-hidden children of a directory as JSON.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	appCtx, err := app.Setup(ctx, c.Config, os.Stderr)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()

	contents, err := appCtx.Inspector.Inspect(appCtx.Context, f.Arg(0))
	if err != nil {
		appCtx.Logger.Error("inspect failed", "path", f.Arg(0), "err", err)
		return subcommands.ExitFailure
	}

	if err := app.WriteJSON(os.Stdout, contents); err != nil {
		appCtx.Logger.Error("failed to write output", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
