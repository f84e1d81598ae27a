package snapshots

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/nrtkbb/nebula/api"
	"github.com/nrtkbb/nebula/app"
	"github.com/nrtkbb/nebula/config"
	"github.com/nrtkbb/nebula/models"
)

type Command struct {
	Config *config.Config

	asJSON bool
}

func (*Command) Name() string     { return "snapshots" }
func (*Command) Synopsis() string { return "List snapshot files in the snapshot directory" }
func (*Command) Usage() string {
	return `snapshots [-json]:
  List the snapshot pages found in SNAPSHOT_DIR, newest first.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of a table")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	appCtx, err := app.Setup(ctx, c.Config, os.Stderr)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()

	summaries, err := appCtx.Snapshotter.List(appCtx.Context)
	if err != nil {
		appCtx.Logger.Error("listing snapshots failed", "err", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		err = app.WriteJSON(os.Stdout, api.SnapshotListResponse{Snapshots: summaries})
	} else {
		err = printTable(os.Stdout, summaries)
	}
	if err != nil {
		appCtx.Logger.Error("failed to write output", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printTable(w io.Writer, summaries []models.SnapshotSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATED\tPAGE\tENTRIES\tDIRECTORY\tFILE")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d\t%s\t%s\n",
			s.GeneratedAt.Format("2006-01-02 15:04:05Z07:00"), s.Page, s.PageCount, s.EntryCount, s.Directory, s.Path)
	}
	return tw.Flush()
}
