package keywords

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/nrtkbb/nebula/app"
	"github.com/nrtkbb/nebula/config"
)

type Command struct {
	Config *config.Config

	top  int
	file string
}

func (*Command) Name() string     { return "keywords" }
func (*Command) Synopsis() string { return "Extract keywords and key sentences from text" }
func (*Command) Usage() string {
	return `keywords [-top <n>] [-file <path>]:
  Read text from a file (or stdin) and print its top keywords and one key
  phrase per sentence as JSON.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.top, "top", 0, "number of keywords (default KEYWORD_TOP_N)")
	f.StringVar(&c.file, "file", "-", "input file, - for stdin")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.top < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	text, err := readInput(c.file, os.Stdin)
	if err != nil {
		log.Printf("Failed to read input: %v", err)
		return subcommands.ExitFailure
	}

	appCtx, err := app.Setup(ctx, c.Config, os.Stderr)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return subcommands.ExitFailure
	}
	defer appCtx.PerformCleanup()

	topN := c.top
	if topN == 0 {
		topN = c.Config.KeywordTopN
	}

	model, err := appCtx.Keywords.Get(appCtx.Context)
	if err != nil {
		appCtx.Logger.Error("keyword model unavailable", "err", err)
		return subcommands.ExitFailure
	}
	analysis, err := model.Analyze(appCtx.Context, text, topN)
	if err != nil {
		appCtx.Logger.Error("keyword extraction failed", "err", err)
		return subcommands.ExitFailure
	}

	if err := app.WriteJSON(os.Stdout, analysis); err != nil {
		appCtx.Logger.Error("failed to write output", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// readInput returns the contents of path, or of stdin when path is "-" or empty.
func readInput(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("input is empty")
	}
	return string(data), nil
}
