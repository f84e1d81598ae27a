package testdata

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/spf13/afero"
)

type Command struct {
	outputDir string
}

func (*Command) Name() string     { return "testdata" }
func (*Command) Synopsis() string { return "Generate a directory tree for trying inspect and snapshot" }
func (*Command) Usage() string {
	return `testdata -out <directory>:
  Generate a directory tree with nested, hidden and non-ASCII entries for
  exercising folder inspection and snapshots.
`
}

func (c *Command) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputDir, "out", "", "output directory path (required)")
}

func (c *Command) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.outputDir == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	summary, err := Generate(afero.NewOsFs(), c.outputDir, time.Now())
	if err != nil {
		log.Printf("Failed to generate test data: %v", err)
		return subcommands.ExitFailure
	}

	log.Printf("Generated %d directories and %d files in %s (%d hidden, %d symlinks)",
		summary.Dirs, summary.Files, c.outputDir, summary.Hidden, summary.Symlinks)
	return subcommands.ExitSuccess
}

// Summary counts what Generate created. Hidden entries are included in Dirs
// and Files.
type Summary struct {
	Dirs     int
	Files    int
	Hidden   int
	Symlinks int
}

var dirs = []string{
	"docs",
	"docs/reports",
	"docs/reports/2024",
	"사진",
	"사진/여행",
	"Music",
	"empty",
	".git",
	".git/objects",
	"docs/.drafts",
}

var files = []struct {
	path    string
	content string
}{
	{"README.md", "# Nebula test data\n"},
	{"docs/guide.txt", "This is a test document\n"},
	{"docs/Appendix.txt", "Appendix\n"},
	{"docs/reports/q1.csv", "month,total\n1,10\n2,20\n3,30\n"},
	{"docs/reports/2024/summary.md", "# 2024\n"},
	{"docs/.drafts/todo.txt", "hidden draft\n"},
	{"사진/여행/제주도.jpg", strings.Repeat("\xff\xd8", 512)},
	{"사진/메모 2024.txt", "한국어 파일 이름\n"},
	{"Music/song.mp3", strings.Repeat("ID3", 1000)},
	{"app.log", strings.Repeat("Large content repeated ", 1000)},
	{".env", "HOST=127.0.0.1\n"},
	{".git/HEAD", "ref: refs/heads/main\n"},
	{"docs/.DS_Store", "\x00\x00\x00\x01"},
}

// Generate writes the fixture tree below outputDir. Modification times step
// back one hour per file from now. Symlinks are created only when fsys
// supports them.
func Generate(fsys afero.Fs, outputDir string, now time.Time) (Summary, error) {
	var summary Summary

	if err := fsys.MkdirAll(outputDir, 0755); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %v", err)
	}

	for _, dir := range dirs {
		if err := fsys.MkdirAll(filepath.Join(outputDir, filepath.FromSlash(dir)), 0755); err != nil {
			return summary, fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		summary.Dirs++
		if isHiddenPath(dir) {
			summary.Hidden++
		}
	}

	for i, file := range files {
		path := filepath.Join(outputDir, filepath.FromSlash(file.path))
		if err := afero.WriteFile(fsys, path, []byte(file.content), 0644); err != nil {
			return summary, fmt.Errorf("failed to create file %s: %v", file.path, err)
		}
		modTime := now.Add(-time.Duration(i) * time.Hour)
		if err := fsys.Chtimes(path, modTime, modTime); err != nil {
			return summary, fmt.Errorf("failed to set times on %s: %v", file.path, err)
		}
		summary.Files++
		if isHiddenPath(file.path) {
			summary.Hidden++
		}
	}

	if linker, ok := fsys.(afero.Linker); ok {
		links := map[string]string{
			"docs-link":   "docs",
			"broken-link": "missing-target",
		}
		for name, target := range links {
			if err := linker.SymlinkIfPossible(target, filepath.Join(outputDir, name)); err != nil {
				return summary, fmt.Errorf("failed to create symlink %s: %v", name, err)
			}
			summary.Symlinks++
		}
	}

	return summary, nil
}

func isHiddenPath(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
