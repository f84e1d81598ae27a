package testdata

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nrtkbb/nebula/scanner"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_MemMapFs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	summary, err := Generate(fsys, "/fixture", now)
	require.NoError(t, err)
	assert.Equal(t, len(dirs), summary.Dirs)
	assert.Equal(t, len(files), summary.Files)
	assert.Equal(t, 7, summary.Hidden)
	assert.Zero(t, summary.Symlinks)

	info, err := fsys.Stat("/fixture/docs/Appendix.txt")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(now.Add(-2*time.Hour)))
}

func TestGenerate_SnapshotSkipsHiddenEntries(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_, err := Generate(fsys, "/fixture", time.Now())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inspector := scanner.NewInspector(fsys, logger)
	snapshotter := scanner.NewSnapshotter(fsys, inspector, "/snapshots", logger)

	result, err := snapshotter.Snapshot(context.Background(), "/fixture", nil)
	require.NoError(t, err)
	// 7 visible directories and 9 visible files.
	assert.Equal(t, 16, result.TotalEntries)

	contents, err := inspector.Inspect(context.Background(), "/fixture")
	require.NoError(t, err)
	names := make([]string, 0, len(contents.Entries))
	for _, e := range contents.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"app.log", "docs", "empty", "Music", "README.md", "사진"}, names)
}

func TestGenerate_OsFsCreatesSymlinks(t *testing.T) {
	dir := t.TempDir()
	summary, err := Generate(afero.NewOsFs(), dir, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Symlinks)
}
