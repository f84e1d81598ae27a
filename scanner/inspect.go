package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/nrtkbb/nebula/models"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Inspector resolves user supplied directory paths and lists their
// immediate, non-hidden children.
type Inspector struct {
	fs     afero.Fs
	logger *slog.Logger
}

func NewInspector(fsys afero.Fs, logger *slog.Logger) *Inspector {
	return &Inspector{fs: fsys, logger: logger.With("comp", "inspector")}
}

// ResolveDirectory expands, absolutizes and resolves raw into an existing
// directory path.
func (i *Inspector) ResolveDirectory(raw string) (string, error) {
	expanded, err := homedir.Expand(raw)
	if err != nil {
		return "", newFolderError(PathNotFound, msgPathNotFound, err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", newFolderError(PathNotFound, msgPathNotFound, err)
	}

	resolved, err := i.realPath(abs)
	if err != nil {
		return "", directoryError(err)
	}

	info, err := i.fs.Stat(resolved)
	if err != nil {
		return "", directoryError(err)
	}
	if !info.IsDir() {
		return "", newFolderError(NotADirectory, msgNotADirectory, nil)
	}

	return resolved, nil
}

// realPath follows symlinks on the OS filesystem. Other afero filesystems
// have no symlinks, so the cleaned path only has to exist.
func (i *Inspector) realPath(abs string) (string, error) {
	if _, ok := i.fs.(*afero.OsFs); ok {
		return filepath.EvalSymlinks(abs)
	}
	if _, err := i.fs.Stat(abs); err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Inspect lists the immediate children of the directory named by raw.
func (i *Inspector) Inspect(ctx context.Context, raw string) (*models.FolderContents, error) {
	_, span := otel.Tracer("scanner").Start(ctx, "Inspect")
	defer span.End()

	directory, err := i.ResolveDirectory(raw)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("directory", directory))

	infos, err := i.readVisible(directory)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	sortFolded(infos, os.FileInfo.Name)

	entries := make([]models.DirectoryEntry, 0, len(infos))
	for _, info := range infos {
		path := filepath.Join(directory, info.Name())
		entries = append(entries, newDirectoryEntry(path, i.follow(path, info)))
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	i.logger.Debug("inspected directory", "path", directory, "entries", len(entries))

	return &models.FolderContents{Directory: directory, Entries: entries}, nil
}

// readVisible lists dir without hidden entries.
func (i *Inspector) readVisible(dir string) ([]os.FileInfo, error) {
	infos, err := afero.ReadDir(i.fs, dir)
	if err != nil {
		return nil, directoryError(err)
	}

	visible := infos[:0]
	for _, info := range infos {
		if !isHidden(info.Name()) {
			visible = append(visible, info)
		}
	}
	return visible, nil
}

// follow returns the stat of a symlink target. A dangling link keeps its
// own lstat data.
func (i *Inspector) follow(path string, info os.FileInfo) os.FileInfo {
	if !isSymlink(info) {
		return info
	}
	target, err := i.fs.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			i.logger.Warn("stat symlink target", "path", path, "err", err)
		}
		return info
	}
	return target
}
