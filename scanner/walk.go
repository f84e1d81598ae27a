package scanner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nrtkbb/nebula/models"
	"github.com/spf13/afero"
)

// child is a visible directory member classified the way a top-down walk sees
// it: symlinks count as directories when their target is one, but they are
// never descended into.
type child struct {
	name string
	info os.FileInfo
	link bool
}

// collectEntries walks root top-down. Each directory reports its visible
// subdirectories, then its visible files, before the walk descends into the
// subdirectories in order.
func (s *Snapshotter) collectEntries(ctx context.Context, root string) ([]models.SnapshotEntry, error) {
	entries := []models.SnapshotEntry{}
	if err := s.walkDir(ctx, root, root, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Snapshotter) walkDir(ctx context.Context, root, dir string, out *[]models.SnapshotEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if dir == root {
			return directoryError(err)
		}
		s.logger.Warn("skipping unreadable directory", "path", dir, "err", err)
		return nil
	}

	var dirs, files []child
	for _, info := range infos {
		name := info.Name()
		if isHidden(name) {
			continue
		}

		c := child{name: name, info: info, link: isSymlink(info)}
		if c.link {
			target, err := s.fs.Stat(filepath.Join(dir, name))
			if err != nil {
				// Dangling links are files to the walk; stat fails when the entry is emitted.
				files = append(files, c)
				continue
			}
			c.info = target
		}

		if c.info.IsDir() {
			dirs = append(dirs, c)
		} else {
			files = append(files, c)
		}
	}

	childName := func(c child) string { return c.name }
	sortFolded(dirs, childName)
	sortFolded(files, childName)

	for _, group := range [][]child{dirs, files} {
		for _, c := range group {
			entry, err := s.statEntry(root, filepath.Join(dir, c.name))
			if err != nil {
				return err
			}
			*out = append(*out, entry)
		}
	}

	for _, c := range dirs {
		if c.link {
			continue
		}
		if err := s.walkDir(ctx, root, filepath.Join(dir, c.name), out); err != nil {
			return err
		}
	}

	return nil
}

func (s *Snapshotter) statEntry(root, path string) (models.SnapshotEntry, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return models.SnapshotEntry{}, entryError(err)
	}

	entry, err := newSnapshotEntry(root, path, info)
	if err != nil {
		return models.SnapshotEntry{}, entryError(err)
	}
	return entry, nil
}
