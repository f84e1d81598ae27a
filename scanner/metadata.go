package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nrtkbb/nebula/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const hiddenPrefix = "."

func isHidden(name string) bool {
	return strings.HasPrefix(name, hiddenPrefix)
}

func isSymlink(info os.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}

// entrySize reports 0 for directories and the byte length for everything else.
func entrySize(info os.FileInfo) int64 {
	if info.IsDir() {
		return 0
	}
	return info.Size()
}

func newDirectoryEntry(path string, info os.FileInfo) models.DirectoryEntry {
	return models.DirectoryEntry{
		Name:        info.Name(),
		Path:        path,
		IsDirectory: info.IsDir(),
		SizeBytes:   entrySize(info),
		ModifiedAt:  info.ModTime().UTC(),
	}
}

func newSnapshotEntry(root, path string, info os.FileInfo) (models.SnapshotEntry, error) {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return models.SnapshotEntry{}, err
	}

	return models.SnapshotEntry{
		RelativePath: filepath.ToSlash(relPath),
		AbsolutePath: path,
		IsDirectory:  info.IsDir(),
		SizeBytes:    entrySize(info),
		ModifiedAt:   info.ModTime().UTC(),
	}, nil
}

// sortFolded orders items by the Unicode lower-case form of their name.
// Names that fold to the same key keep a stable byte-wise order.
func sortFolded[T any](items []T, name func(T) string) {
	caser := cases.Lower(language.Und)
	keys := make(map[string]string, len(items))
	for _, item := range items {
		n := name(item)
		if _, ok := keys[n]; !ok {
			keys[n] = caser.String(n)
		}
	}

	sort.SliceStable(items, func(a, b int) bool {
		na, nb := name(items[a]), name(items[b])
		ka, kb := keys[na], keys[nb]
		if ka != kb {
			return ka < kb
		}
		return na < nb
	})
}
