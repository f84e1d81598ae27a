package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/mitchellh/go-homedir"
	"github.com/nrtkbb/nebula/models"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	snapshotExt      = ".json"
	timestampLayout  = "20060102T150405Z"
	defaultRootSlug  = "root"
	tempSnapshotGlob = ".snapshot-*.tmp"
	snapshotDirPerm  = 0o755
	snapshotFilePerm = 0o644
)

// Snapshotter recursively captures a directory tree and writes it as one or
// more JSON pages under a snapshot root.
type Snapshotter struct {
	fs        afero.Fs
	inspector *Inspector
	root      string
	logger    *slog.Logger
	now       func() time.Time
}

// NewSnapshotter returns a Snapshotter writing pages under root. The root is
// resolved lazily on every call so a missing directory is recreated.
func NewSnapshotter(fsys afero.Fs, inspector *Inspector, root string, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{
		fs:        fsys,
		inspector: inspector,
		root:      root,
		logger:    logger.With("comp", "snapshotter"),
		now:       time.Now,
	}
}

// Snapshot walks the directory named by raw and writes its entries in pages of
// at most pageSize entries. A nil or non-positive pageSize writes one page.
func (s *Snapshotter) Snapshot(ctx context.Context, raw string, pageSize *int) (*models.SnapshotResult, error) {
	ctx, span := otel.Tracer("scanner").Start(ctx, "Snapshot")
	defer span.End()

	directory, err := s.inspector.ResolveDirectory(raw)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("directory", directory))
	s.logger.Info("snapshot start", "path", directory, "page_size", formatPageSize(pageSize))

	entries, err := s.collectEntries(ctx, directory)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("entries collected", "path", directory, "entries", len(entries))

	generatedAt := s.now().UTC()
	chunks := chunkEntries(entries, pageSize)

	root, err := s.ensureRoot()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	pages := make([]models.SnapshotPage, 0, len(chunks))
	for index, chunk := range chunks {
		page := index + 1
		outputPath := filepath.Join(root, snapshotFileName(directory, generatedAt, page, len(chunks)))
		s.logger.Info("writing snapshot page",
			"path", outputPath,
			"page", page,
			"page_count", len(chunks),
			"entries", len(chunk),
		)

		doc := models.SnapshotDocument{
			Directory:    directory,
			GeneratedAt:  generatedAt,
			Page:         page,
			PageCount:    len(chunks),
			PageSize:     pageSize,
			TotalEntries: len(entries),
			Entries:      chunk,
		}
		if err := s.writeDocument(root, outputPath, &doc); err != nil {
			s.removePages(pages)
			span.RecordError(err)
			return nil, err
		}
		pages = append(pages, models.SnapshotPage{Page: page, Path: outputPath, EntryCount: len(chunk)})
	}

	span.SetAttributes(
		attribute.Int("total_entries", len(entries)),
		attribute.Int("page_count", len(pages)),
	)

	return &models.SnapshotResult{
		Directory:    directory,
		GeneratedAt:  generatedAt,
		TotalEntries: len(entries),
		PageSize:     pageSize,
		Pages:        pages,
	}, nil
}

// Root returns the absolute snapshot root.
func (s *Snapshotter) Root() (string, error) {
	expanded, err := homedir.Expand(s.root)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

func (s *Snapshotter) ensureRoot() (string, error) {
	root, err := s.Root()
	if err != nil {
		return "", newFolderError(SnapshotRootUnwritable, msgSnapshotRootCreation, err)
	}
	if err := s.fs.MkdirAll(root, snapshotDirPerm); err != nil {
		return "", newFolderError(SnapshotRootUnwritable, msgSnapshotRootCreation, err)
	}
	if err := probeWritable(s.fs, root); err != nil {
		return "", newFolderError(SnapshotRootUnwritable, msgSnapshotRootCreation, err)
	}
	return root, nil
}

// writeDocument writes doc to a temp file in root and renames it into place,
// so a page is either complete or absent.
func (s *Snapshotter) writeDocument(root, outputPath string, doc *models.SnapshotDocument) error {
	tmp, err := afero.TempFile(s.fs, root, tempSnapshotGlob)
	if err != nil {
		return newFolderError(SnapshotWriteFailed, msgSnapshotWrite, err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return newFolderError(SnapshotWriteFailed, msgSnapshotWrite, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return newFolderError(SnapshotWriteFailed, msgSnapshotWrite, err)
	}
	if err := s.fs.Chmod(tmpPath, snapshotFilePerm); err != nil {
		s.fs.Remove(tmpPath)
		return newFolderError(SnapshotWriteFailed, msgSnapshotWrite, err)
	}
	if err := s.fs.Rename(tmpPath, outputPath); err != nil {
		s.fs.Remove(tmpPath)
		return newFolderError(SnapshotWriteFailed, msgSnapshotWrite, err)
	}
	return nil
}

// removePages deletes pages already written by a snapshot that failed later.
func (s *Snapshotter) removePages(pages []models.SnapshotPage) {
	for _, page := range pages {
		if err := s.fs.Remove(page.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove partial snapshot page", "path", page.Path, "err", err)
		}
	}
	if len(pages) > 0 {
		s.logger.Warn("removed partial snapshot pages", "pages", len(pages))
	}
}

// List returns the header of every snapshot page in the snapshot root, newest
// first. Files that are not snapshot pages are skipped.
func (s *Snapshotter) List(ctx context.Context) ([]models.SnapshotSummary, error) {
	_, span := otel.Tracer("scanner").Start(ctx, "List")
	defer span.End()

	root, err := s.Root()
	if err != nil {
		return nil, newFolderError(SnapshotRootUnwritable, msgSnapshotRootCreation, err)
	}

	infos, err := afero.ReadDir(s.fs, root)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.SnapshotSummary{}, nil
	}
	if err != nil {
		return nil, directoryError(err)
	}

	summaries := []models.SnapshotSummary{}
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || isHidden(name) || filepath.Ext(name) != snapshotExt {
			continue
		}

		path := filepath.Join(root, name)
		summary, err := s.readSummary(path)
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot file", "path", path, "err", err)
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(a, b int) bool {
		sa, sb := summaries[a], summaries[b]
		if !sa.GeneratedAt.Equal(sb.GeneratedAt) {
			return sa.GeneratedAt.After(sb.GeneratedAt)
		}
		if sa.Directory != sb.Directory {
			return sa.Directory < sb.Directory
		}
		return sa.Page < sb.Page
	})

	span.SetAttributes(attribute.Int("snapshots", len(summaries)))
	return summaries, nil
}

func (s *Snapshotter) readSummary(path string) (models.SnapshotSummary, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return models.SnapshotSummary{}, err
	}
	defer f.Close()

	var doc models.SnapshotDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return models.SnapshotSummary{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.Page < 1 || doc.Directory == "" {
		return models.SnapshotSummary{}, fmt.Errorf("not a snapshot page")
	}

	return models.SnapshotSummary{
		Path:         path,
		Directory:    doc.Directory,
		GeneratedAt:  doc.GeneratedAt,
		Page:         doc.Page,
		PageCount:    doc.PageCount,
		PageSize:     doc.PageSize,
		TotalEntries: doc.TotalEntries,
		EntryCount:   len(doc.Entries),
	}, nil
}

// chunkEntries splits entries into consecutive pages. There is always at
// least one page, even when entries is empty.
func chunkEntries(entries []models.SnapshotEntry, pageSize *int) [][]models.SnapshotEntry {
	if pageSize == nil || *pageSize <= 0 || len(entries) == 0 {
		return [][]models.SnapshotEntry{entries}
	}
	return lo.Chunk(entries, *pageSize)
}

// snapshotFileName builds <slug>_<timestamp>[_pNNN].json. The page suffix is
// only present when the snapshot has more than one page.
func snapshotFileName(directory string, generatedAt time.Time, page, pageCount int) string {
	var b strings.Builder
	b.WriteString(sanitizeSlug(directoryBase(directory)))
	b.WriteString("_")
	b.WriteString(generatedAt.UTC().Format(timestampLayout))
	if pageCount > 1 {
		fmt.Fprintf(&b, "_p%03d", page)
	}
	b.WriteString(snapshotExt)
	return b.String()
}

func directoryBase(directory string) string {
	base := filepath.Base(directory)
	if base == "." || base == string(filepath.Separator) || base == filepath.VolumeName(directory) {
		return ""
	}
	return base
}

func sanitizeSlug(name string) string {
	if name == "" {
		return defaultRootSlug
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
}

func formatPageSize(pageSize *int) string {
	if pageSize == nil {
		return "none"
	}
	return fmt.Sprint(*pageSize)
}
