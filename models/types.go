package models

import (
	"time"
)

// DirectoryEntry is the metadata of one immediate child of an inspected directory.
type DirectoryEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	IsDirectory bool      `json:"is_directory"`
	SizeBytes   int64     `json:"size_bytes"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// FolderContents is the result of inspecting a single directory level.
type FolderContents struct {
	Directory string           `json:"directory"`
	Entries   []DirectoryEntry `json:"entries"`
}

// SnapshotEntry is one node of a recursive snapshot, relative to the snapshot root.
type SnapshotEntry struct {
	RelativePath string    `json:"relative_path"`
	AbsolutePath string    `json:"absolute_path"`
	IsDirectory  bool      `json:"is_directory"`
	SizeBytes    int64     `json:"size_bytes"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// SnapshotPage describes one JSON file written by a snapshot.
type SnapshotPage struct {
	Page       int    `json:"page"`
	Path       string `json:"path"`
	EntryCount int    `json:"entry_count"`
}

// SnapshotResult summarizes every page written by one snapshot call.
type SnapshotResult struct {
	Directory    string
	GeneratedAt  time.Time
	TotalEntries int
	PageSize     *int
	Pages        []SnapshotPage
}

func (r *SnapshotResult) PageCount() int {
	return len(r.Pages)
}

// SnapshotDocument is the on-disk layout of a single snapshot page.
type SnapshotDocument struct {
	Directory    string          `json:"directory"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Page         int             `json:"page"`
	PageCount    int             `json:"page_count"`
	PageSize     *int            `json:"page_size"`
	TotalEntries int             `json:"total_entries"`
	Entries      []SnapshotEntry `json:"entries"`
}

// SnapshotSummary is the header of a snapshot file found in the snapshot root.
type SnapshotSummary struct {
	Path         string    `json:"path"`
	Directory    string    `json:"directory"`
	GeneratedAt  time.Time `json:"generated_at"`
	Page         int       `json:"page"`
	PageCount    int       `json:"page_count"`
	PageSize     *int      `json:"page_size"`
	TotalEntries int       `json:"total_entries"`
	EntryCount   int       `json:"entry_count"`
}
