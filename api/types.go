package api

import (
	"time"

	"github.com/nrtkbb/nebula/models"
)

// InspectRequest is the body of POST /folders/inspect.
type InspectRequest struct {
	Path *string `json:"path"`
}

func (r *InspectRequest) Validate() error {
	return requireField("path", r.Path)
}

// SnapshotRequest is the body of POST /folders/snapshot. A missing
// page_size writes a single file.
type SnapshotRequest struct {
	Path     *string `json:"path"`
	PageSize *int    `json:"page_size"`
}

func (r *SnapshotRequest) Validate() error {
	if err := requireField("path", r.Path); err != nil {
		return err
	}
	return positiveField("page_size", r.PageSize)
}

// KeywordRequest is the body of POST /text/keywords.
type KeywordRequest struct {
	Text *string `json:"text"`
	TopN *int    `json:"top_n"`
}

func (r *KeywordRequest) Validate() error {
	if err := requireField("text", r.Text); err != nil {
		return err
	}
	return positiveField("top_n", r.TopN)
}

type SnapshotResponse struct {
	Directory    string                `json:"directory"`
	GeneratedAt  time.Time             `json:"generated_at"`
	TotalEntries int                   `json:"total_entries"`
	PageSize     *int                  `json:"page_size"`
	PageCount    int                   `json:"page_count"`
	Pages        []models.SnapshotPage `json:"pages"`
}

// NewSnapshotResponse renders a snapshot result for clients.
func NewSnapshotResponse(r *models.SnapshotResult) *SnapshotResponse {
	return &SnapshotResponse{
		Directory:    r.Directory,
		GeneratedAt:  r.GeneratedAt,
		TotalEntries: r.TotalEntries,
		PageSize:     r.PageSize,
		PageCount:    r.PageCount(),
		Pages:        r.Pages,
	}
}

type SnapshotListResponse struct {
	Snapshots []models.SnapshotSummary `json:"snapshots"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
