package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nrtkbb/nebula/keyword"
	"github.com/nrtkbb/nebula/metrics"
	"github.com/nrtkbb/nebula/models"
	"go.opentelemetry.io/otel/attribute"
)

const apiTitle = "Nebula Client API"

type DirectoryInspector interface {
	Inspect(ctx context.Context, path string) (*models.FolderContents, error)
}

type DirectorySnapshotter interface {
	Snapshot(ctx context.Context, path string, pageSize *int) (*models.SnapshotResult, error)
	List(ctx context.Context) ([]models.SnapshotSummary, error)
}

// KeywordModel hands out the shared extractor, loading it on first use.
type KeywordModel interface {
	Get(ctx context.Context) (*keyword.Extractor, error)
}

type Handler struct {
	inspector   DirectoryInspector
	snapshotter DirectorySnapshotter
	keywords    KeywordModel
	topN        int
	logger      *slog.Logger
}

func NewHandler(inspector DirectoryInspector, snapshotter DirectorySnapshotter, keywords KeywordModel, topN int, logger *slog.Logger) *Handler {
	return &Handler{
		inspector:   inspector,
		snapshotter: snapshotter,
		keywords:    keywords,
		topN:        topN,
		logger:      logger.With("comp", "api"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: apiTitle})
}

// InspectFolder lists the visible immediate children of a directory.
func (h *Handler) InspectFolder(c echo.Context) error {
	span := startSpan(c, "InspectFolder")
	defer span.End()

	var req InspectRequest
	if err := bindRequest(c, &req); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("path", *req.Path))

	contents, err := h.inspector.Inspect(c.Request().Context(), *req.Path)
	if err != nil {
		span.RecordError(err)
		h.logger.Warn("inspect failed", "path", *req.Path, "err", err)
		return folderHTTPError(err)
	}

	span.SetAttributes(attribute.Int("response_items", len(contents.Entries)))
	return c.JSON(http.StatusOK, contents)
}

// SnapshotFolder writes a recursive snapshot of a directory to JSON files.
func (h *Handler) SnapshotFolder(c echo.Context) error {
	span := startSpan(c, "SnapshotFolder")
	defer span.End()

	var req SnapshotRequest
	if err := bindRequest(c, &req); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("path", *req.Path))
	if req.PageSize != nil {
		span.SetAttributes(attribute.Int("page_size", *req.PageSize))
	}

	result, err := h.snapshotter.Snapshot(c.Request().Context(), *req.Path, req.PageSize)
	if err != nil {
		metrics.RecordSnapshot(false, 0, 0)
		span.RecordError(err)
		h.logger.Warn("snapshot failed", "path", *req.Path, "err", err)
		return folderHTTPError(err)
	}
	metrics.RecordSnapshot(true, result.TotalEntries, result.PageCount())

	span.SetAttributes(
		attribute.Int("total_entries", result.TotalEntries),
		attribute.Int("page_count", result.PageCount()),
	)
	return c.JSON(http.StatusOK, NewSnapshotResponse(result))
}

// ListSnapshots returns the headers of the snapshot files written so far.
func (h *Handler) ListSnapshots(c echo.Context) error {
	span := startSpan(c, "ListSnapshots")
	defer span.End()

	summaries, err := h.snapshotter.List(c.Request().Context())
	if err != nil {
		span.RecordError(err)
		h.logger.Error("listing snapshots failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list snapshots").SetInternal(err)
	}

	span.SetAttributes(attribute.Int("response_items", len(summaries)))
	return c.JSON(http.StatusOK, SnapshotListResponse{Snapshots: summaries})
}

// ExtractKeywords returns the top keywords and one key phrase per sentence.
func (h *Handler) ExtractKeywords(c echo.Context) error {
	span := startSpan(c, "ExtractKeywords")
	defer span.End()

	var req KeywordRequest
	if err := bindRequest(c, &req); err != nil {
		span.RecordError(err)
		return err
	}
	topN := h.topN
	if req.TopN != nil {
		topN = *req.TopN
	}
	span.SetAttributes(
		attribute.Int("text_length", len(*req.Text)),
		attribute.Int("top_n", topN),
	)

	start := time.Now()
	analysis, err := h.analyze(c.Request().Context(), *req.Text, topN)
	metrics.RecordKeywordExtraction(err == nil, time.Since(start))
	if err != nil {
		span.RecordError(err)
		h.logger.Error("keyword extraction failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("키워드 추출 중 오류가 발생했습니다: %v", err)).SetInternal(err)
	}

	span.SetAttributes(
		attribute.Int("keywords", len(analysis.Keywords)),
		attribute.Int("key_sentences", len(analysis.KeySentences)),
	)
	return c.JSON(http.StatusOK, analysis)
}

func (h *Handler) analyze(ctx context.Context, text string, topN int) (*keyword.Analysis, error) {
	model, err := h.keywords.Get(ctx)
	if err != nil {
		return nil, err
	}
	return model.Analyze(ctx, text, topN)
}
