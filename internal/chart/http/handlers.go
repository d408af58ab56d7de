// Package charthttp exposes the chart pipeline over HTTP.
package charthttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/echarts"
	"github.com/boardsmith/chartsmith/internal/chart/export"
	"github.com/boardsmith/chartsmith/internal/chart/raster"
	"github.com/boardsmith/chartsmith/internal/chart/svg"
	"github.com/boardsmith/chartsmith/internal/platform/httpx"
	"github.com/boardsmith/chartsmith/report"
)

const exportTimeout = 30 * time.Second

// ChartService is the pipeline contract used by the handler.
type ChartService interface {
	Render(ctx context.Context, in chart.BuildRequest) (chart.RenderConfig, error)
	Plan(in chart.BuildRequest) chart.Plan
	Themes() chart.ThemeSet
	Invalidate(ctx context.Context) (int64, error)
}

// ArtifactStore keeps asynchronous export results.
type ArtifactStore interface {
	Create(ctx context.Context, f export.Format) (export.Artifact, error)
	Get(ctx context.Context, id string) (export.Artifact, error)
	Fail(ctx context.Context, id string, cause error) error
}

// ExportQueue hands export work to the background worker.
type ExportQueue interface {
	EnqueueExport(ctx context.Context, id string, f export.Format, in chart.BuildRequest) error
}

// ExportRequest is the body of an asynchronous export.
type ExportRequest struct {
	Format   string             `json:"format" validate:"required,oneof=json csv xlsx html pdf svg png"`
	Filename string             `json:"filename,omitempty" validate:"max=100"`
	Chart    chart.BuildRequest `json:"chart"`
}

// Handler serves chart endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ChartService
	exporter  *export.Exporter
	store     ArtifactStore
	queue     ExportQueue
	rateLimit int
}

// Option customises the handler.
type Option func(*Handler)

// WithAsyncExports enables the export job endpoints.
func WithAsyncExports(store ArtifactStore, queue ExportQueue) Option {
	return func(h *Handler) {
		h.store = store
		h.queue = queue
	}
}

// WithExportRateLimit sets the per-client export requests allowed per minute.
func WithExportRateLimit(perMinute int) Option {
	return func(h *Handler) {
		if perMinute > 0 {
			h.rateLimit = perMinute
		}
	}
}

// NewHandler constructs the chart HTTP handler.
func NewHandler(logger *slog.Logger, service ChartService, exporter *export.Exporter, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewExporter(nil)
	}
	h := &Handler{logger: logger, service: service, exporter: exporter, rateLimit: 10}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(w, r, target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := httpx.Validate(target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	var in chart.BuildRequest
	if !h.decode(w, r, &in) {
		return
	}
	cfg, err := h.service.Render(r.Context(), in)
	if err != nil {
		h.logger.WarnContext(r.Context(), "render chart", slog.String("kind", in.Kind), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var in chart.BuildRequest
	if !h.decode(w, r, &in) {
		return
	}
	w.Header().Set("Content-Type", export.FormatHTML.ContentType())
	if err := echarts.Render(w, h.service.Plan(in)); err != nil {
		h.logger.ErrorContext(r.Context(), "render preview", slog.Any("error", err))
	}
}

// exportHandler serves a synchronous export in format f.
func (h *Handler) exportHandler(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in chart.BuildRequest
		if !h.decode(w, r, &in) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
		defer cancel()

		plan := h.service.Plan(in)
		data, err := h.exporter.Bytes(ctx, plan, f)
		if err != nil {
			h.logger.ErrorContext(ctx, "export chart", slog.String("format", string(f)), slog.Any("error", err))
			httpx.RespondError(w, exportError(err))
			return
		}
		writeArtifact(w, f, f.Filename(slug(plan.Styling.Title)), data)
	}
}

func (h *Handler) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.queue == nil {
		httpx.RespondError(w, fmt.Errorf("%w: export queue not configured", httpx.ErrUnavailable))
		return
	}
	var in ExportRequest
	if !h.decode(w, r, &in) {
		return
	}
	f, err := export.ParseFormat(in.Format)
	if err != nil {
		httpx.RespondError(w, exportError(err))
		return
	}
	artifact, err := h.store.Create(r.Context(), f)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.queue.EnqueueExport(r.Context(), artifact.ID, f, in.Chart); err != nil {
		h.logger.ErrorContext(r.Context(), "enqueue export", slog.String("id", artifact.ID), slog.Any("error", err))
		if failErr := h.store.Fail(r.Context(), artifact.ID, err); failErr != nil {
			h.logger.WarnContext(r.Context(), "mark export failed", slog.String("id", artifact.ID), slog.Any("error", failErr))
		}
		httpx.RespondError(w, fmt.Errorf("%w: enqueue export", httpx.ErrUnavailable))
		return
	}
	w.Header().Set("Location", "/charts/exports/"+artifact.ID)
	httpx.JSON(w, http.StatusAccepted, artifact)
}

func (h *Handler) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httpx.RespondError(w, fmt.Errorf("%w: export store not configured", httpx.ErrUnavailable))
		return
	}
	artifact, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, exportError(err))
		return
	}
	switch artifact.Status {
	case export.StatusDone:
		writeArtifact(w, artifact.Format, artifact.Format.Filename("chart-"+artifact.ID), artifact.Data)
	case export.StatusPending:
		httpx.JSON(w, http.StatusAccepted, artifact)
	default:
		httpx.JSON(w, http.StatusOK, artifact)
	}
}

func (h *Handler) handleArchetypes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, chart.Catalog())
}

type themesResponse struct {
	Default string        `json:"default"`
	Themes  []chart.Theme `json:"themes"`
}

func (h *Handler) handleThemes(w http.ResponseWriter, r *http.Request) {
	themes := h.service.Themes()
	httpx.JSON(w, http.StatusOK, themesResponse{Default: themes.Default(), Themes: themes.List()})
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	version, err := h.service.Invalidate(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "invalidate chart cache", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: cache", httpx.ErrUnavailable))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"version": version})
}

func writeArtifact(w http.ResponseWriter, f export.Format, name string, data []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func exportError(err error) error {
	switch {
	case errors.Is(err, export.ErrNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, export.ErrUnsupportedFormat), errors.Is(err, svg.ErrEmpty), errors.Is(err, raster.ErrEmpty):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, report.ErrNotConfigured):
		return fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	default:
		return err
	}
}
