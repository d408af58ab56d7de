package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/export"
	"github.com/boardsmith/chartsmith/internal/chart/raster"
	"github.com/boardsmith/chartsmith/internal/chart/svg"
	jobmetrics "github.com/boardsmith/chartsmith/internal/jobs"
	"github.com/boardsmith/chartsmith/report"
)

// Planner resolves a build request into a pipeline plan.
type Planner interface {
	Plan(in chart.BuildRequest) chart.Plan
}

// ArtifactWriter records export outcomes.
type ArtifactWriter interface {
	Complete(ctx context.Context, id string, data []byte) error
	Fail(ctx context.Context, id string, cause error) error
}

// ExportJob renders queued exports and stores the artifacts.
type ExportJob struct {
	Planner  Planner
	Exporter *export.Exporter
	Store    ArtifactWriter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewExportJob wires dependencies for the export handler.
func NewExportJob(planner Planner, exporter *export.Exporter, store ArtifactWriter, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExportJob {
	return &ExportJob{Planner: planner, Exporter: exporter, Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskChartExport tasks.
func (j *ExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Planner == nil || j.Store == nil {
		return errors.New("chart export: handler not configured")
	}
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	logger := j.logger().With(slog.String("export_id", payload.ID), slog.String("format", string(payload.Format)))

	tracker := j.Metrics.Track(TaskChartExport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	format, err := export.ParseFormat(string(payload.Format))
	if err != nil {
		resultErr = err
		j.fail(ctx, logger, payload.ID, err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	plan := j.Planner.Plan(payload.Chart)
	data, err := j.Exporter.Bytes(ctx, plan, format)
	if err != nil {
		resultErr = err
		if permanent(err) || finalAttempt(ctx) {
			j.fail(ctx, logger, payload.ID, err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Warn("export attempt failed", slog.Any("error", err))
		return resultErr
	}

	if err := j.Store.Complete(ctx, payload.ID, data); err != nil {
		resultErr = err
		if errors.Is(err, export.ErrNotFound) {
			logger.Warn("export artifact expired before completion")
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Error("store export", slog.Any("error", err))
		return resultErr
	}
	j.Metrics.AddExportBytes(string(format), len(data))
	logger.Info("export complete", slog.String("archetype", plan.Archetype.String()), slog.Int("bytes", len(data)))
	return resultErr
}

func (j *ExportJob) fail(ctx context.Context, logger *slog.Logger, id string, cause error) {
	logger.Error("export failed", slog.Any("error", cause))
	if err := j.Store.Fail(ctx, id, cause); err != nil {
		logger.Warn("mark export failed", slog.Any("error", err))
	}
}

func (j *ExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// finalAttempt reports whether asynq will not retry the running task.
func finalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	limit, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= limit
}

// permanent reports export errors a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, report.ErrNotConfigured) || errors.Is(err, svg.ErrEmpty) || errors.Is(err, raster.ErrEmpty)
}
