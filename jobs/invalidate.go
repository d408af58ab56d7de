package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/boardsmith/chartsmith/internal/jobs"
)

// Invalidator drops cached render configurations.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// CacheInvalidateJob bumps the render cache version on schedule.
type CacheInvalidateJob struct {
	Cache   Invalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheInvalidateJob wires dependencies for the invalidation handler.
func NewCacheInvalidateJob(cache Invalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheInvalidateJob {
	return &CacheInvalidateJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes TaskCacheInvalidate tasks.
func (j *CacheInvalidateJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("cache invalidate: handler not configured")
	}
	tracker := j.Metrics.Track(TaskCacheInvalidate)
	version, err := j.Cache.Invalidate(ctx)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("invalidate chart cache", slog.Any("error", err))
		}
		return tracker.End(err)
	}
	if j.Logger != nil {
		j.Logger.Info("chart cache invalidated by schedule", slog.Int64("version", version))
	}
	return tracker.End(nil)
}
