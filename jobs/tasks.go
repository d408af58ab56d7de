package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/export"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueExports holds export rendering jobs.
	QueueExports = "exports"
	// TaskChartExport renders a chart build into an export artifact.
	TaskChartExport = "chart:export"
	// TaskCacheInvalidate bumps the render cache version.
	TaskCacheInvalidate = "chart:cache:invalidate"
)

// ExportPayload identifies the artifact to fill and the build to render.
type ExportPayload struct {
	ID     string             `json:"id"`
	Format export.Format      `json:"format"`
	Chart  chart.BuildRequest `json:"chart"`
}

// NewExportTask constructs an Asynq task for an export job.
func NewExportTask(payload ExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChartExport, data), nil
}

// NewCacheInvalidateTask constructs a cache invalidation task.
func NewCacheInvalidateTask() *asynq.Task {
	return asynq.NewTask(TaskCacheInvalidate, nil)
}
