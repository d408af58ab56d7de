package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/export"
	charthttp "github.com/boardsmith/chartsmith/internal/chart/http"
	"github.com/boardsmith/chartsmith/internal/observability"
	"github.com/boardsmith/chartsmith/internal/platform/cache"
	"github.com/boardsmith/chartsmith/jobs"
	"github.com/boardsmith/chartsmith/report"
)

// Components bundles the services shared by the server and worker binaries.
// Redis-backed parts stay nil when Redis is unreachable.
type Components struct {
	Config   *Config
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Themes   chart.ThemeSet
	Redis    *redis.Client
	Service  *chart.Service
	PDF      *report.Client
	Exporter *export.Exporter
	Store    *export.Store
	Queue    *jobs.Client
}

// NewComponents wires the chart pipeline with its optional Redis services.
func NewComponents(ctx context.Context, cfg *Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = NewLogger(cfg)
	}
	themes, err := chart.LoadThemes(cfg.ThemesFile, cfg.DefaultTheme)
	if err != nil {
		return nil, err
	}

	c := &Components{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		Themes:  themes,
		PDF:     report.NewClient(cfg.GotenbergURL),
	}
	c.Exporter = export.NewExporter(c.PDF)

	client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable, caching and async exports disabled", slog.Any("error", err))
	} else {
		c.Redis = client
		c.Store = export.NewStore(client, cfg.ExportTTL)
		c.Queue = jobs.NewClient(c.redisOpts())
	}

	var renderCache *chart.Cache
	if cfg.CacheEnabled && c.Redis != nil {
		renderCache = chart.NewCache(c.Redis, cfg.CacheTTL)
	}
	c.Service = chart.NewService(themes, cfg.ChartLimits(), renderCache, logger).WithObserver(c.Metrics)
	return c, nil
}

func (c *Components) redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Config.RedisAddr, Password: c.Config.RedisPassword, DB: c.Config.RedisDB}
}

// ChartHandler builds the chart HTTP handler; async exports need Redis.
func (c *Components) ChartHandler() *charthttp.Handler {
	opts := []charthttp.Option{charthttp.WithExportRateLimit(c.Config.ExportRateLimit)}
	if c.Store != nil && c.Queue != nil {
		opts = append(opts, charthttp.WithAsyncExports(c.Store, c.Queue))
	}
	return charthttp.NewHandler(c.Logger, c.Service, c.Exporter, opts...)
}

// Handler builds the HTTP router for the API server.
func (c *Components) Handler(inspector jobs.QueueInspector) http.Handler {
	return NewRouter(RouterParams{
		Logger:        c.Logger,
		Config:        c.Config,
		ChartHandler:  c.ChartHandler(),
		ReportHandler: report.NewHandler(c.PDF, c.Logger),
		JobHandler:    jobs.NewHandler(inspector, c.Logger),
		Metrics:       c.Metrics,
	})
}

// Worker builds the asynq worker with export and cache jobs registered.
func (c *Components) Worker() (*jobs.Worker, error) {
	if c.Redis == nil || c.Store == nil {
		return nil, errors.New("app: worker requires redis")
	}
	exportJob := jobs.NewExportJob(c.Service, c.Exporter, c.Store, c.Logger, c.Metrics.Jobs())
	invalidateJob := jobs.NewCacheInvalidateJob(c.Service, c.Logger, c.Metrics.Jobs())

	var cron []jobs.CronRegistration
	if c.Config.CacheFlushCron != "" {
		cron = append(cron, jobs.CronRegistration{
			Spec:    c.Config.CacheFlushCron,
			Task:    jobs.NewCacheInvalidateTask(),
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}
	return jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   c.redisOpts(),
		Logger:      c.Logger,
		Concurrency: c.Config.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskChartExport, Handler: exportJob.Handle},
			{Type: jobs.TaskCacheInvalidate, Handler: invalidateJob.Handle},
		},
		Cron: cron,
	})
}

// ListenForInvalidation keeps the local version view in sync with bumps
// published by other instances.
func (c *Components) ListenForInvalidation(ctx context.Context) {
	renderCache := c.Service.Cache()
	if renderCache == nil {
		return
	}
	if err := renderCache.ListenForInvalidation(ctx, chart.BumpChannel); err != nil {
		c.Logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
}

// Close releases Redis-backed resources.
func (c *Components) Close() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			c.Logger.Warn("queue close", slog.Any("error", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("redis close", slog.Any("error", err))
		}
	}
}
