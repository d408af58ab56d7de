package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/boardsmith/chartsmith/internal/chart"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"45s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	CacheEnabled   bool          `envconfig:"CACHE_ENABLED" default:"true"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	CacheFlushCron string        `envconfig:"CACHE_FLUSH_CRON"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	ThemesFile   string `envconfig:"THEMES_FILE"`
	DefaultTheme string `envconfig:"DEFAULT_THEME" default:"boardsmith-professional"`

	MaxRows    int `envconfig:"MAX_ROWS" default:"50"`
	MaxColumns int `envconfig:"MAX_COLUMNS" default:"20"`

	ExportTTL         time.Duration `envconfig:"EXPORT_TTL" default:"1h"`
	ExportRateLimit   int           `envconfig:"EXPORT_RATE_LIMIT" default:"10"`
	RateLimit         int           `envconfig:"RATE_LIMIT" default:"120"`
	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxRows <= 0:
		return errors.New("max rows must be positive")
	case c.MaxColumns <= 0:
		return errors.New("max columns must be positive")
	case c.ExportTTL <= 0:
		return errors.New("export ttl must be positive")
	case c.CacheEnabled && c.CacheTTL <= 0:
		return errors.New("cache ttl must be positive when caching is enabled")
	case c.WorkerConcurrency <= 0:
		return errors.New("worker concurrency must be positive")
	case c.RateLimit <= 0 || c.ExportRateLimit <= 0:
		return errors.New("rate limits must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// ChartLimits returns the grid caps applied by Normalize.
func (c *Config) ChartLimits() chart.Limits {
	return chart.Limits{MaxRows: c.MaxRows, MaxColumns: c.MaxColumns}
}
