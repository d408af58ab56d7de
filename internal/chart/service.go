package chart

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// cacheSchema changes whenever RenderConfig changes shape.
const cacheSchema = "v1"

// Observer receives build timings.
type Observer interface {
	ObserveBuild(archetype string, cached bool, elapsed time.Duration)
}

// Service resolves editor requests against the theme set and memoises the
// resulting configurations.
type Service struct {
	themes   ThemeSet
	limits   Limits
	cache    *Cache
	logger   *slog.Logger
	observer Observer
	group    singleflight.Group
}

// NewService wires the pipeline with themes, limits and an optional cache.
func NewService(themes ThemeSet, limits Limits, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{themes: themes, limits: limits, cache: cache, logger: logger}
}

// WithObserver attaches build instrumentation.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Themes exposes the configured theme set.
func (s *Service) Themes() ThemeSet { return s.themes }

// Cache exposes the render cache; nil when caching is disabled.
func (s *Service) Cache() *Cache { return s.cache }

// Request resolves a wire request into a pipeline request.
func (s *Service) Request(in BuildRequest) Request {
	return in.Resolve(s.themes.Resolve(in.Theme), s.limits)
}

// Plan runs the pipeline up to derivation for alternate renderers.
func (s *Service) Plan(in BuildRequest) Plan {
	return Prepare(s.Request(in))
}

type renderResult struct {
	config RenderConfig
	cached bool
}

// Render builds the RenderConfig for in, served from cache when possible.
// Concurrent identical requests share one build. Cache failures degrade to
// an uncached build.
func (s *Service) Render(ctx context.Context, in BuildRequest) (RenderConfig, error) {
	start := time.Now()
	req := s.Request(in)
	archetype := Classify(req.Kind, req.Subkind).String()

	key, err := s.cacheKey(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "chart cache key unavailable", slog.Any("error", err))
		cfg := Build(req)
		s.observe(archetype, false, start)
		return cfg, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		return s.fetch(ctx, key, req), nil
	})
	select {
	case <-ctx.Done():
		return RenderConfig{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return RenderConfig{}, res.Err
		}
		out := res.Val.(renderResult)
		s.observe(archetype, out.cached, start)
		return out.config, nil
	}
}

func (s *Service) fetch(ctx context.Context, key string, req Request) renderResult {
	built := false
	var cfg RenderConfig
	err := s.cache.FetchJSON(ctx, key, &cfg, func(context.Context) (any, error) {
		built = true
		return Build(req), nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "chart cache unavailable", slog.String("key", key), slog.Any("error", err))
		return renderResult{config: Build(req)}
	}
	return renderResult{config: cfg, cached: !built}
}

// cacheKey hashes the resolved request so equal inputs share an entry.
func (s *Service) cacheKey(ctx context.Context, req Request) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	digest := strconv.FormatUint(xxhash.Sum64(raw), 16)
	return s.cache.BuildKey(ctx, "chart", "render", cacheSchema, digest)
}

func (s *Service) observe(archetype string, cached bool, start time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveBuild(archetype, cached, time.Since(start))
}

// Invalidate drops every cached configuration.
func (s *Service) Invalidate(ctx context.Context) (int64, error) {
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "chart cache invalidated", slog.Int64("version", ver))
	return ver, nil
}
