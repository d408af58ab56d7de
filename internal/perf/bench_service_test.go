package perf

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/observability"
)

func cachedService(tb testing.TB) (*chart.Service, *observability.Metrics) {
	tb.Helper()
	mr := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() { _ = client.Close() })
	metrics := observability.NewMetrics()
	svc := chart.NewService(chart.BuiltinThemes(), chart.Limits{MaxRows: 50, MaxColumns: 20}, chart.NewCache(client, time.Minute), nil).
		WithObserver(metrics)
	return svc, metrics
}

func TestCachedRendersHitCache(t *testing.T) {
	svc, metrics := cachedService(t)
	in := chart.BuildRequest{Kind: "column", Subkind: "stacked", Rows: fullGrid()}

	for i := 0; i < 20; i++ {
		if _, err := svc.Render(context.Background(), in); err != nil {
			t.Fatalf("render: %v", err)
		}
	}

	families, err := metrics.Registerer().(prometheus.Gatherer).Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	hits := metricValue(t, families, "chartsmith_chart_builds_total", map[string]string{"archetype": "stacked", "cached": "true"})
	misses := metricValue(t, families, "chartsmith_chart_builds_total", map[string]string{"archetype": "stacked", "cached": "false"})
	if misses != 1 || hits != 19 {
		t.Fatalf("expected 1 miss and 19 hits, got %v/%v", misses, hits)
	}
	if mean := histogramMean(t, families, "chartsmith_chart_build_duration_seconds", map[string]string{"archetype": "stacked"}); mean > 0.25 {
		t.Fatalf("mean render duration above budget: %f", mean)
	}
}

func BenchmarkRenderCached(b *testing.B) {
	svc, _ := cachedService(b)
	in := chart.BuildRequest{Kind: "waterfall", Rows: fullGrid()}
	ctx := context.Background()
	if _, err := svc.Render(ctx, in); err != nil {
		b.Fatalf("warm: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Render(ctx, in); err != nil {
			b.Fatalf("render: %v", err)
		}
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, want := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = lp.GetValue() == want
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
