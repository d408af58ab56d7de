package charthttp

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/export"
	"github.com/boardsmith/chartsmith/internal/platform/httpx"
)

const quarterly = `{
	"kind": "column",
	"subkind": "stacked",
	"styling": {"title": "Q1 Revenue & Costs"},
	"rows": [
		{"category": "Q1", "revenue": 450, "costs": 320},
		{"category": "Q2", "revenue": 520, "costs": "340"}
	]
}`

type queuedExport struct {
	id     string
	format export.Format
	in     chart.BuildRequest
}

type stubQueue struct {
	jobs []queuedExport
	err  error
}

func (q *stubQueue) EnqueueExport(ctx context.Context, id string, f export.Format, in chart.BuildRequest) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queuedExport{id: id, format: f, in: in})
	return nil
}

func newTestService() *chart.Service {
	return chart.NewService(chart.BuiltinThemes(), chart.Limits{MaxRows: 50, MaxColumns: 20}, nil, nil)
}

func newTestStore(t *testing.T) *export.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return export.NewStore(client, time.Minute)
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRender(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodPost, "/charts/render", quarterly)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cfg chart.RenderConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	require.Equal(t, chart.Stacked, cfg.Meta.Archetype)
	require.Equal(t, []string{"Q1", "Q2"}, cfg.Categories())
	require.Len(t, cfg.Series, 2)
	require.Equal(t, []float64{320, 340}, cfg.Series[1].Data)
}

func TestRenderRejectsBadInput(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodPost, "/charts/render", `{"kind":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/charts/render", `{"kind":"bar","styling":{"height":50}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Contains(t, problem.Detail, "Height")
}

func TestRenderUnknownEnumsFallBack(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	body := `{"kind":"column","orientation":"bottom","rows":[{"category":"Q1","a":1}],` +
		`"styling":{"legendPosition":"middle"},"options":{"waterfallMode":"sideways"}}`
	rec := do(t, router, http.MethodPost, "/charts/render", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cfg chart.RenderConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	require.False(t, cfg.Meta.Horizontal)
	require.Equal(t, chart.OrientationTop, cfg.Meta.Orientation)
	require.Equal(t, "bottom", cfg.Legend.Position)
}

func TestRenderUnknownKindFallsBack(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodPost, "/charts/render", `{"kind":"radar","rows":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg chart.RenderConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	require.Equal(t, chart.DefaultArchetype, cfg.Meta.Archetype)
	require.True(t, cfg.Meta.Empty)
}

func TestPreview(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodPost, "/charts/preview", quarterly)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "echarts")
}

func TestExportCSV(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodPost, "/charts/export.csv", quarterly)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="q1-revenue-costs.csv"`, rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Category", "revenue", "costs"}, records[0])
}

func TestExportSVG(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodPost, "/charts/export.svg", quarterly)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "<svg")
}

func TestExportPDFWithoutGotenberg(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodPost, "/charts/export.pdf", quarterly)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportRateLimit(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil, WithExportRateLimit(1)))

	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/charts/export.csv", quarterly).Code)
	require.Equal(t, http.StatusTooManyRequests, do(t, router, http.MethodPost, "/charts/export.csv", quarterly).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/charts/render", quarterly).Code)
}

func TestAsyncExportLifecycle(t *testing.T) {
	store := newTestStore(t)
	queue := &stubQueue{}
	router := newRouter(NewHandler(nil, newTestService(), nil, WithAsyncExports(store, queue)))

	rec := do(t, router, http.MethodPost, "/charts/exports", `{"format":"xlsx","chart":`+quarterly+`}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var created export.Artifact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, export.StatusPending, created.Status)
	require.Equal(t, "/charts/exports/"+created.ID, rec.Header().Get("Location"))
	require.Len(t, queue.jobs, 1)
	require.Equal(t, export.FormatXLSX, queue.jobs[0].format)
	require.Equal(t, "column", queue.jobs[0].in.Kind)

	rec = do(t, router, http.MethodGet, "/charts/exports/"+created.ID, "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.NoError(t, store.Complete(context.Background(), created.ID, []byte("xlsx-bytes")))
	rec = do(t, router, http.MethodGet, "/charts/exports/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, export.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
	require.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestAsyncExportErrors(t *testing.T) {
	store := newTestStore(t)
	queue := &stubQueue{err: errors.New("redis down")}
	router := newRouter(NewHandler(nil, newTestService(), nil, WithAsyncExports(store, queue)))

	rec := do(t, router, http.MethodPost, "/charts/exports", `{"format":"gif","chart":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/charts/exports", `{"format":"csv","chart":`+quarterly+`}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, router, http.MethodGet, "/charts/exports/7f0c2c1e-4a47-4d39-9a43-0c5a4f7d2f11", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, router, http.MethodGet, "/charts/exports/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAsyncExportFailedStatus(t *testing.T) {
	store := newTestStore(t)
	router := newRouter(NewHandler(nil, newTestService(), nil, WithAsyncExports(store, &stubQueue{})))

	a, err := store.Create(context.Background(), export.FormatPDF)
	require.NoError(t, err)
	require.NoError(t, store.Fail(context.Background(), a.ID, errors.New("gotenberg timeout")))

	rec := do(t, router, http.MethodGet, "/charts/exports/"+a.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got export.Artifact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, export.StatusFailed, got.Status)
	require.Equal(t, "gotenberg timeout", got.Error)
}

func TestAsyncExportNotConfigured(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	require.Equal(t, http.StatusServiceUnavailable, do(t, router, http.MethodPost, "/charts/exports", `{"format":"csv"}`).Code)
	require.Equal(t, http.StatusServiceUnavailable, do(t, router, http.MethodGet, "/charts/exports/abc", "").Code)
}

func TestCatalogAndThemes(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodGet, "/charts/archetypes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog []chart.CatalogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	require.Len(t, catalog, len(chart.Archetypes))
	require.Equal(t, "stacked", catalog[0].ID)

	rec = do(t, router, http.MethodGet, "/charts/themes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var themes themesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &themes))
	require.Equal(t, "boardsmith-professional", themes.Default)
	require.Len(t, themes.Themes, 4)
}

func TestInvalidateWithoutCache(t *testing.T) {
	router := newRouter(NewHandler(nil, newTestService(), nil))

	rec := do(t, router, http.MethodDelete, "/charts/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"version":0}`, rec.Body.String())
}

func TestSlug(t *testing.T) {
	require.Equal(t, "q1-revenue-costs", slug("  Q1 Revenue & Costs "))
	require.Equal(t, "", slug("€€€"))
	require.Equal(t, "chart.csv", export.FormatCSV.Filename(slug("")))
}
