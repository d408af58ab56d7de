package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/boardsmith/chartsmith/internal/chart"
	"github.com/boardsmith/chartsmith/internal/chart/svg"
	"github.com/boardsmith/chartsmith/report"
)

func quarterlyPlan(kind, subkind string) chart.Plan {
	return chart.Prepare(chart.Request{
		Kind:    kind,
		Subkind: subkind,
		Styling: chart.DefaultStyling(),
		Rows: []chart.RawRow{
			chart.NewRawRow("category", "Q1", "revenue", 450, "costs", 320),
			chart.NewRawRow("category", "Q2", "revenue", 520, "costs", 340),
		},
	})
}

func waterfallPlan() chart.Plan {
	return chart.Prepare(chart.Request{
		Kind:    "waterfall",
		Styling: chart.DefaultStyling(),
		Rows: []chart.RawRow{
			chart.NewRawRow("category", "Start", "value", 100),
			chart.NewRawRow("category", "Q1", "value", 30),
			chart.NewRawRow("category", "Q2", "value", -20),
			chart.NewRawRow("category", "End", "isTotal", true),
		},
	})
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCSV(buf, quarterlyPlan("column", "stacked")))

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Category", "revenue", "costs"},
		{"Q1", "450", "320"},
		{"Q2", "520", "340"},
	}, records)
}

func TestWriteWaterfallCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCSV(buf, waterfallPlan()))

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	require.Equal(t, []string{"Q2", "110", "130", "-20", "false"}, records[3])
	require.Equal(t, []string{"End", "0", "110", "0", "true"}, records[4])
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffcategory,revenue, costs\nQ1,450,320\n,,\nQ2,520\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "category", rows[0].Cells[0].Column)
	require.Equal(t, "costs", rows[0].Cells[2].Column)

	ds := chart.Normalize(rows, chart.NormalizeOptions{})
	require.Equal(t, []string{"Q1", "Q2"}, ds.Categories())
	require.Equal(t, []float64{320, 0}, ds.Floats("costs"))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyCSV)
}

func TestWriteXLSX(t *testing.T) {
	for _, plan := range []chart.Plan{
		quarterlyPlan("column", "stacked"),
		quarterlyPlan("bar", "stacked100"),
		quarterlyPlan("combo", ""),
		quarterlyPlan("area", "stacked100"),
		waterfallPlan(),
	} {
		buf := &bytes.Buffer{}
		require.NoError(t, WriteXLSX(buf, plan), plan.Archetype.String())

		f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		category, err := f.GetCellValue(dataSheet, "A2")
		require.NoError(t, err)
		require.NotEmpty(t, category)
		require.NoError(t, f.Close())

		archive, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		found := false
		for _, file := range archive.File {
			if strings.HasPrefix(file.Name, "xl/charts/chart") {
				found = true
			}
		}
		require.True(t, found, "native chart for %s", plan.Archetype)
	}
}

func TestWriteXLSXEmptySkipsChart(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXLSX(buf, chart.Prepare(chart.Request{Kind: "line"})))
}

func TestWaterfallTableUsesStack(t *testing.T) {
	table := tableFor(waterfallPlan())

	require.Len(t, table.series, 3)
	require.Equal(t, "Base", table.series[0].name)
	require.Equal(t, "FFFFFF", table.series[0].fill)
	require.Equal(t, []float64{0, 100, 110, 0}, table.series[0].values)
}

func TestHex(t *testing.T) {
	require.Equal(t, "0D9488", hex("#0d9488"))
	require.Equal(t, "808080", hex("rgba(0,0,0,0)"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".XLSX")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, f)
	require.Equal(t, "report.xlsx", f.Filename("report"))

	_, err = ParseFormat("gif")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExporterPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	data, err := NewExporter(report.NewClient(srv.URL)).Bytes(context.Background(), quarterlyPlan("column", "stacked"), FormatPDF)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))
}

func TestExporterPDFNotConfigured(t *testing.T) {
	_, err := NewExporter(nil).Bytes(context.Background(), quarterlyPlan("line", ""), FormatPDF)
	require.ErrorIs(t, err, report.ErrNotConfigured)
}

func TestExporterJSONAndHTML(t *testing.T) {
	e := NewExporter(nil)

	data, err := e.Bytes(context.Background(), quarterlyPlan("line", ""), FormatJSON)
	require.NoError(t, err)
	require.Contains(t, string(data), `"archetype":"line"`)

	html, err := e.Bytes(context.Background(), quarterlyPlan("line", ""), FormatHTML)
	require.NoError(t, err)
	require.Contains(t, string(html), "echarts")
}

func TestExporterSVG(t *testing.T) {
	data, err := NewExporter(nil).Bytes(context.Background(), waterfallPlan(), FormatSVG)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "<svg"))
	require.Equal(t, "image/svg+xml", FormatSVG.ContentType())

	_, err = NewExporter(nil).Bytes(context.Background(), chart.Prepare(chart.Request{Kind: "line"}), FormatSVG)
	require.ErrorIs(t, err, svg.ErrEmpty)
}

func TestExporterPNG(t *testing.T) {
	data, err := NewExporter(nil).Bytes(context.Background(), quarterlyPlan("bar", "stacked100"), FormatPNG)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Minute), mr
}

func TestStoreLifecycle(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, StatusPending, a.Status)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
	require.Nil(t, got.Data)

	require.NoError(t, store.Complete(ctx, a.ID, []byte("a,b\n")))
	got, err = store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDone, got.Status)
	require.Equal(t, "a,b\n", string(got.Data))

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, a.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFail(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, FormatPDF)
	require.NoError(t, err)
	require.NoError(t, store.Fail(ctx, a.ID, report.ErrNotConfigured))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Contains(t, got.Error, "not configured")
}

func TestStoreUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(context.Background(), "7f0c2c1e-4a47-4d39-9a43-0c5a4f7d2f11")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Complete(context.Background(), "7f0c2c1e-4a47-4d39-9a43-0c5a4f7d2f11", nil), ErrNotFound)
}
