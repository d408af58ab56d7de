package echarts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/require"

	"github.com/boardsmith/chartsmith/internal/chart"
)

func plan(kind, subkind, orientation string, rows ...chart.RawRow) chart.Plan {
	s := chart.DefaultStyling()
	s.Title = "Quarterly results"
	s.Source = "Finance"
	return chart.Prepare(chart.Request{Kind: kind, Subkind: subkind, Orientation: orientation, Rows: rows, Styling: s})
}

func quarterly() []chart.RawRow {
	return []chart.RawRow{
		chart.NewRawRow("category", "Q1", "revenue", 450, "costs", 320),
		chart.NewRawRow("category", "Q2", "revenue", 520, "costs", 340),
	}
}

func TestRenderEveryArchetype(t *testing.T) {
	cases := []struct{ kind, subkind string }{
		{"column", "clustered"},
		{"column", "stacked"},
		{"bar", "stacked100"},
		{"line", ""},
		{"area", ""},
		{"area", "stacked100"},
		{"combo", ""},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, plan(tc.kind, tc.subkind, "", quarterly()...)), tc.kind)
		html := buf.String()
		require.Contains(t, html, "echarts", tc.kind)
		require.Contains(t, html, "Quarterly results", tc.kind)
	}
}

func TestRenderWaterfall(t *testing.T) {
	p := plan("waterfall", "", "",
		chart.NewRawRow("category", "Start", "value", 100),
		chart.NewRawRow("category", "Gain", "value", 30),
		chart.NewRawRow("category", "End", "isTotal", true),
	)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, p))
	html := buf.String()

	require.Contains(t, html, "Increase")
	require.Contains(t, html, "Decrease")
	require.NotContains(t, html, `"name":"Actual"`)
	require.Contains(t, html, transparent)
}

func TestRenderEmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, plan("waterfall", "", "")))
	require.True(t, strings.Contains(buf.String(), "<html"))
}

func TestSharesScaleToHundred(t *testing.T) {
	out := shares([]chart.DerivedSeries{
		{Name: "a", Values: []float64{1, 0}},
		{Name: "b", Values: []float64{3, 0}},
	}, 2)

	require.Equal(t, []float64{25, 0}, out[0].Values)
	require.Equal(t, []float64{75, 0}, out[1].Values)
}

func TestLegendPosition(t *testing.T) {
	s := chart.DefaultStyling()
	s.LegendPosition = chart.LegendRight

	legend := legendOpts(s, true)

	require.Equal(t, "0", legend.Right)
	require.Equal(t, "vertical", legend.Orient)
	require.True(t, *legend.Show)
}

func TestWaterfallLabelsAreSigned(t *testing.T) {
	p := plan("waterfall", "", "",
		chart.NewRawRow("category", "Start", "value", 100),
		chart.NewRawRow("category", "Loss", "value", -30),
		chart.NewRawRow("category", "End", "isTotal", true),
	)
	p.Styling.ShowDataLabels = true

	bar := waterfallChart(p)
	labels := map[string][]string{}
	for _, series := range bar.MultiSeries {
		data, ok := series.Data.([]opts.BarData)
		require.True(t, ok)
		for _, item := range data {
			if item.Label != nil && *item.Label.Show {
				labels[series.Name] = append(labels[series.Name], item.Label.Formatter)
			}
		}
	}

	require.Equal(t, []string{"100", "70"}, labels["Increase"])
	require.Equal(t, []string{"-30"}, labels["Decrease"])
}
