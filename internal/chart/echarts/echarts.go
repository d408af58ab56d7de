// Package echarts renders chart plans as standalone ECharts HTML pages for
// previews and headless exports.
package echarts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/boardsmith/chartsmith/internal/chart"
)

const (
	stackName   = "total"
	transparent = "rgba(0,0,0,0)"
	pageWidth   = "960px"
)

// Renderer is satisfied by every go-echarts chart.
type Renderer interface {
	Render(w io.Writer) error
}

// Render writes the HTML page for plan to w.
func Render(w io.Writer, plan chart.Plan) error {
	if err := Chart(plan).Render(w); err != nil {
		return fmt.Errorf("echarts: render %s: %w", plan.Archetype, err)
	}
	return nil
}

// Chart builds the go-echarts chart for plan.
func Chart(plan chart.Plan) Renderer {
	switch plan.Archetype {
	case chart.Line, chart.Area, chart.Area100:
		return lineChart(plan)
	case chart.Combination:
		return comboChart(plan)
	case chart.Waterfall:
		return waterfallChart(plan)
	default:
		return barChart(plan)
	}
}

func globalOpts(plan chart.Plan, showLegend bool) []charts.GlobalOpts {
	s := plan.Styling
	palette := make(opts.Colors, len(s.Palette))
	copy(palette, s.Palette)
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       pageTitle(s.Title),
			Width:           pageWidth,
			Height:          fmt.Sprintf("%dpx", s.Height),
			BackgroundColor: s.BackgroundColor,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         s.Title,
			Subtitle:      subtitle(s),
			TitleStyle:    &opts.TextStyle{Color: s.TextColor, FontFamily: s.FontFamily},
			SubtitleStyle: &opts.TextStyle{Color: s.TextColor, FontFamily: s.FontFamily},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(legendOpts(s, showLegend)),
		charts.WithColorsOpts(palette),
	}
}

func pageTitle(title string) string {
	if title == "" {
		return "Chart preview"
	}
	return title
}

// subtitle folds the source note under the subtitle; ECharts has no
// caption slot of its own.
func subtitle(s chart.Styling) string {
	switch {
	case s.Source == "":
		return s.Subtitle
	case s.Subtitle == "":
		return "Source: " + s.Source
	default:
		return s.Subtitle + "\nSource: " + s.Source
	}
}

func legendOpts(s chart.Styling, show bool) opts.Legend {
	legend := opts.Legend{
		Show:      opts.Bool(show && s.ShowLegend),
		TextStyle: &opts.TextStyle{Color: s.TextColor},
	}
	switch s.LegendPosition {
	case chart.LegendTop:
		legend.Top = "top"
	case chart.LegendLeft:
		legend.Left = "left"
		legend.Orient = "vertical"
	case chart.LegendRight:
		legend.Right = "0"
		legend.Orient = "vertical"
	default:
		legend.Bottom = "0"
	}
	return legend
}

// axisOpts returns the category and value axes. Horizontal layouts swap
// the axis types; the caller reverses the data.
func axisOpts(plan chart.Plan) (opts.XAxis, opts.YAxis) {
	s := plan.Styling
	categoryLabel := &opts.AxisLabel{Show: opts.Bool(s.ShowXAxisLabels), Color: s.TextColor}
	valueLabel := &opts.AxisLabel{Show: opts.Bool(s.ShowYAxisLabels), Color: s.TextColor}
	if plan.Layout.StackPercent {
		valueLabel.Formatter = "{value}%"
	}
	var limit interface{}
	if plan.Layout.StackPercent && s.CapPercentAxis {
		limit = 100
	}

	if plan.Layout.Horizontal {
		x := opts.XAxis{Type: "value", Name: s.YAxisTitle, AxisLabel: valueLabel, Max: limit}
		y := opts.YAxis{Type: "category", Name: s.XAxisTitle, AxisLabel: categoryLabel}
		return x, y
	}
	x := opts.XAxis{Type: "category", Name: s.XAxisTitle, AxisLabel: categoryLabel}
	y := opts.YAxis{Type: "value", Name: s.YAxisTitle, AxisLabel: valueLabel, Max: limit}
	return x, y
}

func labelOpts(show bool, position string) opts.Label {
	return opts.Label{Show: opts.Bool(show), Position: position}
}

func barData(values []float64) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func barChart(plan chart.Plan) *charts.Bar {
	bar := charts.NewBar()
	x, y := axisOpts(plan)
	bar.SetGlobalOptions(append(globalOpts(plan, true), charts.WithXAxisOpts(x), charts.WithYAxisOpts(y))...)
	bar.SetXAxis(plan.Derivation.Categories)

	series := plan.Derivation.Series
	if plan.Archetype == chart.Stacked100 {
		series = shares(series, len(plan.Derivation.Categories))
	}
	position := "top"
	if plan.Layout.Stacked {
		position = "inside"
	}
	for _, s := range series {
		seriesOpts := []charts.SeriesOpts{charts.WithLabelOpts(labelOpts(plan.Styling.ShowDataLabels, position))}
		if plan.Layout.Stacked {
			seriesOpts = append(seriesOpts, charts.WithBarChartOpts(opts.BarChart{Stack: stackName}))
		}
		bar.AddSeries(s.Name, barData(s.Values), seriesOpts...)
	}
	if plan.Layout.Horizontal {
		bar.XYReversal()
	}
	return bar
}

// shares rescales raw stacked values to percentages; ECharts has no
// percent stack mode.
func shares(series []chart.DerivedSeries, n int) []chart.DerivedSeries {
	totals := make([]float64, n)
	for _, s := range series {
		for i := 0; i < n && i < len(s.Values); i++ {
			totals[i] += s.Values[i]
		}
	}
	out := make([]chart.DerivedSeries, len(series))
	for j, s := range series {
		out[j] = s
		out[j].Values = make([]float64, n)
		for i := 0; i < n && i < len(s.Values); i++ {
			if totals[i] != 0 {
				out[j].Values[i] = s.Values[i] / totals[i] * 100
			}
		}
	}
	return out
}

func lineChart(plan chart.Plan) *charts.Line {
	line := charts.NewLine()
	x, y := axisOpts(plan)
	line.SetGlobalOptions(append(globalOpts(plan, true), charts.WithXAxisOpts(x), charts.WithYAxisOpts(y))...)
	line.SetXAxis(plan.Derivation.Categories)

	lineOpts := opts.LineChart{Smooth: opts.Bool(true)}
	if plan.Archetype == chart.Area100 {
		lineOpts.Stack = stackName
	}
	for _, s := range plan.Derivation.Series {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(lineOpts),
			charts.WithLabelOpts(labelOpts(plan.Styling.ShowDataLabels, "top")),
		}
		if plan.Archetype != chart.Line {
			seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{}))
		}
		line.AddSeries(s.Name, lineData(s.Values), seriesOpts...)
	}
	return line
}

func comboChart(plan chart.Plan) *charts.Bar {
	bar := charts.NewBar()
	x, y := axisOpts(plan)
	bar.SetGlobalOptions(append(globalOpts(plan, true), charts.WithXAxisOpts(x), charts.WithYAxisOpts(y))...)
	bar.SetXAxis(plan.Derivation.Categories)

	line := charts.NewLine()
	line.SetXAxis(plan.Derivation.Categories)
	for _, s := range plan.Derivation.Series {
		if s.Kind == chart.SeriesLine {
			line.AddSeries(s.Name, lineData(s.Values),
				charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
				charts.WithLabelOpts(labelOpts(plan.Styling.ShowDataLabels, "top")),
			)
			continue
		}
		bar.AddSeries(s.Name, barData(s.Values))
	}
	bar.Overlap(line)
	return bar
}

// waterfallChart draws the ranges as a stacked bar with a transparent base.
func waterfallChart(plan chart.Plan) *charts.Bar {
	bar := charts.NewBar()
	x, y := axisOpts(plan)
	bar.SetGlobalOptions(append(globalOpts(plan, false), charts.WithXAxisOpts(x), charts.WithYAxisOpts(y))...)
	bar.SetXAxis(plan.Derivation.Categories)

	s := plan.Styling
	labels := chart.NewLabelFormatter(s.Locale)
	ranges := plan.Derivation.Ranges()
	for _, series := range chart.StackRanges(ranges) {
		color := ""
		switch series.Role {
		case chart.RoleBase:
			color = transparent
		case chart.RoleIncrease:
			color = s.IncreaseColor
		case chart.RoleDecrease:
			color = s.DecreaseColor
		default:
			continue
		}
		data := make([]opts.BarData, len(series.Values))
		for i, v := range series.Values {
			item := opts.BarData{Value: v, ItemStyle: &opts.ItemStyle{Color: color}}
			if series.Role == chart.RoleIncrease && ranges[i].Total {
				item.ItemStyle = &opts.ItemStyle{Color: s.TotalColor}
			}
			if series.Role != chart.RoleBase {
				// Heights are unsigned; label with the signed change instead.
				item.Label = &opts.Label{
					Show:      opts.Bool(s.ShowDataLabels && v != 0),
					Position:  "inside",
					Formatter: labels.Range(ranges[i]),
				}
			}
			data[i] = item
		}
		bar.AddSeries(series.Name, data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "waterfall"}),
			charts.WithLabelOpts(labelOpts(s.ShowDataLabels && series.Role != chart.RoleBase, "inside")),
		)
	}
	return bar
}
