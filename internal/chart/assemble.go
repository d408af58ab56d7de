package chart

import "math"

const transparent = "rgba(0,0,0,0)"

// Assemble turns derived series into a RenderConfig. Every series is
// padded or truncated to the category count so renderers never see ragged
// data, and non-finite values are written as 0.
func Assemble(d Derivation, layout Layout, s Styling) RenderConfig {
	s = s.withDefaults()
	categories := d.Categories
	if categories == nil {
		categories = []string{}
	}
	n := len(categories)
	labels := NewLabelFormatter(s.Locale)
	axisStyle := LabelStyle{Colors: []string{s.TextColor}, FontFamily: s.FontFamily, FontSize: "11px"}

	cfg := RenderConfig{
		Chart: ChartOptions{
			Type:       layout.BaseKind,
			Height:     s.Height,
			Stacked:    layout.Stacked,
			FontFamily: s.FontFamily,
			Foreground: s.TextColor,
			Background: s.BackgroundColor,
		},
		Series: []SeriesConfig{},
		Colors: []string{},
		XAxis: XAxisConfig{
			Categories: categories,
			Title:      AxisTitle{Text: s.XAxisTitle},
			Labels:     AxisLabels{Show: s.ShowXAxisLabels, Style: axisStyle},
		},
		YAxis: YAxisConfig{
			Title:  AxisTitle{Text: s.YAxisTitle},
			Labels: AxisLabels{Show: s.ShowYAxisLabels, Style: axisStyle},
		},
		Legend: LegendConfig{
			Show:       s.ShowLegend,
			Position:   string(s.LegendPosition),
			FontFamily: s.FontFamily,
			Labels:     LabelStyle{Colors: []string{s.TextColor}},
		},
		DataLabels: DataLabelsConfig{Enabled: s.ShowDataLabels},
		Grid:       GridConfig{BorderColor: s.GridColor},
		Title:      TextConfig{Text: s.Title, Align: "left", Style: &LabelStyle{FontFamily: s.FontFamily, FontSize: "18px", FontWeight: 600}},
		Subtitle:   TextConfig{Text: s.Subtitle, Align: "left", Style: &LabelStyle{FontFamily: s.FontFamily, FontSize: "14px"}},
		Meta: Meta{
			Archetype:   d.Archetype,
			Orientation: OrientationTop,
			Horizontal:  layout.Horizontal,
			PercentAxis: layout.StackPercent,
			Source:      s.Source,
			Empty:       n == 0,
		},
	}
	if layout.Horizontal {
		cfg.Meta.Orientation = OrientationRight
	}
	if layout.StackPercent {
		cfg.Chart.StackType = "100%"
	}

	switch d.Archetype {
	case Waterfall:
		if d.WaterfallMode == WaterfallStacked {
			assembleStackedWaterfall(&cfg, d, s, labels, n)
		} else {
			assembleRangeWaterfall(&cfg, d, s, labels, n)
		}
	case Combination:
		assembleCombination(&cfg, d, s, n)
	case Line:
		assembleSeries(&cfg, d, s, n)
		cfg.Stroke = &StrokeConfig{Curve: "smooth", Width: repeatInt(3, len(cfg.Series))}
		cfg.Markers = &MarkersConfig{Size: 5, Hover: MarkerHover{Size: 7}}
	case Area, Area100:
		assembleSeries(&cfg, d, s, n)
		cfg.Stroke = &StrokeConfig{Curve: "smooth", Width: repeatInt(2, len(cfg.Series))}
		cfg.Fill = &FillConfig{Type: "gradient", Gradient: &Gradient{ShadeIntensity: 1, OpacityFrom: 0.7, OpacityTo: 0.3}}
	default:
		assembleSeries(&cfg, d, s, n)
		cfg.PlotOptions.Bar = &BarOptions{Horizontal: layout.Horizontal, ColumnWidth: "55%", BorderRadius: 4}
		if s.ShowStackTotals && d.Archetype.SupportsStackTotals() {
			cfg.PlotOptions.Bar.DataLabels = &BarDataLabels{
				Total: &TotalLabels{Enabled: true, Style: &LabelStyle{FontFamily: s.FontFamily, FontSize: "12px", FontWeight: 600}},
			}
			cfg.Meta.StackTotals = stackTotals(cfg.Series, n)
			cfg.Meta.StackTotalLabels = make([]string, n)
			for i, total := range cfg.Meta.StackTotals {
				cfg.Meta.StackTotalLabels[i] = labels.Plain(total)
			}
		}
	}

	if layout.StackPercent {
		applyPercentAxis(&cfg, layout, s)
	}
	// No categories means nothing to plot, whatever the archetype asked for.
	if n == 0 {
		cfg.Series = []SeriesConfig{}
		cfg.Colors = []string{}
		cfg.Meta.StackTotals = nil
		cfg.Meta.StackTotalLabels = nil
	}
	if len(cfg.Series) == 0 {
		cfg.Meta.Empty = true
	}
	return cfg
}

func assembleSeries(cfg *RenderConfig, d Derivation, s Styling, n int) {
	for i, series := range d.Series {
		cfg.Series = append(cfg.Series, SeriesConfig{Name: series.Name, Data: fit(series.Values, n)})
		cfg.Colors = append(cfg.Colors, seriesColor(series, s, i))
	}
}

func assembleCombination(cfg *RenderConfig, d Derivation, s Styling, n int) {
	widths := make([]int, 0, len(d.Series))
	for i, series := range d.Series {
		apexType := "line"
		width := 4
		if series.Kind == SeriesBar {
			apexType = "column"
			width = 0
		}
		cfg.Series = append(cfg.Series, SeriesConfig{Name: series.Name, Type: apexType, Data: fit(series.Values, n)})
		cfg.Colors = append(cfg.Colors, seriesColor(series, s, i))
		widths = append(widths, width)
	}
	cfg.Stroke = &StrokeConfig{Curve: "smooth", Width: widths}
	cfg.Markers = &MarkersConfig{Size: 4, Hover: MarkerHover{Size: 6}}
	cfg.PlotOptions.Bar = &BarOptions{ColumnWidth: "50%", BorderRadius: 4}
	if cfg.DataLabels.Enabled {
		cfg.DataLabels.EnabledOnSeries = []int{len(d.Series) - 1}
	}
}

func assembleRangeWaterfall(cfg *RenderConfig, d Derivation, s Styling, labels LabelFormatter, n int) {
	cfg.Chart.Type = KindRangeBar
	cfg.Chart.Stacked = false
	cfg.Legend.Show = false
	cfg.PlotOptions.Bar = &BarOptions{ColumnWidth: "60%"}
	cfg.Colors = []string{s.IncreaseColor, s.DecreaseColor, s.TotalColor}
	for _, series := range d.Series {
		points := make([]RangePoint, n)
		for i := 0; i < n; i++ {
			var r Range
			if i < len(series.Ranges) {
				r = series.Ranges[i]
			}
			r = finiteRange(r)
			points[i] = RangePoint{
				X:         d.Categories[i],
				Y:         [2]float64{r.Start, r.End},
				FillColor: rangeColor(r, s),
				Change:    r.Change,
				Label:     labels.Range(r),
				Total:     r.Total,
			}
		}
		cfg.Series = append(cfg.Series, SeriesConfig{Name: series.Name, Points: points})
	}
	cfg.Meta.WaterfallMode = WaterfallRange
}

func assembleStackedWaterfall(cfg *RenderConfig, d Derivation, s Styling, labels LabelFormatter, n int) {
	cfg.Chart.Type = KindBar
	cfg.Chart.Stacked = true
	cfg.Legend.Show = false
	cfg.PlotOptions.Bar = &BarOptions{ColumnWidth: "60%"}
	opacity := make([]float64, 0, len(d.Series))
	var labelled []int
	for i, series := range d.Series {
		cfg.Series = append(cfg.Series, SeriesConfig{Name: series.Name, Data: fit(series.Values, n)})
		switch series.Role {
		case RoleIncrease:
			cfg.Colors = append(cfg.Colors, s.IncreaseColor)
			opacity = append(opacity, 1)
			labelled = append(labelled, i)
		case RoleDecrease:
			cfg.Colors = append(cfg.Colors, s.DecreaseColor)
			opacity = append(opacity, 1)
			labelled = append(labelled, i)
		case RoleActual:
			cfg.Colors = append(cfg.Colors, transparent)
			opacity = append(opacity, 0)
			cfg.Meta.WaterfallLabels = make([]string, n)
			for j := 0; j < n && j < len(series.Ranges); j++ {
				cfg.Meta.WaterfallLabels[j] = labels.Range(finiteRange(series.Ranges[j]))
			}
		default:
			cfg.Colors = append(cfg.Colors, transparent)
			opacity = append(opacity, 0)
		}
	}
	cfg.Fill = &FillConfig{Type: "solid", Opacity: opacity}
	if cfg.DataLabels.Enabled {
		cfg.DataLabels.EnabledOnSeries = labelled
	}
	cfg.Meta.WaterfallMode = WaterfallStacked
}

// applyPercentAxis suffixes the value axis with "%" and optionally caps it.
func applyPercentAxis(cfg *RenderConfig, layout Layout, s Styling) {
	var limit *float64
	if s.CapPercentAxis {
		hundred := 100.0
		limit = &hundred
	}
	if layout.Horizontal {
		cfg.XAxis.Labels.Suffix = "%"
		cfg.XAxis.Max = limit
		return
	}
	cfg.YAxis.Labels.Suffix = "%"
	cfg.YAxis.Max = limit
}

func seriesColor(series DerivedSeries, s Styling, i int) string {
	if series.FillColor != "" {
		return series.FillColor
	}
	return s.Color(i)
}

func rangeColor(r Range, s Styling) string {
	switch {
	case r.Total:
		return s.TotalColor
	case r.Increase:
		return s.IncreaseColor
	default:
		return s.DecreaseColor
	}
}

func stackTotals(series []SeriesConfig, n int) []float64 {
	totals := make([]float64, n)
	for _, s := range series {
		for i := 0; i < n && i < len(s.Data); i++ {
			totals[i] += s.Data[i]
		}
	}
	return totals
}

// fit pads or truncates values to n entries and zeroes non-finite values.
func fit(values []float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(values); i++ {
		out[i] = finite(values[i])
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finiteRange(r Range) Range {
	r.Start = finite(r.Start)
	r.End = finite(r.End)
	r.Change = finite(r.Change)
	r.Cumulative = finite(r.Cumulative)
	if r.Start > r.End {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

func repeatInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
