package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RenderConfig is the renderer-ready chart description. Its JSON form
// follows the ApexCharts options layout so the editor can feed it to the
// chart component unchanged.
type RenderConfig struct {
	Chart       ChartOptions     `json:"chart"`
	Series      []SeriesConfig   `json:"series"`
	Colors      []string         `json:"colors"`
	PlotOptions PlotOptions      `json:"plotOptions"`
	XAxis       XAxisConfig      `json:"xaxis"`
	YAxis       YAxisConfig      `json:"yaxis"`
	Legend      LegendConfig     `json:"legend"`
	DataLabels  DataLabelsConfig `json:"dataLabels"`
	Stroke      *StrokeConfig    `json:"stroke,omitempty"`
	Markers     *MarkersConfig   `json:"markers,omitempty"`
	Fill        *FillConfig      `json:"fill,omitempty"`
	Grid        GridConfig       `json:"grid"`
	Title       TextConfig       `json:"title"`
	Subtitle    TextConfig       `json:"subtitle"`
	Meta        Meta             `json:"meta"`
}

// Categories returns the category labels in axis order.
func (c RenderConfig) Categories() []string { return c.XAxis.Categories }

// ChartOptions is the top-level "chart" block.
type ChartOptions struct {
	Type       string `json:"type"`
	Height     int    `json:"height"`
	Stacked    bool   `json:"stacked"`
	StackType  string `json:"stackType,omitempty"`
	FontFamily string `json:"fontFamily,omitempty"`
	Foreground string `json:"foreColor,omitempty"`
	Background string `json:"background,omitempty"`
	Toolbar    Toggle `json:"toolbar"`
}

// Toggle is an {"show": bool} block.
type Toggle struct {
	Show bool `json:"show"`
}

// SeriesConfig is one plotted series. Data holds plain numbers; Points
// holds range bars. Exactly one is used per series.
type SeriesConfig struct {
	Name   string
	Type   string
	Data   []float64
	Points []RangePoint
}

type seriesJSON struct {
	Name string          `json:"name"`
	Type string          `json:"type,omitempty"`
	Data json.RawMessage `json:"data"`
}

// Len returns the number of data points.
func (s SeriesConfig) Len() int {
	if s.Points != nil {
		return len(s.Points)
	}
	return len(s.Data)
}

// MarshalJSON writes the series with a "data" array of numbers or points.
func (s SeriesConfig) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case s.Points != nil:
		data, err = json.Marshal(s.Points)
	case s.Data != nil:
		data, err = json.Marshal(s.Data)
	default:
		data = []byte("[]")
	}
	if err != nil {
		return nil, fmt.Errorf("chart: encode series %q: %w", s.Name, err)
	}
	return json.Marshal(seriesJSON{Name: s.Name, Type: s.Type, Data: data})
}

// UnmarshalJSON restores a series written by MarshalJSON.
func (s *SeriesConfig) UnmarshalJSON(b []byte) error {
	var raw seriesJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = SeriesConfig{Name: raw.Name, Type: raw.Type}
	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var numbers []float64
	if err := json.Unmarshal(data, &numbers); err == nil {
		s.Data = numbers
		return nil
	}
	var points []RangePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("chart: decode series %q: %w", raw.Name, err)
	}
	s.Points = points
	return nil
}

// RangePoint is one floating bar of a range series.
type RangePoint struct {
	X         string     `json:"x"`
	Y         [2]float64 `json:"y"`
	FillColor string     `json:"fillColor,omitempty"`
	Change    float64    `json:"change"`
	Label     string     `json:"label"`
	Total     bool       `json:"total,omitempty"`
}

// PlotOptions carries bar-specific options.
type PlotOptions struct {
	Bar *BarOptions `json:"bar,omitempty"`
}

// BarOptions is plotOptions.bar.
type BarOptions struct {
	Horizontal   bool           `json:"horizontal"`
	ColumnWidth  string         `json:"columnWidth,omitempty"`
	BorderRadius int            `json:"borderRadius,omitempty"`
	DataLabels   *BarDataLabels `json:"dataLabels,omitempty"`
}

// BarDataLabels is plotOptions.bar.dataLabels.
type BarDataLabels struct {
	Position string       `json:"position,omitempty"`
	Total    *TotalLabels `json:"total,omitempty"`
}

// TotalLabels turns on the per-category stack total label.
type TotalLabels struct {
	Enabled bool        `json:"enabled"`
	Style   *LabelStyle `json:"style,omitempty"`
}

// LabelStyle is a shared font block.
type LabelStyle struct {
	Colors     []string `json:"colors,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty"`
	FontSize   string   `json:"fontSize,omitempty"`
	FontWeight int      `json:"fontWeight,omitempty"`
}

// AxisTitle is an axis caption.
type AxisTitle struct {
	Text  string      `json:"text,omitempty"`
	Style *LabelStyle `json:"style,omitempty"`
}

// AxisLabels controls tick labels.
type AxisLabels struct {
	Show   bool       `json:"show"`
	Suffix string     `json:"suffix,omitempty"`
	Style  LabelStyle `json:"style"`
}

// XAxisConfig is the category axis. Horizontal bar charts still list their
// categories here.
type XAxisConfig struct {
	Categories []string   `json:"categories"`
	Title      AxisTitle  `json:"title"`
	Labels     AxisLabels `json:"labels"`
	Max        *float64   `json:"max,omitempty"`
}

// YAxisConfig is the value axis.
type YAxisConfig struct {
	Title  AxisTitle  `json:"title"`
	Labels AxisLabels `json:"labels"`
	Min    *float64   `json:"min,omitempty"`
	Max    *float64   `json:"max,omitempty"`
}

// LegendConfig is the "legend" block.
type LegendConfig struct {
	Show       bool       `json:"show"`
	Position   string     `json:"position"`
	FontFamily string     `json:"fontFamily,omitempty"`
	Labels     LabelStyle `json:"labels"`
}

// DataLabelsConfig is the "dataLabels" block.
type DataLabelsConfig struct {
	Enabled         bool        `json:"enabled"`
	EnabledOnSeries []int       `json:"enabledOnSeries,omitempty"`
	Style           *LabelStyle `json:"style,omitempty"`
}

// StrokeConfig sets line curvature and per-series width.
type StrokeConfig struct {
	Curve string `json:"curve,omitempty"`
	Width []int  `json:"width"`
}

// MarkersConfig sets point markers on lines.
type MarkersConfig struct {
	Size  int         `json:"size"`
	Hover MarkerHover `json:"hover"`
}

// MarkerHover is markers.hover.
type MarkerHover struct {
	Size int `json:"size"`
}

// FillConfig sets area fills and per-series opacity.
type FillConfig struct {
	Type     string    `json:"type,omitempty"`
	Opacity  []float64 `json:"opacity,omitempty"`
	Gradient *Gradient `json:"gradient,omitempty"`
}

// Gradient is fill.gradient.
type Gradient struct {
	ShadeIntensity float64 `json:"shadeIntensity"`
	OpacityFrom    float64 `json:"opacityFrom"`
	OpacityTo      float64 `json:"opacityTo"`
}

// GridConfig is the "grid" block.
type GridConfig struct {
	BorderColor string `json:"borderColor,omitempty"`
}

// TextConfig is a title or subtitle.
type TextConfig struct {
	Text  string      `json:"text,omitempty"`
	Align string      `json:"align,omitempty"`
	Style *LabelStyle `json:"style,omitempty"`
}

// Meta carries facts the editor and alternate renderers need that have no
// ApexCharts option of their own.
type Meta struct {
	Archetype        Archetype     `json:"archetype"`
	Orientation      Orientation   `json:"orientation"`
	Horizontal       bool          `json:"horizontal"`
	PercentAxis      bool          `json:"percentAxis"`
	WaterfallMode    WaterfallMode `json:"waterfallMode,omitempty"`
	Source           string        `json:"source,omitempty"`
	Empty            bool          `json:"empty"`
	StackTotals      []float64     `json:"stackTotals,omitempty"`
	StackTotalLabels []string      `json:"stackTotalLabels,omitempty"`
	// WaterfallLabels holds one signed label per category for stacked
	// waterfalls, whose series only carry unsigned heights.
	WaterfallLabels []string `json:"waterfallLabels,omitempty"`
}
