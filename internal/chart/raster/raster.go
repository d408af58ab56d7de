// Package raster draws chart plans as PNG images with gonum/plot for
// clients that cannot display HTML or SVG.
package raster

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/boardsmith/chartsmith/internal/chart"
)

// ErrEmpty is returned when a plan has no categories or no series to draw.
var ErrEmpty = errors.New("raster: nothing to draw")

// Options sizes the image.
type Options struct {
	Width  vg.Length
	Height vg.Length
}

// Defaults for rendered images.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Render writes plan to w as a PNG.
func Render(w io.Writer, p chart.Plan, opts Options) error {
	d := p.Derivation
	if len(d.Categories) == 0 || len(d.Series) == 0 {
		return ErrEmpty
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	style := p.Styling
	pl := plot.New()
	pl.Title.Text = style.Title
	pl.X.Label.Text = style.XAxisTitle
	pl.Y.Label.Text = style.YAxisTitle
	pl.BackgroundColor = parseColor(style.BackgroundColor, color.White)
	pl.Legend.Top = true

	var err error
	switch p.Archetype {
	case chart.Waterfall:
		err = addWaterfall(pl, p, opts)
	case chart.Stacked, chart.Stacked100:
		err = addStacked(pl, p, opts)
	case chart.Line, chart.Area, chart.Area100:
		err = addTraces(pl, p)
	default:
		err = addGrouped(pl, p, opts)
	}
	if err != nil {
		return fmt.Errorf("raster: %s: %w", p.Archetype, err)
	}
	pl.Add(plotter.NewGrid())

	n := float64(len(d.Categories))
	category, value := &pl.X, &pl.Y
	if p.Layout.Horizontal {
		category, value = &pl.Y, &pl.X
		pl.NominalY(d.Categories...)
	} else {
		pl.NominalX(d.Categories...)
	}
	category.Min, category.Max = -0.5, n-0.5
	if p.Archetype.IsPercent() && style.CapPercentAxis {
		value.Min, value.Max = 0, 100
	}

	wt, err := pl.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("raster: writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("raster: write png: %w", err)
	}
	return nil
}

// addGrouped draws clustered bars side by side; line series of a
// combination are drawn over them.
func addGrouped(pl *plot.Plot, p chart.Plan, opts Options) error {
	d := p.Derivation
	n := len(d.Categories)
	var grouped []int
	for s, series := range d.Series {
		if series.Kind != chart.SeriesLine {
			grouped = append(grouped, s)
		}
	}
	width := barWidth(opts, n, len(grouped))
	for slot, s := range grouped {
		series := d.Series[s]
		b, err := plotter.NewBarChart(plotter.Values(padded(series.Values, n)), width)
		if err != nil {
			return err
		}
		b.Color = parseColor(p.Styling.Color(s), color.Black)
		b.LineStyle.Width = 0
		b.Horizontal = p.Layout.Horizontal
		b.Offset = vg.Length(float64(slot)-float64(len(grouped)-1)/2) * width
		pl.Add(b)
		legend(pl, p, series.Name, b)
	}
	for s, series := range d.Series {
		if series.Kind != chart.SeriesLine {
			continue
		}
		l, err := line(padded(series.Values, n), parseColor(p.Styling.Color(s), color.Black))
		if err != nil {
			return err
		}
		pl.Add(l)
		legend(pl, p, series.Name, l)
	}
	return nil
}

// addStacked stacks positive amounts; negative amounts are clipped to zero.
func addStacked(pl *plot.Plot, p chart.Plan, opts Options) error {
	d := p.Derivation
	n := len(d.Categories)
	values := make([][]float64, len(d.Series))
	for s, series := range d.Series {
		values[s] = padded(series.Values, n)
		for i, v := range values[s] {
			values[s][i] = math.Max(v, 0)
		}
	}
	if p.Archetype == chart.Stacked100 {
		values = shares(values, n)
	}
	width := barWidth(opts, n, 1)
	var below *plotter.BarChart
	for s, series := range d.Series {
		b, err := plotter.NewBarChart(plotter.Values(values[s]), width)
		if err != nil {
			return err
		}
		b.Color = parseColor(p.Styling.Color(s), color.Black)
		b.LineStyle.Width = 0
		b.Horizontal = p.Layout.Horizontal
		if below != nil {
			b.StackOn(below)
		}
		below = b
		pl.Add(b)
		legend(pl, p, series.Name, b)
	}
	return nil
}

// addWaterfall stacks a transparent base under the visible bar of each
// range so every bar floats between its start and end.
func addWaterfall(pl *plot.Plot, p chart.Plan, opts Options) error {
	ranges := p.Derivation.Ranges()
	n := len(p.Derivation.Categories)
	base := make([]float64, n)
	increase := make([]float64, n)
	decrease := make([]float64, n)
	total := make([]float64, n)
	for i, r := range ranges {
		if i >= n {
			break
		}
		base[i] = r.Start
		height := r.End - r.Start
		switch {
		case r.Total:
			total[i] = height
		case r.Increase:
			increase[i] = height
		default:
			decrease[i] = height
		}
	}

	width := barWidth(opts, n, 1)
	below, err := plotter.NewBarChart(plotter.Values(base), width)
	if err != nil {
		return err
	}
	below.Color = color.Transparent
	below.LineStyle.Width = 0
	pl.Add(below)

	style := p.Styling
	for _, layer := range []struct {
		values []float64
		color  string
	}{
		{increase, style.IncreaseColor},
		{decrease, style.DecreaseColor},
		{total, style.TotalColor},
	} {
		b, err := plotter.NewBarChart(plotter.Values(layer.values), width)
		if err != nil {
			return err
		}
		b.Color = parseColor(layer.color, color.Black)
		b.LineStyle.Width = 0
		b.StackOn(below)
		below = b
		pl.Add(b)
	}
	return nil
}

// addTraces draws line and area series. Area100 bands are cumulative and
// painted top band first so lower bands stay visible.
func addTraces(pl *plot.Plot, p chart.Plan) error {
	d := p.Derivation
	n := len(d.Categories)
	values := make([][]float64, len(d.Series))
	for s, series := range d.Series {
		values[s] = padded(series.Values, n)
	}
	if p.Archetype == chart.Area100 {
		for s := 1; s < len(values); s++ {
			for i := range values[s] {
				values[s][i] += values[s-1][i]
			}
		}
	}

	order := make([]int, len(values))
	for s := range order {
		order[s] = s
		if p.Archetype == chart.Area100 {
			order[s] = len(values) - 1 - s
		}
	}
	for _, s := range order {
		c := parseColor(p.Styling.Color(s), color.Black)
		l, err := line(values[s], c)
		if err != nil {
			return err
		}
		switch p.Archetype {
		case chart.Area:
			l.FillColor = withAlpha(c, 0x60)
		case chart.Area100:
			l.FillColor = c
		}
		pl.Add(l)
		legend(pl, p, d.Series[s].Name, l)
	}
	return nil
}

func line(values []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.Color = c
	l.Width = vg.Points(2)
	return l, nil
}

func legend(pl *plot.Plot, p chart.Plan, name string, thumb plot.Thumbnailer) {
	if p.Styling.ShowLegend {
		pl.Legend.Add(name, thumb)
	}
}

func barWidth(opts Options, categories, slots int) vg.Length {
	if categories < 1 {
		categories = 1
	}
	if slots < 1 {
		slots = 1
	}
	return opts.Width * 0.6 / vg.Length(categories*slots)
}

func padded(values []float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(values); i++ {
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[i] = v
	}
	return out
}

func shares(values [][]float64, n int) [][]float64 {
	out := make([][]float64, len(values))
	for s := range values {
		out[s] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sum := 0.0
		for s := range values {
			sum += values[s][i]
		}
		if sum == 0 {
			continue
		}
		for s := range values {
			out[s][i] = math.Round(values[s][i]/sum*1000) / 10
		}
	}
	return out
}
