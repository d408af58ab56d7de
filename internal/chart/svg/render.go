package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/boardsmith/chartsmith/internal/chart"
)

type bar struct {
	category int
	slot     int
	slots    int
	lo, hi   float64
	value    float64
	color    string
	label    string
}

type trace struct {
	name   string
	color  string
	values []float64
	base   []float64
	fill   bool
}

type legendEntry struct {
	name  string
	color string
}

// shapes is a plan reduced to drawable primitives in value space.
type shapes struct {
	bars    []bar
	traces  []trace
	legend  []legendEntry
	percent bool
}

// Render draws plan as a standalone SVG document. Thumbnails always put the
// value axis vertically.
func Render(plan chart.Plan, opts Options) (template.HTML, error) {
	d := plan.Derivation
	if len(d.Categories) == 0 || len(d.Series) == 0 {
		return "", ErrEmpty
	}
	opts = opts.withDefaults()
	style := plan.Styling

	c, err := newCanvas(opts)
	if err != nil {
		return "", err
	}
	sh := shapesFor(plan)
	c.fit(sh)

	title := style.Title
	if strings.TrimSpace(title) == "" {
		title = plan.Archetype.Name() + " chart"
	}
	desc := opts.Description
	if desc == "" {
		desc = fmt.Sprintf("%d categories, %d series", len(d.Categories), len(d.Series))
	}
	titleID := makeID(title, "title")
	descID := makeID(title, "desc")
	text := attr(style.TextColor)

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", opts.Width, opts.Height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(title))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(desc))
	if style.BackgroundColor != "" {
		fmt.Fprintf(&b, "<rect width=\"100%%\" height=\"100%%\" fill=\"%s\"></rect>", attr(style.BackgroundColor))
	}

	for i := 0; i <= opts.TickCount; i++ {
		ratio := float64(i) / float64(opts.TickCount)
		value := c.min + (c.max-c.min)*ratio
		y := c.y(value)
		fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", c.left, y, c.left+c.width, y, attr(style.GridColor))
		if !style.ShowYAxisLabels {
			continue
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", c.left-6, y+4, text, template.HTMLEscapeString(formatTick(value, sh.percent)))
	}

	fmt.Fprintf(&b, "<g stroke=\"%s\" aria-label=\"Axes\">", text)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", c.left, c.top, c.left, c.top+c.height)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", c.left, c.y(0), c.left+c.width, c.y(0))
	b.WriteString("</g>")

	n := len(d.Categories)
	for _, r := range sh.bars {
		x, w := c.slot(r.category, n, r.slot, r.slots)
		top, bottom := c.y(r.hi), c.y(r.lo)
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s\"></rect>",
			x, top, w, math.Max(bottom-top, 0), attr(r.color), template.HTMLEscapeString(r.label), template.HTMLEscapeString(d.Categories[r.category]))
		if style.ShowDataLabels {
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"9\" text-anchor=\"middle\">%s</text>", x+w/2, top-3, text, template.HTMLEscapeString(formatTick(r.value, sh.percent)))
		}
	}

	for _, t := range sh.traces {
		line := c.path(t.values, n)
		if t.fill {
			base := make([]float64, len(t.values))
			if t.base != nil {
				copy(base, t.base)
			}
			fmt.Fprintf(&b, "<path d=\"%s\" fill=\"%s\" fill-opacity=\"0.35\" stroke=\"none\" aria-hidden=\"true\"></path>", c.area(t.values, base, n), attr(t.color))
		}
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" aria-label=\"%s\"></path>", line, attr(t.color), template.HTMLEscapeString(t.name))
		if opts.ShowDots {
			for i, v := range t.values {
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", c.center(i, n), c.y(v), attr(t.color))
			}
		}
	}

	for i, label := range d.Categories {
		if !style.ShowXAxisLabels {
			break
		}
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", c.center(i, n), c.top+c.height+14, text, template.HTMLEscapeString(label))
	}

	if style.ShowLegend {
		x := c.left
		y := math.Max(c.top-12, 12)
		for _, e := range sh.legend {
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", x, y-8, attr(e.color))
			fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", x+14, y, text, template.HTMLEscapeString(e.name))
			x += 24 + 6*float64(len([]rune(e.name)))
		}
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// shapesFor maps each archetype onto bars and traces.
func shapesFor(plan chart.Plan) shapes {
	d := plan.Derivation
	style := plan.Styling
	sh := shapes{percent: plan.Archetype.IsPercent()}

	switch plan.Archetype {
	case chart.Waterfall:
		for i, r := range d.Ranges() {
			color, label := style.DecreaseColor, "Decrease"
			switch {
			case r.Total:
				color, label = style.TotalColor, "Total"
			case r.Increase:
				color, label = style.IncreaseColor, "Increase"
			}
			value := r.Change
			if r.Total {
				value = r.Cumulative
			}
			sh.bars = append(sh.bars, bar{category: i, slots: 1, lo: math.Min(r.Start, r.End), hi: math.Max(r.Start, r.End), value: value, color: color, label: label})
		}
		sh.legend = []legendEntry{{"Increase", style.IncreaseColor}, {"Decrease", style.DecreaseColor}, {"Total", style.TotalColor}}
		return sh
	case chart.Stacked, chart.Stacked100:
		values := seriesValues(d.Series)
		if plan.Archetype == chart.Stacked100 {
			values = shares(values, len(d.Categories))
		}
		pos := make([]float64, len(d.Categories))
		neg := make([]float64, len(d.Categories))
		for s, series := range d.Series {
			color := style.Color(s)
			for i := range d.Categories {
				v := valueAt(values[s], i)
				lo, hi := pos[i], pos[i]+v
				if v < 0 {
					lo, hi = neg[i]+v, neg[i]
					neg[i] += v
				} else {
					pos[i] += v
				}
				sh.bars = append(sh.bars, bar{category: i, slots: 1, lo: lo, hi: hi, value: v, color: color, label: series.Name})
			}
			sh.legend = append(sh.legend, legendEntry{series.Name, color})
		}
		return sh
	case chart.Line, chart.Area:
		for s, series := range d.Series {
			color := style.Color(s)
			sh.traces = append(sh.traces, trace{name: series.Name, color: color, values: padded(series.Values, len(d.Categories)), fill: plan.Archetype == chart.Area})
			sh.legend = append(sh.legend, legendEntry{series.Name, color})
		}
		return sh
	case chart.Area100:
		cumulative := make([]float64, len(d.Categories))
		for s, series := range d.Series {
			color := style.Color(s)
			base := append([]float64(nil), cumulative...)
			for i := range cumulative {
				cumulative[i] += valueAt(series.Values, i)
			}
			sh.traces = append(sh.traces, trace{name: series.Name, color: color, values: append([]float64(nil), cumulative...), base: base, fill: true})
			sh.legend = append(sh.legend, legendEntry{series.Name, color})
		}
		return sh
	}

	// Clustered and the bar half of combinations.
	var grouped []int
	for s, series := range d.Series {
		if series.Kind == chart.SeriesLine {
			continue
		}
		grouped = append(grouped, s)
	}
	for slot, s := range grouped {
		series := d.Series[s]
		color := style.Color(s)
		for i := range d.Categories {
			v := valueAt(series.Values, i)
			sh.bars = append(sh.bars, bar{category: i, slot: slot, slots: len(grouped), lo: math.Min(0, v), hi: math.Max(0, v), value: v, color: color, label: series.Name})
		}
		sh.legend = append(sh.legend, legendEntry{series.Name, color})
	}
	for s, series := range d.Series {
		if series.Kind != chart.SeriesLine {
			continue
		}
		color := style.Color(s)
		sh.traces = append(sh.traces, trace{name: series.Name, color: color, values: padded(series.Values, len(d.Categories))})
		sh.legend = append(sh.legend, legendEntry{series.Name, color})
	}
	return sh
}

func seriesValues(series []chart.DerivedSeries) [][]float64 {
	out := make([][]float64, len(series))
	for s := range series {
		out[s] = series[s].Values
	}
	return out
}

// shares rescales each category to percentages of its sum. Categories that
// sum to zero stay at zero.
func shares(values [][]float64, n int) [][]float64 {
	out := make([][]float64, len(values))
	for s := range values {
		out[s] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sum := 0.0
		for s := range values {
			sum += valueAt(values[s], i)
		}
		if sum == 0 {
			continue
		}
		for s := range values {
			out[s][i] = math.Round(valueAt(values[s], i)/sum*1000) / 10
		}
	}
	return out
}

func padded(values []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, values)
	return out
}

func valueAt(values []float64, i int) float64 {
	if i < len(values) {
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	return 0
}

// attr keeps user supplied colors from breaking out of an attribute.
func attr(s string) string {
	return template.HTMLEscapeString(strings.TrimSpace(s))
}
