package chart

import (
	"math"
	"strings"
)

// SeriesKind marks how a series is drawn in mixed charts.
type SeriesKind string

const (
	SeriesBar  SeriesKind = "bar"
	SeriesLine SeriesKind = "line"
)

// SeriesRole tags the parallel series of a stacked waterfall.
type SeriesRole string

const (
	RoleBase     SeriesRole = "base"
	RoleIncrease SeriesRole = "increase"
	RoleDecrease SeriesRole = "decrease"
	RoleActual   SeriesRole = "actual"
)

// WaterfallMode picks the waterfall series shape.
type WaterfallMode string

const (
	// WaterfallRange emits one series of [start, end] ranges.
	WaterfallRange WaterfallMode = "range"
	// WaterfallStacked emits base/increase/decrease/actual series for
	// renderers without range bars.
	WaterfallStacked WaterfallMode = "stacked"
)

// ParseWaterfallMode defaults unknown values to WaterfallRange.
func ParseWaterfallMode(s string) WaterfallMode {
	if normalizeKey(s) == string(WaterfallStacked) {
		return WaterfallStacked
	}
	return WaterfallRange
}

// Range is one waterfall bar.
type Range struct {
	Start float64
	End   float64
	// Change is the signed amount the bar adds; 0 for total bars.
	Change float64
	// Cumulative is the running total after this bar.
	Cumulative float64
	Increase   bool
	Total      bool
}

// DerivedSeries is the renderer-agnostic output of derivation.
type DerivedSeries struct {
	Name      string
	Values    []float64
	Ranges    []Range
	Kind      SeriesKind
	Role      SeriesRole
	FillColor string
}

// Derivation bundles the derived series with their category labels.
type Derivation struct {
	Archetype     Archetype
	Categories    []string
	Series        []DerivedSeries
	WaterfallMode WaterfallMode
}

// Ranges returns the waterfall ranges carried by the derivation, if any.
func (d Derivation) Ranges() []Range {
	for _, s := range d.Series {
		if s.Ranges != nil {
			return s.Ranges
		}
	}
	return nil
}

// DeriveOptions names the designated columns of the fixed-shape archetypes.
type DeriveOptions struct {
	ValueColumn   string
	BarsColumn    string
	LineColumn    string
	WaterfallMode WaterfallMode
	// InferTotals additionally treats a last row labelled like
	// "Total"/"End"/"Final" as a total bar.
	InferTotals bool
}

func (o DeriveOptions) withDefaults() DeriveOptions {
	if strings.TrimSpace(o.ValueColumn) == "" {
		o.ValueColumn = "value"
	}
	if strings.TrimSpace(o.BarsColumn) == "" {
		o.BarsColumn = "bars"
	}
	if strings.TrimSpace(o.LineColumn) == "" {
		o.LineColumn = "line"
	}
	if o.WaterfallMode == "" {
		o.WaterfallMode = WaterfallRange
	}
	return o
}

// Derive turns a dataset into the series required by the archetype.
// Orientation never changes values; it only swaps axis roles, which
// ResolveLayout handles.
func Derive(ds Dataset, a Archetype, opts DeriveOptions) Derivation {
	opts = opts.withDefaults()
	d := Derivation{
		Archetype:  a,
		Categories: ds.Categories(),
		Series:     []DerivedSeries{},
	}
	switch a {
	case Clustered, Stacked, Stacked100:
		d.Series = passThrough(ds, SeriesBar)
	case Line:
		d.Series = passThrough(ds, SeriesLine)
	case Area:
		d.Series = passThrough(ds, "")
	case Area100:
		d.Series = percentShares(ds)
	case Combination:
		d.Series = combination(ds, opts)
	case Waterfall:
		d.WaterfallMode = opts.WaterfallMode
		ranges := waterfallRanges(ds, opts)
		if opts.WaterfallMode == WaterfallStacked {
			d.Series = StackRanges(ranges)
		} else {
			d.Series = []DerivedSeries{waterfallRangeSeries(ranges)}
		}
	default:
		d.Series = passThrough(ds, SeriesBar)
	}
	return d
}

func passThrough(ds Dataset, kind SeriesKind) []DerivedSeries {
	out := make([]DerivedSeries, 0, len(ds.Series))
	for _, column := range ds.Series {
		out = append(out, DerivedSeries{Name: column, Values: ds.Floats(column), Kind: kind})
	}
	return out
}

// percentShares converts every category into per-series shares rounded to
// one decimal. Categories summing to 0 emit 0 for every series.
func percentShares(ds Dataset) []DerivedSeries {
	raw := make([][]float64, len(ds.Series))
	for s, column := range ds.Series {
		raw[s] = ds.Floats(column)
	}
	out := make([]DerivedSeries, len(ds.Series))
	for s, column := range ds.Series {
		out[s] = DerivedSeries{Name: column, Values: make([]float64, ds.Len()), Kind: ""}
	}
	for i := 0; i < ds.Len(); i++ {
		sum := 0.0
		for s := range raw {
			sum += raw[s][i]
		}
		if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
			continue
		}
		for s := range raw {
			share := math.Round(raw[s][i]/sum*1000) / 10
			if math.IsNaN(share) || math.IsInf(share, 0) {
				share = 0
			}
			out[s].Values[i] = share
		}
	}
	return out
}

func combination(ds Dataset, opts DeriveOptions) []DerivedSeries {
	bars, line := comboColumns(ds, opts)
	return []DerivedSeries{
		{Name: "Bars", Values: floatsOrZero(ds, bars), Kind: SeriesBar},
		{Name: "Line", Values: floatsOrZero(ds, line), Kind: SeriesLine},
	}
}

// comboColumns resolves the designated columns, falling back to the active
// series in order when the designated names are missing.
func comboColumns(ds Dataset, opts DeriveOptions) (string, string) {
	bars, line := "", ""
	if ds.HasColumn(opts.BarsColumn) {
		bars = opts.BarsColumn
	}
	if ds.HasColumn(opts.LineColumn) {
		line = opts.LineColumn
	}
	for _, column := range ds.Series {
		if bars != "" && line != "" {
			break
		}
		if strings.EqualFold(column, bars) || strings.EqualFold(column, line) {
			continue
		}
		if bars == "" {
			bars = column
			continue
		}
		if line == "" {
			line = column
		}
	}
	return bars, line
}

func floatsOrZero(ds Dataset, column string) []float64 {
	if column == "" {
		return make([]float64, ds.Len())
	}
	return ds.Floats(column)
}

func waterfallValueColumn(ds Dataset, opts DeriveOptions) string {
	if ds.HasColumn(opts.ValueColumn) {
		return opts.ValueColumn
	}
	if len(ds.Series) > 0 {
		return ds.Series[0]
	}
	return ""
}

var totalLabelHints = []string{"total", "end", "final"}

func looksLikeTotal(label string) bool {
	label = strings.ToLower(label)
	for _, hint := range totalLabelHints {
		if strings.Contains(label, hint) {
			return true
		}
	}
	return false
}

// waterfallRanges bridges the rows into floating bars. The first row opens
// from 0, later rows move the running total, and rows flagged as totals
// span [0, running total] without moving it.
func waterfallRanges(ds Dataset, opts DeriveOptions) []Range {
	values := floatsOrZero(ds, waterfallValueColumn(ds, opts))
	categories := ds.Categories()
	last := len(values) - 1
	ranges := make([]Range, 0, len(values))
	cumulative := 0.0
	for i, v := range values {
		total := ds.Rows[i].IsTotal || (opts.InferTotals && i == last && i > 0 && looksLikeTotal(categories[i]))
		switch {
		case i == 0:
			cumulative = v
			ranges = append(ranges, Range{
				Start:      math.Min(0, v),
				End:        math.Max(0, v),
				Change:     v,
				Cumulative: cumulative,
				Increase:   v >= 0,
				Total:      true,
			})
		case total:
			ranges = append(ranges, Range{
				Start:      math.Min(0, cumulative),
				End:        math.Max(0, cumulative),
				Cumulative: cumulative,
				Increase:   cumulative >= 0,
				Total:      true,
			})
		default:
			prev := cumulative
			cumulative += v
			ranges = append(ranges, Range{
				Start:      math.Min(prev, cumulative),
				End:        math.Max(prev, cumulative),
				Change:     v,
				Cumulative: cumulative,
				Increase:   v >= 0,
			})
		}
	}
	return ranges
}

func waterfallRangeSeries(ranges []Range) DerivedSeries {
	values := make([]float64, len(ranges))
	for i, r := range ranges {
		if r.Total {
			values[i] = r.Cumulative
			continue
		}
		values[i] = r.Change
	}
	return DerivedSeries{Name: "Waterfall", Values: values, Ranges: ranges, Kind: SeriesBar}
}

// StackRanges spreads waterfall ranges over four parallel series: an
// invisible base, the visible increase and decrease heights, and the
// actual amount used for labels. Totals stack into the increase series;
// the actual series keeps the ranges for renderers that color totals.
func StackRanges(ranges []Range) []DerivedSeries {
	n := len(ranges)
	base := make([]float64, n)
	increase := make([]float64, n)
	decrease := make([]float64, n)
	actual := make([]float64, n)
	for i, r := range ranges {
		height := r.End - r.Start
		base[i] = r.Start
		switch {
		case r.Total:
			increase[i] = height
			actual[i] = r.Cumulative
		case r.Increase:
			increase[i] = height
			actual[i] = r.Change
		default:
			decrease[i] = height
			actual[i] = r.Change
		}
	}
	return []DerivedSeries{
		{Name: "Base", Values: base, Kind: SeriesBar, Role: RoleBase},
		{Name: "Increase", Values: increase, Kind: SeriesBar, Role: RoleIncrease},
		{Name: "Decrease", Values: decrease, Kind: SeriesBar, Role: RoleDecrease},
		{Name: "Actual", Values: actual, Ranges: ranges, Kind: SeriesBar, Role: RoleActual},
	}
}
