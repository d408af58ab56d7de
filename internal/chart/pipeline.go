package chart

import "strings"

// Request is a fully resolved chart build: raw rows plus every option the
// pipeline stages need.
type Request struct {
	Kind        string
	Subkind     string
	Orientation string
	Rows        []RawRow
	Styling     Styling
	Normalize   NormalizeOptions
	Derive      DeriveOptions
}

// Plan holds the intermediate result of every pipeline stage so alternate
// renderers can draw from the derived series directly.
type Plan struct {
	Dataset     Dataset
	Archetype   Archetype
	Orientation Orientation
	Layout      Layout
	Derivation  Derivation
	Styling     Styling
}

// Prepare runs Normalize, Classify and Derive.
func Prepare(req Request) Plan {
	ds := Normalize(req.Rows, req.Normalize)
	archetype := Classify(req.Kind, req.Subkind)
	orientation := ParseOrientation(req.Orientation)
	if !archetype.HasOrientations() {
		orientation = OrientationTop
	}
	return Plan{
		Dataset:     ds,
		Archetype:   archetype,
		Orientation: orientation,
		Layout:      ResolveLayout(archetype, orientation),
		Derivation:  Derive(ds, archetype, req.Derive),
		Styling:     req.Styling.withDefaults(),
	}
}

// Config assembles the plan into a RenderConfig.
func (p Plan) Config() RenderConfig {
	return Assemble(p.Derivation, p.Layout, p.Styling)
}

// Build runs the whole pipeline. It never fails: unknown kinds fall back
// to the default archetype and empty data yields an empty configuration.
func Build(req Request) RenderConfig {
	return Prepare(req).Config()
}

// Limits caps the grid size accepted by the pipeline.
type Limits struct {
	MaxRows    int
	MaxColumns int
}

// BuildRequest is the wire form of a chart build as sent by the editor.
// Pointer fields distinguish "not set" from false so theme defaults apply.
type BuildRequest struct {
	Kind        string       `json:"kind" validate:"max=32"`
	Subkind     string       `json:"subkind,omitempty" validate:"max=32"`
	Orientation string       `json:"orientation,omitempty" validate:"max=32"`
	Theme       string       `json:"theme,omitempty" validate:"max=64"`
	Rows        []RawRow     `json:"rows" validate:"max=10000"`
	Styling     StylingInput `json:"styling"`
	Options     OptionsInput `json:"options"`
}

// StylingInput overrides theme styling field by field.
type StylingInput struct {
	Palette         []string `json:"palette,omitempty" validate:"max=32,dive,max=64"`
	FontFamily      string   `json:"fontFamily,omitempty" validate:"max=128"`
	ShowLegend      *bool    `json:"showLegend,omitempty"`
	LegendPosition  string   `json:"legendPosition,omitempty" validate:"max=32"`
	ShowDataLabels  *bool    `json:"showDataLabels,omitempty"`
	ShowXAxisLabels *bool    `json:"showXAxisLabels,omitempty"`
	ShowYAxisLabels *bool    `json:"showYAxisLabels,omitempty"`
	ShowStackTotals *bool    `json:"showStackTotals,omitempty"`
	CapPercentAxis  *bool    `json:"capPercentAxis,omitempty"`
	Title           string   `json:"title,omitempty" validate:"max=200"`
	Subtitle        string   `json:"subtitle,omitempty" validate:"max=200"`
	Source          string   `json:"source,omitempty" validate:"max=200"`
	XAxisTitle      string   `json:"xAxisTitle,omitempty" validate:"max=100"`
	YAxisTitle      string   `json:"yAxisTitle,omitempty" validate:"max=100"`
	Height          int      `json:"height,omitempty" validate:"omitempty,min=100,max=2000"`
	Locale          string   `json:"locale,omitempty" validate:"max=35"`
}

// OptionsInput names the designated columns and waterfall behaviour.
type OptionsInput struct {
	CategoryKey   string `json:"categoryKey,omitempty" validate:"max=64"`
	ValueColumn   string `json:"valueColumn,omitempty" validate:"max=64"`
	BarsColumn    string `json:"barsColumn,omitempty" validate:"max=64"`
	LineColumn    string `json:"lineColumn,omitempty" validate:"max=64"`
	WaterfallMode string `json:"waterfallMode,omitempty" validate:"max=32"`
	InferTotals   bool   `json:"inferTotals,omitempty"`
}

// Resolve layers the request over the theme's styling.
func (r BuildRequest) Resolve(theme Theme, limits Limits) Request {
	s := theme.Styling()
	in := r.Styling
	if len(in.Palette) > 0 {
		s.Palette = append([]string(nil), in.Palette...)
	}
	s.FontFamily = orDefault(in.FontFamily, s.FontFamily)
	setBool(&s.ShowLegend, in.ShowLegend)
	setBool(&s.ShowDataLabels, in.ShowDataLabels)
	setBool(&s.ShowXAxisLabels, in.ShowXAxisLabels)
	setBool(&s.ShowYAxisLabels, in.ShowYAxisLabels)
	setBool(&s.ShowStackTotals, in.ShowStackTotals)
	setBool(&s.CapPercentAxis, in.CapPercentAxis)
	if strings.TrimSpace(in.LegendPosition) != "" {
		s.LegendPosition = ParseLegendPosition(in.LegendPosition)
	}
	s.Title = strings.TrimSpace(in.Title)
	s.Subtitle = strings.TrimSpace(in.Subtitle)
	s.Source = strings.TrimSpace(in.Source)
	s.XAxisTitle = strings.TrimSpace(in.XAxisTitle)
	s.YAxisTitle = strings.TrimSpace(in.YAxisTitle)
	if in.Height > 0 {
		s.Height = in.Height
	}
	s.Locale = orDefault(in.Locale, s.Locale)

	return Request{
		Kind:        r.Kind,
		Subkind:     r.Subkind,
		Orientation: r.Orientation,
		Rows:        r.Rows,
		Styling:     s,
		Normalize: NormalizeOptions{
			CategoryKey: r.Options.CategoryKey,
			MaxRows:     limits.MaxRows,
			MaxColumns:  limits.MaxColumns,
		},
		Derive: DeriveOptions{
			ValueColumn:   r.Options.ValueColumn,
			BarsColumn:    r.Options.BarsColumn,
			LineColumn:    r.Options.LineColumn,
			WaterfallMode: ParseWaterfallMode(r.Options.WaterfallMode),
			InferTotals:   r.Options.InferTotals,
		},
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
