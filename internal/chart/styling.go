package chart

import "strings"

// LegendPosition places the legend around the plot.
type LegendPosition string

const (
	LegendTop    LegendPosition = "top"
	LegendBottom LegendPosition = "bottom"
	LegendLeft   LegendPosition = "left"
	LegendRight  LegendPosition = "right"
)

// ParseLegendPosition defaults unknown positions to LegendBottom.
func ParseLegendPosition(s string) LegendPosition {
	switch p := LegendPosition(normalizeKey(s)); p {
	case LegendTop, LegendLeft, LegendRight:
		return p
	default:
		return LegendBottom
	}
}

const (
	defaultHeight     = 350
	defaultFontFamily = "Inter, sans-serif"
	defaultLocale     = "en"
	defaultTextColor  = "#032C28"
	defaultGridColor  = "rgba(206, 233, 231, 0.5)"
	defaultIncrease   = "#0D9488"
	defaultDecrease   = "#E46C44"
	defaultTotal      = "#032C28"
)

var defaultPalette = []string{"#0D9488", "#0A766C", "#053B36", "#032C28", "#55B4AB", "#CEE9E7", "#E6F4F3"}

// Styling is the immutable visual configuration handed to Assemble.
type Styling struct {
	Palette         []string
	FontFamily      string
	TextColor       string
	GridColor       string
	BackgroundColor string
	IncreaseColor   string
	DecreaseColor   string
	TotalColor      string

	ShowLegend      bool
	LegendPosition  LegendPosition
	ShowDataLabels  bool
	ShowXAxisLabels bool
	ShowYAxisLabels bool
	ShowStackTotals bool
	// CapPercentAxis pins percentage axes to 100.
	CapPercentAxis bool

	Title      string
	Subtitle   string
	Source     string
	XAxisTitle string
	YAxisTitle string

	Height int
	Locale string
}

// DefaultStyling is the styling used when neither a theme nor the request
// says otherwise.
func DefaultStyling() Styling {
	return Styling{
		Palette:         append([]string(nil), defaultPalette...),
		FontFamily:      defaultFontFamily,
		TextColor:       defaultTextColor,
		GridColor:       defaultGridColor,
		BackgroundColor: "#ffffff",
		IncreaseColor:   defaultIncrease,
		DecreaseColor:   defaultDecrease,
		TotalColor:      defaultTotal,
		ShowLegend:      true,
		LegendPosition:  LegendBottom,
		ShowXAxisLabels: true,
		ShowYAxisLabels: true,
		CapPercentAxis:  true,
		Height:          defaultHeight,
		Locale:          defaultLocale,
	}
}

// withDefaults fills blank fields so a zero Styling still renders.
// Booleans are left untouched.
func (s Styling) withDefaults() Styling {
	palette := make([]string, 0, len(s.Palette))
	for _, c := range s.Palette {
		if c = strings.TrimSpace(c); c != "" {
			palette = append(palette, c)
		}
	}
	if len(palette) == 0 {
		palette = append(palette, defaultPalette...)
	}
	s.Palette = palette
	s.FontFamily = orDefault(s.FontFamily, defaultFontFamily)
	s.TextColor = orDefault(s.TextColor, defaultTextColor)
	s.GridColor = orDefault(s.GridColor, defaultGridColor)
	s.IncreaseColor = orDefault(s.IncreaseColor, defaultIncrease)
	s.DecreaseColor = orDefault(s.DecreaseColor, defaultDecrease)
	s.TotalColor = orDefault(s.TotalColor, defaultTotal)
	s.LegendPosition = ParseLegendPosition(string(s.LegendPosition))
	s.Locale = orDefault(s.Locale, defaultLocale)
	if s.Height <= 0 {
		s.Height = defaultHeight
	}
	return s
}

// Color returns the palette color for series i, cycling when there are more
// series than colors.
func (s Styling) Color(i int) string {
	palette := s.Palette
	if len(palette) == 0 {
		palette = defaultPalette
	}
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
