package chart

// Orientation selects vertical or horizontal bars.
type Orientation string

const (
	// OrientationTop draws categories along the x-axis.
	OrientationTop Orientation = "top"
	// OrientationRight draws categories along the y-axis.
	OrientationRight Orientation = "right"
)

// ParseOrientation normalises an editor orientation. Only "right" is
// horizontal; anything else is vertical.
func ParseOrientation(s string) Orientation {
	if normalizeKey(s) == "right" {
		return OrientationRight
	}
	return OrientationTop
}

// Renderer-level chart kinds.
const (
	KindBar      = "bar"
	KindRangeBar = "rangeBar"
	KindLine     = "line"
	KindArea     = "area"
)

// Layout is the renderer-level shape of a chart.
type Layout struct {
	BaseKind     string
	Horizontal   bool
	Stacked      bool
	StackPercent bool
}

// ResolveLayout combines archetype and orientation into renderer flags.
// Only archetypes with orientations honour OrientationRight.
func ResolveLayout(a Archetype, o Orientation) Layout {
	layout := Layout{
		Stacked:      a.IsStacked(),
		StackPercent: a.IsPercent(),
		Horizontal:   a.HasOrientations() && o == OrientationRight,
	}
	switch a {
	case Waterfall:
		layout.BaseKind = KindRangeBar
	case Combination, Line:
		layout.BaseKind = KindLine
	case Area, Area100:
		layout.BaseKind = KindArea
	default:
		layout.BaseKind = KindBar
	}
	return layout
}
