package svg

import (
	"fmt"
	"math"
	"strings"
)

// canvas maps value space onto the plot area inside the padding.
type canvas struct {
	left, top     float64
	width, height float64
	min, max      float64
}

func newCanvas(opts Options) (canvas, error) {
	c := canvas{
		left:   opts.Padding,
		top:    opts.Padding,
		width:  float64(opts.Width) - 2*opts.Padding,
		height: float64(opts.Height) - 2*opts.Padding,
	}
	if c.width <= 0 || c.height <= 0 {
		return canvas{}, fmt.Errorf("svg: viewport too small")
	}
	c.max = 1
	return c, nil
}

// fit sets the value range to cover every shape and the zero line.
func (c *canvas) fit(sh shapes) {
	minVal, maxVal := 0.0, 0.0
	for _, b := range sh.bars {
		minVal = math.Min(minVal, b.lo)
		maxVal = math.Max(maxVal, b.hi)
	}
	for _, t := range sh.traces {
		for _, v := range t.values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if sh.percent && maxVal <= 100 {
		maxVal = 100
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	c.min, c.max = minVal, maxVal
}

func (c canvas) y(v float64) float64 {
	return c.top + c.height - (v-c.min)/(c.max-c.min)*c.height
}

// slot returns the x and width of bar slot out of slots within category i.
func (c canvas) slot(i, n, slot, slots int) (float64, float64) {
	group := c.width / float64(n)
	if slots <= 0 {
		slots = 1
	}
	inner := group * 0.7
	w := inner / float64(slots)
	return c.left + float64(i)*group + (group-inner)/2 + float64(slot)*w, w
}

func (c canvas) center(i, n int) float64 {
	group := c.width / float64(n)
	return c.left + float64(i)*group + group/2
}

func (c canvas) path(values []float64, n int) string {
	var b strings.Builder
	for i, v := range values {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%.2f %.2f", cmd, c.center(i, n), c.y(v))
	}
	return b.String()
}

// area closes the band between values and base, walking base backwards.
func (c canvas) area(values, base []float64, n int) string {
	var b strings.Builder
	b.WriteString(c.path(values, n))
	for i := len(base) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, " L%.2f %.2f", c.center(i, n), c.y(base[i]))
	}
	b.WriteString(" Z")
	return b.String()
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

func formatTick(v float64, percent bool) string {
	if percent {
		return fmt.Sprintf("%.0f%%", v)
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}
