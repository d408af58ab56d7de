// Package svg draws static SVG thumbnails of chart plans for exports and
// previews where no JavaScript runtime is available.
package svg

import "errors"

// ErrEmpty is returned when a plan has no categories or no series to draw.
var ErrEmpty = errors.New("svg: nothing to draw")

// Options customises the thumbnail.
type Options struct {
	Width       int
	Height      int
	Padding     float64
	TickCount   int
	Description string
	ShowDots    bool
}

// Defaults for thumbnails.
const (
	DefaultWidth   = 720
	DefaultHeight  = 360
	DefaultPadding = 36.0
	DefaultTicks   = 5
)

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.TickCount <= 0 {
		o.TickCount = DefaultTicks
	}
	return o
}
