// Package resize models a drag-resize gesture as a pure state machine.
// Pointer-event plumbing stays in the host; this package turns a stream
// of (deltaX, elapsed) samples into throttled size rewrites with a
// guaranteed final flush.
package resize

import "time"

// State of a gesture.
type State int

const (
	Idle State = iota
	Dragging
)

// Config is passed explicitly into each gesture; there is no package
// state.
type Config struct {
	// Interval is the minimum wall-clock gap between intermediate
	// rewrites within one gesture.
	Interval time.Duration
	// SnapStep rounds computed widths to its multiple when positive.
	SnapStep int
	// MinWidth floors the computed width when positive.
	MinWidth int
}

// Size is a computed pixel size. Height 0 means keep aspect ratio.
type Size struct {
	Width  int
	Height int
}

// ComputeWidth derives the new width for a horizontal drag. It is a
// pure function of the gesture's start geometry and the pointer delta.
func ComputeWidth(startWidth, deltaX int, cfg Config) int {
	w := startWidth + deltaX
	if cfg.SnapStep > 1 {
		w = (w / cfg.SnapStep) * cfg.SnapStep
	}
	min := cfg.MinWidth
	if min <= 0 {
		min = 1
	}
	if w < min {
		w = min
	}
	return w
}

// Gesture tracks one drag from pointer-down to pointer-up.
type Gesture struct {
	cfg         Config
	state       State
	startWidth  int
	startHeight int
	keepHeight  bool
	lastEmit    time.Time
}

// NewGesture creates an idle gesture with the given tuning.
func NewGesture(cfg Config) *Gesture {
	return &Gesture{cfg: cfg}
}

// State returns the gesture's current state.
func (g *Gesture) State() State { return g.state }

// Begin transitions idle to dragging, capturing the start geometry.
// keepHeight preserves an explicit height through the resize; false
// drops it so the result derives from aspect ratio.
func (g *Gesture) Begin(startWidth, startHeight int, keepHeight bool, now time.Time) {
	g.state = Dragging
	g.startWidth = startWidth
	g.startHeight = startHeight
	g.keepHeight = keepHeight
	g.lastEmit = time.Time{}
}

// Move processes a pointer move. It returns the size to write and true
// when a rewrite should happen now; intermediate moves inside the
// throttle interval return false. Out-of-order application would
// corrupt spans, so callers apply returned sizes in call order.
func (g *Gesture) Move(deltaX int, now time.Time) (Size, bool) {
	if g.state != Dragging {
		return Size{}, false
	}
	size := g.sizeFor(deltaX)

	if !g.lastEmit.IsZero() && now.Sub(g.lastEmit) < g.cfg.Interval {
		return Size{}, false
	}
	g.lastEmit = now
	return size, true
}

// End transitions dragging → idle and returns the final size. The final
// rewrite is never dropped by the throttle: ok is true whenever the
// gesture was dragging, superseding any throttled intermediate value.
func (g *Gesture) End(deltaX int, now time.Time) (Size, bool) {
	if g.state != Dragging {
		return Size{}, false
	}
	g.state = Idle
	return g.sizeFor(deltaX), true
}

// Cancel abandons the gesture without a final rewrite.
func (g *Gesture) Cancel() { g.state = Idle }

func (g *Gesture) sizeFor(deltaX int) Size {
	w := ComputeWidth(g.startWidth, deltaX, g.cfg)
	s := Size{Width: w}
	if g.keepHeight && g.startHeight > 0 && g.startWidth > 0 {
		// Scale the explicit height with the width.
		s.Height = g.startHeight * w / g.startWidth
	}
	return s
}
