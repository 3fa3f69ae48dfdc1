// Package control is the pointer-control state machine: it maps fingertip
// positions to the screen, runs the scroll deadzone controller, and turns one
// classified gesture per frame into at most one pointer action.
package control

import "time"

// Point is a position in pixels. Screen positions are kept fractional while
// smoothing and rounded only when dispatched.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle from (X0,Y0) to (X1,Y1).
type Rect struct {
	X0 float64 `json:"x0" mapstructure:"x0"`
	Y0 float64 `json:"y0" mapstructure:"y0"`
	X1 float64 `json:"x1" mapstructure:"x1"`
	Y1 float64 `json:"y1" mapstructure:"y1"`
}

// Width returns X1-X0.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns Y1-Y0.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Inset returns a camera-frame region with margin pixels removed from every
// side.
func Inset(width, height int, margin float64) Rect {
	return Rect{X0: margin, Y0: margin, X1: float64(width) - margin, Y1: float64(height) - margin}
}

// Size is a screen size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State is the control state carried from one frame to the next. The zero
// value is the startup state. It is owned by the frame loop and passed to
// Dispatcher.Dispatch by value, which returns the next state.
type State struct {
	Cursor          Point
	LastLeftClick   time.Time
	LastRightClick  time.Time
	LastDoubleClick time.Time

	DragActive  bool
	DragAnchor  *Point
	DragSession string
	// DragHeld is true while the button pressed at drag start is down.
	DragHeld bool

	ScrollActive   bool
	ScrollPosition float64
}

// Phase is the activity of a single frame, derived from its gesture.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMoving
	PhaseClicking
	PhaseScrolling
	PhaseDragging
)

var phaseNames = [...]string{"idle", "moving", "clicking", "scrolling", "dragging"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
