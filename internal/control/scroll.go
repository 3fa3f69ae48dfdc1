package control

import "math"

// Direction is the outcome of evaluating a scroll position.
type Direction int

const (
	Deadzone Direction = iota
	ScrollUp
	ScrollDown
)

func (d Direction) String() string {
	switch d {
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	default:
		return "deadzone"
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ScrollConfig configures the scroll controller. Positions are percentages.
type ScrollConfig struct {
	Region            Rect
	DeadzoneCenter    float64
	DeadzoneHalfWidth float64
	Gain              float64
	MinSpeed          int
}

// ScrollDecision is the controller's output for one frame.
type ScrollDecision struct {
	Direction Direction `json:"direction"`
	Speed     int       `json:"speed"`
	Position  float64   `json:"position"`
}

// Ticks is the signed wheel amount: positive scrolls up.
func (d ScrollDecision) Ticks() int {
	switch d.Direction {
	case ScrollUp:
		return d.Speed
	case ScrollDown:
		return -d.Speed
	default:
		return 0
	}
}

// ScrollController turns the hand's height in the detection region into an
// analog scroll speed. The top of the region scrolls up fastest, the bottom
// scrolls down fastest, and a band around the center does nothing.
type ScrollController struct {
	cfg ScrollConfig
}

// NewScrollController returns a controller for cfg.
func NewScrollController(cfg ScrollConfig) *ScrollController {
	return &ScrollController{cfg: cfg}
}

// Position maps a vertical pixel position to 0..100, clamped.
func (s *ScrollController) Position(y float64) float64 {
	pos := interp(y, s.cfg.Region.Y0, s.cfg.Region.Y1, 0, 100)
	return math.Min(100, math.Max(0, pos))
}

// Evaluate decides the scroll action for a position. Positions on the
// deadzone edges are inside it.
func (s *ScrollController) Evaluate(pos float64) ScrollDecision {
	lo := s.cfg.DeadzoneCenter - s.cfg.DeadzoneHalfWidth
	hi := s.cfg.DeadzoneCenter + s.cfg.DeadzoneHalfWidth

	switch {
	case pos < lo:
		return ScrollDecision{Direction: ScrollUp, Speed: s.speed(lo - pos), Position: pos}
	case pos > hi:
		return ScrollDecision{Direction: ScrollDown, Speed: s.speed(pos - hi), Position: pos}
	default:
		return ScrollDecision{Direction: Deadzone, Position: pos}
	}
}

func (s *ScrollController) speed(distance float64) int {
	return max(s.cfg.MinSpeed, int(math.Round(distance*s.cfg.Gain)))
}
