package control

import "math"

// MapperConfig configures cursor mapping.
type MapperConfig struct {
	// Region is the part of the camera frame mapped onto the whole screen.
	Region Rect
	Screen Size
	// Smoothing divides each step toward the target; 1 disables smoothing.
	Smoothing float64
	// MirrorX reflects the x axis, for cameras that deliver a mirror image.
	MirrorX bool
}

// Mapper converts fingertip positions in the camera frame to smoothed screen
// coordinates.
type Mapper struct {
	cfg MapperConfig
}

// NewMapper returns a Mapper. Smoothing must be positive; config validation
// guarantees that before the mapper is built.
func NewMapper(cfg MapperConfig) *Mapper {
	return &Mapper{cfg: cfg}
}

// Map linearly remaps a camera point from the detection region onto the
// screen. Points outside the region map outside the screen.
func (m *Mapper) Map(raw Point) Point {
	r := m.cfg.Region
	return Point{
		X: interp(raw.X, r.X0, r.X1, 0, float64(m.cfg.Screen.Width)),
		Y: interp(raw.Y, r.Y0, r.Y1, 0, float64(m.cfg.Screen.Height)),
	}
}

// Smooth moves prev a 1/Smoothing step toward target.
func (m *Mapper) Smooth(prev, target Point) Point {
	return Point{
		X: prev.X + (target.X-prev.X)/m.cfg.Smoothing,
		Y: prev.Y + (target.Y-prev.Y)/m.cfg.Smoothing,
	}
}

// Screen converts a smoothed point to integer screen coordinates, applying
// the mirror and clamping to the screen bounds.
func (m *Mapper) Screen(p Point) (int, int) {
	x := p.X
	if m.cfg.MirrorX {
		x = float64(m.cfg.Screen.Width) - x
	}
	return clampInt(x, m.cfg.Screen.Width), clampInt(p.Y, m.cfg.Screen.Height)
}

// Step maps and smooths raw against the previous smoothed position. It
// returns the new smoothed position and the screen coordinates to dispatch.
func (m *Mapper) Step(prev, raw Point) (Point, int, int) {
	smoothed := m.Smooth(prev, m.Map(raw))
	x, y := m.Screen(smoothed)
	return smoothed, x, y
}

func interp(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	return outLo + (v-inLo)*(outHi-outLo)/(inHi-inLo)
}

func clampInt(v float64, size int) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > size-1 {
		return max(size-1, 0)
	}
	return n
}
