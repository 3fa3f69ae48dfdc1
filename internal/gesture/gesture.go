// Package gesture turns hand landmarks into finger states, tip distances and
// a single pointer gesture per frame.
package gesture

// Kind identifies the gesture recognized in a frame.
type Kind int

const (
	Idle Kind = iota
	Move
	LeftClick
	RightClick
	DoubleClick
	Scroll
	Drag
)

var kindNames = [...]string{
	Idle:        "idle",
	Move:        "move",
	LeftClick:   "left_click",
	RightClick:  "right_click",
	DoubleClick: "double_click",
	Scroll:      "scroll",
	Drag:        "drag",
}

// Kinds lists every gesture in classification priority order, Idle last.
var Kinds = []Kind{Move, LeftClick, RightClick, DoubleClick, Scroll, Drag, Idle}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the gesture by name for JSON overlay snapshots.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Finger indexes into FingerState.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerState holds whether each finger is extended, thumb to pinky.
type FingerState [5]bool

// Up reports whether all the given fingers are extended.
func (f FingerState) Up(fingers ...int) bool {
	for _, i := range fingers {
		if !f[i] {
			return false
		}
	}
	return true
}

// Down reports whether all the given fingers are curled.
func (f FingerState) Down(fingers ...int) bool {
	for _, i := range fingers {
		if f[i] {
			return false
		}
	}
	return true
}

// Bits renders the state as 0/1 values, the form shown in the overlay.
func (f FingerState) Bits() [5]int {
	var out [5]int
	for i, up := range f {
		if up {
			out[i] = 1
		}
	}
	return out
}

// Distances are pixel distances between fingertips.
type Distances struct {
	ThumbIndex  float64 `json:"thumb_index"`
	ThumbMiddle float64 `json:"thumb_middle"`
	IndexMiddle float64 `json:"index_middle"`
	IndexRing   float64 `json:"index_ring"`
	MiddleRing  float64 `json:"middle_ring"`
}
