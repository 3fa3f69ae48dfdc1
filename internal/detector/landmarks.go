// Package detector provides hand detection interfaces and the landmark types
// consumed by gesture classification.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// TipIDs lists the fingertip landmarks from thumb to pinky.
var TipIDs = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D is a normalized landmark position as reported by MediaPipe.
// X and Y are fractions of the frame size, Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Landmark is one hand point in frame pixel coordinates.
type Landmark struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// BBox is the axis-aligned bounding box of a hand in pixels.
type BBox struct {
	XMin int `json:"xmin"`
	YMin int `json:"ymin"`
	XMax int `json:"xmax"`
	YMax int `json:"ymax"`
}

// Center returns the midpoint of the box.
func (b BBox) Center() (float64, float64) {
	return float64(b.XMin+b.XMax) / 2, float64(b.YMin+b.YMax) / 2
}

// Frame is the per-frame snapshot of a single hand. An empty Frame means no
// hand was detected.
type Frame struct {
	Landmarks []Landmark `json:"landmarks"`
	BBox      *BBox      `json:"bbox,omitempty"`
}

// Complete reports whether the frame carries a full set of landmarks.
func (f Frame) Complete() bool {
	return len(f.Landmarks) >= NumLandmarks
}

// Point returns the pixel position of landmark id. ok is false when the
// frame does not contain it.
func (f Frame) Point(id int) (x, y int, ok bool) {
	if id < 0 || id >= len(f.Landmarks) {
		return 0, 0, false
	}
	lm := f.Landmarks[id]
	return lm.X, lm.Y, true
}

// ToFrame scales normalized landmarks to a width x height image and computes
// the bounding box. Coordinates are truncated toward zero.
func (h HandLandmarks) ToFrame(width, height int) Frame {
	frame := Frame{Landmarks: make([]Landmark, NumLandmarks)}

	for i, p := range h.Points {
		frame.Landmarks[i] = Landmark{
			ID: i,
			X:  int(p.X * float64(width)),
			Y:  int(p.Y * float64(height)),
		}
	}

	frame.BBox = boundingBox(frame.Landmarks)
	return frame
}

// NewFrame builds a Frame from pixel landmarks, deriving the bounding box.
func NewFrame(landmarks []Landmark) Frame {
	return Frame{Landmarks: landmarks, BBox: boundingBox(landmarks)}
}

func boundingBox(landmarks []Landmark) *BBox {
	if len(landmarks) == 0 {
		return nil
	}

	box := BBox{
		XMin: landmarks[0].X, XMax: landmarks[0].X,
		YMin: landmarks[0].Y, YMax: landmarks[0].Y,
	}
	for _, lm := range landmarks[1:] {
		box.XMin = min(box.XMin, lm.X)
		box.XMax = max(box.XMax, lm.X)
		box.YMin = min(box.YMin, lm.Y)
		box.YMax = max(box.YMax, lm.Y)
	}
	return &box
}
