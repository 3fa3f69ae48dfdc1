package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	queue [][]HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by Detect once the queue is drained.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends per-call results. Each Detect consumes one entry; a nil
// entry means no hand in that frame.
func (m *MockDetector) Queue(results ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued result, the pre-configured hands, or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger column positions and joint heights for synthetic hands, in
// normalized image coordinates. The thumb extends toward +X, so it reads as
// up when its tip passes the index MCP.
var (
	fingerColumns = [5]float64{0, 0.50, 0.46, 0.42, 0.38}
	extendedY     = [4]float64{0.62, 0.52, 0.45, 0.38} // MCP, PIP, DIP, TIP
	curledY       = [4]float64{0.62, 0.55, 0.60, 0.64}
)

// SyntheticHand builds a right hand whose fingers are extended according to
// up (thumb..pinky). Distances between tips are those of a relaxed hand;
// presets below move individual tips to hit specific gestures.
func SyntheticHand(up [5]bool) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.76}
	h.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.72}
	if up[0] {
		h.Points[ThumbIP] = Point3D{X: 0.62, Y: 0.68}
		h.Points[ThumbTip] = Point3D{X: 0.66, Y: 0.64}
	} else {
		h.Points[ThumbIP] = Point3D{X: 0.54, Y: 0.68}
		h.Points[ThumbTip] = Point3D{X: 0.48, Y: 0.70}
	}

	for finger := 1; finger < 5; finger++ {
		ys := curledY
		if up[finger] {
			ys = extendedY
		}
		base := TipIDs[finger] - 3
		for j := 0; j < 4; j++ {
			h.Points[base+j] = Point3D{X: fingerColumns[finger], Y: ys[j]}
		}
	}

	return h
}

// PointingLandmarks returns a hand with only the index finger extended.
func PointingLandmarks() HandLandmarks {
	return SyntheticHand([5]bool{false, true, false, false, false})
}

// ClickLandmarks returns index and middle extended with the tips pressed
// together (15px apart at 640x480).
func ClickLandmarks() HandLandmarks {
	h := SyntheticHand([5]bool{false, true, true, false, false})
	h.Points[MiddleTip].X = h.Points[IndexTip].X - 15.0/640
	return h
}

// ScrollLandmarks returns index and middle extended 50px apart at 640x480.
func ScrollLandmarks() HandLandmarks {
	h := SyntheticHand([5]bool{false, true, true, false, false})
	h.Points[MiddleTip].X = h.Points[IndexTip].X - 50.0/640
	return h
}

// PinchLandmarks returns thumb and index extended with the thumb tip held
// next to the index tip, the drag gesture.
func PinchLandmarks() HandLandmarks {
	h := SyntheticHand([5]bool{true, true, false, false, false})
	h.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.40}
	return h
}

// OpenPalmLandmarks returns a hand with every finger extended.
func OpenPalmLandmarks() HandLandmarks {
	return SyntheticHand([5]bool{true, true, true, true, true})
}

// FistLandmarks returns a hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return SyntheticHand([5]bool{})
}
