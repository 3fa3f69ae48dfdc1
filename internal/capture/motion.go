package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	// BlurKernel is the Gaussian kernel size applied before differencing.
	BlurKernel = 21
	// PixelDelta is the grey-level change that counts a pixel as changed.
	PixelDelta = 25
)

// Motion is the result of comparing a frame with its predecessor.
type Motion struct {
	Detected bool
	// Changed is the percentage of pixels that changed, 0..100.
	Changed float64
}

// MotionDetector compares consecutive frames. It only paces the capture
// rate; hand detection runs on every frame regardless.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
	primed    bool
}

// NewMotionDetector reports motion when more than threshold percent of the
// pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, baseline: gocv.NewMat()}
}

// Detect compares frame with the previous one and keeps it as the new
// baseline. The first frame after creation or Reset never reports motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	blurred := greyBlur(frame)
	defer blurred.Close()

	if !m.primed || m.baseline.Empty() {
		blurred.CopyTo(&m.baseline)
		m.primed = true
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.baseline, &diff)
	gocv.Threshold(diff, &diff, PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	blurred.CopyTo(&m.baseline)

	return Motion{Detected: changed > m.threshold, Changed: changed}
}

// greyBlur returns a blurred single-channel copy of frame.
func greyBlur(frame *gocv.Mat) gocv.Mat {
	grey := gocv.NewMat()
	defer grey.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &grey, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&grey)
	}

	out := gocv.NewMat()
	gocv.GaussianBlur(grey, &out, image.Pt(BlurKernel, BlurKernel), 0, 0, gocv.BorderDefault)
	return out
}

// Reset drops the baseline so the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline. The detector stays usable.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.baseline.Empty() {
		m.baseline.Close()
		m.baseline = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold changes the motion threshold. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Threshold returns the current motion threshold.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}
