package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Extract derives the finger state and tip distances of a hand frame.
// ok is false when the frame has fewer than 21 landmarks; callers treat that
// as no hand.
//
// The thumb is compared horizontally against the index knuckle since it
// extends sideways. The other fingers are up when the tip sits above the
// joint two ids below it.
func Extract(frame detector.Frame) (state FingerState, dist Distances, ok bool) {
	if !frame.Complete() {
		return state, dist, false
	}
	lm := frame.Landmarks

	state[Thumb] = lm[detector.ThumbTip].X > lm[detector.IndexMCP].X
	for finger := Index; finger <= Pinky; finger++ {
		tip := detector.TipIDs[finger]
		state[finger] = lm[tip].Y < lm[tip-2].Y
	}

	dist = Distances{
		ThumbIndex:  distance(lm[detector.ThumbTip], lm[detector.IndexTip]),
		ThumbMiddle: distance(lm[detector.ThumbTip], lm[detector.MiddleTip]),
		IndexMiddle: distance(lm[detector.IndexTip], lm[detector.MiddleTip]),
		IndexRing:   distance(lm[detector.IndexTip], lm[detector.RingTip]),
		MiddleRing:  distance(lm[detector.MiddleTip], lm[detector.RingTip]),
	}
	return state, dist, true
}

func distance(a, b detector.Landmark) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
