package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Reference detection region the default thresholds are tuned for: a
// 640x480 camera frame with a 100px margin on every side.
const (
	ReferenceRegionWidth  = 440.0
	ReferenceRegionHeight = 280.0
)

// Thresholds are the tip-distance limits, in pixels, for each gesture.
type Thresholds struct {
	LeftClick   float64 `mapstructure:"leftClick"`
	RightClick  float64 `mapstructure:"rightClick"`
	DoubleClick float64 `mapstructure:"doubleClick"`
	ScrollMin   float64 `mapstructure:"scrollMin"`
	ScrollMax   float64 `mapstructure:"scrollMax"`
	Drag        float64 `mapstructure:"drag"`
}

// DefaultThresholds returns limits for the reference region.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LeftClick:   25,
		RightClick:  40,
		DoubleClick: 30,
		ScrollMin:   35,
		ScrollMax:   75,
		Drag:        35,
	}
}

// RegionScale is the factor that carries reference-region thresholds over to
// a detection region of the given size, by the ratio of areas.
func RegionScale(width, height float64) float64 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return math.Sqrt(width * height / (ReferenceRegionWidth * ReferenceRegionHeight))
}

// Scale multiplies every limit by factor.
func (t Thresholds) Scale(factor float64) Thresholds {
	return Thresholds{
		LeftClick:   t.LeftClick * factor,
		RightClick:  t.RightClick * factor,
		DoubleClick: t.DoubleClick * factor,
		ScrollMin:   t.ScrollMin * factor,
		ScrollMax:   t.ScrollMax * factor,
		Drag:        t.Drag * factor,
	}
}

// Rule pairs a gesture with the predicate that selects it.
type Rule struct {
	Kind  Kind
	Match func(f FingerState, d Distances, t Thresholds) bool
}

// DefaultRules returns the gesture rules in priority order. The first rule
// that matches wins; the scroll band starts above the left click limit so
// the two never overlap.
func DefaultRules() []Rule {
	return []Rule{
		{Move, func(f FingerState, _ Distances, _ Thresholds) bool {
			return f.Up(Index) && f.Down(Middle, Thumb)
		}},
		{LeftClick, func(f FingerState, d Distances, t Thresholds) bool {
			return f.Up(Index, Middle) && f.Down(Thumb, Ring) && d.IndexMiddle < t.LeftClick
		}},
		{RightClick, func(f FingerState, d Distances, t Thresholds) bool {
			return f.Up(Thumb, Middle) && d.ThumbMiddle < t.RightClick
		}},
		{DoubleClick, func(f FingerState, d Distances, t Thresholds) bool {
			return f.Up(Index, Middle, Ring) &&
				d.IndexMiddle < t.DoubleClick && d.IndexRing < t.DoubleClick && d.MiddleRing < t.DoubleClick
		}},
		{Scroll, func(f FingerState, d Distances, t Thresholds) bool {
			return f.Up(Index, Middle) && f.Down(Thumb, Ring) &&
				d.IndexMiddle > t.ScrollMin && d.IndexMiddle < t.ScrollMax
		}},
		{Drag, func(f FingerState, d Distances, t Thresholds) bool {
			return f.Up(Index, Thumb) && d.ThumbIndex < t.Drag
		}},
	}
}

// Classifier maps finger states and distances to a gesture. It holds no
// per-frame state, so the same input always yields the same gesture.
type Classifier struct {
	rules      []Rule
	thresholds Thresholds
}

// NewClassifier creates a classifier using the default rules and the given
// (already scaled) thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{rules: DefaultRules(), thresholds: t}
}

// Thresholds returns the limits the classifier applies.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Rules returns the ordered rule list.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify returns the first gesture whose rule matches, or Idle.
func (c *Classifier) Classify(f FingerState, d Distances) Kind {
	for _, r := range c.rules {
		if r.Match(f, d, c.thresholds) {
			return r.Kind
		}
	}
	return Idle
}

// Reading is the full result of classifying one frame.
type Reading struct {
	Fingers     FingerState
	Distances   Distances
	Gesture     Kind
	HandPresent bool
}

// ClassifyFrame extracts and classifies a frame. Frames without a complete
// hand classify as Idle with HandPresent false.
func (c *Classifier) ClassifyFrame(frame detector.Frame) Reading {
	f, d, ok := Extract(frame)
	if !ok {
		return Reading{Gesture: Idle}
	}
	return Reading{
		Fingers:     f,
		Distances:   d,
		Gesture:     c.Classify(f, d),
		HandPresent: true,
	}
}
