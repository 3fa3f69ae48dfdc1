package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testScroll(gain float64, minSpeed int) *ScrollController {
	return NewScrollController(ScrollConfig{
		Region:            Inset(640, 480, 100),
		DeadzoneCenter:    50,
		DeadzoneHalfWidth: 10,
		Gain:              gain,
		MinSpeed:          minSpeed,
	})
}

func TestScrollController_Position(t *testing.T) {
	s := testScroll(0.5, 1)

	assert.Equal(t, 0.0, s.Position(100))
	assert.Equal(t, 100.0, s.Position(380))
	assert.Equal(t, 50.0, s.Position(240))
	assert.Equal(t, 0.0, s.Position(20), "above region clamps to 0")
	assert.Equal(t, 100.0, s.Position(470), "below region clamps to 100")
}

func TestScrollController_Evaluate(t *testing.T) {
	s := testScroll(0.5, 1)

	tests := []struct {
		name  string
		pos   float64
		dir   Direction
		speed int
	}{
		{"center", 50, Deadzone, 0},
		{"lower edge is inside", 40, Deadzone, 0},
		{"upper edge is inside", 60, Deadzone, 0},
		{"seventy percent scrolls down", 70, ScrollDown, 5},
		{"just past the edge uses min speed", 60.5, ScrollDown, 1},
		{"top scrolls up fastest", 0, ScrollUp, 20},
		{"bottom scrolls down fastest", 100, ScrollDown, 20},
		{"thirty percent scrolls up", 30, ScrollUp, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Evaluate(tt.pos)
			assert.Equal(t, tt.dir, got.Direction)
			assert.Equal(t, tt.speed, got.Speed)
			assert.Equal(t, tt.pos, got.Position)
		})
	}
}

func TestScrollController_SpeedFormula(t *testing.T) {
	for _, gain := range []float64{0.2, 0.5, 1.3} {
		s := testScroll(gain, 2)
		got := s.Evaluate(70)
		want := max(2, int(math.Round(10*gain)))
		assert.Equal(t, ScrollDown, got.Direction)
		assert.Equal(t, want, got.Speed, "gain %v", gain)
	}
}

func TestScrollController_Monotonic(t *testing.T) {
	s := testScroll(0.7, 1)

	prev := 0
	for pos := 60.0; pos <= 100; pos += 0.25 {
		speed := s.Evaluate(pos).Speed
		assert.GreaterOrEqual(t, speed, prev, "down speed decreased at %v", pos)
		prev = speed
	}

	prev = 0
	for pos := 40.0; pos >= 0; pos -= 0.25 {
		speed := s.Evaluate(pos).Speed
		assert.GreaterOrEqual(t, speed, prev, "up speed decreased at %v", pos)
		prev = speed
	}
}

func TestScrollDecision_Ticks(t *testing.T) {
	assert.Equal(t, 3, ScrollDecision{Direction: ScrollUp, Speed: 3}.Ticks())
	assert.Equal(t, -4, ScrollDecision{Direction: ScrollDown, Speed: 4}.Ticks())
	assert.Equal(t, 0, ScrollDecision{Direction: Deadzone, Speed: 9}.Ticks())
}
