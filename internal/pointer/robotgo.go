package pointer

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// Robot injects events through robotgo. Moves and clicks cannot fail at
// the robotgo API level; press and release report errors from the OS.
type Robot struct{}

// NewRobot returns a robotgo-backed Pointer with no inter-event delay.
func NewRobot() *Robot {
	robotgo.MouseSleep = 0
	return &Robot{}
}

func (r *Robot) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

func (r *Robot) Move(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (r *Robot) Click(b Button, double bool) error {
	robotgo.Click(string(b), double)
	return nil
}

func (r *Robot) Scroll(ticks int) error {
	switch {
	case ticks > 0:
		robotgo.ScrollDir(ticks, "up")
	case ticks < 0:
		robotgo.ScrollDir(-ticks, "down")
	}
	return nil
}

func (r *Robot) Press(b Button) error {
	if err := robotgo.Toggle(string(b)); err != nil {
		return fmt.Errorf("press %s: %w", b, err)
	}
	return nil
}

func (r *Robot) Release(b Button) error {
	if err := robotgo.Toggle(string(b), "up"); err != nil {
		return fmt.Errorf("release %s: %w", b, err)
	}
	return nil
}
