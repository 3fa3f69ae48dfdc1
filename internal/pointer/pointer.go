// Package pointer injects cursor, click and scroll events into the OS.
package pointer

import (
	"fmt"
	"sync"
)

// Button is a mouse button.
type Button string

const (
	Left  Button = "left"
	Right Button = "right"
)

// Pointer is the OS pointer-injection capability. Every call is synchronous;
// errors are recoverable and the caller continues with the next frame.
type Pointer interface {
	ScreenSize() (width, height int)
	Move(x, y int) error
	Click(b Button, double bool) error
	// Scroll injects ticks wheel steps, positive up and negative down.
	Scroll(ticks int) error
	Press(b Button) error
	Release(b Button) error
}

// InjectionError reports a failed pointer call with the attempted parameters.
type InjectionError struct {
	Action string
	Params map[string]any
	Err    error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("inject %s %v: %v", e.Action, e.Params, e.Err)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}

// Event is one call recorded by a Recorder.
type Event struct {
	Action string
	X, Y   int
	Button Button
	Double bool
	Ticks  int
}

// Recorder is an in-memory Pointer that records every call. Fail makes the
// next calls of an action return an error.
type Recorder struct {
	Width, Height int

	mu     sync.Mutex
	events []Event
	fail   map[string]error
}

// NewRecorder creates a Recorder reporting the given screen size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height, fail: make(map[string]error)}
}

// Fail makes calls to action return err until cleared with a nil err.
func (r *Recorder) Fail(action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, action)
		return
	}
	r.fail[action] = err
}

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns the number of recorded calls of action.
func (r *Recorder) Count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Action == action {
			n++
		}
	}
	return n
}

// Reset clears recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *Recorder) ScreenSize() (int, int) { return r.Width, r.Height }

func (r *Recorder) Move(x, y int) error {
	return r.record(Event{Action: "move", X: x, Y: y})
}

func (r *Recorder) Click(b Button, double bool) error {
	return r.record(Event{Action: "click", Button: b, Double: double})
}

func (r *Recorder) Scroll(ticks int) error {
	return r.record(Event{Action: "scroll", Ticks: ticks})
}

func (r *Recorder) Press(b Button) error {
	return r.record(Event{Action: "press", Button: b})
}

func (r *Recorder) Release(b Button) error {
	return r.record(Event{Action: "release", Button: b})
}

// record stores failed calls too, since the attempt itself was made.
func (r *Recorder) record(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.fail[e.Action]
}
