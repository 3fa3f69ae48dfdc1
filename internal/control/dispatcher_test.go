package control

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

type harness struct {
	d    *Dispatcher
	ptr  *pointer.Recorder
	logs *bytes.Buffer
	now  time.Time
}

func newHarness(t *testing.T, hold bool) *harness {
	t.Helper()

	logs := &bytes.Buffer{}
	ptr := pointer.NewRecorder(1920, 1080)
	region := Inset(640, 480, 100)

	d := NewDispatcher(
		DispatcherConfig{Cooldown: 300 * time.Millisecond, HoldButton: hold},
		NewMapper(MapperConfig{Region: region, Screen: Size{1920, 1080}, Smoothing: 1}),
		testScroll(0.5, 1),
		ptr,
		zerolog.New(logs),
		nil,
	)

	return &harness{d: d, ptr: ptr, logs: logs, now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (h *harness) input(k gesture.Kind, after time.Duration) Input {
	h.now = h.now.Add(after)
	return Input{Gesture: k, Tip: Point{X: 320, Y: 240}, HandCenterY: 240, Now: h.now}
}

func (h *harness) logCount(msg string) int {
	return strings.Count(h.logs.String(), `"message":"`+msg+`"`)
}

func TestDispatcher_ClickCooldown(t *testing.T) {
	t.Run("100ms apart fires once", func(t *testing.T) {
		h := newHarness(t, true)
		var st State

		st, first := h.d.Dispatch(st, h.input(gesture.LeftClick, 0))
		_, second := h.d.Dispatch(st, h.input(gesture.LeftClick, 100*time.Millisecond))

		assert.Equal(t, ActionLeftClick, first.Action)
		assert.Empty(t, second.Action)
		assert.Equal(t, PhaseClicking, second.Phase)
		assert.Equal(t, 1, h.ptr.Count("click"))
	})

	t.Run("400ms apart fires twice", func(t *testing.T) {
		h := newHarness(t, true)
		var st State

		st, _ = h.d.Dispatch(st, h.input(gesture.LeftClick, 0))
		_, _ = h.d.Dispatch(st, h.input(gesture.LeftClick, 400*time.Millisecond))

		assert.Equal(t, 2, h.ptr.Count("click"))
	})

	t.Run("exactly the cooldown is suppressed", func(t *testing.T) {
		h := newHarness(t, true)
		var st State

		st, _ = h.d.Dispatch(st, h.input(gesture.LeftClick, 0))
		_, _ = h.d.Dispatch(st, h.input(gesture.LeftClick, 300*time.Millisecond))

		assert.Equal(t, 1, h.ptr.Count("click"))
	})

	t.Run("suppressed frame does not move the timestamp", func(t *testing.T) {
		h := newHarness(t, true)
		var st State

		st, _ = h.d.Dispatch(st, h.input(gesture.LeftClick, 0))
		fired := st.LastLeftClick
		st, _ = h.d.Dispatch(st, h.input(gesture.LeftClick, 200*time.Millisecond))
		assert.Equal(t, fired, st.LastLeftClick)

		// 350ms after the first click, 150ms after the suppressed one.
		_, out := h.d.Dispatch(st, h.input(gesture.LeftClick, 150*time.Millisecond))
		assert.Equal(t, ActionLeftClick, out.Action)
	})

	t.Run("kinds have independent cooldowns", func(t *testing.T) {
		h := newHarness(t, true)
		var st State

		st, _ = h.d.Dispatch(st, h.input(gesture.LeftClick, 0))
		st, _ = h.d.Dispatch(st, h.input(gesture.RightClick, 10*time.Millisecond))
		_, _ = h.d.Dispatch(st, h.input(gesture.DoubleClick, 10*time.Millisecond))

		assert.Equal(t, []pointer.Event{
			{Action: "click", Button: pointer.Left},
			{Action: "click", Button: pointer.Right},
			{Action: "click", Button: pointer.Left, Double: true},
		}, h.ptr.Events())
	})

	t.Run("failed click is retried next frame", func(t *testing.T) {
		h := newHarness(t, true)
		var st State

		h.ptr.Fail("click", errors.New("no display"))
		st, out := h.d.Dispatch(st, h.input(gesture.LeftClick, 0))
		require.Error(t, out.Err)
		var ierr *pointer.InjectionError
		require.ErrorAs(t, out.Err, &ierr)
		assert.Equal(t, ActionLeftClick, ierr.Action)
		assert.True(t, st.LastLeftClick.IsZero())
		assert.Contains(t, h.logs.String(), "pointer injection failed")

		h.ptr.Fail("click", nil)
		_, out = h.d.Dispatch(st, h.input(gesture.LeftClick, 33*time.Millisecond))
		assert.NoError(t, out.Err)
		assert.Equal(t, ActionLeftClick, out.Action)
	})
}

func TestDispatcher_Move(t *testing.T) {
	h := newHarness(t, true)
	var st State

	st, out := h.d.Dispatch(st, h.input(gesture.Move, 0))
	assert.Equal(t, PhaseMoving, out.Phase)
	assert.Equal(t, ActionMove, out.Action)
	assert.Equal(t, Point{960, 540}, st.Cursor)
	assert.Equal(t, []pointer.Event{{Action: "move", X: 960, Y: 540}}, h.ptr.Events())

	st, out = h.d.Dispatch(st, h.input(gesture.Idle, 0))
	assert.Equal(t, PhaseIdle, out.Phase)
	assert.Empty(t, out.Action)
	assert.Equal(t, Point{960, 540}, st.Cursor, "idle must not touch the cursor")
	assert.Len(t, h.ptr.Events(), 1)
}

func TestDispatcher_MoveFailureStillUpdatesCursor(t *testing.T) {
	h := newHarness(t, true)
	h.ptr.Fail("move", errors.New("busy"))

	st, out := h.d.Dispatch(State{}, h.input(gesture.Move, 0))
	assert.Error(t, out.Err)
	assert.Equal(t, Point{960, 540}, st.Cursor)
}

func TestDispatcher_Scroll(t *testing.T) {
	h := newHarness(t, true)
	var st State

	in := h.input(gesture.Scroll, 0)
	in.HandCenterY = 100 + 0.7*280 // 70%
	st, out := h.d.Dispatch(st, in)

	assert.Equal(t, PhaseScrolling, out.Phase)
	assert.Equal(t, ActionScroll, out.Action)
	assert.Equal(t, ScrollDown, out.Scroll.Direction)
	assert.Equal(t, 5, out.Scroll.Speed)
	assert.True(t, st.ScrollActive)
	assert.InDelta(t, 70, st.ScrollPosition, 1e-9)
	assert.Equal(t, []pointer.Event{{Action: "scroll", Ticks: -5}}, h.ptr.Events())

	t.Run("deadzone emits nothing but stays active", func(t *testing.T) {
		in := h.input(gesture.Scroll, 0)
		in.HandCenterY = 240
		st2, out := h.d.Dispatch(st, in)
		assert.Empty(t, out.Action)
		assert.Equal(t, Deadzone, out.Scroll.Direction)
		assert.True(t, st2.ScrollActive)
		assert.Len(t, h.ptr.Events(), 1)
	})

	t.Run("idle clears scroll active", func(t *testing.T) {
		st2, _ := h.d.Dispatch(st, h.input(gesture.Idle, 0))
		assert.False(t, st2.ScrollActive)
	})

	t.Run("injection failure is not fatal", func(t *testing.T) {
		h.ptr.Fail("scroll", errors.New("wheel unavailable"))
		defer h.ptr.Fail("scroll", nil)

		in := h.input(gesture.Scroll, 0)
		in.HandCenterY = 100
		st2, out := h.d.Dispatch(st, in)
		assert.Error(t, out.Err)
		assert.True(t, st2.ScrollActive)
		assert.Equal(t, ScrollUp, out.Scroll.Direction)
	})
}

func TestDispatcher_DragSession(t *testing.T) {
	h := newHarness(t, true)
	var st State

	const frames = 5
	for i := 0; i < frames; i++ {
		var out Outcome
		st, out = h.d.Dispatch(st, h.input(gesture.Drag, 33*time.Millisecond))
		assert.Equal(t, PhaseDragging, out.Phase)
		assert.Equal(t, ActionDrag, out.Action)
		assert.Equal(t, i == 0, out.DragStarted)
		assert.True(t, st.DragActive)
	}
	require.NotNil(t, st.DragAnchor)
	assert.Equal(t, Point{320, 240}, *st.DragAnchor)
	assert.NotEmpty(t, st.DragSession)

	st, out := h.d.Dispatch(st, h.input(gesture.Idle, 33*time.Millisecond))
	assert.True(t, out.DragEnded)
	assert.False(t, st.DragActive)
	assert.Nil(t, st.DragAnchor)
	assert.Empty(t, st.DragSession)

	assert.Equal(t, 1, h.logCount("drag started"))
	assert.Equal(t, 1, h.logCount("drag ended"))
	assert.Equal(t, frames, h.ptr.Count("move"))
	assert.Equal(t, 1, h.ptr.Count("press"))
	assert.Equal(t, 1, h.ptr.Count("release"))

	// Idle frames after the session do not end it again.
	_, out = h.d.Dispatch(st, h.input(gesture.Idle, 33*time.Millisecond))
	assert.False(t, out.DragEnded)
	assert.Equal(t, 1, h.logCount("drag ended"))
}

func TestDispatcher_DragPressesBeforeMoving(t *testing.T) {
	h := newHarness(t, true)

	st, _ := h.d.Dispatch(State{}, h.input(gesture.Move, 0))
	cursor := st.Cursor
	h.ptr.Reset()

	st, out := h.d.Dispatch(st, h.input(gesture.Drag, 33*time.Millisecond))
	require.True(t, out.DragStarted)
	assert.Equal(t, ActionDrag, out.Action)

	events := h.ptr.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "press", events[0].Action, "button goes down where the cursor already is")
	assert.Equal(t, "move", events[1].Action)
	assert.Equal(t, cursor, st.Cursor, "same tip keeps the smoothed cursor in place")
}

func TestDispatcher_HandLostEndsDrag(t *testing.T) {
	h := newHarness(t, true)

	st, _ := h.d.Dispatch(State{}, h.input(gesture.Drag, 0))
	require.True(t, st.DragActive)

	// A lost hand classifies as Idle.
	st, out := h.d.Dispatch(st, h.input(gesture.Idle, 33*time.Millisecond))
	assert.False(t, st.DragActive)
	assert.True(t, out.DragEnded)
	assert.Equal(t, 1, h.logCount("drag ended"))
}

func TestDispatcher_DragToMoveReleasesThenMoves(t *testing.T) {
	h := newHarness(t, true)

	st, _ := h.d.Dispatch(State{}, h.input(gesture.Drag, 0))
	h.ptr.Reset()

	st, out := h.d.Dispatch(st, h.input(gesture.Move, 33*time.Millisecond))
	assert.False(t, st.DragActive)
	assert.True(t, out.DragEnded)
	assert.Equal(t, ActionMove, out.Action)

	events := h.ptr.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "release", events[0].Action)
	assert.Equal(t, "move", events[1].Action)
}

func TestDispatcher_SimulatedDrag(t *testing.T) {
	h := newHarness(t, false)

	st, _ := h.d.Dispatch(State{}, h.input(gesture.Drag, 0))
	st, _ = h.d.Dispatch(st, h.input(gesture.Drag, 33*time.Millisecond))
	_, _ = h.d.Dispatch(st, h.input(gesture.Idle, 33*time.Millisecond))

	assert.Equal(t, 0, h.ptr.Count("press"))
	assert.Equal(t, 0, h.ptr.Count("release"))
	assert.Equal(t, 2, h.ptr.Count("move"))
	assert.Equal(t, 1, h.logCount("drag started"))
	assert.Equal(t, 1, h.logCount("drag ended"))
}

func TestDispatcher_FailedPressSkipsRelease(t *testing.T) {
	h := newHarness(t, true)
	h.ptr.Fail("press", errors.New("denied"))

	st, _ := h.d.Dispatch(State{}, h.input(gesture.Drag, 0))
	assert.True(t, st.DragActive)
	assert.False(t, st.DragHeld)

	_, _ = h.d.Dispatch(st, h.input(gesture.Idle, 33*time.Millisecond))
	assert.Equal(t, 0, h.ptr.Count("release"))
}

func TestDispatcher_Release(t *testing.T) {
	h := newHarness(t, true)

	st, _ := h.d.Dispatch(State{}, h.input(gesture.Drag, 0))
	st = h.d.Release(st)
	assert.False(t, st.DragActive)
	assert.Equal(t, 1, h.ptr.Count("release"))

	st = h.d.Release(st)
	assert.Equal(t, 1, h.ptr.Count("release"), "releasing twice is a no-op")
}

func TestDispatcher_AtMostOneActionPerFrame(t *testing.T) {
	h := newHarness(t, true)
	var st State

	sequence := []gesture.Kind{
		gesture.Move, gesture.LeftClick, gesture.Scroll, gesture.Drag, gesture.Drag,
		gesture.RightClick, gesture.Idle, gesture.DoubleClick, gesture.Move, gesture.Scroll,
	}

	for _, k := range sequence {
		before := len(h.ptr.Events())
		in := h.input(k, 500*time.Millisecond)
		in.HandCenterY = 110
		st, _ = h.d.Dispatch(st, in)

		primary := 0
		for _, e := range h.ptr.Events()[before:] {
			if e.Action != "press" && e.Action != "release" {
				primary++
			}
		}
		assert.LessOrEqual(t, primary, 1, "gesture %s", k)
	}
}
