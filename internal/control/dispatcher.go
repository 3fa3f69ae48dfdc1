package control

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/pointer"
)

// Action names reported in Outcome and metrics.
const (
	ActionMove        = "move"
	ActionLeftClick   = "left_click"
	ActionRightClick  = "right_click"
	ActionDoubleClick = "double_click"
	ActionScroll      = "scroll"
	ActionDrag        = "drag"
	ActionPress       = "press"
	ActionRelease     = "release"
)

// DispatcherConfig holds the timing and drag options.
type DispatcherConfig struct {
	// Cooldown is the minimum time between two firings of the same click.
	Cooldown time.Duration
	// HoldButton presses the left button for the length of a drag session.
	// When false a drag only moves the cursor.
	HoldButton bool
}

// Input is everything the dispatcher needs from one frame.
type Input struct {
	Gesture gesture.Kind
	// Tip is the index fingertip in camera pixels.
	Tip Point
	// HandCenterY is the vertical center of the hand's bounding box.
	HandCenterY float64
	// Now is the frame's wall-clock time, read once per frame.
	Now time.Time
}

// Outcome describes what a frame did.
type Outcome struct {
	Phase Phase
	// Action is the pointer action attempted this frame, empty if none.
	Action      string
	Scroll      ScrollDecision
	CursorX     int
	CursorY     int
	DragStarted bool
	DragEnded   bool
	// Err is the injection error of Action, if any. It has been logged.
	Err error
}

// Dispatcher turns one gesture per frame into at most one pointer action.
type Dispatcher struct {
	cfg     DispatcherConfig
	mapper  *Mapper
	scroll  *ScrollController
	ptr     pointer.Pointer
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher wires the dispatcher to its collaborators. m may be nil.
func NewDispatcher(cfg DispatcherConfig, mapper *Mapper, scroll *ScrollController, ptr pointer.Pointer, log zerolog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		mapper:  mapper,
		scroll:  scroll,
		ptr:     ptr,
		log:     log.With().Str("component", "dispatcher").Logger(),
		metrics: m,
	}
}

// Dispatch applies one frame's gesture to st and returns the next state.
func (d *Dispatcher) Dispatch(st State, in Input) (State, Outcome) {
	var out Outcome

	if in.Gesture != gesture.Drag && st.DragActive {
		st = d.endDrag(st)
		out.DragEnded = true
	}
	if in.Gesture != gesture.Scroll {
		st.ScrollActive = false
	}

	switch in.Gesture {
	case gesture.Move:
		out.Phase = PhaseMoving
		st = d.moveCursor(st, in.Tip, ActionMove, &out)

	case gesture.LeftClick:
		out.Phase = PhaseClicking
		d.click(&st.LastLeftClick, in.Now, pointer.Left, false, ActionLeftClick, &out)

	case gesture.RightClick:
		out.Phase = PhaseClicking
		d.click(&st.LastRightClick, in.Now, pointer.Right, false, ActionRightClick, &out)

	case gesture.DoubleClick:
		out.Phase = PhaseClicking
		d.click(&st.LastDoubleClick, in.Now, pointer.Left, true, ActionDoubleClick, &out)

	case gesture.Scroll:
		out.Phase = PhaseScrolling
		decision := d.scroll.Evaluate(d.scroll.Position(in.HandCenterY))
		st.ScrollActive = true
		st.ScrollPosition = decision.Position
		out.Scroll = decision
		if decision.Direction != Deadzone {
			out.Action = ActionScroll
			out.Err = d.inject(ActionScroll, map[string]any{"ticks": decision.Ticks()}, func() error {
				return d.ptr.Scroll(decision.Ticks())
			})
		}

	case gesture.Drag:
		out.Phase = PhaseDragging
		// Press where the cursor already is, so the OS drag starts at the
		// point the pinch began, then follow the hand.
		if !st.DragActive {
			st = d.startDrag(st, in.Tip)
			out.DragStarted = true
		}
		st = d.moveCursor(st, in.Tip, ActionDrag, &out)
	}

	return st, out
}

// Release ends an active drag session, for shutdown or when control is
// disabled mid-drag.
func (d *Dispatcher) Release(st State) State {
	st.ScrollActive = false
	if st.DragActive {
		return d.endDrag(st)
	}
	return st
}

// moveCursor is the only writer of st.Cursor.
func (d *Dispatcher) moveCursor(st State, tip Point, action string, out *Outcome) State {
	smoothed, x, y := d.mapper.Step(st.Cursor, tip)
	st.Cursor = smoothed
	out.Action = action
	out.CursorX, out.CursorY = x, y
	out.Err = d.inject(action, map[string]any{"x": x, "y": y}, func() error {
		return d.ptr.Move(x, y)
	})
	return st
}

// click fires when more than the cooldown has passed since *last. The
// timestamp advances only when the injection succeeds, so a failed click is
// retried on the next frame that still shows the gesture.
func (d *Dispatcher) click(last *time.Time, now time.Time, b pointer.Button, double bool, action string, out *Outcome) {
	if now.Sub(*last) <= d.cfg.Cooldown {
		return
	}
	out.Action = action
	out.Err = d.inject(action, map[string]any{"button": b, "double": double}, func() error {
		return d.ptr.Click(b, double)
	})
	if out.Err == nil {
		*last = now
		d.log.Info().Str("action", action).Msg("click")
	}
}

func (d *Dispatcher) startDrag(st State, tip Point) State {
	anchor := tip
	st.DragActive = true
	st.DragAnchor = &anchor
	st.DragSession = uuid.NewString()

	d.log.Info().
		Str("session", st.DragSession).
		Float64("anchor_x", anchor.X).
		Float64("anchor_y", anchor.Y).
		Msg("drag started")

	if d.cfg.HoldButton {
		err := d.inject(ActionPress, map[string]any{"button": pointer.Left}, func() error {
			return d.ptr.Press(pointer.Left)
		})
		st.DragHeld = err == nil
	}
	return st
}

func (d *Dispatcher) endDrag(st State) State {
	if st.DragHeld {
		// A failed release is logged; the session ends regardless so the
		// next press starts clean.
		_ = d.inject(ActionRelease, map[string]any{"button": pointer.Left}, func() error {
			return d.ptr.Release(pointer.Left)
		})
	}

	d.log.Info().Str("session", st.DragSession).Msg("drag ended")

	st.DragActive = false
	st.DragAnchor = nil
	st.DragSession = ""
	st.DragHeld = false
	return st
}

// inject runs one pointer call, logging and counting failures. The error
// is returned for reporting only; callers never retry within the frame.
func (d *Dispatcher) inject(action string, params map[string]any, call func() error) error {
	ctx := context.Background()
	if err := call(); err != nil {
		ierr := &pointer.InjectionError{Action: action, Params: params, Err: err}
		d.log.Warn().Err(err).Str("action", action).Fields(params).Msg("pointer injection failed")
		d.metrics.InjectionFailure(ctx, action)
		return ierr
	}
	d.metrics.Action(ctx, action)
	return nil
}
