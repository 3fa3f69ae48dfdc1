// Package app runs the frame loop: camera, hand detector, gesture classifier
// and pointer-control dispatcher, one frame at a time.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/pointer"
)

// Snapshot is the read-only view of one processed frame, published to the
// overlay feed and the tray.
type Snapshot struct {
	Sequence       uint64              `json:"sequence"`
	Timestamp      time.Time           `json:"timestamp"`
	HandPresent    bool                `json:"hand_present"`
	Enabled        bool                `json:"enabled"`
	Fingers        gesture.FingerState `json:"fingers"`
	Distances      gesture.Distances   `json:"distances"`
	Gesture        gesture.Kind        `json:"gesture"`
	Phase          control.Phase       `json:"phase"`
	Action         string              `json:"action,omitempty"`
	Scroll         control.Direction   `json:"scroll"`
	ScrollSpeed    int                 `json:"scroll_speed"`
	ScrollPosition float64             `json:"scroll_position"`
	ScrollActive   bool                `json:"scroll_active"`
	DragActive     bool                `json:"drag_active"`
	Cursor         control.Point       `json:"cursor"`
	Region         control.Rect        `json:"region"`
}

// Observer receives a snapshot after every frame. It runs on the frame loop
// and must not block.
type Observer func(Snapshot)

// Options wires the app to its collaborators.
type Options struct {
	Config   config.Config
	Camera   capture.Camera
	Detector detector.Detector
	Pointer  pointer.Pointer
	Log      zerolog.Logger
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// App is the gesture-to-pointer application.
type App struct {
	cfg        config.Config
	camera     capture.Camera
	detector   detector.Detector
	motion     *capture.MotionDetector
	pacer      *capture.Pacer
	classifier *gesture.Classifier
	dispatcher *control.Dispatcher
	region     control.Rect
	screen     control.Size
	clock      func() time.Time
	log        zerolog.Logger
	metrics    *metrics.Metrics

	// frameWidth and frameHeight are the camera size the region was built
	// from; landmarks are scaled to them whatever size the camera delivers.
	frameWidth  int
	frameHeight int

	enabled atomic.Bool
	running atomic.Bool
	fps     atomic.Int64

	// state is owned by the goroutine calling Process.
	state      control.State
	seq        uint64
	sizeWarned bool

	mu        sync.RWMutex
	observers []Observer
	latest    Snapshot
}

// New builds the app. The detection region is the camera frame inset by the
// configured margin, and gesture thresholds are scaled to it.
func New(opts Options) (*App, error) {
	if opts.Camera == nil || opts.Detector == nil || opts.Pointer == nil {
		return nil, errors.New("app: camera, detector and pointer are required")
	}
	cfg := opts.Config

	width, height := opts.Camera.Size()
	region := control.Inset(width, height, float64(cfg.Region.Margin))

	screen := control.Size{Width: cfg.Screen.Width, Height: cfg.Screen.Height}
	if screen.Width == 0 || screen.Height == 0 {
		screen.Width, screen.Height = opts.Pointer.ScreenSize()
	}
	if screen.Width <= 0 || screen.Height <= 0 {
		return nil, errors.New("app: screen size is unknown")
	}

	thresholds := cfg.Thresholds.Scale(gesture.RegionScale(region.Width(), region.Height()))

	log := opts.Log.With().Str("component", "app").Logger()

	mapper := control.NewMapper(control.MapperConfig{
		Region:    region,
		Screen:    screen,
		Smoothing: cfg.Cursor.Smoothing,
		MirrorX:   cfg.Cursor.MirrorX,
	})
	scroll := control.NewScrollController(control.ScrollConfig{
		Region:            region,
		DeadzoneCenter:    cfg.Scroll.DeadzoneCenter,
		DeadzoneHalfWidth: cfg.Scroll.DeadzoneHalfWidth,
		Gain:              cfg.Scroll.Gain,
		MinSpeed:          cfg.Scroll.MinSpeed,
	})
	dispatcher := control.NewDispatcher(
		control.DispatcherConfig{Cooldown: cfg.Click.Cooldown, HoldButton: cfg.Drag.HoldButton},
		mapper, scroll, opts.Pointer, opts.Log, opts.Metrics,
	)

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	a := &App{
		cfg:        cfg,
		camera:     opts.Camera,
		detector:   opts.Detector,
		motion:     capture.NewMotionDetector(cfg.Camera.MotionThreshold),
		pacer:      capture.NewPacer(capture.PacerConfig{IdleFPS: cfg.Camera.IdleFPS, ActiveFPS: cfg.Camera.ActiveFPS, IdleTimeout: cfg.Camera.IdleTimeout}),
		classifier: gesture.NewClassifier(thresholds),
		dispatcher: dispatcher,
		region:     region,
		screen:     screen,
		clock:      clock,
		log:        log,
		metrics:    opts.Metrics,

		frameWidth:  width,
		frameHeight: height,
	}
	a.enabled.Store(true)

	log.Info().
		Int("frame_width", width).
		Int("frame_height", height).
		Int("screen_width", screen.Width).
		Int("screen_height", screen.Height).
		Float64("threshold_scale", gesture.RegionScale(region.Width(), region.Height())).
		Msg("pointer control configured")

	return a, nil
}

// SetEnabled turns pointer control on or off. Frames are still processed
// while disabled so the overlay keeps updating, but they dispatch as Idle,
// which ends any drag session.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.log.Info().Bool("enabled", enabled).Msg("pointer control toggled")
	}
}

// IsEnabled reports whether pointer control is on.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// IsRunning reports whether the frame loop is running.
func (a *App) IsRunning() bool {
	return a.running.Load()
}

// Observe registers fn to receive every snapshot.
func (a *App) Observe(fn Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Latest returns the most recent snapshot.
func (a *App) Latest() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Region returns the detection region in camera pixels.
func (a *App) Region() control.Rect {
	return a.region
}

// Screen returns the target screen size.
func (a *App) Screen() control.Size {
	return a.screen
}

// Thresholds returns the gesture limits after region scaling.
func (a *App) Thresholds() gesture.Thresholds {
	return a.classifier.Thresholds()
}

// Process runs one frame through the classifier and the dispatcher and
// publishes the snapshot. It must be called from a single goroutine.
func (a *App) Process(ctx context.Context, frame detector.Frame) Snapshot {
	now := a.clock()
	reading := a.classifier.ClassifyFrame(frame)
	enabled := a.enabled.Load()

	in := control.Input{Gesture: gesture.Idle, Now: now}
	if enabled {
		in.Gesture = reading.Gesture
	}
	if x, y, ok := frame.Point(detector.IndexTip); ok {
		in.Tip = control.Point{X: float64(x), Y: float64(y)}
	}
	if frame.BBox != nil {
		_, in.HandCenterY = frame.BBox.Center()
	}

	prevGesture := a.latest.Gesture
	var out control.Outcome
	a.state, out = a.dispatcher.Dispatch(a.state, in)
	a.metrics.Frame(ctx, reading.Gesture.String())

	if reading.Gesture != prevGesture {
		a.log.Debug().
			Stringer("gesture", reading.Gesture).
			Ints("fingers", fingerBits(reading.Fingers)).
			Msg("gesture changed")
	}

	a.seq++
	snap := Snapshot{
		Sequence:       a.seq,
		Timestamp:      now,
		HandPresent:    reading.HandPresent,
		Enabled:        enabled,
		Fingers:        reading.Fingers,
		Distances:      reading.Distances,
		Gesture:        reading.Gesture,
		Phase:          out.Phase,
		Action:         out.Action,
		Scroll:         out.Scroll.Direction,
		ScrollSpeed:    out.Scroll.Speed,
		ScrollPosition: a.state.ScrollPosition,
		ScrollActive:   a.state.ScrollActive,
		DragActive:     a.state.DragActive,
		Cursor:         a.state.Cursor,
		Region:         a.region,
	}
	a.publish(snap)
	return snap
}

// release ends a drag or scroll left open when the loop stops.
func (a *App) release() {
	if !a.state.DragActive && !a.state.ScrollActive {
		return
	}
	a.state = a.dispatcher.Release(a.state)

	snap := a.Latest()
	snap.Phase = control.PhaseIdle
	snap.Action = ""
	snap.DragActive = false
	snap.ScrollActive = false
	a.publish(snap)
}

func (a *App) publish(s Snapshot) {
	a.mu.Lock()
	a.latest = s
	observers := a.observers
	a.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

func fingerBits(f gesture.FingerState) []int {
	b := f.Bits()
	return b[:]
}
