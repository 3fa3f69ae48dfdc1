package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// Run opens the camera and processes frames until ctx is cancelled. Frames
// are handled strictly in sequence; cancellation is checked between frames.
//
// Pipeline per tick:
//  1. Read a frame; a failed read counts as a frame without a hand
//  2. Motion detection paces the ticker between the idle and active rates
//  3. Hand detection on every frame, so a still hand keeps its gesture
//  4. Classify and dispatch, then publish the snapshot
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("app: already running")
	}
	defer a.running.Store(false)

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close camera")
		}
		a.motion.Close()
	}()

	a.camera.SetFPS(a.pacer.FPS())
	a.fps.Store(int64(a.pacer.FPS()))
	ticker := time.NewTicker(a.pacer.Interval())
	defer ticker.Stop()

	a.log.Info().Int("fps", a.pacer.FPS()).Msg("frame loop started")

	for {
		select {
		case <-ctx.Done():
			a.release()
			a.log.Info().Msg("frame loop stopped")
			return nil
		case <-ticker.C:
			if a.step(ctx) {
				ticker.Reset(a.pacer.Interval())
			}
		}
	}
}

// step reads, detects and processes one frame. It reports whether the
// frame rate changed.
func (a *App) step(ctx context.Context) (paceChanged bool) {
	mat, err := a.camera.ReadFrame()
	if err != nil {
		a.log.Debug().Err(err).Msg("read frame")
		a.Process(ctx, detector.Frame{})
		return false
	}
	defer mat.Close()

	motion := a.motion.Detect(mat)
	if fps, changed := a.pacer.Observe(motion.Detected, a.clock()); changed {
		a.camera.SetFPS(fps)
		a.fps.Store(int64(fps))
		a.log.Debug().Int("fps", fps).Float64("changed_pct", motion.Changed).Msg("capture rate changed")
		paceChanged = true
	}

	hands, err := a.detector.Detect(mat)
	if err != nil {
		a.log.Warn().Err(err).Msg("detect hands")
	}

	if (mat.Cols() != a.frameWidth || mat.Rows() != a.frameHeight) && !a.sizeWarned {
		a.sizeWarned = true
		a.log.Warn().
			Int("want_width", a.frameWidth).
			Int("want_height", a.frameHeight).
			Int("got_width", mat.Cols()).
			Int("got_height", mat.Rows()).
			Msg("camera ignored the requested size; landmarks use the requested size")
	}

	a.Process(ctx, detector.Primary(hands, a.frameWidth, a.frameHeight))
	return paceChanged
}

// FPS returns the current capture rate.
func (a *App) FPS() int {
	return int(a.fps.Load())
}
