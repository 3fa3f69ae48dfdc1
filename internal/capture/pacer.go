package capture

import "time"

// PacerConfig sets the two capture rates and how long the scene must stay
// still before dropping back to the idle rate.
type PacerConfig struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

// Pacer switches between the idle and active frame rates on motion.
type Pacer struct {
	cfg        PacerConfig
	active     bool
	lastMotion time.Time
}

// NewPacer starts in idle mode.
func NewPacer(cfg PacerConfig) *Pacer {
	return &Pacer{cfg: cfg}
}

// Observe records one frame's motion result at now and returns the frame
// rate to use next, and whether it changed.
func (p *Pacer) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		p.lastMotion = now
		if !p.active {
			p.active = true
			return p.cfg.ActiveFPS, true
		}
	case p.active && now.Sub(p.lastMotion) > p.cfg.IdleTimeout:
		p.active = false
		return p.cfg.IdleFPS, true
	}
	return p.FPS(), false
}

// Active reports whether the pacer is in active mode.
func (p *Pacer) Active() bool {
	return p.active
}

// FPS is the current frame rate.
func (p *Pacer) FPS() int {
	if p.active {
		return p.cfg.ActiveFPS
	}
	return p.cfg.IdleFPS
}

// Interval is the ticker period for the current frame rate.
func (p *Pacer) Interval() time.Duration {
	return time.Second / time.Duration(max(1, p.FPS()))
}
