package capture

import "time"

// Frame rates for the tracking loop.
const (
	// IdleFPS is used while nothing in view is moving.
	IdleFPS = 5
	// ActiveFPS is used while motion is seen.
	ActiveFPS = 30
	// DefaultIdleTimeout is how long without motion before dropping back
	// to IdleFPS.
	DefaultIdleTimeout = 2 * time.Second
)

// RateController switches between an idle and an active frame rate based on
// motion observations.
type RateController struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration

	active     bool
	lastMotion time.Time
}

// NewRateController returns a controller in idle mode with the default rates.
func NewRateController() *RateController {
	return &RateController{
		IdleFPS:     IdleFPS,
		ActiveFPS:   ActiveFPS,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// Active reports whether the controller is in active mode.
func (r *RateController) Active() bool {
	return r.active
}

// FPS returns the frame rate for the current mode.
func (r *RateController) FPS() int {
	if r.active {
		return r.ActiveFPS
	}
	return r.IdleFPS
}

// Interval returns the frame interval for the current mode.
func (r *RateController) Interval() time.Duration {
	fps := r.FPS()
	if fps <= 0 {
		fps = IdleFPS
	}
	return time.Second / time.Duration(fps)
}

// Observe records one motion result taken at now and reports whether the
// mode changed.
func (r *RateController) Observe(motion bool, now time.Time) (changed bool) {
	if motion {
		r.lastMotion = now
		if !r.active {
			r.active = true
			return true
		}
		return false
	}
	if r.active && now.Sub(r.lastMotion) > r.IdleTimeout {
		r.active = false
		return true
	}
	return false
}

// Force sets the mode directly, used when motion gating is disabled.
func (r *RateController) Force(active bool, now time.Time) {
	r.active = active
	r.lastMotion = now
}
