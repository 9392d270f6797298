// Package signal turns thumb/reference joint samples into a bounded
// joystick signal.
//
// The processor has two states. Reset publishes the neutral signal (zero
// direction, zero magnitude, inactive). Active publishes
//
//	direction = unit(thumb - reference) * min(distance, maxDistance) * scaleFactor
//	magnitude = min(distance, maxDistance) / maxDistance
//
// Every OnFrame call moves to one of the two states based only on that
// frame, except under HoldInDeadzone where a frame inside the deadzone
// leaves the state untouched.
package signal

import (
	"math"
	"sync/atomic"

	"github.com/golang/geo/r3"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
)

// Signal is the published control state.
type Signal struct {
	Direction r3.Vector
	Magnitude float64
	Active    bool
}

// Neutral is the Reset-state signal.
var Neutral = Signal{}

// Processor is the stateful signal controller. OnFrame must be called from
// a single goroutine; Signal may be called concurrently from any goroutine
// and always sees a complete snapshot.
type Processor struct {
	cfg     Config
	current atomic.Pointer[Signal]
}

// NewProcessor validates cfg and returns a processor in the Reset state.
func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{cfg: cfg}
	p.publish(Neutral)
	return p, nil
}

// Config returns the processor configuration.
func (p *Processor) Config() Config {
	return p.cfg
}

// Signal returns the latest published snapshot.
func (p *Processor) Signal() Signal {
	return *p.current.Load()
}

// Reset forces the neutral signal.
func (p *Processor) Reset() {
	p.publish(Neutral)
}

// OnFrame ingests one tracking frame. A nil sample means that hand had no
// tracking data. It returns the signal published for this frame.
func (p *Processor) OnFrame(left, right *joint.Sample) Signal {
	sample := left
	if p.cfg.HandSide == hand.Right {
		sample = right
	}
	return p.Update(sample)
}

// Update ingests the sample for the configured hand directly.
func (p *Processor) Update(sample *joint.Sample) Signal {
	next, ok := p.evaluate(sample)
	if !ok {
		return p.Signal()
	}
	p.publish(next)
	return next
}

// evaluate computes the next signal. ok is false when the current signal
// must be kept as is.
func (p *Processor) evaluate(sample *joint.Sample) (next Signal, ok bool) {
	if sample == nil || !sample.Complete() {
		return Neutral, true
	}

	vector := sample.ThumbTip.Sub(*sample.Reference)
	distance := vector.Norm()

	if distance < p.cfg.Deadzone || distance == 0 {
		if p.cfg.DeadzonePolicy == HoldInDeadzone {
			return Signal{}, false
		}
		return Neutral, true
	}

	clamped := math.Min(distance, p.cfg.MaxDistance)
	return Signal{
		Direction: vector.Mul(clamped * p.cfg.ScaleFactor / distance),
		Magnitude: clamped / p.cfg.MaxDistance,
		Active:    true,
	}, true
}

func (p *Processor) publish(s Signal) {
	p.current.Store(&s)
}
