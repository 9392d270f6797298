package scene

import (
	"fmt"
	"math"

	"github.com/ayusman/thumbstick/internal/signal"
)

// DefaultGain is the movement constant K.
const DefaultGain = 2.0

// SignalProvider exposes the latest thumbstick signal.
type SignalProvider interface {
	Signal() signal.Signal
}

// MovementSystem applies the signal to every thumb-controlled entity:
//
//	position += direction * magnitude * movementSpeed * dt * gain
type MovementSystem struct {
	scene    *Scene
	provider SignalProvider
	gain     float64
}

// NewMovementSystem returns a system over scene reading provider.
func NewMovementSystem(scene *Scene, provider SignalProvider, gain float64) (*MovementSystem, error) {
	if err := checkGain(gain); err != nil {
		return nil, err
	}
	return &MovementSystem{scene: scene, provider: provider, gain: gain}, nil
}

func checkGain(gain float64) error {
	if math.IsNaN(gain) || math.IsInf(gain, 0) || gain <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidGain, gain)
	}
	return nil
}

// Gain returns K.
func (m *MovementSystem) Gain() float64 {
	return m.gain
}

// SetGain changes K.
func (m *MovementSystem) SetGain(gain float64) error {
	if err := checkGain(gain); err != nil {
		return err
	}
	m.gain = gain
	return nil
}

// Update advances the scene by dt seconds. It reads the signal once and
// returns the number of entities moved.
func (m *MovementSystem) Update(dt float64) int {
	s := m.provider.Signal()
	if !s.Active || dt <= 0 {
		return 0
	}

	step := s.Direction.Mul(s.Magnitude * dt * m.gain)

	moved := 0
	query := m.scene.movers.Query(m.scene.world)
	for query.Next() {
		pos, ctrl := query.Get()
		d := step.Mul(ctrl.MovementSpeed)
		pos.X += d.X
		pos.Y += d.Y
		pos.Z += d.Z
		moved++
	}
	return moved
}
