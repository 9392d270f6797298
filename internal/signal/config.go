package signal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
)

// ErrInvalidConfig is returned for thresholds that would make the signal
// degenerate (always saturated or always reset).
var ErrInvalidConfig = errors.New("signal: invalid configuration")

// Default thresholds, in tracking length units.
const (
	DefaultDeadzone    = 0.02
	DefaultMaxDistance = 0.15
	DefaultScaleFactor = 10.0
)

// DeadzonePolicy decides what happens when the thumb drops back inside the
// deadzone.
type DeadzonePolicy int

const (
	// ResetInDeadzone returns to the neutral signal immediately.
	ResetInDeadzone DeadzonePolicy = iota
	// HoldInDeadzone keeps the last signal until tracking is lost or the
	// thumb leaves the deadzone again.
	HoldInDeadzone
)

func (p DeadzonePolicy) String() string {
	switch p {
	case ResetInDeadzone:
		return "reset"
	case HoldInDeadzone:
		return "hold"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Valid reports whether p is a known policy.
func (p DeadzonePolicy) Valid() bool {
	return p == ResetInDeadzone || p == HoldInDeadzone
}

// ParseDeadzonePolicy parses "reset" or "hold".
func ParseDeadzonePolicy(s string) (DeadzonePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reset":
		return ResetInDeadzone, nil
	case "hold":
		return HoldInDeadzone, nil
	default:
		return 0, fmt.Errorf("signal: unknown deadzone policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p DeadzonePolicy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("signal: invalid deadzone policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *DeadzonePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseDeadzonePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Config holds the processor thresholds. It is copied at construction and
// never changes afterwards.
type Config struct {
	HandSide       hand.Side       `yaml:"hand_side" json:"hand_side"`
	Deadzone       float64         `yaml:"deadzone" json:"deadzone"`
	MaxDistance    float64         `yaml:"max_distance" json:"max_distance"`
	ScaleFactor    float64         `yaml:"scale_factor" json:"scale_factor"`
	DeadzonePolicy DeadzonePolicy  `yaml:"deadzone_policy" json:"deadzone_policy"`
	ReferenceJoint joint.Reference `yaml:"reference_joint" json:"reference_joint"`
}

// DefaultConfig returns a right-hand configuration measured against the
// index knuckle.
func DefaultConfig() Config {
	return Config{
		HandSide:       hand.Right,
		Deadzone:       DefaultDeadzone,
		MaxDistance:    DefaultMaxDistance,
		ScaleFactor:    DefaultScaleFactor,
		DeadzonePolicy: ResetInDeadzone,
		ReferenceJoint: joint.IndexKnuckle,
	}
}

// Validate rejects configurations that cannot produce a meaningful signal.
func (c Config) Validate() error {
	if !c.HandSide.Valid() {
		return fmt.Errorf("%w: unknown hand side %d", ErrInvalidConfig, int(c.HandSide))
	}
	if !finite(c.Deadzone) || !finite(c.MaxDistance) || !finite(c.ScaleFactor) {
		return fmt.Errorf("%w: thresholds must be finite", ErrInvalidConfig)
	}
	if c.MaxDistance <= 0 {
		return fmt.Errorf("%w: max distance %g must be positive", ErrInvalidConfig, c.MaxDistance)
	}
	if c.Deadzone < 0 {
		return fmt.Errorf("%w: deadzone %g must not be negative", ErrInvalidConfig, c.Deadzone)
	}
	if c.Deadzone >= c.MaxDistance {
		return fmt.Errorf("%w: deadzone %g must be below max distance %g", ErrInvalidConfig, c.Deadzone, c.MaxDistance)
	}
	if c.ScaleFactor <= 0 {
		return fmt.Errorf("%w: scale factor %g must be positive", ErrInvalidConfig, c.ScaleFactor)
	}
	if !c.DeadzonePolicy.Valid() {
		return fmt.Errorf("%w: unknown deadzone policy %d", ErrInvalidConfig, int(c.DeadzonePolicy))
	}
	if !c.ReferenceJoint.Valid() {
		return fmt.Errorf("%w: unknown reference joint %d", ErrInvalidConfig, int(c.ReferenceJoint))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
