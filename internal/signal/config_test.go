package signal

import (
	"errors"
	"math"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.HandSide != hand.Right {
		t.Errorf("expected right hand, got %v", cfg.HandSide)
	}
	if cfg.DeadzonePolicy != ResetInDeadzone {
		t.Errorf("expected reset policy, got %v", cfg.DeadzonePolicy)
	}
	if cfg.ReferenceJoint != joint.IndexKnuckle {
		t.Errorf("expected index knuckle reference, got %v", cfg.ReferenceJoint)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"deadzone above max distance", func(c *Config) { c.Deadzone, c.MaxDistance = 0.2, 0.1 }},
		{"deadzone equals max distance", func(c *Config) { c.Deadzone, c.MaxDistance = 0.1, 0.1 }},
		{"zero max distance", func(c *Config) { c.Deadzone, c.MaxDistance = 0, 0 }},
		{"negative max distance", func(c *Config) { c.MaxDistance = -0.1 }},
		{"negative deadzone", func(c *Config) { c.Deadzone = -0.01 }},
		{"zero scale", func(c *Config) { c.ScaleFactor = 0 }},
		{"NaN deadzone", func(c *Config) { c.Deadzone = math.NaN() }},
		{"infinite max distance", func(c *Config) { c.MaxDistance = math.Inf(1) }},
		{"unknown side", func(c *Config) { c.HandSide = hand.Side(3) }},
		{"unknown policy", func(c *Config) { c.DeadzonePolicy = DeadzonePolicy(9) }},
		{"unknown reference", func(c *Config) { c.ReferenceJoint = joint.Reference(9) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}

	t.Run("zero deadzone is allowed", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Deadzone = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestConfig_YAML(t *testing.T) {
	in := `
hand_side: left
deadzone: 0.05
max_distance: 0.1
scale_factor: 4
deadzone_policy: hold
reference_joint: index_tip
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(in), &cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := Config{
		HandSide:       hand.Left,
		Deadzone:       0.05,
		MaxDistance:    0.1,
		ScaleFactor:    4,
		DeadzonePolicy: HoldInDeadzone,
		ReferenceJoint: joint.IndexTip,
	}
	if cfg != want {
		t.Errorf("decoded %+v, want %+v", cfg, want)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var again Config
	if err := yaml.Unmarshal(out, &again); err != nil {
		t.Fatalf("Unmarshal(Marshal()) error = %v\n%s", err, out)
	}
	if again != want {
		t.Errorf("re-decoded %+v, want %+v", again, want)
	}

	if err := yaml.Unmarshal([]byte("deadzone_policy: sometimes"), &cfg); err == nil {
		t.Error("expected error for unknown policy")
	}
}
