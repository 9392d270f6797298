package signal

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
)

const epsilon = 1e-9

func sample(thumb, ref r3.Vector) *joint.Sample {
	return &joint.Sample{ThumbTip: &thumb, Reference: &ref}
}

func scenarioConfig() Config {
	cfg := DefaultConfig()
	cfg.Deadzone = 0.02
	cfg.MaxDistance = 0.15
	cfg.ScaleFactor = 10
	return cfg
}

func newProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()
	p, err := NewProcessor(cfg)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	return p
}

func assertNeutral(t *testing.T, s Signal) {
	t.Helper()
	if s.Active {
		t.Error("expected inactive signal")
	}
	if s.Magnitude != 0 {
		t.Errorf("expected zero magnitude, got %f", s.Magnitude)
	}
	if s.Direction != (r3.Vector{}) {
		t.Errorf("expected zero direction, got %v", s.Direction)
	}
}

func TestNewProcessor(t *testing.T) {
	t.Run("starts in reset", func(t *testing.T) {
		p := newProcessor(t, DefaultConfig())
		assertNeutral(t, p.Signal())
	})

	t.Run("rejects deadzone above max distance", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Deadzone = 0.2
		cfg.MaxDistance = 0.1

		p, err := NewProcessor(cfg)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if p != nil {
			t.Error("expected nil processor on invalid config")
		}
	})
}

func TestProcessor_Scenarios(t *testing.T) {
	origin := r3.Vector{}

	t.Run("inside range", func(t *testing.T) {
		p := newProcessor(t, scenarioConfig())

		s := p.OnFrame(nil, sample(r3.Vector{X: 0.1}, origin))

		if !s.Active {
			t.Fatal("expected active signal")
		}
		if math.Abs(s.Magnitude-0.1/0.15) > epsilon {
			t.Errorf("magnitude = %f, want %f", s.Magnitude, 0.1/0.15)
		}
		want := r3.Vector{X: 1.0}
		if s.Direction.Sub(want).Norm() > epsilon {
			t.Errorf("direction = %v, want %v", s.Direction, want)
		}
		if p.Signal() != s {
			t.Error("Signal() should return the published snapshot")
		}
	})

	t.Run("inside deadzone", func(t *testing.T) {
		p := newProcessor(t, scenarioConfig())

		s := p.OnFrame(nil, sample(r3.Vector{X: 0.01}, origin))

		assertNeutral(t, s)
	})

	t.Run("saturates at max distance", func(t *testing.T) {
		p := newProcessor(t, scenarioConfig())

		s := p.OnFrame(nil, sample(r3.Vector{X: 0.3}, origin))

		if !s.Active {
			t.Fatal("expected active signal")
		}
		if math.Abs(s.Magnitude-1.0) > epsilon {
			t.Errorf("magnitude = %f, want 1.0", s.Magnitude)
		}
		if math.Abs(s.Direction.Norm()-1.5) > epsilon {
			t.Errorf("|direction| = %f, want 1.5", s.Direction.Norm())
		}
	})

	t.Run("exactly at deadzone is active", func(t *testing.T) {
		p := newProcessor(t, scenarioConfig())

		s := p.OnFrame(nil, sample(r3.Vector{Y: 0.02}, origin))

		if !s.Active {
			t.Error("distance == deadzone should be active")
		}
	})

	t.Run("direction is relative to the reference", func(t *testing.T) {
		p := newProcessor(t, scenarioConfig())

		s := p.OnFrame(nil, sample(r3.Vector{X: 1, Y: 1, Z: 1.05}, r3.Vector{X: 1, Y: 1, Z: 1}))

		want := r3.Vector{Z: 0.5}
		if s.Direction.Sub(want).Norm() > epsilon {
			t.Errorf("direction = %v, want %v", s.Direction, want)
		}
	})
}

func TestProcessor_HandSelection(t *testing.T) {
	active := sample(r3.Vector{X: 0.1}, r3.Vector{})

	t.Run("right hand ignores left samples", func(t *testing.T) {
		p := newProcessor(t, scenarioConfig())

		s := p.OnFrame(active, nil)

		assertNeutral(t, s)
	})

	t.Run("left hand uses left samples", func(t *testing.T) {
		cfg := scenarioConfig()
		cfg.HandSide = hand.Left
		p := newProcessor(t, cfg)

		s := p.OnFrame(active, nil)

		if !s.Active {
			t.Error("expected left hand sample to drive the signal")
		}
	})
}

func TestProcessor_LossOfTracking(t *testing.T) {
	thumb := r3.Vector{X: 0.1}
	ref := r3.Vector{}

	tests := []struct {
		name string
		next *joint.Sample
	}{
		{"hand untracked", nil},
		{"thumb missing", &joint.Sample{Reference: &ref}},
		{"reference missing", &joint.Sample{ThumbTip: &thumb}},
		{"no joints", &joint.Sample{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcessor(t, scenarioConfig())

			if s := p.OnFrame(nil, sample(thumb, ref)); !s.Active {
				t.Fatal("expected first frame to be active")
			}

			s := p.OnFrame(nil, tt.next)
			assertNeutral(t, s)
			assertNeutral(t, p.Signal())
		})
	}
}

func TestProcessor_Idempotent(t *testing.T) {
	p := newProcessor(t, scenarioConfig())
	in := sample(r3.Vector{X: 0.04, Y: -0.07, Z: 0.02}, r3.Vector{X: 0.01})

	first := p.OnFrame(nil, in)
	second := p.OnFrame(nil, in)

	if first != second {
		t.Errorf("same sample produced %+v then %+v", first, second)
	}
}

func TestProcessor_DeadzonePolicy(t *testing.T) {
	origin := r3.Vector{}
	outside := sample(r3.Vector{X: 0.1}, origin)
	inside := sample(r3.Vector{X: 0.01}, origin)

	t.Run("reset policy drops to neutral", func(t *testing.T) {
		p := newProcessor(t, scenarioConfig())

		p.OnFrame(nil, outside)
		s := p.OnFrame(nil, inside)

		assertNeutral(t, s)
	})

	t.Run("hold policy keeps last active signal", func(t *testing.T) {
		cfg := scenarioConfig()
		cfg.DeadzonePolicy = HoldInDeadzone
		p := newProcessor(t, cfg)

		active := p.OnFrame(nil, outside)
		held := p.OnFrame(nil, inside)

		if held != active {
			t.Errorf("held %+v, want %+v", held, active)
		}
	})

	t.Run("hold policy from reset stays reset", func(t *testing.T) {
		cfg := scenarioConfig()
		cfg.DeadzonePolicy = HoldInDeadzone
		p := newProcessor(t, cfg)

		s := p.OnFrame(nil, inside)

		assertNeutral(t, s)
	})

	t.Run("hold policy still resets on lost tracking", func(t *testing.T) {
		cfg := scenarioConfig()
		cfg.DeadzonePolicy = HoldInDeadzone
		p := newProcessor(t, cfg)

		p.OnFrame(nil, outside)
		p.OnFrame(nil, inside)
		s := p.OnFrame(nil, nil)

		assertNeutral(t, s)
	})
}

func TestProcessor_ZeroDeadzoneZeroDistance(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Deadzone = 0
	p := newProcessor(t, cfg)

	s := p.OnFrame(nil, sample(r3.Vector{X: 0.3}, r3.Vector{X: 0.3}))

	assertNeutral(t, s)
	if math.IsNaN(s.Direction.X) {
		t.Error("direction must never be NaN")
	}
}

func TestProcessor_Reset(t *testing.T) {
	p := newProcessor(t, scenarioConfig())
	p.OnFrame(nil, sample(r3.Vector{X: 0.1}, r3.Vector{}))

	p.Reset()

	assertNeutral(t, p.Signal())
}

func randomConfig(rng *rand.Rand) Config {
	maxDistance := 0.01 + rng.Float64()*0.5
	return Config{
		HandSide:       hand.Right,
		Deadzone:       rng.Float64() * maxDistance * 0.99,
		MaxDistance:    maxDistance,
		ScaleFactor:    0.1 + rng.Float64()*20,
		DeadzonePolicy: ResetInDeadzone,
		ReferenceJoint: joint.IndexKnuckle,
	}
}

func randomUnit(rng *rand.Rand) r3.Vector {
	for {
		v := r3.Vector{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1, Z: rng.Float64()*2 - 1}
		if n := v.Norm(); n > 0.1 && n <= 1 {
			return v.Mul(1 / n)
		}
	}
}

func TestProcessor_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		cfg := randomConfig(rng)
		p := newProcessor(t, cfg)

		ref := r3.Vector{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5}
		dir := randomUnit(rng)

		if cfg.Deadzone > 0 {
			d := rng.Float64() * cfg.Deadzone * 0.99
			s := p.OnFrame(nil, sample(ref.Add(dir.Mul(d)), ref))
			if s.Active || s.Magnitude != 0 || s.Direction != (r3.Vector{}) {
				t.Fatalf("case %d: distance %g < deadzone %g gave %+v", i, d, cfg.Deadzone, s)
			}
		}

		d := cfg.Deadzone + 1e-6 + rng.Float64()*cfg.MaxDistance*2
		s := p.OnFrame(nil, sample(ref.Add(dir.Mul(d)), ref))
		if !s.Active {
			t.Fatalf("case %d: distance %g >= deadzone %g should be active", i, d, cfg.Deadzone)
		}

		clamped := math.Min(d, cfg.MaxDistance)
		const tol = 1e-7
		if s.Magnitude < cfg.Deadzone/cfg.MaxDistance-tol || s.Magnitude > 1+tol {
			t.Fatalf("case %d: magnitude %g outside [%g, 1]", i, s.Magnitude, cfg.Deadzone/cfg.MaxDistance)
		}
		if math.Abs(s.Magnitude-clamped/cfg.MaxDistance) > tol {
			t.Fatalf("case %d: magnitude %g, want %g", i, s.Magnitude, clamped/cfg.MaxDistance)
		}
		if math.Abs(s.Direction.Norm()-clamped*cfg.ScaleFactor) > tol*cfg.ScaleFactor {
			t.Fatalf("case %d: |direction| %g, want %g", i, s.Direction.Norm(), clamped*cfg.ScaleFactor)
		}
		if s.Direction.Norm() > cfg.MaxDistance*cfg.ScaleFactor+tol {
			t.Fatalf("case %d: |direction| exceeds bound", i)
		}
		if s.Direction.Normalize().Sub(dir).Norm() > 1e-6 {
			t.Fatalf("case %d: direction %v not aligned with %v", i, s.Direction, dir)
		}
	}
}

func TestProcessor_ConcurrentReadsSeeWholeSnapshots(t *testing.T) {
	p := newProcessor(t, scenarioConfig())
	active := sample(r3.Vector{X: 0.1}, r3.Vector{})

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			if i%2 == 0 {
				p.OnFrame(nil, active)
			} else {
				p.OnFrame(nil, nil)
			}
		}
		close(done)
	}()

	torn := 0
	for {
		select {
		case <-done:
			wg.Wait()
			if torn > 0 {
				t.Errorf("observed %d torn snapshots", torn)
			}
			return
		default:
		}
		s := p.Signal()
		if s.Active && (s.Magnitude == 0 || s.Direction == (r3.Vector{})) {
			torn++
		}
		if !s.Active && (s.Magnitude != 0 || s.Direction != (r3.Vector{})) {
			torn++
		}
	}
}
