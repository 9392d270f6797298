package main

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/spf13/pflag"

	"github.com/ayusman/thumbstick/internal/config"
	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/joint"
	"github.com/ayusman/thumbstick/internal/pose"
	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/tracking"
)

func addCommand(t *testing.T, args ...string) (signal.Config, error) {
	t.Helper()
	root := newProfilesCmd()
	add, _, err := root.Find([]string{"add"})
	if err != nil {
		t.Fatalf("Find(add) error = %v", err)
	}
	// flags are package vars; reset between cases
	add.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false; _ = f.Value.Set(f.DefValue) })
	if err := add.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return profileConfig(add)
}

func TestProfileConfig(t *testing.T) {
	t.Run("preset only", func(t *testing.T) {
		cfg, err := addCommand(t, "--preset", "gentle")
		if err != nil {
			t.Fatalf("profileConfig() error = %v", err)
		}
		if cfg != config.GentleConfig() {
			t.Errorf("cfg = %+v, want gentle preset", cfg)
		}
	})

	t.Run("flags override preset", func(t *testing.T) {
		cfg, err := addCommand(t, "--hand", "left", "--deadzone-policy", "hold", "--reference", "index_tip", "--deadzone", "0.05")
		if err != nil {
			t.Fatalf("profileConfig() error = %v", err)
		}
		if cfg.HandSide != hand.Left || cfg.DeadzonePolicy != signal.HoldInDeadzone || cfg.ReferenceJoint != joint.IndexTip {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Deadzone != 0.05 {
			t.Errorf("deadzone = %v, want 0.05", cfg.Deadzone)
		}
	})

	t.Run("invalid thresholds", func(t *testing.T) {
		_, err := addCommand(t, "--deadzone", "0.5")
		if !errors.Is(err, signal.ErrInvalidConfig) {
			t.Errorf("profileConfig() = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		if _, err := addCommand(t, "--preset", "turbo"); err == nil {
			t.Error("unknown preset should fail")
		}
	})
}

func TestReplayThrough(t *testing.T) {
	knuckle := r3.Vector{X: 0.02, Y: 0.08}
	frame := func(offset time.Duration, thumb r3.Vector) tracking.Frame {
		skel := hand.NewSkeleton()
		skel.Set(hand.IndexMCP, pose.FromTranslation(knuckle))
		skel.Set(hand.ThumbTip, pose.FromTranslation(knuckle.Add(thumb)))
		return tracking.Frame{
			Offset: offset,
			Update: hand.Update{Right: &hand.Anchor{OriginFromAnchor: pose.Identity(), Skeleton: skel}},
		}
	}
	src := tracking.NewReplaySource([]tracking.Frame{
		frame(0, r3.Vector{X: 0.1}),
		frame(10*time.Millisecond, r3.Vector{X: 0.01}),
		frame(20*time.Millisecond, r3.Vector{Z: 0.3}),
	}, tracking.WithSpeed(0))

	got, err := replayThrough(src, signal.DefaultConfig())
	if err != nil {
		t.Fatalf("replayThrough() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d signals, want 3", len(got))
	}
	if !got[0].Active || math.Abs(got[0].Magnitude-0.1/0.15) > 1e-9 {
		t.Errorf("frame 0 = %+v", got[0])
	}
	if got[1] != signal.Neutral {
		t.Errorf("frame 1 = %+v, want neutral", got[1])
	}
	if !got[2].Active || got[2].Magnitude != 1 {
		t.Errorf("frame 2 = %+v, want full magnitude", got[2])
	}
}
