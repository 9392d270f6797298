// Package hand models per-frame skeletal hand tracking data.
//
// A tracking frame carries zero or one Anchor per hand side. An Anchor
// places the hand in the world; its Skeleton places each tracked joint
// relative to the anchor. Absence at any level means "not tracked this
// frame" and is never an error.
package hand

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/thumbstick/internal/pose"
)

// Side selects a hand.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Valid reports whether s is Left or Right.
func (s Side) Valid() bool {
	return s == Left || s == Right
}

// ParseSide parses "left" or "right", case-insensitively. MediaPipe's
// "Left"/"Right" handedness labels are accepted as-is.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("hand: unknown side %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("hand: invalid side %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Skeleton holds the joints tracked this frame, each as an anchor-from-joint
// transform. A joint missing from Joints was not tracked.
type Skeleton struct {
	Joints map[Joint]pose.Transform `json:"joints"`
}

// NewSkeleton returns an empty skeleton.
func NewSkeleton() *Skeleton {
	return &Skeleton{Joints: make(map[Joint]pose.Transform)}
}

// Set records the anchor-from-joint transform for j.
func (s *Skeleton) Set(j Joint, anchorFromJoint pose.Transform) {
	if s.Joints == nil {
		s.Joints = make(map[Joint]pose.Transform)
	}
	s.Joints[j] = anchorFromJoint
}

// Joint returns the anchor-from-joint transform for j, if tracked.
func (s *Skeleton) Joint(j Joint) (pose.Transform, bool) {
	if s == nil {
		return pose.Transform{}, false
	}
	t, ok := s.Joints[j]
	return t, ok
}

// Anchor is one hand's tracking result for a frame.
type Anchor struct {
	OriginFromAnchor pose.Transform `json:"origin_from_anchor"`
	Skeleton         *Skeleton      `json:"skeleton,omitempty"`
}

// Update is one tracking frame for both hands.
type Update struct {
	Left      *Anchor   `json:"left,omitempty"`
	Right     *Anchor   `json:"right,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hand returns the anchor for side, or nil when that hand is untracked.
func (u Update) Hand(side Side) *Anchor {
	switch side {
	case Left:
		return u.Left
	case Right:
		return u.Right
	default:
		return nil
	}
}
