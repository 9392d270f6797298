// Package joint extracts the two joint positions the thumb joystick needs
// from one hand's tracking result.
package joint

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/ayusman/thumbstick/internal/hand"
)

// Reference selects the joint the thumb tip is measured against.
type Reference int

const (
	// IndexKnuckle measures against the index finger base knuckle (MCP).
	IndexKnuckle Reference = iota
	// IndexTip measures against the index finger tip.
	IndexTip
)

func (r Reference) String() string {
	switch r {
	case IndexKnuckle:
		return "index_knuckle"
	case IndexTip:
		return "index_tip"
	default:
		return fmt.Sprintf("reference(%d)", int(r))
	}
}

// Joint returns the skeletal joint backing r.
func (r Reference) Joint() hand.Joint {
	if r == IndexTip {
		return hand.IndexTip
	}
	return hand.IndexMCP
}

// Valid reports whether r is a known reference.
func (r Reference) Valid() bool {
	return r == IndexKnuckle || r == IndexTip
}

// ParseReference parses "index_knuckle" (alias "index_mcp") or "index_tip".
func ParseReference(s string) (Reference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "index_knuckle", "index_mcp", "knuckle":
		return IndexKnuckle, nil
	case "index_tip", "tip":
		return IndexTip, nil
	default:
		return 0, fmt.Errorf("joint: unknown reference %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reference) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("joint: invalid reference %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reference) UnmarshalText(text []byte) error {
	parsed, err := ParseReference(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Sample is the extraction result for one hand and one frame. A nil field
// means that joint was not tracked.
type Sample struct {
	ThumbTip  *r3.Vector
	Reference *r3.Vector
}

// Complete reports whether both joints were tracked.
func (s Sample) Complete() bool {
	return s.ThumbTip != nil && s.Reference != nil
}

// Extractor turns an anchored skeleton into a Sample. It is stateless and
// safe for concurrent use.
type Extractor struct {
	reference Reference
}

// NewExtractor returns an extractor measuring against ref.
func NewExtractor(ref Reference) Extractor {
	return Extractor{reference: ref}
}

// Reference returns the configured reference joint.
func (e Extractor) Reference() Reference {
	return e.reference
}

// Extract locates the thumb tip and the reference joint in the origin frame.
func (e Extractor) Extract(a *hand.Anchor) Sample {
	if a == nil || a.Skeleton == nil {
		return Sample{}
	}
	return Sample{
		ThumbTip:  worldPosition(a, hand.ThumbTip),
		Reference: worldPosition(a, e.reference.Joint()),
	}
}

func worldPosition(a *hand.Anchor, j hand.Joint) *r3.Vector {
	anchorFromJoint, ok := a.Skeleton.Joint(j)
	if !ok {
		return nil
	}
	p := a.OriginFromAnchor.Compose(anchorFromJoint).Translation()
	return &p
}
