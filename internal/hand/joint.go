package hand

import (
	"fmt"
	"strings"
)

// Joint names a skeletal joint. Values follow the MediaPipe hand landmark
// order, wrist first and four joints per digit from thumb to little finger.
type Joint int

const (
	Wrist Joint = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	LittleMCP
	LittlePIP
	LittleDIP
	LittleTip
)

// NumJoints is the number of joints in a full hand skeleton.
const NumJoints = 21

var jointNames = [NumJoints]string{
	"wrist",
	"thumb_cmc", "thumb_mcp", "thumb_ip", "thumb_tip",
	"index_mcp", "index_pip", "index_dip", "index_tip",
	"middle_mcp", "middle_pip", "middle_dip", "middle_tip",
	"ring_mcp", "ring_pip", "ring_dip", "ring_tip",
	"little_mcp", "little_pip", "little_dip", "little_tip",
}

func (j Joint) String() string {
	if j < 0 || int(j) >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint parses a joint name such as "thumb_tip".
func ParseJoint(s string) (Joint, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range jointNames {
		if n == name {
			return Joint(i), nil
		}
	}
	return 0, fmt.Errorf("hand: unknown joint %q", s)
}

// MarshalText implements encoding.TextMarshaler so joints can key JSON maps.
func (j Joint) MarshalText() ([]byte, error) {
	if j < 0 || int(j) >= NumJoints {
		return nil, fmt.Errorf("hand: invalid joint %d", int(j))
	}
	return []byte(jointNames[j]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (j *Joint) UnmarshalText(text []byte) error {
	parsed, err := ParseJoint(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}
