package tracking

import (
	"time"

	"github.com/ayusman/thumbstick/internal/detector"
	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/pose"
)

// AnchorFromLandmarks converts detector landmarks into an anchored skeleton.
// The anchor sits at the wrist; every joint is the landmark's offset from
// the wrist multiplied by scale, which converts normalized image units into
// the tracking length units the signal thresholds are expressed in.
func AnchorFromLandmarks(lm detector.HandLandmarks, scale float64) *hand.Anchor {
	wrist := lm.Points[detector.Wrist].Vector().Mul(scale)

	skel := hand.NewSkeleton()
	for i := 0; i < hand.NumJoints; i++ {
		skel.Set(hand.Joint(i), pose.FromTranslation(lm.Offset(i).Mul(scale)))
	}

	return &hand.Anchor{
		OriginFromAnchor: pose.FromTranslation(wrist),
		Skeleton:         skel,
	}
}

// UpdateFromDetection builds an Update from one frame of detector output.
// When several hands report the same handedness the highest scoring one
// wins. Hands with unrecognised handedness are ignored.
func UpdateFromDetection(hands []detector.HandLandmarks, scale float64, ts time.Time) hand.Update {
	u := hand.Update{Timestamp: ts}
	var leftScore, rightScore float64

	for i := range hands {
		side, err := hand.ParseSide(hands[i].Handedness)
		if err != nil {
			continue
		}
		switch side {
		case hand.Left:
			if u.Left == nil || hands[i].Score > leftScore {
				u.Left = AnchorFromLandmarks(hands[i], scale)
				leftScore = hands[i].Score
			}
		case hand.Right:
			if u.Right == nil || hands[i].Score > rightScore {
				u.Right = AnchorFromLandmarks(hands[i], scale)
				rightScore = hands[i].Score
			}
		}
	}

	return u
}
