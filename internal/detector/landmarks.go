package detector

import (
	"math"

	"github.com/golang/geo/r3"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by MediaPipe.
const (
	HandednessLeft  = "Left"
	HandednessRight = "Right"
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector converts the point to an r3.Vector.
func (p Point3D) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Distance returns the Euclidean distance between landmarks a and b.
// Out of range indices yield NaN.
func (h *HandLandmarks) Distance(a, b int) float64 {
	if a < 0 || a >= NumLandmarks || b < 0 || b >= NumLandmarks {
		return math.NaN()
	}
	return h.Points[a].Vector().Distance(h.Points[b].Vector())
}

// Offset returns the landmark at idx relative to the wrist.
func (h *HandLandmarks) Offset(idx int) r3.Vector {
	return h.Points[idx].Vector().Sub(h.Points[Wrist].Vector())
}
