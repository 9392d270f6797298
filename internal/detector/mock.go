package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// RestingLandmarks returns a relaxed open hand with the thumb tucked against
// the index knuckle. Coordinates are in normalized image units.
func RestingLandmarks(handedness string) HandLandmarks {
	// Mirror the lateral axis for a left hand.
	sx := 1.0
	if handedness == HandednessLeft {
		sx = -1.0
	}
	at := func(x, y, z float64) Point3D {
		return Point3D{X: 0.5 + sx*x, Y: y, Z: z}
	}

	landmarks := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}

	landmarks.Points[Wrist] = at(0.0, 0.80, 0.0)

	landmarks.Points[ThumbCMC] = at(0.04, 0.76, 0.0)
	landmarks.Points[ThumbMCP] = at(0.06, 0.72, 0.0)
	landmarks.Points[ThumbIP] = at(0.06, 0.70, 0.0)
	// Thumb tip rests on the index knuckle.
	landmarks.Points[ThumbTip] = at(0.05, 0.68, 0.0)

	landmarks.Points[IndexMCP] = at(0.05, 0.68, 0.0)
	landmarks.Points[IndexPIP] = at(0.07, 0.55, 0.0)
	landmarks.Points[IndexDIP] = at(0.08, 0.45, 0.0)
	landmarks.Points[IndexTip] = at(0.08, 0.35, 0.0)

	landmarks.Points[MiddleMCP] = at(0.0, 0.66, 0.0)
	landmarks.Points[MiddlePIP] = at(0.0, 0.52, 0.0)
	landmarks.Points[MiddleDIP] = at(0.0, 0.40, 0.0)
	landmarks.Points[MiddleTip] = at(0.0, 0.28, 0.0)

	landmarks.Points[RingMCP] = at(-0.05, 0.68, 0.0)
	landmarks.Points[RingPIP] = at(-0.07, 0.55, 0.0)
	landmarks.Points[RingDIP] = at(-0.08, 0.45, 0.0)
	landmarks.Points[RingTip] = at(-0.08, 0.35, 0.0)

	landmarks.Points[PinkyMCP] = at(-0.10, 0.70, 0.0)
	landmarks.Points[PinkyPIP] = at(-0.13, 0.60, 0.0)
	landmarks.Points[PinkyDIP] = at(-0.15, 0.50, 0.0)
	landmarks.Points[PinkyTip] = at(-0.16, 0.42, 0.0)

	return landmarks
}

// ThumbOffsetLandmarks returns RestingLandmarks with the thumb tip pushed
// away from the index knuckle by offset.
func ThumbOffsetLandmarks(handedness string, offset Point3D) HandLandmarks {
	landmarks := RestingLandmarks(handedness)
	knuckle := landmarks.Points[IndexMCP]
	landmarks.Points[ThumbTip] = Point3D{
		X: knuckle.X + offset.X,
		Y: knuckle.Y + offset.Y,
		Z: knuckle.Z + offset.Z,
	}
	return landmarks
}
