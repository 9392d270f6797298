package capture

import (
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera serves a fixed sequence of frames. Every ReadFrame returns a
// clone, so callers may Close what they receive.
type MockCamera struct {
	mu      sync.Mutex
	frames  []gocv.Mat
	next    int
	loop    bool
	open    bool
	fps     int
	openErr error
}

// NewMockCamera takes ownership of frames; they are released by Release.
func NewMockCamera(frames []gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, fps: IdleFPS}
}

// SolidFrames builds n frames of the given size, alternating between the
// two colours. Alternating colours register as motion.
func SolidFrames(n, width, height int, a, b color.RGBA) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		c := a
		if i%2 == 1 {
			c = b
		}
		frames[i] = gocv.NewMatWithSizeFromScalar(
			gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0),
			height, width, gocv.MatTypeCV8UC3,
		)
	}
	return frames
}

// FailOpen makes the next Open calls return err.
func (c *MockCamera) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if len(c.frames) == 0 {
		return nil, ErrNoFrame
	}
	if c.next >= len(c.frames) {
		if !c.loop {
			return nil, ErrNoFrame
		}
		c.next = 0
	}

	frame := c.frames[c.next].Clone()
	c.next++
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Release closes the frames held by the camera.
func (c *MockCamera) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.frames {
		c.frames[i].Close()
	}
	c.frames = nil
}
