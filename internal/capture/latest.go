package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Latest holds the most recent frame as an image for consumers that only
// need a snapshot, such as the preview endpoint.
type Latest struct {
	mu  sync.RWMutex
	img image.Image
	at  time.Time
}

// Store converts frame into an image and keeps it. frame stays owned by the
// caller.
func (l *Latest) Store(frame *gocv.Mat, at time.Time) error {
	if frame == nil || frame.Empty() {
		return ErrNoFrame
	}
	img, err := frame.ToImage()
	if err != nil {
		return err
	}
	l.Set(img, at)
	return nil
}

// Set keeps img as the latest frame.
func (l *Latest) Set(img image.Image, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.img = img
	l.at = at
}

// Image returns the latest frame and when it was taken. ok is false before
// the first frame.
func (l *Latest) Image() (img image.Image, at time.Time, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.img, l.at, l.img != nil
}
