// Package capture reads frames from a webcam with GoCV and decides how fast
// to read them.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("capture: camera is not open")
	// ErrNoFrame is returned when the device produced no usable frame.
	ErrNoFrame = errors.New("capture: no frame")
)

// Camera is a frame source. ReadFrame hands ownership of the returned Mat to
// the caller, who must Close it.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// DeviceConfig describes a capture device.
type DeviceConfig struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
}

// DefaultDeviceConfig returns the settings used for the tracking camera.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		DeviceID: 0,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      IdleFPS,
	}
}

type device struct {
	cfg     DeviceConfig
	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// NewCamera returns a Camera for the given device. Nothing is opened until
// Open is called.
func NewCamera(cfg DeviceConfig) Camera {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = IdleFPS
	}
	return &device{cfg: cfg}
}

func (d *device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(d.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("capture: open device %d: %w", d.cfg.DeviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("capture: device %d did not open", d.cfg.DeviceID)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(d.cfg.FPS))

	d.capture = vc
	return nil
}

func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

func (d *device) ReadFrame() (*gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := d.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrNoFrame
	}
	return &mat, nil
}

// SetFPS ignores non-positive values.
func (d *device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg.FPS = fps
	if d.capture != nil {
		d.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (d *device) FPS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.FPS
}

func (d *device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capture != nil
}
