package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/thumbstick/internal/capture"
	"github.com/ayusman/thumbstick/internal/detector"
	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/log"
)

// DefaultLandmarkScale converts normalized image landmark units into the
// length units the signal thresholds use.
const DefaultLandmarkScale = 1.0

// CameraConfig wires a CameraSource.
type CameraConfig struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Motion gates detection: while nothing moves the loop drops to
	// capture.IdleFPS and skips detection. Nil disables gating.
	Motion *capture.MotionDetector
	// Rate switches frame rates. Nil uses capture.NewRateController.
	Rate *capture.RateController
	// Latest, if set, receives every captured frame.
	Latest        *capture.Latest
	LandmarkScale float64
	Logger        *slog.Logger
}

// CameraSource runs hand detection on webcam frames.
type CameraSource struct {
	hub

	cfg    CameraConfig
	logger *slog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCameraSource returns a source over cfg.Camera and cfg.Detector.
func NewCameraSource(cfg CameraConfig) *CameraSource {
	if cfg.LandmarkScale <= 0 {
		cfg.LandmarkScale = DefaultLandmarkScale
	}
	if cfg.Rate == nil {
		cfg.Rate = capture.NewRateController()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.With("component", "camera-source")
	}
	return &CameraSource{cfg: cfg, logger: logger}
}

// Start opens the camera and starts the capture loop. Calling Start on a
// running source does nothing.
func (s *CameraSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return nil
	}
	if s.cfg.Camera == nil || s.cfg.Detector == nil {
		return fmt.Errorf("%w: camera source needs a camera and a detector", ErrTrackingUnavailable)
	}
	if err := s.cfg.Camera.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrTrackingUnavailable, err)
	}

	if s.cfg.Motion == nil {
		s.cfg.Rate.Force(true, time.Now())
	}
	s.cfg.Camera.SetFPS(s.cfg.Rate.FPS())

	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.run(ctx, s.stopCh)

	s.logger.Info("camera source started", "fps", s.cfg.Rate.FPS())
	return nil
}

// Stop halts the capture loop and closes the camera.
func (s *CameraSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
	s.stopCh = nil

	if err := s.cfg.Camera.Close(); err != nil {
		s.logger.Warn("closing camera", "error", err)
	}
	if s.cfg.Motion != nil {
		s.cfg.Motion.Reset()
	}
	s.logger.Info("camera source stopped")
}

func (s *CameraSource) run(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Rate.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.step() {
				ticker.Reset(s.cfg.Rate.Interval())
			}
		}
	}
}

// step processes one frame and reports whether the frame rate changed.
func (s *CameraSource) step() (rateChanged bool) {
	frame, err := s.cfg.Camera.ReadFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrNoFrame) {
			s.logger.Warn("reading frame", "error", err)
		}
		return false
	}
	defer frame.Close()

	now := time.Now()
	if s.cfg.Latest != nil {
		if err := s.cfg.Latest.Store(frame, now); err != nil {
			s.logger.Debug("storing preview frame", "error", err)
		}
	}

	if s.cfg.Motion != nil {
		moved, changed := s.cfg.Motion.Detect(frame)
		if s.cfg.Rate.Observe(moved, now) {
			rateChanged = true
			s.cfg.Camera.SetFPS(s.cfg.Rate.FPS())
			s.logger.Debug("frame rate changed", "fps", s.cfg.Rate.FPS(), "motion_pct", changed)
		}
		if !s.cfg.Rate.Active() {
			return rateChanged
		}
	}

	hands, err := s.cfg.Detector.Detect(frame)
	if err != nil {
		s.logger.Warn("detecting hands", "error", err)
		return rateChanged
	}

	s.publish(UpdateFromDetection(hands, s.cfg.LandmarkScale, now))
	return rateChanged
}
