package tracking

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/ayusman/thumbstick/internal/capture"
	"github.com/ayusman/thumbstick/internal/detector"
	"github.com/ayusman/thumbstick/internal/hand"
)

func TestCameraSource_StartFailure(t *testing.T) {
	t.Run("camera will not open", func(t *testing.T) {
		cam := capture.NewMockCamera(nil, false)
		cam.FailOpen(errors.New("no device"))
		src := NewCameraSource(CameraConfig{Camera: cam, Detector: detector.NewMockDetector()})

		err := src.Start(context.Background())
		if !errors.Is(err, ErrTrackingUnavailable) {
			t.Errorf("Start() = %v, want ErrTrackingUnavailable", err)
		}
		src.Stop()
	})

	t.Run("no detector", func(t *testing.T) {
		src := NewCameraSource(CameraConfig{Camera: capture.NewMockCamera(nil, false)})

		if err := src.Start(context.Background()); !errors.Is(err, ErrTrackingUnavailable) {
			t.Errorf("Start() = %v, want ErrTrackingUnavailable", err)
		}
	})
}

func TestCameraSource_PublishesDetections(t *testing.T) {
	cam := capture.NewMockCamera(capture.SolidFrames(2, 64, 48,
		color.RGBA{A: 255}, color.RGBA{R: 40, A: 255}), true)
	defer cam.Release()

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{
		detector.ThumbOffsetLandmarks(detector.HandednessRight, detector.Point3D{X: 0.05}),
	})

	var latest capture.Latest
	rate := capture.NewRateController()
	rate.ActiveFPS = 200

	src := NewCameraSource(CameraConfig{
		Camera:   cam,
		Detector: det,
		Rate:     rate,
		Latest:   &latest,
	})

	updates := make(chan hand.Update, 16)
	unsub := src.Subscribe(func(u hand.Update) {
		select {
		case updates <- u:
		default:
		}
	})
	defer unsub()

	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer src.Stop()

	select {
	case u := <-updates:
		if u.Right == nil {
			t.Fatal("expected a right hand anchor")
		}
		if u.Left != nil {
			t.Error("expected no left hand anchor")
		}
		if u.Timestamp.IsZero() {
			t.Error("update should carry a timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
	}

	if _, _, ok := latest.Image(); !ok {
		t.Error("captured frames should reach the preview buffer")
	}
	if det.Calls() == 0 {
		t.Error("detector was never called")
	}
}

func TestCameraSource_NoHandsStillPublishes(t *testing.T) {
	cam := capture.NewMockCamera(capture.SolidFrames(1, 32, 32, color.RGBA{A: 255}, color.RGBA{A: 255}), true)
	defer cam.Release()

	rate := capture.NewRateController()
	rate.ActiveFPS = 200
	src := NewCameraSource(CameraConfig{Camera: cam, Detector: detector.NewMockDetector(), Rate: rate})

	updates := make(chan hand.Update, 1)
	src.Subscribe(func(u hand.Update) {
		select {
		case updates <- u:
		default:
		}
	})

	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer src.Stop()

	select {
	case u := <-updates:
		if u.Left != nil || u.Right != nil {
			t.Error("expected an update with both hands untracked")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
	}
}

func TestCameraSource_StopIsIdempotent(t *testing.T) {
	cam := capture.NewMockCamera(capture.SolidFrames(1, 16, 16, color.RGBA{}, color.RGBA{}), true)
	defer cam.Release()
	src := NewCameraSource(CameraConfig{Camera: cam, Detector: detector.NewMockDetector()})

	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := src.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	src.Stop()
	src.Stop()

	if cam.IsOpen() {
		t.Error("camera should be closed after Stop")
	}
}
