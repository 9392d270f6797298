// Package app wires configuration, persistence, tracking, the controller
// and the HTTP surface into a running thumbstick.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/thumbstick/internal/capture"
	"github.com/ayusman/thumbstick/internal/config"
	"github.com/ayusman/thumbstick/internal/controller"
	"github.com/ayusman/thumbstick/internal/detector"
	"github.com/ayusman/thumbstick/internal/log"
	"github.com/ayusman/thumbstick/internal/server"
	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/store"
	"github.com/ayusman/thumbstick/internal/tracking"
	"github.com/ayusman/thumbstick/internal/tray"
)

// trayRefresh is how often the tray menu shows the current signal.
const trayRefresh = 250 * time.Millisecond

// Config holds the application's dependencies.
type Config struct {
	Settings *config.Config
	// Store is optional. Without it profiles, bindings and replay are
	// unavailable.
	Store *store.Store
	// Source overrides the source built from Settings.Tracking.
	Source tracking.Source
}

// App owns a controller and its source.
type App struct {
	settings   *config.Config
	store      *store.Store
	source     tracking.Source
	detector   detector.Detector
	latest     *capture.Latest
	controller *controller.Controller
	server     *server.Server
	profile    *store.Profile
	logger     *slog.Logger

	mu      sync.Mutex
	enabled bool
}

// New resolves the active controller profile, builds the tracking source
// and returns a stopped App.
func New(cfg Config) (*App, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	a := &App{
		settings: settings,
		store:    cfg.Store,
		latest:   &capture.Latest{},
		logger:   log.With("component", "app"),
	}

	profile, err := activeProfile(cfg.Store)
	if err != nil {
		return nil, err
	}
	sigCfg := settings.Controller
	if profile != nil {
		sigCfg = profile.SignalConfig()
	}
	a.profile = profile

	a.source = cfg.Source
	if a.source == nil {
		if err := a.buildSource(); err != nil {
			return nil, err
		}
	}

	a.controller, err = controller.New(a.source, sigCfg)
	if err != nil {
		return nil, err
	}

	a.server = server.New(server.Config{
		StaticDir: settings.Server.StaticDir,
		Store:     cfg.Store,
		Signal:    a.controller,
		Preview:   a.latest,
		Tick:      time.Duration(settings.Server.TickMs) * time.Millisecond,
	})
	return a, nil
}

// ResolveSignalConfig returns the active profile's controller config when
// the store names one, else the config file's controller section. The
// second result is the profile name, empty when none is active.
func ResolveSignalConfig(settings *config.Config, st *store.Store) (signal.Config, string, error) {
	p, err := activeProfile(st)
	if err != nil {
		return signal.Config{}, "", err
	}
	if p == nil {
		return settings.Controller, "", nil
	}
	return p.SignalConfig(), p.Name, nil
}

// activeProfile returns the profile the settings table names, or nil when
// there is no store, no active profile, or the profile was deleted.
func activeProfile(st *store.Store) (*store.Profile, error) {
	if st == nil {
		return nil, nil
	}
	id, err := st.Settings().Get(store.SettingActiveProfile)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("app: read active profile: %w", err)
	}
	p, err := st.Profiles().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("active profile is gone, using config file", "profile_id", id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("app: load profile %s: %w", id, err)
	}
	return p, nil
}

func (a *App) buildSource() error {
	t := a.settings.Tracking
	switch t.Source {
	case config.SourceReplay:
		if a.store == nil {
			return fmt.Errorf("app: replay needs a store")
		}
		frames, err := a.store.Recordings().Frames(t.RecordingID)
		if err != nil {
			return fmt.Errorf("app: load recording %s: %w", t.RecordingID, err)
		}
		a.source = tracking.NewReplaySource(frames,
			tracking.WithSpeed(t.ReplaySpeed), tracking.WithLoop(t.ReplayLoop))
		a.logger.Info("replaying recording", "recording_id", t.RecordingID, "frames", len(frames))

	default:
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			a.logger.Info("using MediaPipe hand detection")
		} else {
			a.logger.Warn("MediaPipe not available, using mock detector", "error", err)
			a.detector = detector.NewMockDetector()
		}

		dev := capture.DefaultDeviceConfig()
		dev.DeviceID = t.CameraID
		var motion *capture.MotionDetector
		if t.MotionGating {
			motion = capture.NewMotionDetector(t.MotionThreshold)
		}
		a.source = tracking.NewCameraSource(tracking.CameraConfig{
			Camera:        capture.NewCamera(dev),
			Detector:      a.detector,
			Motion:        motion,
			Latest:        a.latest,
			LandmarkScale: t.LandmarkScale,
		})
	}
	return nil
}

// Start starts tracking.
func (a *App) Start(ctx context.Context) error {
	if err := a.controller.Start(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.enabled = true
	a.mu.Unlock()
	a.logger.Info("thumbstick started", "profile", a.Profile())
	return nil
}

// Stop stops tracking and returns the signal to neutral.
func (a *App) Stop() {
	a.controller.Stop()
	a.mu.Lock()
	a.enabled = false
	a.mu.Unlock()
}

// SetEnabled starts or stops tracking.
func (a *App) SetEnabled(ctx context.Context, enabled bool) error {
	if enabled {
		return a.Start(ctx)
	}
	a.Stop()
	return nil
}

// IsEnabled reports whether tracking is running.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Close stops tracking and releases the detector.
func (a *App) Close() error {
	a.Stop()
	if a.detector != nil {
		return a.detector.Close()
	}
	return nil
}

// Run starts tracking and serves HTTP until ctx is cancelled. With the tray
// enabled Run must be called from the main goroutine.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Close()

	if !a.settings.Server.Tray {
		return a.server.Run(ctx, a.settings.Server.Addr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run(ctx, a.settings.Server.Addr)
	}()

	t := tray.New()
	t.OnToggle(func(enabled bool) {
		if err := a.SetEnabled(ctx, enabled); err != nil {
			a.logger.Error("toggling tracking", "error", err)
		}
	})
	t.OnQuit(cancel)
	go a.refreshTray(ctx, t)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-errCh
}

func (a *App) refreshTray(ctx context.Context, t *tray.Tray) {
	ticker := time.NewTicker(trayRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.SetSignal(a.controller.Signal())
		}
	}
}

// Controller returns the thumb controller.
func (a *App) Controller() *controller.Controller {
	return a.controller
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Source returns the tracking source.
func (a *App) Source() tracking.Source {
	return a.source
}

// Profile returns the active profile's name, empty when the config file's
// controller section is in use.
func (a *App) Profile() string {
	if a.profile == nil {
		return ""
	}
	return a.profile.Name
}

// Bindings returns the entity bindings of the active profile. Without a
// store or an active profile there are none.
func (a *App) Bindings() ([]store.Binding, error) {
	if a.store == nil || a.profile == nil {
		return nil, nil
	}
	return a.store.Bindings().List(a.profile.ID)
}
