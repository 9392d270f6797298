// Package config loads the thumbstick configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/thumbstick/internal/scene"
	"github.com/ayusman/thumbstick/internal/signal"
)

const (
	DefaultAddr            = ":8080"
	DefaultTickMs          = 33
	DefaultCameraID        = 0
	DefaultMotionThreshold = 1.0
	DefaultLandmarkScale   = 1.0
	DefaultLogLevel        = "info"
	DefaultDataDir         = ".thumbstick"
	DefaultDBName          = "thumbstick.db"
)

// Tracking source kinds.
const (
	SourceCamera = "camera"
	SourceReplay = "replay"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Controller signal.Config  `yaml:"controller"`
	Tracking   TrackingConfig `yaml:"tracking"`
	Scene      SceneConfig    `yaml:"scene"`
	Server     ServerConfig   `yaml:"server"`
	Store      StoreConfig    `yaml:"store"`
	LogLevel   string         `yaml:"log_level"`
}

type TrackingConfig struct {
	Source          string  `yaml:"source"`
	CameraID        int     `yaml:"camera_id"`
	MotionGating    bool    `yaml:"motion_gating"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	LandmarkScale   float64 `yaml:"landmark_scale"`
	RecordingID     string  `yaml:"recording_id,omitempty"`
	ReplaySpeed     float64 `yaml:"replay_speed"`
	ReplayLoop      bool    `yaml:"replay_loop"`
}

type SceneConfig struct {
	Gain float64 `yaml:"gain"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir,omitempty"`
	TickMs    int    `yaml:"tick_ms"`
	Tray      bool   `yaml:"tray"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// DataDir returns ~/.thumbstick, or .thumbstick when the home directory is
// unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// DefaultPath is where the CLI looks for a config file.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

func DefaultConfig() *Config {
	return &Config{
		Controller: signal.DefaultConfig(),
		Tracking: TrackingConfig{
			Source:          SourceCamera,
			CameraID:        DefaultCameraID,
			MotionGating:    true,
			MotionThreshold: DefaultMotionThreshold,
			LandmarkScale:   DefaultLandmarkScale,
			ReplaySpeed:     1,
		},
		Scene: SceneConfig{Gain: scene.DefaultGain},
		Server: ServerConfig{
			Addr:   DefaultAddr,
			TickMs: DefaultTickMs,
		},
		Store:    StoreConfig{Path: filepath.Join(DataDir(), DefaultDBName)},
		LogLevel: DefaultLogLevel,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return fmt.Errorf("%w: controller: %w", ErrInvalid, err)
	}
	switch c.Tracking.Source {
	case SourceCamera:
	case SourceReplay:
		if c.Tracking.RecordingID == "" {
			return fmt.Errorf("%w: replay source needs tracking.recording_id", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown tracking source %q", ErrInvalid, c.Tracking.Source)
	}
	if c.Tracking.LandmarkScale <= 0 {
		return fmt.Errorf("%w: tracking.landmark_scale must be positive", ErrInvalid)
	}
	if c.Scene.Gain <= 0 {
		return fmt.Errorf("%w: scene.gain must be positive", ErrInvalid)
	}
	if c.Server.TickMs <= 0 {
		return fmt.Errorf("%w: server.tick_ms must be positive", ErrInvalid)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is empty", ErrInvalid)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
