package config

import (
	"sort"

	"github.com/ayusman/thumbstick/internal/signal"
)

// GentleConfig is a wide deadzone and a long throw for fine positioning.
func GentleConfig() signal.Config {
	cfg := signal.DefaultConfig()
	cfg.Deadzone = 0.03
	cfg.MaxDistance = 0.2
	cfg.ScaleFactor = 5
	return cfg
}

// ResponsiveConfig is a tight deadzone and a short throw.
func ResponsiveConfig() signal.Config {
	cfg := signal.DefaultConfig()
	cfg.Deadzone = 0.01
	cfg.MaxDistance = 0.1
	cfg.ScaleFactor = 15
	return cfg
}

var Presets = map[string]func() signal.Config{
	"default":    signal.DefaultConfig,
	"gentle":     GentleConfig,
	"responsive": ResponsiveConfig,
}

// GetPreset returns the named controller preset.
func GetPreset(name string) (signal.Config, bool) {
	fn, ok := Presets[name]
	if !ok {
		return signal.Config{}, false
	}
	return fn(), true
}

// ListPresets returns preset names in order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
