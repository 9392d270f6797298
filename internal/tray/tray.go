// Package tray provides a system tray menu for toggling the thumbstick.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/thumbstick/internal/signal"
)

// Tray is the system tray menu.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	menuToggle *systray.MenuItem
	menuSignal *systray.MenuItem
}

// New returns a Tray that starts enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback run when the stick is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback run when Open Settings is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run blocks until Quit is clicked or systray.Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Thumbstick")
	systray.SetTooltip("Thumbstick hand controller")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()
	t.menuSignal = systray.AddMenuItem(SignalTitle(signal.Neutral), "Current stick signal")
	t.menuSignal.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Thumbstick")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// Toggle flips the enabled state and runs the toggle callback.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// outside the lock so the callback may call back into the tray
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetSignal shows s in the menu.
func (t *Tray) SetSignal(s signal.Signal) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuSignal != nil {
		t.menuSignal.SetTitle(SignalTitle(s))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

// SignalTitle formats s for the menu.
func SignalTitle(s signal.Signal) string {
	if !s.Active {
		return "Stick: centred"
	}
	return fmt.Sprintf("Stick: %.0f%% (%+.2f, %+.2f, %+.2f)",
		s.Magnitude*100, s.Direction.X, s.Direction.Y, s.Direction.Z)
}
