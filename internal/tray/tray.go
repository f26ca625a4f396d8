// Package tray provides a system tray interface for the mudra gesture recorder.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onCommit    func()
	onFinalize  func()
	onDashboard func()
	onQuit      func()
	enabled     bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuLastResult *systray.MenuItem
}

// New creates a new Tray with the given initial enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when recording is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnCommit sets the callback run by "Save and end gesture".
func (t *Tray) OnCommit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCommit = fn
}

// OnFinalize sets the callback run by "End gesture".
func (t *Tray) OnFinalize(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFinalize = fn
}

// OnDashboard sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture recorder")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle sample recording")
	systray.AddSeparator()

	menuCommit := systray.AddMenuItem("Save and end gesture", "Store the gesture in progress as the reference")
	menuFinalize := systray.AddMenuItem("End gesture", "Compare the gesture in progress with the reference")
	systray.AddSeparator()

	t.menuLastResult = systray.AddMenuItem("Last: none", "Last match result")
	t.menuLastResult.Disable()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the live plot in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuCommit.ClickedCh:
				t.call(func() func() { return t.onCommit })
			case <-menuFinalize.ClickedCh:
				t.call(func() func() { return t.onFinalize })
			case <-menuDashboard.ClickedCh:
				t.call(func() func() { return t.onDashboard })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Recording"
	}
	return "○ Paused"
}

// call runs the callback chosen by pick outside the lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// SetLastResult updates the last result display in the menu.
func (t *Tray) SetLastResult(result string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastResult == nil {
		return
	}
	if result == "" {
		t.menuLastResult.SetTitle("Last: none")
	} else {
		t.menuLastResult.SetTitle("Last: " + result)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
