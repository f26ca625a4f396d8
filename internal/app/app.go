// Package app provides the main application logic for the mudra gesture
// recorder and matcher.
package app

import (
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// SettingEnabled is the settings key persisting whether recording is enabled.
const SettingEnabled = "capture.enabled"

// outcomeBuffer is the number of finalized gestures queued for the pipeline.
const outcomeBuffer = 16

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	PluginDir     string
	PluginTimeout time.Duration
	Bindings      []plugin.Binding
	MotionThresh  float64
	Matcher       gesture.Options
}

// App owns the capture session and runs the post-match pipeline that records
// attempts and triggers plugin actions.
type App struct {
	config     Config
	session    *Session
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	dispatcher *plugin.Dispatcher
	outcomes   chan Outcome
	mu         sync.Mutex
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	mgr := plugin.NewManager(config.PluginDir)
	exec := plugin.NewExecutor(config.PluginTimeout)

	a := &App{
		config: config,
		session: NewSession(SessionConfig{
			MotionThreshold: config.MotionThresh,
			Matcher:         config.Matcher,
		}),
		pluginMgr:  mgr,
		pluginExec: exec,
		dispatcher: plugin.NewDispatcher(mgr, exec, config.Bindings),
		outcomes:   make(chan Outcome, outcomeBuffer),
	}

	a.session.OnResult(a.enqueue)
	a.loadSettings()

	return a
}

// loadSettings restores persisted settings from the store.
func (a *App) loadSettings() {
	if a.config.Store == nil {
		return
	}

	v, err := a.config.Store.Settings().Get(SettingEnabled)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("app: failed to load %s: %v", SettingEnabled, err)
		}
		return
	}

	enabled, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("app: ignoring %s=%q: %v", SettingEnabled, v, err)
		return
	}
	a.session.SetEnabled(enabled)
}

// Session returns the capture session.
func (a *App) Session() *Session {
	return a.session
}

// SetEnabled enables or disables sample recording and persists the choice.
func (a *App) SetEnabled(enabled bool) {
	a.session.SetEnabled(enabled)

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(SettingEnabled, strconv.FormatBool(enabled)); err != nil {
			log.Printf("app: failed to save %s: %v", SettingEnabled, err)
		}
	}
}

// IsEnabled returns whether sample recording is currently enabled.
func (a *App) IsEnabled() bool {
	return a.session.IsEnabled()
}

// Retune applies new motion and matcher settings to the live session.
// The reference gesture and any gesture in progress are kept.
func (a *App) Retune(motionThreshold float64, opts gesture.Options) {
	a.session.SetMotionThreshold(motionThreshold)
	a.session.SetMatcherOptions(opts)

	applied := a.session.MatcherOptions()
	log.Printf("app: retuned motion threshold %.3f, match threshold %.1f, target size %d, window %d",
		a.session.MotionThreshold(), applied.Threshold, applied.TargetSize, applied.Window)
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}
	log.Printf("app: %d plugins discovered, %d bindings configured",
		len(a.pluginMgr.List()), a.dispatcher.Bindings())
	return nil
}

// Start begins the result pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("app: result pipeline started")
	return nil
}

// Stop halts the result pipeline and waits for the outcome in flight.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	<-doneCh
	log.Println("app: result pipeline stopped")
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the attempt store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}
