package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/ingest"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to the config file (default ~/.mudra/config.toml)")
	withTray := flag.Bool("tray", false, "show a system tray menu")
	flag.Parse()

	fmt.Println("Mudra - Gyroscope Gesture Recorder")

	if err := run(*configPath, *withTray); err != nil {
		log.Fatalf("mudra: %v", err)
	}
}

func run(configPath string, withTray bool) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", loader.Path(), err)
	}
	defer loader.Close()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	bindings, err := pluginBindings(cfg.Plugins.Bindings)
	if err != nil {
		return err
	}

	a := app.New(app.Config{
		Store:         st,
		PluginDir:     cfg.Plugins.Dir,
		PluginTimeout: cfg.Plugins.Timeout(),
		Bindings:      bindings,
		MotionThresh:  cfg.Capture.MotionThreshold,
		Matcher:       matcherOptions(cfg),
	})
	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("mudra: plugin discovery failed: %v", err)
	}
	if err := a.Start(); err != nil {
		return err
	}
	defer a.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := a.Session()

	if cfg.MQTT.Enabled {
		src := ingest.NewMQTTSource(ingest.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      byte(cfg.MQTT.QoS),
		}, session, session)
		if err := src.Start(); err != nil {
			return fmt.Errorf("start MQTT source: %w", err)
		}
		defer src.Stop()

		session.OnResult(func(o app.Outcome) {
			if err := src.PublishResult(o.Report.Result, app.FiniteCost(o.Report.Cost)); err != nil {
				log.Printf("mudra: publish result: %v", err)
			}
		})
	}

	if cfg.Serial.Enabled {
		src := ingest.NewSerialSource(cfg.Serial.Port, ingest.PortOptions{
			BaudRate: cfg.Serial.BaudRate,
			DataBits: cfg.Serial.DataBits,
			StopBits: cfg.Serial.StopBits,
			Parity:   cfg.Serial.Parity,
		}, session)
		go func() {
			if err := src.Run(ctx); err != nil {
				log.Printf("mudra: serial source %s stopped: %v", src.Path(), err)
			}
		}()
	}

	loader.OnChange(func(c *config.Config) {
		a.Retune(c.Capture.MotionThreshold, matcherOptions(c))
	})
	if err := loader.Watch(); err != nil {
		log.Printf("mudra: config hot-reload disabled: %v", err)
	}
	go func() {
		for err := range loader.Errors() {
			log.Printf("mudra: config reload rejected: %v", err)
		}
	}()

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		App:       a,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Server.Addr)
		stop()
	}()

	if withTray {
		runTray(ctx, a, "http://"+cfg.Server.Addr, stop)
	}

	select {
	case <-ctx.Done():
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// runTray blocks on the tray menu until Quit is chosen or ctx ends.
func runTray(ctx context.Context, a *app.App, dashboard string, quit func()) {
	session := a.Session()
	t := tray.New(a.IsEnabled())

	t.OnToggle(a.SetEnabled)
	t.OnCommit(func() { session.CommitAsReference() })
	t.OnFinalize(func() { session.FinalizeAndMatch() })
	t.OnDashboard(func() {
		if err := openBrowser(dashboard); err != nil {
			log.Printf("mudra: open dashboard: %v", err)
		}
	})
	t.OnQuit(quit)

	session.OnResult(func(o app.Outcome) {
		t.SetLastResult(string(o.Report.Result))
	})

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}

func matcherOptions(c *config.Config) gesture.Options {
	return gesture.Options{
		TargetSize: c.Matcher.TargetSize,
		Threshold:  c.Matcher.Threshold,
		Window:     c.Matcher.Window,
	}
}

// pluginBindings converts configured bindings, encoding their params as JSON.
func pluginBindings(cfgs []config.BindingConfig) ([]plugin.Binding, error) {
	bindings := make([]plugin.Binding, 0, len(cfgs))
	for _, b := range cfgs {
		var params json.RawMessage
		if len(b.Params) > 0 {
			data, err := json.Marshal(b.Params)
			if err != nil {
				return nil, fmt.Errorf("encode params of %s/%s: %w", b.Plugin, b.Action, err)
			}
			params = data
		}
		bindings = append(bindings, plugin.Binding{
			Plugin: b.Plugin,
			Action: b.Action,
			Params: params,
		})
	}
	return bindings, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and the mudra home directory.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.Dir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
