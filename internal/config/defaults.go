package config

import (
	"os"
	"path/filepath"
)

// Default values for a fresh configuration.
const (
	DefaultMotionThreshold = 0.1
	DefaultTargetSize      = 100
	DefaultMatchThreshold  = 70.0
	DefaultAddr            = "localhost:8080"
	DefaultMQTTTopic       = "mudra/gyro"
	DefaultMQTTClientID    = "mudra"
	DefaultBaudRate        = 115200
	DefaultPluginTimeoutMs = 5000
)

// Dir returns the base mudra directory.
// MUDRA_HOME overrides the default of ~/.mudra.
func Dir() string {
	if dir := os.Getenv("MUDRA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultConfig returns a configuration with every setting at its default.
// Both sample sources start disabled.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Capture: CaptureConfig{
			MotionThreshold: DefaultMotionThreshold,
		},
		Matcher: MatcherConfig{
			TargetSize: DefaultTargetSize,
			Threshold:  DefaultMatchThreshold,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "mudra.db"),
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: DefaultMQTTClientID,
			Topic:    DefaultMQTTTopic,
		},
		Serial: SerialConfig{
			BaudRate: DefaultBaudRate,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
		},
		Plugins: PluginsConfig{
			Dir:       filepath.Join(dir, "plugins"),
			TimeoutMs: DefaultPluginTimeoutMs,
		},
	}
}
