// Package config handles configuration loading and validation for mudra.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the complete daemon configuration.
type Config struct {
	// Capture configuration for the motion gate.
	Capture CaptureConfig `toml:"capture" json:"capture" yaml:"capture"`

	// Matcher configuration for resampling and DTW.
	Matcher MatcherConfig `toml:"matcher" json:"matcher" yaml:"matcher"`

	// Server configuration for the HTTP API.
	Server ServerConfig `toml:"server" json:"server" yaml:"server"`

	// Store configuration for the attempt history.
	Store StoreConfig `toml:"store" json:"store" yaml:"store"`

	// MQTT sample source.
	MQTT MQTTConfig `toml:"mqtt" json:"mqtt" yaml:"mqtt"`

	// Serial sample source.
	Serial SerialConfig `toml:"serial" json:"serial" yaml:"serial"`

	// Plugins run on recognized gestures.
	Plugins PluginsConfig `toml:"plugins" json:"plugins" yaml:"plugins"`
}

// CaptureConfig holds motion gate settings.
type CaptureConfig struct {
	// MotionThreshold is the per-axis angular velocity below which a
	// sample counts as stillness.
	MotionThreshold float64 `toml:"motion_threshold" json:"motion_threshold" yaml:"motion_threshold"`
}

// MatcherConfig holds gesture comparison settings.
type MatcherConfig struct {
	// TargetSize is the number of samples both gestures are resampled to.
	TargetSize int `toml:"target_size" json:"target_size" yaml:"target_size"`

	// Threshold is the DTW cost below which two gestures match.
	Threshold float64 `toml:"threshold" json:"threshold" yaml:"threshold"`

	// Window is the Sakoe-Chiba band width. 0 disables the band.
	Window int `toml:"window" json:"window" yaml:"window"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr      string `toml:"addr" json:"addr" yaml:"addr"`
	StaticDir string `toml:"static_dir" json:"static_dir" yaml:"static_dir"`
}

// StoreConfig holds database settings.
type StoreConfig struct {
	Path string `toml:"path" json:"path" yaml:"path"`
}

// MQTTConfig holds the MQTT sample source settings.
type MQTTConfig struct {
	Enabled  bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Broker   string `toml:"broker" json:"broker" yaml:"broker"`
	ClientID string `toml:"client_id" json:"client_id" yaml:"client_id"`
	Topic    string `toml:"topic" json:"topic" yaml:"topic"`
	QoS      int    `toml:"qos" json:"qos" yaml:"qos"`
}

// SerialConfig holds the serial sample source settings.
type SerialConfig struct {
	Enabled  bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Port     string `toml:"port" json:"port" yaml:"port"`
	BaudRate int    `toml:"baud_rate" json:"baud_rate" yaml:"baud_rate"`
	DataBits int    `toml:"data_bits" json:"data_bits" yaml:"data_bits"`
	StopBits int    `toml:"stop_bits" json:"stop_bits" yaml:"stop_bits"`
	Parity   string `toml:"parity" json:"parity" yaml:"parity"`
}

// PluginsConfig holds plugin discovery and binding settings.
type PluginsConfig struct {
	Dir       string          `toml:"dir" json:"dir" yaml:"dir"`
	TimeoutMs int             `toml:"timeout_ms" json:"timeout_ms" yaml:"timeout_ms"`
	Bindings  []BindingConfig `toml:"bindings" json:"bindings" yaml:"bindings"`
}

// BindingConfig runs Action of Plugin with Params on every match.
type BindingConfig struct {
	Plugin string         `toml:"plugin" json:"plugin" yaml:"plugin"`
	Action string         `toml:"action" json:"action" yaml:"action"`
	Params map[string]any `toml:"params" json:"params,omitempty" yaml:"params"`
}

// Timeout returns the plugin timeout as a duration.
func (p PluginsConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
// Environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return cfg, nil
}

// loadConfigFromFile reads and parses a config file based on its extension.
func loadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}

	return cfg, nil
}

// Save writes the configuration to path as TOML.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode TOML: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with MUDRA_ and use underscores.
// Unparseable numeric values are logged and ignored.
func (c *Config) ApplyEnvOverrides() {
	envFloat("MUDRA_MOTION_THRESHOLD", &c.Capture.MotionThreshold)
	envFloat("MUDRA_MATCH_THRESHOLD", &c.Matcher.Threshold)
	envInt("MUDRA_TARGET_SIZE", &c.Matcher.TargetSize)

	if v := os.Getenv("MUDRA_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MUDRA_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("MUDRA_PLUGIN_DIR"); v != "" {
		c.Plugins.Dir = v
	}

	// Setting a broker or port implies the source is wanted
	if v := os.Getenv("MUDRA_MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
		c.MQTT.Enabled = true
	}
	if v := os.Getenv("MUDRA_MQTT_TOPIC"); v != "" {
		c.MQTT.Topic = v
	}
	if v := os.Getenv("MUDRA_SERIAL_PORT"); v != "" {
		c.Serial.Port = v
		c.Serial.Enabled = true
	}
}

func envFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = f
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Plugins.Bindings != nil {
		clone.Plugins.Bindings = make([]BindingConfig, len(c.Plugins.Bindings))
		copy(clone.Plugins.Bindings, c.Plugins.Bindings)
	}
	return &clone
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{filepath.Dir(c.Store.Path), c.Plugins.Dir} {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
