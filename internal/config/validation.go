package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors.
// It returns ValidationErrors listing every problem found.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, validateCapture(&c.Capture)...)
	errs = append(errs, validateMatcher(&c.Matcher)...)
	errs = append(errs, validateServer(&c.Server)...)
	errs = append(errs, validateStore(&c.Store)...)
	errs = append(errs, validateMQTT(&c.MQTT)...)
	errs = append(errs, validateSerial(&c.Serial)...)
	errs = append(errs, validatePlugins(&c.Plugins)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateCapture(c *CaptureConfig) ValidationErrors {
	var errs ValidationErrors
	if c.MotionThreshold <= 0 {
		errs = append(errs, ValidationError{
			Field:   "capture.motion_threshold",
			Message: fmt.Sprintf("must be positive, got %g", c.MotionThreshold),
		})
	}
	return errs
}

func validateMatcher(c *MatcherConfig) ValidationErrors {
	var errs ValidationErrors
	if c.TargetSize < 2 {
		errs = append(errs, ValidationError{
			Field:   "matcher.target_size",
			Message: fmt.Sprintf("must be at least 2, got %d", c.TargetSize),
		})
	}
	if c.Threshold <= 0 {
		errs = append(errs, ValidationError{
			Field:   "matcher.threshold",
			Message: fmt.Sprintf("must be positive, got %g", c.Threshold),
		})
	}
	if c.Window < 0 {
		errs = append(errs, ValidationError{
			Field:   "matcher.window",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateServer(c *ServerConfig) ValidationErrors {
	var errs ValidationErrors
	if c.Addr == "" {
		return append(errs, ValidationError{Field: "server.addr", Message: "required"})
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		errs = append(errs, ValidationError{
			Field:   "server.addr",
			Message: fmt.Sprintf("invalid address %q: %v", c.Addr, err),
		})
	}
	return errs
}

func validateStore(c *StoreConfig) ValidationErrors {
	var errs ValidationErrors
	if c.Path == "" {
		errs = append(errs, ValidationError{Field: "store.path", Message: "required"})
	}
	return errs
}

func validateMQTT(c *MQTTConfig) ValidationErrors {
	var errs ValidationErrors
	if !c.Enabled {
		return errs
	}

	if c.Broker == "" {
		errs = append(errs, ValidationError{Field: "mqtt.broker", Message: "required when mqtt is enabled"})
	} else if u, err := url.Parse(c.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "mqtt.broker",
			Message: fmt.Sprintf("invalid broker URL %q", c.Broker),
		})
	}

	if c.Topic == "" {
		errs = append(errs, ValidationError{Field: "mqtt.topic", Message: "required when mqtt is enabled"})
	} else if strings.ContainsAny(c.Topic, "+#") {
		errs = append(errs, ValidationError{Field: "mqtt.topic", Message: "must not contain wildcards"})
	}

	if c.QoS < 0 || c.QoS > 2 {
		errs = append(errs, ValidationError{
			Field:   "mqtt.qos",
			Message: fmt.Sprintf("must be 0, 1 or 2, got %d", c.QoS),
		})
	}
	return errs
}

func validateSerial(c *SerialConfig) ValidationErrors {
	var errs ValidationErrors
	if !c.Enabled {
		return errs
	}

	if c.Port == "" {
		errs = append(errs, ValidationError{Field: "serial.port", Message: "required when serial is enabled"})
	}
	if c.DataBits != 0 && (c.DataBits < 5 || c.DataBits > 8) {
		errs = append(errs, ValidationError{
			Field:   "serial.data_bits",
			Message: fmt.Sprintf("must be between 5 and 8, got %d", c.DataBits),
		})
	}
	if c.StopBits != 0 && c.StopBits != 1 && c.StopBits != 2 {
		errs = append(errs, ValidationError{
			Field:   "serial.stop_bits",
			Message: fmt.Sprintf("must be 1 or 2, got %d", c.StopBits),
		})
	}
	switch strings.ToUpper(strings.TrimSpace(c.Parity)) {
	case "", "N", "NONE", "E", "EVEN", "O", "ODD":
	default:
		errs = append(errs, ValidationError{
			Field:   "serial.parity",
			Message: fmt.Sprintf("unsupported parity %q", c.Parity),
		})
	}
	return errs
}

func validatePlugins(c *PluginsConfig) ValidationErrors {
	var errs ValidationErrors
	if c.TimeoutMs < 0 {
		errs = append(errs, ValidationError{Field: "plugins.timeout_ms", Message: "must not be negative"})
	}
	for i, b := range c.Bindings {
		if b.Plugin == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("plugins.bindings[%d].plugin", i),
				Message: "required",
			})
		}
		if b.Action == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("plugins.bindings[%d].action", i),
				Message: "required",
			})
		}
	}
	return errs
}
