// Package plugin runs external action plugins when a gesture is recognized.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the plugin declares the given action.
// A manifest without actions accepts any action.
func (m Manifest) Supports(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Action    string          `json:"action"`
	Result    string          `json:"result"`
	Cost      *float64        `json:"cost,omitempty"`
	SessionID string          `json:"session_id"`
	AttemptID string          `json:"attempt_id"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout as JSON.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Binding ties a recognized gesture to a plugin action.
type Binding struct {
	Plugin string
	Action string
	Params json.RawMessage
}
