// Package main provides a plugin that announces recognized gestures.
// The notify action raises a desktop notification and the append action
// writes one JSON line per match to a file.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Result    string          `json:"result"`
	Cost      *float64        `json:"cost,omitempty"`
	SessionID string          `json:"session_id"`
	AttemptID string          `json:"attempt_id"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type notifyParams struct {
	Title string `json:"title"`
}

type appendParams struct {
	Path string `json:"path"`
}

// logLine is one line written by the append action.
type logLine struct {
	Time      string   `json:"time"`
	Result    string   `json:"result"`
	Cost      *float64 `json:"cost"`
	SessionID string   `json:"session_id"`
	AttemptID string   `json:"attempt_id"`
}

// actionHandler defines a function type for handling specific actions.
type actionHandler func(req Request) error

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	"notify": notify,
	"append": appendLine,
}

// runCommand is replaced in tests.
var runCommand = func(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func main() {
	json.NewEncoder(os.Stdout).Encode(handle(os.Stdin))
}

// handle decodes a request from r and runs the matching action.
func handle(r io.Reader) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	if err := handler(req); err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return Response{Success: true}
}

// message renders the result line shown to the user.
func message(req Request) string {
	if req.Cost == nil {
		return req.Result
	}
	return fmt.Sprintf("%s (cost %.2f)", req.Result, *req.Cost)
}

func notify(req Request) error {
	params := notifyParams{Title: "Mudra"}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return fmt.Errorf("invalid params: %w", err)
		}
	}

	msg := message(req)
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %q with title %q", msg, params.Title)
		return runCommand("osascript", "-e", script)
	}
	return runCommand("notify-send", params.Title, msg)
}

func appendLine(req Request) error {
	var params appendParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return fmt.Errorf("invalid params: %w", err)
		}
	}
	if params.Path == "" {
		return errors.New("params.path is required")
	}

	f, err := os.OpenFile(params.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(logLine{
		Time:      time.Now().UTC().Format(time.RFC3339),
		Result:    req.Result,
		Cost:      req.Cost,
		SessionID: req.SessionID,
		AttemptID: req.AttemptID,
	})
}
