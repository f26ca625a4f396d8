package main

import (
	"encoding/json"
	"testing"

	"github.com/ayusman/mudra/internal/config"
)

func TestPluginBindings(t *testing.T) {
	bindings, err := pluginBindings([]config.BindingConfig{
		{Plugin: "notify", Action: "notify", Params: map[string]any{"title": "Wave"}},
		{Plugin: "notify", Action: "append"},
	})
	if err != nil {
		t.Fatalf("pluginBindings() error = %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(bindings))
	}

	var params map[string]string
	if err := json.Unmarshal(bindings[0].Params, &params); err != nil {
		t.Fatalf("params are not JSON: %v", err)
	}
	if params["title"] != "Wave" {
		t.Errorf("title = %q, want %q", params["title"], "Wave")
	}
	if bindings[1].Params != nil {
		t.Errorf("expected no params, got %s", bindings[1].Params)
	}
}

func TestMatcherOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Matcher.Window = 7

	opts := matcherOptions(cfg)
	if opts.TargetSize != cfg.Matcher.TargetSize || opts.Threshold != cfg.Matcher.Threshold || opts.Window != 7 {
		t.Errorf("matcherOptions() = %+v", opts)
	}
}
