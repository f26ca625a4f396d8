package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

type sample struct {
	Timestamp int64   `json:"ts"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
}

type result struct {
	ID     string         `json:"id"`
	Result gesture.Result `json:"result"`
	Cost   *float64       `json:"cost"`
}

type env struct {
	t      *testing.T
	ts     *httptest.Server
	app    *app.App
	marker string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	pluginDir := filepath.Join(tmpDir, "plugins")
	marker := filepath.Join(tmpDir, "matched.json")
	installPlugin(t, pluginDir, marker)

	a := app.New(app.Config{
		Store:     s,
		PluginDir: pluginDir,
		Bindings:  []plugin.Binding{{Plugin: "recorder", Action: "record"}},
		Matcher:   gesture.DefaultOptions(),
	})
	if err := a.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(a.Stop)

	ts := httptest.NewServer(server.New(server.Config{App: a}))
	t.Cleanup(ts.Close)

	return &env{t: t, ts: ts, app: a, marker: marker}
}

func installPlugin(t *testing.T, dir, marker string) {
	t.Helper()

	pluginDir := filepath.Join(dir, "recorder")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","actions":["record"]}`
	if err := os.WriteFile(filepath.Join(pluginDir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	script := "#!/bin/sh\ncat > " + marker + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func (e *env) post(path string, body interface{}, out interface{}) {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}

	resp, err := e.ts.Client().Post(e.ts.URL+path, "application/json", &buf)
	if err != nil {
		e.t.Fatalf("POST %s error = %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("POST %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			e.t.Fatalf("decode %s: %v", path, err)
		}
	}
}

func (e *env) get(path string, out interface{}) {
	e.t.Helper()

	resp, err := e.ts.Client().Get(e.ts.URL + path)
	if err != nil {
		e.t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		e.t.Fatalf("decode %s: %v", path, err)
	}
}

func (e *env) record(samples []sample) {
	e.t.Helper()
	e.post("/api/samples", map[string]interface{}{"samples": samples}, nil)
}

func (e *env) finalize() result {
	e.t.Helper()
	var r result
	e.post("/api/gesture/finalize", nil, &r)
	return r
}

// waitForAttempts polls the history until it holds n attempts.
func (e *env) waitForAttempts(n int) {
	e.t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var stats struct {
			Total int `json:"total"`
		}
		e.get("/api/attempts/stats", &stats)
		if stats.Total >= n {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	e.t.Fatalf("timed out waiting for %d attempts", n)
}

func ramp(start int64, n int, from, to float64, step int64) []sample {
	out := make([]sample, n)
	for i := range out {
		frac := float64(i) / float64(n-1)
		out[i] = sample{Timestamp: start + int64(i)*step, X: from + frac*(to-from)}
	}
	return out
}

func TestE2E_IdenticalReplayMatches(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	e := newEnv(t)

	twoSamples := []sample{{Timestamp: 0, X: 1}, {Timestamp: 100, X: 1}}

	e.record(twoSamples)
	var commit struct {
		Committed bool `json:"committed"`
		Points    int  `json:"points"`
	}
	e.post("/api/gesture/commit", nil, &commit)
	if !commit.Committed || commit.Points != 2 {
		t.Fatalf("commit = %+v, want 2 committed points", commit)
	}

	e.record(twoSamples)
	r := e.finalize()
	if r.Result != gesture.Matched {
		t.Fatalf("result = %q, want %q", r.Result, gesture.Matched)
	}
	if r.Cost == nil || *r.Cost != 0 {
		t.Errorf("cost = %v, want 0", r.Cost)
	}

	e.waitForAttempts(1)

	var attempt struct {
		ID     string `json:"id"`
		Result string `json:"result"`
	}
	e.get("/api/attempts/"+r.ID, &attempt)
	if attempt.Result != string(gesture.Matched) {
		t.Errorf("stored result = %q, want %q", attempt.Result, gesture.Matched)
	}

	// The bound plugin runs for matches
	deadline := time.Now().Add(5 * time.Second)
	var req plugin.Request
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(e.marker)
		if err == nil && json.Unmarshal(data, &req) == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if req.AttemptID != r.ID || req.Action != "record" {
		t.Errorf("plugin request = %+v, want attempt %s", req, r.ID)
	}
}

func TestE2E_StillReplayDoesNotMatchRamp(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	e := newEnv(t)

	// 0..5 over 1000ms; the first sample is still and is gated out
	e.record(ramp(0, 11, 0, 5, 100))
	e.post("/api/gesture/commit", nil, nil)

	var ref struct {
		Points     int   `json:"points"`
		DurationMs int64 `json:"duration_ms"`
	}
	e.get("/api/gesture/reference", &ref)
	if ref.Points != 10 || ref.DurationMs != 900 {
		t.Errorf("reference = %+v, want 10 points over 900ms", ref)
	}

	// Barely above the motion threshold
	e.record(ramp(2000, 11, 0.2, 0.2, 100))
	r := e.finalize()
	if r.Result != gesture.NotMatched {
		t.Fatalf("result = %q, want %q", r.Result, gesture.NotMatched)
	}
	if r.Cost == nil || *r.Cost <= gesture.DefaultOptions().Threshold {
		t.Errorf("cost = %v, want above %v", r.Cost, gesture.DefaultOptions().Threshold)
	}

	e.waitForAttempts(1)
	if _, err := os.Stat(e.marker); !os.IsNotExist(err) {
		t.Error("plugin should not run for a non-match")
	}
}

func TestE2E_FinalizeWithNothingRecorded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	e := newEnv(t)

	r := e.finalize()
	if r.Result != gesture.Indeterminate {
		t.Fatalf("result = %q, want %q", r.Result, gesture.Indeterminate)
	}
	if r.Cost != nil {
		t.Errorf("cost = %v, want null", *r.Cost)
	}

	var attempts struct {
		Attempts []json.RawMessage `json:"attempts"`
	}
	e.get("/api/attempts", &attempts)
	if len(attempts.Attempts) != 0 {
		t.Errorf("expected no attempts, got %d", len(attempts.Attempts))
	}
}

func TestE2E_DisabledCaptureIgnoresSamples(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodPut, e.ts.URL+"/api/capture", bytes.NewBufferString(`{"enabled":false}`))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("PUT /api/capture error = %v", err)
	}
	resp.Body.Close()

	var out struct {
		Points     int  `json:"points"`
		InProgress bool `json:"in_progress"`
	}
	e.post("/api/samples", map[string]interface{}{"samples": ramp(0, 5, 1, 2, 10)}, &out)
	if out.Points != 0 || out.InProgress {
		t.Errorf("samples recorded while disabled: %+v", out)
	}

	var health map[string]interface{}
	e.get("/api/health", &health)
	if health["enabled"] != false {
		t.Errorf("health enabled = %v, want false", health["enabled"])
	}
}

func TestE2E_ReferenceIsReplaced(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	e := newEnv(t)

	e.record(ramp(0, 20, 1, 4, 10))
	e.post("/api/gesture/commit", nil, nil)
	e.record(ramp(1000, 8, -3, -1, 10))
	e.post("/api/gesture/commit", nil, nil)

	var ref struct {
		Points int `json:"points"`
	}
	e.get("/api/gesture/reference", &ref)
	if ref.Points != 8 {
		t.Errorf("reference points = %d, want 8", ref.Points)
	}

	e.record(ramp(2000, 8, -3, -1, 10))
	if r := e.finalize(); r.Result != gesture.Matched {
		t.Errorf("replay of the latest reference = %q, want %q", r.Result, gesture.Matched)
	}
}
