package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/app"
)

// CaptureHandler reports and toggles sample recording.
type CaptureHandler struct {
	app *app.App
}

// NewCaptureHandler creates a new CaptureHandler for the given app.
func NewCaptureHandler(a *app.App) *CaptureHandler {
	return &CaptureHandler{app: a}
}

type captureResponse struct {
	Enabled         bool    `json:"enabled"`
	MotionThreshold float64 `json:"motion_threshold"`
	MatchThreshold  float64 `json:"match_threshold"`
	TargetSize      int     `json:"target_size"`
	Window          int     `json:"window"`
}

type updateCaptureRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/capture.
func (h *CaptureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.state())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CaptureHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateCaptureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.app.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, h.state())
}

func (h *CaptureHandler) state() captureResponse {
	s := h.app.Session()
	opts := s.MatcherOptions()
	return captureResponse{
		Enabled:         s.IsEnabled(),
		MotionThreshold: s.MotionThreshold(),
		MatchThreshold:  opts.Threshold,
		TargetSize:      opts.TargetSize,
		Window:          opts.Window,
	}
}
