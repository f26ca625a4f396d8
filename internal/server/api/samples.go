package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
)

// SamplesHandler feeds gyroscope samples posted over HTTP into the session.
type SamplesHandler struct {
	session *app.Session
}

// NewSamplesHandler creates a new SamplesHandler for the given session.
func NewSamplesHandler(s *app.Session) *SamplesHandler {
	return &SamplesHandler{session: s}
}

type createSamplesRequest struct {
	Samples []gesture.Sample `json:"samples"`
}

type createSamplesResponse struct {
	Decisions  []capture.Decision `json:"decisions"`
	Points     int                `json:"points"`
	InProgress bool               `json:"in_progress"`
}

// ServeHTTP handles POST /api/samples.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createSamplesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	response := createSamplesResponse{
		Decisions: make([]capture.Decision, 0, len(req.Samples)),
	}
	for _, s := range req.Samples {
		d := h.session.Observe(float32(s.X), float32(s.Y), float32(s.Z), s.Timestamp)
		response.Decisions = append(response.Decisions, d)
	}

	snap := h.session.Snapshot()
	response.Points = len(snap.X)
	response.InProgress = snap.InProgress

	writeJSON(w, http.StatusOK, response)
}
