package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
)

// GestureHandler exposes the recorder operations of a session.
type GestureHandler struct {
	session *app.Session
}

// NewGestureHandler creates a new GestureHandler for the given session.
func NewGestureHandler(s *app.Session) *GestureHandler {
	return &GestureHandler{session: s}
}

// ServeHTTP routes requests to the appropriate method.
// Expected paths: /api/gesture/{commit,finalize,current,reference} and /api/result
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/result" {
		h.route(w, r, http.MethodGet, h.result)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/api/gesture/") {
	case "commit":
		h.route(w, r, http.MethodPost, h.commit)
	case "finalize":
		h.route(w, r, http.MethodPost, h.finalize)
	case "current":
		h.route(w, r, http.MethodGet, h.current)
	case "reference":
		h.route(w, r, http.MethodGet, h.reference)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *GestureHandler) route(w http.ResponseWriter, r *http.Request, method string, fn http.HandlerFunc) {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	fn(w, r)
}

type commitResponse struct {
	Committed bool `json:"committed"`
	Points    int  `json:"points"`
}

// resultResponse carries a verdict. Cost is null when no comparison was made.
type resultResponse struct {
	ID              string         `json:"id,omitempty"`
	Result          gesture.Result `json:"result"`
	Cost            *float64       `json:"cost"`
	ReferencePoints int            `json:"reference_points"`
	CurrentPoints   int            `json:"current_points"`
	At              string         `json:"at,omitempty"`
}

type referenceResponse struct {
	Present    bool  `json:"present"`
	Points     int   `json:"points"`
	DurationMs int64 `json:"duration_ms"`
}

func toResultResponse(o app.Outcome) resultResponse {
	return resultResponse{
		ID:              o.ID,
		Result:          o.Report.Result,
		Cost:            app.FiniteCost(o.Report.Cost),
		ReferencePoints: o.Report.ReferencePoints,
		CurrentPoints:   o.Report.CurrentPoints,
		At:              o.At.Format(timeFormat),
	}
}

// commit handles POST /api/gesture/commit.
func (h *GestureHandler) commit(w http.ResponseWriter, r *http.Request) {
	committed := h.session.CommitAsReference()
	writeJSON(w, http.StatusOK, commitResponse{
		Committed: committed,
		Points:    len(h.session.Reference()),
	})
}

// finalize handles POST /api/gesture/finalize. With no gesture in progress
// the verdict is Indeterminate and nothing changes.
func (h *GestureHandler) finalize(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.session.Finalize()
	if !ok {
		writeJSON(w, http.StatusOK, resultResponse{
			Result:          gesture.Indeterminate,
			ReferencePoints: len(h.session.Reference()),
		})
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(outcome))
}

// current handles GET /api/gesture/current.
func (h *GestureHandler) current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// reference handles GET /api/gesture/reference.
func (h *GestureHandler) reference(w http.ResponseWriter, r *http.Request) {
	ref := h.session.Reference()
	writeJSON(w, http.StatusOK, referenceResponse{
		Present:    len(ref) > 0,
		Points:     len(ref),
		DurationMs: ref.Duration(),
	})
}

// result handles GET /api/result. Before the first finalized gesture the
// result is empty.
func (h *GestureHandler) result(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.session.LastOutcome()
	if !ok {
		writeJSON(w, http.StatusOK, resultResponse{})
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(outcome))
}
