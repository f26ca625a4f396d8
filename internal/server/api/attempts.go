package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

// DefaultAttemptLimit is the number of attempts listed when no limit is given.
const DefaultAttemptLimit = 50

// AttemptHandler handles HTTP requests for the match history.
type AttemptHandler struct {
	store *store.Store
}

// NewAttemptHandler creates a new AttemptHandler with the given store.
func NewAttemptHandler(s *store.Store) *AttemptHandler {
	return &AttemptHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *AttemptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/attempts, /api/attempts/stats or /api/attempts/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/attempts")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodDelete:
			h.prune(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if path == "stats" {
		h.stats(w, r)
		return
	}
	h.get(w, r, path)
}

type attemptResponse struct {
	ID              string   `json:"id"`
	SessionID       string   `json:"session_id"`
	Result          string   `json:"result"`
	Cost            *float64 `json:"cost"`
	ReferencePoints int      `json:"reference_points"`
	CurrentPoints   int      `json:"current_points"`
	CreatedAt       string   `json:"created_at"`
}

type listAttemptsResponse struct {
	Attempts []attemptResponse `json:"attempts"`
}

type statsResponse struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

type pruneResponse struct {
	Deleted int64 `json:"deleted"`
}

func toAttemptResponse(a *store.Attempt) attemptResponse {
	return attemptResponse{
		ID:              a.ID,
		SessionID:       a.SessionID,
		Result:          a.Result,
		Cost:            a.Cost,
		ReferencePoints: a.ReferencePoints,
		CurrentPoints:   a.CurrentPoints,
		CreatedAt:       a.CreatedAt.Format(timeFormat),
	}
}

// list handles GET /api/attempts?limit=N and returns the newest attempts first.
// A limit of 0 returns every attempt.
func (h *AttemptHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultAttemptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	attempts, err := h.store.Attempts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attempts")
		return
	}

	response := listAttemptsResponse{
		Attempts: make([]attemptResponse, 0, len(attempts)),
	}
	for _, a := range attempts {
		response.Attempts = append(response.Attempts, toAttemptResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/attempts/{id}.
func (h *AttemptHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.store.Attempts().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Attempt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get attempt")
		return
	}

	writeJSON(w, http.StatusOK, toAttemptResponse(a))
}

// stats handles GET /api/attempts/stats.
func (h *AttemptHandler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Attempts().CountByResult()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count attempts")
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, statsResponse{Total: total, Counts: counts})
}

// prune handles DELETE /api/attempts?before=RFC3339.
func (h *AttemptHandler) prune(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("before")
	if v == "" {
		writeError(w, http.StatusBadRequest, "before is required")
		return
	}
	before, err := time.Parse(time.RFC3339, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid before timestamp")
		return
	}

	n, err := h.store.Attempts().DeleteBefore(before)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete attempts")
		return
	}

	writeJSON(w, http.StatusOK, pruneResponse{Deleted: n})
}
