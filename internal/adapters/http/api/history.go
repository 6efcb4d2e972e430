// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// HistoryHandler serves recorded results, newest first.
type HistoryHandler struct {
	deps     ProfileDependencies
	maxLimit int
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps ProfileDependencies, maxLimit int) *HistoryHandler {
	return &HistoryHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleList handles GET /history[?limit=N] requests.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	history := h.deps.History(r.Context())

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("limit %q: %w", limitStr, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("limit above %d: %w", h.maxLimit, ErrBadRequest))
			return
		}
		if n < len(history) {
			history = history[:n]
		}
	}
	writeJSON(w, http.StatusOK, history)
}

// HandleLatest handles GET /history/latest/{scenario_id} requests.
func (h *HistoryHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	id, err := intPathValue(r, "scenario_id")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entry, ok := h.deps.Latest(r.Context(), id)
	if !ok {
		writeDomainError(w, fmt.Errorf("scenario %d: %w", id, ErrNoHistory))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
