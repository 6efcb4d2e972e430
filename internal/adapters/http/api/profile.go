// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// ProfileHandler serves the user profile and analytics.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleGet handles GET /profile requests.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Profile(r.Context()))
}

// HandleReset handles POST /profile/reset requests and returns the zero
// profile.
func (h *ProfileHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Reset(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Profile(r.Context()))
}

// HandleAnalytics handles GET /analytics requests.
func (h *ProfileHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Analytics(r.Context()))
}
