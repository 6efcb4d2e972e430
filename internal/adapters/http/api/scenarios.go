// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// ScenarioHandler serves the scenario catalog.
type ScenarioHandler struct {
	deps ScenarioDependencies
}

// NewScenarioHandler creates a new scenario handler.
func NewScenarioHandler(deps ScenarioDependencies) *ScenarioHandler {
	return &ScenarioHandler{deps: deps}
}

// HandleList handles GET /scenarios requests.
func (h *ScenarioHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Scenarios())
}

// HandleGet handles GET /scenarios/{id} requests.
func (h *ScenarioHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := intPathValue(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sc, err := h.deps.Scenario(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
