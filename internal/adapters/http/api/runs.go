// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"

	"github.com/okian/drivemind/internal/domain/simulation"
)

// startRunRequest mirrors the OpenAPI schema for POST /runs.
type startRunRequest struct {
	ScenarioID *int `json:"scenarioId"`
}

func (req startRunRequest) validate() error {
	switch {
	case req.ScenarioID == nil:
		return fmt.Errorf("missing scenarioId: %w", ErrBadRequest)
	case *req.ScenarioID < 1:
		return fmt.Errorf("scenarioId must be positive: %w", ErrBadRequest)
	}
	return nil
}

// decisionRequest mirrors the OpenAPI schema for POST /runs/{id}/decision.
type decisionRequest struct {
	Option *int `json:"option"`
}

func (req decisionRequest) validate() error {
	if req.Option == nil {
		return fmt.Errorf("missing option: %w", ErrBadRequest)
	}
	return nil
}

type decisionResponse struct {
	simulation.Resolution
	Run simulation.Snapshot `json:"run"`
}

// RunHandler drives live runs.
type RunHandler struct {
	deps RunDependencies
}

// NewRunHandler creates a new run handler.
func NewRunHandler(deps RunDependencies) *RunHandler {
	return &RunHandler{deps: deps}
}

// HandleStart handles POST /runs requests.
func (h *RunHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	snap, err := h.deps.StartRun(r.Context(), *req.ScenarioID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/runs/"+snap.RunID)
	writeJSON(w, http.StatusCreated, snap)
}

// HandleGet handles GET /runs/{id} requests.
func (h *RunHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleDecision handles POST /runs/{id}/decision requests. Answering when
// nothing is pending succeeds with resolved=false.
func (h *RunHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	res, snap, err := h.deps.Resolve(r.Context(), r.PathValue("id"), *req.Option)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{Resolution: res, Run: snap})
}

// HandleFinish handles POST /runs/{id}/finish requests.
func (h *RunHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Finish(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAbandon handles DELETE /runs/{id} requests.
func (h *RunHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Abandon(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
