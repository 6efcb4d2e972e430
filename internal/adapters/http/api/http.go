// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	service "github.com/okian/drivemind/internal/app"
	"github.com/okian/drivemind/internal/domain/catalog"
	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/profile"
	"github.com/okian/drivemind/internal/domain/simulation"
	"github.com/okian/drivemind/pkg/logger"
)

const (
	defaultStreamInterval = 250 * time.Millisecond
	defaultHistoryLimit   = 100
)

// ScenarioDependencies exposes the catalog.
type ScenarioDependencies interface {
	Scenarios() []model.Scenario
	Scenario(id int) (model.Scenario, error)
}

// RunDependencies drives live runs.
type RunDependencies interface {
	StartRun(ctx context.Context, scenarioID int) (simulation.Snapshot, error)
	Run(ctx context.Context, runID string) (simulation.Snapshot, error)
	Resolve(ctx context.Context, runID string, optionIndex int) (simulation.Resolution, simulation.Snapshot, error)
	Finish(ctx context.Context, runID string) (model.SimulationResult, error)
	Abandon(ctx context.Context, runID string) error
}

// ProfileDependencies reads and resets the aggregate.
type ProfileDependencies interface {
	Profile(ctx context.Context) model.UserProfile
	History(ctx context.Context) profile.History
	Latest(ctx context.Context, scenarioID int) (model.HistoryEntry, bool)
	Analytics(ctx context.Context) profile.Analytics
	Reset(ctx context.Context) error
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScenarioDependencies
	RunDependencies
	ProfileDependencies
}

// Option configures the Server.
type Option func(*Server)

// WithStreamInterval sets how often the run stream pushes a snapshot.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

// WithHistoryLimit caps the limit accepted by GET /history.
func WithHistoryLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	streamInterval time.Duration
	historyLimit   int
	logger         logger.Logger

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	scenarioHandler *ScenarioHandler
	runHandler      *RunHandler
	streamHandler   *StreamHandler
	profileHandler  *ProfileHandler
	historyHandler  *HistoryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		streamInterval: defaultStreamInterval,
		historyLimit:   defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.scenarioHandler = NewScenarioHandler(deps)
	s.runHandler = NewRunHandler(deps)
	s.streamHandler = NewStreamHandler(deps, s.streamInterval, s.logger)
	s.profileHandler = NewProfileHandler(deps)
	s.historyHandler = NewHistoryHandler(deps, s.historyLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /scenarios", MetricsMiddleware(s.scenarioHandler.HandleList, "scenarios"))
	mux.HandleFunc("GET /scenarios/{id}", MetricsMiddleware(s.scenarioHandler.HandleGet, "scenario"))

	mux.HandleFunc("POST /runs", MetricsMiddleware(s.runHandler.HandleStart, "runs"))
	mux.HandleFunc("GET /runs/{id}", MetricsMiddleware(s.runHandler.HandleGet, "run"))
	mux.HandleFunc("POST /runs/{id}/decision", MetricsMiddleware(s.runHandler.HandleDecision, "run_decision"))
	mux.HandleFunc("POST /runs/{id}/finish", MetricsMiddleware(s.runHandler.HandleFinish, "run_finish"))
	mux.HandleFunc("DELETE /runs/{id}", MetricsMiddleware(s.runHandler.HandleAbandon, "run_abandon"))
	mux.HandleFunc("GET /runs/{id}/stream", MetricsMiddleware(s.streamHandler.HandleStream, "run_stream"))

	mux.HandleFunc("GET /profile", MetricsMiddleware(s.profileHandler.HandleGet, "profile"))
	mux.HandleFunc("POST /profile/reset", MetricsMiddleware(s.profileHandler.HandleReset, "profile_reset"))
	mux.HandleFunc("GET /analytics", MetricsMiddleware(s.profileHandler.HandleAnalytics, "analytics"))

	mux.HandleFunc("GET /history", MetricsMiddleware(s.historyHandler.HandleList, "history"))
	mux.HandleFunc("GET /history/latest/{scenario_id}", MetricsMiddleware(s.historyHandler.HandleLatest, "history_latest"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates upstream sentinels into a status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := domainErrorCode(err)
	writeError(w, status, code, err)
}

// domainErrorCode maps a service or domain error to its HTTP status and
// machine-readable code.
func domainErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, ErrNoHistory):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, simulation.ErrInvalidOption):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, simulation.ErrNotRunning):
		return http.StatusConflict, "not_running"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// intPathValue parses the named path segment as a positive integer.
func intPathValue(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s %q must be a positive integer: %w", name, raw, ErrBadRequest)
	}
	return n, nil
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w: %w", ErrBadRequest, err)
	}
	return nil
}
