// Package service wires the simulation engine to the profile state and its
// persistence. It is the single owner of the mutable profile and of the
// live-run registry, and implements the dependencies required by the HTTP
// API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/drivemind/internal/adapters/mq/queue"
	"github.com/okian/drivemind/internal/adapters/mq/worker"
	repository "github.com/okian/drivemind/internal/adapters/repository"
	"github.com/okian/drivemind/internal/domain/catalog"
	"github.com/okian/drivemind/internal/domain/dedupe"
	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/profile"
	"github.com/okian/drivemind/internal/domain/simulation"
	"github.com/okian/drivemind/pkg/logger"
	"github.com/okian/drivemind/pkg/metrics"
)

const (
	defaultMaxActiveRuns = 64
	defaultQueueSize     = 64
	defaultDedupeSize    = 4096
	defaultCountdownFrom = 3
	defaultGrace         = 500 * time.Millisecond
	defaultSweepInterval = 250 * time.Millisecond
	shutdownTimeout      = 5 * time.Second
	flushRetryInterval   = 10 * time.Millisecond
)

// session guards one runner. Runners are not safe for concurrent use.
type session struct {
	mu        sync.Mutex
	runner    *simulation.Runner
	committed bool
}

// Service owns the profile state and the live runs.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog      *catalog.Catalog
	store        repository.Store
	deduper      dedupe.Deduper
	persistQueue *queue.InMemoryQueue
	saver        *worker.Saver
	runs         *lru.Cache[string, *session]
	clock        simulation.Clock

	// State
	state   profile.State
	seq     uint64
	dirty   bool
	started bool
	stopCh  chan struct{}
	sweepWG sync.WaitGroup

	// Configuration
	maxActiveRuns  int
	queueSize      int
	dedupeSize     int
	playerName     string
	countdownFrom  int
	grace          time.Duration
	sweepInterval  time.Duration
	progressWindow int
	newID          func() string

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clock:          simulation.SystemClock{},
		maxActiveRuns:  defaultMaxActiveRuns,
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		playerName:     profile.DefaultName,
		countdownFrom:  defaultCountdownFrom,
		grace:          defaultGrace,
		sweepInterval:  defaultSweepInterval,
		progressWindow: profile.DefaultProgressWindow,
		newID:          uuid.NewString,
		logger:         nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	s.state = profile.NewState(s.playerName)
	return s
}

// Start loads the persisted state and starts the saver and the sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting drivemind service...")

	if s.catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return fmt.Errorf("load built-in catalog: %w", err)
		}
		s.catalog = c
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	state, found, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrCorrupt):
		s.logger.Warn(ctx, "persisted state unreadable, starting fresh",
			logger.String("backend", s.store.Backend()),
			logger.Error(err),
		)
		state = profile.NewState(s.playerName)
	case err != nil:
		return fmt.Errorf("load state: %w", err)
	case !found:
		state = profile.NewState(s.playerName)
	}
	state.Normalize(s.playerName)
	s.state = state

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.persistQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.saver = worker.NewSaver(s.persistQueue, s.store, worker.WithLogger(s.logger))
	go s.saver.Run(context.WithoutCancel(ctx))

	runs, err := lru.NewWithEvict(s.maxActiveRuns, s.onEvict)
	if err != nil {
		return fmt.Errorf("create run registry: %w", err)
	}
	s.runs = runs

	s.stopCh = make(chan struct{})
	if s.sweepInterval > 0 {
		s.sweepWG.Add(1)
		go s.sweepLoop(context.WithoutCancel(ctx))
	}

	s.started = true
	s.publishProfile(s.state.User, len(s.state.ResultsHistory))
	metrics.UpdateActiveRuns(0)

	s.logger.Info(ctx, "drivemind service started",
		logger.String("backend", s.store.Backend()),
		logger.Int("scenarios", s.catalog.Len()),
		logger.Int("history", len(s.state.ResultsHistory)),
		logger.Int("maxActiveRuns", s.maxActiveRuns),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop persists the latest state, drains the saver and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.logger.Info(ctx, "stopping drivemind service...")
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.sweepWG.Wait()

	s.mu.Lock()
	s.persistLocked(ctx)
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := s.saver.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.logger.Info(ctx, "drivemind service stopped")
	return errors.Join(errs...)
}

// Scenarios returns the catalog in id order.
func (s *Service) Scenarios() []model.Scenario {
	return s.catalog.List()
}

// Scenario returns one catalog scenario.
func (s *Service) Scenario(id int) (model.Scenario, error) {
	return s.catalog.Get(id)
}

// StartRun begins a run of scenarioID at the current instant.
func (s *Service) StartRun(ctx context.Context, scenarioID int) (simulation.Snapshot, error) {
	if !s.isStarted() {
		return simulation.Snapshot{}, ErrNotStarted
	}
	sc, err := s.catalog.Get(scenarioID)
	if err != nil {
		return simulation.Snapshot{}, err
	}

	id := s.newID()
	r := simulation.New(sc, s.clock.Now(),
		simulation.WithRunID(id),
		simulation.WithCountdown(s.countdownFrom),
		simulation.WithGrace(s.grace),
	)
	s.runs.Add(id, &session{runner: r})

	metrics.RecordRunStarted()
	metrics.UpdateActiveRuns(s.runs.Len())
	s.logger.Info(ctx, "run started",
		logger.String("run_id", id),
		logger.Int("scenario_id", scenarioID),
	)
	return r.Snapshot(), nil
}

// Run advances the run to now and returns its snapshot. A run that has
// finished is committed before the snapshot is returned.
func (s *Service) Run(ctx context.Context, runID string) (simulation.Snapshot, error) {
	sess, err := s.session(runID)
	if err != nil {
		return simulation.Snapshot{}, err
	}
	snap, _ := s.advance(ctx, sess)
	return snap, nil
}

// Resolve answers the run's pending decision with optionIndex.
func (s *Service) Resolve(ctx context.Context, runID string, optionIndex int) (simulation.Resolution, simulation.Snapshot, error) {
	sess, err := s.session(runID)
	if err != nil {
		return simulation.Resolution{}, simulation.Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	res, err := sess.runner.Resolve(s.clock.Now(), optionIndex)
	if err != nil {
		return simulation.Resolution{}, sess.runner.Snapshot(), err
	}
	if res.Resolved {
		metrics.RecordDecision(string(res.Decision.Category), res.Decision.ReactionTime)
		s.logger.Debug(ctx, "decision resolved",
			logger.String("run_id", runID),
			logger.String("choice", res.Decision.Choice),
			logger.Int64("reaction_ms", res.Decision.ReactionTime),
		)
	}
	s.commitLocked(ctx, sess)
	return res, sess.runner.Snapshot(), nil
}

// Finish ends the run now and returns its result. Finishing a run that
// already finished returns the same result without committing it again.
func (s *Service) Finish(ctx context.Context, runID string) (model.SimulationResult, error) {
	sess, err := s.session(runID)
	if err != nil {
		return model.SimulationResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	result, err := sess.runner.Finish(s.clock.Now())
	if err != nil {
		return model.SimulationResult{}, err
	}
	s.commitLocked(ctx, sess)
	return result, nil
}

// Abandon drops the run without producing a result and removes it from the
// registry.
func (s *Service) Abandon(ctx context.Context, runID string) error {
	sess, err := s.session(runID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	// Ticks that already fell due still count; a run that timed out is kept.
	sess.runner.Advance(s.clock.Now())
	s.commitLocked(ctx, sess)
	abandoned := sess.runner.Abandon()
	sess.mu.Unlock()

	if abandoned {
		metrics.RecordRunAbandoned("user")
		s.logger.Info(ctx, "run abandoned", logger.String("run_id", runID))
	}
	s.runs.Remove(runID)
	metrics.UpdateActiveRuns(s.runs.Len())
	return nil
}

// Sweep advances every live run to now and commits the ones that finished.
// It returns how many results were committed.
func (s *Service) Sweep(ctx context.Context) int {
	if !s.isStarted() {
		return 0
	}
	committed := 0
	for _, id := range s.runs.Keys() {
		sess, ok := s.runs.Peek(id)
		if !ok {
			continue
		}
		if _, ok := s.advance(ctx, sess); ok {
			committed++
		}
	}
	return committed
}

// Profile returns a copy of the current user profile.
func (s *Service) Profile(_ context.Context) model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone().User
}

// History returns the results history, newest first.
func (s *Service) History(_ context.Context) profile.History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone().ResultsHistory
}

// Latest returns the newest history entry for scenarioID.
func (s *Service) Latest(_ context.Context, scenarioID int) (model.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone().ResultsHistory.Latest(scenarioID)
}

// Analytics builds the analytics read model for the current state.
func (s *Service) Analytics(_ context.Context) profile.Analytics {
	s.mu.RLock()
	state := s.state.Clone()
	s.mu.RUnlock()
	return profile.BuildAnalytics(state, s.catalog.List(), s.progressWindow)
}

// Reset restores the zero profile and clears the history. Live runs keep
// going and still commit when they finish.
func (s *Service) Reset(ctx context.Context) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	s.mu.Lock()
	s.state.Reset()
	s.persistLocked(ctx)
	user, n := s.state.User, len(s.state.ResultsHistory)
	s.mu.Unlock()

	s.publishProfile(user, n)
	s.logger.Info(ctx, "profile reset")
	return nil
}

// Flush waits until the current state has been written to the store.
func (s *Service) Flush(ctx context.Context) error {
	if !s.isStarted() {
		return ErrNotStarted
	}

	ack := make(chan error, 1)
	ticker := time.NewTicker(flushRetryInterval)
	defer ticker.Stop()
	for {
		s.mu.Lock()
		s.seq++
		err := s.persistQueue.Enqueue(ctx, queue.Snapshot{Seq: s.seq, State: s.state.Clone(), Ack: ack})
		if err == nil {
			s.dirty = false
		}
		s.mu.Unlock()

		if err == nil {
			break
		}
		if !errors.Is(err, queue.ErrFull) {
			return fmt.Errorf("flush: %w", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"maxActiveRuns": s.maxActiveRuns,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
	}

	if s.started {
		queueLen := s.persistQueue.Len(ctx)
		activeRuns := s.runs.Len()

		stats["queueLength"] = queueLen
		stats["activeRuns"] = activeRuns
		stats["committedRuns"] = s.deduper.Size()
		stats["backend"] = s.store.Backend()
		stats["catalogVersion"] = s.catalog.Version()
		stats["scenarios"] = s.catalog.Len()
		stats["totalSimulations"] = s.state.User.TotalSimulations
		stats["historyEntries"] = len(s.state.ResultsHistory)
		stats["dmsScore"] = s.state.User.DMS
		stats["pendingWrite"] = s.dirty

		metrics.UpdateActiveRuns(activeRuns)
	}

	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) session(runID string) (*session, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	sess, ok := s.runs.Get(runID)
	if !ok {
		return nil, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
	}
	return sess, nil
}

// advance moves sess to now. It reports whether this call committed a result.
func (s *Service) advance(ctx context.Context, sess *session) (simulation.Snapshot, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.runner.Advance(s.clock.Now())
	committed := s.commitLocked(ctx, sess)
	return sess.runner.Snapshot(), committed
}

// commitLocked applies the run's result to the profile once. sess.mu must
// be held.
func (s *Service) commitLocked(ctx context.Context, sess *session) bool {
	if sess.committed {
		return false
	}
	result, ok := sess.runner.Result()
	if !ok {
		return false
	}
	sess.committed = true

	if s.deduper.SeenAndRecord(ctx, result.RunID) {
		metrics.RecordCommitDuplicate()
		s.logger.Warn(ctx, "duplicate run result, skipping", logger.String("run_id", result.RunID))
		return false
	}

	s.mu.Lock()
	s.state.Complete(result, s.catalog)
	s.persistLocked(ctx)
	user, n := s.state.User, len(s.state.ResultsHistory)
	s.mu.Unlock()

	metrics.RecordRunFinished(result.Score, result.Grade)
	s.publishProfile(user, n)
	s.logger.Info(ctx, "run committed",
		logger.String("run_id", result.RunID),
		logger.Int("scenario_id", result.ScenarioID),
		logger.Int("score", result.Score),
		logger.String("grade", result.Grade),
		logger.Int("dms", user.DMS),
	)
	return true
}

// persistLocked hands a copy of the state to the saver. s.mu must be held.
// A full queue leaves the state dirty; the next mutation or Stop carries it.
func (s *Service) persistLocked(ctx context.Context) {
	s.seq++
	err := s.persistQueue.Enqueue(context.WithoutCancel(ctx), queue.Snapshot{Seq: s.seq, State: s.state.Clone()})
	switch {
	case err == nil:
		s.dirty = false
	case errors.Is(err, queue.ErrFull):
		s.dirty = true
		s.logger.Warn(ctx, "persist queue full, deferring write", logger.Int64("seq", int64(s.seq)))
	default:
		s.dirty = true
		s.logger.Error(ctx, "persist enqueue failed", logger.Error(err))
	}
}

// onEvict runs outside s.mu, so a run that already ran out of time can still
// commit before it is dropped.
func (s *Service) onEvict(id string, sess *session) {
	ctx := context.Background()
	sess.mu.Lock()
	sess.runner.Advance(s.clock.Now())
	s.commitLocked(ctx, sess)
	abandoned := sess.runner.Abandon()
	sess.mu.Unlock()
	if abandoned {
		metrics.RecordRunAbandoned("evicted")
		if s.logger != nil {
			s.logger.Warn(ctx, "live run evicted", logger.String("run_id", id))
		}
	}
}

func (s *Service) sweepLoop(ctx context.Context) {
	defer s.sweepWG.Done()
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Service) publishProfile(user model.UserProfile, historyEntries int) {
	traits := make(map[string]int, len(model.Traits))
	for _, t := range model.Traits {
		traits[string(t)] = user.Trait(t)
	}
	metrics.UpdateProfile(user.DMS, traits, user.TotalSimulations, historyEntries)
}
