// Package autoplay drives scenario runs with a scripted player. It is used
// to exercise a service end to end, either in process on a synthetic clock
// or against a running server over HTTP.
package autoplay

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/simulation"
	"github.com/okian/drivemind/pkg/logger"
)

const (
	defaultReaction = 800 * time.Millisecond
	defaultMaxSteps = 1000
)

// Driver is the part of the run API the bot needs.
type Driver interface {
	StartRun(ctx context.Context, scenarioID int) (simulation.Snapshot, error)
	Run(ctx context.Context, runID string) (simulation.Snapshot, error)
	Resolve(ctx context.Context, runID string, optionIndex int) (simulation.Resolution, simulation.Snapshot, error)
}

// Player plays runs through a Driver.
type Player struct {
	driver Driver
	clock  Clock

	policy   Policy
	reaction time.Duration
	jitter   time.Duration
	maxSteps int
	rnd      *rand.Rand
	logger   logger.Logger
}

// New creates a Player. clock must be the clock the driver's runs use.
func New(driver Driver, clock Clock, opts ...Option) *Player {
	p := &Player{
		driver:   driver,
		clock:    clock,
		policy:   PolicySafe,
		reaction: defaultReaction,
		maxSteps: defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rnd == nil {
		p.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("autoplay")
	}
	return p
}

// Policy returns the configured policy.
func (p *Player) Policy() Policy { return p.policy }

// Play runs scenarioID to completion and returns its result.
func (p *Player) Play(ctx context.Context, scenarioID int) (model.SimulationResult, error) {
	snap, err := p.driver.StartRun(ctx, scenarioID)
	if err != nil {
		return model.SimulationResult{}, fmt.Errorf("start scenario %d: %w", scenarioID, err)
	}
	runID := snap.RunID

	for step := 0; step < p.maxSteps; step++ {
		switch snap.Phase {
		case simulation.PhaseFinished:
			if snap.Result == nil {
				return model.SimulationResult{}, fmt.Errorf("run %s finished without a result: %w", runID, ErrAbandoned)
			}
			return *snap.Result, nil
		case simulation.PhaseAbandoned:
			return model.SimulationResult{}, fmt.Errorf("run %s: %w", runID, ErrAbandoned)
		case simulation.PhasePending:
			snap, err = p.answer(ctx, runID, snap.Pending)
		default:
			if snap.NextTickAt == nil {
				return model.SimulationResult{}, fmt.Errorf("run %s in phase %s has no next tick: %w", runID, snap.Phase, ErrStalled)
			}
			if err = p.clock.WaitUntil(ctx, *snap.NextTickAt); err != nil {
				return model.SimulationResult{}, err
			}
			snap, err = p.driver.Run(ctx, runID)
		}
		if err != nil {
			return model.SimulationResult{}, fmt.Errorf("run %s: %w", runID, err)
		}
	}
	return model.SimulationResult{}, fmt.Errorf("run %s after %d steps: %w", runID, p.maxSteps, ErrStalled)
}

// answer waits out the reaction delay and resolves the pending decision.
func (p *Player) answer(ctx context.Context, runID string, pending *simulation.PendingDecision) (simulation.Snapshot, error) {
	if err := p.clock.WaitUntil(ctx, pending.ActivatedAt.Add(p.reactionDelay())); err != nil {
		return simulation.Snapshot{}, err
	}
	idx := p.policy.Choose(pending.Options, p.rnd)
	res, snap, err := p.driver.Resolve(ctx, runID, idx)
	if err != nil {
		return simulation.Snapshot{}, err
	}
	if res.Resolved {
		p.logger.Debug(ctx, "decision answered",
			logger.String("run_id", runID),
			logger.String("choice", res.Decision.Choice),
			logger.Int64("reaction_ms", res.Decision.ReactionTime),
		)
	}
	return snap, nil
}

func (p *Player) reactionDelay() time.Duration {
	if p.jitter <= 0 {
		return p.reaction
	}
	return p.reaction + time.Duration(p.rnd.Int64N(int64(p.jitter)+1))
}

// PlayAll plays every scenario in ids, rounds times over, one run at a time.
// It stops at the first error and returns the statistics gathered so far.
func (p *Player) PlayAll(ctx context.Context, ids []int, rounds int) (*Stats, error) {
	stats := newStats(p.policy)
	stats.StartTime = time.Now()
	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
	}()

	for round := 0; round < rounds; round++ {
		for _, id := range ids {
			result, err := p.Play(ctx, id)
			if err != nil {
				stats.Failed++
				return stats, err
			}
			stats.add(result)
			p.logger.Info(ctx, "run finished",
				logger.Int("round", round+1),
				logger.Int("scenario_id", id),
				logger.String("run_id", result.RunID),
				logger.Int("score", result.Score),
				logger.String("grade", result.Grade),
				logger.Int64("reaction_ms", result.ReactionTime),
			)
		}
	}
	return stats, nil
}
