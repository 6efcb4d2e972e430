// Package simulation drives one timed scenario run.
//
// A Runner is a discrete-time state machine:
//
//	Countdown(3..0) -> Running <-> DecisionPending -> Finished
//
// Time only enters through the instants passed to Advance, Resolve and
// Finish, so the same code runs against the wall clock or a synthetic clock.
// Every tick that falls due before the supplied instant is replayed at its
// scheduled time, in order, before the call returns.
//
// A Runner is not safe for concurrent use.
package simulation

import (
	"fmt"
	"time"

	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/scoring"
)

// Default timing.
const (
	defaultCountdownFrom = 3
	defaultTick          = time.Second
	defaultGrace         = 500 * time.Millisecond
)

// Phase is the externally visible state of a run.
type Phase string

// Runner phases.
const (
	PhaseCountdown Phase = "countdown"
	PhaseRunning   Phase = "running"
	PhasePending   Phase = "decision_pending"
	PhaseFinished  Phase = "finished"
	PhaseAbandoned Phase = "abandoned"
)

// Active reports whether the run can still change state.
func (p Phase) Active() bool {
	return p == PhaseCountdown || p == PhaseRunning || p == PhasePending
}

// PendingDecision is the decision currently presented to the user.
type PendingDecision struct {
	Index       int                    `json:"index"`
	Time        int                    `json:"time"`
	Options     []model.DecisionOption `json:"options"`
	ActivatedAt time.Time              `json:"activatedAt"`
}

// Snapshot is everything a presentation layer needs at one instant.
type Snapshot struct {
	RunID      string                  `json:"runId,omitempty"`
	ScenarioID int                     `json:"scenarioId"`
	Phase      Phase                   `json:"phase"`
	Countdown  int                     `json:"countdown"`
	Remaining  int                     `json:"remaining"`
	Elapsed    int                     `json:"elapsed"`
	Duration   int                     `json:"duration"`
	Recorded   int                     `json:"recorded"`
	Pending    *PendingDecision        `json:"pending,omitempty"`
	NextTickAt *time.Time              `json:"nextTickAt,omitempty"`
	Result     *model.SimulationResult `json:"result,omitempty"`
}

// Resolution describes the outcome of Resolve.
type Resolution struct {
	Resolved bool                   `json:"resolved"`
	Decision model.RecordedDecision `json:"decision"`
}

// Runner sequences a single scenario run.
type Runner struct {
	scenario model.Scenario
	runID    string

	countdownFrom int
	tick          time.Duration
	grace         time.Duration

	phase     Phase
	countdown int
	remaining int
	nextTick  time.Time

	next        int // index of the next unconsumed decision
	activatedAt time.Time
	recorded    []model.RecordedDecision

	result *model.SimulationResult
}

// New starts a run of scenario at start. The run begins in the countdown.
func New(scenario model.Scenario, start time.Time, opts ...Option) *Runner {
	r := &Runner{
		scenario:      scenario,
		countdownFrom: defaultCountdownFrom,
		tick:          defaultTick,
		grace:         defaultGrace,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.phase = PhaseCountdown
	r.countdown = r.countdownFrom
	r.remaining = scenario.Duration
	if r.countdown > 0 {
		r.nextTick = start.Add(r.tick)
	} else {
		r.nextTick = start.Add(r.grace)
	}
	return r
}

// RunID returns the identifier given with WithRunID.
func (r *Runner) RunID() string { return r.runID }

// Scenario returns the scenario being run.
func (r *Runner) Scenario() model.Scenario { return r.scenario }

// Phase returns the current phase.
func (r *Runner) Phase() Phase { return r.phase }

// NextTick returns the instant of the next scheduled tick. It is the zero
// time once the run has ended.
func (r *Runner) NextTick() time.Time {
	if !r.phase.Active() {
		return time.Time{}
	}
	return r.nextTick
}

// Advance processes every tick scheduled at or before now.
func (r *Runner) Advance(now time.Time) {
	for r.phase.Active() && !now.Before(r.nextTick) {
		r.step(r.nextTick)
	}
}

// step processes exactly one tick scheduled at t.
func (r *Runner) step(t time.Time) {
	switch r.phase {
	case PhaseCountdown:
		if r.countdown > 0 {
			r.countdown--
			if r.countdown == 0 {
				r.nextTick = t.Add(r.grace)
			} else {
				r.nextTick = t.Add(r.tick)
			}
			return
		}
		r.phase = PhaseRunning
		r.remaining = r.scenario.Duration
		r.nextTick = t.Add(r.tick)
		if r.remaining <= 0 {
			r.finish(t)
			return
		}
		r.activate(t)
	case PhaseRunning, PhasePending:
		r.remaining--
		if r.remaining <= 0 {
			r.remaining = 0
			r.finish(t)
			return
		}
		r.nextTick = t.Add(r.tick)
		r.activate(t)
	}
}

// elapsed returns whole seconds since the run phase began.
func (r *Runner) elapsed() int {
	return r.scenario.Duration - r.remaining
}

// activate makes the next decision pending when its trigger time has passed
// and no other decision is pending.
func (r *Runner) activate(t time.Time) {
	if r.phase != PhaseRunning || r.next >= len(r.scenario.Decisions) {
		return
	}
	if r.elapsed() < r.scenario.Decisions[r.next].Time {
		return
	}
	r.phase = PhasePending
	r.activatedAt = t
}

// Pending returns the decision awaiting resolution, if any.
func (r *Runner) Pending() (PendingDecision, bool) {
	if r.phase != PhasePending {
		return PendingDecision{}, false
	}
	d := r.scenario.Decisions[r.next]
	return PendingDecision{
		Index:       r.next,
		Time:        d.Time,
		Options:     append([]model.DecisionOption(nil), d.Options...),
		ActivatedAt: r.activatedAt,
	}, true
}

// Resolve answers the pending decision with the option at optionIndex.
// Without a pending decision at now it is a no-op and reports Resolved=false.
// An index outside the pending decision's options returns ErrInvalidOption.
func (r *Runner) Resolve(now time.Time, optionIndex int) (Resolution, error) {
	r.Advance(now)
	if r.phase != PhasePending {
		return Resolution{}, nil
	}

	options := r.scenario.Decisions[r.next].Options
	if optionIndex < 0 || optionIndex >= len(options) {
		return Resolution{}, fmt.Errorf("option %d of %d: %w", optionIndex, len(options), ErrInvalidOption)
	}
	opt := options[optionIndex]

	reaction := now.Sub(r.activatedAt).Milliseconds()
	if reaction < 0 {
		reaction = 0
	}
	rec := model.RecordedDecision{
		Time:         r.elapsed(),
		Choice:       opt.Label,
		Category:     opt.Category,
		Impact:       opt.Impact,
		ReactionTime: reaction,
	}
	r.recorded = append(r.recorded, rec)
	r.next++
	r.activatedAt = time.Time{}
	r.phase = PhaseRunning

	// A follow-up decision whose trigger already passed becomes pending now.
	r.activate(now)

	return Resolution{Resolved: true, Decision: rec}, nil
}

// Finish ends an active run at now and returns its result. Ticks due before
// now are processed first, so a run that already timed out keeps the result
// it produced then.
func (r *Runner) Finish(now time.Time) (model.SimulationResult, error) {
	r.Advance(now)
	switch r.phase {
	case PhaseFinished:
		return *r.result, nil
	case PhaseRunning, PhasePending:
		r.finish(now)
		return *r.result, nil
	default:
		return model.SimulationResult{}, fmt.Errorf("finish in phase %s: %w", r.phase, ErrNotRunning)
	}
}

// Abandon drops the run. No result is produced. It reports whether the run
// was still active.
func (r *Runner) Abandon() bool {
	if !r.phase.Active() {
		return false
	}
	r.phase = PhaseAbandoned
	r.recorded = nil
	r.activatedAt = time.Time{}
	return true
}

// Result returns the emitted result once the run has finished.
func (r *Runner) Result() (model.SimulationResult, bool) {
	if r.result == nil {
		return model.SimulationResult{}, false
	}
	return *r.result, true
}

// Snapshot describes the run at its last processed instant.
func (r *Runner) Snapshot() Snapshot {
	s := Snapshot{
		RunID:      r.runID,
		ScenarioID: r.scenario.ID,
		Phase:      r.phase,
		Countdown:  r.countdown,
		Remaining:  r.remaining,
		Elapsed:    r.elapsed(),
		Duration:   r.scenario.Duration,
		Recorded:   len(r.recorded),
	}
	if next := r.NextTick(); !next.IsZero() {
		s.NextTickAt = &next
	}
	if r.phase == PhaseCountdown {
		s.Elapsed = 0
	}
	if p, ok := r.Pending(); ok {
		s.Pending = &p
	}
	if r.result != nil {
		res := *r.result
		s.Result = &res
		s.Recorded = len(res.Decisions)
	}
	return s
}

// finish assembles the result and releases the transient decision state.
func (r *Runner) finish(t time.Time) {
	decisions := r.recorded
	mean := scoring.MeanReactionTime(decisions)
	score := scoring.Score(decisions, mean)
	change := scoring.MetricsChange(decisions)

	if decisions == nil {
		decisions = []model.RecordedDecision{}
	}
	r.result = &model.SimulationResult{
		RunID:         r.runID,
		ScenarioID:    r.scenario.ID,
		Timestamp:     t,
		Score:         score,
		Grade:         scoring.Grade(score),
		ReactionTime:  scoring.RoundHalfUp(mean),
		Decisions:     decisions,
		MetricsChange: change,
		Insights:      scoring.Insights(decisions, mean, change),
	}

	r.phase = PhaseFinished
	r.recorded = nil
	r.activatedAt = time.Time{}
}
