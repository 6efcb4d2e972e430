package simulation

import "time"

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithCountdown sets the number the pre-run countdown starts from.
func WithCountdown(from int) Option {
	return func(r *Runner) {
		if from >= 0 {
			r.countdownFrom = from
		}
	}
}

// WithGrace sets the pause between the countdown reaching zero and the run.
func WithGrace(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.grace = d
		}
	}
}

// WithTickInterval sets the length of one countdown and run tick.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.tick = d
		}
	}
}

// WithRunID tags the runner and its result with id.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}
