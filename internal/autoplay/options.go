package autoplay

import (
	"math/rand/v2"
	"time"

	"github.com/okian/drivemind/pkg/logger"
)

// Option configures a Player.
type Option func(*Player)

// WithPolicy sets the decision policy.
func WithPolicy(p Policy) Option {
	return func(pl *Player) {
		if p != "" {
			pl.policy = p
		}
	}
}

// WithReactionDelay sets how long after a decision appears the bot answers.
func WithReactionDelay(d time.Duration) Option {
	return func(pl *Player) {
		if d >= 0 {
			pl.reaction = d
		}
	}
}

// WithJitter adds a uniform random delay in [0, d] to every reaction.
func WithJitter(d time.Duration) Option {
	return func(pl *Player) {
		if d >= 0 {
			pl.jitter = d
		}
	}
}

// WithSeed makes the random policy and the jitter reproducible.
func WithSeed(seed uint64) Option {
	return func(pl *Player) {
		pl.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithMaxSteps bounds the polls spent on a single run.
func WithMaxSteps(n int) Option {
	return func(pl *Player) {
		if n > 0 {
			pl.maxSteps = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(pl *Player) {
		if l != nil {
			pl.logger = l
		}
	}
}
