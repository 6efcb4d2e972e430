package autoplay

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/drivemind/internal/domain/simulation"
)

// Clock tells the bot what time it is and lets it wait for a later instant.
type Clock interface {
	Now() time.Time
	WaitUntil(ctx context.Context, t time.Time) error
}

// Synthetic returns a Clock that jumps c forward instead of sleeping. The
// same ManualClock must drive the service being played.
func Synthetic(c *simulation.ManualClock) Clock {
	return syntheticClock{c: c}
}

type syntheticClock struct {
	c *simulation.ManualClock
}

func (s syntheticClock) Now() time.Time { return s.c.Now() }

func (s syntheticClock) WaitUntil(ctx context.Context, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	if t.After(s.c.Now()) {
		s.c.Set(t)
	}
	return nil
}

// Wall returns a Clock that sleeps in real time.
func Wall() Clock {
	return wallClock{}
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) WaitUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
