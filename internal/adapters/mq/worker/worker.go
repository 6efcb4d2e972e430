// Package worker drains the persist queue into the state store.
//
// A single Saver owns the store's write side so saves land in the order
// they were enqueued. When several snapshots are waiting, only the newest is
// written and every waiting Ack receives that write's result.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/drivemind/internal/adapters/mq/queue"
	"github.com/okian/drivemind/internal/domain/profile"
	"github.com/okian/drivemind/pkg/logger"
	"github.com/okian/drivemind/pkg/metrics"
)

// Store is the write side of the state repository.
type Store interface {
	Save(ctx context.Context, state profile.State) error
}

// Queue defines how the saver receives snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Snapshot
}

// Saver writes queued snapshots to a Store.
type Saver struct {
	queue Queue
	store Store
	name  string

	done chan struct{}

	logger logger.Logger
}

// NewSaver creates a saver with configuration options.
func NewSaver(q Queue, store Store, opts ...Option) *Saver {
	w := &Saver{
		queue:  q,
		store:  store,
		name:   "saver",
		done:   make(chan struct{}),
		logger: logger.Get().Named("saver"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "saver" {
		w.logger = w.logger.Named(w.name)
	}

	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(1)

	return w
}

// Run saves snapshots until the queue is closed and drained. Cancellation
// of ctx does not interrupt it; use Shutdown.
func (w *Saver) Run(ctx context.Context) {
	defer close(w.done)

	ctx = context.WithoutCancel(ctx)
	ch := w.queue.Dequeue(ctx)
	for {
		s, ok := <-ch
		if !ok {
			return
		}

		batch := []queue.Snapshot{s}
		closed := false
	drain:
		for {
			select {
			case next, ok := <-ch:
				if !ok {
					closed = true
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}

		newest := batch[0]
		for _, b := range batch[1:] {
			if b.Seq >= newest.Seq {
				newest = b
			}
		}

		err := w.save(ctx, newest)
		for _, b := range batch {
			b.Acknowledge(err)
		}
		if closed {
			return
		}
	}
}

// Shutdown closes the queue, when it can be closed, and waits for the
// remaining snapshots to be saved.
func (w *Saver) Shutdown(ctx context.Context) error {
	if closer, ok := w.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			w.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *Saver) Done() <-chan struct{} { return w.done }

// save writes one snapshot.
func (w *Saver) save(ctx context.Context, s queue.Snapshot) error { //nolint:gocritic // hugeParam: Snapshot is passed by value for channel semantics
	start := time.Now()
	metrics.UpdateWorkerActiveCount(1)
	metrics.UpdateWorkerIdleCount(0)
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		metrics.UpdateWorkerActiveCount(0)
		metrics.UpdateWorkerIdleCount(1)
	}()

	if err := w.store.Save(ctx, s.State); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("saver", "save_failed")
		w.logger.Error(ctx, "state save failed",
			logger.Int64("seq", int64(s.Seq)),
			logger.Error(err),
		)
		return fmt.Errorf("save snapshot %d: %w", s.Seq, err)
	}

	w.logger.Debug(ctx, "state saved",
		logger.Int64("seq", int64(s.Seq)),
		logger.Int("history", len(s.State.ResultsHistory)),
	)
	return nil
}
