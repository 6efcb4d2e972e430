package service

import (
	"time"

	repository "github.com/okian/drivemind/internal/adapters/repository"
	"github.com/okian/drivemind/internal/domain/catalog"
	"github.com/okian/drivemind/internal/domain/simulation"
	"github.com/okian/drivemind/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the scenario catalog. The built-in catalog is used otherwise.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithStore sets the state store. An in-memory store is used otherwise.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClock sets the clock runs are driven by.
func WithClock(c simulation.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMaxActiveRuns bounds the live-run registry. The least recently used
// run is abandoned when a new run would exceed it.
func WithMaxActiveRuns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxActiveRuns = n
		}
	}
}

// WithPersistQueueSize sets the capacity of the write-behind queue.
func WithPersistQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many committed run ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPlayerName sets the display name of a fresh profile.
func WithPlayerName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.playerName = name
		}
	}
}

// WithCountdown sets the pre-run countdown and the grace before running.
func WithCountdown(from int, grace time.Duration) Option {
	return func(s *Service) {
		if from >= 0 {
			s.countdownFrom = from
		}
		if grace >= 0 {
			s.grace = grace
		}
	}
}

// WithSweepInterval sets how often finished runs are collected in the
// background. Zero disables the sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.sweepInterval = d
		}
	}
}

// WithIDGenerator replaces the run id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
