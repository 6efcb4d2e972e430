package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	repository "github.com/okian/drivemind/internal/adapters/repository"
	service "github.com/okian/drivemind/internal/app"
	"github.com/okian/drivemind/internal/domain/catalog"
	"github.com/okian/drivemind/internal/domain/simulation"
	"github.com/okian/drivemind/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithLevel("error"))
	if err != nil {
		panic(err)
	}
}

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// sequentialIDs returns run ids run-1, run-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

// newTestService builds a service on a manual clock with no countdown and
// no background sweeper.
func newTestService(clock *simulation.ManualClock, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithClock(clock),
		service.WithCountdown(0, 0),
		service.WithSweepInterval(0),
		service.WithIDGenerator(sequentialIDs()),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["maxActiveRuns"], ShouldEqual, 64)
		})

		Convey("Then the profile is the zero state", func() {
			p := svc.Profile(context.Background())
			So(p.Name, ShouldEqual, "Driver")
			So(p.TotalSimulations, ShouldEqual, 0)
			So(p.ScenariosCompleted, ShouldBeEmpty)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithMaxActiveRuns(8),
			service.WithPersistQueueSize(16),
			service.WithDedupeSize(128),
			service.WithPlayerName("Ada"),
		)

		Convey("Then they are reflected in the stats and profile", func() {
			stats := svc.GetStats()
			So(stats["maxActiveRuns"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["dedupeSize"], ShouldEqual, 128)
			So(svc.Profile(context.Background()).Name, ShouldEqual, "Ada")
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Ensure service is stopped after test
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["backend"], ShouldEqual, repository.BackendMemory)
				So(stats["scenarios"], ShouldEqual, 8)
				So(stats["activeRuns"], ShouldEqual, 0)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a state file that cannot be decoded", t, func() {
		path := filepath.Join(t.TempDir(), "state.json")
		So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)

		svc := service.New(service.WithStore(repository.NewFileStore(path)))
		ctx := context.Background()
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then the service starts from the zero state", func() {
			So(svc.Start(ctx), ShouldBeNil)
			p := svc.Profile(ctx)
			So(p.TotalSimulations, ShouldEqual, 0)
			So(svc.History(ctx), ShouldBeEmpty)
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When stopping the service", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("Then stopping again is a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})

			Convey("Then run operations report the service is not started", func() {
				_, err := svc.StartRun(ctx, 1)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(svc.Reset(ctx), service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(svc.Flush(ctx), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_RunLookup(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		clock := simulation.NewManualClock(epoch)
		svc := newTestService(clock)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When starting a run of an unknown scenario", func() {
			_, err := svc.StartRun(ctx, 99)

			Convey("Then the catalog lookup error is returned", func() {
				So(errors.Is(err, catalog.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When addressing an unknown run", func() {
			_, runErr := svc.Run(ctx, "missing")
			_, _, resolveErr := svc.Resolve(ctx, "missing", 0)
			_, finishErr := svc.Finish(ctx, "missing")
			abandonErr := svc.Abandon(ctx, "missing")

			Convey("Then every operation reports it as not found", func() {
				So(errors.Is(runErr, service.ErrRunNotFound), ShouldBeTrue)
				So(errors.Is(resolveErr, service.ErrRunNotFound), ShouldBeTrue)
				So(errors.Is(finishErr, service.ErrRunNotFound), ShouldBeTrue)
				So(errors.Is(abandonErr, service.ErrRunNotFound), ShouldBeTrue)
			})
		})

		Convey("When resolving with an option the decision does not have", func() {
			snap, err := svc.StartRun(ctx, 1)
			So(err, ShouldBeNil)
			clock.Advance(3 * time.Second)

			_, after, err := svc.Resolve(ctx, snap.RunID, 5)

			Convey("Then it is rejected and the decision stays pending", func() {
				So(errors.Is(err, simulation.ErrInvalidOption), ShouldBeTrue)
				So(after.Phase, ShouldEqual, simulation.PhasePending)
			})
		})

		Convey("When finishing an abandoned run", func() {
			snap, err := svc.StartRun(ctx, 1)
			So(err, ShouldBeNil)
			So(svc.Abandon(ctx, snap.RunID), ShouldBeNil)

			_, err = svc.Finish(ctx, snap.RunID)

			Convey("Then the run is gone", func() {
				So(errors.Is(err, service.ErrRunNotFound), ShouldBeTrue)
				So(svc.Profile(ctx).TotalSimulations, ShouldEqual, 0)
			})
		})
	})
}

func TestService_ReusedRunID(t *testing.T) {
	Convey("Given a service whose id source repeats itself", t, func() {
		ctx := context.Background()
		clock := simulation.NewManualClock(epoch)
		svc := newTestService(clock, service.WithIDGenerator(func() string { return "run-same" }))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		first, err := svc.StartRun(ctx, 1)
		So(err, ShouldBeNil)
		clock.Advance(30 * time.Second)
		snap, err := svc.Run(ctx, first.RunID)
		So(err, ShouldBeNil)
		So(snap.Phase, ShouldEqual, simulation.PhaseFinished)

		Convey("When a second run under the same id also finishes", func() {
			second, err := svc.StartRun(ctx, 2)
			So(err, ShouldBeNil)
			So(second.RunID, ShouldEqual, first.RunID)
			clock.Advance(30 * time.Second)
			snap, err := svc.Run(ctx, second.RunID)
			So(err, ShouldBeNil)

			Convey("Then only the first result reaches the profile", func() {
				So(snap.Phase, ShouldEqual, simulation.PhaseFinished)
				So(snap.ScenarioID, ShouldEqual, 2)
				So(svc.Profile(ctx).TotalSimulations, ShouldEqual, 1)
				So(svc.History(ctx), ShouldHaveLength, 1)
				So(svc.History(ctx)[0].ScenarioID, ShouldEqual, 1)
			})
		})
	})
}
