package simulation_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/scoring"
	"github.com/okian/drivemind/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// at returns t0 plus ms milliseconds.
func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func overtaking() model.Scenario {
	return model.Scenario{
		ID:         1,
		Name:       "The Overtaking Temptation",
		Difficulty: model.DifficultyHard,
		Duration:   10,
		Decisions: []model.Decision{
			{Time: 3, Options: []model.DecisionOption{
				{Label: "WAIT", Category: model.CategorySafe, Impact: model.Impact{Patience: 5, RiskPerception: 3}},
				{Label: "ACCELERATE", Category: model.CategoryRisky, Impact: model.Impact{Patience: -5, RiskPerception: -8, Awareness: 2}},
			}},
			{Time: 6, Options: []model.DecisionOption{
				{Label: "CHANGE LANE", Category: model.CategoryRisky, Impact: model.Impact{RiskPerception: -5, Awareness: 3}},
				{Label: "MAINTAIN SPEED", Category: model.CategorySafe, Impact: model.Impact{Patience: 3, Awareness: 4}},
			}},
		},
	}
}

func TestRunnerCountdown(t *testing.T) {
	Convey("Given a freshly started runner", t, func() {
		r := simulation.New(overtaking(), t0, simulation.WithRunID("run-1"))

		Convey("Then it starts counting down from three", func() {
			s := r.Snapshot()
			So(s.Phase, ShouldEqual, simulation.PhaseCountdown)
			So(s.Countdown, ShouldEqual, 3)
			So(s.Remaining, ShouldEqual, 10)
			So(s.RunID, ShouldEqual, "run-1")
			So(r.NextTick(), ShouldEqual, at(1000))
			So(s.NextTickAt, ShouldNotBeNil)
			So(s.NextTickAt.Equal(at(1000)), ShouldBeTrue)
		})

		Convey("When each countdown second elapses", func() {
			r.Advance(at(1000))
			So(r.Snapshot().Countdown, ShouldEqual, 2)
			r.Advance(at(2000))
			So(r.Snapshot().Countdown, ShouldEqual, 1)
			r.Advance(at(3000))

			Convey("Then zero is held for the grace interval", func() {
				So(r.Snapshot().Countdown, ShouldEqual, 0)
				So(r.Phase(), ShouldEqual, simulation.PhaseCountdown)
				r.Advance(at(3499))
				So(r.Phase(), ShouldEqual, simulation.PhaseCountdown)
			})

			Convey("Then the run starts with the full duration after the grace", func() {
				r.Advance(at(3500))
				s := r.Snapshot()
				So(s.Phase, ShouldEqual, simulation.PhaseRunning)
				So(s.Remaining, ShouldEqual, 10)
				So(s.Elapsed, ShouldEqual, 0)
				So(r.NextTick(), ShouldEqual, at(4500))
			})
		})

		Convey("When resolving during the countdown", func() {
			res, err := r.Resolve(at(500), 0)

			Convey("Then nothing happens", func() {
				So(err, ShouldBeNil)
				So(res.Resolved, ShouldBeFalse)
				So(r.Phase(), ShouldEqual, simulation.PhaseCountdown)
			})
		})

		Convey("When finishing during the countdown", func() {
			_, err := r.Finish(at(500))
			So(errors.Is(err, simulation.ErrNotRunning), ShouldBeTrue)
		})
	})

	Convey("Given custom timing options", t, func() {
		r := simulation.New(overtaking(), t0,
			simulation.WithCountdown(0),
			simulation.WithGrace(0),
			simulation.WithTickInterval(100*time.Millisecond),
		)

		Convey("Then the run starts immediately and ticks faster", func() {
			r.Advance(t0)
			So(r.Phase(), ShouldEqual, simulation.PhaseRunning)
			r.Advance(at(300))
			So(r.Snapshot().Elapsed, ShouldEqual, 3)
			So(r.Phase(), ShouldEqual, simulation.PhasePending)
		})
	})
}

func TestRunnerDecisions(t *testing.T) {
	Convey("Given a running simulation", t, func() {
		r := simulation.New(overtaking(), t0)
		r.Advance(at(3500))

		Convey("When elapsed time is below the first trigger", func() {
			r.Advance(at(5500))

			Convey("Then no decision is pending", func() {
				_, ok := r.Pending()
				So(ok, ShouldBeFalse)
				So(r.Snapshot().Elapsed, ShouldEqual, 2)
			})
		})

		Convey("When the first trigger time is reached", func() {
			r.Advance(at(6500))

			Convey("Then the first decision is pending from that tick", func() {
				p, ok := r.Pending()
				So(ok, ShouldBeTrue)
				So(p.Index, ShouldEqual, 0)
				So(p.ActivatedAt, ShouldEqual, at(6500))
				So(len(p.Options), ShouldEqual, 2)
				So(r.Phase(), ShouldEqual, simulation.PhasePending)
			})

			Convey("And an option from outside the decision is chosen", func() {
				_, err := r.Resolve(at(7000), 2)
				_, errNeg := r.Resolve(at(7000), -1)

				Convey("Then it is rejected and the decision stays pending", func() {
					So(errors.Is(err, simulation.ErrInvalidOption), ShouldBeTrue)
					So(errors.Is(errNeg, simulation.ErrInvalidOption), ShouldBeTrue)
					_, ok := r.Pending()
					So(ok, ShouldBeTrue)
					So(r.Snapshot().Recorded, ShouldEqual, 0)
				})
			})

			Convey("And the user answers 800ms later", func() {
				res, err := r.Resolve(at(7300), 0)

				Convey("Then the decision is recorded with its reaction time", func() {
					So(err, ShouldBeNil)
					So(res.Resolved, ShouldBeTrue)
					So(res.Decision, ShouldResemble, model.RecordedDecision{
						Time:         3,
						Choice:       "WAIT",
						Category:     model.CategorySafe,
						Impact:       model.Impact{Patience: 5, RiskPerception: 3},
						ReactionTime: 800,
					})
					So(r.Phase(), ShouldEqual, simulation.PhaseRunning)
				})

				Convey("Then a second resolution is a no-op", func() {
					again, err := r.Resolve(at(7400), 1)
					So(err, ShouldBeNil)
					So(again.Resolved, ShouldBeFalse)
					So(r.Snapshot().Recorded, ShouldEqual, 1)
				})
			})
		})
	})
}

func TestRunnerCompletion(t *testing.T) {
	Convey("Given a run where both decisions are answered", t, func() {
		r := simulation.New(overtaking(), t0, simulation.WithRunID("run-42"))
		r.Advance(at(6500))
		_, err := r.Resolve(at(7300), 0) // WAIT, safe, 800ms
		So(err, ShouldBeNil)
		r.Advance(at(9500))
		p, ok := r.Pending()
		So(ok, ShouldBeTrue)
		So(p.Index, ShouldEqual, 1)
		_, err = r.Resolve(at(10400), 0) // CHANGE LANE, risky, 900ms
		So(err, ShouldBeNil)

		Convey("When the timer runs out", func() {
			r.Advance(at(13499))
			So(r.Phase(), ShouldEqual, simulation.PhaseRunning)
			So(r.Snapshot().Remaining, ShouldEqual, 1)
			r.Advance(at(13500))

			Convey("Then the run finishes and emits its result", func() {
				So(r.Phase(), ShouldEqual, simulation.PhaseFinished)
				res, ok := r.Result()
				So(ok, ShouldBeTrue)
				So(res.RunID, ShouldEqual, "run-42")
				So(res.ScenarioID, ShouldEqual, 1)
				So(res.Timestamp, ShouldEqual, at(13500))
				So(res.ReactionTime, ShouldEqual, 850)
				So(res.Score, ShouldEqual, 65)
				So(res.Grade, ShouldEqual, "C")
				So(res.MetricsChange, ShouldResemble, model.Impact{Awareness: 3, Patience: 5, RiskPerception: -2})
				So(res.Insights, ShouldResemble, []string{scoring.InsightQuickReaction})
				So(len(res.Decisions), ShouldEqual, 2)
				So(res.Decisions[1].Time, ShouldEqual, 6)
				So(res.Decisions[1].ReactionTime, ShouldEqual, 900)
			})

			Convey("Then the snapshot carries the result and no further ticks", func() {
				s := r.Snapshot()
				So(s.Result, ShouldNotBeNil)
				So(s.Remaining, ShouldEqual, 0)
				So(s.Recorded, ShouldEqual, 2)
				So(r.NextTick().IsZero(), ShouldBeTrue)
				So(s.NextTickAt, ShouldBeNil)

				raw, err := json.Marshal(s)
				So(err, ShouldBeNil)
				So(string(raw), ShouldNotContainSubstring, "nextTickAt")
			})

			Convey("Then finishing again returns the same result", func() {
				res, err := r.Finish(at(20000))
				So(err, ShouldBeNil)
				So(res.Timestamp, ShouldEqual, at(13500))
			})
		})

		Convey("When the caller finishes early", func() {
			res, err := r.Finish(at(11000))

			Convey("Then the result is assembled at that instant", func() {
				So(err, ShouldBeNil)
				So(res.Timestamp, ShouldEqual, at(11000))
				So(len(res.Decisions), ShouldEqual, 2)
				So(r.Phase(), ShouldEqual, simulation.PhaseFinished)
			})
		})
	})

	Convey("Given a run where nothing is answered", t, func() {
		r := simulation.New(overtaking(), t0)

		Convey("When the caller only looks at the run after it timed out", func() {
			r.Advance(at(60000))

			Convey("Then pending decisions are dropped and the neutral default applies", func() {
				res, ok := r.Result()
				So(ok, ShouldBeTrue)
				So(res.Timestamp, ShouldEqual, at(13500))
				So(res.Decisions, ShouldBeEmpty)
				So(res.ReactionTime, ShouldEqual, 2000)
				So(res.Score, ShouldEqual, 50)
				So(res.Grade, ShouldEqual, "D")
				So(res.MetricsChange, ShouldResemble, model.Impact{})
				So(res.Insights, ShouldBeEmpty)
			})
		})

		Convey("When the user answers after the run ended", func() {
			res, err := r.Resolve(at(14000), 0)

			Convey("Then the answer is ignored", func() {
				So(err, ShouldBeNil)
				So(res.Resolved, ShouldBeFalse)
				So(r.Phase(), ShouldEqual, simulation.PhaseFinished)
			})
		})
	})

	Convey("Given a decision scheduled at the very end of the run", t, func() {
		s := overtaking()
		s.Decisions = []model.Decision{{Time: 10, Options: s.Decisions[0].Options}}
		r := simulation.New(s, t0)

		Convey("Then it is never presented", func() {
			presented := false
			for ms := 3500; ms <= 13500; ms += 500 {
				r.Advance(at(ms))
				if _, ok := r.Pending(); ok {
					presented = true
				}
			}
			So(presented, ShouldBeFalse)
			So(r.Phase(), ShouldEqual, simulation.PhaseFinished)
		})
	})

	Convey("Given a decision at time zero", t, func() {
		s := overtaking()
		s.Decisions = []model.Decision{{Time: 0, Options: s.Decisions[0].Options}}
		r := simulation.New(s, t0)

		Convey("Then it is pending as soon as the run starts", func() {
			r.Advance(at(3500))
			p, ok := r.Pending()
			So(ok, ShouldBeTrue)
			So(p.ActivatedAt, ShouldEqual, at(3500))
		})
	})
}

func TestRunnerMutualExclusion(t *testing.T) {
	Convey("Given two decisions with the same trigger time", t, func() {
		s := overtaking()
		s.Decisions[1].Time = 2
		s.Decisions[0].Time = 2
		r := simulation.New(s, t0)

		Convey("When both triggers have elapsed", func() {
			r.Advance(at(8500))

			Convey("Then only the first is pending", func() {
				p, ok := r.Pending()
				So(ok, ShouldBeTrue)
				So(p.Index, ShouldEqual, 0)
				So(p.ActivatedAt, ShouldEqual, at(5500))
			})

			Convey("And the first is resolved", func() {
				_, err := r.Resolve(at(8600), 1)
				So(err, ShouldBeNil)

				Convey("Then the second becomes pending with a fresh reaction window", func() {
					p, ok := r.Pending()
					So(ok, ShouldBeTrue)
					So(p.Index, ShouldEqual, 1)
					So(p.ActivatedAt, ShouldEqual, at(8600))

					res, err := r.Resolve(at(9100), 1)
					So(err, ShouldBeNil)
					So(res.Decision.ReactionTime, ShouldEqual, 500)
					So(res.Decision.Time, ShouldEqual, 5)
				})
			})
		})
	})
}

func TestRunnerAbandon(t *testing.T) {
	Convey("Given a run in progress", t, func() {
		r := simulation.New(overtaking(), t0)
		r.Advance(at(6500))
		_, _ = r.Resolve(at(7000), 0)

		Convey("When it is abandoned", func() {
			So(r.Abandon(), ShouldBeTrue)

			Convey("Then no result is ever produced", func() {
				r.Advance(at(60000))
				_, ok := r.Result()
				So(ok, ShouldBeFalse)
				So(r.Phase(), ShouldEqual, simulation.PhaseAbandoned)
				So(r.Snapshot().Recorded, ShouldEqual, 0)
				_, err := r.Finish(at(60000))
				So(errors.Is(err, simulation.ErrNotRunning), ShouldBeTrue)
			})

			Convey("Then abandoning twice reports false", func() {
				So(r.Abandon(), ShouldBeFalse)
			})
		})
	})
}

func TestManualClock(t *testing.T) {
	Convey("Given a manual clock", t, func() {
		c := simulation.NewManualClock(t0)

		Convey("Then it only moves when advanced or set", func() {
			So(c.Now(), ShouldEqual, t0)
			So(c.Advance(time.Second), ShouldEqual, at(1000))
			So(c.Now(), ShouldEqual, at(1000))
			c.Set(at(5000))
			So(c.Now(), ShouldEqual, at(5000))
		})
	})
}
