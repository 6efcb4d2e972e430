package profile_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/drivemind/internal/domain/catalog"
	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func result(scenarioID int, change model.Impact) model.SimulationResult {
	return model.SimulationResult{
		ScenarioID:    scenarioID,
		Timestamp:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Score:         70,
		Grade:         "B",
		ReactionTime:  1200,
		Decisions:     []model.RecordedDecision{},
		MetricsChange: change,
		Insights:      []string{},
	}
}

func TestApply(t *testing.T) {
	Convey("Given a zero-state profile", t, func() {
		p := profile.NewProfile("")

		Convey("Then it starts with the default name and zeros", func() {
			So(p.Name, ShouldEqual, profile.DefaultName)
			So(p.DMS, ShouldEqual, 0)
			So(p.TotalSimulations, ShouldEqual, 0)
			So(p.ScenariosCompleted, ShouldBeEmpty)
		})

		Convey("When a run with mixed deltas is applied", func() {
			profile.Apply(&p, result(3, model.Impact{Awareness: 5, Empathy: 8, Patience: 4, RiskPerception: -7}))

			Convey("Then negative traits clamp at zero and DMS is recomputed", func() {
				So(p.Awareness, ShouldEqual, 5)
				So(p.Empathy, ShouldEqual, 8)
				So(p.Patience, ShouldEqual, 4)
				So(p.RiskPerception, ShouldEqual, 0)
				So(p.DMS, ShouldEqual, 4) // 17/4 = 4.25
				So(p.ScenariosCompleted, ShouldResemble, []int{3})
				So(p.TotalSimulations, ShouldEqual, 1)
			})
		})

		Convey("When a run pushes traits far past the ceiling", func() {
			profile.Apply(&p, result(1, model.Impact{Awareness: 500, Empathy: 101, Patience: 100, RiskPerception: 99}))

			Convey("Then traits stop at 100", func() {
				So(p.Awareness, ShouldEqual, 100)
				So(p.Empathy, ShouldEqual, 100)
				So(p.Patience, ShouldEqual, 100)
				So(p.RiskPerception, ShouldEqual, 99)
				So(p.DMS, ShouldEqual, 100) // 399/4 = 99.75
			})
		})

		Convey("When deltas sit at the edges of the int range", func() {
			p.Awareness, p.Empathy = 50, 50
			profile.Apply(&p, result(2, model.Impact{Awareness: math.MaxInt, Empathy: math.MinInt}))

			Convey("Then traits still clamp instead of wrapping", func() {
				So(p.Awareness, ShouldEqual, 100)
				So(p.Empathy, ShouldEqual, 0)
			})
		})

		Convey("When the mean lands exactly on a half", func() {
			profile.Apply(&p, result(1, model.Impact{Awareness: 1, Empathy: 1}))

			Convey("Then the DMS rounds up", func() {
				So(p.DMS, ShouldEqual, 1) // 2/4 = 0.5
			})
		})

		Convey("When the same scenario is completed twice", func() {
			profile.Apply(&p, result(2, model.Impact{Patience: 6}))
			profile.Apply(&p, result(2, model.Impact{Patience: 6}))

			Convey("Then the completed set holds it once but both runs count", func() {
				So(p.ScenariosCompleted, ShouldResemble, []int{2})
				So(p.TotalSimulations, ShouldEqual, 2)
				So(p.Patience, ShouldEqual, 12)
			})
		})
	})

	Convey("Given random profiles and random results", t, func() {
		rng := rand.New(rand.NewSource(11))
		delta := func() int { return rng.Intn(401) - 200 }

		Convey("Then traits stay bounded and DMS always matches the traits", func() {
			p := profile.NewProfile("Tester")
			for i := 0; i < 300; i++ {
				profile.Apply(&p, result(1+rng.Intn(8), model.Impact{
					Awareness: delta(), Empathy: delta(), Patience: delta(), RiskPerception: delta(),
				}))
				for _, tr := range model.Traits {
					So(p.Trait(tr), ShouldBeBetweenOrEqual, 0, 100)
				}
				So(p.DMS, ShouldEqual, profile.DMS(p))
			}
			So(p.TotalSimulations, ShouldEqual, 300)
			So(len(p.ScenariosCompleted), ShouldBeLessThanOrEqualTo, 8)
		})
	})
}

func TestHistory(t *testing.T) {
	Convey("Given an empty history and the default catalog", t, func() {
		cat, err := catalog.Default()
		So(err, ShouldBeNil)
		var h profile.History

		Convey("When two results are appended", func() {
			h.Append(result(3, model.Impact{}), cat)
			h.Append(result(99, model.Impact{}), cat)

			Convey("Then the newest is first and names are resolved at insertion", func() {
				So(len(h), ShouldEqual, 2)
				So(h[0].ScenarioID, ShouldEqual, 99)
				So(h[0].ScenarioName, ShouldEqual, "Unknown Scenario")
				So(h[1].ScenarioName, ShouldEqual, "Zebra Crossing Test")
			})
		})

		Convey("When the same result is appended twice", func() {
			r := result(4, model.Impact{})
			h.Append(r, cat)
			h.Append(r, cat)

			Convey("Then nothing is deduplicated", func() {
				So(len(h), ShouldEqual, 2)
			})
		})

		Convey("When a lookup later changes", func() {
			names := map[int]string{5: "Honking Discipline"}
			lookup := profile.LookupFunc(func(id int) (string, bool) {
				n, ok := names[id]
				return n, ok
			})
			h.Append(result(5, model.Impact{}), lookup)
			names[5] = "Renamed"

			Convey("Then the stored name is not re-resolved", func() {
				So(h[0].ScenarioName, ShouldEqual, "Honking Discipline")
			})
		})

		Convey("When no lookup is available", func() {
			h.Append(result(1, model.Impact{}), nil)
			So(h[0].ScenarioName, ShouldEqual, catalog.UnknownScenarioName)
		})

		Convey("When asking for the latest run of a scenario", func() {
			first := result(6, model.Impact{})
			first.Score = 40
			second := result(6, model.Impact{})
			second.Score = 90
			h.Append(first, cat)
			h.Append(result(7, model.Impact{}), cat)
			h.Append(second, cat)

			latest, ok := h.Latest(6)
			_, missing := h.Latest(8)

			Convey("Then the newest match wins", func() {
				So(ok, ShouldBeTrue)
				So(latest.Score, ShouldEqual, 90)
				So(missing, ShouldBeFalse)
			})
		})
	})
}

func TestState(t *testing.T) {
	Convey("Given a state with some progress", t, func() {
		cat, _ := catalog.Default()
		s := profile.NewState("Asha")
		s.Complete(result(1, model.Impact{Patience: 8, RiskPerception: 6}), cat)
		s.Complete(result(3, model.Impact{Empathy: 8}), cat)

		Convey("Then the profile and history move together", func() {
			So(s.User.TotalSimulations, ShouldEqual, 2)
			So(len(s.ResultsHistory), ShouldEqual, 2)
			So(s.ResultsHistory[0].ScenarioID, ShouldEqual, 3)
		})

		Convey("When it is cloned and the clone is changed", func() {
			c := s.Clone()
			c.User.ScenariosCompleted[0] = 42
			c.ResultsHistory[0].Insights = append(c.ResultsHistory[0].Insights, "x")

			Convey("Then the original is untouched", func() {
				So(s.User.ScenariosCompleted[0], ShouldEqual, 1)
				So(s.ResultsHistory[0].Insights, ShouldBeEmpty)
			})
		})

		Convey("When it is reset", func() {
			s.Reset()

			Convey("Then everything returns to zero except the name", func() {
				So(s.User, ShouldResemble, profile.NewProfile("Asha"))
				So(s.ResultsHistory, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a decoded state with missing collections", t, func() {
		s := profile.State{}
		s.Normalize("")

		Convey("Then it reads as the zero state", func() {
			So(s.User.Name, ShouldEqual, profile.DefaultName)
			So(s.User.ScenariosCompleted, ShouldNotBeNil)
			So(s.ResultsHistory, ShouldNotBeNil)
		})
	})
}

func TestAnalytics(t *testing.T) {
	Convey("Given twelve finished runs", t, func() {
		cat, _ := catalog.Default()
		s := profile.NewState("")
		for i := 1; i <= 12; i++ {
			r := result(1+(i%3), model.Impact{Awareness: 2})
			r.Score = i
			s.Complete(r, cat)
		}

		Convey("When building the progress series", func() {
			points := profile.Progress(s, 0)

			Convey("Then it covers the ten newest runs oldest first", func() {
				So(len(points), ShouldEqual, 10)
				So(points[0].Label, ShouldEqual, "#1")
				So(points[0].Score, ShouldEqual, 3)
				So(points[9].Label, ShouldEqual, "#10")
				So(points[9].Score, ShouldEqual, 12)
				So(points[9].DMS, ShouldEqual, s.User.DMS)
			})
		})

		Convey("When building the full analytics view", func() {
			a := profile.BuildAnalytics(s, cat.List(), 5)

			Convey("Then it summarises traits, completion and difficulty", func() {
				So(a.Traits[model.TraitAwareness], ShouldEqual, 24)
				So(a.DMS, ShouldEqual, 6)
				So(a.TotalSimulations, ShouldEqual, 12)
				So(a.Completed, ShouldEqual, 3)
				So(a.Available, ShouldEqual, 8)
				So(len(a.Progress), ShouldEqual, 5)
				So(len(a.Distribution), ShouldEqual, 8)
				So(a.Distribution[0].Completed, ShouldBeTrue)
				So(a.Distribution[0].Weight, ShouldEqual, 3)
				So(a.Distribution[4].Completed, ShouldBeFalse)
				So(a.Distribution[2].Weight, ShouldEqual, 1)
			})
		})
	})

	Convey("Given no runs", t, func() {
		s := profile.NewState("")
		So(profile.Progress(s, 10), ShouldBeEmpty)
	})
}
