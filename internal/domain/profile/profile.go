// Package profile owns the persisted aggregate: the user profile and the
// history of finished runs. All mutation goes through Apply, History.Append
// and State.Reset.
package profile

import (
	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/internal/domain/scoring"
)

// Trait bounds.
const (
	minTrait = 0
	maxTrait = 100
)

// DefaultName is the display name of a fresh profile.
const DefaultName = "Driver"

// NewProfile returns the zero-state profile.
func NewProfile(name string) model.UserProfile {
	if name == "" {
		name = DefaultName
	}
	return model.UserProfile{
		Name:               name,
		ScenariosCompleted: []int{},
	}
}

// Apply folds a finished run into p: every trait moves by the run's metrics
// change and is clamped to [0,100], the DMS is recomputed from the clamped
// traits, the scenario joins the completed set and the simulation counter
// increments.
func Apply(p *model.UserProfile, result model.SimulationResult) {
	for _, t := range model.Traits {
		p.SetTrait(t, clamp(model.SaturatingAdd(p.Trait(t), result.MetricsChange.Get(t))))
	}
	p.DMS = DMS(*p)

	if !p.HasCompleted(result.ScenarioID) {
		p.ScenariosCompleted = append(p.ScenariosCompleted, result.ScenarioID)
	}
	p.TotalSimulations++
}

// DMS returns the Driver Mindset Score: the rounded mean of the four traits.
func DMS(p model.UserProfile) int {
	sum := p.Awareness + p.Empathy + p.Patience + p.RiskPerception
	return int(scoring.RoundHalfUp(float64(sum) / float64(len(model.Traits))))
}

func clamp(v int) int {
	if v < minTrait {
		return minTrait
	}
	if v > maxTrait {
		return maxTrait
	}
	return v
}
