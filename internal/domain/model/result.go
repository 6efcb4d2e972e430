package model

import "time"

// RecordedDecision captures how the user resolved one pending decision.
type RecordedDecision struct {
	Time         int      `json:"time"` // elapsed seconds at resolution
	Choice       string   `json:"choice"`
	Category     Category `json:"type"`
	Impact       Impact   `json:"impact"`
	ReactionTime int64    `json:"reactionTime"` // milliseconds
}

// SimulationResult is emitted once per finished run.
type SimulationResult struct {
	RunID         string             `json:"runId,omitempty"`
	ScenarioID    int                `json:"scenarioId"`
	Timestamp     time.Time          `json:"timestamp"`
	Score         int                `json:"score"`
	Grade         string             `json:"grade"`
	ReactionTime  int64              `json:"reactionTime"` // mean, milliseconds, rounded
	Decisions     []RecordedDecision `json:"decisions"`
	MetricsChange Impact             `json:"metricsChange"`
	Insights      []string           `json:"insights"`
}

// HistoryEntry is a result enriched with the scenario name known at the time
// it was recorded.
type HistoryEntry struct {
	SimulationResult
	ScenarioName string `json:"scenarioName"`
}

// UserProfile is the persistent per-user aggregate of trait scores.
type UserProfile struct {
	Name               string `json:"name"`
	DMS                int    `json:"dmsScore"`
	Awareness          int    `json:"awareness"`
	Empathy            int    `json:"empathy"`
	Patience           int    `json:"patience"`
	RiskPerception     int    `json:"riskPerception"`
	ScenariosCompleted []int  `json:"scenariosCompleted"`
	TotalSimulations   int    `json:"totalSimulations"`
}

// Trait returns the current score of t.
func (p *UserProfile) Trait(t Trait) int {
	switch t {
	case TraitAwareness:
		return p.Awareness
	case TraitEmpathy:
		return p.Empathy
	case TraitPatience:
		return p.Patience
	case TraitRiskPerception:
		return p.RiskPerception
	}
	return 0
}

// SetTrait overwrites the score of t.
func (p *UserProfile) SetTrait(t Trait, v int) {
	switch t {
	case TraitAwareness:
		p.Awareness = v
	case TraitEmpathy:
		p.Empathy = v
	case TraitPatience:
		p.Patience = v
	case TraitRiskPerception:
		p.RiskPerception = v
	}
}

// HasCompleted reports whether scenarioID is in the completed set.
func (p *UserProfile) HasCompleted(scenarioID int) bool {
	for _, id := range p.ScenariosCompleted {
		if id == scenarioID {
			return true
		}
	}
	return false
}
