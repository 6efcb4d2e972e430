// Package model contains domain models passed between layers.
package model

// Difficulty grades how demanding a scenario is.
type Difficulty string

// Supported difficulties.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Weight maps a difficulty onto 1 (Easy), 2 (Medium) or 3 (Hard).
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyHard:
		return 3
	case DifficultyMedium:
		return 2
	default:
		return 1
	}
}

// Category tags a decision option as safe, risky or neutral.
type Category string

// Option categories. Anything else is scored as neutral.
const (
	CategorySafe    Category = "safe"
	CategoryRisky   Category = "risky"
	CategoryNeutral Category = "neutral"
)

// Scenario is an immutable catalog entry.
type Scenario struct {
	ID                 int        `json:"id" yaml:"id"`
	Name               string     `json:"name" yaml:"name"`
	Trait              string     `json:"trait" yaml:"trait"`
	Difficulty         Difficulty `json:"difficulty" yaml:"difficulty"`
	Icon               string     `json:"icon" yaml:"icon"`
	Description        string     `json:"description" yaml:"description"`
	PsychologyInsights []string   `json:"psychologyInsight" yaml:"psychology_insights"`
	Duration           int        `json:"duration" yaml:"duration"` // seconds
	Decisions          []Decision `json:"decisions" yaml:"decisions"`
}

// Decision is a timed decision point inside a scenario.
type Decision struct {
	Time    int              `json:"time" yaml:"time"` // seconds since run start
	Options []DecisionOption `json:"options" yaml:"options"`
}

// DecisionOption is one selectable answer of a decision.
type DecisionOption struct {
	Label    string   `json:"label" yaml:"label"`
	Category Category `json:"type" yaml:"type"`
	Impact   Impact   `json:"impact" yaml:"impact"`
}
