package profile

import (
	"strconv"

	"github.com/okian/drivemind/internal/domain/model"
)

// DefaultProgressWindow is how many recent runs the progress series covers.
const DefaultProgressWindow = 10

// ProgressPoint is one run in the progress series.
type ProgressPoint struct {
	Label      string `json:"simulation"`
	ScenarioID int    `json:"scenarioId"`
	Score      int    `json:"score"`
	DMS        int    `json:"dms"`
}

// ScenarioStatus summarises one catalog scenario for the current user.
type ScenarioStatus struct {
	ScenarioID int              `json:"scenarioId"`
	Name       string           `json:"name"`
	Difficulty model.Difficulty `json:"difficulty"`
	Weight     int              `json:"difficultyWeight"`
	Completed  bool             `json:"completed"`
}

// Analytics is the read model behind the analytics view.
type Analytics struct {
	Traits           map[model.Trait]int `json:"traits"`
	DMS              int                 `json:"dmsScore"`
	TotalSimulations int                 `json:"totalSimulations"`
	Completed        int                 `json:"completed"`
	Available        int                 `json:"available"`
	Progress         []ProgressPoint     `json:"progress"`
	Distribution     []ScenarioStatus    `json:"distribution"`
}

// Progress returns up to window of the newest runs, oldest first.
func Progress(s State, window int) []ProgressPoint {
	if window <= 0 {
		window = DefaultProgressWindow
	}
	n := len(s.ResultsHistory)
	if n > window {
		n = window
	}
	points := make([]ProgressPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		e := s.ResultsHistory[i]
		points = append(points, ProgressPoint{
			Label:      "#" + strconv.Itoa(len(points)+1),
			ScenarioID: e.ScenarioID,
			Score:      e.Score,
			DMS:        s.User.DMS,
		})
	}
	return points
}

// Distribution reports, for every scenario, whether the user completed it.
func Distribution(s State, scenarios []model.Scenario) []ScenarioStatus {
	out := make([]ScenarioStatus, len(scenarios))
	for i, sc := range scenarios {
		out[i] = ScenarioStatus{
			ScenarioID: sc.ID,
			Name:       sc.Name,
			Difficulty: sc.Difficulty,
			Weight:     sc.Difficulty.Weight(),
			Completed:  s.User.HasCompleted(sc.ID),
		}
	}
	return out
}

// BuildAnalytics assembles the analytics read model.
func BuildAnalytics(s State, scenarios []model.Scenario, window int) Analytics {
	traits := make(map[model.Trait]int, len(model.Traits))
	for _, t := range model.Traits {
		traits[t] = s.User.Trait(t)
	}
	return Analytics{
		Traits:           traits,
		DMS:              s.User.DMS,
		TotalSimulations: s.User.TotalSimulations,
		Completed:        len(s.User.ScenariosCompleted),
		Available:        len(scenarios),
		Progress:         Progress(s, window),
		Distribution:     Distribution(s, scenarios),
	}
}
