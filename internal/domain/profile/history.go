package profile

import (
	"github.com/okian/drivemind/internal/domain/catalog"
	"github.com/okian/drivemind/internal/domain/model"
)

// ScenarioLookup resolves a scenario id to its display name.
type ScenarioLookup interface {
	Lookup(id int) (string, bool)
}

// LookupFunc adapts a function to ScenarioLookup.
type LookupFunc func(id int) (string, bool)

// Lookup calls f.
func (f LookupFunc) Lookup(id int) (string, bool) { return f(id) }

// History is the newest-first log of finished runs.
type History []model.HistoryEntry

// Append records result at the head of the log. The scenario name is
// resolved once, now; unknown ids are stored as "Unknown Scenario".
func (h *History) Append(result model.SimulationResult, lookup ScenarioLookup) {
	name := catalog.UnknownScenarioName
	if lookup != nil {
		if n, ok := lookup.Lookup(result.ScenarioID); ok {
			name = n
		}
	}
	entry := model.HistoryEntry{SimulationResult: result, ScenarioName: name}
	*h = append(History{entry}, *h...)
}

// Latest returns the newest entry for scenarioID.
func (h History) Latest(scenarioID int) (model.HistoryEntry, bool) {
	for _, e := range h {
		if e.ScenarioID == scenarioID {
			return e, true
		}
	}
	return model.HistoryEntry{}, false
}
