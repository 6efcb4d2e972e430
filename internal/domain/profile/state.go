package profile

import "github.com/okian/drivemind/internal/domain/model"

// State is the single persisted record.
type State struct {
	User           model.UserProfile `json:"user"`
	ResultsHistory History           `json:"resultsHistory"`
}

// NewState returns the zero state for a player called name.
func NewState(name string) State {
	return State{
		User:           NewProfile(name),
		ResultsHistory: History{},
	}
}

// Complete applies a finished run to the profile and appends it to the
// history.
func (s *State) Complete(result model.SimulationResult, lookup ScenarioLookup) {
	Apply(&s.User, result)
	s.ResultsHistory.Append(result, lookup)
}

// Reset restores the zero state, keeping the display name.
func (s *State) Reset() {
	*s = NewState(s.User.Name)
}

// Normalize repairs a decoded state so nil collections read as empty.
func (s *State) Normalize(defaultName string) {
	if s.User.Name == "" {
		s.User.Name = defaultName
		if s.User.Name == "" {
			s.User.Name = DefaultName
		}
	}
	if s.User.ScenariosCompleted == nil {
		s.User.ScenariosCompleted = []int{}
	}
	if s.ResultsHistory == nil {
		s.ResultsHistory = History{}
	}
}

// Clone returns a deep copy of s that shares no slices with it.
func (s State) Clone() State {
	out := s
	out.User.ScenariosCompleted = append([]int{}, s.User.ScenariosCompleted...)
	out.ResultsHistory = make(History, len(s.ResultsHistory))
	for i, e := range s.ResultsHistory {
		e.Decisions = append([]model.RecordedDecision{}, e.Decisions...)
		e.Insights = append([]string{}, e.Insights...)
		out.ResultsHistory[i] = e
	}
	return out
}
