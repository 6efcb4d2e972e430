package autoplay

import (
	"context"
	"time"

	"github.com/okian/drivemind/internal/domain/model"
	"github.com/okian/drivemind/pkg/logger"
)

// Stats summarises a batch of runs.
type Stats struct {
	Policy     Policy
	Runs       int
	Failed     int
	Decisions  int
	Categories map[model.Category]int
	Grades     map[string]int
	ScoreSum   int
	Results    []model.SimulationResult
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

func newStats(p Policy) *Stats {
	return &Stats{
		Policy:     p,
		Categories: make(map[model.Category]int),
		Grades:     make(map[string]int),
	}
}

func (s *Stats) add(r model.SimulationResult) {
	s.Runs++
	s.ScoreSum += r.Score
	s.Grades[r.Grade]++
	s.Decisions += len(r.Decisions)
	for _, d := range r.Decisions {
		s.Categories[d.Category]++
	}
	s.Results = append(s.Results, r)
}

// MeanScore is the average score over successful runs, or 0 without any.
func (s *Stats) MeanScore() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.ScoreSum) / float64(s.Runs)
}

// Log writes the final statistics.
func (s *Stats) Log(ctx context.Context, l logger.Logger) {
	l.Info(ctx, "final statistics",
		logger.String("policy", string(s.Policy)),
		logger.Int("runs", s.Runs),
		logger.Int("failed", s.Failed),
		logger.Int("decisions", s.Decisions),
		logger.Int("safe", s.Categories[model.CategorySafe]),
		logger.Int("risky", s.Categories[model.CategoryRisky]),
		logger.Int("neutral", s.Categories[model.CategoryNeutral]),
		logger.Float64("meanScore", s.MeanScore()),
		logger.Any("grades", s.Grades),
		logger.String("duration", s.Duration.String()),
	)
}
