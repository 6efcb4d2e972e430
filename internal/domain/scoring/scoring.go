// Package scoring turns recorded decisions into a score, a letter grade and
// a short list of behavioural insights.
package scoring

import (
	"math"

	"github.com/okian/drivemind/internal/domain/model"
)

// Scoring constants.
const (
	baseScore    = 50
	safeBonus    = 20
	riskyPenalty = 15
	neutralBonus = 5

	fastReactionMs      = 1000
	slowReactionMs      = 3000
	reactionAdjustment  = 10
	minScore            = 0
	maxScore            = 100
	DefaultReactionTime = 2000 // ms, used when a run recorded no decisions
)

// Score computes a 0-100 score from the decisions and their mean reaction
// time in milliseconds.
func Score(decisions []model.RecordedDecision, meanReactionMs float64) int {
	score := baseScore
	for _, d := range decisions {
		switch d.Category {
		case model.CategorySafe:
			score += safeBonus
		case model.CategoryRisky:
			score -= riskyPenalty
		default:
			score += neutralBonus
		}
	}

	switch {
	case meanReactionMs < fastReactionMs:
		score += reactionAdjustment
	case meanReactionMs > slowReactionMs:
		score -= reactionAdjustment
	}

	return clamp(score, minScore, maxScore)
}

// Grade maps a score onto a letter grade. Lower bounds are inclusive.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// MeanReactionTime averages the reaction times of decisions. It returns
// DefaultReactionTime when there is nothing to average.
func MeanReactionTime(decisions []model.RecordedDecision) float64 {
	if len(decisions) == 0 {
		return DefaultReactionTime
	}
	var total int64
	for _, d := range decisions {
		total += d.ReactionTime
	}
	return float64(total) / float64(len(decisions))
}

// MetricsChange sums the impact of every decision per trait.
func MetricsChange(decisions []model.RecordedDecision) model.Impact {
	var sum model.Impact
	for _, d := range decisions {
		sum = sum.Add(d.Impact)
	}
	return sum
}

// RoundHalfUp rounds x to the nearest integer with halves rounded up.
func RoundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
