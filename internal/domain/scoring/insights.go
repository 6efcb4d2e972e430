package scoring

import "github.com/okian/drivemind/internal/domain/model"

// Insight messages, one per heuristic outcome.
const (
	InsightHighRisk       = "High risk-taking behavior detected - consider consequences before acting"
	InsightSafety         = "Excellent safety consciousness - you prioritize careful decision-making"
	InsightQuickReaction  = "Quick reaction time - excellent awareness of your surroundings"
	InsightSlowReaction   = "Slower reaction time detected - work on staying more alert while driving"
	InsightStrongEmpathy  = "Strong empathy shown - you consider other road users' safety"
	InsightLowEmpathy     = "Low empathy detected - remember to consider vulnerable road users"
	quickReactionMs       = 1500
	slowReactionInsightMs = 2500
	empathyThreshold      = 5
)

// Insights applies the fixed heuristic rules in order: risk balance,
// reaction speed, empathy. Each rule contributes at most one message.
func Insights(decisions []model.RecordedDecision, meanReactionMs float64, change model.Impact) []string {
	insights := make([]string, 0, 3)

	var safe, risky int
	for _, d := range decisions {
		switch d.Category {
		case model.CategorySafe:
			safe++
		case model.CategoryRisky:
			risky++
		}
	}
	switch {
	case risky > safe:
		insights = append(insights, InsightHighRisk)
	case safe > risky:
		insights = append(insights, InsightSafety)
	}

	switch {
	case meanReactionMs < quickReactionMs:
		insights = append(insights, InsightQuickReaction)
	case meanReactionMs > slowReactionInsightMs:
		insights = append(insights, InsightSlowReaction)
	}

	switch {
	case change.Empathy > empathyThreshold:
		insights = append(insights, InsightStrongEmpathy)
	case change.Empathy < -empathyThreshold:
		insights = append(insights, InsightLowEmpathy)
	}

	return insights
}
