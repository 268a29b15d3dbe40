package predictive

import (
	"fmt"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/scoring"
)

// recommendedActions builds the tier-specific action list, most urgent
// first, augmented with specifics from the model factors and the
// traditional scorer's follow-up prompts.
func recommendedActions(level domain.PriorityLevel, qual scoring.Result, pred domain.ModelPrediction) []string {
	var actions []string

	switch level {
	case domain.PriorityCritical:
		actions = append(actions,
			"Call immediately: this lead is ready to transact",
			"Prepare property matches before the call",
			"Block calendar time for a showing this week",
		)
	case domain.PriorityHigh:
		actions = append(actions,
			"Contact within 2 hours while interest is hot",
			"Send curated listings matching their stated criteria",
		)
	case domain.PriorityMedium:
		actions = append(actions,
			"Follow up within 24 hours",
			"Close the remaining qualification gaps",
		)
	case domain.PriorityLow:
		actions = append(actions,
			"Add to the nurture sequence with a weekly touchpoint",
			"Share market updates for their area of interest",
		)
	default:
		actions = append(actions,
			"Add to the long-term nurture drip",
			"Re-engage with a market report next month",
		)
	}

	if len(pred.PositiveSignals) > 0 {
		actions = append(actions, fmt.Sprintf("Lead with their strength: %s", pred.PositiveSignals[0]))
	}
	added := 0
	for _, factor := range pred.RiskFactors {
		// The baseline marker describes the model, not the lead.
		if factor == domain.BaselineRiskFactor {
			continue
		}
		if added >= 2 {
			break
		}
		actions = append(actions, "Address: "+factor)
		added++
	}
	for i, action := range qual.RecommendedActions {
		if i >= 2 {
			break
		}
		actions = append(actions, action)
	}
	return actions
}

// contactTiming is a rule-based recommendation keyed off tier and the
// 0-100 urgency sub-score. Recomputed per call, never stored.
func contactTiming(level domain.PriorityLevel, urgency float64) string {
	switch {
	case level == domain.PriorityCritical:
		return "Contact immediately, within the hour"
	case level == domain.PriorityHigh && urgency >= 70:
		return "Contact within 2 hours"
	case level == domain.PriorityHigh:
		return "Contact today"
	case level == domain.PriorityMedium:
		return "Contact within 24-48 hours"
	case level == domain.PriorityLow:
		return "Check in weekly"
	default:
		return "Monthly nurture touchpoint"
	}
}

// effortHours is the recommended agent investment per tier, used for the
// effort-efficiency estimate. Always positive.
func effortHours(level domain.PriorityLevel) float64 {
	switch level {
	case domain.PriorityCritical:
		return 20
	case domain.PriorityHigh:
		return 12
	case domain.PriorityMedium:
		return 6
	case domain.PriorityLow:
		return 3
	default:
		return 1
	}
}

func timeInvestment(level domain.PriorityLevel, hours float64) string {
	switch level {
	case domain.PriorityCritical, domain.PriorityHigh:
		return fmt.Sprintf("High-touch: plan around %.0f hours of dedicated attention", hours)
	case domain.PriorityMedium:
		return fmt.Sprintf("Standard cadence: roughly %.0f hours across the next weeks", hours)
	default:
		return fmt.Sprintf("Low-touch: at most %.0f hours via automated nurture", hours)
	}
}
