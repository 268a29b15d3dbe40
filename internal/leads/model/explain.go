package model

import (
	"fmt"

	"leadqual_backend/internal/leads/features"
)

// explainRule compares one named feature against fixed thresholds and
// phrases the result for an agent. This is a rule layer over the model
// output, not a generic explainer.
type explainRule struct {
	feature      string
	riskBelow    float64
	riskText     string
	positiveOver float64
	positiveText string
}

var explainRules = []explainRule{
	{
		feature:      features.FeatureQualificationCompleteness,
		riskBelow:    0.5,
		riskText:     "Lead has answered fewer than half of the qualification questions",
		positiveOver: 0.8,
		positiveText: "Lead is thoroughly qualified",
	},
	{
		feature:      features.FeatureEngagementScore,
		riskBelow:    0.3,
		riskText:     "Low engagement in the conversation",
		positiveOver: 0.7,
		positiveText: "Highly engaged, asking substantive questions",
	},
	{
		feature:      features.FeatureBudgetMarketRatio,
		riskBelow:    0.35, // under ~70% of the local market price
		riskText:     "Stated budget is well below the local market",
		positiveOver: 0.5,
		positiveText: "Budget aligns with the local market",
	},
	{
		feature:      features.FeatureUrgencyScore,
		riskBelow:    -1, // no low-urgency risk callout
		positiveOver: 0.6,
		positiveText: "Clear time pressure to transact",
	},
	{
		feature:      features.FeatureOverallSentiment,
		riskBelow:    0.35, // normalized sentiment below mildly negative
		riskText:     "Conversation tone is negative",
		positiveOver: 0.75,
		positiveText: "Conversation tone is strongly positive",
	},
}

// explainPrediction derives human-readable factors from the unscaled
// feature vector. Feature positions are resolved by name; a renamed
// feature makes the lookup fail loudly at process start in tests rather
// than silently reading the wrong slot.
func explainPrediction(vector []float64, prob float64) (risks, positives []string) {
	for _, rule := range explainRules {
		idx, err := features.FeatureIndex(rule.feature)
		if err != nil {
			// Contract violation between explain rules and the registry.
			panic(fmt.Sprintf("explain rule references %v", err))
		}
		value := vector[idx]
		switch {
		case value < rule.riskBelow:
			risks = append(risks, rule.riskText)
		case value > rule.positiveOver:
			positives = append(positives, rule.positiveText)
		}
	}

	if prob < 0.3 && len(risks) == 0 {
		risks = append(risks, "Overall profile resembles leads that did not close")
	}
	return risks, positives
}
