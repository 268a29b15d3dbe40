package model

import (
	"math"

	"leadqual_backend/internal/leads/domain"
)

// baselineKeyFields are the qualification fields the rule-based fallback
// scores on. A subset of the full qualification set: these four move the
// closing odds most.
var baselineKeyFields = []string{"budget", "location", "timeline", "financing"}

// baselinePrediction is the deterministic stand-in used whenever no
// trained model is available. Fraction of key fields present scaled to at
// most 0.8, plus 0.1 for a substantial conversation, capped at 0.9 with a
// fixed symmetric confidence band.
func baselinePrediction(conv domain.ConversationContext) domain.ModelPrediction {
	present := 0
	for _, field := range baselineKeyFields {
		if conv.Preferences.Has(field) {
			present++
		}
	}
	prob := float64(present) / float64(len(baselineKeyFields)) * 0.8
	if len(conv.Messages) > 10 {
		prob += 0.1
	}
	prob = math.Min(prob, 0.9)

	positives := make([]string, 0, len(baselineKeyFields))
	risks := []string{domain.BaselineRiskFactor}
	for _, field := range baselineKeyFields {
		if conv.Preferences.Has(field) {
			positives = append(positives, "Key field provided: "+field)
		} else {
			risks = append(risks, "Missing key field: "+field)
		}
	}

	return domain.ModelPrediction{
		ClosingProbability: prob,
		ConfidenceLow:      clip01(prob - 0.2),
		ConfidenceHigh:     clip01(prob + 0.2),
		RiskFactors:        risks,
		PositiveSignals:    positives,
		ModelConfidence:    0.3,
	}
}
