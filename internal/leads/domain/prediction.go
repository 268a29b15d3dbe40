package domain

import (
	"strings"
	"time"
)

// BaselineRiskFactor is the marker carried by every baseline (untrained
// model) prediction. Callers distinguish baseline output by substring
// matching "not trained" in the risk factors.
const BaselineRiskFactor = "Model not trained - using rule-based baseline"

// ModelPrediction is the closing-probability model output for one lead.
type ModelPrediction struct {
	ClosingProbability float64            `json:"closingProbability"` // [0, 1]
	ConfidenceLow      float64            `json:"confidenceLow"`      // lower CI bound, <= ClosingProbability
	ConfidenceHigh     float64            `json:"confidenceHigh"`     // upper CI bound, >= ClosingProbability
	RiskFactors        []string           `json:"riskFactors"`
	PositiveSignals    []string           `json:"positiveSignals"`
	ModelConfidence    float64            `json:"modelConfidence"` // [0, 1]
	FeatureImportance  map[string]float64 `json:"featureImportance,omitempty"`
}

// IsBaseline reports whether this prediction came from the rule-based
// fallback rather than the trained ensemble.
func (p ModelPrediction) IsBaseline() bool {
	for _, factor := range p.RiskFactors {
		if strings.Contains(strings.ToLower(factor), "not trained") {
			return true
		}
	}
	return false
}

// ModelMetrics captures held-out validation quality for one training run.
// A training run supersedes the previous metrics wholesale.
type ModelMetrics struct {
	Accuracy           float64            `json:"accuracy"`  // [0, 1]
	Precision          float64            `json:"precision"` // [0, 1]
	Recall             float64            `json:"recall"`    // [0, 1]
	F1Score            float64            `json:"f1Score"`   // [0, 1]
	AUCScore           float64            `json:"aucScore"`  // [0, 1]
	FeatureImportances map[string]float64 `json:"featureImportances"` // sums to ~1.0
	ConfusionMatrix    [2][2]int          `json:"confusionMatrix"`    // [actual][predicted]
	ValidationDate     time.Time          `json:"validationDate"`
}
