package features

import (
	"fmt"
	"math"

	"leadqual_backend/internal/leads/domain"
)

// Feature names used by the explanation layer and tests. Referencing
// features by name through FeatureIndex keeps a vector reordering from
// silently corrupting downstream consumers: a renamed or removed feature
// fails loudly instead.
const (
	FeatureQualificationCompleteness = "qualification_completeness"
	FeatureEngagementScore           = "engagement_score"
	FeatureBudgetMarketRatio         = "budget_market_ratio"
	FeatureUrgencyScore              = "urgency_score"
	FeatureOverallSentiment          = "overall_sentiment"
)

// featureNames is the single source of truth for feature-vector ordering.
// Vector assembly below MUST append values in exactly this order; the
// model persists this list and refuses to score against a vector of a
// different shape.
var featureNames = []string{
	"message_count",
	"avg_response_time",
	"conversation_duration",
	FeatureOverallSentiment,
	FeatureUrgencyScore,
	FeatureEngagementScore,
	"question_frequency",
	"price_mentions",
	"timeline_signals",
	"location_specificity",
	FeatureBudgetMarketRatio,
	"budget_confidence",
	FeatureQualificationCompleteness,
	"message_length_variance",
	"response_consistency",
	"weekend_activity",
	"late_night_activity",
	"market_inventory",
	"days_on_market",
	"price_trend",
	"seasonal_factor",
	"competition_level",
	"interest_rate",
}

var featureIndexByName = func() map[string]int {
	byName := make(map[string]int, len(featureNames))
	for i, name := range featureNames {
		byName[name] = i
	}
	return byName
}()

// FeatureNames returns the ordered feature names matching Vector positions.
func FeatureNames() []string {
	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return names
}

// FeatureCount is the fixed feature-vector length.
func FeatureCount() int {
	return len(featureNames)
}

// FeatureIndex returns the vector position of a named feature, failing
// loudly on unknown names.
func FeatureIndex(name string) (int, error) {
	idx, ok := featureIndexByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown feature %q", name)
	}
	return idx, nil
}

// Vector assembles the normalized feature vector for one lead. Every
// component is mapped into [0, 1]; ordering follows featureNames exactly.
func Vector(conv domain.ConversationFeatures, market domain.MarketFeatures) []float64 {
	// An absent budget reads as the neutral midpoint so the model cannot
	// mistake "unknown" for "cannot afford".
	budgetRatio := 0.5
	if conv.BudgetToMarketRatio != nil {
		budgetRatio = clamp01(*conv.BudgetToMarketRatio / 2)
	}

	return []float64{
		clamp01(float64(conv.MessageCount) / 50),
		clamp01(conv.AvgResponseTime / maxAvgResponseSeconds),
		clamp01(conv.ConversationDurationMinutes / 1440),
		clamp01((conv.OverallSentiment + 1) / 2),
		clamp01(conv.UrgencyScore),
		clamp01(conv.EngagementScore),
		clamp01(conv.QuestionFrequency),
		clamp01(float64(conv.PriceMentionCount) / 5),
		clamp01(float64(conv.TimelineUrgencySignals) / 3),
		clamp01(conv.LocationSpecificity),
		budgetRatio,
		clamp01(conv.BudgetConfidence),
		clamp01(conv.QualificationCompleteness),
		clamp01(conv.MessageLengthVariance / 10000),
		clamp01(conv.ResponseConsistency),
		boolFeature(conv.WeekendActivity),
		boolFeature(conv.LateNightActivity),
		clamp01(market.InventoryLevel),
		clamp01(float64(market.AverageDaysOnMarket) / 180),
		clamp01((market.PriceTrend + 1) / 2),
		clamp01(market.SeasonalFactor),
		clamp01(market.CompetitionLevel),
		clamp01(market.InterestRateLevel / 10),
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
