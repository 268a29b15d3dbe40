package features

import (
	"testing"

	"leadqual_backend/internal/leads/domain"
)

func TestVectorLengthMatchesFeatureNames(t *testing.T) {
	vec := Vector(domain.ConversationFeatures{}, domain.MarketFeatures{})
	if len(vec) != len(FeatureNames()) {
		t.Fatalf("vector length = %d, feature names = %d", len(vec), len(FeatureNames()))
	}
	if FeatureCount() != len(FeatureNames()) {
		t.Fatalf("FeatureCount = %d, feature names = %d", FeatureCount(), len(FeatureNames()))
	}
}

func TestFeatureIndex(t *testing.T) {
	for i, name := range FeatureNames() {
		idx, err := FeatureIndex(name)
		if err != nil {
			t.Fatalf("FeatureIndex(%q): %v", name, err)
		}
		if idx != i {
			t.Fatalf("FeatureIndex(%q) = %d, want %d", name, idx, i)
		}
	}

	if _, err := FeatureIndex("no_such_feature"); err == nil {
		t.Fatal("expected error for unknown feature name")
	}
}

func TestFeatureNamesReturnsCopy(t *testing.T) {
	names := FeatureNames()
	names[0] = "mutated"
	if FeatureNames()[0] == "mutated" {
		t.Fatal("FeatureNames exposed internal slice")
	}
}

func TestVectorBoundsOnExtremeInputs(t *testing.T) {
	huge := 1e9
	conv := domain.ConversationFeatures{
		MessageCount:                1_000_000,
		AvgResponseTime:             huge,
		ConversationDurationMinutes: huge,
		OverallSentiment:            1,
		UrgencyScore:                5,
		EngagementScore:             5,
		QuestionFrequency:           50,
		PriceMentionCount:           10_000,
		TimelineUrgencySignals:      10_000,
		LocationSpecificity:         3,
		BudgetToMarketRatio:         &huge,
		BudgetConfidence:            2,
		QualificationCompleteness:   2,
		MessageLengthVariance:       huge,
		ResponseConsistency:         2,
		WeekendActivity:             true,
		LateNightActivity:           true,
	}
	market := domain.MarketFeatures{
		InventoryLevel:      5,
		AverageDaysOnMarket: 100_000,
		PriceTrend:          1,
		SeasonalFactor:      3,
		CompetitionLevel:    3,
		InterestRateLevel:   100,
	}

	for i, v := range Vector(conv, market) {
		if v < 0 || v > 1 {
			t.Fatalf("feature %q = %v, want [0, 1]", FeatureNames()[i], v)
		}
	}

	negative := -10.0
	conv.BudgetToMarketRatio = &negative
	conv.OverallSentiment = -1
	market.PriceTrend = -1
	for i, v := range Vector(conv, market) {
		if v < 0 || v > 1 {
			t.Fatalf("feature %q = %v with negative inputs, want [0, 1]", FeatureNames()[i], v)
		}
	}
}

func TestVectorNeutralBudgetWhenUnknown(t *testing.T) {
	idx, err := FeatureIndex(FeatureBudgetMarketRatio)
	if err != nil {
		t.Fatalf("FeatureIndex: %v", err)
	}

	vec := Vector(domain.ConversationFeatures{BudgetToMarketRatio: nil}, domain.MarketFeatures{})
	if vec[idx] != 0.5 {
		t.Fatalf("unknown budget ratio = %v, want neutral 0.5", vec[idx])
	}

	atMarket := 1.0
	vec = Vector(domain.ConversationFeatures{BudgetToMarketRatio: &atMarket}, domain.MarketFeatures{})
	if vec[idx] != 0.5 {
		t.Fatalf("at-market budget ratio = %v, want 0.5", vec[idx])
	}
}
