package predictive

import (
	"context"
	"strings"
	"testing"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/scoring"
)

func insightsWithProbability(t *testing.T, prob float64, conv domain.ConversationContext) domain.LeadInsights {
	t.Helper()
	engineer := features.NewEngineer(nil, nil)
	svc := New(scoring.New(nil), stubModel{domain.ModelPrediction{
		ClosingProbability: prob,
		ConfidenceLow:      prob,
		ConfidenceHigh:     prob,
		ModelConfidence:    0.8,
	}}, engineer, nil)
	return svc.GenerateLeadInsights(context.Background(), conv, "suburban")
}

func TestTimeToCloseMonotoneInProbability(t *testing.T) {
	conv := hotConversation()
	previous := 0
	for i, prob := range []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.0} {
		insights := insightsWithProbability(t, prob, conv)
		days := insights.EstimatedTimeToCloseDays
		if days <= 0 {
			t.Fatalf("days = %d, want > 0", days)
		}
		if i > 0 && days > previous {
			t.Fatalf("days rose from %d to %d as probability rose to %v", previous, days, prob)
		}
		previous = days
	}

	if insightsWithProbability(t, 1.0, conv).EstimatedTimeToCloseDays != 7 {
		t.Fatal("probability 1.0 should hit the one-week floor")
	}
}

func TestChurnInverseToEngagement(t *testing.T) {
	engaged := insightsWithProbability(t, 0.5, hotConversation())

	terse := domain.ConversationContext{Messages: []domain.Message{
		{Role: "user", Content: "ok"},
		{Role: "user", Content: "sure"},
	}}
	disengaged := insightsWithProbability(t, 0.5, terse)

	if engaged.ProbabilityOfChurn >= disengaged.ProbabilityOfChurn {
		t.Fatalf("engaged churn %v should be below disengaged churn %v",
			engaged.ProbabilityOfChurn, disengaged.ProbabilityOfChurn)
	}
	for _, churn := range []float64{engaged.ProbabilityOfChurn, disengaged.ProbabilityOfChurn} {
		if churn < 0 || churn > 1 {
			t.Fatalf("churn %v outside [0, 1]", churn)
		}
	}
}

func TestEngagementTrendClassification(t *testing.T) {
	short := func(n int) domain.Message {
		return domain.Message{Role: "user", Content: strings.Repeat("a", n)}
	}

	increasing := []domain.Message{short(10), short(10), short(10), short(120), short(150), short(180)}
	if got := engagementTrend(increasing); got != domain.TrendIncreasing {
		t.Fatalf("trend = %v, want increasing", got)
	}

	declining := []domain.Message{short(180), short(150), short(120), short(10), short(10), short(10)}
	if got := engagementTrend(declining); got != domain.TrendDeclining {
		t.Fatalf("trend = %v, want declining", got)
	}

	stable := []domain.Message{short(100), short(100), short(100), short(100), short(100), short(100)}
	if got := engagementTrend(stable); got != domain.TrendStable {
		t.Fatalf("trend = %v, want stable", got)
	}

	if got := engagementTrend(nil); got != domain.TrendStable {
		t.Fatalf("trend for empty history = %v, want stable", got)
	}
}

func TestEffortLevels(t *testing.T) {
	tests := []struct {
		priority float64
		want     domain.EffortLevel
	}{
		{90, domain.EffortIntensive},
		{75, domain.EffortIntensive},
		{60, domain.EffortStandard},
		{40, domain.EffortStandard},
		{30, domain.EffortMinimal},
		{0, domain.EffortMinimal},
	}
	for _, tt := range tests {
		if got := effortLevel(tt.priority); got != tt.want {
			t.Fatalf("effortLevel(%v) = %v, want %v", tt.priority, got, tt.want)
		}
	}
}

func TestInsightsShareExtractionWithScoring(t *testing.T) {
	svc := newTestService(t)
	insights := svc.GenerateLeadInsights(context.Background(), hotConversation(), "suburban")

	if insights.ConversationQualityScore < 0 || insights.ConversationQualityScore > 100 {
		t.Fatalf("quality %v outside [0, 100]", insights.ConversationQualityScore)
	}
	if insights.NextBestAction == "" || insights.OptimalCommunicationChannel == "" || insights.RecommendedFollowUpInterval == "" {
		t.Fatalf("insights missing recommendation strings: %+v", insights)
	}
	if insights.GeneratedAt.IsZero() {
		t.Fatal("insights must be timestamped")
	}
}
