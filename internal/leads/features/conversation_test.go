package features

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"leadqual_backend/internal/leads/domain"
)

var testClock = func() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func testEngineer() *Engineer {
	return NewEngineer(nil, nil, WithClock(testClock))
}

func userMsg(content string) domain.Message {
	return domain.Message{Role: "user", Content: content}
}

func agentMsg(content string) domain.Message {
	return domain.Message{Role: "agent", Content: content}
}

func assertConversationBounds(t *testing.T, feats domain.ConversationFeatures) {
	t.Helper()
	if feats.MessageCount < 0 {
		t.Fatalf("message count %d < 0", feats.MessageCount)
	}
	if feats.AvgResponseTime < 0 || feats.AvgResponseTime > maxAvgResponseSeconds {
		t.Fatalf("avg response time %v outside [0, %v]", feats.AvgResponseTime, maxAvgResponseSeconds)
	}
	if feats.ConversationDurationMinutes < 0 {
		t.Fatalf("duration %v < 0", feats.ConversationDurationMinutes)
	}
	if feats.OverallSentiment < -1 || feats.OverallSentiment > 1 {
		t.Fatalf("sentiment %v outside [-1, 1]", feats.OverallSentiment)
	}
	for name, v := range map[string]float64{
		"urgency":      feats.UrgencyScore,
		"engagement":   feats.EngagementScore,
		"location":     feats.LocationSpecificity,
		"budget conf":  feats.BudgetConfidence,
		"completeness": feats.QualificationCompleteness,
		"consistency":  feats.ResponseConsistency,
	} {
		if v < 0 || v > 1 {
			t.Fatalf("%s score %v outside [0, 1]", name, v)
		}
	}
	if feats.QuestionFrequency < 0 {
		t.Fatalf("question frequency %v < 0", feats.QuestionFrequency)
	}
	if feats.MessageLengthVariance < 0 {
		t.Fatalf("variance %v < 0", feats.MessageLengthVariance)
	}
}

func TestConversationFeaturesEmpty(t *testing.T) {
	feats := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{})

	assertConversationBounds(t, feats)
	if feats.MessageCount != 0 {
		t.Fatalf("message count = %d, want 0", feats.MessageCount)
	}
	if feats.QualificationCompleteness != 0 {
		t.Fatalf("completeness = %v, want 0", feats.QualificationCompleteness)
	}
	if len(feats.MissingCriticalInfo) != len(domain.QualificationFields) {
		t.Fatalf("missing fields = %d, want all %d", len(feats.MissingCriticalInfo), len(domain.QualificationFields))
	}
	if feats.BudgetToMarketRatio != nil {
		t.Fatalf("budget ratio = %v, want nil", *feats.BudgetToMarketRatio)
	}
}

func TestConversationFeaturesLargeConversation(t *testing.T) {
	conv := domain.ConversationContext{
		CreatedAt: "2025-06-14T12:00:00Z",
	}
	for i := 0; i < 1000; i++ {
		conv.Messages = append(conv.Messages,
			userMsg(fmt.Sprintf("message number %d, is the house near a school? asap!", i)),
			agentMsg(strings.Repeat("reply ", 50)),
		)
	}

	feats := testEngineer().ConversationFeatures(context.Background(), conv)
	assertConversationBounds(t, feats)
	if feats.MessageCount != 2000 {
		t.Fatalf("message count = %d, want 2000", feats.MessageCount)
	}
}

func TestQualificationCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		prefs   domain.Preferences
		want    float64
		missing int
	}{
		{"none", domain.Preferences{}, 0, 7},
		{"whitespace only", domain.Preferences{Budget: "   "}, 0, 7},
		{"partial", domain.Preferences{Budget: "$500k", Location: "downtown", Timeline: "3 months"}, 3.0 / 7.0, 4},
		{"full", domain.Preferences{
			Budget: "$500k", Location: "downtown", Timeline: "3 months",
			Bedrooms: "3", Financing: "pre-approved", Motivation: "relocation", MustHaves: "garage",
		}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feats := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{Preferences: tt.prefs})
			if math.Abs(feats.QualificationCompleteness-tt.want) > 1e-9 {
				t.Fatalf("completeness = %v, want %v", feats.QualificationCompleteness, tt.want)
			}
			if len(feats.MissingCriticalInfo) != tt.missing {
				t.Fatalf("missing = %d, want %d", len(feats.MissingCriticalInfo), tt.missing)
			}
		})
	}
}

func TestParseBudgetEquivalentFormats(t *testing.T) {
	formats := []string{"$500,000", "500k", "$500k", "500 thousand", "0.5m", "500000"}
	for _, raw := range formats {
		value, confidence := parseBudget(raw)
		if math.Abs(value-500000) > 1e-6 {
			t.Fatalf("parseBudget(%q) = %v, want 500000", raw, value)
		}
		if confidence <= 0 {
			t.Fatalf("parseBudget(%q) confidence = %v, want > 0", raw, confidence)
		}
	}

	if _, confidence := parseBudget("$500,000"); confidence != 0.9 {
		t.Fatalf("explicit currency confidence = %v, want 0.9", confidence)
	}
	if _, confidence := parseBudget("500000"); confidence != 0.7 {
		t.Fatalf("bare number confidence = %v, want 0.7", confidence)
	}
}

func TestParseBudgetUnparseable(t *testing.T) {
	for _, raw := range []string{"", "   ", "flexible", "whatever it takes", "tbd"} {
		value, confidence := parseBudget(raw)
		if value != 0 || confidence != 0 {
			t.Fatalf("parseBudget(%q) = (%v, %v), want (0, 0)", raw, value, confidence)
		}
	}
}

func TestBudgetToMarketRatio(t *testing.T) {
	ratio, confidence := budgetToMarketRatio(domain.Preferences{Budget: "$850,000", Location: "downtown condo"})
	if ratio == nil {
		t.Fatal("ratio = nil, want value")
	}
	if math.Abs(*ratio-1.0) > 1e-6 {
		t.Fatalf("ratio = %v, want 1.0", *ratio)
	}
	if confidence != 0.9 {
		t.Fatalf("confidence = %v, want 0.9", confidence)
	}

	ratio, confidence = budgetToMarketRatio(domain.Preferences{Budget: "flexible", Location: "downtown"})
	if ratio != nil || confidence != 0 {
		t.Fatal("unparseable budget should fail closed with nil ratio")
	}
}

func TestTimestampParsingTolerance(t *testing.T) {
	now := testClock()
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2025-06-14T12:00:00Z", time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)},
		{"2025-06-14T12:00:00+02:00", time.Date(2025, time.June, 14, 10, 0, 0, 0, time.UTC)},
		{"2025-06-14T12:00:00", time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)},
		{"2025-06-14 12:00:00", time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)},
		{"2025-06-14", time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)},
		{"", now},
		{"not a timestamp", now},
	}
	for _, tt := range tests {
		got := parseTimestamp(tt.raw, testClock)
		if !got.Equal(tt.want) {
			t.Fatalf("parseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestConversationDurationNeverNegative(t *testing.T) {
	e := testEngineer()
	if d := e.conversationDuration("2030-01-01T00:00:00Z"); d != 0 {
		t.Fatalf("future timestamp duration = %v, want 0", d)
	}
	if d := e.conversationDuration("2025-06-15T11:00:00Z"); math.Abs(d-60) > 1e-6 {
		t.Fatalf("duration = %v, want 60", d)
	}
}

func TestUrgencyAndTimelineSignals(t *testing.T) {
	conv := domain.ConversationContext{Messages: []domain.Message{
		userMsg("We need to move ASAP, my job transfer starts next month and our lease is ending."),
	}}
	feats := testEngineer().ConversationFeatures(context.Background(), conv)

	if feats.UrgencyScore <= 0 {
		t.Fatalf("urgency = %v, want > 0", feats.UrgencyScore)
	}
	if feats.TimelineUrgencySignals < 2 {
		t.Fatalf("timeline signals = %d, want >= 2 (job transfer, lease ending)", feats.TimelineUrgencySignals)
	}

	calm := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{
		Messages: []domain.Message{userMsg("Just browsing what is out there, no rush at all.")},
	})
	if calm.UrgencyScore != 0 {
		t.Fatalf("calm urgency = %v, want 0", calm.UrgencyScore)
	}
}

func TestPriceMentionCounting(t *testing.T) {
	conv := domain.ConversationContext{Messages: []domain.Message{
		userMsg("Our budget is around $500,000 but we could stretch to 550k for the right place."),
		agentMsg("I have listings at $480,000 and $520,000."),
	}}
	feats := testEngineer().ConversationFeatures(context.Background(), conv)
	// Agent messages are excluded from price mentions.
	if feats.PriceMentionCount != 2 {
		t.Fatalf("price mentions = %d, want 2", feats.PriceMentionCount)
	}
}

func TestSentimentPolarity(t *testing.T) {
	positive := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{
		Messages: []domain.Message{userMsg("I love it, the neighborhood is perfect and we are definitely interested.")},
	})
	if positive.OverallSentiment <= 0 {
		t.Fatalf("positive sentiment = %v, want > 0", positive.OverallSentiment)
	}

	negative := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{
		Messages: []domain.Message{userMsg("Unfortunately that is too expensive and I am worried about the commute, not great.")},
	})
	if negative.OverallSentiment >= 0 {
		t.Fatalf("negative sentiment = %v, want < 0", negative.OverallSentiment)
	}

	neutral := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{
		Messages: []domain.Message{userMsg("What are the property taxes in that area?")},
	})
	if neutral.OverallSentiment != 0 {
		t.Fatalf("neutral sentiment = %v, want 0", neutral.OverallSentiment)
	}
}

func TestEngagementScore(t *testing.T) {
	engaged := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{
		Messages: []domain.Message{
			userMsg("What are the school districts like? And how is the commute downtown? We really want to understand the area before visiting."),
			userMsg("Could you also send comparable sales for the last six months? What do you think about the pricing trend there?"),
		},
	})
	silent := testEngineer().ConversationFeatures(context.Background(), domain.ConversationContext{
		Messages: []domain.Message{userMsg("ok"), userMsg("sure")},
	})
	if engaged.EngagementScore <= silent.EngagementScore {
		t.Fatalf("engaged %v should exceed terse %v", engaged.EngagementScore, silent.EngagementScore)
	}
}
