package scoring

import (
	"testing"

	"leadqual_backend/internal/leads/domain"
)

func TestCalculateWithReasoningEmpty(t *testing.T) {
	result := New(nil).CalculateWithReasoning(domain.ConversationContext{})

	if result.Score != 0 {
		t.Fatalf("score = %d, want 0", result.Score)
	}
	if result.Classification != ClassificationCold {
		t.Fatalf("classification = %q, want %q", result.Classification, ClassificationCold)
	}
	if result.Percentage != 0 {
		t.Fatalf("percentage = %d, want 0", result.Percentage)
	}
	if len(result.Reasoning) != MaxScore {
		t.Fatalf("reasoning entries = %d, want %d", len(result.Reasoning), MaxScore)
	}
	// One prompt per missing field plus the classification action.
	if len(result.RecommendedActions) != MaxScore+1 {
		t.Fatalf("actions = %d, want %d", len(result.RecommendedActions), MaxScore+1)
	}
}

func TestCalculateWithReasoningFull(t *testing.T) {
	conv := domain.ConversationContext{Preferences: domain.Preferences{
		Budget: "$750,000", Location: "suburban", Timeline: "within a month",
		Bedrooms: "3", Financing: "pre-approved", Motivation: "relocation", MustHaves: "garage",
	}}
	result := New(nil).CalculateWithReasoning(conv)

	if result.Score != 7 {
		t.Fatalf("score = %d, want 7", result.Score)
	}
	if result.Classification != ClassificationHot {
		t.Fatalf("classification = %q, want %q", result.Classification, ClassificationHot)
	}
	if result.Percentage != 100 {
		t.Fatalf("percentage = %d, want 100", result.Percentage)
	}
	for field, present := range result.FieldStatus {
		if !present {
			t.Fatalf("field %q should be present", field)
		}
	}
}

func TestClassificationBands(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, ClassificationCold},
		{1, ClassificationCold},
		{2, ClassificationLukewarm},
		{3, ClassificationLukewarm},
		{4, ClassificationWarm},
		{5, ClassificationWarm},
		{6, ClassificationHot},
		{7, ClassificationHot},
	}
	for _, tt := range tests {
		if got := classify(tt.score); got != tt.want {
			t.Fatalf("classify(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestWhitespaceFieldsDoNotCount(t *testing.T) {
	conv := domain.ConversationContext{Preferences: domain.Preferences{
		Budget: "   ", Location: "downtown",
	}}
	result := New(nil).CalculateWithReasoning(conv)
	if result.Score != 1 {
		t.Fatalf("score = %d, want 1", result.Score)
	}
	if result.FieldStatus["budget"] {
		t.Fatal("whitespace budget should not count")
	}
}
