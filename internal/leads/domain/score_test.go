package domain

import "testing"

func TestPriorityForThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  PriorityLevel
	}{
		{100, PriorityCritical},
		{90, PriorityCritical},
		{89.99, PriorityHigh},
		{75, PriorityHigh},
		{74.99, PriorityMedium},
		{50, PriorityMedium},
		{49.99, PriorityLow},
		{25, PriorityLow},
		{24.99, PriorityCold},
		{0, PriorityCold},
	}
	for _, tc := range cases {
		if got := PriorityFor(tc.score); got != tc.want {
			t.Errorf("PriorityFor(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestPriorityForExhaustive(t *testing.T) {
	// Every score in [0, 100] maps to exactly one level.
	for score := 0.0; score <= 100.0; score += 0.25 {
		level := PriorityFor(score)
		switch level {
		case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityCold:
		default:
			t.Fatalf("PriorityFor(%v) returned unknown level %q", score, level)
		}
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	ordered := []PriorityLevel{PriorityCold, PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Fatalf("expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}
}

func TestPreferencesCounting(t *testing.T) {
	empty := Preferences{}
	if got := empty.PresentCount(); got != 0 {
		t.Fatalf("empty preferences count = %d, want 0", got)
	}
	if got := len(empty.MissingFields()); got != len(QualificationFields) {
		t.Fatalf("empty preferences missing %d fields, want %d", got, len(QualificationFields))
	}

	full := Preferences{
		Budget:     "$750,000",
		Location:   "Austin",
		Timeline:   "within a month",
		Bedrooms:   "3",
		Financing:  "pre-approved",
		Motivation: "relocating for work",
		MustHaves:  "good schools",
	}
	if got := full.PresentCount(); got != 7 {
		t.Fatalf("full preferences count = %d, want 7", got)
	}
	if got := full.MissingFields(); len(got) != 0 {
		t.Fatalf("full preferences missing = %v, want none", got)
	}

	// Whitespace-only values do not count as present.
	blank := Preferences{Budget: "   ", Location: "Austin"}
	if got := blank.PresentCount(); got != 1 {
		t.Fatalf("blank budget counted: got %d, want 1", got)
	}
}

func TestConversationContextUserText(t *testing.T) {
	conv := ConversationContext{
		Messages: []Message{
			{Role: "agent", Content: "How can I help?"},
			{Role: "user", Content: "Looking for a house"},
			{Role: "User", Content: "ASAP please"},
		},
	}
	if got := conv.UserText(); got != "Looking for a house ASAP please" {
		t.Fatalf("UserText() = %q", got)
	}
}
