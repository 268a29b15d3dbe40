package transport

import (
	"github.com/google/uuid"

	"leadqual_backend/internal/leads/domain"
)

// MessageDTO is one conversation entry as submitted by a caller.
type MessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user agent"`
	Content string `json:"content" validate:"required,max=10000"`
}

// PreferencesDTO carries the structured preferences extracted so far.
// All fields optional; blank means "not yet discussed".
type PreferencesDTO struct {
	Budget     string `json:"budget,omitempty" validate:"max=200"`
	Location   string `json:"location,omitempty" validate:"max=200"`
	Timeline   string `json:"timeline,omitempty" validate:"max=200"`
	Bedrooms   string `json:"bedrooms,omitempty" validate:"max=200"`
	Financing  string `json:"financing,omitempty" validate:"max=200"`
	Motivation string `json:"motivation,omitempty" validate:"max=500"`
	MustHaves  string `json:"mustHaves,omitempty" validate:"max=500"`
}

// ScoreLeadRequest asks for a full predictive scoring pass.
type ScoreLeadRequest struct {
	LeadID      uuid.UUID      `json:"leadId" validate:"required"`
	CreatedAt   string         `json:"createdAt,omitempty" validate:"max=64"`
	Location    string         `json:"location,omitempty" validate:"max=200"`
	Messages    []MessageDTO   `json:"messages" validate:"max=2000,dive"`
	Preferences PreferencesDTO `json:"preferences"`
}

// Conversation maps the request onto the domain snapshot.
func (r ScoreLeadRequest) Conversation() domain.ConversationContext {
	conv := domain.ConversationContext{
		LeadID:    r.LeadID,
		CreatedAt: r.CreatedAt,
		Preferences: domain.Preferences{
			Budget:     r.Preferences.Budget,
			Location:   r.Preferences.Location,
			Timeline:   r.Preferences.Timeline,
			Bedrooms:   r.Preferences.Bedrooms,
			Financing:  r.Preferences.Financing,
			Motivation: r.Preferences.Motivation,
			MustHaves:  r.Preferences.MustHaves,
		},
	}
	for _, msg := range r.Messages {
		conv.Messages = append(conv.Messages, domain.Message{Role: msg.Role, Content: msg.Content})
	}
	return conv
}

// TrainRequest triggers a training run on recorded outcomes.
type TrainRequest struct {
	ValidationSplit float64 `json:"validationSplit,omitempty" validate:"omitempty,gt=0,lt=1"`
	RandomState     int64   `json:"randomState,omitempty"`
}

// TrainSyntheticRequest triggers a bootstrap training run on generated data.
type TrainSyntheticRequest struct {
	Samples      int     `json:"samples,omitempty" validate:"omitempty,min=50,max=100000"`
	PositiveRate float64 `json:"positiveRate,omitempty" validate:"omitempty,gt=0,lt=1"`
	RandomState  int64   `json:"randomState,omitempty"`
}

// RecordOutcomeRequest stores a labeled closing outcome for retraining.
type RecordOutcomeRequest struct {
	LeadID      uuid.UUID      `json:"leadId" validate:"required"`
	Closed      bool           `json:"closed"`
	CreatedAt   string         `json:"createdAt,omitempty" validate:"max=64"`
	Location    string         `json:"location,omitempty" validate:"max=200"`
	Messages    []MessageDTO   `json:"messages" validate:"max=2000,dive"`
	Preferences PreferencesDTO `json:"preferences"`
}

// Conversation maps the outcome's conversation onto the domain snapshot.
func (r RecordOutcomeRequest) Conversation() domain.ConversationContext {
	score := ScoreLeadRequest{
		LeadID:      r.LeadID,
		CreatedAt:   r.CreatedAt,
		Messages:    r.Messages,
		Preferences: r.Preferences,
	}
	return score.Conversation()
}
