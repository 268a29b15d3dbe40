// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadScored is published after every successful predictive scoring call.
// The snapshot persister subscribes to it so scoring never blocks on storage.
type LeadScored struct {
	BaseEvent
	LeadID             uuid.UUID `json:"leadId"`
	PriorityLevel      string    `json:"priorityLevel"`
	PriorityScore      float64   `json:"priorityScore"`
	QualificationScore int       `json:"qualificationScore"`
	ClosingProbability float64   `json:"closingProbability"`
	ModelConfidence    float64   `json:"modelConfidence"`
	Degraded           bool      `json:"degraded"`
	// Score is the full result, carried so subscribers can persist the
	// snapshot without rescoring.
	Score domain.PredictiveScore `json:"score"`
}

func (e LeadScored) EventName() string { return "leads.scored" }

// =============================================================================
// Model Domain Events
// =============================================================================

// ModelTrained is published when a training run completes and the new
// model has been swapped in.
type ModelTrained struct {
	BaseEvent
	Samples   int     `json:"samples"`
	Accuracy  float64 `json:"accuracy"`
	AUCScore  float64 `json:"aucScore"`
	Synthetic bool    `json:"synthetic"`
}

func (e ModelTrained) EventName() string { return "model.trained" }

// LeadScoreStale is published for leads whose latest snapshot has aged
// out. Subscribers that hold the conversation state resubmit those leads
// for a fresh scoring pass.
type LeadScoreStale struct {
	BaseEvent
	LeadIDs []uuid.UUID `json:"leadIds"`
}

func (e LeadScoreStale) EventName() string { return "leads.score_stale" }
