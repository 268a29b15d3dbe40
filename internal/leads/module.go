// Package leads provides the lead qualification bounded context module.
// This file defines the module that encapsulates all leads setup and route
// registration.
package leads

import (
	"context"

	"leadqual_backend/internal/events"
	apphttp "leadqual_backend/internal/http"
	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/handler"
	"leadqual_backend/internal/leads/model"
	"leadqual_backend/internal/leads/predictive"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/scoring"
	"leadqual_backend/internal/leads/training"
	"leadqual_backend/platform/cache"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/logger"
	"leadqual_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	model      *model.Model
	predictive *predictive.Service
	trainer    *training.Service
	repo       *repository.Repository
}

// NewModule creates and initializes the leads module with all its
// dependencies. A nil pool runs the module scoring-only: no snapshot
// persistence and no stored training outcomes. Stored model artifacts
// are loaded here so a corrupt model directory fails startup instead of
// silently degrading to the baseline.
func NewModule(ctx context.Context, pool *pgxpool.Pool, c cache.Cache, bus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	engineer := features.NewEngineer(c, log)

	mdl := model.New(cfg.GetModelDir(), engineer, log)
	if err := mdl.Load(ctx); err != nil {
		return nil, err
	}

	scorer := scoring.New(log)
	predictiveSvc := predictive.New(scorer, mdl, engineer, log, predictive.WithBus(bus))

	var repo *repository.Repository
	if pool != nil {
		repo = repository.New(pool)
		subscribeSnapshotPersister(bus, repo, log)
	}

	var outcomes training.OutcomeSource
	if repo != nil {
		outcomes = repo
	}
	trainer := training.New(mdl, outcomes, cfg, bus, log)

	h := handler.New(predictiveSvc, mdl, trainer, engineer, repo, val)

	return &Module{
		handler:    h,
		model:      mdl,
		predictive: predictiveSvc,
		trainer:    trainer,
		repo:       repo,
	}, nil
}

// subscribeSnapshotPersister appends a snapshot for every scoring result.
// Persistence runs off the request path; a storage failure is logged, it
// never fails the scoring call.
func subscribeSnapshotPersister(bus events.Bus, repo *repository.Repository, log *logger.Logger) {
	bus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadScored)
		if !ok {
			return nil
		}

		snap := repository.ScoreSnapshot{
			ID:                 uuid.New(),
			LeadID:             e.LeadID,
			PriorityLevel:      e.PriorityLevel,
			PriorityScore:      e.PriorityScore,
			QualificationScore: e.QualificationScore,
			ClosingProbability: e.ClosingProbability,
			ModelConfidence:    e.ModelConfidence,
			Degraded:           e.Degraded,
			Score:              e.Score,
			ScoredAt:           e.Score.ScoredAt,
		}
		if err := repo.SaveSnapshot(ctx, snap); err != nil {
			log.Error("saving score snapshot failed", "error", err, "leadId", e.LeadID)
		}
		return nil
	}))
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Model returns the closing-probability model for external use.
func (m *Module) Model() *model.Model {
	return m.model
}

// PredictiveService returns the scoring service for external use.
func (m *Module) PredictiveService() *predictive.Service {
	return m.predictive
}

// Trainer returns the training orchestrator for external use.
func (m *Module) Trainer() *training.Service {
	return m.trainer
}

// Repository returns the snapshot store, nil in scoring-only mode.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.V1.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
