// Package training decides what the closing-probability model learns
// from: recorded outcomes when enough exist, synthetic bootstrap data
// otherwise. Used by the HTTP surface and the background scheduler.
package training

import (
	"context"
	"time"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/model"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/platform/apperr"
	"leadqual_backend/platform/logger"
)

// OutcomeSource provides labeled observations for training.
type OutcomeSource interface {
	CountOutcomes(ctx context.Context) (int, error)
	TrainingOutcomes(ctx context.Context, featureCount int) ([]repository.TrainingOutcome, error)
}

// Config exposes the training-related settings.
type Config interface {
	GetRetrainMaxAgeDays() int
	GetMinTrainingRows() int
	GetSyntheticSamples() int
	GetSyntheticPositiveRate() float64
}

// Service orchestrates training runs.
type Service struct {
	model    *model.Model
	outcomes OutcomeSource // nil in scoring-only deployments
	cfg      Config
	bus      events.Bus
	log      *logger.Logger
}

func New(m *model.Model, outcomes OutcomeSource, cfg Config, bus events.Bus, log *logger.Logger) *Service {
	return &Service{model: m, outcomes: outcomes, cfg: cfg, bus: bus, log: log}
}

// TrainFromOutcomes trains on recorded closing outcomes. Fails with an
// unavailable error when there are not enough observations yet.
func (s *Service) TrainFromOutcomes(ctx context.Context, opts model.TrainOptions) (domain.ModelMetrics, error) {
	const op = "training.TrainFromOutcomes"
	if s.outcomes == nil {
		return domain.ModelMetrics{}, apperr.Unavailable("no outcome storage configured").WithOp(op)
	}

	count, err := s.outcomes.CountOutcomes(ctx)
	if err != nil {
		return domain.ModelMetrics{}, apperr.Wrap(apperr.KindInternal, "counting outcomes", err).WithOp(op)
	}
	if count < s.cfg.GetMinTrainingRows() {
		return domain.ModelMetrics{}, apperr.Unavailable("not enough recorded outcomes to train").
			WithOp(op).
			WithDetails(map[string]int{"have": count, "need": s.cfg.GetMinTrainingRows()})
	}

	observations, err := s.outcomes.TrainingOutcomes(ctx, features.FeatureCount())
	if err != nil {
		return domain.ModelMetrics{}, apperr.Wrap(apperr.KindInternal, "loading outcomes", err).WithOp(op)
	}
	if len(observations) < s.cfg.GetMinTrainingRows() {
		return domain.ModelMetrics{}, apperr.Unavailable("not enough outcomes match the current feature vector").WithOp(op)
	}

	data := outcomesDataset(observations)
	metrics, err := s.model.Train(ctx, data, opts)
	if err != nil {
		return domain.ModelMetrics{}, err
	}
	s.publishTrained(ctx, len(data.Rows), metrics, false)
	return metrics, nil
}

// TrainSynthetic bootstraps the model from generated data.
func (s *Service) TrainSynthetic(ctx context.Context, samples int, positiveRate float64, seed int64) (domain.ModelMetrics, error) {
	if samples <= 0 {
		samples = s.cfg.GetSyntheticSamples()
	}
	if positiveRate <= 0 || positiveRate >= 1 {
		positiveRate = s.cfg.GetSyntheticPositiveRate()
	}

	data := model.GenerateSyntheticTrainingData(samples, positiveRate, seed)
	metrics, err := s.model.Train(ctx, data, model.TrainOptions{RandomState: seed})
	if err != nil {
		return domain.ModelMetrics{}, err
	}
	s.publishTrained(ctx, len(data.Rows), metrics, true)
	return metrics, nil
}

// RetrainIfNeeded runs the retraining policy: nothing when the model is
// fresh, outcomes when enough exist, synthetic bootstrap otherwise.
func (s *Service) RetrainIfNeeded(ctx context.Context) error {
	if !s.model.NeedsRetraining(s.cfg.GetRetrainMaxAgeDays()) {
		return nil
	}
	if s.log != nil {
		s.log.ModelEvent("retrain_triggered", "max_age_days", s.cfg.GetRetrainMaxAgeDays())
	}

	if _, err := s.TrainFromOutcomes(ctx, model.TrainOptions{}); err == nil {
		return nil
	} else if !apperr.Is(err, apperr.KindUnavailable) {
		return err
	}

	_, err := s.TrainSynthetic(ctx, 0, 0, time.Now().UnixNano())
	return err
}

func (s *Service) publishTrained(ctx context.Context, samples int, metrics domain.ModelMetrics, synthetic bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.ModelTrained{
		BaseEvent: events.NewBaseEvent(),
		Samples:   samples,
		Accuracy:  metrics.Accuracy,
		AUCScore:  metrics.AUCScore,
		Synthetic: synthetic,
	})
}

// outcomesDataset lays observations out as a training table with the
// current feature ordering.
func outcomesDataset(observations []repository.TrainingOutcome) model.Dataset {
	columns := append(features.FeatureNames(), model.TargetColumn)
	rows := make([][]float64, len(observations))
	for i, obs := range observations {
		row := make([]float64, 0, len(columns))
		row = append(row, obs.Features...)
		label := 0.0
		if obs.Closed {
			label = 1
		}
		rows[i] = append(row, label)
	}
	return model.Dataset{Columns: columns, Rows: rows}
}
