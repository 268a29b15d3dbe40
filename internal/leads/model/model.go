package model

import (
	"context"
	"math"
	"sync"
	"time"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/features"
	"leadqual_backend/platform/logger"
)

// confidenceZ is the ~95% normal-approximation multiplier applied to the
// ensemble's prediction spread.
const confidenceZ = 1.96

// trainedState bundles everything inference needs. It is replaced
// wholesale at the end of a training run or load; concurrent inference
// sees either the old state or the new one, never a mix.
type trainedState struct {
	Forest           *forest
	Scaler           *standardScaler
	FeatureNames     []string
	LastTrainingDate time.Time
}

// Model is the closing-probability classifier service. It is safe for
// concurrent use: inference takes a read lock, training and loading swap
// the state under the write lock.
type Model struct {
	dir      string
	engineer *features.Engineer
	log      *logger.Logger
	now      func() time.Time

	mu      sync.RWMutex
	state   *trainedState
	metrics *domain.ModelMetrics
}

// Option configures a Model.
type Option func(*Model)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates an untrained model persisting artifacts under dir. It does
// not touch the disk; the owning application calls Load explicitly at
// startup. Inference before Load (or before any training) falls back to
// the rule-based baseline.
func New(dir string, engineer *features.Engineer, log *logger.Logger, opts ...Option) *Model {
	m := &Model{
		dir:      dir,
		engineer: engineer,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads persisted artifacts from the model directory and swaps them
// in. A missing or partial artifact set leaves the model untrained and
// returns nil: absence is a normal state, not an error.
func (m *Model) Load(_ context.Context) error {
	state, metrics, err := loadArtifacts(m.dir)
	if err != nil {
		if m.log != nil {
			m.log.ModelEvent("model_load_failed", "dir", m.dir, "error", err.Error())
		}
		return err
	}
	if state == nil {
		if m.log != nil {
			m.log.ModelEvent("model_not_found", "dir", m.dir)
		}
		return nil
	}

	m.mu.Lock()
	m.state = state
	m.metrics = metrics
	m.mu.Unlock()

	if m.log != nil {
		m.log.ModelEvent("model_loaded",
			"dir", m.dir,
			"features", len(state.FeatureNames),
			"trained_at", state.LastTrainingDate.Format(time.RFC3339),
		)
	}
	return nil
}

// IsTrained reports whether a trained ensemble is currently loaded.
func (m *Model) IsTrained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != nil
}

// GetModelPerformance returns the held-out metrics of the most recent
// training run, or nil when none exist.
func (m *Model) GetModelPerformance() *domain.ModelMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.metrics == nil {
		return nil
	}
	copied := *m.metrics
	if m.metrics.FeatureImportances != nil {
		copied.FeatureImportances = make(map[string]float64, len(m.metrics.FeatureImportances))
		for name, imp := range m.metrics.FeatureImportances {
			copied.FeatureImportances[name] = imp
		}
	}
	return &copied
}

// NeedsRetraining reports whether the model should be retrained: always
// true when untrained, otherwise true once the last training run is older
// than maxAgeDays.
func (m *Model) NeedsRetraining(maxAgeDays int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return true
	}
	age := m.now().Sub(m.state.LastTrainingDate)
	return age >= time.Duration(maxAgeDays)*24*time.Hour
}

// PredictClosingProbability extracts features for the conversation and
// scores it with the trained ensemble, or with the rule-based baseline
// when no usable model is loaded. It never fails.
func (m *Model) PredictClosingProbability(ctx context.Context, conv domain.ConversationContext, location string) domain.ModelPrediction {
	convFeats := m.engineer.ConversationFeatures(ctx, conv)
	marketFeats := m.engineer.MarketFeatures(ctx, location)
	return m.PredictFromFeatures(conv, convFeats, marketFeats)
}

// PredictFromFeatures scores already-extracted features. Callers that run
// the feature engineer themselves use this to avoid double extraction.
func (m *Model) PredictFromFeatures(conv domain.ConversationContext, convFeats domain.ConversationFeatures, marketFeats domain.MarketFeatures) domain.ModelPrediction {
	vector := features.Vector(convFeats, marketFeats)

	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()

	if state == nil {
		return baselinePrediction(conv)
	}
	// A stale model scored against an upgraded feature vector falls back
	// to baseline instead of silently misaligning weights.
	if len(vector) != len(state.FeatureNames) {
		if m.log != nil {
			m.log.ModelEvent("feature_vector_mismatch",
				"model_features", len(state.FeatureNames),
				"vector_features", len(vector),
			)
		}
		return baselinePrediction(conv)
	}

	scaled, err := state.Scaler.transform(vector)
	if err != nil {
		if m.log != nil {
			m.log.ModelEvent("scaler_mismatch", "error", err.Error())
		}
		return baselinePrediction(conv)
	}

	prob, sigma := state.Forest.predict(scaled)
	risks, positives := explainPrediction(vector, prob)

	importance := make(map[string]float64, len(state.FeatureNames))
	for i, name := range state.FeatureNames {
		if i < len(state.Forest.Importances) {
			importance[name] = state.Forest.Importances[i]
		}
	}

	return domain.ModelPrediction{
		ClosingProbability: prob,
		ConfidenceLow:      clip01(prob - confidenceZ*sigma),
		ConfidenceHigh:     clip01(prob + confidenceZ*sigma),
		RiskFactors:        risks,
		PositiveSignals:    positives,
		ModelConfidence:    1 - math.Min(2*sigma, 1),
		FeatureImportance:  importance,
	}
}

func clip01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
