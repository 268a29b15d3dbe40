package training

import (
	"context"
	"testing"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/model"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/platform/apperr"
	"leadqual_backend/platform/logger"
)

type stubConfig struct {
	minRows int
	maxAge  int
}

func (c stubConfig) GetRetrainMaxAgeDays() int         { return c.maxAge }
func (c stubConfig) GetMinTrainingRows() int           { return c.minRows }
func (c stubConfig) GetSyntheticSamples() int          { return 400 }
func (c stubConfig) GetSyntheticPositiveRate() float64 { return 0.3 }

type stubOutcomes struct {
	outcomes []repository.TrainingOutcome
}

func (s *stubOutcomes) CountOutcomes(context.Context) (int, error) {
	return len(s.outcomes), nil
}

func (s *stubOutcomes) TrainingOutcomes(_ context.Context, featureCount int) ([]repository.TrainingOutcome, error) {
	out := make([]repository.TrainingOutcome, 0, len(s.outcomes))
	for _, o := range s.outcomes {
		if len(o.Features) == featureCount {
			out = append(out, o)
		}
	}
	return out, nil
}

// syntheticOutcomes converts generated rows into stored observations.
func syntheticOutcomes(t *testing.T, samples int) []repository.TrainingOutcome {
	t.Helper()
	data := model.GenerateSyntheticTrainingData(samples, 0.3, 7)
	outcomes := make([]repository.TrainingOutcome, len(data.Rows))
	for i, row := range data.Rows {
		n := len(row) - 1
		outcomes[i] = repository.TrainingOutcome{
			Features: row[:n],
			Closed:   row[n] >= 0.5,
		}
	}
	return outcomes
}

func newTestService(t *testing.T, outcomes OutcomeSource, cfg stubConfig) (*Service, *model.Model) {
	t.Helper()
	log := logger.New("test")
	engineer := features.NewEngineer(nil, log)
	mdl := model.New(t.TempDir(), engineer, log)
	bus := events.NewInMemoryBus(log)
	return New(mdl, outcomes, cfg, bus, log), mdl
}

func TestTrainFromOutcomesRequiresStorage(t *testing.T) {
	svc, _ := newTestService(t, nil, stubConfig{minRows: 10})

	_, err := svc.TrainFromOutcomes(context.Background(), model.TrainOptions{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error without storage, got %v", err)
	}
}

func TestTrainFromOutcomesTooFewRows(t *testing.T) {
	source := &stubOutcomes{outcomes: syntheticOutcomes(t, 50)}
	svc, _ := newTestService(t, source, stubConfig{minRows: 200})

	_, err := svc.TrainFromOutcomes(context.Background(), model.TrainOptions{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error with 50 of 200 rows, got %v", err)
	}
}

func TestTrainFromOutcomesTrainsModel(t *testing.T) {
	source := &stubOutcomes{outcomes: syntheticOutcomes(t, 400)}
	svc, mdl := newTestService(t, source, stubConfig{minRows: 200})

	metrics, err := svc.TrainFromOutcomes(context.Background(), model.TrainOptions{RandomState: 42})
	if err != nil {
		t.Fatalf("TrainFromOutcomes: %v", err)
	}
	if !mdl.IsTrained() {
		t.Fatal("model should be trained after a successful run")
	}
	if metrics.Accuracy <= 0.5 {
		t.Fatalf("accuracy = %.3f, want > 0.5", metrics.Accuracy)
	}
}

func TestTrainFromOutcomesSkipsStaleVectors(t *testing.T) {
	outcomes := syntheticOutcomes(t, 400)
	// Half the observations predate the current feature ordering.
	for i := 0; i < 200; i++ {
		outcomes[i].Features = outcomes[i].Features[:5]
	}
	source := &stubOutcomes{outcomes: outcomes}
	svc, _ := newTestService(t, source, stubConfig{minRows: 300})

	_, err := svc.TrainFromOutcomes(context.Background(), model.TrainOptions{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error when usable rows fall short, got %v", err)
	}
}

func TestTrainSyntheticUsesConfigDefaults(t *testing.T) {
	svc, mdl := newTestService(t, nil, stubConfig{minRows: 10})

	metrics, err := svc.TrainSynthetic(context.Background(), 0, 0, 42)
	if err != nil {
		t.Fatalf("TrainSynthetic: %v", err)
	}
	if !mdl.IsTrained() {
		t.Fatal("model should be trained after synthetic bootstrap")
	}
	if metrics.AUCScore <= 0.5 {
		t.Fatalf("AUC = %.3f, want > 0.5", metrics.AUCScore)
	}
}

func TestRetrainIfNeededSkipsFreshModel(t *testing.T) {
	svc, mdl := newTestService(t, nil, stubConfig{minRows: 10, maxAge: 3650})

	if _, err := svc.TrainSynthetic(context.Background(), 200, 0.3, 1); err != nil {
		t.Fatalf("TrainSynthetic: %v", err)
	}
	before := mdl.GetModelPerformance()

	if err := svc.RetrainIfNeeded(context.Background()); err != nil {
		t.Fatalf("RetrainIfNeeded: %v", err)
	}
	after := mdl.GetModelPerformance()
	if before.ValidationDate != after.ValidationDate {
		t.Fatal("fresh model should not have been retrained")
	}
}

func TestRetrainIfNeededFallsBackToSynthetic(t *testing.T) {
	// No outcome storage and no trained model: the policy bootstraps.
	svc, mdl := newTestService(t, nil, stubConfig{minRows: 10, maxAge: 30})

	if err := svc.RetrainIfNeeded(context.Background()); err != nil {
		t.Fatalf("RetrainIfNeeded: %v", err)
	}
	if !mdl.IsTrained() {
		t.Fatal("model should be trained after fallback bootstrap")
	}
}
