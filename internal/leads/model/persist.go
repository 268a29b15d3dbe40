package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"leadqual_backend/internal/leads/domain"
)

// The artifact triple. All three must be present and mutually consistent
// to load; partial presence reads as "no model".
const (
	modelFile    = "model.json"
	scalerFile   = "scaler.json"
	metadataFile = "metadata.json"
)

// metadata is the JSON sidecar tying the serialized ensemble and scaler
// to the feature ordering they were trained on.
type metadata struct {
	FeatureNames     []string             `json:"feature_names"`
	LastTrainingDate string               `json:"last_training_date"`
	Metrics          *domain.ModelMetrics `json:"metrics,omitempty"`
}

// saveArtifacts writes the triple atomically: every file lands as a temp
// file first and is renamed into place only after all writes succeeded,
// so a crash mid-save never leaves a mixed model/scaler/metadata set
// behind a successful load.
func saveArtifacts(dir string, state *trainedState, metrics *domain.ModelMetrics) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	meta := metadata{
		FeatureNames:     state.FeatureNames,
		LastTrainingDate: state.LastTrainingDate.Format(time.RFC3339),
		Metrics:          metrics,
	}

	staged := []struct {
		name string
		data any
	}{
		{modelFile, state.Forest},
		{scalerFile, state.Scaler},
		{metadataFile, meta},
	}

	temps := make([]string, 0, len(staged))
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for _, artifact := range staged {
		raw, err := json.Marshal(artifact.data)
		if err != nil {
			cleanup()
			return fmt.Errorf("encoding %s: %w", artifact.name, err)
		}
		tmp := filepath.Join(dir, artifact.name+".tmp")
		if err := os.WriteFile(tmp, raw, 0o644); err != nil {
			cleanup()
			return fmt.Errorf("writing %s: %w", artifact.name, err)
		}
		temps = append(temps, tmp)
	}

	for i, artifact := range staged {
		if err := os.Rename(temps[i], filepath.Join(dir, artifact.name)); err != nil {
			cleanup()
			return fmt.Errorf("installing %s: %w", artifact.name, err)
		}
	}
	return nil
}

// loadArtifacts reads the persisted triple. Returns (nil, nil, nil) when
// the triple is absent or incomplete, an error only for unreadable or
// corrupt files.
func loadArtifacts(dir string) (*trainedState, *domain.ModelMetrics, error) {
	paths := []string{
		filepath.Join(dir, modelFile),
		filepath.Join(dir, scalerFile),
		filepath.Join(dir, metadataFile),
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil, nil
			}
			return nil, nil, fmt.Errorf("checking %s: %w", path, err)
		}
	}

	var ensemble forest
	if err := readJSON(paths[0], &ensemble); err != nil {
		return nil, nil, err
	}
	var scaler standardScaler
	if err := readJSON(paths[1], &scaler); err != nil {
		return nil, nil, err
	}
	var meta metadata
	if err := readJSON(paths[2], &meta); err != nil {
		return nil, nil, err
	}

	if len(meta.FeatureNames) != len(scaler.Means) {
		return nil, nil, fmt.Errorf("metadata names %d vs scaler features %d", len(meta.FeatureNames), len(scaler.Means))
	}
	trainedAt, err := time.Parse(time.RFC3339, meta.LastTrainingDate)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing last_training_date: %w", err)
	}

	state := &trainedState{
		Forest:           &ensemble,
		Scaler:           &scaler,
		FeatureNames:     meta.FeatureNames,
		LastTrainingDate: trainedAt,
	}
	return state, meta.Metrics, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
