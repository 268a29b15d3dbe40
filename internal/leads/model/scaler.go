// Package model implements the closing-probability classifier: a bagged
// decision-tree ensemble over the engineered feature vector, with feature
// scaling, confidence intervals, atomic artifact persistence, a synthetic
// bootstrap data generator, and a rule-based baseline for the untrained
// state.
package model

import (
	"fmt"
	"math"
)

// standardScaler centers and scales each feature column to zero mean and
// unit variance. Fit on the training split only; inference reuses the
// fitted statistics, never refits.
type standardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

func fitScaler(rows [][]float64) *standardScaler {
	if len(rows) == 0 {
		return &standardScaler{}
	}
	cols := len(rows[0])
	s := &standardScaler{
		Means: make([]float64, cols),
		Stds:  make([]float64, cols),
	}

	for _, row := range rows {
		for j, v := range row {
			s.Means[j] += v
		}
	}
	for j := range s.Means {
		s.Means[j] /= float64(len(rows))
	}

	for _, row := range rows {
		for j, v := range row {
			diff := v - s.Means[j]
			s.Stds[j] += diff * diff
		}
	}
	for j := range s.Stds {
		s.Stds[j] = math.Sqrt(s.Stds[j] / float64(len(rows)))
		// A constant column scales to zero, not to NaN.
		if s.Stds[j] == 0 {
			s.Stds[j] = 1
		}
	}
	return s
}

// transform returns a scaled copy of the row.
func (s *standardScaler) transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Means) {
		return nil, fmt.Errorf("scaler fitted on %d features, got %d", len(s.Means), len(row))
	}
	scaled := make([]float64, len(row))
	for j, v := range row {
		scaled[j] = (v - s.Means[j]) / s.Stds[j]
	}
	return scaled, nil
}

func (s *standardScaler) transformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
