package model

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/platform/apperr"
)

// TargetColumn is the label column name in training datasets: 1 for a
// closed transaction, 0 otherwise.
const TargetColumn = "closed"

// Dataset is a labeled training table. Columns names the values in each
// row, in order; the target column holds 0/1 labels and every other
// column is a feature.
type Dataset struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// TrainOptions tune a training run. Zero values select the defaults.
type TrainOptions struct {
	TargetColumn    string  // default TargetColumn
	ValidationSplit float64 // held-out fraction, default 0.2
	RandomState     int64   // rng seed, default 42
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.TargetColumn == "" {
		o.TargetColumn = TargetColumn
	}
	if o.ValidationSplit <= 0 || o.ValidationSplit >= 1 {
		o.ValidationSplit = 0.2
	}
	if o.RandomState == 0 {
		o.RandomState = 42
	}
	return o
}

// Train fits the scaler and ensemble on the dataset, validates on a
// stratified held-out split, persists the artifact triple atomically, and
// swaps the new model in for inference. Training fails loudly on bad
// input; a silently mistrained model would be worse than no model.
func (m *Model) Train(ctx context.Context, data Dataset, opts TrainOptions) (domain.ModelMetrics, error) {
	const op = "model.Train"
	opts = opts.withDefaults()

	targetIdx := -1
	for i, col := range data.Columns {
		if col == opts.TargetColumn {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return domain.ModelMetrics{}, apperr.Validation("target column '"+opts.TargetColumn+"' not found in training data").WithOp(op)
	}
	if len(data.Rows) < 10 {
		return domain.ModelMetrics{}, apperr.Validation("training requires at least 10 rows").WithOp(op)
	}

	featureNames := make([]string, 0, len(data.Columns)-1)
	for i, col := range data.Columns {
		if i != targetIdx {
			featureNames = append(featureNames, col)
		}
	}

	rows := make([][]float64, len(data.Rows))
	labels := make([]int, len(data.Rows))
	for i, raw := range data.Rows {
		if len(raw) != len(data.Columns) {
			return domain.ModelMetrics{}, apperr.Validation("training row width does not match columns").WithOp(op)
		}
		row := make([]float64, 0, len(featureNames))
		for j, v := range raw {
			if j == targetIdx {
				continue
			}
			row = append(row, v)
		}
		rows[i] = row
		if raw[targetIdx] >= 0.5 {
			labels[i] = 1
		}
	}

	rng := rand.New(rand.NewSource(opts.RandomState))
	trainIdx, valIdx := stratifiedSplit(labels, opts.ValidationSplit, rng)

	trainRows := make([][]float64, len(trainIdx))
	trainLabels := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainRows[i] = rows[idx]
		trainLabels[i] = labels[idx]
	}

	// The scaler is fit on the training split only and reused unchanged
	// at inference.
	scaler := fitScaler(trainRows)
	scaledTrain, err := scaler.transformAll(trainRows)
	if err != nil {
		return domain.ModelMetrics{}, apperr.Wrap(apperr.KindInternal, "scaling training data", err).WithOp(op)
	}

	ensemble := trainForest(scaledTrain, trainLabels, rng)

	valProbs := make([]float64, len(valIdx))
	valLabels := make([]int, len(valIdx))
	for i, idx := range valIdx {
		scaled, err := scaler.transform(rows[idx])
		if err != nil {
			return domain.ModelMetrics{}, apperr.Wrap(apperr.KindInternal, "scaling validation data", err).WithOp(op)
		}
		valProbs[i], _ = ensemble.predict(scaled)
		valLabels[i] = labels[idx]
	}

	metrics := validationMetrics(valProbs, valLabels, featureNames, ensemble.Importances, m.now())

	state := &trainedState{
		Forest:           ensemble,
		Scaler:           scaler,
		FeatureNames:     featureNames,
		LastTrainingDate: m.now(),
	}
	if err := saveArtifacts(m.dir, state, &metrics); err != nil {
		return domain.ModelMetrics{}, apperr.Wrap(apperr.KindInternal, "persisting model artifacts", err).WithOp(op)
	}

	m.mu.Lock()
	m.state = state
	m.metrics = &metrics
	m.mu.Unlock()

	if m.log != nil {
		m.log.ModelEvent("model_trained",
			"samples", len(data.Rows),
			"accuracy", metrics.Accuracy,
			"auc", metrics.AUCScore,
		)
	}
	return metrics, nil
}

// stratifiedSplit partitions row indices into train/validation keeping the
// class ratio in both splits.
func stratifiedSplit(labels []int, validationSplit float64, rng *rand.Rand) (train, validation []int) {
	var positives, negatives []int
	for i, y := range labels {
		if y == 1 {
			positives = append(positives, i)
		} else {
			negatives = append(negatives, i)
		}
	}
	rng.Shuffle(len(positives), func(i, j int) { positives[i], positives[j] = positives[j], positives[i] })
	rng.Shuffle(len(negatives), func(i, j int) { negatives[i], negatives[j] = negatives[j], negatives[i] })

	split := func(class []int) (tr, val []int) {
		cut := int(float64(len(class)) * validationSplit)
		return class[cut:], class[:cut]
	}
	trPos, valPos := split(positives)
	trNeg, valNeg := split(negatives)

	train = append(append(train, trPos...), trNeg...)
	validation = append(append(validation, valPos...), valNeg...)
	return train, validation
}

// validationMetrics computes standard binary classification metrics at a
// 0.5 decision threshold, plus a rank-based AUC.
func validationMetrics(probs []float64, labels []int, featureNames []string, importances []float64, at time.Time) domain.ModelMetrics {
	var confusion [2][2]int
	for i, p := range probs {
		predicted := 0
		if p >= 0.5 {
			predicted = 1
		}
		confusion[labels[i]][predicted]++
	}

	tp := float64(confusion[1][1])
	tn := float64(confusion[0][0])
	fp := float64(confusion[0][1])
	fn := float64(confusion[1][0])
	total := tp + tn + fp + fn

	metrics := domain.ModelMetrics{
		ConfusionMatrix:    confusion,
		FeatureImportances: make(map[string]float64, len(featureNames)),
		ValidationDate:     at,
	}
	if total > 0 {
		metrics.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		metrics.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		metrics.Recall = tp / (tp + fn)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1Score = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	metrics.AUCScore = rankAUC(probs, labels)

	for i, name := range featureNames {
		if i < len(importances) {
			metrics.FeatureImportances[name] = importances[i]
		}
	}
	return metrics
}

// rankAUC is the Mann-Whitney estimate of the ROC AUC, with half credit
// for tied scores. Returns 0.5 when either class is absent.
func rankAUC(probs []float64, labels []int) float64 {
	type scored struct {
		p float64
		y int
	}
	items := make([]scored, len(probs))
	positives, negatives := 0, 0
	for i := range probs {
		items[i] = scored{probs[i], labels[i]}
		if labels[i] == 1 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return 0.5
	}
	sort.Slice(items, func(i, j int) bool { return items[i].p < items[j].p })

	// Average ranks over tie groups, then the rank-sum formula.
	rankSum := 0.0
	i := 0
	for i < len(items) {
		j := i
		for j < len(items) && items[j].p == items[i].p {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			if items[k].y == 1 {
				rankSum += avgRank
			}
		}
		i = j
	}
	u := rankSum - float64(positives)*float64(positives+1)/2
	return u / (float64(positives) * float64(negatives))
}
