package model

import (
	"math"
	"math/rand"

	"leadqual_backend/internal/leads/features"
)

// Weights of the convex combination that generates the true closing
// probability for synthetic leads. These four signals dominate real
// closing behavior, in this order.
const (
	synthQualificationWeight = 0.4
	synthEngagementWeight    = 0.3
	synthUrgencyWeight       = 0.2
	synthBudgetWeight        = 0.1

	synthNoiseSigma = 0.1
)

// GenerateSyntheticTrainingData produces a labeled bootstrap dataset:
// uniform random feature vectors, a deterministic convex combination of
// four key features as the true closing probability plus Gaussian noise,
// Bernoulli-sampled outcomes, then the realized positive rate is pulled
// toward the requested rate by flipping the minimum number of labels.
// The same seed reproduces the same dataset exactly.
func GenerateSyntheticTrainingData(numSamples int, positiveRate float64, seed int64) Dataset {
	if numSamples <= 0 {
		numSamples = 1000
	}
	positiveRate = math.Min(math.Max(positiveRate, 0), 1)
	rng := rand.New(rand.NewSource(seed))

	names := features.FeatureNames()
	qualIdx := mustIndex(features.FeatureQualificationCompleteness)
	engIdx := mustIndex(features.FeatureEngagementScore)
	urgIdx := mustIndex(features.FeatureUrgencyScore)
	budgetIdx := mustIndex(features.FeatureBudgetMarketRatio)

	rows := make([][]float64, numSamples)
	labels := make([]int, numSamples)
	for i := range rows {
		row := make([]float64, len(names)+1)
		for j := range names {
			row[j] = rng.Float64()
		}

		trueProb := synthQualificationWeight*row[qualIdx] +
			synthEngagementWeight*row[engIdx] +
			synthUrgencyWeight*row[urgIdx] +
			synthBudgetWeight*row[budgetIdx] +
			rng.NormFloat64()*synthNoiseSigma
		trueProb = clip01(trueProb)

		if rng.Float64() < trueProb {
			labels[i] = 1
		}
		rows[i] = row
	}

	rebalanceLabels(labels, positiveRate, rng)
	for i, row := range rows {
		row[len(names)] = float64(labels[i])
	}

	return Dataset{
		Columns: append(names, TargetColumn),
		Rows:    rows,
	}
}

// rebalanceLabels flips the minimum number of labels needed to bring the
// realized positive count to the target rate. Flipping, not resampling,
// keeps feature-label correlation for the untouched majority.
func rebalanceLabels(labels []int, positiveRate float64, rng *rand.Rand) {
	target := int(math.Round(positiveRate * float64(len(labels))))
	current := 0
	for _, y := range labels {
		current += y
	}

	from, to := 0, 1
	deficit := target - current
	if deficit < 0 {
		from, to = 1, 0
		deficit = -deficit
	}
	if deficit == 0 {
		return
	}

	candidates := make([]int, 0, len(labels))
	for i, y := range labels {
		if y == from {
			candidates = append(candidates, i)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	for _, idx := range candidates[:deficit] {
		labels[idx] = to
	}
}

func mustIndex(name string) int {
	idx, err := features.FeatureIndex(name)
	if err != nil {
		panic(err)
	}
	return idx
}
