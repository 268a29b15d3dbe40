package model

import (
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	forestSize      = 25
	maxTreeDepth    = 6
	minSamplesSplit = 10
	minSamplesLeaf  = 5
)

// treeNode is one node of a fitted decision tree. Leaves carry the
// class-weighted positive probability; internal nodes carry a threshold
// split on a single feature.
type treeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Prob      float64   `json:"prob"`
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Prob
}

// forest is a bagged ensemble of class-weighted decision trees. Class
// weighting compensates for the non-closing skew of real estate leads.
type forest struct {
	Trees       []*treeNode `json:"trees"`
	Importances []float64   `json:"importances"` // per feature, sums to ~1
}

// predict returns the mean positive probability and the per-tree standard
// deviation, a proxy for epistemic uncertainty.
func (f *forest) predict(row []float64) (mean, sigma float64) {
	if len(f.Trees) == 0 {
		return 0.5, 0.5
	}
	sum := 0.0
	probs := make([]float64, len(f.Trees))
	for i, tree := range f.Trees {
		probs[i] = tree.predict(row)
		sum += probs[i]
	}
	mean = sum / float64(len(f.Trees))

	variance := 0.0
	for _, p := range probs {
		diff := p - mean
		variance += diff * diff
	}
	sigma = math.Sqrt(variance / float64(len(f.Trees)))
	return mean, sigma
}

// trainForest fits the bagged ensemble on scaled rows with binary labels.
func trainForest(rows [][]float64, labels []int, rng *rand.Rand) *forest {
	n := len(rows)
	if n == 0 {
		return &forest{}
	}
	features := len(rows[0])

	// Balanced class weights: each class contributes half the total mass.
	positives := 0
	for _, y := range labels {
		if y == 1 {
			positives++
		}
	}
	negatives := n - positives
	wPos, wNeg := 1.0, 1.0
	if positives > 0 && negatives > 0 {
		wPos = float64(n) / (2 * float64(positives))
		wNeg = float64(n) / (2 * float64(negatives))
	}

	f := &forest{
		Trees:       make([]*treeNode, forestSize),
		Importances: make([]float64, features),
	}
	mtry := int(math.Ceil(math.Sqrt(float64(features))))

	// Bootstrap samples and per-tree RNGs are drawn sequentially from the
	// shared source so the fitted forest is reproducible for a given seed,
	// then the trees themselves are built in parallel.
	type treeJob struct {
		indices []int
		rng     *rand.Rand
	}
	jobs := make([]treeJob, forestSize)
	for t := range jobs {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		jobs[t] = treeJob{indices: indices, rng: rand.New(rand.NewSource(rng.Int63()))}
	}

	perTree := make([][]float64, forestSize)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range jobs {
		g.Go(func() error {
			builder := &treeBuilder{
				rows:        rows,
				labels:      labels,
				wPos:        wPos,
				wNeg:        wNeg,
				mtry:        mtry,
				rng:         jobs[t].rng,
				importances: make([]float64, features),
			}
			f.Trees[t] = builder.build(jobs[t].indices, 0)
			perTree[t] = builder.importances
			return nil
		})
	}
	_ = g.Wait()

	total := 0.0
	for _, imp := range perTree {
		for j, v := range imp {
			f.Importances[j] += v
		}
	}
	for _, imp := range f.Importances {
		total += imp
	}
	if total > 0 {
		for j := range f.Importances {
			f.Importances[j] /= total
		}
	}
	return f
}

type treeBuilder struct {
	rows        [][]float64
	labels      []int
	wPos, wNeg  float64
	mtry        int
	rng         *rand.Rand
	importances []float64
}

func (b *treeBuilder) weight(idx int) float64 {
	if b.labels[idx] == 1 {
		return b.wPos
	}
	return b.wNeg
}

// weightedProb is the class-weighted positive fraction over a node.
func (b *treeBuilder) weightedProb(indices []int) float64 {
	posW, totalW := 0.0, 0.0
	for _, idx := range indices {
		w := b.weight(idx)
		totalW += w
		if b.labels[idx] == 1 {
			posW += w
		}
	}
	if totalW == 0 {
		return 0.5
	}
	return posW / totalW
}

func gini(p float64) float64 {
	return 2 * p * (1 - p)
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	prob := b.weightedProb(indices)
	if depth >= maxTreeDepth || len(indices) < minSamplesSplit || prob == 0 || prob == 1 {
		return &treeNode{Leaf: true, Prob: prob}
	}

	feature, threshold, gain, ok := b.bestSplit(indices, prob)
	if !ok {
		return &treeNode{Leaf: true, Prob: prob}
	}

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, idx := range indices {
		if b.rows[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < minSamplesLeaf || len(right) < minSamplesLeaf {
		return &treeNode{Leaf: true, Prob: prob}
	}

	b.importances[feature] += gain * float64(len(indices))

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
		Prob:      prob,
	}
}

// bestSplit searches a random feature subset for the threshold with the
// largest weighted gini decrease.
func (b *treeBuilder) bestSplit(indices []int, parentProb float64) (feature int, threshold, gain float64, ok bool) {
	parentImpurity := gini(parentProb)
	if parentImpurity == 0 {
		return 0, 0, 0, false
	}

	candidates := b.rng.Perm(len(b.rows[0]))[:b.mtry]
	bestGain := 0.0

	values := make([]float64, len(indices))
	for _, featureIdx := range candidates {
		for i, idx := range indices {
			values[i] = b.rows[idx][featureIdx]
		}
		sort.Float64s(values)

		for _, candidate := range splitCandidates(values) {

			leftPosW, leftW, rightPosW, rightW := 0.0, 0.0, 0.0, 0.0
			for _, idx := range indices {
				w := b.weight(idx)
				if b.rows[idx][featureIdx] <= candidate {
					leftW += w
					if b.labels[idx] == 1 {
						leftPosW += w
					}
				} else {
					rightW += w
					if b.labels[idx] == 1 {
						rightPosW += w
					}
				}
			}
			if leftW == 0 || rightW == 0 {
				continue
			}

			totalW := leftW + rightW
			childImpurity := leftW/totalW*gini(leftPosW/leftW) + rightW/totalW*gini(rightPosW/rightW)
			if g := parentImpurity - childImpurity; g > bestGain {
				bestGain = g
				feature = featureIdx
				threshold = candidate
				ok = true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

// maxSplitCandidates bounds the threshold search per feature; beyond this
// the search samples quantile midpoints instead of every distinct value.
const maxSplitCandidates = 16

// splitCandidates returns candidate thresholds from sorted values.
func splitCandidates(sorted []float64) []float64 {
	out := make([]float64, 0, maxSplitCandidates)
	distinct := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			distinct++
		}
	}
	if distinct == 0 {
		return out
	}
	if distinct <= maxSplitCandidates {
		for i := 1; i < len(sorted); i++ {
			if sorted[i] != sorted[i-1] {
				out = append(out, (sorted[i]+sorted[i-1])/2)
			}
		}
		return out
	}
	step := len(sorted) / (maxSplitCandidates + 1)
	for i := step; i < len(sorted); i += step {
		if sorted[i] != sorted[i-1] {
			out = append(out, (sorted[i]+sorted[i-1])/2)
		} else {
			out = append(out, sorted[i])
		}
	}
	return out
}
