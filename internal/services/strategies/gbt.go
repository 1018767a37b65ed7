package strategies

import (
	"errors"
	"math"
	"sort"
)

// GBTConfig tunes the gradient boosted tree learner used by the panel model.
type GBTConfig struct {
	Trees        int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int
}

// DefaultGBTConfig mirrors common boosted-tree defaults; depth is kept small
// because the panel feature set is narrow.
func DefaultGBTConfig() GBTConfig {
	return GBTConfig{
		Trees:        100,
		LearningRate: 0.1,
		MaxDepth:     4,
		MinLeaf:      5,
	}
}

// GBTModel is a gradient boosted ensemble of regression trees fit with
// squared-error loss.
type GBTModel struct {
	base  float64
	rate  float64
	trees []*treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

var errEmptyTrainingSet = errors.New("empty training set")

// TrainGBT fits an ensemble on the given feature matrix. Rows must all have
// the same width.
func TrainGBT(features [][]float64, target []float64, cfg GBTConfig) (*GBTModel, error) {
	if len(features) == 0 || len(features) != len(target) {
		return nil, errEmptyTrainingSet
	}
	if cfg.Trees <= 0 {
		cfg = DefaultGBTConfig()
	}

	m := &GBTModel{base: mean(target), rate: cfg.LearningRate}

	pred := make([]float64, len(target))
	for i := range pred {
		pred[i] = m.base
	}
	residual := make([]float64, len(target))

	idx := make([]int, len(target))
	for i := range idx {
		idx[i] = i
	}

	for t := 0; t < cfg.Trees; t++ {
		for i := range target {
			residual[i] = target[i] - pred[i]
		}
		root := growTree(features, residual, idx, cfg.MaxDepth, cfg.MinLeaf)
		m.trees = append(m.trees, root)
		for i := range pred {
			pred[i] += m.rate * root.predict(features[i])
		}
	}
	return m, nil
}

// Predict scores one feature row.
func (m *GBTModel) Predict(row []float64) float64 {
	out := m.base
	for _, tr := range m.trees {
		out += m.rate * tr.predict(row)
	}
	return out
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// growTree builds one depth-limited regression tree on the residuals, picking
// at each node the split with the largest variance reduction.
func growTree(features [][]float64, residual []float64, idx []int, depth, minLeaf int) *treeNode {
	if depth <= 0 || len(idx) < 2*minLeaf {
		return &treeNode{leaf: true, value: meanAt(residual, idx)}
	}

	feature, threshold, ok := bestSplit(features, residual, idx, minLeaf)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(residual, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(features, residual, left, depth-1, minLeaf),
		right:     growTree(features, residual, right, depth-1, minLeaf),
	}
}

const maxSplitCandidates = 32

func bestSplit(features [][]float64, residual []float64, idx []int, minLeaf int) (int, float64, bool) {
	nFeatures := len(features[idx[0]])

	var total, totalSq float64
	for _, i := range idx {
		total += residual[i]
		totalSq += residual[i] * residual[i]
	}
	n := float64(len(idx))
	baseScore := totalSq - total*total/n

	bestScore := baseScore
	bestFeature, bestThreshold := -1, 0.0

	vals := make([]float64, 0, len(idx))
	for f := 0; f < nFeatures; f++ {
		vals = vals[:0]
		for _, i := range idx {
			vals = append(vals, features[i][f])
		}
		for _, threshold := range splitCandidates(vals) {
			var lSum, lSq, lN float64
			for _, i := range idx {
				if features[i][f] <= threshold {
					lSum += residual[i]
					lSq += residual[i] * residual[i]
					lN++
				}
			}
			rN := n - lN
			if lN < float64(minLeaf) || rN < float64(minLeaf) {
				continue
			}
			rSum, rSq := total-lSum, totalSq-lSq
			score := (lSq - lSum*lSum/lN) + (rSq - rSum*rSum/rN)
			if score < bestScore-1e-12 {
				bestScore = score
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// splitCandidates returns midpoints between adjacent distinct values,
// subsampled down to maxSplitCandidates quantile points for wide columns.
func splitCandidates(vals []float64) []float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	distinct := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	out := make([]float64, 0, maxSplitCandidates)
	if len(distinct) <= maxSplitCandidates+1 {
		for i := 1; i < len(distinct); i++ {
			out = append(out, (distinct[i-1]+distinct[i])/2)
		}
		return out
	}
	step := float64(len(distinct)-1) / float64(maxSplitCandidates)
	for k := 1; k <= maxSplitCandidates; k++ {
		i := int(math.Round(float64(k) * step))
		if i < 1 {
			i = 1
		}
		if i >= len(distinct) {
			i = len(distinct) - 1
		}
		c := (distinct[i-1] + distinct[i]) / 2
		if len(out) == 0 || c != out[len(out)-1] {
			out = append(out, c)
		}
	}
	return out
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func meanAt(vals []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += vals[i]
	}
	return sum / float64(len(idx))
}
