package models

import (
	"context"
	"math"
	"math/rand"
)

type DTNode struct {
	Feature   int
	Threshold float64
	Left      *DTNode
	Right     *DTNode
	IsLeaf    bool
	Value     float64
}

// DecisionTree is a CART regression tree splitting on squared-error reduction.
type DecisionTree struct {
	MaxDepth           int
	MinSamplesSplit    int
	MaxThresholdsPerFe int
	MaxFeatures        int
	Seed               int64
	Root               *DTNode
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{MaxDepth: 6, MinSamplesSplit: 4, MaxThresholdsPerFe: 64, Seed: 1}
}

func (dt *DecisionTree) Name() string { return "DecisionTree" }

func (dt *DecisionTree) Fit(_ context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(dt.Seed))
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	dt.Root = dt.build(rng, X, y, idx, 0)
	return nil
}

func (dt *DecisionTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = dt.predictOne(X[i])
	}
	return out
}

func (dt *DecisionTree) predictOne(x []float64) float64 {
	n := dt.Root
	if n == nil {
		return 0
	}
	for !n.IsLeaf {
		next := n.Right
		if x[n.Feature] <= n.Threshold {
			next = n.Left
		}
		if next == nil {
			return n.Value
		}
		n = next
	}
	return n.Value
}

func (dt *DecisionTree) build(rng *rand.Rand, X [][]float64, y []float64, idx []int, depth int) *DTNode {
	node := &DTNode{Value: meanAt(y, idx)}
	if len(idx) < dt.MinSamplesSplit || depth >= dt.MaxDepth || sseAt(y, idx) == 0 {
		node.IsLeaf = true
		return node
	}

	bestFeature := -1
	bestThr := 0.0
	bestSSE := math.MaxFloat64
	var leftBest, rightBest []int

	for _, f := range pickFeatures(rng, len(X[0]), dt.MaxFeatures) {
		for _, thr := range candidateThresholds(rng, X, idx, f, dt.MaxThresholdsPerFe) {
			l, r := splitIdx(X, idx, f, thr)
			if len(l) == 0 || len(r) == 0 {
				continue
			}
			sse := sseAt(y, l) + sseAt(y, r)
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThr = thr
				leftBest = l
				rightBest = r
			}
		}
	}

	if bestFeature == -1 {
		node.IsLeaf = true
		return node
	}
	node.Feature = bestFeature
	node.Threshold = bestThr
	node.Left = dt.build(rng, X, y, leftBest, depth+1)
	node.Right = dt.build(rng, X, y, rightBest, depth+1)
	return node
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	s := 0.0
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}

func sseAt(y []float64, idx []int) float64 {
	m := meanAt(y, idx)
	s := 0.0
	for _, i := range idx {
		d := y[i] - m
		s += d * d
	}
	return s
}

func splitIdx(X [][]float64, idx []int, f int, thr float64) ([]int, []int) {
	l := make([]int, 0, len(idx))
	r := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][f] <= thr {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	return l, r
}

func candidateThresholds(rng *rand.Rand, X [][]float64, idx []int, f int, maxC int) []float64 {
	values := make([]float64, len(idx))
	for j, i := range idx {
		values[j] = X[i][f]
	}
	if maxC <= 0 || maxC >= len(values) {
		return values
	}
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	return values[:maxC]
}

func pickFeatures(rng *rand.Rand, nFeats int, maxFeats int) []int {
	idx := make([]int, nFeats)
	for i := range idx {
		idx[i] = i
	}
	if maxFeats <= 0 || maxFeats >= nFeats {
		return idx
	}
	rng.Shuffle(nFeats, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx[:maxFeats]
}
