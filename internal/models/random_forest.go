package models

import (
	"context"
	"math"
	"math/rand"
)

type RandomForest struct {
	NEstimators        int
	MaxDepth           int
	MinSamples         int
	MaxThresholdsPerFe int
	MaxFeatures        int
	Seed               int64
	Trees              []*DecisionTree
}

func NewRandomForest() *RandomForest {
	return &RandomForest{NEstimators: 50, MaxDepth: 8, MinSamples: 4, MaxThresholdsPerFe: 32, Seed: 7}
}

func (rf *RandomForest) Name() string { return "RandomForest" }

func (rf *RandomForest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	if rf.NEstimators <= 0 {
		rf.NEstimators = 50
	}
	n := len(X)
	nFeats := len(X[0])
	maxFeats := rf.MaxFeatures
	if maxFeats <= 0 {
		// regression forests keep a third of the features per split
		maxFeats = int(math.Max(1, math.Ceil(float64(nFeats)/3)))
	}
	rng := rand.New(rand.NewSource(rf.Seed))
	rf.Trees = make([]*DecisionTree, 0, rf.NEstimators)
	for k := 0; k < rf.NEstimators; k++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		Xb := make([][]float64, n)
		yb := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			Xb[i] = X[j]
			yb[i] = y[j]
		}
		dt := NewDecisionTree()
		dt.MaxDepth = rf.MaxDepth
		dt.MinSamplesSplit = rf.MinSamples
		dt.MaxThresholdsPerFe = rf.MaxThresholdsPerFe
		dt.MaxFeatures = maxFeats
		dt.Seed = rf.Seed + int64(k) + 1
		if err := dt.Fit(ctx, Xb, yb); err != nil {
			return err
		}
		rf.Trees = append(rf.Trees, dt)
	}
	return nil
}

func (rf *RandomForest) Predict(X [][]float64) []float64 {
	n := len(X)
	out := make([]float64, n)
	if len(rf.Trees) == 0 {
		return out
	}
	for _, dt := range rf.Trees {
		p := dt.Predict(X)
		for i := 0; i < n; i++ {
			out[i] += p[i]
		}
	}
	m := float64(len(rf.Trees))
	for i := 0; i < n; i++ {
		out[i] /= m
	}
	return out
}
