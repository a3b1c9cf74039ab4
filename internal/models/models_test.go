package models

import (
	"bytes"
	"context"
	"encoding/gob"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a, b := rng.Float64()*10, rng.Float64()*5
		X[i] = []float64{a, b}
		y[i] = 3*a - 2*b + 1 + rng.NormFloat64()*0.01
	}
	return X, y
}

func stepData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a, b := rng.Float64(), rng.Float64()
		X[i] = []float64{a, b}
		y[i] = 2
		if a > 0.5 {
			y[i] = 8
		}
	}
	return X, y
}

func TestBayesianRidgeRecoversLinearCoefficients(t *testing.T) {
	X, y := linearData(200, 1)
	br := NewBayesianRidge()
	require.NoError(t, br.Fit(context.Background(), X, y))

	assert.InDelta(t, 3.0, br.Coef[0], 0.01)
	assert.InDelta(t, -2.0, br.Coef[1], 0.01)
	assert.InDelta(t, 1.0, br.Intercept, 0.05)
	assert.Greater(t, br.Alpha, 0.0)
	assert.Greater(t, br.Lambda, 0.0)
}

func TestTreeEnsemblesFitStepFunction(t *testing.T) {
	X, y := stepData(300, 2)
	for _, reg := range []Regressor{NewDecisionTree(), NewRandomForest(), NewGradientBoosting()} {
		t.Run(reg.Name(), func(t *testing.T) {
			require.NoError(t, reg.Fit(context.Background(), X, y))
			pred := reg.Predict([][]float64{{0.1, 0.5}, {0.9, 0.5}})
			assert.InDelta(t, 2.0, pred[0], 0.5)
			assert.InDelta(t, 8.0, pred[1], 0.5)
		})
	}
}

func TestMLPLearnsLinearTarget(t *testing.T) {
	X, y := linearData(300, 3)
	s := &StandardScaler{}
	s.Fit(X)
	Xs := s.Transform(X)

	m := NewMLP()
	m.Dropout = 0.1
	m.Epochs = 150
	require.NoError(t, m.Fit(context.Background(), Xs, y))
	assert.Greater(t, R2(y, m.Predict(Xs)), 0.8)
}

func TestFitRejectsBadShapes(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, NewDecisionTree().Fit(ctx, nil, nil), ErrEmptyDataset)
	assert.ErrorIs(t, NewBayesianRidge().Fit(ctx, [][]float64{{1}, {2}}, []float64{1}), ErrShapeMismatch)
}

func TestFitHonoursCancellation(t *testing.T) {
	X, y := linearData(50, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMLP().Fit(ctx, X, y), context.Canceled)
	assert.ErrorIs(t, NewGradientBoosting().Fit(ctx, X, y), context.Canceled)
}

func TestScalerKeepsConstantColumns(t *testing.T) {
	s := &StandardScaler{}
	s.Fit([][]float64{{1, 5}, {3, 5}})
	out := s.Transform([][]float64{{2, 5}})
	assert.Equal(t, 0.0, out[0][0])
	assert.Equal(t, 0.0, out[0][1])
	assert.Equal(t, 1.0, s.Scale[1])
}

func TestTrainedModelSurvivesGob(t *testing.T) {
	X, y := linearData(100, 5)
	m := NewPipeline(KindSkillDecay, []string{"a", "b"}, NewBayesianRidge())
	require.NoError(t, m.Fit(context.Background(), X, y))
	assert.Greater(t, m.TrainR2, 0.99)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(m))
	var got TrainedModel
	require.NoError(t, gob.NewDecoder(&buf).Decode(&got))

	want := m.Predict([][]float64{{4, 2}})[0]
	assert.InDelta(t, want, got.Predict([][]float64{got.Vector(map[string]float64{"a": 4, "b": 2})})[0], 1e-9)
	assert.Equal(t, "BayesianRidge", got.Regressor.Name())
}

func TestR2AndRMSE(t *testing.T) {
	y := []float64{1, 2, 3}
	assert.Equal(t, 1.0, R2(y, y))
	assert.Equal(t, 0.0, RMSE(y, y))
	assert.InDelta(t, math.Sqrt(1.0/3), RMSE(y, []float64{1, 2, 4}), 1e-12)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("fatigue-risk")
	require.NoError(t, err)
	assert.Equal(t, KindFatigueRisk, k)
	_, err = ParseKind("nope")
	assert.Error(t, err)
}
