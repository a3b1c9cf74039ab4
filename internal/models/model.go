package models

import (
	"context"
	"encoding/gob"
	"errors"
)

var (
	ErrEmptyDataset  = errors.New("models: empty dataset")
	ErrShapeMismatch = errors.New("models: feature/target length mismatch")
)

// Regressor is a trainable estimator mapping feature rows to a continuous target.
type Regressor interface {
	Fit(ctx context.Context, X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
	Name() string
}

func init() {
	gob.Register(&BayesianRidge{})
	gob.Register(&DecisionTree{})
	gob.Register(&RandomForest{})
	gob.Register(&GradientBoosting{})
	gob.Register(&MLP{})
}

func checkXY(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return ErrEmptyDataset
	}
	if len(X) != len(y) {
		return ErrShapeMismatch
	}
	for _, row := range X {
		if len(row) != len(X[0]) {
			return ErrShapeMismatch
		}
	}
	return nil
}
