package models

import (
	"context"
	"time"
)

// TrainedModel is a fitted (scaler, regressor) pair plus the feature column
// order it expects. Once published by the store it is never mutated.
type TrainedModel struct {
	Kind      Kind
	Version   int
	TrainedAt time.Time
	Columns   []string
	Scaler    *StandardScaler
	Regressor Regressor
	Samples   int
	TrainR2   float64
	TrainRMSE float64
}

func NewPipeline(kind Kind, columns []string, reg Regressor) *TrainedModel {
	return &TrainedModel{Kind: kind, Columns: columns, Scaler: &StandardScaler{}, Regressor: reg}
}

func (m *TrainedModel) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	if len(X[0]) != len(m.Columns) {
		return ErrShapeMismatch
	}
	m.Scaler.Fit(X)
	if err := m.Regressor.Fit(ctx, m.Scaler.Transform(X), y); err != nil {
		return err
	}
	pred := m.Predict(X)
	m.Samples = len(X)
	m.TrainR2 = R2(y, pred)
	m.TrainRMSE = RMSE(y, pred)
	m.TrainedAt = time.Now().UTC()
	return nil
}

func (m *TrainedModel) Predict(X [][]float64) []float64 {
	return m.Regressor.Predict(m.Scaler.Transform(X))
}

// Vector lays out a named feature row in column order; absent columns are zero.
func (m *TrainedModel) Vector(row map[string]float64) []float64 {
	v := make([]float64, len(m.Columns))
	for i, c := range m.Columns {
		v[i] = row[c]
	}
	return v
}
