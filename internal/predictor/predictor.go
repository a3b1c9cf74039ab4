// Package predictor selects between a trained pipeline and a closed-form
// heuristic behind one scoring contract.
package predictor

import (
	"context"

	"go.uber.org/zap"

	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/store"
)

// Predictor scores one input. Learned and heuristic variants return values on
// the same scale so callers never branch on which one they hold.
type Predictor[T any] interface {
	Predict(in T) float64
	Name() string
}

// Learned lays the input's feature rows out in the model's column order and
// averages the per-row predictions.
type Learned[T any] struct {
	Model *models.TrainedModel
	Rows  func(T) []features.Row
}

func (p *Learned[T]) Predict(in T) float64 {
	rows := p.Rows(in)
	if len(rows) == 0 {
		return 0
	}
	X := features.Matrix(rows, p.Model.Columns)
	pred := p.Model.Predict(X)
	sum := 0.0
	for _, v := range pred {
		sum += v
	}
	return sum / float64(len(pred))
}

func (p *Learned[T]) Name() string {
	return p.Model.Regressor.Name()
}

// Heuristic wraps a closed-form scoring function.
type Heuristic[T any] struct {
	Label string
	Score func(T) float64
}

func (h *Heuristic[T]) Predict(in T) float64 { return h.Score(in) }

func (h *Heuristic[T]) Name() string { return h.Label }

// Select returns a Learned predictor when kind has a trained model and
// fallback otherwise. Load errors are logged and treated as absent.
func Select[T any](ctx context.Context, st store.Store, kind models.Kind, rows func(T) []features.Row, fallback *Heuristic[T], logger *zap.Logger) Predictor[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if st == nil {
		return fallback
	}
	m, ok, err := st.Load(ctx, kind)
	switch {
	case err != nil:
		logger.Warn("model unavailable, using heuristic", zap.String("kind", string(kind)), zap.String("heuristic", fallback.Label), zap.Error(err))
		return fallback
	case !ok:
		logger.Warn("model not trained, using heuristic", zap.String("kind", string(kind)), zap.String("heuristic", fallback.Label))
		return fallback
	}
	return &Learned[T]{Model: m, Rows: rows}
}

// Single adapts a one-row feature builder to the Rows signature.
func Single[T any](f func(T) features.Row) func(T) []features.Row {
	return func(in T) []features.Row { return []features.Row{f(in)} }
}

// IsHeuristic reports whether p is the fallback variant.
func IsHeuristic[T any](p Predictor[T]) bool {
	_, ok := p.(*Heuristic[T])
	return ok
}
