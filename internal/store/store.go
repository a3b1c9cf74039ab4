// Package store persists trained pipelines, one artifact per model kind.
package store

import (
	"context"
	"errors"
	"time"

	"pilotpredict/internal/models"
)

//go:generate mockgen -source=store.go -destination=mock_store.go -package=store

var ErrNilModel = errors.New("store: nil model")

// Manifest describes a persisted artifact without decoding it.
type Manifest struct {
	Kind      models.Kind `json:"kind"`
	Version   int         `json:"version"`
	TrainedAt time.Time   `json:"trained_at"`
	Regressor string      `json:"regressor"`
	Columns   []string    `json:"columns"`
	Samples   int         `json:"samples"`
	TrainR2   float64     `json:"train_r2"`
	TrainRMSE float64     `json:"train_rmse"`
}

// Store loads and saves trained pipelines. Load reports ok=false, not an
// error, when a kind has never been trained.
type Store interface {
	Load(ctx context.Context, kind models.Kind) (*models.TrainedModel, bool, error)
	Save(ctx context.Context, kind models.Kind, m *models.TrainedModel) error
	List(ctx context.Context) ([]Manifest, error)
}

func manifestOf(m *models.TrainedModel) Manifest {
	mf := Manifest{
		Kind:      m.Kind,
		Version:   m.Version,
		TrainedAt: m.TrainedAt,
		Columns:   m.Columns,
		Samples:   m.Samples,
		TrainR2:   m.TrainR2,
		TrainRMSE: m.TrainRMSE,
	}
	if m.Regressor != nil {
		mf.Regressor = m.Regressor.Name()
	}
	return mf
}
