// Package training fits and persists model pipelines, one job per model
// kind at a time.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"pilotpredict/internal/metrics"
	"pilotpredict/internal/models"
	"pilotpredict/internal/store"
)

// MinTrainingRows is the smallest dataset a model is fitted on.
const MinTrainingRows = 10

var ErrTrainingData = errors.New("invalid training data")

type Trainer struct {
	store   store.Store
	logger  *zap.Logger
	metrics *metrics.Manager
	sem     *semaphore.Weighted
	timeout time.Duration
	// locks holds a 1-slot channel per kind; a job owns its kind while it
	// holds the slot and later jobs queue on the send.
	locks map[models.Kind]chan struct{}
	// newRegressor is swapped by tests for faster estimators.
	newRegressor func(models.Kind) models.Regressor
}

type Option func(*Trainer)

func WithMetrics(m *metrics.Manager) Option {
	return func(t *Trainer) { t.metrics = m }
}

func WithTimeout(d time.Duration) Option {
	return func(t *Trainer) { t.timeout = d }
}

// WithWorkers bounds concurrent jobs across all kinds.
func WithWorkers(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

func New(st store.Store, logger *zap.Logger, opts ...Option) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Trainer{
		store:        st,
		logger:       logger,
		sem:          semaphore.NewWeighted(1),
		locks:        make(map[models.Kind]chan struct{}, len(models.Kinds())),
		newRegressor: models.NewRegressor,
	}
	for _, k := range models.Kinds() {
		t.locks[k] = make(chan struct{}, 1)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train decodes rows for kind, fits a pipeline and saves it. Callers for the
// same kind wait their turn; a failed job leaves the stored model untouched.
func (t *Trainer) Train(ctx context.Context, kind models.Kind, rows []json.RawMessage) (*models.TrainedModel, error) {
	lock, ok := t.locks[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrTrainingData, kind)
	}
	job := uuid.NewString()
	log := t.logger.With(zap.String("job_id", job), zap.String("kind", string(kind)))

	t.metrics.TrainingQueued(string(kind), 1)
	select {
	case lock <- struct{}{}:
		t.metrics.TrainingQueued(string(kind), -1)
	case <-ctx.Done():
		t.metrics.TrainingQueued(string(kind), -1)
		return nil, ctx.Err()
	}
	defer func() { <-lock }()

	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.sem.Release(1)

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	m, err := t.fit(ctx, kind, rows)
	t.metrics.ObserveTraining(string(kind), time.Since(start), err)
	if err != nil {
		log.Warn("training failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	t.metrics.SetModel(string(kind), m.Version, m.TrainR2)
	log.Info("training finished",
		zap.Int("version", m.Version),
		zap.Int("samples", m.Samples),
		zap.Float64("train_r2", m.TrainR2),
		zap.Float64("train_rmse", m.TrainRMSE),
		zap.Duration("elapsed", time.Since(start)))
	return m, nil
}

func (t *Trainer) fit(ctx context.Context, kind models.Kind, rows []json.RawMessage) (*models.TrainedModel, error) {
	ds, err := BuildDataset(kind, rows)
	if err != nil {
		return nil, err
	}
	m := models.NewPipeline(kind, ds.Columns, t.newRegressor(kind))
	if err := m.Fit(ctx, ds.X, ds.Y); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fit %s: %w", kind, err)
	}
	if err := t.store.Save(ctx, kind, m); err != nil {
		return nil, fmt.Errorf("save %s: %w", kind, err)
	}
	return m, nil
}
