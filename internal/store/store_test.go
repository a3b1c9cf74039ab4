package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pilotpredict/internal/models"
)

func fitted(t *testing.T, kind models.Kind, slope float64) *models.TrainedModel {
	t.Helper()
	X := make([][]float64, 20)
	y := make([]float64, 20)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = slope * float64(i)
	}
	m := models.NewPipeline(kind, []string{"x"}, models.NewBayesianRidge())
	require.NoError(t, m.Fit(context.Background(), X, y))
	return m
}

func TestLoadMissingIsNotAnError(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)

	m, ok, err := s.Load(context.Background(), models.KindFatigueRisk)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestSaveThenLoadFromFreshStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := NewFileStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, models.KindSkillDecay, fitted(t, models.KindSkillDecay, 2)))
	require.NoError(t, s.Save(ctx, models.KindSkillDecay, fitted(t, models.KindSkillDecay, 3)))

	fresh, err := NewFileStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	m, ok, err := fresh.Load(ctx, models.KindSkillDecay)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, m.Version)
	assert.InDelta(t, 30.0, m.Predict([][]float64{{10}})[0], 0.1)

	again, _, _ := fresh.Load(ctx, models.KindSkillDecay)
	assert.Same(t, m, again)
}

func TestCorruptArtifactReturnsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "syllabus-module.gob"), []byte("garbage"), 0o644))
	s, err := NewFileStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, ok, err := s.Load(context.Background(), models.KindSyllabusModule)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestSaveRejectsNilModel(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Save(context.Background(), models.KindSkillDecay, nil), ErrNilModel)
}

func TestListReturnsManifests(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, models.KindFatigueRisk, fitted(t, models.KindFatigueRisk, 1)))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.KindFatigueRisk, list[0].Kind)
	assert.Equal(t, "BayesianRidge", list[0].Regressor)
	assert.Equal(t, 1, list[0].Version)
	assert.Equal(t, 20, list[0].Samples)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}
