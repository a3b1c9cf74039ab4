package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/store"
)

func linearModel(t *testing.T) *models.TrainedModel {
	t.Helper()
	X := make([][]float64, 30)
	y := make([]float64, 30)
	for i := range X {
		a, b := float64(i), float64(i%5)
		X[i] = []float64{a, b}
		y[i] = 2*a + b
	}
	m := models.NewPipeline(models.KindSkillDecay, []string{"a", "b"}, models.NewBayesianRidge())
	require.NoError(t, m.Fit(context.Background(), X, y))
	return m
}

var constant = &Heuristic[float64]{Label: "Constant", Score: func(float64) float64 { return 7 }}

func rowsOf(v float64) []features.Row {
	return []features.Row{{"a": v}, {"a": v + 2, "b": 1}}
}

func TestSelectUsesLearnedModelWhenPresent(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindSkillDecay).Return(linearModel(t), true, nil)

	p := Select(context.Background(), st, models.KindSkillDecay, rowsOf, constant, zaptest.NewLogger(t))
	assert.Equal(t, "BayesianRidge", p.Name())
	// (2*3 + 0 + 2*5 + 1) / 2
	assert.InDelta(t, 8.5, p.Predict(3), 0.05)
}

func TestSelectFallsBackWhenAbsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindFatigueRisk).Return(nil, false, nil)

	p := Select(context.Background(), st, models.KindFatigueRisk, rowsOf, constant, zaptest.NewLogger(t))
	assert.Equal(t, "Constant", p.Name())
	assert.Equal(t, 7.0, p.Predict(100))
}

func TestSelectFallsBackOnLoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("corrupt"))

	p := Select(context.Background(), st, models.KindFatigueRisk, rowsOf, constant, nil)
	assert.Equal(t, "Constant", p.Name())
}

func TestLearnedWithNoRowsScoresZero(t *testing.T) {
	p := &Learned[float64]{Model: linearModel(t), Rows: func(float64) []features.Row { return nil }}
	assert.Equal(t, 0.0, p.Predict(1))
}

func TestSingle(t *testing.T) {
	rows := Single(func(v float64) features.Row { return features.Row{"a": v} })(4)
	require.Len(t, rows, 1)
	assert.Equal(t, 4.0, rows[0]["a"])
}
