package consistency

import (
	"context"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/store"
)

func series(id string, values map[string][]float64) data.PerformanceMetricSeries {
	n := 0
	for _, v := range values {
		n = len(v)
	}
	s := data.PerformanceMetricSeries{TraineeID: id, Sessions: make([]data.SessionMetrics, n)}
	for i := range s.Sessions {
		vals := map[string]float64{}
		for k, v := range values {
			vals[k] = v[i]
		}
		s.Sessions[i] = data.SessionMetrics{Date: "2026-02-" + strconv.Itoa(10+i), SessionID: "S" + strconv.Itoa(i), Values: vals}
	}
	return s
}

func TestZeroVarianceScoresTen(t *testing.T) {
	s := series("t", map[string][]float64{
		"landing_accuracy": {80, 80, 80, 80},
		"altitude_dev":     {0, 0, 0, 0},
	})
	assert.Equal(t, 10.0, Score(s))
	assert.Empty(t, Anomalies(s, Variance(s)))
}

func TestZeroMeanUsesStdDev(t *testing.T) {
	s := series("t", map[string][]float64{"drift": {-1, 1, -1, 1}})
	v := Variance(s)["drift"]
	assert.Equal(t, 0.0, v.Mean)
	assert.Equal(t, 1.0, v.CoefficientOfVariation)
}

func TestSingleOutlierIsOneHighAnomaly(t *testing.T) {
	vals := []float64{}
	for i := 0; i < 9; i++ {
		vals = append(vals, 10.1, 9.9)
	}
	vals = append(vals, 10.0, 13.0)
	flat := make([]float64, len(vals))
	for i := range flat {
		flat[i] = 50
	}
	s := series("t", map[string][]float64{"reaction": vals, "steady": flat})

	got := Anomalies(s, Variance(s))
	require.Len(t, got, 1)
	assert.Equal(t, "reaction", got[0].Metric)
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.Equal(t, 13.0, got[0].Value)
	assert.Equal(t, "S19", got[0].SessionID)
	assert.Greater(t, got[0].ZScore, 3.0)
}

func TestRecommendationCallsOutMetrics(t *testing.T) {
	stats := map[string]data.VarianceMetric{
		"a": {CoefficientOfVariation: 0.5},
		"b": {CoefficientOfVariation: 0.1},
		"c": {CoefficientOfVariation: 0.3},
	}
	rec := Recommendation(3, stats, []data.Anomaly{{Metric: "b", Severity: SeverityHigh}, {Metric: "c", Severity: SeverityMedium}})
	assert.Contains(t, rec, "highly inconsistent")
	assert.Contains(t, rec, "anomalies in: b.")
	assert.Contains(t, rec, "Most variable metrics: a, c.")
}

func TestAssessSkipsShortSeries(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindPerformanceConsistency).Return(nil, false, nil)

	short := series("short", map[string][]float64{"x": {1}})
	ok := data.GenerateSeries("ok", 12, 0.05, rand.New(rand.NewSource(1)))
	res, err := New(st, nil).AssessConsistency(context.Background(), []data.PerformanceMetricSeries{short, ok})
	require.NoError(t, err)
	assert.Equal(t, "CoefficientOfVariation", res.Model)
	require.Len(t, res.Assessments, 1)
	assert.Equal(t, "ok", res.Assessments[0].TraineeID)
	assert.Len(t, res.Assessments[0].VarianceMetrics, 4)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "short", res.Skipped[0].ID)
}

func TestAssessLearnedPathAveragesSessions(t *testing.T) {
	rows := data.GenerateConsistency(200, rand.New(rand.NewSource(2)))
	metrics := make([]map[string]float64, len(rows))
	frows := make([]features.Row, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		metrics[i] = r.Metrics
		frows[i] = features.Row(r.Metrics)
		y[i] = *r.ConsistencyScore
	}
	cols := features.MetricColumns(metrics)
	mlp := models.NewMLP()
	mlp.Epochs = 20
	m := models.NewPipeline(models.KindPerformanceConsistency, cols, mlp)
	require.NoError(t, m.Fit(context.Background(), features.Matrix(frows, cols), y))

	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindPerformanceConsistency).Return(m, true, nil)

	s := data.GenerateSeries("t", 6, 0.1, rand.New(rand.NewSource(3)))
	res, err := New(st, nil).AssessConsistency(context.Background(), []data.PerformanceMetricSeries{s})
	require.NoError(t, err)
	assert.Equal(t, "MLP", res.Model)
	require.Len(t, res.Assessments, 1)
	score := res.Assessments[0].ConsistencyScore
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 10.0)
}
