package skilldecay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/store"
)

func skill(id string) data.SkillObservation {
	return data.SkillObservation{
		SkillID:              id,
		SkillName:            "Engine failure after V1",
		DaysSinceTraining:    10,
		PracticeFrequency:    2,
		InitialPerformance:   0.9,
		Complexity:           0.6,
		PerformanceThreshold: 0.7,
		BKT:                  data.BKTParams{PTransit: 0.1, PSlip: 0.1, PGuess: 0.2, PInit: 0.6, DecayRate: 0.01},
		Observations:         []data.Observation{{Correct: true}, {Correct: true}, {Correct: false}},
	}
}

func TestDaysToInterventionScenario(t *testing.T) {
	assert.Equal(t, 25, DaysToIntervention(0.9, 0.7, 0.01))
}

func TestDaysToInterventionZeroAtOrBelowThreshold(t *testing.T) {
	assert.Equal(t, 0, DaysToIntervention(0.7, 0.7, 0.05))
	assert.Equal(t, 0, DaysToIntervention(0.5, 0.7, 0.05))
}

func TestDaysToInterventionGrowsAsThresholdFalls(t *testing.T) {
	prev := -1
	for th := 0.85; th > 0.05; th -= 0.05 {
		d := DaysToIntervention(0.9, th, 0.02)
		assert.GreaterOrEqual(t, d, prev, "threshold %.2f", th)
		prev = d
	}
}

func TestDaysToInterventionGuards(t *testing.T) {
	assert.Equal(t, MaxInterventionDays, DaysToIntervention(0.9, 0.7, 0))
	assert.Equal(t, MaxInterventionDays, DaysToIntervention(0.9, 0, 0.01))
	assert.Equal(t, MaxInterventionDays, DaysToIntervention(0.9, 1e-9, 0.01))
}

func TestCurveIsNonIncreasing(t *testing.T) {
	for _, rate := range []float64{0.001, 0.01, 0.2, 0.9} {
		c := Curve(0.95, rate, 60)
		require.Len(t, c, 61)
		assert.Equal(t, 0.95, c[0].Performance)
		for i := 1; i < len(c); i++ {
			assert.LessOrEqual(t, c[i].Performance, c[i-1].Performance)
		}
	}
}

func TestIncorrectNeverBeatsCorrect(t *testing.T) {
	b := data.BKTParams{PTransit: 0.15, PSlip: 0.1, PGuess: 0.25}
	for p := 0.0; p <= 1.0; p += 0.1 {
		assert.LessOrEqual(t, Update(p, false, b), Update(p, true, b)+1e-12)
	}
}

func TestMasteryStaysAProbability(t *testing.T) {
	s := skill("s")
	s.BKT.PTransit = 1
	s.DaysSinceTraining = 0
	assert.InDelta(t, 1.0, Mastery(s), 1e-12)
	s.BKT.PInit, s.BKT.PTransit = 0, 0
	s.Observations = nil
	assert.Equal(t, 0.0, Mastery(s))
}

func TestPredictDecayHeuristicPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindSkillDecay).Return(nil, false, nil)

	e := New(st, zaptest.NewLogger(t))
	e.now = func() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) }

	bad := skill("bad")
	bad.BKT.PSlip, bad.BKT.PGuess = 0.6, 0.5
	res, err := e.PredictDecay(context.Background(), []data.SkillObservation{skill("a"), bad})
	require.NoError(t, err)

	assert.Equal(t, "BayesianKnowledgeTracing", res.Model)
	require.Len(t, res.Predictions, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, "bad", res.Skipped[0].ID)

	p := res.Predictions[0]
	assert.InDelta(t, Mastery(skill("a")), p.CurrentPerformance, 1e-12)
	assert.Len(t, p.DecayCurve, p.DaysToIntervention+31)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, p.DaysToIntervention).Format(time.DateOnly)
	assert.Equal(t, want, p.RecommendedRefresherDate)
}

func TestPredictDecayLearnedPathClamps(t *testing.T) {
	X := make([][]float64, 20)
	y := make([]float64, 20)
	for i := range X {
		X[i] = []float64{float64(i), 1, 0.9, 0.5}
		y[i] = 2 + float64(i)
	}
	m := models.NewPipeline(models.KindSkillDecay, features.SkillDecayColumns, models.NewBayesianRidge())
	require.NoError(t, m.Fit(context.Background(), X, y))

	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindSkillDecay).Return(m, true, nil)

	res, err := New(st, nil).PredictDecay(context.Background(), []data.SkillObservation{skill("a")})
	require.NoError(t, err)
	assert.Equal(t, "BayesianRidge", res.Model)
	assert.Equal(t, 1.0, res.Predictions[0].CurrentPerformance)
	assert.Equal(t, "ok", res.Predictions[0].RiskLevel)
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, "critical", riskLevel(0))
	assert.Equal(t, "warning", riskLevel(14))
	assert.Equal(t, "ok", riskLevel(15))
}
