package syllabus

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/predictor"
	"pilotpredict/internal/store"
)

func module(id string, pos int, prereqs ...string) data.SyllabusModuleConfig {
	return data.SyllabusModuleConfig{
		ID:                  id,
		Name:                "Module " + id,
		Duration:            3,
		Complexity:          5,
		TheoryPercentage:    70,
		PracticalPercentage: 30,
		Position:            pos,
		Prerequisites:       prereqs,
		AssessmentCount:     1,
	}
}

func ids(modules []data.SyllabusModuleConfig, order []int) []string {
	out := make([]string, len(order))
	for i, idx := range order {
		out[i] = modules[idx].ID
	}
	return out
}

func assertEdgesSatisfied(t *testing.T, modules []data.SyllabusModuleConfig, seq []string, broken []data.BrokenPrerequisite) {
	t.Helper()
	at := map[string]int{}
	for i, id := range seq {
		at[id] = i
	}
	skip := map[[2]string]bool{}
	for _, b := range broken {
		skip[[2]string{b.ModuleID, b.PrerequisiteID}] = true
	}
	for _, m := range modules {
		for _, pre := range m.Prerequisites {
			if _, ok := at[pre]; !ok || skip[[2]string{m.ID, pre}] {
				continue
			}
			assert.Less(t, at[pre], at[m.ID], "%s must precede %s", pre, m.ID)
		}
	}
}

func TestSequenceKeepsDeclaredOrderWithoutEdges(t *testing.T) {
	mods := []data.SyllabusModuleConfig{module("c", 3), module("a", 1), module("b", 2)}
	order, broken := Sequence(mods)
	assert.Empty(t, broken)
	assert.Equal(t, []string{"a", "b", "c"}, ids(mods, order))
}

func TestSequenceRespectsPrerequisites(t *testing.T) {
	mods := []data.SyllabusModuleConfig{
		module("nav", 1, "ifr"),
		module("basic", 2),
		module("ifr", 3, "basic"),
		module("checkride", 4, "nav", "ifr"),
	}
	order, broken := Sequence(mods)
	assert.Empty(t, broken)
	seq := ids(mods, order)
	assert.Equal(t, []string{"basic", "ifr", "nav", "checkride"}, seq)
	assertEdgesSatisfied(t, mods, seq, nil)
}

func TestSequenceBreaksCyclesDeterministically(t *testing.T) {
	mods := []data.SyllabusModuleConfig{
		module("a", 1, "c"),
		module("b", 2, "a"),
		module("c", 3, "b"),
		module("d", 4, "a", "ghost"),
		module("e", 5, "e"),
	}
	first, broken := Sequence(mods)
	require.Len(t, first, len(mods))

	reasons := map[string]string{}
	for _, b := range broken {
		reasons[b.ModuleID+"<-"+b.PrerequisiteID] = b.Reason
	}
	assert.Equal(t, ReasonUnknown, reasons["d<-ghost"])
	assert.Equal(t, ReasonCycle, reasons["e<-e"])
	cycles := 0
	for _, r := range reasons {
		if r == ReasonCycle {
			cycles++
		}
	}
	assert.Equal(t, 2, cycles, "one edge of the a-b-c cycle plus the self loop")
	assertEdgesSatisfied(t, mods, ids(mods, first), broken)

	for i := 0; i < 5; i++ {
		again, _ := Sequence(mods)
		assert.Equal(t, first, again)
	}
}

func TestSatisfied(t *testing.T) {
	mods := []data.SyllabusModuleConfig{module("a", 1), module("b", 2, "a")}
	assert.Equal(t, 1.0, Satisfied(mods, []int{0, 1}))
	assert.Equal(t, 0.0, Satisfied(mods, []int{1, 0}))
	assert.Equal(t, 1.0, Satisfied([]data.SyllabusModuleConfig{module("x", 1)}, []int{0}))
}

func TestGridHasTwentySevenCandidatesInTheMiddle(t *testing.T) {
	cur := data.ModuleSettings{Duration: 3, Complexity: 4, TheoryPercentage: 50, PracticalPercentage: 50, AssessmentCount: 2}
	g := Grid(cur)
	assert.Len(t, g, 27)
	assert.Equal(t, cur, g[0])
	for _, c := range g {
		assert.Greater(t, c.Duration, 0.0)
		assert.InDelta(t, 100, c.TheoryPercentage+c.PracticalPercentage, 1e-9)
	}
}

func TestGridStaysInRangeAtEdges(t *testing.T) {
	cur := data.ModuleSettings{Duration: 0.5, TheoryPercentage: 100, PracticalPercentage: 0, AssessmentCount: 0}
	for _, c := range Grid(cur) {
		assert.Greater(t, c.Duration, 0.0)
		assert.GreaterOrEqual(t, c.AssessmentCount, 0)
		assert.LessOrEqual(t, c.TheoryPercentage, 100.0)
	}
}

func TestRule(t *testing.T) {
	cur := data.ModuleSettings{Duration: 4.4, Complexity: 9, TheoryPercentage: 80, PracticalPercentage: 20, AssessmentCount: 1}
	got := Rule(cur, 1, 4)
	assert.Equal(t, 50.0, got.TheoryPercentage)
	assert.Equal(t, 50.0, got.PracticalPercentage)
	assert.Equal(t, 4, got.AssessmentCount)
	assert.Equal(t, 2.5, got.Complexity)

	ok := data.ModuleSettings{Duration: 1, Complexity: 3, TheoryPercentage: 55, PracticalPercentage: 45, AssessmentCount: 2}
	assert.Equal(t, ok, Rule(ok, 2, 4))
}

func TestSearchNeverWorsens(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	worst := &predictor.Heuristic[ModuleInput]{Label: "prefers-current", Score: func(in ModuleInput) float64 {
		if in.Settings.Duration == 2 {
			return 9
		}
		return 1
	}}
	in := ModuleInput{Settings: data.ModuleSettings{Duration: 2, TheoryPercentage: 50, PracticalPercentage: 50}}
	best, cur, opt := Search(worst, in, Grid(in.Settings))
	assert.Equal(t, in.Settings, best)
	assert.Equal(t, cur, opt)

	for i := 0; i < 200; i++ {
		s := data.ModuleSettings{
			Duration:            0.5 + rng.Float64()*6,
			Complexity:          rng.Float64() * 10,
			TheoryPercentage:    rng.Float64() * 100,
			AssessmentCount:     rng.Intn(5),
		}
		s.PracticalPercentage = 100 - s.TheoryPercentage
		in := ModuleInput{Settings: s, Position: 1 + rng.Intn(5)}
		_, cur, opt := Search(heuristic, in, append(Grid(s), Rule(s, in.Position, 5)))
		assert.GreaterOrEqual(t, opt, cur)
	}
}

func TestOptimizeSyllabusHeuristic(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindSyllabusModule).Return(nil, false, nil)

	bad := module("bad", 9)
	bad.Duration = 0
	syl := data.Syllabus{ID: "ppl", Name: "Private pilot", Modules: []data.SyllabusModuleConfig{
		module("solo", 3, "circuits"),
		module("ground", 1),
		module("circuits", 2, "ground"),
		bad,
		module("ground", 4),
	}}
	res, err := New(st, nil, 2).OptimizeSyllabus(context.Background(), []data.Syllabus{syl, {ID: "empty"}})
	require.NoError(t, err)
	assert.Equal(t, "ModuleBalanceHeuristic", res.Model)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "empty", res.Skipped[0].ID)

	require.Len(t, res.Optimizations, 1)
	opt := res.Optimizations[0]
	assert.Equal(t, []string{"ground", "circuits", "solo"}, opt.RecommendedSequence)
	require.Len(t, opt.Skipped, 2)
	assert.Equal(t, 3, opt.Skipped[0].Index)
	assert.Equal(t, 4, opt.Skipped[1].Index)
	assert.Empty(t, opt.BrokenPrerequisites)
	assert.GreaterOrEqual(t, opt.OptimizedEffectiveness, opt.CurrentEffectiveness)
	assert.Greater(t, opt.OverallImprovement, 0.0)
	assert.Greater(t, opt.SequenceEffectiveness, 0.0)
	for _, m := range opt.Modules {
		assert.GreaterOrEqual(t, m.OptimizedEffectiveness, m.CurrentEffectiveness)
		assert.NotEmpty(t, m.Recommendations)
	}
	assert.Equal(t, 50.0, opt.Modules[0].OptimizedConfig.TheoryPercentage)
}

func TestOptimizeSyllabusLearned(t *testing.T) {
	rows := data.GenerateModules(300, rand.New(rand.NewSource(4)))
	frows := make([]features.Row, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		frows[i] = features.Module(*r.Duration, *r.Complexity, *r.TheoryPercentage, *r.PracticalPercentage, *r.Position, *r.PrerequisiteCount, *r.AssessmentCount)
		y[i] = *r.Effectiveness
	}
	m := models.NewPipeline(models.KindSyllabusModule, features.ModuleColumns, models.NewGradientBoosting())
	require.NoError(t, m.Fit(context.Background(), features.Matrix(frows, features.ModuleColumns), y))

	ctrl := gomock.NewController(t)
	st := store.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any(), models.KindSyllabusModule).Return(m, true, nil)

	syl := data.Syllabus{ID: "cpl", Modules: []data.SyllabusModuleConfig{module("a", 1), module("b", 2, "a")}}
	res, err := New(st, nil, 0).OptimizeSyllabus(context.Background(), []data.Syllabus{syl})
	require.NoError(t, err)
	assert.Equal(t, "GradientBoosting", res.Model)
	opt := res.Optimizations[0]
	assert.GreaterOrEqual(t, opt.OptimizedEffectiveness, opt.CurrentEffectiveness)
	for _, mo := range opt.Modules {
		assert.Equal(t, mo.CurrentConfig.Complexity, mo.OptimizedConfig.Complexity, "complexity is only changed by the fallback rule")
	}
}

func TestOptimizeSyllabusHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	syl := data.Syllabus{ID: "x", Modules: []data.SyllabusModuleConfig{module("a", 1)}}
	_, err := New(nil, nil, 1).OptimizeSyllabus(ctx, []data.Syllabus{syl})
	assert.ErrorIs(t, err, context.Canceled)
}
