// Package syllabus searches better per-module configurations and a
// prerequisite-respecting module order for whole syllabi.
package syllabus

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pilotpredict/internal/data"
	"pilotpredict/internal/models"
	"pilotpredict/internal/predictor"
	"pilotpredict/internal/store"
)

const materialChange = 1e-6

type Result struct {
	Model         string
	Fallback      bool
	Optimizations []data.SyllabusOptimization
	Skipped       []data.Skipped
}

type Engine struct {
	store   store.Store
	logger  *zap.Logger
	workers int
}

// New returns an engine scoring up to workers modules of a syllabus at once.
func New(st store.Store, logger *zap.Logger, workers int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Engine{store: st, logger: logger, workers: workers}
}

var heuristic = &predictor.Heuristic[ModuleInput]{Label: "ModuleBalanceHeuristic", Score: ModuleScore}

func (e *Engine) OptimizeSyllabus(ctx context.Context, syllabi []data.Syllabus) (Result, error) {
	p := predictor.Select(ctx, e.store, models.KindSyllabusModule, predictor.Single(moduleRow), heuristic, e.logger)
	res := Result{Model: p.Name(), Fallback: predictor.IsHeuristic(p), Optimizations: make([]data.SyllabusOptimization, 0, len(syllabi))}
	for i, s := range syllabi {
		opt, err := e.optimize(ctx, p, res.Fallback, s)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			res.Skipped = append(res.Skipped, data.Skipped{Index: i, ID: s.ID, Reason: err.Error()})
			continue
		}
		res.Optimizations = append(res.Optimizations, opt)
	}
	return res, nil
}

func (e *Engine) optimize(ctx context.Context, p predictor.Predictor[ModuleInput], useRule bool, s data.Syllabus) (data.SyllabusOptimization, error) {
	out := data.SyllabusOptimization{SyllabusID: s.ID, Name: s.Name}
	var modules []data.SyllabusModuleConfig
	ids := map[string]bool{}
	for i, m := range s.Modules {
		err := checkModule(m)
		if err == nil && ids[m.ID] {
			err = fmt.Errorf("duplicate module id %q", m.ID)
		}
		if err != nil {
			out.Skipped = append(out.Skipped, data.Skipped{Index: i, ID: m.ID, Reason: err.Error()})
			continue
		}
		ids[m.ID] = true
		modules = append(modules, m)
	}
	if len(modules) == 0 {
		return out, fmt.Errorf("syllabus has no valid modules")
	}

	results := make([]data.ModuleOptimization, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, m := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = optimizeModule(p, useRule, m, len(modules))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	order, broken := Sequence(modules)
	out.Modules = results
	out.BrokenPrerequisites = broken
	out.RecommendedSequence = make([]string, len(order))
	seqScore := 0.0
	for pos, idx := range order {
		m := modules[idx]
		out.RecommendedSequence[pos] = m.ID
		seqScore += clamp10(p.Predict(ModuleInput{Settings: results[idx].OptimizedConfig, Position: pos + 1, Prerequisites: len(m.Prerequisites)}))
	}
	out.SequenceEffectiveness = seqScore / float64(len(order)) * Satisfied(modules, order)

	for _, r := range results {
		out.CurrentEffectiveness += r.CurrentEffectiveness
		out.OptimizedEffectiveness += r.OptimizedEffectiveness
	}
	out.CurrentEffectiveness /= float64(len(results))
	out.OptimizedEffectiveness /= float64(len(results))
	out.OverallImprovement = improvement(out.CurrentEffectiveness, out.OptimizedEffectiveness)
	return out, nil
}

func checkModule(m data.SyllabusModuleConfig) error {
	switch {
	case m.ID == "":
		return fmt.Errorf("id is required")
	case m.Duration <= 0:
		return fmt.Errorf("duration must be positive")
	case m.Complexity < 0 || m.Complexity > 10:
		return fmt.Errorf("complexity must be within [0,10]")
	case m.TheoryPercentage < 0 || m.TheoryPercentage > 100 || m.PracticalPercentage < 0 || m.PracticalPercentage > 100:
		return fmt.Errorf("theory and practical percentages must be within [0,100]")
	case m.Position < 1:
		return fmt.Errorf("position must be at least 1")
	case m.AssessmentCount < 0:
		return fmt.Errorf("assessment_count must not be negative")
	}
	return nil
}

func settingsOf(m data.SyllabusModuleConfig) data.ModuleSettings {
	return data.ModuleSettings{
		Duration:            m.Duration,
		Complexity:          m.Complexity,
		TheoryPercentage:    m.TheoryPercentage,
		PracticalPercentage: m.PracticalPercentage,
		AssessmentCount:     m.AssessmentCount,
	}
}

func optimizeModule(p predictor.Predictor[ModuleInput], useRule bool, m data.SyllabusModuleConfig, modules int) data.ModuleOptimization {
	cur := settingsOf(m)
	in := ModuleInput{Settings: cur, Position: m.Position, Prerequisites: len(m.Prerequisites)}
	candidates := Grid(cur)
	if useRule {
		candidates = append(candidates, Rule(cur, m.Position, modules))
	}
	best, current, optimized := Search(p, in, candidates)
	return data.ModuleOptimization{
		ModuleID:               m.ID,
		Name:                   m.Name,
		CurrentConfig:          cur,
		OptimizedConfig:        best,
		CurrentEffectiveness:   current,
		OptimizedEffectiveness: optimized,
		Improvement:            improvement(current, optimized),
		Recommendations:        recommend(cur, best),
	}
}

func recommend(cur, best data.ModuleSettings) []string {
	var out []string
	if d := best.Duration - cur.Duration; math.Abs(d) > materialChange {
		out = append(out, fmt.Sprintf("%s duration from %.1f to %.1f", verb(d), cur.Duration, best.Duration))
	}
	if d := best.Complexity - cur.Complexity; math.Abs(d) > materialChange {
		out = append(out, fmt.Sprintf("%s complexity from %.1f to %.1f", verb(d), cur.Complexity, best.Complexity))
	}
	if math.Abs(best.TheoryPercentage-cur.TheoryPercentage) > materialChange {
		out = append(out, fmt.Sprintf("Adjust theory/practical split from %.0f/%.0f to %.0f/%.0f",
			cur.TheoryPercentage, cur.PracticalPercentage, best.TheoryPercentage, best.PracticalPercentage))
	}
	if d := best.AssessmentCount - cur.AssessmentCount; d != 0 {
		out = append(out, fmt.Sprintf("%s assessments from %d to %d", verb(float64(d)), cur.AssessmentCount, best.AssessmentCount))
	}
	if len(out) == 0 {
		out = append(out, "Module configuration is near optimal")
	}
	return out
}

func verb(delta float64) string {
	if delta > 0 {
		return "Increase"
	}
	return "Reduce"
}

// improvement is the relative gain in percent.
func improvement(cur, opt float64) float64 {
	if cur <= 0 {
		return 0
	}
	return (opt - cur) / cur * 100
}

func clamp10(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(10, v))
}
