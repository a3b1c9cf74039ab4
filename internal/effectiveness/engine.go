// Package effectiveness scores training program configurations with a
// confidence interval and improvement recommendations.
package effectiveness

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/predictor"
	"pilotpredict/internal/store"
)

// DefaultDataQuality is assumed when a program does not state one.
const DefaultDataQuality = 0.5

type Result struct {
	Model       string
	Fallback    bool
	Predictions []data.EffectivenessPrediction
	Skipped     []data.Skipped
}

type Engine struct {
	store  store.Store
	logger *zap.Logger
}

func New(st store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger}
}

var heuristic = &predictor.Heuristic[data.TrainingProgramConfig]{Label: "WeightedProgramHeuristic", Score: Score}

func (e *Engine) PredictEffectiveness(ctx context.Context, programs []data.TrainingProgramConfig) (Result, error) {
	p := predictor.Select(ctx, e.store, models.KindTrainingEffectiveness, predictor.Single(features.Program), heuristic, e.logger)
	res := Result{Model: p.Name(), Fallback: predictor.IsHeuristic(p), Predictions: make([]data.EffectivenessPrediction, 0, len(programs))}
	for i, prog := range programs {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := check(prog); err != nil {
			res.Skipped = append(res.Skipped, data.Skipped{Index: i, ID: prog.ProgramID, Reason: err.Error()})
			continue
		}
		score := clamp10(p.Predict(prog))
		res.Predictions = append(res.Predictions, data.EffectivenessPrediction{
			ProgramID:          prog.ProgramID,
			EffectivenessScore: score,
			ConfidenceInterval: Interval(score, prog.DataQuality),
			Recommendations:    Recommendations(prog, score),
		})
	}
	return res, nil
}

func check(p data.TrainingProgramConfig) error {
	if _, ok := data.MethodMultiplier[p.Method]; !ok {
		return fmt.Errorf("unknown training_method %q", p.Method)
	}
	switch {
	case p.DurationWeeks <= 0:
		return fmt.Errorf("duration must be positive")
	case p.SessionsPerWeek < 0 || p.InstructorExperience < 0 || p.TraineeExperience < 0:
		return fmt.Errorf("sessions and experience must not be negative")
	case p.Complexity < 0 || p.Complexity > 1:
		return fmt.Errorf("complexity must be within [0,1]")
	case p.DataQuality < 0 || p.DataQuality > 1:
		return fmt.Errorf("data_quality must be within [0,1]")
	}
	return nil
}

func Score(p data.TrainingProgramConfig) float64 {
	base := 0.25*math.Min(p.DurationWeeks/12, 1) +
		0.20*math.Min(p.SessionsPerWeek/5, 1) +
		0.20*math.Min(p.InstructorExperience/10, 1) +
		0.15*math.Min(p.TraineeExperience/5, 1) +
		0.20*(1-p.Complexity)
	return clamp10(10 * base * data.MethodMultiplier[p.Method])
}

// Interval is score ± 1.96σ with σ = 0.5·(2-quality), clamped to [0,10].
func Interval(score, quality float64) data.ConfidenceInterval {
	sigma := 0.5 * (2 - quality)
	return data.ConfidenceInterval{
		LowerBound:    clamp10(score - 1.96*sigma),
		UpperBound:    clamp10(score + 1.96*sigma),
		StandardError: sigma,
	}
}

func Recommendations(p data.TrainingProgramConfig, score float64) []string {
	var out []string
	switch {
	case score < 4:
		out = append(out, "Program effectiveness is low; restructure the program before the next intake")
	case score < 7:
		out = append(out, "Program effectiveness is moderate; targeted adjustments are recommended")
	default:
		out = append(out, "Program effectiveness is high; maintain the current structure")
	}
	if p.Method == data.MethodClassroom || p.Method == data.MethodCBT {
		out = append(out, "Add simulator sessions to reinforce practical skills")
	}
	if p.Complexity > 0.7 {
		out = append(out, "Extend the program duration to absorb the high complexity")
	}
	if p.TraineeExperience < 1 {
		out = append(out, "Include foundational modules for inexperienced trainees")
	}
	if p.InstructorExperience < 3 {
		out = append(out, "Pair junior instructors with a mentor")
	}
	if p.SessionsPerWeek < 2 {
		out = append(out, "Increase session frequency to at least two per week")
	}
	return out
}

func clamp10(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(10, v))
}
