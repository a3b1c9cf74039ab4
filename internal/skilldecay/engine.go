// Package skilldecay forecasts skill mastery over time with a trained
// regression or, when none is available, Bayesian Knowledge Tracing.
package skilldecay

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/predictor"
	"pilotpredict/internal/store"
)

const (
	// MaxInterventionDays caps the forecast when a skill never crosses its
	// threshold (zero decay rate or zero threshold).
	MaxInterventionDays = 365
	curveTail           = 30
	warningDays         = 14
)

// DefaultBKT is used for parameters a request omits.
var DefaultBKT = data.BKTParams{PTransit: 0.1, PSlip: 0.1, PGuess: 0.2, PInit: 0.5, DecayRate: 0.01}

type Result struct {
	Model       string
	Fallback    bool
	Predictions []data.SkillDecayPrediction
	Skipped     []data.Skipped
}

type Engine struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func New(st store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger, now: time.Now}
}

var heuristic = &predictor.Heuristic[data.SkillObservation]{Label: "BayesianKnowledgeTracing", Score: Mastery}

// PredictDecay scores every skill. Skills with inconsistent parameters are
// skipped and reported.
func (e *Engine) PredictDecay(ctx context.Context, skills []data.SkillObservation) (Result, error) {
	p := predictor.Select(ctx, e.store, models.KindSkillDecay, predictor.Single(features.SkillObservation), heuristic, e.logger)
	res := Result{Model: p.Name(), Fallback: predictor.IsHeuristic(p), Predictions: make([]data.SkillDecayPrediction, 0, len(skills))}
	today := e.now().UTC().Truncate(24 * time.Hour)
	for i, s := range skills {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := check(s); err != nil {
			res.Skipped = append(res.Skipped, data.Skipped{Index: i, ID: s.SkillID, Reason: err.Error()})
			continue
		}
		current := clamp01(p.Predict(s))
		days := DaysToIntervention(current, s.PerformanceThreshold, s.BKT.DecayRate)
		res.Predictions = append(res.Predictions, data.SkillDecayPrediction{
			SkillID:                  s.SkillID,
			SkillName:                s.SkillName,
			CurrentPerformance:       current,
			DaysToIntervention:       days,
			RiskLevel:                riskLevel(days),
			RecommendedRefresherDate: today.AddDate(0, 0, days).Format(time.DateOnly),
			DecayCurve:               Curve(current, s.BKT.DecayRate, days+curveTail),
		})
	}
	return res, nil
}

func check(s data.SkillObservation) error {
	b := s.BKT
	probs := []struct {
		name string
		v    float64
	}{{"p_transit", b.PTransit}, {"p_slip", b.PSlip}, {"p_guess", b.PGuess}, {"p_init", b.PInit}}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 || math.IsNaN(p.v) {
			return fmt.Errorf("%s must be within [0,1]", p.name)
		}
	}
	if b.PSlip+b.PGuess >= 1 {
		return fmt.Errorf("p_slip + p_guess must be below 1")
	}
	if b.DecayRate < 0 || b.DecayRate >= 1 {
		return fmt.Errorf("decay_rate must be within [0,1)")
	}
	if s.DaysSinceTraining < 0 {
		return fmt.Errorf("days_since_training must not be negative")
	}
	return nil
}

// Update applies one observed attempt followed by the knowledge transit.
func Update(p float64, correct bool, b data.BKTParams) float64 {
	var num, den float64
	if correct {
		num = p * (1 - b.PSlip)
		den = num + (1-p)*b.PGuess
	} else {
		num = p * b.PSlip
		den = num + (1-p)*(1-b.PGuess)
	}
	if den > 0 {
		p = num / den
	}
	return p + (1-p)*b.PTransit
}

// Mastery runs the observation history through BKT and decays the result
// over the days since training.
func Mastery(s data.SkillObservation) float64 {
	p := s.BKT.PInit
	for _, o := range s.Observations {
		p = Update(p, o.Correct, s.BKT)
	}
	return clamp01(p * math.Pow(1-s.BKT.DecayRate, s.DaysSinceTraining))
}

// DaysToIntervention is the whole number of days until current decays to
// threshold, or 0 when it is already there.
func DaysToIntervention(current, threshold, decayRate float64) int {
	if current <= threshold {
		return 0
	}
	if decayRate <= 0 || threshold <= 0 {
		return MaxInterventionDays
	}
	d := math.Floor(math.Log(threshold/current) / math.Log(1-decayRate))
	switch {
	case math.IsNaN(d) || d < 0:
		return 0
	case d > MaxInterventionDays:
		return MaxInterventionDays
	}
	return int(d)
}

// Curve projects performance for days 0..lastDay inclusive.
func Curve(current, decayRate float64, lastDay int) []data.DecayPoint {
	if lastDay < 0 {
		lastDay = 0
	}
	out := make([]data.DecayPoint, lastDay+1)
	for d := range out {
		out[d] = data.DecayPoint{Day: d, Performance: current * math.Pow(1-decayRate, float64(d))}
	}
	return out
}

func riskLevel(days int) string {
	switch {
	case days == 0:
		return "critical"
	case days <= warningDays:
		return "warning"
	}
	return "ok"
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
