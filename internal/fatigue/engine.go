// Package fatigue scores duty schedules for fatigue risk and proposes
// mitigations.
package fatigue

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

const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
	RiskSevere   = "Severe"
)

type Result struct {
	Model       string
	Fallback    bool
	Predictions []data.FatiguePrediction
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

var heuristic = &predictor.Heuristic[data.DutySchedule]{Label: "CircadianHeuristic", Score: Score}

func (e *Engine) PredictFatigue(ctx context.Context, schedules []data.DutySchedule) (Result, error) {
	p := predictor.Select(ctx, e.store, models.KindFatigueRisk, predictor.Single(features.Fatigue), heuristic, e.logger)
	res := Result{Model: p.Name(), Fallback: predictor.IsHeuristic(p), Predictions: make([]data.FatiguePrediction, 0, len(schedules))}
	for i, s := range schedules {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := check(s); err != nil {
			res.Skipped = append(res.Skipped, data.Skipped{Index: i, ID: s.ScheduleID, Reason: err.Error()})
			continue
		}
		score := clamp10(p.Predict(s))
		cat := Category(score)
		res.Predictions = append(res.Predictions, data.FatiguePrediction{
			ScheduleID:          s.ScheduleID,
			TraineeID:           s.TraineeID,
			FatigueScore:        score,
			RiskCategory:        cat,
			ContributingFactors: Factors(s),
			Mitigations:         Mitigations(s, cat),
		})
	}
	return res, nil
}

func check(s data.DutySchedule) error {
	switch {
	case s.DutyHours24h < 0 || s.DutyHours24h > 24:
		return fmt.Errorf("duty_hours_24h must be within [0,24]")
	case s.DutyHours7d < 0 || s.DutyHours7d > 168:
		return fmt.Errorf("duty_hours_7d must be within [0,168]")
	case s.HoursSinceRest < 0:
		return fmt.Errorf("hours_since_rest must not be negative")
	case s.TimeOfDay < 0 || s.TimeOfDay >= 24:
		return fmt.Errorf("time_of_day must be within [0,24)")
	case s.TimezoneChanges3d < 0:
		return fmt.Errorf("timezone_changes_3d must not be negative")
	case s.SleepQuality < 0 || s.SleepQuality > 1:
		return fmt.Errorf("sleep_quality must be within [0,1]")
	}
	return nil
}

// Circadian is 1.5 at 04:00, the circadian low, and 0.5 at 16:00.
func Circadian(timeOfDay float64) float64 {
	return 1 + 0.5*math.Cos((timeOfDay-4)*math.Pi/12)
}

// Factors returns each weighted term of the heuristic score on the 0-10 scale.
func Factors(s data.DutySchedule) map[string]float64 {
	return map[string]float64{
		"duty_hours_24h":      s.DutyHours24h / 24 * 0.3 * 10,
		"duty_hours_7d":       s.DutyHours7d / 168 * 0.2 * 10,
		"hours_since_rest":    s.HoursSinceRest / 24 * 0.2 * 10,
		"circadian":           Circadian(s.TimeOfDay) * 0.15 * 10,
		"timezone_changes_3d": float64(s.TimezoneChanges3d) * 0.1 * 0.1 * 10,
		"sleep_quality":       (1 - s.SleepQuality) * 0.05 * 10,
	}
}

func Score(s data.DutySchedule) float64 {
	f := Factors(s)
	return clamp10(f["duty_hours_24h"] + f["duty_hours_7d"] + f["hours_since_rest"] + f["circadian"] + f["timezone_changes_3d"] + f["sleep_quality"])
}

// Category maps a 0-10 score onto contiguous bands.
func Category(score float64) string {
	switch {
	case score < 3:
		return RiskLow
	case score < 6:
		return RiskModerate
	case score < 8:
		return RiskHigh
	}
	return RiskSevere
}

var (
	baseMitigations = []string{
		"Maintain hydration and regular meals during duty",
		"Report fatigue concerns to the duty instructor before the session",
	}
	tierMitigations = map[string][]string{
		RiskLow:      {"Continue normal duty planning"},
		RiskModerate: {"Schedule a rest break before demanding training phases", "Brief the crew on fatigue symptoms"},
		RiskHigh:     {"Limit the session to low-workload exercises", "Assign an additional monitoring pilot or instructor"},
		RiskSevere:   {"Postpone the training session", "Grant an uninterrupted rest period of at least 10 hours before next duty"},
	}
)

func Mitigations(s data.DutySchedule, category string) []string {
	out := append([]string{}, baseMitigations...)
	out = append(out, tierMitigations[category]...)
	if s.DutyHours24h > 10 {
		out = append(out, "Insert scheduled breaks into the extended duty period")
	}
	if s.TimeOfDay >= 22 || s.TimeOfDay < 6 {
		out = append(out, "Use bright cockpit and briefing-room lighting during night operations")
	}
	if s.TimezoneChanges3d > 0 {
		out = append(out, "Plan light exposure to adapt to the new time zone")
	}
	if s.SleepQuality < 0.5 {
		out = append(out, "Provide a protected sleep opportunity before the next duty")
	}
	if s.DutyHours7d > 50 {
		out = append(out, "Reduce the weekly duty load")
	}
	return out
}

func clamp10(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(10, v))
}
