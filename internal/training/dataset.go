package training

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"go.uber.org/multierr"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/validation"
)

// maxReportedRowErrors bounds the row errors carried in one message.
const maxReportedRowErrors = 10

// Dataset is a training set laid out in column order.
type Dataset struct {
	Columns []string
	X       [][]float64
	Y       []float64
}

// ReadDataset loads a {"training_data": [...]} document.
func ReadDataset(path string) ([]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		TrainingData []json.RawMessage `json:"training_data"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}
	return doc.TrainingData, nil
}

// decode unmarshals and validates every row, collecting all failures.
func decode[T any](rows []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(rows))
	var errs error
	failed := 0
	for i, raw := range rows {
		var v T
		err := json.Unmarshal(raw, &v)
		if err == nil {
			err = validation.Struct(&v)
		}
		if err == nil {
			out = append(out, v)
			continue
		}
		failed++
		if failed <= maxReportedRowErrors {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", i, err))
		}
	}
	if failed > maxReportedRowErrors {
		errs = multierr.Append(errs, fmt.Errorf("%d more invalid rows", failed-maxReportedRowErrors))
	}
	return out, errs
}

// BuildDataset decodes rows for kind into a feature matrix and target.
func BuildDataset(kind models.Kind, rows []json.RawMessage) (*Dataset, error) {
	var (
		frows []features.Row
		y     []float64
		cols  []string
		err   error
	)
	switch kind {
	case models.KindSkillDecay:
		var s []data.SkillDecaySample
		if s, err = decode[data.SkillDecaySample](rows); err == nil {
			for _, r := range s {
				frows = append(frows, features.SkillDecay(*r.DaysSinceTraining, *r.PracticeFrequency, *r.InitialPerformance, *r.Complexity))
				y = append(y, *r.CurrentPerformance)
			}
			cols = features.SkillDecayColumns
		}
	case models.KindFatigueRisk:
		var s []data.FatigueSample
		if s, err = decode[data.FatigueSample](rows); err == nil {
			for _, r := range s {
				frows = append(frows, features.Fatigue(data.DutySchedule{
					DutyHours24h:      *r.DutyHours24h,
					DutyHours7d:       *r.DutyHours7d,
					HoursSinceRest:    *r.HoursSinceRest,
					TimeOfDay:         *r.TimeOfDay,
					TimezoneChanges3d: *r.TimezoneChanges3d,
					SleepQuality:      *r.SleepQuality,
				}))
				y = append(y, *r.FatigueScore)
			}
			cols = features.FatigueColumns
		}
	case models.KindTrainingEffectiveness:
		var s []data.EffectivenessSample
		if s, err = decode[data.EffectivenessSample](rows); err == nil {
			methods := make([]string, 0, len(s))
			for _, r := range s {
				frows = append(frows, features.Program(data.TrainingProgramConfig{
					DurationWeeks:        *r.DurationWeeks,
					SessionsPerWeek:      *r.SessionsPerWeek,
					InstructorExperience: *r.InstructorExperience,
					TraineeExperience:    *r.TraineeExperience,
					Complexity:           *r.Complexity,
					Method:               data.TrainingMethod(r.TrainingMethod),
				}))
				methods = append(methods, r.TrainingMethod)
				y = append(y, *r.EffectivenessScore)
			}
			cols = features.ProgramColumns(methods)
		}
	case models.KindPerformanceConsistency:
		var s []data.ConsistencySample
		if s, err = decode[data.ConsistencySample](rows); err == nil {
			metrics := make([]map[string]float64, 0, len(s))
			for _, r := range s {
				frows = append(frows, features.Row(r.Metrics))
				metrics = append(metrics, r.Metrics)
				y = append(y, *r.ConsistencyScore)
			}
			cols = features.MetricColumns(metrics)
		}
	case models.KindSyllabusModule:
		var s []data.ModuleSample
		if s, err = decode[data.ModuleSample](rows); err == nil {
			for _, r := range s {
				frows = append(frows, features.Module(*r.Duration, *r.Complexity, *r.TheoryPercentage, *r.PracticalPercentage, *r.Position, *r.PrerequisiteCount, *r.AssessmentCount))
				y = append(y, *r.Effectiveness)
			}
			cols = features.ModuleColumns
		}
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrTrainingData, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}
	if len(frows) < MinTrainingRows {
		return nil, fmt.Errorf("%w: need at least %d rows, got %d", ErrTrainingData, MinTrainingRows, len(frows))
	}
	return &Dataset{Columns: cols, X: features.Matrix(frows, cols), Y: y}, nil
}

// Project lays X out in columns order. Columns the dataset lacks are zero.
func (d *Dataset) Project(columns []string) [][]float64 {
	at := make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		at[c] = i
	}
	out := make([][]float64, len(d.X))
	for r, x := range d.X {
		v := make([]float64, len(columns))
		for i, c := range columns {
			if j, ok := at[c]; ok {
				v[i] = x[j]
			}
		}
		out[r] = v
	}
	return out
}
