package features

import (
	"math"
	"sort"

	"pilotpredict/internal/data"
)

// Row is a named feature vector. Learned pipelines lay it out in their own
// column order, so rows never depend on positional conventions.
type Row map[string]float64

var (
	SkillDecayColumns = []string{"days_since_training", "practice_frequency", "initial_performance", "complexity"}
	FatigueColumns    = []string{"duty_hours_24h", "duty_hours_7d", "hours_since_rest", "time_of_day", "timezone_changes_3d", "sleep_quality"}
	programNumeric    = []string{"duration", "sessions_per_week", "instructor_experience", "trainee_experience", "complexity"}
	ModuleColumns     = []string{"duration", "complexity", "theory_percentage", "practical_percentage", "position", "prerequisite_count", "assessment_count", "theory_practical_ratio"}
)

const methodPrefix = "method_"

func SkillDecay(days, freq, initial, complexity float64) Row {
	return Row{
		"days_since_training": days,
		"practice_frequency":  freq,
		"initial_performance": initial,
		"complexity":          complexity,
	}
}

func SkillObservation(s data.SkillObservation) Row {
	return SkillDecay(s.DaysSinceTraining, s.PracticeFrequency, s.InitialPerformance, s.Complexity)
}

func Fatigue(s data.DutySchedule) Row {
	return Row{
		"duty_hours_24h":      s.DutyHours24h,
		"duty_hours_7d":       s.DutyHours7d,
		"hours_since_rest":    s.HoursSinceRest,
		"time_of_day":         s.TimeOfDay,
		"timezone_changes_3d": float64(s.TimezoneChanges3d),
		"sleep_quality":       s.SleepQuality,
	}
}

// Program one-hot encodes the training method next to the numeric columns.
func Program(p data.TrainingProgramConfig) Row {
	return Row{
		"duration":                      p.DurationWeeks,
		"sessions_per_week":             p.SessionsPerWeek,
		"instructor_experience":         p.InstructorExperience,
		"trainee_experience":            p.TraineeExperience,
		"complexity":                    p.Complexity,
		methodPrefix + string(p.Method): 1,
	}
}

// ProgramColumns returns the numeric columns plus one column per method seen
// in the training set, in sorted order.
func ProgramColumns(methods []string) []string {
	seen := map[string]bool{}
	var oneHot []string
	for _, m := range methods {
		if !seen[m] {
			seen[m] = true
			oneHot = append(oneHot, methodPrefix+m)
		}
	}
	sort.Strings(oneHot)
	return append(append([]string{}, programNumeric...), oneHot...)
}

func Session(s data.SessionMetrics) Row {
	r := make(Row, len(s.Values))
	for k, v := range s.Values {
		r[k] = v
	}
	return r
}

// MetricColumns is the sorted union of metric names across rows.
func MetricColumns(rows []map[string]float64) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func Module(duration, complexity, theory, practical float64, position, prereqs, assessments int) Row {
	return Row{
		"duration":               duration,
		"complexity":             complexity,
		"theory_percentage":      theory,
		"practical_percentage":   practical,
		"position":               float64(position),
		"prerequisite_count":     float64(prereqs),
		"assessment_count":       float64(assessments),
		"theory_practical_ratio": theory / math.Max(practical, 1),
	}
}

// Matrix lays rows out in column order, zero-filling absent columns.
func Matrix(rows []Row, columns []string) [][]float64 {
	X := make([][]float64, len(rows))
	for i, r := range rows {
		v := make([]float64, len(columns))
		for j, c := range columns {
			v[j] = r[c]
		}
		X[i] = v
	}
	return X
}
