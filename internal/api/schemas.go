package api

import (
	"fmt"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"pilotpredict/internal/data"
	"pilotpredict/internal/effectiveness"
	"pilotpredict/internal/skilldecay"
	"pilotpredict/internal/validation"
)

// Request envelopes. Items stay raw so one malformed item is skipped rather
// than failing the whole batch.

type skillDecayRequest struct {
	TraineeID string            `json:"trainee_id"`
	Skills    []json.RawMessage `json:"skills" validate:"required,min=1"`
}

type fatigueRequest struct {
	Schedules []json.RawMessage `json:"schedules" validate:"required,min=1"`
}

type effectivenessRequest struct {
	Programs []json.RawMessage `json:"programs" validate:"required,min=1"`
}

type consistencyRequest struct {
	Trainees []json.RawMessage `json:"trainees" validate:"required,min=1"`
}

type syllabusRequest struct {
	Syllabi []json.RawMessage `json:"syllabi" validate:"required,min=1"`
}

type trainRequest struct {
	TrainingData []json.RawMessage `json:"training_data" validate:"required"`
}

type observationItem struct {
	Correct *bool `json:"correct" validate:"required"`
}

type skillItem struct {
	SkillID              string            `json:"skill_id" validate:"required"`
	SkillName            string            `json:"skill_name"`
	DaysSinceTraining    *float64          `json:"days_since_training" validate:"required,gte=0"`
	PracticeFrequency    *float64          `json:"practice_frequency" validate:"required,gte=0"`
	InitialPerformance   *float64          `json:"initial_performance" validate:"required,gte=0,lte=1"`
	Complexity           *float64          `json:"complexity" validate:"required,gte=0"`
	PerformanceThreshold *float64          `json:"performance_threshold" validate:"required,gte=0,lte=1"`
	PTransit             *float64          `json:"p_transit" validate:"omitempty,gte=0,lte=1"`
	PSlip                *float64          `json:"p_slip" validate:"omitempty,gte=0,lte=1"`
	PGuess               *float64          `json:"p_guess" validate:"omitempty,gte=0,lte=1"`
	PInit                *float64          `json:"p_init" validate:"omitempty,gte=0,lte=1"`
	DecayRate            *float64          `json:"decay_rate" validate:"omitempty,gte=0,lt=1"`
	Observations         []observationItem `json:"observations" validate:"dive"`
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (s *skillItem) id() string { return s.SkillID }

func (s *skillItem) toDomain() data.SkillObservation {
	d := skilldecay.DefaultBKT
	obs := make([]data.Observation, len(s.Observations))
	for i, o := range s.Observations {
		obs[i] = data.Observation{Correct: *o.Correct}
	}
	return data.SkillObservation{
		SkillID:              s.SkillID,
		SkillName:            s.SkillName,
		DaysSinceTraining:    *s.DaysSinceTraining,
		PracticeFrequency:    *s.PracticeFrequency,
		InitialPerformance:   *s.InitialPerformance,
		Complexity:           *s.Complexity,
		PerformanceThreshold: *s.PerformanceThreshold,
		BKT: data.BKTParams{
			PTransit:  orDefault(s.PTransit, d.PTransit),
			PSlip:     orDefault(s.PSlip, d.PSlip),
			PGuess:    orDefault(s.PGuess, d.PGuess),
			PInit:     orDefault(s.PInit, d.PInit),
			DecayRate: orDefault(s.DecayRate, d.DecayRate),
		},
		Observations: obs,
	}
}

type scheduleItem struct {
	ScheduleID        string   `json:"schedule_id" validate:"required"`
	TraineeID         string   `json:"trainee_id"`
	DutyHours24h      *float64 `json:"duty_hours_24h" validate:"required,gte=0,lte=24"`
	DutyHours7d       *float64 `json:"duty_hours_7d" validate:"required,gte=0,lte=168"`
	HoursSinceRest    *float64 `json:"hours_since_rest" validate:"required,gte=0"`
	TimeOfDay         *float64 `json:"time_of_day" validate:"required,gte=0,lt=24"`
	TimezoneChanges3d *int     `json:"timezone_changes_3d" validate:"required,gte=0"`
	SleepQuality      *float64 `json:"sleep_quality" validate:"required,gte=0,lte=1"`
}

func (s *scheduleItem) id() string { return s.ScheduleID }

func (s *scheduleItem) toDomain() data.DutySchedule {
	return data.DutySchedule{
		ScheduleID:        s.ScheduleID,
		TraineeID:         s.TraineeID,
		DutyHours24h:      *s.DutyHours24h,
		DutyHours7d:       *s.DutyHours7d,
		HoursSinceRest:    *s.HoursSinceRest,
		TimeOfDay:         *s.TimeOfDay,
		TimezoneChanges3d: *s.TimezoneChanges3d,
		SleepQuality:      *s.SleepQuality,
	}
}

type programItem struct {
	ProgramID            string   `json:"program_id" validate:"required"`
	Duration             *float64 `json:"duration" validate:"required,gt=0"`
	SessionsPerWeek      *float64 `json:"sessions_per_week" validate:"required,gte=0"`
	InstructorExperience *float64 `json:"instructor_experience" validate:"required,gte=0"`
	TraineeExperience    *float64 `json:"trainee_experience" validate:"required,gte=0"`
	Complexity           *float64 `json:"complexity" validate:"required,gte=0,lte=1"`
	TrainingMethod       string   `json:"training_method" validate:"required,oneof=classroom simulator aircraft cbt vr"`
	DataQuality          *float64 `json:"data_quality" validate:"omitempty,gte=0,lte=1"`
}

func (p *programItem) id() string { return p.ProgramID }

func (p *programItem) toDomain() data.TrainingProgramConfig {
	return data.TrainingProgramConfig{
		ProgramID:            p.ProgramID,
		DurationWeeks:        *p.Duration,
		SessionsPerWeek:      *p.SessionsPerWeek,
		InstructorExperience: *p.InstructorExperience,
		TraineeExperience:    *p.TraineeExperience,
		Complexity:           *p.Complexity,
		Method:               data.TrainingMethod(p.TrainingMethod),
		DataQuality:          orDefault(p.DataQuality, effectiveness.DefaultDataQuality),
	}
}

// traineeItem carries sessions as flat objects: date, session_id and any
// number of numeric metric columns.
type traineeItem struct {
	TraineeID          string           `json:"trainee_id" validate:"required"`
	PerformanceMetrics []map[string]any `json:"performance_metrics" validate:"required"`
}

func (t *traineeItem) id() string { return t.TraineeID }

func (t *traineeItem) toDomain() data.PerformanceMetricSeries {
	s := data.PerformanceMetricSeries{TraineeID: t.TraineeID, Sessions: make([]data.SessionMetrics, len(t.PerformanceMetrics))}
	for i, row := range t.PerformanceMetrics {
		sess := data.SessionMetrics{SessionID: "session-" + strconv.Itoa(i+1), Values: map[string]float64{}}
		for k, v := range row {
			switch k {
			case "date":
				sess.Date = fmt.Sprint(v)
				continue
			case "session_id":
				sess.SessionID = fmt.Sprint(v)
				continue
			}
			if f, ok := v.(float64); ok {
				sess.Values[k] = f
			}
		}
		s.Sessions[i] = sess
	}
	return s
}

type syllabusItem struct {
	ID      string            `json:"id" validate:"required"`
	Name    string            `json:"name"`
	Modules []json.RawMessage `json:"modules" validate:"required,min=1"`
}

func (s *syllabusItem) id() string { return s.ID }

type moduleItem struct {
	ID                  string   `json:"id" validate:"required"`
	Name                string   `json:"name"`
	Duration            *float64 `json:"duration" validate:"required,gt=0"`
	Complexity          *float64 `json:"complexity" validate:"required,gte=0,lte=10"`
	TheoryPercentage    *float64 `json:"theory_percentage" validate:"required,gte=0,lte=100"`
	PracticalPercentage *float64 `json:"practical_percentage" validate:"required,gte=0,lte=100"`
	Position            *int     `json:"position" validate:"required,gte=1"`
	Prerequisites       []string `json:"prerequisites"`
	AssessmentCount     *int     `json:"assessment_count" validate:"required_without=Assessments"`
	Assessments         *int     `json:"assessments" validate:"omitempty,gte=0"`
}

func (m *moduleItem) id() string { return m.ID }

func (m *moduleItem) toDomain() data.SyllabusModuleConfig {
	n := m.AssessmentCount
	if n == nil {
		n = m.Assessments
	}
	return data.SyllabusModuleConfig{
		ID:                  m.ID,
		Name:                m.Name,
		Duration:            *m.Duration,
		Complexity:          *m.Complexity,
		TheoryPercentage:    *m.TheoryPercentage,
		PracticalPercentage: *m.PracticalPercentage,
		Position:            *m.Position,
		Prerequisites:       m.Prerequisites,
		AssessmentCount:     *n,
	}
}

// item is implemented by the pointer to every item schema.
type item[D any] interface {
	id() string
	toDomain() D
}

// decodeItems validates raw items into domain values. origin maps each
// decoded value back to its index in raw.
func decodeItems[S any, D any, PS interface {
	*S
	item[D]
}](raw []json.RawMessage) (out []D, origin []int, skipped []data.Skipped) {
	for i, r := range raw {
		var s S
		if err := json.Unmarshal(r, &s); err != nil {
			skipped = append(skipped, data.Skipped{Index: i, Reason: "malformed item: " + err.Error()})
			continue
		}
		p := PS(&s)
		if err := validation.Struct(p); err != nil {
			skipped = append(skipped, data.Skipped{Index: i, ID: p.id(), Reason: err.Error()})
			continue
		}
		out = append(out, p.toDomain())
		origin = append(origin, i)
	}
	return out, origin, skipped
}

// mergeSkipped rewrites engine skip indexes through origin and returns all
// skips ordered by request index.
func mergeSkipped(decoded []data.Skipped, engine []data.Skipped, origin []int) []data.Skipped {
	out := make([]data.Skipped, 0, len(decoded)+len(engine))
	out = append(out, decoded...)
	for _, s := range engine {
		if s.Index >= 0 && s.Index < len(origin) {
			s.Index = origin[s.Index]
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
