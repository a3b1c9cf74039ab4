package data

type Observation struct {
	Correct bool `json:"correct"`
}

// BKTParams are the Bayesian Knowledge Tracing parameters of one skill plus
// its per-day forgetting rate.
type BKTParams struct {
	PTransit  float64 `json:"p_transit"`
	PSlip     float64 `json:"p_slip"`
	PGuess    float64 `json:"p_guess"`
	PInit     float64 `json:"p_init"`
	DecayRate float64 `json:"decay_rate"`
}

type SkillObservation struct {
	SkillID              string        `json:"skill_id"`
	SkillName            string        `json:"skill_name"`
	DaysSinceTraining    float64       `json:"days_since_training"`
	PracticeFrequency    float64       `json:"practice_frequency"`
	InitialPerformance   float64       `json:"initial_performance"`
	Complexity           float64       `json:"complexity"`
	PerformanceThreshold float64       `json:"performance_threshold"`
	BKT                  BKTParams     `json:"bkt"`
	Observations         []Observation `json:"observations"`
}

type DutySchedule struct {
	ScheduleID        string  `json:"schedule_id"`
	TraineeID         string  `json:"trainee_id"`
	DutyHours24h      float64 `json:"duty_hours_24h"`
	DutyHours7d       float64 `json:"duty_hours_7d"`
	HoursSinceRest    float64 `json:"hours_since_rest"`
	TimeOfDay         float64 `json:"time_of_day"`
	TimezoneChanges3d int     `json:"timezone_changes_3d"`
	SleepQuality      float64 `json:"sleep_quality"`
}

type TrainingMethod string

const (
	MethodClassroom TrainingMethod = "classroom"
	MethodSimulator TrainingMethod = "simulator"
	MethodAircraft  TrainingMethod = "aircraft"
	MethodCBT       TrainingMethod = "cbt"
	MethodVR        TrainingMethod = "vr"
)

var Methods = []TrainingMethod{MethodClassroom, MethodSimulator, MethodAircraft, MethodCBT, MethodVR}

// MethodMultiplier scales heuristic effectiveness by delivery method.
var MethodMultiplier = map[TrainingMethod]float64{
	MethodClassroom: 0.6, MethodSimulator: 0.9, MethodAircraft: 1.0, MethodCBT: 0.7, MethodVR: 0.8,
}

type TrainingProgramConfig struct {
	ProgramID            string         `json:"program_id"`
	DurationWeeks        float64        `json:"duration"`
	SessionsPerWeek      float64        `json:"sessions_per_week"`
	InstructorExperience float64        `json:"instructor_experience"`
	TraineeExperience    float64        `json:"trainee_experience"`
	Complexity           float64        `json:"complexity"`
	Method               TrainingMethod `json:"training_method"`
	DataQuality          float64        `json:"data_quality"`
}

// SessionMetrics is one session's named numeric measurements.
type SessionMetrics struct {
	Date      string             `json:"date"`
	SessionID string             `json:"session_id"`
	Values    map[string]float64 `json:"values"`
}

type PerformanceMetricSeries struct {
	TraineeID string           `json:"trainee_id"`
	Sessions  []SessionMetrics `json:"sessions"`
}

type SyllabusModuleConfig struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Duration            float64  `json:"duration"`
	Complexity          float64  `json:"complexity"`
	TheoryPercentage    float64  `json:"theory_percentage"`
	PracticalPercentage float64  `json:"practical_percentage"`
	Position            int      `json:"position"`
	Prerequisites       []string `json:"prerequisites"`
	AssessmentCount     int      `json:"assessment_count"`
}

type Syllabus struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Modules []SyllabusModuleConfig `json:"modules"`
}
