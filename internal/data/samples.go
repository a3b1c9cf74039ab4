package data

// Training rows. Pointer fields distinguish an absent value from a zero.

type SkillDecaySample struct {
	DaysSinceTraining  *float64 `json:"days_since_training" validate:"required,gte=0"`
	PracticeFrequency  *float64 `json:"practice_frequency" validate:"required,gte=0"`
	InitialPerformance *float64 `json:"initial_performance" validate:"required,gte=0,lte=1"`
	Complexity         *float64 `json:"complexity" validate:"required,gte=0"`
	CurrentPerformance *float64 `json:"current_performance" validate:"required,gte=0,lte=1"`
}

type FatigueSample struct {
	DutyHours24h      *float64 `json:"duty_hours_24h" validate:"required,gte=0,lte=24"`
	DutyHours7d       *float64 `json:"duty_hours_7d" validate:"required,gte=0,lte=168"`
	HoursSinceRest    *float64 `json:"hours_since_rest" validate:"required,gte=0"`
	TimeOfDay         *float64 `json:"time_of_day" validate:"required,gte=0,lt=24"`
	TimezoneChanges3d *int     `json:"timezone_changes_3d" validate:"required,gte=0"`
	SleepQuality      *float64 `json:"sleep_quality" validate:"required,gte=0,lte=1"`
	FatigueScore      *float64 `json:"fatigue_score" validate:"required,gte=0,lte=10"`
}

type EffectivenessSample struct {
	DurationWeeks        *float64 `json:"duration" validate:"required,gt=0"`
	SessionsPerWeek      *float64 `json:"sessions_per_week" validate:"required,gte=0"`
	InstructorExperience *float64 `json:"instructor_experience" validate:"required,gte=0"`
	TraineeExperience    *float64 `json:"trainee_experience" validate:"required,gte=0"`
	Complexity           *float64 `json:"complexity" validate:"required,gte=0,lte=1"`
	TrainingMethod       string   `json:"training_method" validate:"required,oneof=classroom simulator aircraft cbt vr"`
	EffectivenessScore   *float64 `json:"effectiveness_score" validate:"required,gte=0,lte=10"`
}

type ConsistencySample struct {
	Metrics          map[string]float64 `json:"metrics" validate:"required,min=1"`
	ConsistencyScore *float64           `json:"consistency_score" validate:"required,gte=0,lte=10"`
}

type ModuleSample struct {
	Duration            *float64 `json:"duration" validate:"required,gt=0"`
	Complexity          *float64 `json:"complexity" validate:"required,gte=0,lte=10"`
	TheoryPercentage    *float64 `json:"theory_percentage" validate:"required,gte=0,lte=100"`
	PracticalPercentage *float64 `json:"practical_percentage" validate:"required,gte=0,lte=100"`
	Position            *int     `json:"position" validate:"required,gte=1"`
	PrerequisiteCount   *int     `json:"prerequisite_count" validate:"required,gte=0"`
	AssessmentCount     *int     `json:"assessment_count" validate:"required,gte=0"`
	Effectiveness       *float64 `json:"effectiveness" validate:"required,gte=0,lte=10"`
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
