package data

// Skipped reports a batch item that was not scored.
type Skipped struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

type DecayPoint struct {
	Day         int     `json:"day"`
	Performance float64 `json:"performance"`
}

type SkillDecayPrediction struct {
	SkillID                  string       `json:"skill_id"`
	SkillName                string       `json:"skill_name"`
	CurrentPerformance       float64      `json:"current_performance"`
	DaysToIntervention       int          `json:"days_to_intervention"`
	RiskLevel                string       `json:"risk_level"`
	RecommendedRefresherDate string       `json:"recommended_refresher_date"`
	DecayCurve               []DecayPoint `json:"decay_curve"`
}

type FatiguePrediction struct {
	ScheduleID          string             `json:"schedule_id"`
	TraineeID           string             `json:"trainee_id"`
	FatigueScore        float64            `json:"fatigue_score"`
	RiskCategory        string             `json:"risk_category"`
	ContributingFactors map[string]float64 `json:"contributing_factors"`
	Mitigations         []string           `json:"mitigations"`
}

type ConfidenceInterval struct {
	LowerBound    float64 `json:"lower_bound"`
	UpperBound    float64 `json:"upper_bound"`
	StandardError float64 `json:"standard_error"`
}

type EffectivenessPrediction struct {
	ProgramID          string             `json:"program_id"`
	EffectivenessScore float64            `json:"effectiveness_score"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	Recommendations    []string           `json:"recommendations"`
}

type VarianceMetric struct {
	Mean                   float64 `json:"mean"`
	StdDev                 float64 `json:"std_dev"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

type Anomaly struct {
	Metric    string  `json:"metric"`
	SessionID string  `json:"session_id"`
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	ZScore    float64 `json:"z_score"`
	Severity  string  `json:"severity"`
}

type ConsistencyAssessment struct {
	TraineeID        string                    `json:"trainee_id"`
	ConsistencyScore float64                   `json:"consistency_score"`
	VarianceMetrics  map[string]VarianceMetric `json:"variance_metrics"`
	Anomalies        []Anomaly                 `json:"anomalies"`
	Recommendation   string                    `json:"recommendation"`
}

type ModuleSettings struct {
	Duration            float64 `json:"duration"`
	Complexity          float64 `json:"complexity"`
	TheoryPercentage    float64 `json:"theory_percentage"`
	PracticalPercentage float64 `json:"practical_percentage"`
	AssessmentCount     int     `json:"assessment_count"`
}

type ModuleOptimization struct {
	ModuleID               string         `json:"module_id"`
	Name                   string         `json:"name"`
	CurrentConfig          ModuleSettings `json:"current_config"`
	OptimizedConfig        ModuleSettings `json:"optimized_config"`
	CurrentEffectiveness   float64        `json:"current_effectiveness"`
	OptimizedEffectiveness float64        `json:"optimized_effectiveness"`
	Improvement            float64        `json:"improvement"`
	Recommendations        []string       `json:"recommendations"`
}

type BrokenPrerequisite struct {
	ModuleID       string `json:"module_id"`
	PrerequisiteID string `json:"prerequisite_id"`
	Reason         string `json:"reason"`
}

type SyllabusOptimization struct {
	SyllabusID             string               `json:"syllabus_id"`
	Name                   string               `json:"name"`
	CurrentEffectiveness   float64              `json:"current_effectiveness"`
	OptimizedEffectiveness float64              `json:"optimized_effectiveness"`
	OverallImprovement     float64              `json:"overall_improvement"`
	Modules                []ModuleOptimization `json:"modules"`
	RecommendedSequence    []string             `json:"recommended_sequence"`
	SequenceEffectiveness  float64              `json:"sequence_effectiveness"`
	BrokenPrerequisites    []BrokenPrerequisite `json:"broken_prerequisites"`
	Skipped                []Skipped            `json:"skipped_modules"`
}
