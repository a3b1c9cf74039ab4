package models

import "fmt"

// Kind names a trained pipeline. One artifact exists per kind.
type Kind string

const (
	KindSkillDecay             Kind = "skill-decay"
	KindFatigueRisk            Kind = "fatigue-risk"
	KindTrainingEffectiveness  Kind = "training-effectiveness"
	KindPerformanceConsistency Kind = "performance-consistency"
	KindSyllabusModule         Kind = "syllabus-module"
)

func Kinds() []Kind {
	return []Kind{KindSkillDecay, KindFatigueRisk, KindTrainingEffectiveness, KindPerformanceConsistency, KindSyllabusModule}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown model kind %q", s)
}

// NewRegressor returns the estimator each kind is trained with.
func NewRegressor(k Kind) Regressor {
	switch k {
	case KindSkillDecay:
		return NewBayesianRidge()
	case KindFatigueRisk:
		return NewRandomForest()
	case KindTrainingEffectiveness, KindSyllabusModule:
		return NewGradientBoosting()
	case KindPerformanceConsistency:
		return NewMLP()
	default:
		return NewDecisionTree()
	}
}
