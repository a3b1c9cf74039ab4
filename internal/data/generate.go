package data

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
)

// Synthetic datasets used by the trainer and analyzer binaries when no
// historical export is supplied.

var consistencyMetrics = []struct {
	name string
	ref  float64
}{
	{"altitude_deviation", 40},
	{"checklist_compliance", 95},
	{"landing_accuracy", 85},
	{"reaction_time_ms", 650},
}

func GenerateSkillDecay(n int, rng *rand.Rand) []SkillDecaySample {
	out := make([]SkillDecaySample, n)
	for i := range out {
		days := rng.Float64() * 180
		freq := rng.Float64() * 5
		initial := 0.6 + rng.Float64()*0.4
		complexity := 1 + rng.Float64()*4
		rate := math.Max(0.0005, 0.002+0.002*complexity-0.0008*freq)
		current := clamp(initial*math.Pow(1-rate, days)+rng.NormFloat64()*0.02, 0, 1)
		out[i] = SkillDecaySample{
			DaysSinceTraining:  Float(days),
			PracticeFrequency:  Float(freq),
			InitialPerformance: Float(initial),
			Complexity:         Float(complexity),
			CurrentPerformance: Float(current),
		}
	}
	return out
}

func GenerateFatigue(n int, rng *rand.Rand) []FatigueSample {
	out := make([]FatigueSample, n)
	for i := range out {
		duty24 := rng.Float64() * 16
		duty7d := duty24 + rng.Float64()*(70-duty24)
		rest := rng.Float64() * 24
		tod := math.Floor(rng.Float64()*240) / 10
		tz := rng.Intn(4)
		sleep := 0.3 + rng.Float64()*0.7
		circadian := 1 + 0.5*math.Cos((tod-4)*math.Pi/12)
		score := (duty24/24*0.3 + duty7d/168*0.2 + rest/24*0.2 + circadian*0.15 + float64(tz)*0.1*0.1 + (1-sleep)*0.05) * 10
		out[i] = FatigueSample{
			DutyHours24h:      Float(duty24),
			DutyHours7d:       Float(duty7d),
			HoursSinceRest:    Float(rest),
			TimeOfDay:         Float(tod),
			TimezoneChanges3d: Int(tz),
			SleepQuality:      Float(sleep),
			FatigueScore:      Float(clamp(score+rng.NormFloat64()*0.2, 0, 10)),
		}
	}
	return out
}


func GenerateEffectiveness(n int, rng *rand.Rand) []EffectivenessSample {
	out := make([]EffectivenessSample, n)
	for i := range out {
		duration := 2 + rng.Float64()*14
		sessions := 1 + rng.Float64()*5
		instr := rng.Float64() * 20
		trainee := rng.Float64() * 8
		complexity := rng.Float64()
		method := Methods[rng.Intn(len(Methods))]
		base := 0.25*math.Min(duration/12, 1) + 0.2*math.Min(sessions/5, 1) + 0.2*math.Min(instr/10, 1) +
			0.15*math.Min(trainee/5, 1) + 0.2*(1-complexity)
		score := clamp(base*10*MethodMultiplier[method]+rng.NormFloat64()*0.3, 0, 10)
		out[i] = EffectivenessSample{
			DurationWeeks:        Float(duration),
			SessionsPerWeek:      Float(sessions),
			InstructorExperience: Float(instr),
			TraineeExperience:    Float(trainee),
			Complexity:           Float(complexity),
			TrainingMethod:       string(method),
			EffectivenessScore:   Float(score),
		}
	}
	return out
}

func GenerateConsistency(n int, rng *rand.Rand) []ConsistencySample {
	out := make([]ConsistencySample, n)
	for i := range out {
		spread := rng.Float64() * 0.4
		metrics := make(map[string]float64, len(consistencyMetrics))
		dev := 0.0
		for _, m := range consistencyMetrics {
			rel := rng.NormFloat64() * spread
			metrics[m.name] = m.ref * (1 + rel)
			dev += math.Abs(rel)
		}
		dev /= float64(len(consistencyMetrics))
		out[i] = ConsistencySample{
			Metrics:          metrics,
			ConsistencyScore: Float(clamp(10*math.Exp(-2*dev)+rng.NormFloat64()*0.1, 0, 10)),
		}
	}
	return out
}

func GenerateModules(n int, rng *rand.Rand) []ModuleSample {
	out := make([]ModuleSample, n)
	for i := range out {
		duration := 0.5 + rng.Float64()*7.5
		complexity := 1 + rng.Float64()*9
		theory := 10 + rng.Float64()*80
		position := 1 + rng.Intn(10)
		prereqs := rng.Intn(4)
		assessments := rng.Intn(7)
		balance := 1 - math.Abs(2*theory-100)/100
		adequacy := math.Min(float64(assessments)/math.Max(1, math.Round(duration)), 1)
		// complexity late in a syllabus is better tolerated
		fit := 1 - math.Abs(complexity/10-float64(position)/10)
		score := 10 * (0.35*balance + 0.2*(1-complexity/10) + 0.3*adequacy + 0.15*fit)
		out[i] = ModuleSample{
			Duration:            Float(duration),
			Complexity:          Float(complexity),
			TheoryPercentage:    Float(theory),
			PracticalPercentage: Float(100 - theory),
			Position:            Int(position),
			PrerequisiteCount:   Int(prereqs),
			AssessmentCount:     Int(assessments),
			Effectiveness:       Float(clamp(score+rng.NormFloat64()*0.2, 0, 10)),
		}
	}
	return out
}

// GenerateSeries builds a per-session metric series for one trainee whose
// sessions scatter around the reference values by the given relative spread.
func GenerateSeries(traineeID string, sessions int, spread float64, rng *rand.Rand) PerformanceMetricSeries {
	s := PerformanceMetricSeries{TraineeID: traineeID, Sessions: make([]SessionMetrics, sessions)}
	for i := range s.Sessions {
		vals := make(map[string]float64, len(consistencyMetrics))
		for _, m := range consistencyMetrics {
			vals[m.name] = m.ref * (1 + rng.NormFloat64()*spread)
		}
		s.Sessions[i] = SessionMetrics{
			Date:      "2026-01-" + pad2(i%28+1),
			SessionID: traineeID + "-S" + strconv.Itoa(i+1),
			Values:    vals,
		}
	}
	return s
}

// WriteDataset stores rows under {"training_data": rows}, the body accepted by
// the train endpoints.
func WriteDataset(path string, rows any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"training_data": rows})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
