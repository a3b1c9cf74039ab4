package syllabus

import (
	"math"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/predictor"
)

// ModuleInput is what the per-module predictor scores: a configuration plus
// the module's place in its syllabus.
type ModuleInput struct {
	Settings      data.ModuleSettings
	Position      int
	Prerequisites int
}

func moduleRow(in ModuleInput) features.Row {
	s := in.Settings
	return features.Module(s.Duration, s.Complexity, s.TheoryPercentage, s.PracticalPercentage, in.Position, in.Prerequisites, s.AssessmentCount)
}

// ModuleScore rates theory/practical balance, inverse complexity and
// assessment adequacy on a 0-10 scale.
func ModuleScore(in ModuleInput) float64 {
	s := in.Settings
	balance := 1 - math.Abs(s.TheoryPercentage-s.PracticalPercentage)/100
	adequacy := math.Min(float64(s.AssessmentCount)/math.Max(1, math.Round(s.Duration)), 1)
	return clamp10(10 * (0.4*balance + 0.3*(1-s.Complexity/10) + 0.3*adequacy))
}

// Grid returns the current settings followed by every perturbation of
// duration ±0.5, theory ±10 and assessments ±1 that stays in range.
func Grid(cur data.ModuleSettings) []data.ModuleSettings {
	out := []data.ModuleSettings{cur}
	for _, dd := range []float64{-0.5, 0, 0.5} {
		dur := cur.Duration + dd
		if dur <= 0 {
			continue
		}
		for _, dt := range []float64{-10, 0, 10} {
			theory, practical := cur.TheoryPercentage, cur.PracticalPercentage
			if dt != 0 {
				theory = math.Max(0, math.Min(100, theory+dt))
				if theory == cur.TheoryPercentage {
					continue
				}
				practical = 100 - theory
			}
			for _, da := range []int{-1, 0, 1} {
				n := cur.AssessmentCount + da
				if n < 0 || (dd == 0 && dt == 0 && da == 0) {
					continue
				}
				c := cur
				c.Duration, c.TheoryPercentage, c.PracticalPercentage, c.AssessmentCount = dur, theory, practical, n
				out = append(out, c)
			}
		}
	}
	return out
}

// Rule applies the fixed corrections used when no trained model exists:
// even split for a lopsided module, at least one assessment per day of
// duration, and complexity capped by syllabus position.
func Rule(cur data.ModuleSettings, position, modules int) data.ModuleSettings {
	c := cur
	if math.Abs(c.TheoryPercentage-c.PracticalPercentage) > 20 {
		c.TheoryPercentage, c.PracticalPercentage = 50, 50
	}
	if need := int(math.Max(1, math.Round(c.Duration))); c.AssessmentCount < need {
		c.AssessmentCount = need
	}
	if modules > 0 {
		limit := float64(position) / float64(modules) * 10
		if c.Complexity > limit+2 {
			c.Complexity = limit
		}
	}
	return c
}

// Search scores every candidate and keeps the first strictly best one; the
// current settings come first, so the result never scores below them.
func Search(p predictor.Predictor[ModuleInput], in ModuleInput, candidates []data.ModuleSettings) (best data.ModuleSettings, current, optimized float64) {
	best = in.Settings
	current = clamp10(p.Predict(in))
	optimized = current
	for _, c := range candidates {
		cand := in
		cand.Settings = c
		if v := clamp10(p.Predict(cand)); v > optimized {
			best, optimized = c, v
		}
	}
	return best, current, optimized
}
