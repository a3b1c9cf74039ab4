package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pilotpredict/internal/data"
)

func TestProgramOneHotZeroFillsUnseenMethods(t *testing.T) {
	cols := ProgramColumns([]string{"simulator", "classroom", "simulator"})
	assert.Equal(t, []string{"duration", "sessions_per_week", "instructor_experience", "trainee_experience", "complexity", "method_classroom", "method_simulator"}, cols)

	row := Program(data.TrainingProgramConfig{DurationWeeks: 8, Method: data.MethodVR})
	X := Matrix([]Row{row}, cols)
	assert.Equal(t, []float64{8, 0, 0, 0, 0, 0, 0}, X[0])
	assert.Equal(t, 1.0, row["method_vr"])
}

func TestModuleRatioGuardsZeroPractical(t *testing.T) {
	r := Module(2, 5, 100, 0, 1, 0, 2)
	assert.Equal(t, 100.0, r["theory_practical_ratio"])
}

func TestMetricColumnsSortedUnion(t *testing.T) {
	cols := MetricColumns([]map[string]float64{{"b": 1, "a": 2}, {"c": 3, "a": 1}})
	assert.Equal(t, []string{"a", "b", "c"}, cols)
}
