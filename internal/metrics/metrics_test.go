package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRecordsOnItsRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	m.ObserveHTTP("/api/health", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveBatch("fatigue", "CircadianHeuristic", true, 3, 1)
	m.ObserveTraining("fatigue-risk", time.Second, nil)
	m.ObserveTraining("fatigue-risk", time.Second, errors.New("bad rows"))
	m.SetModel("fatigue-risk", 4, 0.93)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/health", "GET", "200")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.predictions.WithLabelValues("fatigue", "CircadianHeuristic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictionsSkip.WithLabelValues("fatigue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.heuristicActive.WithLabelValues("fatigue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trainingRuns.WithLabelValues("fatigue-risk", "failure")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.modelVersion.WithLabelValues("fatigue-risk")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
	for _, f := range families {
		assert.Contains(t, f.GetName(), "test_")
	}
}

func TestNilManagerIsNoop(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/", "GET", 200, time.Millisecond)
		m.ObserveBatch("x", "y", false, 1, 0)
		m.TrainingQueued("k", 1)
		m.ObserveTraining("k", time.Second, nil)
		m.SetModel("k", 1, 1)
	})
	assert.Nil(t, m.Registry())
}
