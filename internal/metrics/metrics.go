// Package metrics exposes Prometheus metrics for the prediction service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the service's collectors on its own registry so the Go
// runtime defaults stay out of /metrics unless asked for. A nil *Manager is
// valid and records nothing.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	predictions      *prometheus.CounterVec
	predictionsSkip  *prometheus.CounterVec
	heuristicActive  *prometheus.GaugeVec
	trainingRuns     *prometheus.CounterVec
	trainingDuration *prometheus.HistogramVec
	trainingQueued   *prometheus.GaugeVec
	modelVersion     *prometheus.GaugeVec
	modelTrainR2     *prometheus.GaugeVec
}

type Option func(*Manager)

func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.buckets = b
		}
	}
}

func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: "pilotpredict",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   m.buckets,
	}, []string{"route"})
	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "engine",
		Name:      "predictions_total",
		Help:      "Scored items by engine and predictor",
	}, []string{"engine", "predictor"})
	m.predictionsSkip = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "engine",
		Name:      "skipped_total",
		Help:      "Batch items skipped as invalid, by engine",
	}, []string{"engine"})
	m.heuristicActive = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "engine",
		Name:      "heuristic_fallback",
		Help:      "1 when the engine's last batch used the heuristic predictor",
	}, []string{"engine"})
	m.trainingRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "runs_total",
		Help:      "Training jobs by model kind and result",
	}, []string{"kind", "result"})
	m.trainingDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "duration_seconds",
		Help:      "Training job wall time by model kind",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"kind"})
	m.trainingQueued = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "training",
		Name:      "queued_jobs",
		Help:      "Training jobs waiting for their kind's slot",
	}, []string{"kind"})
	m.modelVersion = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "version",
		Help:      "Version of the persisted model per kind",
	}, []string{"kind"})
	m.modelTrainR2 = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "model",
		Name:      "train_r2",
		Help:      "Training-set R² of the persisted model per kind",
	}, []string{"kind"})
}

func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Manager) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveBatch records one engine batch.
func (m *Manager) ObserveBatch(engine, predictor string, heuristic bool, scored, skipped int) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(engine, predictor).Add(float64(scored))
	m.predictionsSkip.WithLabelValues(engine).Add(float64(skipped))
	v := 0.0
	if heuristic {
		v = 1
	}
	m.heuristicActive.WithLabelValues(engine).Set(v)
}

func (m *Manager) TrainingQueued(kind string, delta float64) {
	if m == nil {
		return
	}
	m.trainingQueued.WithLabelValues(kind).Add(delta)
}

func (m *Manager) ObserveTraining(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.trainingRuns.WithLabelValues(kind, result).Inc()
	m.trainingDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Manager) SetModel(kind string, version int, r2 float64) {
	if m == nil {
		return
	}
	m.modelVersion.WithLabelValues(kind).Set(float64(version))
	m.modelTrainR2.WithLabelValues(kind).Set(r2)
}
