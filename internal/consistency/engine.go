// Package consistency assesses how stable a trainee's per-session
// performance metrics are and flags outlying sessions.
package consistency

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"pilotpredict/internal/data"
	"pilotpredict/internal/features"
	"pilotpredict/internal/models"
	"pilotpredict/internal/predictor"
	"pilotpredict/internal/store"
)

const (
	anomalyZ = 2.0
	highZ    = 3.0

	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

type Result struct {
	Model       string
	Fallback    bool
	Assessments []data.ConsistencyAssessment
	Skipped     []data.Skipped
}

type Engine struct {
	store  store.Store
	logger *zap.Logger
}

func New(st store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger}
}

var heuristic = &predictor.Heuristic[data.PerformanceMetricSeries]{Label: "CoefficientOfVariation", Score: Score}

func sessionRows(s data.PerformanceMetricSeries) []features.Row {
	rows := make([]features.Row, len(s.Sessions))
	for i, sess := range s.Sessions {
		rows[i] = features.Session(sess)
	}
	return rows
}

func (e *Engine) AssessConsistency(ctx context.Context, trainees []data.PerformanceMetricSeries) (Result, error) {
	p := predictor.Select(ctx, e.store, models.KindPerformanceConsistency, sessionRows, heuristic, e.logger)
	res := Result{Model: p.Name(), Fallback: predictor.IsHeuristic(p), Assessments: make([]data.ConsistencyAssessment, 0, len(trainees))}
	for i, tr := range trainees {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		stats := Variance(tr)
		if err := check(tr, stats); err != nil {
			res.Skipped = append(res.Skipped, data.Skipped{Index: i, ID: tr.TraineeID, Reason: err.Error()})
			continue
		}
		score := clamp10(p.Predict(tr))
		anomalies := Anomalies(tr, stats)
		res.Assessments = append(res.Assessments, data.ConsistencyAssessment{
			TraineeID:        tr.TraineeID,
			ConsistencyScore: score,
			VarianceMetrics:  stats,
			Anomalies:        anomalies,
			Recommendation:   Recommendation(score, stats, anomalies),
		})
	}
	return res, nil
}

func check(s data.PerformanceMetricSeries, stats map[string]data.VarianceMetric) error {
	if len(s.Sessions) < 2 {
		return fmt.Errorf("at least 2 sessions are required, got %d", len(s.Sessions))
	}
	if len(stats) == 0 {
		return fmt.Errorf("no metric is present in at least 2 sessions")
	}
	return nil
}

// column gathers one metric across the sessions that report it.
func column(s data.PerformanceMetricSeries, metric string) (vals []float64, idx []int) {
	for i, sess := range s.Sessions {
		v, ok := sess.Values[metric]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		vals = append(vals, v)
		idx = append(idx, i)
	}
	return vals, idx
}

func metricNames(s data.PerformanceMetricSeries) []string {
	vals := make([]map[string]float64, len(s.Sessions))
	for i, sess := range s.Sessions {
		vals[i] = sess.Values
	}
	return features.MetricColumns(vals)
}

// Variance returns population mean, standard deviation and coefficient of
// variation for every metric reported by at least two sessions.
func Variance(s data.PerformanceMetricSeries) map[string]data.VarianceMetric {
	out := map[string]data.VarianceMetric{}
	for _, name := range metricNames(s) {
		vals, _ := column(s, name)
		if len(vals) < 2 {
			continue
		}
		mean, std := stat.PopMeanStdDev(vals, nil)
		cv := std
		if mean != 0 {
			cv = std / math.Abs(mean)
		}
		out[name] = data.VarianceMetric{Mean: mean, StdDev: std, CoefficientOfVariation: cv}
	}
	return out
}

// Score is 10·exp(-2·mean CV). A series with no variation scores 10.
func Score(s data.PerformanceMetricSeries) float64 {
	stats := Variance(s)
	if len(stats) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range stats {
		sum += v.CoefficientOfVariation
	}
	return clamp10(10 * math.Exp(-2*sum/float64(len(stats))))
}

// Anomalies flags values more than two standard deviations from their
// metric's mean. Metrics without variation have no anomalies.
func Anomalies(s data.PerformanceMetricSeries, stats map[string]data.VarianceMetric) []data.Anomaly {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []data.Anomaly{}
	for _, name := range names {
		st := stats[name]
		if st.StdDev == 0 {
			continue
		}
		vals, idx := column(s, name)
		for k, v := range vals {
			z := (v - st.Mean) / st.StdDev
			if math.Abs(z) <= anomalyZ {
				continue
			}
			sev := SeverityMedium
			if math.Abs(z) > highZ {
				sev = SeverityHigh
			}
			sess := s.Sessions[idx[k]]
			out = append(out, data.Anomaly{
				Metric:    name,
				SessionID: sess.SessionID,
				Date:      sess.Date,
				Value:     v,
				ZScore:    z,
				Severity:  sev,
			})
		}
	}
	return out
}

func Recommendation(score float64, stats map[string]data.VarianceMetric, anomalies []data.Anomaly) string {
	var b strings.Builder
	switch {
	case score >= 8:
		b.WriteString("Performance is highly consistent; continue the current training plan.")
	case score >= 6:
		b.WriteString("Performance is reasonably consistent; monitor the more variable metrics.")
	case score >= 4:
		b.WriteString("Performance is inconsistent; schedule focused practice on variable areas.")
	default:
		b.WriteString("Performance is highly inconsistent; a structured remedial review is recommended.")
	}

	var high []string
	seen := map[string]bool{}
	for _, a := range anomalies {
		if a.Severity == SeverityHigh && !seen[a.Metric] {
			seen[a.Metric] = true
			high = append(high, a.Metric)
		}
	}
	if len(high) > 0 {
		fmt.Fprintf(&b, " Investigate high-severity anomalies in: %s.", strings.Join(high, ", "))
	}

	type cvEntry struct {
		name string
		cv   float64
	}
	var cvs []cvEntry
	for name, st := range stats {
		if st.CoefficientOfVariation > 0 {
			cvs = append(cvs, cvEntry{name, st.CoefficientOfVariation})
		}
	}
	sort.Slice(cvs, func(i, j int) bool {
		if cvs[i].cv != cvs[j].cv {
			return cvs[i].cv > cvs[j].cv
		}
		return cvs[i].name < cvs[j].name
	})
	if len(cvs) > 2 {
		cvs = cvs[:2]
	}
	if len(cvs) > 0 {
		names := make([]string, len(cvs))
		for i, c := range cvs {
			names[i] = c.name
		}
		fmt.Fprintf(&b, " Most variable metrics: %s.", strings.Join(names, ", "))
	}
	return b.String()
}

func clamp10(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(10, v))
}
