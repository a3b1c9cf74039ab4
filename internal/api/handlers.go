package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"pilotpredict/internal/data"
	"pilotpredict/internal/models"
	"pilotpredict/internal/store"
	"pilotpredict/internal/validation"
)

type skillDecayResponse struct {
	TraineeID      string                      `json:"trainee_id"`
	PredictionDate string                      `json:"prediction_date"`
	Model          string                      `json:"model"`
	Predictions    []data.SkillDecayPrediction `json:"predictions"`
	Skipped        []data.Skipped              `json:"skipped"`
}

type fatigueResponse struct {
	PredictionDate string                   `json:"prediction_date"`
	Model          string                   `json:"model"`
	Predictions    []data.FatiguePrediction `json:"predictions"`
	Skipped        []data.Skipped           `json:"skipped"`
}

type effectivenessResponse struct {
	PredictionDate string                         `json:"prediction_date"`
	Model          string                         `json:"model"`
	Predictions    []data.EffectivenessPrediction `json:"predictions"`
	Skipped        []data.Skipped                 `json:"skipped"`
}

type consistencyResponse struct {
	AssessmentDate string                       `json:"assessment_date"`
	Model          string                       `json:"model"`
	Assessments    []data.ConsistencyAssessment `json:"assessments"`
	Skipped        []data.Skipped               `json:"skipped"`
}

type syllabusResponse struct {
	OptimizationDate string                      `json:"optimization_date"`
	Model            string                      `json:"model"`
	Optimizations    []data.SyllabusOptimization `json:"optimizations"`
	Skipped          []data.Skipped              `json:"skipped"`
}

type trainResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Version   int       `json:"version"`
	Samples   int       `json:"samples"`
	TrainR2   float64   `json:"train_r2"`
	TrainRMSE float64   `json:"train_rmse"`
	TrainedAt time.Time `json:"trained_at"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// bind decodes and validates a request envelope.
func bind(c *gin.Context, req any) error {
	body, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrInputValidation, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty request body", ErrInputValidation)
	}
	if err := json.Unmarshal(body, req); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrInputValidation, err)
	}
	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInputValidation, err)
	}
	return nil
}

// run executes fn under the prediction semaphore and the request timeout.
func (s *Server) run(c *gin.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.PredictTimeout)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	return fn(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": now()})
}

func (s *Server) handleModels(c *gin.Context) {
	list, err := s.store.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if list == nil {
		list = []store.Manifest{}
	}
	c.JSON(http.StatusOK, gin.H{"models": list})
}

func (s *Server) handleSkillDecay(c *gin.Context) {
	var req skillDecayRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	items, origin, skipped := decodeItems[skillItem, data.SkillObservation](req.Skills)
	resp := skillDecayResponse{TraineeID: req.TraineeID, PredictionDate: now(), Predictions: []data.SkillDecayPrediction{}}
	err := s.run(c, func(ctx context.Context) error {
		res, err := s.skills.PredictDecay(ctx, items)
		if err != nil {
			return err
		}
		resp.Model = res.Model
		resp.Predictions = append(resp.Predictions, res.Predictions...)
		resp.Skipped = mergeSkipped(skipped, res.Skipped, origin)
		s.metrics.ObserveBatch("skill-decay", res.Model, res.Fallback, len(res.Predictions), len(resp.Skipped))
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFatigue(c *gin.Context) {
	var req fatigueRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	items, origin, skipped := decodeItems[scheduleItem, data.DutySchedule](req.Schedules)
	resp := fatigueResponse{PredictionDate: now(), Predictions: []data.FatiguePrediction{}}
	err := s.run(c, func(ctx context.Context) error {
		res, err := s.fatigue.PredictFatigue(ctx, items)
		if err != nil {
			return err
		}
		resp.Model = res.Model
		resp.Predictions = append(resp.Predictions, res.Predictions...)
		resp.Skipped = mergeSkipped(skipped, res.Skipped, origin)
		s.metrics.ObserveBatch("fatigue-risk", res.Model, res.Fallback, len(res.Predictions), len(resp.Skipped))
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEffectiveness(c *gin.Context) {
	var req effectivenessRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	items, origin, skipped := decodeItems[programItem, data.TrainingProgramConfig](req.Programs)
	resp := effectivenessResponse{PredictionDate: now(), Predictions: []data.EffectivenessPrediction{}}
	err := s.run(c, func(ctx context.Context) error {
		res, err := s.effectiveness.PredictEffectiveness(ctx, items)
		if err != nil {
			return err
		}
		resp.Model = res.Model
		resp.Predictions = append(resp.Predictions, res.Predictions...)
		resp.Skipped = mergeSkipped(skipped, res.Skipped, origin)
		s.metrics.ObserveBatch("training-effectiveness", res.Model, res.Fallback, len(res.Predictions), len(resp.Skipped))
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleConsistency(c *gin.Context) {
	var req consistencyRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	items, origin, skipped := decodeItems[traineeItem, data.PerformanceMetricSeries](req.Trainees)
	resp := consistencyResponse{AssessmentDate: now(), Assessments: []data.ConsistencyAssessment{}}
	err := s.run(c, func(ctx context.Context) error {
		res, err := s.consistency.AssessConsistency(ctx, items)
		if err != nil {
			return err
		}
		resp.Model = res.Model
		resp.Assessments = append(resp.Assessments, res.Assessments...)
		resp.Skipped = mergeSkipped(skipped, res.Skipped, origin)
		s.metrics.ObserveBatch("performance-consistency", res.Model, res.Fallback, len(res.Assessments), len(resp.Skipped))
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSyllabus(c *gin.Context) {
	var req syllabusRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}

	type pending struct {
		syllabus data.Syllabus
		origin   []int
		skipped  []data.Skipped
	}
	var (
		valid   []pending
		origin  []int
		skipped []data.Skipped
	)
	for i, raw := range req.Syllabi {
		var it syllabusItem
		if err := json.Unmarshal(raw, &it); err != nil {
			skipped = append(skipped, data.Skipped{Index: i, Reason: "malformed item: " + err.Error()})
			continue
		}
		if err := validation.Struct(&it); err != nil {
			skipped = append(skipped, data.Skipped{Index: i, ID: it.ID, Reason: err.Error()})
			continue
		}
		mods, modOrigin, modSkipped := decodeItems[moduleItem, data.SyllabusModuleConfig](it.Modules)
		valid = append(valid, pending{
			syllabus: data.Syllabus{ID: it.ID, Name: it.Name, Modules: mods},
			origin:   modOrigin,
			skipped:  modSkipped,
		})
		origin = append(origin, i)
	}
	syllabi := make([]data.Syllabus, len(valid))
	for i, p := range valid {
		syllabi[i] = p.syllabus
	}

	resp := syllabusResponse{OptimizationDate: now(), Optimizations: []data.SyllabusOptimization{}}
	err := s.run(c, func(ctx context.Context) error {
		res, err := s.syllabus.OptimizeSyllabus(ctx, syllabi)
		if err != nil {
			return err
		}
		// optimizations come back in input order, minus the skipped syllabi
		dropped := make(map[int]bool, len(res.Skipped))
		for _, sk := range res.Skipped {
			dropped[sk.Index] = true
		}
		next := 0
		for i, p := range valid {
			if dropped[i] || next >= len(res.Optimizations) {
				continue
			}
			opt := res.Optimizations[next]
			next++
			opt.Skipped = mergeSkipped(p.skipped, opt.Skipped, p.origin)
			resp.Optimizations = append(resp.Optimizations, opt)
		}
		resp.Model = res.Model
		resp.Skipped = mergeSkipped(skipped, res.Skipped, origin)
		s.metrics.ObserveBatch("syllabus", res.Model, res.Fallback, len(res.Optimizations), len(resp.Skipped))
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTrain(c *gin.Context) {
	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", ErrUnknownKind, err))
		return
	}
	var req trainRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	m, err := s.trainer.Train(c.Request.Context(), kind, req.TrainingData)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trainResponse{
		Status:    "success",
		Message:   fmt.Sprintf("%s model trained on %d samples", kind, m.Samples),
		Kind:      string(kind),
		Version:   m.Version,
		Samples:   m.Samples,
		TrainR2:   m.TrainR2,
		TrainRMSE: m.TrainRMSE,
		TrainedAt: m.TrainedAt,
	})
}
