// Package api serves the prediction engines over JSON/HTTP.
package api

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"pilotpredict/internal/consistency"
	"pilotpredict/internal/effectiveness"
	"pilotpredict/internal/fatigue"
	"pilotpredict/internal/metrics"
	"pilotpredict/internal/skilldecay"
	"pilotpredict/internal/store"
	"pilotpredict/internal/syllabus"
	"pilotpredict/internal/training"
)

type Options struct {
	APIKey            string
	MaxBodyBytes      int64
	PredictTimeout    time.Duration
	PredictionWorkers int
	SyllabusWorkers   int
}

type Server struct {
	logger  *zap.Logger
	store   store.Store
	trainer *training.Trainer
	metrics *metrics.Manager
	opts    Options
	// sem bounds concurrent prediction batches; training has its own.
	sem *semaphore.Weighted

	skills        *skilldecay.Engine
	fatigue       *fatigue.Engine
	effectiveness *effectiveness.Engine
	consistency   *consistency.Engine
	syllabus      *syllabus.Engine
}

func NewServer(logger *zap.Logger, st store.Store, tr *training.Trainer, m *metrics.Manager, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PredictionWorkers <= 0 {
		opts.PredictionWorkers = 8
	}
	if opts.PredictTimeout <= 0 {
		opts.PredictTimeout = 10 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}
	return &Server{
		logger:        logger,
		store:         st,
		trainer:       tr,
		metrics:       m,
		opts:          opts,
		sem:           semaphore.NewWeighted(int64(opts.PredictionWorkers)),
		skills:        skilldecay.New(st, logger),
		fatigue:       fatigue.New(st, logger),
		effectiveness: effectiveness.New(st, logger),
		consistency:   consistency.New(st, logger),
		syllabus:      syllabus.New(st, logger, opts.SyllabusWorkers),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))
	r.Use(requestID(), s.observe())

	r.GET("/api/health", s.handleHealth)
	if reg := s.metrics.Registry(); reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(apiKey(s.opts.APIKey), bodyLimit(s.opts.MaxBodyBytes))
	api.GET("/models", s.handleModels)
	api.POST("/predict/skill-decay", s.handleSkillDecay)
	api.POST("/predict/fatigue-risk", s.handleFatigue)
	api.POST("/predict/training-effectiveness", s.handleEffectiveness)
	api.POST("/assess/performance-consistency", s.handleConsistency)
	api.POST("/optimize/syllabus", s.handleSyllabus)
	api.POST("/train/:kind", s.handleTrain)
	return r
}
