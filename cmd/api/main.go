package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pilotpredict/internal/api"
	"pilotpredict/internal/config"
	"pilotpredict/internal/metrics"
	"pilotpredict/internal/store"
	"pilotpredict/internal/training"
	"pilotpredict/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Logger().Fatal("config", zap.Error(err))
	}
	logger, err := utils.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		utils.Logger().Fatal("logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(cfg.GinMode)

	st, err := store.NewFileStore(cfg.ModelDir, logger)
	if err != nil {
		logger.Fatal("model store", zap.String("dir", cfg.ModelDir), zap.Error(err))
	}
	m := metrics.New(metrics.WithHistogramBuckets([]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}))
	tr := training.New(st, logger,
		training.WithMetrics(m),
		training.WithTimeout(cfg.TrainTimeout),
		training.WithWorkers(cfg.TrainingWorkers))

	srv := api.NewServer(logger, st, tr, m, api.Options{
		APIKey:            cfg.APIKey,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		PredictTimeout:    cfg.PredictTimeout,
		PredictionWorkers: cfg.PredictionWorkers,
		SyllabusWorkers:   cfg.SyllabusWorkers,
	})
	httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("model_dir", cfg.ModelDir))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
