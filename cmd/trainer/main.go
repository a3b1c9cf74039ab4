package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"pilotpredict/internal/data"
	"pilotpredict/internal/models"
	"pilotpredict/internal/store"
	"pilotpredict/internal/training"
	"pilotpredict/pkg/utils"
)

func main() {
	logger := utils.Logger()
	defer func() { _ = logger.Sync() }()

	kindFlag := flag.String("kind", "all", "model kind to train, or all")
	regen := flag.Bool("regen", true, "regenerate the synthetic dataset")
	n := flag.Int("n", 2000, "synthetic rows per kind")
	seed := flag.Int64("seed", 42, "random seed for generation and the holdout split")
	dataDir := flag.String("data", "data", "dataset directory")
	modelDir := flag.String("model_dir", "models", "model store directory")
	plotDir := flag.String("plot_dir", "data/plots", "predicted-vs-actual PNG directory")
	holdout := flag.Float64("holdout", 0.2, "fraction of rows kept for evaluation")
	timeout := flag.Duration("timeout", 30*time.Minute, "per-kind training timeout")
	flag.Parse()

	kinds := models.Kinds()
	if *kindFlag != "all" {
		k, err := models.ParseKind(*kindFlag)
		if err != nil {
			logger.Fatal("kind", zap.Error(err))
		}
		kinds = []models.Kind{k}
	}

	st, err := store.NewFileStore(*modelDir, logger)
	if err != nil {
		logger.Fatal("model store", zap.Error(err))
	}
	tr := training.New(st, logger, training.WithTimeout(*timeout))
	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	for _, kind := range kinds {
		path := filepath.Join(*dataDir, string(kind)+".json")
		if *regen {
			logger.Info("generating dataset", zap.String("kind", string(kind)), zap.Int("n", *n), zap.String("out", path))
			if err := data.WriteDataset(path, generate(kind, *n, rng)); err != nil {
				logger.Fatal("write dataset", zap.Error(err))
			}
		}
		rows, err := training.ReadDataset(path)
		if err != nil {
			logger.Fatal("read dataset", zap.String("path", path), zap.Error(err))
		}
		train, test := split(rows, *holdout, rng)

		m, err := tr.Train(ctx, kind, train)
		if err != nil {
			logger.Fatal("train", zap.String("kind", string(kind)), zap.Error(err))
		}
		if len(test) < training.MinTrainingRows {
			logger.Warn("holdout too small, skipping evaluation", zap.String("kind", string(kind)), zap.Int("rows", len(test)))
			continue
		}
		ds, err := training.BuildDataset(kind, test)
		if err != nil {
			logger.Fatal("holdout", zap.String("kind", string(kind)), zap.Error(err))
		}
		pred := m.Predict(ds.Project(m.Columns))
		logger.Info("holdout",
			zap.String("kind", string(kind)),
			zap.String("regressor", m.Regressor.Name()),
			zap.Int("version", m.Version),
			zap.Int("rows", len(ds.Y)),
			zap.Float64("r2", models.R2(ds.Y, pred)),
			zap.Float64("rmse", models.RMSE(ds.Y, pred)))

		img := filepath.Join(*plotDir, string(kind)+".png")
		if err := plotPredictions(img, fmt.Sprintf("%s (%s)", kind, m.Regressor.Name()), ds.Y, pred); err != nil {
			logger.Error("plot", zap.String("path", img), zap.Error(err))
			continue
		}
		logger.Info("plot saved", zap.String("path", img))
	}
}

func generate(kind models.Kind, n int, rng *rand.Rand) any {
	switch kind {
	case models.KindSkillDecay:
		return data.GenerateSkillDecay(n, rng)
	case models.KindFatigueRisk:
		return data.GenerateFatigue(n, rng)
	case models.KindTrainingEffectiveness:
		return data.GenerateEffectiveness(n, rng)
	case models.KindPerformanceConsistency:
		return data.GenerateConsistency(n, rng)
	default:
		return data.GenerateModules(n, rng)
	}
}

// split shuffles rows and keeps the trailing fraction for evaluation.
func split(rows []json.RawMessage, holdout float64, rng *rand.Rand) (train, test []json.RawMessage) {
	idx := rng.Perm(len(rows))
	cut := len(rows) - int(holdout*float64(len(rows)))
	for i, j := range idx {
		if i < cut {
			train = append(train, rows[j])
		} else {
			test = append(test, rows[j])
		}
	}
	return train, test
}

func plotPredictions(path, title string, actual, pred []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(actual))
	lo, hi := actual[0], actual[0]
	for i := range actual {
		pts[i].X, pts[i].Y = actual[i], pred[i]
		lo, hi = min(lo, actual[i]), max(hi, actual[i])
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	ident := plotter.NewFunction(func(x float64) float64 { return x })
	ident.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(sc, ident, plotter.NewGrid())
	p.X.Min, p.X.Max = lo, hi
	p.Legend.Add("holdout", sc)
	p.Legend.Add("ideal", ident)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
