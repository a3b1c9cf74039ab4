package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"pilotpredict/internal/models"
	"pilotpredict/internal/training"
	"pilotpredict/pkg/utils"
)

type point struct {
	size                int
	trainR2, testR2     float64
	trainRMSE, testRMSE float64
}

func main() {
	logger := utils.Logger()
	defer func() { _ = logger.Sync() }()

	kindFlag := flag.String("kind", string(models.KindFatigueRisk), "model kind")
	algo := flag.String("algo", "", "regressor override: dt|rf|gb|br|mlp (default: the kind's estimator)")
	points := flag.Int("points", 8, "learning curve points")
	minSize := flag.Int("min", 50, "smallest training size")
	dataPath := flag.String("data", "", "dataset JSON (default data/<kind>.json)")
	outImg := flag.String("out_img", "", "PNG output (default data/<kind>_curve.png)")
	outCsv := flag.String("out_csv", "", "CSV output (default data/<kind>_curve.csv)")
	flag.Parse()

	kind, err := models.ParseKind(*kindFlag)
	if err != nil {
		logger.Fatal("kind", zap.Error(err))
	}
	if *dataPath == "" {
		*dataPath = filepath.Join("data", string(kind)+".json")
	}
	if *outImg == "" {
		*outImg = filepath.Join("data", string(kind)+"_curve.png")
	}
	if *outCsv == "" {
		*outCsv = filepath.Join("data", string(kind)+"_curve.csv")
	}

	rows, err := training.ReadDataset(*dataPath)
	if err != nil {
		logger.Fatal("read dataset", zap.Error(err))
	}
	ds, err := training.BuildDataset(kind, rows)
	if err != nil {
		logger.Fatal("build dataset", zap.Error(err))
	}

	cut := int(0.8 * float64(len(ds.X)))
	Xtrain, ytrain := ds.X[:cut], ds.Y[:cut]
	Xtest, ytest := ds.X[cut:], ds.Y[cut:]
	if len(Xtest) == 0 {
		logger.Fatal("dataset too small for a holdout", zap.Int("rows", len(ds.X)))
	}

	ctx := context.Background()
	curve := make([]point, 0, *points)
	for _, s := range sizes(len(Xtrain), *points, *minSize) {
		m := models.NewPipeline(kind, ds.Columns, regressor(kind, *algo))
		if err := m.Fit(ctx, Xtrain[:s], ytrain[:s]); err != nil {
			logger.Fatal("fit", zap.Int("size", s), zap.Error(err))
		}
		pTest := m.Predict(Xtest)
		pt := point{
			size:      s,
			trainR2:   m.TrainR2,
			trainRMSE: m.TrainRMSE,
			testR2:    models.R2(ytest, pTest),
			testRMSE:  models.RMSE(ytest, pTest),
		}
		curve = append(curve, pt)
		logger.Info("curve point",
			zap.String("regressor", m.Regressor.Name()),
			zap.Int("size", s),
			zap.Float64("train_r2", pt.trainR2),
			zap.Float64("test_r2", pt.testR2),
			zap.Float64("test_rmse", pt.testRMSE))
	}

	if err := writeCSV(*outCsv, curve); err != nil {
		logger.Error("write csv", zap.Error(err))
	} else {
		logger.Info("curve saved", zap.String("path", *outCsv))
	}
	if err := plotCurve(*outImg, string(kind), curve); err != nil {
		logger.Error("write png", zap.Error(err))
	} else {
		logger.Info("plot saved", zap.String("path", *outImg))
	}
}

func regressor(kind models.Kind, algo string) models.Regressor {
	switch algo {
	case "dt":
		return models.NewDecisionTree()
	case "rf":
		return models.NewRandomForest()
	case "gb":
		return models.NewGradientBoosting()
	case "br":
		return models.NewBayesianRidge()
	case "mlp":
		return models.NewMLP()
	}
	return models.NewRegressor(kind)
}

// sizes spreads points training sizes evenly up to total, never below min.
func sizes(total, points, min int) []int {
	if points < 1 {
		points = 1
	}
	out := make([]int, 0, points)
	for i := 1; i <= points; i++ {
		s := int(math.Max(float64(min), float64(i)/float64(points)*float64(total)))
		if s > total {
			s = total
		}
		if len(out) > 0 && out[len(out)-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}

func writeCSV(path string, curve []point) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"size", "train_r2", "test_r2", "train_rmse", "test_rmse"}); err != nil {
		return err
	}
	for _, p := range curve {
		rec := []string{
			strconv.Itoa(p.size),
			fmt.Sprintf("%.6f", p.trainR2),
			fmt.Sprintf("%.6f", p.testR2),
			fmt.Sprintf("%.6f", p.trainRMSE),
			fmt.Sprintf("%.6f", p.testRMSE),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func plotCurve(path, kind string, curve []point) error {
	p := plot.New()
	p.Title.Text = "Learning curve: " + kind
	p.X.Label.Text = "training rows"
	p.Y.Label.Text = "R²"

	train := make(plotter.XYs, len(curve))
	test := make(plotter.XYs, len(curve))
	for i, c := range curve {
		train[i].X, train[i].Y = float64(c.size), c.trainR2
		test[i].X, test[i].Y = float64(c.size), c.testR2
	}
	if err := plotutil.AddLinePoints(p, "train", train, "holdout", test); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
