package models

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BayesianRidge is a linear model whose weight precision (Lambda) and noise
// precision (Alpha) are estimated by evidence maximization.
type BayesianRidge struct {
	MaxIter   int
	Tol       float64
	Alpha1    float64
	Alpha2    float64
	Lambda1   float64
	Lambda2   float64
	Coef      []float64
	Intercept float64
	Alpha     float64
	Lambda    float64
}

func NewBayesianRidge() *BayesianRidge {
	return &BayesianRidge{MaxIter: 300, Tol: 1e-3, Alpha1: 1e-6, Alpha2: 1e-6, Lambda1: 1e-6, Lambda2: 1e-6}
}

func (br *BayesianRidge) Name() string { return "BayesianRidge" }

func (br *BayesianRidge) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	n, p := len(X), len(X[0])

	xMean := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			col[i] = X[i][j]
		}
		xMean[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			xc.Set(i, j, X[i][j]-xMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	xtx := mat.NewSymDense(p, nil)
	xtx.SymOuterK(1, xc.T())
	var es mat.EigenSym
	if ok := es.Factorize(xtx, false); !ok {
		return fmt.Errorf("bayesian ridge: eigendecomposition failed")
	}
	eig := es.Values(nil)
	for i := range eig {
		if eig[i] < 0 {
			eig[i] = 0
		}
	}
	var xty mat.VecDense
	xty.MulVec(xc.T(), yc)

	variance := stat.PopVariance(y, nil)
	alpha := 1.0 / (variance + 1e-12)
	lambda := 1.0
	coef := mat.NewVecDense(p, nil)
	prev := make([]float64, p)
	a := mat.NewDense(p, p, nil)
	var pred mat.VecDense

	for iter := 0; iter < br.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.Copy(xtx)
		for i := 0; i < p; i++ {
			a.Set(i, i, a.At(i, i)+lambda/alpha)
		}
		if err := coef.SolveVec(a, &xty); err != nil {
			// constant columns make the system ill-conditioned; the solution is still usable
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return fmt.Errorf("bayesian ridge: solve: %w", err)
			}
		}

		pred.MulVec(xc, coef)
		sse := 0.0
		for i := 0; i < n; i++ {
			d := yc.AtVec(i) - pred.AtVec(i)
			sse += d * d
		}
		gamma := 0.0
		for _, e := range eig {
			gamma += alpha * e / (lambda + alpha*e)
		}
		norm := mat.Dot(coef, coef)
		lambda = (gamma + 2*br.Lambda1) / (norm + 2*br.Lambda2)
		alpha = (float64(n) - gamma + 2*br.Alpha1) / (sse + 2*br.Alpha2)

		delta := 0.0
		for j := 0; j < p; j++ {
			delta += math.Abs(prev[j] - coef.AtVec(j))
			prev[j] = coef.AtVec(j)
		}
		if iter > 0 && delta < br.Tol {
			break
		}
	}

	br.Coef = make([]float64, p)
	br.Intercept = yMean
	for j := 0; j < p; j++ {
		br.Coef[j] = coef.AtVec(j)
		br.Intercept -= xMean[j] * br.Coef[j]
	}
	br.Alpha = alpha
	br.Lambda = lambda
	return nil
}

func (br *BayesianRidge) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		s := br.Intercept
		for j := range br.Coef {
			if j < len(x) {
				s += br.Coef[j] * x[j]
			}
		}
		out[i] = s
	}
	return out
}
