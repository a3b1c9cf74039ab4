package models

import "gonum.org/v1/gonum/stat"

// StandardScaler centers each column and scales it to unit variance.
// Constant columns keep a scale of 1.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Fit(X [][]float64) {
	if len(X) == 0 {
		return
	}
	p := len(X[0])
	s.Mean = make([]float64, p)
	s.Scale = make([]float64, p)
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		s.Scale[j] = std
		if std == 0 {
			s.Scale[j] = 1
		}
	}
}

func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.Mean) {
				v = (v - s.Mean[j]) / s.Scale[j]
			}
			r[j] = v
		}
		out[i] = r
	}
	return out
}
