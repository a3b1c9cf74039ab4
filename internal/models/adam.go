package models

import "math"

// adam applies bias-corrected Adam updates to layered parameter slices.
//
//	m = β1·m + (1-β1)·g
//	v = β2·v + (1-β2)·g²
//	w = w - lr · m̂ / (√v̂ + ε)
type adam struct {
	lr           float64
	beta1, beta2 float64
	eps          float64
	step         int
	m, v         map[int][][]float64
}

func newAdam(lr float64) *adam {
	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8, m: map[int][][]float64{}, v: map[int][][]float64{}}
}

// tick advances the shared step counter once per mini-batch.
func (a *adam) tick() { a.step++ }

// update applies one step to the parameter group identified by id.
func (a *adam) update(id int, params, grads [][]float64) {
	m, ok := a.m[id]
	if !ok {
		m = zerosLike(params)
		a.m[id] = m
		a.v[id] = zerosLike(params)
	}
	v := a.v[id]
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))
	for l := range params {
		for i, g := range grads[l] {
			m[l][i] = a.beta1*m[l][i] + (1-a.beta1)*g
			v[l][i] = a.beta2*v[l][i] + (1-a.beta2)*g*g
			params[l][i] -= a.lr * (m[l][i] / c1) / (math.Sqrt(v[l][i]/c2) + a.eps)
		}
	}
}

func zerosLike(p [][]float64) [][]float64 {
	out := make([][]float64, len(p))
	for i := range p {
		out[i] = make([]float64, len(p[i]))
	}
	return out
}
