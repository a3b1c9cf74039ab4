package models

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// MLP is a feed-forward regression network with two ReLU hidden layers and
// inverted dropout on the hidden activations during training.
type MLP struct {
	Hidden1      int
	Hidden2      int
	Dropout      float64
	LearningRate float64
	Epochs       int
	BatchSize    int
	Seed         int64
	Sizes        []int
	Weights      [][]float64 // Weights[l][o*in+i]
	Biases       [][]float64
	YMean        float64
	YScale       float64
}

func NewMLP() *MLP {
	return &MLP{Hidden1: 32, Hidden2: 16, Dropout: 0.2, LearningRate: 0.005, Epochs: 200, BatchSize: 32, Seed: 42}
}

func (m *MLP) Name() string { return "MLP" }

func (m *MLP) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	if m.BatchSize <= 0 {
		m.BatchSize = 32
	}
	rng := rand.New(rand.NewSource(m.Seed))
	m.YMean, m.YScale = stat.PopMeanStdDev(y, nil)
	if m.YScale == 0 {
		m.YScale = 1
	}
	target := make([]float64, len(y))
	for i, v := range y {
		target[i] = (v - m.YMean) / m.YScale
	}
	m.Sizes = []int{len(X[0]), m.Hidden1, m.Hidden2, 1}
	layers := len(m.Sizes) - 1
	m.Weights = make([][]float64, layers)
	m.Biases = make([][]float64, layers)
	for l := 0; l < layers; l++ {
		in, out := m.Sizes[l], m.Sizes[l+1]
		scale := math.Sqrt(2.0 / float64(in))
		m.Weights[l] = make([]float64, in*out)
		for i := range m.Weights[l] {
			m.Weights[l][i] = rng.NormFloat64() * scale
		}
		m.Biases[l] = make([]float64, out)
	}

	opt := newAdam(m.LearningRate)
	gW := zerosLike(m.Weights)
	gB := zerosLike(m.Biases)
	idx := rng.Perm(len(X))
	for epoch := 0; epoch < m.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for start := 0; start < len(idx); start += m.BatchSize {
			end := start + m.BatchSize
			if end > len(idx) {
				end = len(idx)
			}
			resetZeros(gW)
			resetZeros(gB)
			for _, i := range idx[start:end] {
				m.backprop(rng, X[i], target[i], gW, gB)
			}
			inv := 1.0 / float64(end-start)
			scaleAll(gW, inv)
			scaleAll(gB, inv)
			opt.tick()
			opt.update(0, m.Weights, gW)
			opt.update(1, m.Biases, gB)
		}
	}
	return nil
}

func (m *MLP) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(m.Weights) == 0 {
		return out
	}
	scale := m.YScale
	if scale == 0 {
		scale = 1
	}
	for i, x := range X {
		a := x
		for l := range m.Weights {
			a = m.layer(l, a)
			if l < len(m.Weights)-1 {
				for o := range a {
					a[o] = math.Max(0, a[o])
				}
			}
		}
		out[i] = a[0]*scale + m.YMean
	}
	return out
}

func (m *MLP) layer(l int, a []float64) []float64 {
	in, out := m.Sizes[l], m.Sizes[l+1]
	z := make([]float64, out)
	for o := 0; o < out; o++ {
		s := m.Biases[l][o]
		w := m.Weights[l][o*in : (o+1)*in]
		for i := 0; i < in && i < len(a); i++ {
			s += w[i] * a[i]
		}
		z[o] = s
	}
	return z
}

// backprop accumulates squared-error gradients for one sample into gW and gB.
func (m *MLP) backprop(rng *rand.Rand, x []float64, target float64, gW, gB [][]float64) {
	layers := len(m.Weights)
	acts := make([][]float64, 0, layers+1)
	zs := make([][]float64, 0, layers)
	masks := make([][]float64, 0, layers)
	acts = append(acts, x)
	keep := 1 - m.Dropout
	a := x
	for l := 0; l < layers; l++ {
		z := m.layer(l, a)
		next := make([]float64, len(z))
		mask := make([]float64, len(z))
		if l < layers-1 {
			for o := range z {
				mask[o] = 1
				if m.Dropout > 0 {
					mask[o] = 0
					if rng.Float64() < keep {
						mask[o] = 1 / keep
					}
				}
				next[o] = math.Max(0, z[o]) * mask[o]
			}
		} else {
			copy(next, z)
		}
		zs = append(zs, z)
		masks = append(masks, mask)
		acts = append(acts, next)
		a = next
	}

	delta := []float64{acts[layers][0] - target}
	for l := layers - 1; l >= 0; l-- {
		in, out := m.Sizes[l], m.Sizes[l+1]
		prev := acts[l]
		for o := 0; o < out; o++ {
			gB[l][o] += delta[o]
			for i := 0; i < in; i++ {
				gW[l][o*in+i] += delta[o] * prev[i]
			}
		}
		if l == 0 {
			break
		}
		back := make([]float64, in)
		for i := 0; i < in; i++ {
			if zs[l-1][i] <= 0 {
				continue
			}
			s := 0.0
			for o := 0; o < out; o++ {
				s += m.Weights[l][o*in+i] * delta[o]
			}
			back[i] = s * masks[l-1][i]
		}
		delta = back
	}
}

func resetZeros(p [][]float64) {
	for i := range p {
		for j := range p[i] {
			p[i][j] = 0
		}
	}
}

func scaleAll(p [][]float64, f float64) {
	for i := range p {
		for j := range p[i] {
			p[i][j] *= f
		}
	}
}
