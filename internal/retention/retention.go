// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package retention fits a ridge-regularized linear regression mapping a
// deterministic peptide embedding to aligned retention time, and uses it
// to predict a retention time for every PSM as a rescoring feature.
// Grounded on crates/sage/src/ml/retention_model.rs in original_source.
package retention

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/arlowe/specter/internal/mass"
	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/score"
)

// features is the embedding length 3*A+3, A=20.
var features = 3*len(mass.ValidAA) + 3

const ridgeLambda = 0.1
const r2Threshold = 0.7

// Model is a fitted (or failed-to-fit) retention time predictor.
type Model struct {
	beta []float64
	R2   float64
	fit  bool
}

// Embed computes the deterministic, fixed-length feature vector for p:
// residue counts, N-/C-terminal residue counts, peptide length, ln(1+mass),
// and an intercept term.
func Embed(p *peptide.Peptide) []float64 {
	a := len(mass.ValidAA)
	v := make([]float64, features)
	n := len(p.Sequence)
	cterm := n - 3
	for i, aa := range p.Sequence {
		idx := mass.Index(aa)
		if idx < 0 {
			continue
		}
		v[idx]++
		switch {
		case i == 0 || i == 1:
			v[a+idx]++
		case i == cterm || i == cterm+1:
			v[2*a+idx]++
		}
	}
	v[3*a] = float64(n)
	v[3*a+1] = math.Log1p(p.Monoisotopic)
	v[3*a+2] = 1
	return v
}

// Fit trains a ridge-regularized linear regression on the subset of psms
// with Label==1 (target) and SpectrumQ<=0.01. It returns ok=false (a no-op
// model) if there are fewer than `features` training examples or if the
// fitted R² is below 0.7.
func Fit(table *peptide.Table, psms []score.Feature) (*Model, bool) {
	var rows [][]float64
	var rt []float64
	for _, f := range psms {
		if f.Label != 1 || f.SpectrumQ > 0.01 {
			continue
		}
		rows = append(rows, Embed(table.Get(f.Peptide)))
		rt = append(rt, float64(f.AlignedRT))
	}
	if len(rows) < features {
		return &Model{}, false
	}

	n := len(rows)
	x := mat.NewDense(n, features, nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}
	y := mat.NewDense(n, 1, rt)

	var rtMean, rtVar float64
	for _, v := range rt {
		rtMean += v
	}
	rtMean /= float64(n)
	for _, v := range rt {
		rtVar += (v - rtMean) * (v - rtMean)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < features; i++ {
		xtx.Set(i, i, xtx.At(i, i)+ridgeLambda)
	}
	var xty mat.Dense
	xty.Mul(x.T(), y)

	beta, ok := solve(&xtx, &xty)
	if !ok {
		return &Model{}, false
	}

	var pred mat.Dense
	pred.Mul(x, beta)
	var sse float64
	for i := 0; i < n; i++ {
		d := pred.At(i, 0) - rt[i]
		sse += d * d
	}
	r2 := 1.0
	if rtVar > 0 {
		r2 = 1 - sse/rtVar
	}
	if r2 < r2Threshold {
		return &Model{R2: r2}, false
	}

	flat := make([]float64, features)
	for i := range flat {
		flat[i] = beta.At(i, 0)
	}
	return &Model{beta: flat, R2: r2, fit: true}, true
}

// solve attempts a Cholesky factorization of the (now SPD, thanks to the
// ridge term) cov matrix; if that fails it falls back to a general dense
// solve.
func solve(cov, b *mat.Dense) (*mat.Dense, bool) {
	n, _ := cov.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}
	var chol mat.Cholesky
	if chol.Factorize(sym) {
		var beta mat.Dense
		if err := chol.SolveTo(&beta, b); err == nil {
			return &beta, true
		}
	}

	var beta mat.Dense
	if err := beta.Solve(cov, b); err != nil {
		return nil, false
	}
	return &beta, true
}

// Predict predicts retention times for every PSM in psms, clamping the
// linear output to [0,1] and setting DeltaRT. It is a no-op (leaving
// predicted_rt unset) if m did not fit successfully.
func Predict(table *peptide.Table, m *Model, psms []score.Feature) {
	if m == nil || !m.fit {
		return
	}
	for i := range psms {
		v := Embed(table.Get(psms[i].Peptide))
		var sum float64
		for j, x := range v {
			sum += x * m.beta[j]
		}
		rt := math.Min(1, math.Max(0, sum))
		psms[i].PredictedRT = rt
		psms[i].DeltaRT = math.Abs(float64(psms[i].AlignedRT) - rt)
	}
}
