// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package discriminant fits a small linear discriminant over PSM features
// and assigns target-decoy q-values from the resulting ranking.
package discriminant

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/score"
)

// nFeatures is the dimensionality of the discriminant feature vector:
// hyperscore, poisson, delta-mass-ppm, delta-rt, matched-peak-count,
// peptide length, charge.
const nFeatures = 7

const minDecoys = 50

// Model is a fitted (or fallback) discriminant.
type Model struct {
	mean, std [nFeatures]float64
	w         []float64 // projection direction, nil in fallback mode
	Fallback  bool
}

func vector(table *peptide.Table, f *score.Feature) [nFeatures]float64 {
	p := table.Get(f.Peptide)
	var deltaPPM float64
	if f.CalcMass != 0 {
		deltaPPM = f.DeltaMass() / f.CalcMass * 1e6
	}
	return [nFeatures]float64{
		f.Hyperscore,
		f.Poisson,
		deltaPPM,
		f.DeltaRT,
		float64(f.PeaksMatched),
		float64(len(p.Sequence)),
		float64(f.Charge),
	}
}

// Fit standardizes the feature vectors of the top-ranked PSM per spectrum
// and fits a two-class linear discriminant: class means and pooled
// covariance over the standardized features, projected along
// (mu+ - mu-)*Sigma^-1. Chimera mode reports a second, lower-ranked PSM per
// scan; those are excluded from fitting here so the two correlated hits
// from one spectrum don't both enter the training set, but Score still
// scores every PSM passed to it, rank 2 included. It falls back to
// Fallback=true (rank-by-poisson mode) if there are 50 or fewer decoys, or
// if the pooled covariance cannot be inverted.
func Fit(table *peptide.Table, psms []score.Feature) *Model {
	m := &Model{}

	var top []*score.Feature
	for i := range psms {
		if psms[i].Rank == 1 {
			top = append(top, &psms[i])
		}
	}

	n := len(top)
	if n == 0 {
		m.Fallback = true
		return m
	}

	raw := make([][nFeatures]float64, n)
	for i, f := range top {
		raw[i] = vector(table, f)
	}

	for j := 0; j < nFeatures; j++ {
		col := make([]float64, n)
		for i := range raw {
			col[i] = raw[i][j]
		}
		mean, variance := stat.MeanVariance(col, nil)
		m.mean[j] = mean
		if variance <= 0 {
			variance = 1
		}
		m.std[j] = math.Sqrt(variance)
	}

	nDecoy := 0
	var posSum, negSum [nFeatures]float64
	nPos, nNeg := 0, 0
	std := make([][]float64, n)
	for i, f := range top {
		row := make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			row[j] = (raw[i][j] - m.mean[j]) / m.std[j]
		}
		std[i] = row
		if f.Label > 0 {
			nPos++
			for j, v := range row {
				posSum[j] += v
			}
		} else {
			nDecoy++
			nNeg++
			for j, v := range row {
				negSum[j] += v
			}
		}
	}

	if nDecoy <= minDecoys || nPos == 0 || nNeg == 0 {
		m.Fallback = true
		return m
	}

	posMean, negMean := posSum, negSum
	for j := 0; j < nFeatures; j++ {
		posMean[j] /= float64(nPos)
		negMean[j] /= float64(nNeg)
	}
	mat4rows := mat.NewDense(n, nFeatures, nil)
	for i, row := range std {
		mu := &negMean
		if top[i].Label > 0 {
			mu = &posMean
		}
		centered := make([]float64, nFeatures)
		for j, v := range row {
			centered[j] = v - mu[j]
		}
		mat4rows.SetRow(i, centered)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, mat4rows, nil)

	var inv mat.Dense
	if err := inv.Inverse(&cov); err != nil {
		m.Fallback = true
		return m
	}

	diff := mat.NewVecDense(nFeatures, nil)
	for j := 0; j < nFeatures; j++ {
		diff.SetVec(j, posSum[j]/float64(nPos)-negSum[j]/float64(nNeg))
	}
	var proj mat.VecDense
	proj.MulVec(&inv, diff)
	m.w = make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		m.w[j] = proj.AtVec(j)
	}
	return m
}

// Score computes the discriminant (or, in fallback mode, the negated
// poisson p-value log so that higher still means "better") for every PSM
// and writes it into DiscriminantScore.
func (m *Model) Score(table *peptide.Table, psms []score.Feature) {
	for i := range psms {
		if m.Fallback {
			psms[i].DiscriminantScore = -psms[i].Poisson
			continue
		}
		v := vector(table, &psms[i])
		var sum float64
		for j := 0; j < nFeatures; j++ {
			std := (v[j] - m.mean[j]) / m.std[j]
			sum += std * m.w[j]
		}
		psms[i].DiscriminantScore = sum
	}
}

// AssignQValues sorts psms by discriminant score descending (the caller is
// expected to have already called Score), sweeps target/decoy counts to
// compute FDR = (#decoys+1)/#targets at each rank, then monotonizes q from
// the bottom up (each q becomes the minimum FDR at its rank or any rank
// below it), so q never decreases from one rank to the next down the
// list. It returns the number of
// PSMs at q <= 0.01.
func AssignQValues(psms []score.Feature) int {
	sort.SliceStable(psms, func(i, j int) bool {
		return psms[i].DiscriminantScore > psms[j].DiscriminantScore
	})

	q := make([]float64, len(psms))
	targets, decoys := 0, 0
	for i := range psms {
		if psms[i].Label > 0 {
			targets++
		} else {
			decoys++
		}
		if targets == 0 {
			q[i] = 1
			continue
		}
		q[i] = float64(decoys+1) / float64(targets)
	}

	minSeen := math.Inf(1)
	for i := len(q) - 1; i >= 0; i-- {
		if q[i] < minSeen {
			minSeen = q[i]
		}
		q[i] = minSeen
	}

	count := 0
	for i := range psms {
		psms[i].SpectrumQ = q[i]
		if q[i] <= 0.01 {
			count++
		}
	}
	return count
}

// AssignPeptideQValues runs the same target-decoy sweep as AssignQValues,
// but over one representative PSM per distinct peptide (its
// highest-discriminant-scoring PSM), then broadcasts each peptide's
// resulting q-value back to every PSM for that peptide. It reads only the
// Peptide, DiscriminantScore and Label fields of psms, so Score must have
// run first; it does not reorder psms or change their SpectrumQ.
func AssignPeptideQValues(psms []score.Feature) {
	best := make(map[peptide.Handle]int, len(psms))
	for i := range psms {
		h := psms[i].Peptide
		if cur, ok := best[h]; !ok || psms[i].DiscriminantScore > psms[cur].DiscriminantScore {
			best[h] = i
		}
	}

	reps := make([]score.Feature, 0, len(best))
	repHandle := make([]peptide.Handle, 0, len(best))
	for h, i := range best {
		reps = append(reps, psms[i])
		repHandle = append(repHandle, h)
	}
	AssignQValues(reps)

	peptideQ := make(map[peptide.Handle]float64, len(reps))
	for i, r := range reps {
		peptideQ[repHandle[i]] = r.SpectrumQ
	}
	for i := range psms {
		psms[i].PeptideQ = peptideQ[psms[i].Peptide]
	}
}
