// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package score implements the per-spectrum candidate scoring engine:
// hyperscore and poisson candidate accumulation, chimeric search, isotope
// error enumeration, and rank-k PSM selection.
package score

import "github.com/arlowe/specter/internal/peptide"

// Feature is a peptide-spectrum match (PSM). It is created by Score,
// mutated by internal/retention and internal/discriminant as the pipeline
// rescores it, and finally consumed by internal/report.
type Feature struct {
	SpecID int

	Peptide peptide.Handle
	Scan    string
	Rank    int
	Charge  int

	ExpMass      float64
	CalcMass     float64
	IsotopeError int

	PeaksMatched int
	Hyperscore   float64
	Poisson      float64

	// FragPPMMean and FragPPMStd summarize the ppm mass error
	// distribution of matched fragments.
	FragPPMMean float64
	FragPPMStd  float64

	AlignedRT   float64
	PredictedRT float64
	DeltaRT     float64

	DiscriminantScore float64

	// Label is +1 for a target, -1 for a decoy.
	Label int8

	SpectrumQ float64
	PeptideQ  float64
}

// DeltaMass is the precursor mass error: calculated mass minus experimental
// (isotope-corrected) mass.
func (f *Feature) DeltaMass() float64 {
	return f.CalcMass - f.ExpMass
}
