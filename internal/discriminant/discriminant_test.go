// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package discriminant

import (
	"testing"

	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/score"
)

func emptyTable(n int) *peptide.Table {
	t := &peptide.Table{Peptides: make([]peptide.Peptide, n)}
	for i := range t.Peptides {
		t.Peptides[i].Sequence = []byte("AAAR")
	}
	return t
}

func TestFitFallsBackWithFewDecoys(t *testing.T) {
	table := emptyTable(4)
	psms := []score.Feature{
		{Peptide: 0, Rank: 1, Label: 1, Hyperscore: 10, Poisson: -5},
		{Peptide: 1, Rank: 1, Label: 1, Hyperscore: 8, Poisson: -3},
		{Peptide: 2, Rank: 1, Label: -1, Hyperscore: 2, Poisson: -1},
		{Peptide: 3, Rank: 1, Label: 1, Hyperscore: 9, Poisson: -4},
	}
	m := Fit(table, psms)
	if !m.Fallback {
		t.Fatalf("expected fallback mode with only 1 decoy present")
	}
}

func TestAssignQValuesMonotone(t *testing.T) {
	psms := []score.Feature{
		{DiscriminantScore: 10, Label: 1},
		{DiscriminantScore: 9, Label: 1},
		{DiscriminantScore: 8, Label: -1},
		{DiscriminantScore: 7, Label: 1},
		{DiscriminantScore: 6, Label: -1},
	}
	AssignQValues(psms)
	for i := 1; i < len(psms); i++ {
		if psms[i].SpectrumQ < psms[i-1].SpectrumQ {
			t.Fatalf("q-values are not monotone non-decreasing with rank at index %d: %v", i, psms)
		}
	}
}

func TestAssignPeptideQValuesBroadcastsAcrossDuplicatePeptides(t *testing.T) {
	psms := []score.Feature{
		{Peptide: 0, DiscriminantScore: 10, Label: 1},
		{Peptide: 0, DiscriminantScore: 9, Label: 1},
		{Peptide: 1, DiscriminantScore: 8, Label: -1},
	}
	AssignPeptideQValues(psms)
	if psms[0].PeptideQ != psms[1].PeptideQ {
		t.Fatalf("expected both PSMs for peptide 0 to share a peptide-level q-value, got %v and %v", psms[0].PeptideQ, psms[1].PeptideQ)
	}
}

func TestFallbackScoreRanksByNegatedPoisson(t *testing.T) {
	table := emptyTable(2)
	psms := []score.Feature{
		{Peptide: 0, Poisson: -5},
		{Peptide: 1, Poisson: -1},
	}
	m := &Model{Fallback: true}
	m.Score(table, psms)
	if psms[0].DiscriminantScore <= psms[1].DiscriminantScore {
		t.Fatalf("expected the lower (more significant) poisson value to score higher: %+v", psms)
	}
}
