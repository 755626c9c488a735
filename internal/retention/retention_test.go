// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package retention

import (
	"math"
	"testing"

	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/score"
)

func TestFitRejectsTooFewExamples(t *testing.T) {
	table := &peptide.Table{Peptides: []peptide.Peptide{
		{Sequence: []byte("AAAR"), Monoisotopic: 400},
	}}
	psms := []score.Feature{
		{Peptide: 0, Label: 1, SpectrumQ: 0, AlignedRT: 0.5},
	}
	m, ok := Fit(table, psms)
	if ok {
		t.Fatalf("expected Fit to reject a training set smaller than the embedding, got model %+v", m)
	}
}

func TestEmbedIsDeterministic(t *testing.T) {
	p := &peptide.Peptide{Sequence: []byte("AAAR"), Monoisotopic: 400}
	a := Embed(p)
	b := Embed(p)
	if len(a) != features {
		t.Fatalf("expected embedding length %d, got %d", features, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Embed is not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestPredictClampsToUnitInterval(t *testing.T) {
	table := &peptide.Table{Peptides: []peptide.Peptide{
		{Sequence: []byte("AAAR"), Monoisotopic: 400},
	}}
	m := &Model{fit: true, beta: make([]float64, features)}
	// Force a wildly out-of-range prediction by setting a single huge
	// coefficient on the intercept term.
	m.beta[features-1] = 1000
	psms := []score.Feature{{Peptide: 0, AlignedRT: 0.2}}
	Predict(table, m, psms)
	if psms[0].PredictedRT != 1 {
		t.Fatalf("expected predicted RT clamped to 1, got %v", psms[0].PredictedRT)
	}
	if math.Abs(psms[0].DeltaRT-0.8) > 1e-9 {
		t.Fatalf("expected delta RT 0.8, got %v", psms[0].DeltaRT)
	}
}

func TestPredictNoopWhenUnfit(t *testing.T) {
	table := &peptide.Table{Peptides: []peptide.Peptide{{Sequence: []byte("AAAR")}}}
	psms := []score.Feature{{Peptide: 0, AlignedRT: 0.2}}
	Predict(table, &Model{}, psms)
	if psms[0].PredictedRT != 0 {
		t.Fatalf("expected no-op on an unfit model, got PredictedRT=%v", psms[0].PredictedRT)
	}
}
