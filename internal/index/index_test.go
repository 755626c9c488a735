// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"testing"

	"github.com/arlowe/specter/internal/peptide"
)

func buildTestTable(t *testing.T) *peptide.Table {
	t.Helper()
	proteins := []peptide.Protein{{Accession: "P1", Sequence: []byte("MKAAARPEPTIDEKAAAAR")}}
	table, err := peptide.Digest(proteins, peptide.DigestParams{
		Enzyme:  peptide.Trypsin,
		MinLen:  2,
		MaxLen:  30,
		MaxMass: 1e6,
	})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	return table
}

func TestProbeFindsOwnFragments(t *testing.T) {
	table := buildTestTable(t)
	idx := Build(table, 0, 2000, 25)

	tol := Tolerance{Kind: PPM, Lo: -10, Hi: 10}
	for h := range table.Peptides {
		p := &table.Peptides[h]
		frags := Ions(peptide.Handle(h), p, 0, 2000)
		for _, f := range frags {
			lo := p.Monoisotopic - 0.01
			hi := p.Monoisotopic + 0.01
			found := false
			idx.Probe(f.MZ, tol, lo, hi, func(m Fragment) {
				if m.Handle == peptide.Handle(h) {
					found = true
				}
			})
			if !found {
				t.Errorf("peptide %d: probe did not return its own fragment %v", h, f.MZ)
			}
		}
	}
}

func TestBucketPrecursorBounds(t *testing.T) {
	table := buildTestTable(t)
	idx := Build(table, 0, 2000, 25)
	for _, b := range idx.buckets {
		if b.End <= b.Start {
			continue
		}
		for _, f := range idx.Fragments[b.Start:b.End] {
			if f.Precursor < b.MinPrecursor || f.Precursor > b.MaxPrecursor {
				t.Errorf("fragment precursor %v outside bucket bounds [%v,%v]", f.Precursor, b.MinPrecursor, b.MaxPrecursor)
			}
		}
	}
}

func TestProbeRejectsOutsidePrecursorWindow(t *testing.T) {
	table := buildTestTable(t)
	idx := Build(table, 0, 2000, 25)

	tol := Tolerance{Kind: PPM, Lo: -10, Hi: 10}
	p := &table.Peptides[0]
	frags := Ions(0, p, 0, 2000)
	if len(frags) == 0 {
		t.Skip("no fragments for first peptide")
	}
	var got []Fragment
	idx.Probe(frags[0].MZ, tol, p.Monoisotopic+100, p.Monoisotopic+200, func(f Fragment) {
		got = append(got, f)
	})
	for _, f := range got {
		if f.Handle == 0 {
			t.Errorf("probe returned handle 0 despite its precursor being outside the requested window")
		}
	}
}
