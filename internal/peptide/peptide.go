// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package peptide digests protein sequences into candidate peptides,
// applies static and variable modifications, and generates target-decoy
// pairs. Peptides live in a single arena (Table) for the life of a run and
// are addressed by Handle, a dense integer index, rather than by pointer —
// this is the representation the fragment index in internal/index is built
// over.
package peptide

import (
	"fmt"

	"github.com/arlowe/specter/internal/mass"
)

// Handle is a dense arena index into a Table. It is the unit of identity
// the fragment index and scorer pass around instead of *Peptide.
type Handle int32

// Peptide is a digested sequence together with its modification state and
// precomputed monoisotopic neutral mass.
type Peptide struct {
	Sequence []byte
	NTermMod float64
	CTermMod float64
	// ModMass holds, for each residue in Sequence, the additional mass
	// contributed by a variable modification at that position (0 if none).
	ModMass []float64

	Monoisotopic float64
	Decoy        bool
	Protein      string
}

// Mass recomputes the monoisotopic neutral mass of the peptide from its
// residues and modifications: sum of residue masses + water + all
// modification deltas.
func (p *Peptide) Mass() (float64, error) {
	total := mass.Water + p.NTermMod + p.CTermMod
	for i, aa := range p.Sequence {
		m, ok := mass.Residue(aa)
		if !ok {
			return 0, fmt.Errorf("peptide: non-canonical residue %q in sequence %q", aa, p.Sequence)
		}
		total += m
		if i < len(p.ModMass) {
			total += p.ModMass[i]
		}
	}
	return total, nil
}

// Len reports the number of residues in the peptide.
func (p *Peptide) Len() int { return len(p.Sequence) }

// String returns the residue sequence as a string.
func (p *Peptide) String() string { return string(p.Sequence) }

// Table is the arena of peptides generated by Digest. Peptides are stored
// in a stable vector and addressed by Handle for the remainder of the run.
type Table struct {
	Peptides []Peptide
}

// Get returns the peptide at h.
func (t *Table) Get(h Handle) *Peptide { return &t.Peptides[h] }

// Len reports the number of peptides in the table.
func (t *Table) Len() int { return len(t.Peptides) }

func (t *Table) add(p Peptide) Handle {
	h := Handle(len(t.Peptides))
	t.Peptides = append(t.Peptides, p)
	return h
}
