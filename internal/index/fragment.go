// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"github.com/arlowe/specter/internal/mass"
	"github.com/arlowe/specter/internal/peptide"
)

// Fragment is a single theoretical singly-charged b- or y-ion: its m/z, the
// handle of the peptide it belongs to, and that peptide's precursor
// (neutral monoisotopic) mass, cached here so the index can reject
// candidates by precursor mass without dereferencing the peptide table.
type Fragment struct {
	MZ        float64
	Handle    peptide.Handle
	Precursor float64
	Kind      mass.FragmentKind
}

// Ions emits every b- and y-ion of p (there are len(p.Sequence)-1 of each)
// whose m/z falls within [fragMin, fragMax].
func Ions(h peptide.Handle, p *peptide.Peptide, fragMin, fragMax float64) []Fragment {
	n := len(p.Sequence)
	if n < 2 {
		return nil
	}
	frags := make([]Fragment, 0, 2*(n-1))

	bRunning := p.NTermMod + mass.Proton
	for i := 0; i < n-1; i++ {
		m, _ := mass.Residue(p.Sequence[i])
		bRunning += m
		if i < len(p.ModMass) {
			bRunning += p.ModMass[i]
		}
		if bRunning >= fragMin && bRunning <= fragMax {
			frags = append(frags, Fragment{MZ: bRunning, Handle: h, Precursor: p.Monoisotopic, Kind: mass.BIon})
		}
	}

	yRunning := p.CTermMod + mass.Water + mass.Proton
	for i := n - 1; i > 0; i-- {
		m, _ := mass.Residue(p.Sequence[i])
		yRunning += m
		if i < len(p.ModMass) {
			yRunning += p.ModMass[i]
		}
		if yRunning >= fragMin && yRunning <= fragMax {
			frags = append(frags, Fragment{MZ: yRunning, Handle: h, Precursor: p.Monoisotopic, Kind: mass.YIon})
		}
	}

	return frags
}
