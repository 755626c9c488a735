// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package peptide

// Site markers used in place of a residue code for Mod.Residue to denote a
// terminal (rather than residue-specific) modification.
const (
	AnyNTerm byte = 0
	AnyCTerm byte = 1
)

// Mod is a single static or variable modification: an additive mass applied
// either to a specific residue or to a peptide terminus.
type Mod struct {
	// Residue is the one-letter amino acid code this mod applies to, or
	// one of AnyNTerm/AnyCTerm for a terminal modification.
	Residue byte
	Delta   float64
	// Terminal is true when Residue is AnyNTerm or AnyCTerm rather than
	// an amino acid code.
	Terminal bool
}

// site is an internal representation of a location within a peptide that a
// variable modification could be applied to.
type site struct {
	pos int // index into the peptide sequence, -1 for the N-terminus, len(seq) for the C-terminus
	mod Mod
}

// variableSites returns every (position, mod) pair at which one of mods
// could apply to seq, grouped by mod in the order of mods and in ascending
// position within each mod. modVariants sorts the result by position
// before enumerating site combinations.
func variableSites(seq []byte, mods []Mod) []site {
	var sites []site
	for _, m := range mods {
		if m.Terminal {
			pos := -1
			if m.Residue == AnyCTerm {
				pos = len(seq)
			}
			sites = append(sites, site{pos: pos, mod: m})
			continue
		}
		for i, aa := range seq {
			if aa == m.Residue {
				sites = append(sites, site{pos: i, mod: m})
			}
		}
	}
	return sites
}
