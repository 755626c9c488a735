// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package peptide

// Terminus identifies which side of a cleavage residue an enzyme cuts on.
type Terminus uint8

const (
	// CTerm cleaves after the cleavage residue (e.g. trypsin after K/R).
	CTerm Terminus = iota
	// NTerm cleaves before the cleavage residue (e.g. Asp-N before D).
	NTerm
)

// Enzyme is a tagged description of a proteolytic cleavage rule. It is kept
// as a small value type rather than an interface so the digest loop in
// digest.go can call Cleaves directly without dynamic dispatch.
type Enzyme struct {
	// Cleave lists residues after/before which the enzyme cuts.
	Cleave []byte
	// Restrict lists residues that block cleavage when they are the
	// next (CTerm) or previous (NTerm) residue across the site.
	Restrict []byte
	Terminal Terminus

	MissedCleavages int
	MinLen, MaxLen  int
	MinMass, MaxMass float64
}

// Cleaves reports whether the enzyme cuts the bond between prev and next,
// where prev immediately precedes next in the source sequence.
func (e Enzyme) Cleaves(prev, next byte) bool {
	switch e.Terminal {
	case CTerm:
		if !contains(e.Cleave, prev) {
			return false
		}
		return !contains(e.Restrict, next)
	case NTerm:
		if !contains(e.Cleave, next) {
			return false
		}
		return !contains(e.Restrict, prev)
	default:
		return false
	}
}

func contains(set []byte, b byte) bool {
	for _, s := range set {
		if s == b {
			return true
		}
	}
	return false
}

// Trypsin is the conventional trypsin digestion rule: cleave after K or R
// unless followed by P.
var Trypsin = Enzyme{
	Cleave:   []byte{'K', 'R'},
	Restrict: []byte{'P'},
	Terminal: CTerm,
}
