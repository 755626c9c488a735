// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mass holds the physical constants and monoisotopic mass tables
// used throughout specter: amino acid residue masses, water/proton/neutron
// deltas, and the b/y ion series offsets.
package mass

// Proton, Neutron and Water are monoisotopic masses in daltons used to
// convert between neutral peptide mass and observed ion m/z.
const (
	Proton  = 1.00727646688
	Neutron = 1.00866491588
	Water   = 18.0105646863
	NH3     = 17.02654910112
	CO      = 27.99491461956
)

// ValidAA lists the 20 canonical amino acid one-letter codes in a fixed,
// deterministic order. Indices into this table are used directly by the
// retention-time embedding in internal/retention.
var ValidAA = [20]byte{
	'A', 'C', 'D', 'E', 'F',
	'G', 'H', 'I', 'K', 'L',
	'M', 'N', 'P', 'Q', 'R',
	'S', 'T', 'V', 'W', 'Y',
}

// residueMass maps a canonical amino acid code to its monoisotopic residue
// mass (the mass of the amino acid minus one water, as it contributes to a
// peptide chain).
var residueMass = map[byte]float64{
	'A': 71.03711379,
	'R': 156.10111102,
	'N': 114.04292744,
	'D': 115.02694302,
	'C': 103.00918447,
	'E': 129.04259308,
	'Q': 128.05857750,
	'G': 57.02146372,
	'H': 137.05891186,
	'I': 113.08406397,
	'L': 113.08406397,
	'K': 128.09496301,
	'M': 131.04048509,
	'F': 147.06841390,
	'P': 97.05276384,
	'S': 87.03202840,
	'T': 101.04767846,
	'W': 186.07931294,
	'Y': 163.06332853,
	'V': 99.06841390,
}

// Residue returns the monoisotopic residue mass of the canonical amino acid
// code aa and reports whether aa is recognized.
func Residue(aa byte) (float64, bool) {
	m, ok := residueMass[aa]
	return m, ok
}

// IsValidResidue reports whether aa is one of the 20 canonical amino acid
// one-letter codes.
func IsValidResidue(aa byte) bool {
	_, ok := residueMass[aa]
	return ok
}

// Index returns the position of aa within ValidAA, or -1 if aa is not a
// canonical residue. Used to build the fixed-order embedding in
// internal/retention.
func Index(aa byte) int {
	for i, v := range ValidAA {
		if v == aa {
			return i
		}
	}
	return -1
}

// FragmentKind distinguishes the two theoretical ion series specter
// searches: the N-terminal b-ion series and the C-terminal y-ion series.
type FragmentKind uint8

const (
	BIon FragmentKind = iota
	YIon
)

// String implements fmt.Stringer.
func (k FragmentKind) String() string {
	if k == YIon {
		return "y"
	}
	return "b"
}
