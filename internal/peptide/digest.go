// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package peptide

import (
	"fmt"
	"math"
	"sort"
)

// DigestParams bundles the enzyme rule, digest bounds, and modification
// sets used to turn a protein FASTA into a peptide Table.
type DigestParams struct {
	Enzyme          Enzyme
	MissedCleavages int
	MinLen, MaxLen  int
	MinMass, MaxMass float64

	StaticMods   []Mod
	VariableMods []Mod
	// MaxVariableSites is the per-peptide site-combination cap K.
	MaxVariableSites int
}

// Digest in-silico digests proteins into a peptide Table containing both
// targets and their reversed decoys, applying static modifications to
// every peptide and enumerating variable modification site combinations up
// to MaxVariableSites. It fails if any residue is outside the canonical
// 20-letter alphabet.
func Digest(proteins []Protein, p DigestParams) (*Table, error) {
	t := &Table{}
	seen := make(map[string]struct{})
	for _, pr := range proteins {
		cuts := digestSites(pr.Sequence, p.Enzyme)
		for _, frag := range slidingFragments(pr.Sequence, cuts, p.MissedCleavages) {
			for _, aa := range frag {
				if !IsValidResidueStrict(aa) {
					return nil, fmt.Errorf("peptide: residue %q in protein %q is outside the canonical alphabet", aa, pr.Accession)
				}
			}
			if len(frag) < p.MinLen || len(frag) > p.MaxLen {
				continue
			}
			variants, err := modVariants(frag, p.StaticMods, p.VariableMods, p.MaxVariableSites)
			if err != nil {
				return nil, err
			}
			for _, v := range variants {
				target := Peptide{
					Sequence: append([]byte(nil), frag...),
					NTermMod: v.nTerm,
					CTermMod: v.cTerm,
					ModMass:  v.modMass,
					Protein:  pr.Accession,
				}
				mono, err := target.Mass()
				if err != nil {
					return nil, err
				}
				target.Monoisotopic = mono
				if mono < p.MinMass || mono > p.MaxMass {
					continue
				}
				key := dedupKey(target.Sequence, target.ModMass, target.NTermMod, target.CTermMod)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				t.add(target)
				t.add(reverseDecoy(target))
			}
		}
	}
	return t, nil
}

// IsValidResidueStrict reports whether aa is one of the 20 canonical amino
// acid codes (unlike IsResidueOrX in protein.go, X is not accepted here:
// a digested peptide must be fully resolved to canonical residues).
func IsValidResidueStrict(aa byte) bool {
	return isCanonical(aa)
}

func isCanonical(aa byte) bool {
	switch aa {
	case 'A', 'R', 'N', 'D', 'C', 'E', 'Q', 'G', 'H', 'I',
		'L', 'K', 'M', 'F', 'P', 'S', 'T', 'W', 'Y', 'V':
		return true
	}
	return false
}

// digestSites returns the indices within seq after which the enzyme cuts
// (for CTerm enzymes) or before which it cuts (for NTerm enzymes),
// expressed uniformly as a cut occurring between seq[i-1] and seq[i].
func digestSites(seq []byte, e Enzyme) []int {
	var cuts []int
	for i := 1; i < len(seq); i++ {
		if e.Cleaves(seq[i-1], seq[i]) {
			cuts = append(cuts, i)
		}
	}
	return cuts
}

// slidingFragments enumerates every peptide obtainable from seq by
// combining consecutive digest fragments, allowing up to missed additional
// internal cleavage sites to be skipped.
func slidingFragments(seq []byte, cuts []int, missed int) [][]byte {
	bounds := make([]int, 0, len(cuts)+2)
	bounds = append(bounds, 0)
	bounds = append(bounds, cuts...)
	bounds = append(bounds, len(seq))

	var frags [][]byte
	for i := 0; i < len(bounds)-1; i++ {
		for j := i + 1; j < len(bounds) && j-i-1 <= missed; j++ {
			start, end := bounds[i], bounds[j]
			if start >= end {
				continue
			}
			frags = append(frags, seq[start:end])
		}
	}
	return frags
}

// variant is a fully-resolved modification assignment for a single peptide
// sequence.
type variant struct {
	nTerm, cTerm float64
	modMass      []float64
}

// modVariants applies static mods to frag and then enumerates every
// variable-mod site combination up to cardinality k, deduplicating by the
// resulting (sequence, mod-multiset) pair. The
// sequence itself never changes across variants returned here — only the
// modification masses do — so the caller pairs each variant with frag to
// build a Peptide.
func modVariants(frag []byte, static, variableMods []Mod, k int) ([]variant, error) {
	base := variant{modMass: make([]float64, len(frag))}
	for _, m := range static {
		switch {
		case m.Terminal && m.Residue == AnyNTerm:
			base.nTerm += m.Delta
		case m.Terminal && m.Residue == AnyCTerm:
			base.cTerm += m.Delta
		default:
			for i, aa := range frag {
				if aa == m.Residue {
					base.modMass[i] += m.Delta
				}
			}
		}
	}

	sites := variableSites(frag, variableMods)
	sort.Slice(sites, func(i, j int) bool { return sites[i].pos < sites[j].pos })

	var out []variant
	seen := make(map[string]struct{})
	addVariant := func(combo []site) {
		v := variant{nTerm: base.nTerm, cTerm: base.cTerm, modMass: append([]float64(nil), base.modMass...)}
		for _, s := range combo {
			switch {
			case s.pos == -1:
				v.nTerm += s.mod.Delta
			case s.pos == len(frag):
				v.cTerm += s.mod.Delta
			default:
				v.modMass[s.pos] += s.mod.Delta
			}
		}
		key := dedupKey(frag, v.modMass, v.nTerm, v.cTerm)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	addVariant(nil) // unmodified-by-variable-mods baseline always included

	var combo func(start int, chosen []site)
	combo = func(start int, chosen []site) {
		if len(chosen) > 0 {
			addVariant(chosen)
		}
		if len(chosen) == k {
			return
		}
		for i := start; i < len(sites); i++ {
			if conflictsPosition(chosen, sites[i].pos) {
				continue
			}
			combo(i+1, append(chosen, sites[i]))
		}
	}
	combo(0, nil)

	return out, nil
}

func conflictsPosition(chosen []site, pos int) bool {
	for _, c := range chosen {
		if c.pos == pos {
			return true
		}
	}
	return false
}

func dedupKey(seq []byte, modMass []float64, nTerm, cTerm float64) string {
	b := make([]byte, 0, len(seq)+len(modMass)*8+16)
	b = append(b, seq...)
	b = appendFloat(b, nTerm)
	b = appendFloat(b, cTerm)
	for _, m := range modMass {
		b = appendFloat(b, m)
	}
	return string(b)
}

func appendFloat(b []byte, f float64) []byte {
	// Round to a coarse precision so floating point jitter never splits
	// what should be the same modification multiset into two keys.
	const scale = 1e6
	n := int64(math.Round(f * scale))
	return append(b, byte(n), byte(n>>8), byte(n>>16), byte(n>>24), byte(n>>32), byte(n>>40), byte(n>>48), byte(n>>56))
}

// reverseDecoy builds a decoy Peptide from target by reversing the internal
// residues (all but the first and last), preserving the terminal residues
// for enzyme compatibility, and copying the per-residue modification masses
// along with the reversal so the decoy retains the same total mass.
func reverseDecoy(target Peptide) Peptide {
	seq := append([]byte(nil), target.Sequence...)
	mods := append([]float64(nil), target.ModMass...)
	if len(seq) > 2 {
		reverseRange(seq, 1, len(seq)-2)
		reverseRange(mods, 1, len(mods)-2)
	}
	d := Peptide{
		Sequence:     seq,
		NTermMod:     target.NTermMod,
		CTermMod:     target.CTermMod,
		ModMass:      mods,
		Monoisotopic: target.Monoisotopic,
		Decoy:        true,
		Protein:      target.Protein,
	}
	return d
}

func reverseRange(s interface{}, i, j int) {
	switch s := s.(type) {
	case []byte:
		for i < j {
			s[i], s[j] = s[j], s[i]
			i++
			j--
		}
	case []float64:
		for i < j {
			s[i], s[j] = s[j], s[i]
			i++
			j--
		}
	}
}
