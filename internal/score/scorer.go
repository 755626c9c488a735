// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package score

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/biogo/store/interval"

	"github.com/arlowe/specter/internal/index"
	"github.com/arlowe/specter/internal/mass"
	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/spectrum"
)

// Params bundles the per-run settings the scorer needs: tolerances,
// isotope error range, and reporting depth.
type Params struct {
	PrecursorTol index.Tolerance
	FragmentTol  index.Tolerance
	IsotopeLo, IsotopeHi int
	MinMatchedPeaks      int
	ReportPSMs           int
	Chimera              bool
}

// Scorer holds the immutable, shared-read-only state (fragment index and
// peptide table) used to score every spectrum in a run.
type Scorer struct {
	Index  *index.FragmentIndex
	Table  *peptide.Table
	Params Params
}

// New builds a Scorer over idx/table with the given parameters.
func New(idx *index.FragmentIndex, table *peptide.Table, p Params) *Scorer {
	return &Scorer{Index: idx, Table: table, Params: p}
}

// accum is per-peptide scoring scratch; accumulate allocates a fresh set
// for every call, so nothing carries over between spectra.
type accum struct {
	nB, nY         int
	totalIntensity float64
	ppmErrs        []float64
	peakIdx        []int // indices into the spectrum's Peaks, for chimera overlap checks
}

// candidateWindow is one (charge, isotope error) hypothesis for the
// spectrum's precursor neutral mass.
type candidateWindow struct {
	charge       int
	isotopeError int
	neutralMass  float64
	lo, hi       float64
}

// Score scores ps against the shared index and returns up to
// s.Params.ReportPSMs ranked PSMs (plus, if chimera is enabled, one
// additional disjoint match).
func (s *Scorer) Score(ps spectrum.ProcessedSpectrum) []Feature {
	if ps.MSLevel != 2 {
		return nil
	}
	windows := s.candidateWindows(ps)
	if len(windows) == 0 {
		return nil
	}

	best := s.accumulate(ps, windows, ps.Peaks, nil)
	top := s.rank(ps, best, windows)
	if len(top) == 0 {
		return nil
	}
	if len(top) > s.Params.ReportPSMs {
		top = top[:s.Params.ReportPSMs]
	}
	for i := range top {
		top[i].feature.Rank = i + 1
	}

	if !s.Params.Chimera || len(top) == 0 {
		feats := make([]Feature, len(top))
		for i, r := range top {
			feats[i] = r.feature
		}
		return feats
	}

	exclude := make(map[int]bool, len(top[0].matched.peakIdx))
	for _, pi := range top[0].matched.peakIdx {
		exclude[pi] = true
	}
	remaining := make([]spectrum.Peak, 0, len(ps.Peaks))
	remainingIdx := make([]int, 0, len(ps.Peaks))
	for i, pk := range ps.Peaks {
		if !exclude[i] {
			remaining = append(remaining, pk)
			remainingIdx = append(remainingIdx, i)
		}
	}

	second := s.accumulate(ps, windows, remaining, remainingIdx)
	secondTop := s.rank(ps, second, windows)
	for _, cand := range secondTop {
		if cand.feature.Peptide == top[0].feature.Peptide {
			continue
		}
		if disjointEnough(top[0].matched.peakIdx, cand.matched.peakIdx, len(ps.Peaks)) {
			cand.feature.Rank = 2
			return append([]Feature{top[0].feature}, cand.feature)
		}
		break
	}
	return []Feature{top[0].feature}
}

// candidateWindows enumerates the precursor neutral mass hypotheses for
// every assumed charge and isotope error.
func (s *Scorer) candidateWindows(ps spectrum.ProcessedSpectrum) []candidateWindow {
	charges := ps.PrecursorCharges
	if len(charges) == 0 {
		charges = []int{2, 3}
	}
	var windows []candidateWindow
	for _, z := range charges {
		for e := s.Params.IsotopeLo; e <= s.Params.IsotopeHi; e++ {
			neutral := float64(z)*(ps.PrecursorMZ-mass.Proton) - float64(e)*mass.Neutron
			lo, hi := s.Params.PrecursorTol.Window(neutral)
			windows = append(windows, candidateWindow{charge: z, isotopeError: e, neutralMass: neutral, lo: lo, hi: hi})
		}
	}
	return windows
}

type ranked struct {
	feature Feature
	matched accum
}

// accumulate probes the index for every peak in peaks (whose original
// spectrum indices are origIdx, or identity if nil) across every candidate
// window, incrementing a per-handle counter.
func (s *Scorer) accumulate(ps spectrum.ProcessedSpectrum, windows []candidateWindow, peaks []spectrum.Peak, origIdx []int) map[peptide.Handle]*accum {
	counts := make(map[peptide.Handle]*accum)
	for pi, pk := range peaks {
		spectrumIdx := pi
		if origIdx != nil {
			spectrumIdx = origIdx[pi]
		}
		for _, w := range windows {
			s.Index.Probe(pk.MZ, s.Params.FragmentTol, w.lo, w.hi, func(f index.Fragment) {
				a, ok := counts[f.Handle]
				if !ok {
					a = &accum{}
					counts[f.Handle] = a
				}
				if f.Kind == mass.BIon {
					a.nB++
				} else {
					a.nY++
				}
				a.totalIntensity += pk.Intensity
				a.peakIdx = append(a.peakIdx, spectrumIdx)
				ppm := (pk.MZ - f.MZ) / f.MZ * 1e6
				a.ppmErrs = append(a.ppmErrs, ppm)
			})
		}
	}
	return counts
}

// rank scores every peptide with enough matched peaks, and sorts by
// hyperscore desc, poisson asc, handle asc.
func (s *Scorer) rank(ps spectrum.ProcessedSpectrum, counts map[peptide.Handle]*accum, windows []candidateWindow) []ranked {
	density := s.candidateDensity(windows)
	var out []ranked
	for h, a := range counts {
		matched := a.nB + a.nY
		if matched < s.Params.MinMatchedPeaks {
			continue
		}
		p := s.Table.Get(h)
		hyperscore := math.Log(factorial(a.nB)) + math.Log(factorial(a.nY)) + math.Log(math.Max(a.totalIntensity, 1e-12))
		lambda := density * float64(len(ps.Peaks))
		if lambda <= 0 {
			lambda = 1e-6
		}
		poisson := poissonLogSurvival(matched, lambda)

		var ppmMean, ppmStd float64
		if len(a.ppmErrs) > 0 {
			for _, e := range a.ppmErrs {
				ppmMean += e
			}
			ppmMean /= float64(len(a.ppmErrs))
			for _, e := range a.ppmErrs {
				ppmStd += (e - ppmMean) * (e - ppmMean)
			}
			ppmStd = math.Sqrt(ppmStd / float64(len(a.ppmErrs)))
		}

		w := bestWindowFor(p, windows)
		label := int8(1)
		if p.Decoy {
			label = -1
		}
		feat := Feature{
			Peptide:      h,
			Scan:         ps.Scan,
			Rank:         1,
			Charge:       w.charge,
			ExpMass:      w.neutralMass,
			CalcMass:     p.Monoisotopic,
			IsotopeError: w.isotopeError,
			PeaksMatched: matched,
			Hyperscore:   hyperscore,
			Poisson:      poisson,
			FragPPMMean:  ppmMean,
			FragPPMStd:   ppmStd,
			AlignedRT:    ps.RT,
			Label:        label,
		}
		out = append(out, ranked{feature: feat, matched: *a})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].feature.Hyperscore != out[j].feature.Hyperscore {
			return out[i].feature.Hyperscore > out[j].feature.Hyperscore
		}
		if out[i].feature.Poisson != out[j].feature.Poisson {
			return out[i].feature.Poisson < out[j].feature.Poisson
		}
		return out[i].feature.Peptide < out[j].feature.Peptide
	})
	return out
}

func bestWindowFor(p *peptide.Peptide, windows []candidateWindow) candidateWindow {
	best := windows[0]
	bestDiff := math.Abs(p.Monoisotopic - best.neutralMass)
	for _, w := range windows[1:] {
		d := math.Abs(p.Monoisotopic - w.neutralMass)
		if d < bestDiff {
			best, bestDiff = w, d
		}
	}
	return best
}

// candidateDensity estimates the expected number of chance fragment
// matches per peak for the poisson null model: the number of indexed
// fragments in buckets whose precursor mass range overlaps a window probed
// for this spectrum (a bucket-level count, summed over windows, so it can
// include fragments whose own precursor mass lies outside every window),
// scaled by the fraction of the fragment m/z axis a single peak's
// tolerance window covers.
func (s *Scorer) candidateDensity(windows []candidateWindow) float64 {
	axis := s.Index.FragmentAxisMax()
	if axis <= 0 {
		return 0
	}

	var candidates int
	for _, w := range windows {
		candidates += s.Index.FragmentCountInPrecursorRange(w.lo, w.hi)
	}
	if candidates == 0 {
		return 0
	}

	lo, hi := s.Params.FragmentTol.Window(axis / 2)
	tolWidth := hi - lo
	if tolWidth <= 0 {
		return 0
	}

	return float64(candidates) * tolWidth / axis
}

func poissonLogSurvival(k int, lambda float64) float64 {
	if k <= 0 {
		return 0
	}
	d := distuv.Poisson{Lambda: lambda}
	p := d.Survival(float64(k - 1))
	if p <= 0 {
		return math.Inf(-1)
	}
	return math.Log(p)
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

// disjointEnough reports whether b's matched-peak set is at least 50%
// non-overlapping with a's, using an interval tree over peak indices
// (biogo/store/interval.IntTree).
func disjointEnough(a, b []int, nPeaks int) bool {
	if len(b) == 0 {
		return false
	}
	var tree interval.IntTree
	for i, idx := range a {
		_ = tree.Insert(peakInterval{uid: uintptr(i), pos: idx}, true)
	}
	tree.AdjustRanges()

	overlap := 0
	for _, idx := range b {
		if len(tree.Get(peakInterval{pos: idx})) > 0 {
			overlap++
		}
	}
	nonOverlap := float64(len(b)-overlap) / float64(len(b))
	return nonOverlap >= 0.5
}

type peakInterval struct {
	uid uintptr
	pos int
}

func (p peakInterval) Overlap(r interval.IntRange) bool { return r.Start <= p.pos && p.pos < r.End }
func (p peakInterval) ID() uintptr                       { return p.uid }
func (p peakInterval) Range() interval.IntRange {
	return interval.IntRange{Start: p.pos, End: p.pos + 1}
}
