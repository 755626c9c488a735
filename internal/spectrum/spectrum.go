// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spectrum processes raw MS/MS peak lists into the ProcessedSpectrum
// form the scorer consumes: peaks restricted to the fragment m/z window,
// optionally deisotoped, and reduced to the top-N most intense peaks.
package spectrum

import "sort"

// Peak is a single (m/z, intensity) observation.
type Peak struct {
	MZ        float64
	Intensity float64
}

// RawSpectrum is the peak-list form produced by a SpectrumSource (e.g. the
// mzML reader in internal/mzml) before any processing.
type RawSpectrum struct {
	Scan             string
	MSLevel          int
	PrecursorMZ      float64
	PrecursorCharges []int
	RT               float64
	Peaks            []Peak
}

// SpectrumSource is the abstract boundary between the core search pipeline
// and any concrete spectrum file format. specter's core never parses mzML
// directly — it only calls Next.
type SpectrumSource interface {
	// Next returns the next spectrum, or ok=false once the source is
	// exhausted. An error aborts the read for the current file.
	Next() (raw RawSpectrum, ok bool, err error)
}

// ProcessedSpectrum is a RawSpectrum after peak filtering, deisotoping, and
// top-N intensity selection: peaks are unique in m/z and sorted by m/z
// ascending.
type ProcessedSpectrum struct {
	Scan             string
	MSLevel          int
	PrecursorMZ      float64
	PrecursorCharges []int
	RT               float64
	Peaks            []Peak
}

// Processor holds the parameters used to turn a RawSpectrum into a
// ProcessedSpectrum.
type Processor struct {
	MaxPeaks         int
	FragMin, FragMax float64
	Deisotope        bool
}

// Process runs the four-step pipeline: filter by m/z window, deisotope,
// keep the top MaxPeaks by intensity, then re-sort by m/z ascending.
func (p Processor) Process(raw RawSpectrum) ProcessedSpectrum {
	peaks := make([]Peak, 0, len(raw.Peaks))
	for _, pk := range raw.Peaks {
		if pk.MZ >= p.FragMin && pk.MZ <= p.FragMax {
			peaks = append(peaks, pk)
		}
	}

	if p.Deisotope {
		peaks = deisotope(peaks)
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Intensity > peaks[j].Intensity })
	if len(peaks) > p.MaxPeaks {
		peaks = peaks[:p.MaxPeaks]
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].MZ < peaks[j].MZ })

	return ProcessedSpectrum{
		Scan:             raw.Scan,
		MSLevel:          raw.MSLevel,
		PrecursorMZ:      raw.PrecursorMZ,
		PrecursorCharges: raw.PrecursorCharges,
		RT:               raw.RT,
		Peaks:            peaks,
	}
}

const deisotopePPM = 5.0
const neutronMass = 1.00866491588

// deisotope groups peaks into isotope envelopes by scanning ascending m/z,
// pairing peaks whose spacing matches 1/z for z in {1,2,3} within 5 ppm and
// whose intensities are monotonically non-increasing, retaining only the
// monoisotopic (lowest m/z) peak of each envelope.
func deisotope(peaks []Peak) []Peak {
	sorted := append([]Peak(nil), peaks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MZ < sorted[j].MZ })

	consumed := make([]bool, len(sorted))
	var out []Peak
	for i := range sorted {
		if consumed[i] {
			continue
		}
		out = append(out, sorted[i])
		last := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			if consumed[j] {
				continue
			}
			if sorted[j].Intensity > last.Intensity {
				continue
			}
			if isNextIsotope(last.MZ, sorted[j].MZ) {
				consumed[j] = true
				last = sorted[j]
			}
		}
	}
	return out
}

// isNextIsotope reports whether hi is one neutron mass (at some charge
// z in {1,2,3}) above lo, within 5 ppm.
func isNextIsotope(lo, hi float64) bool {
	for z := 1; z <= 3; z++ {
		expected := lo + neutronMass/float64(z)
		ppmErr := (hi - expected) / expected * 1e6
		if ppmErr < 0 {
			ppmErr = -ppmErr
		}
		if ppmErr <= deisotopePPM {
			return true
		}
	}
	return false
}
