// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectrum

import "testing"

func TestProcessFiltersWindow(t *testing.T) {
	raw := RawSpectrum{Peaks: []Peak{{MZ: 50, Intensity: 10}, {MZ: 500, Intensity: 10}, {MZ: 5000, Intensity: 10}}}
	p := Processor{MaxPeaks: 10, FragMin: 100, FragMax: 2000}
	got := p.Process(raw)
	if len(got.Peaks) != 1 || got.Peaks[0].MZ != 500 {
		t.Fatalf("expected only the 500 m/z peak to survive, got %v", got.Peaks)
	}
}

func TestProcessTopN(t *testing.T) {
	raw := RawSpectrum{Peaks: []Peak{
		{MZ: 100, Intensity: 1},
		{MZ: 200, Intensity: 5},
		{MZ: 300, Intensity: 3},
	}}
	p := Processor{MaxPeaks: 2, FragMin: 0, FragMax: 1000}
	got := p.Process(raw)
	if len(got.Peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(got.Peaks))
	}
	if got.Peaks[0].MZ != 200 || got.Peaks[1].MZ != 300 {
		t.Fatalf("expected top-2 peaks sorted by m/z ascending [200,300], got %v", got.Peaks)
	}
}

func TestDeisotopeRetainsMonoisotopic(t *testing.T) {
	raw := RawSpectrum{Peaks: []Peak{
		{MZ: 500.0, Intensity: 100},
		{MZ: 500.0 + neutronMass, Intensity: 50},
		{MZ: 500.0 + 2*neutronMass, Intensity: 20},
	}}
	p := Processor{MaxPeaks: 10, FragMin: 0, FragMax: 10000, Deisotope: true}
	got := p.Process(raw)
	if len(got.Peaks) != 1 {
		t.Fatalf("expected isotope envelope collapsed to 1 peak, got %d: %v", len(got.Peaks), got.Peaks)
	}
	if got.Peaks[0].MZ != 500.0 {
		t.Fatalf("expected monoisotopic peak retained, got %v", got.Peaks[0])
	}
}

func TestDeisotopeInvariantNoCloseClusters(t *testing.T) {
	raw := RawSpectrum{Peaks: []Peak{
		{MZ: 300.0, Intensity: 10},
		{MZ: 300.0 + neutronMass/2, Intensity: 8},
		{MZ: 300.0 + neutronMass, Intensity: 6},
	}}
	p := Processor{MaxPeaks: 10, FragMin: 0, FragMax: 10000, Deisotope: true}
	got := p.Process(raw)
	for i := 0; i < len(got.Peaks); i++ {
		for j := i + 1; j < len(got.Peaks); j++ {
			if isNextIsotope(got.Peaks[i].MZ, got.Peaks[j].MZ) {
				t.Errorf("peaks %v and %v remain within isotope spacing after deisotoping", got.Peaks[i], got.Peaks[j])
			}
		}
	}
}
