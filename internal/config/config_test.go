// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"

	"github.com/arlowe/specter/internal/index"
)

const minimalConfig = `{
	"database": {
		"fasta": "db.fasta",
		"enzyme": "trypsin",
		"min_len": 5,
		"max_len": 50,
		"max_mass": 4600,
		"fragment_min_mz": 150,
		"fragment_max_mz": 2000,
		"bucket_width": 25
	},
	"mzml_paths": ["a.mzML"]
}`

func TestParseAppliesDefaults(t *testing.T) {
	s, err := Parse(strings.NewReader(minimalConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.Deisotope {
		t.Errorf("expected deisotope to default true")
	}
	if s.MinPeaks != 15 || s.MaxPeaks != 150 {
		t.Errorf("expected default peak bounds 15/150, got %d/%d", s.MinPeaks, s.MaxPeaks)
	}
	if s.ScoreParams.ReportPSMs != 1 {
		t.Errorf("expected default report_psms 1, got %d", s.ScoreParams.ReportPSMs)
	}
	if s.ScoreParams.PrecursorTol.Kind != index.PPM {
		t.Errorf("expected default precursor tolerance kind ppm")
	}
}

func TestParseRejectsUnknownEnzyme(t *testing.T) {
	bad := strings.Replace(minimalConfig, `"trypsin"`, `"chymotrypsin"`, 1)
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected an error for an unknown enzyme")
	}
}

func TestParseRejectsInvertedIsotopeRange(t *testing.T) {
	withIso := strings.Replace(minimalConfig, `"mzml_paths"`, `"isotope_errors": [2, -1], "mzml_paths"`, 1)
	if _, err := Parse(strings.NewReader(withIso)); err == nil {
		t.Fatalf("expected an error for isotope_errors lo > hi")
	}
}

func TestChimeraForcesReportPSMsAndWidensWindow(t *testing.T) {
	withChimera := strings.Replace(minimalConfig, `"mzml_paths"`, `"chimera": true, "report_psms": 5, "mzml_paths"`, 1)
	s, err := Parse(strings.NewReader(withChimera))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.ScoreParams.ReportPSMs != 1 {
		t.Errorf("expected chimera mode to force report_psms=1, got %d", s.ScoreParams.ReportPSMs)
	}
	if s.ScoreParams.PrecursorTol.Kind != index.Da {
		t.Errorf("expected chimera mode to widen a narrow ppm window into an absolute Da window")
	}
}
