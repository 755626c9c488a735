// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads and resolves the JSON run configuration: a sparse
// Input document is decoded from disk and resolved into a fully-populated
// Search value carrying concrete defaults for everything the pipeline
// needs.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/arlowe/specter/internal/index"
	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/score"
	"github.com/arlowe/specter/internal/specterr"
)

// toleranceInput decodes either {"ppm":[lo,hi]} or {"da":[lo,hi]}.
type toleranceInput struct {
	PPM *[2]float64 `json:"ppm,omitempty"`
	Da  *[2]float64 `json:"da,omitempty"`
}

func (t toleranceInput) resolve(defaultTol index.Tolerance) index.Tolerance {
	switch {
	case t.PPM != nil:
		return index.Tolerance{Kind: index.PPM, Lo: t.PPM[0], Hi: t.PPM[1]}
	case t.Da != nil:
		return index.Tolerance{Kind: index.Da, Lo: t.Da[0], Hi: t.Da[1]}
	default:
		return defaultTol
	}
}

// modInput is the JSON shape of a static or variable modification entry.
type modInput struct {
	Residue  string  `json:"residue"`
	Delta    float64 `json:"delta"`
	Terminal string  `json:"terminal,omitempty"` // "n" or "c", only when Residue is empty
}

func (m modInput) resolve() (peptide.Mod, error) {
	if m.Terminal != "" {
		switch m.Terminal {
		case "n":
			return peptide.Mod{Residue: peptide.AnyNTerm, Delta: m.Delta, Terminal: true}, nil
		case "c":
			return peptide.Mod{Residue: peptide.AnyCTerm, Delta: m.Delta, Terminal: true}, nil
		default:
			return peptide.Mod{}, fmt.Errorf("unknown terminal %q", m.Terminal)
		}
	}
	if len(m.Residue) != 1 {
		return peptide.Mod{}, fmt.Errorf("modification residue must be a single letter, got %q", m.Residue)
	}
	return peptide.Mod{Residue: m.Residue[0], Delta: m.Delta}, nil
}

// databaseInput is the JSON shape of the "database" key.
type databaseInput struct {
	Fasta           string     `json:"fasta"`
	Enzyme          string     `json:"enzyme"`
	MissedCleavages int        `json:"missed_cleavages"`
	MinLen          int        `json:"min_len"`
	MaxLen          int        `json:"max_len"`
	MinMass         float64    `json:"min_mass"`
	MaxMass         float64    `json:"max_mass"`
	StaticMods      []modInput `json:"static_mods"`
	VariableMods     []modInput `json:"variable_mods"`
	MaxVariableSites int        `json:"max_variable_sites"`
	FragmentMinMZ    float64    `json:"fragment_min_mz"`
	FragmentMaxMZ    float64    `json:"fragment_max_mz"`
	BucketWidth      float64    `json:"bucket_width"`
}

// Input is the sparse, as-written-by-a-user JSON configuration document.
type Input struct {
	Database             databaseInput  `json:"database"`
	PrecursorTol         toleranceInput `json:"precursor_tol"`
	FragmentTol          toleranceInput `json:"fragment_tol"`
	IsotopeErrors        *[2]int        `json:"isotope_errors,omitempty"`
	Deisotope            *bool          `json:"deisotope,omitempty"`
	Chimera              *bool          `json:"chimera,omitempty"`
	MinPeaks             *int           `json:"min_peaks,omitempty"`
	MaxPeaks             *int           `json:"max_peaks,omitempty"`
	ReportPSMs           *int           `json:"report_psms,omitempty"`
	ProcessFilesParallel *bool          `json:"process_files_parallel,omitempty"`
	OutputDirectory      string         `json:"output_directory,omitempty"`
	MzMLPaths            []string       `json:"mzml_paths"`
}

// Search is the fully-resolved configuration the pipeline runs against. It
// is also what gets serialized back out into the run summary.
type Search struct {
	FastaPath    string               `json:"fasta"`
	DigestParams peptide.DigestParams `json:"digest_params"`

	FragmentMinMZ float64 `json:"fragment_min_mz"`
	FragmentMaxMZ float64 `json:"fragment_max_mz"`
	BucketWidth   float64 `json:"bucket_width"`

	ScoreParams score.Params `json:"score_params"`

	Deisotope            bool     `json:"deisotope"`
	MinPeaks             int      `json:"min_peaks"`
	MaxPeaks             int      `json:"max_peaks"`
	ProcessFilesParallel bool     `json:"process_files_parallel"`
	OutputDirectory      string   `json:"output_directory,omitempty"`
	MzMLPaths            []string `json:"mzml_paths"`
}

var enzymes = map[string]peptide.Enzyme{
	"trypsin": peptide.Trypsin,
}

const (
	chimeraHalfWidth = 1.25
	chimeraFullWidth = 2.5
)

// Load reads and resolves the configuration at path.
func Load(path string) (*Search, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &specterr.Config{Err: err}
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and resolves a configuration document from r.
func Parse(r io.Reader) (*Search, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, &specterr.Config{Err: fmt.Errorf("decoding configuration: %w", err)}
	}
	return resolve(in)
}

func resolve(in Input) (*Search, error) {
	enzyme, ok := enzymes[in.Database.Enzyme]
	if !ok {
		return nil, &specterr.Config{Err: fmt.Errorf("unknown enzyme %q", in.Database.Enzyme)}
	}
	if in.Database.Fasta == "" {
		return nil, &specterr.Config{Err: fmt.Errorf("database.fasta is required")}
	}

	static := make([]peptide.Mod, 0, len(in.Database.StaticMods))
	for _, m := range in.Database.StaticMods {
		pm, err := m.resolve()
		if err != nil {
			return nil, &specterr.Config{Err: err}
		}
		static = append(static, pm)
	}
	variable := make([]peptide.Mod, 0, len(in.Database.VariableMods))
	for _, m := range in.Database.VariableMods {
		pm, err := m.resolve()
		if err != nil {
			return nil, &specterr.Config{Err: err}
		}
		variable = append(variable, pm)
	}

	isotopeLo, isotopeHi := 0, 0
	if in.IsotopeErrors != nil {
		isotopeLo, isotopeHi = in.IsotopeErrors[0], in.IsotopeErrors[1]
		if isotopeLo > isotopeHi {
			return nil, &specterr.Config{Err: fmt.Errorf("isotope_errors: lo (%d) > hi (%d)", isotopeLo, isotopeHi)}
		}
	}

	deisotope := true
	if in.Deisotope != nil {
		deisotope = *in.Deisotope
	}
	chimera := false
	if in.Chimera != nil {
		chimera = *in.Chimera
	}
	minPeaks := 15
	if in.MinPeaks != nil {
		minPeaks = *in.MinPeaks
	}
	maxPeaks := 150
	if in.MaxPeaks != nil {
		maxPeaks = *in.MaxPeaks
	}
	reportPSMs := 1
	if in.ReportPSMs != nil {
		reportPSMs = *in.ReportPSMs
	}
	parallel := true
	if in.ProcessFilesParallel != nil {
		parallel = *in.ProcessFilesParallel
	}

	precursorTol := in.PrecursorTol.resolve(index.Tolerance{Kind: index.PPM, Lo: -50, Hi: 50})
	fragmentTol := in.FragmentTol.resolve(index.Tolerance{Kind: index.PPM, Lo: -10, Hi: 10})

	if chimera {
		reportPSMs = 1
		// Evaluate the window width at a representative 1000 Da mass;
		// ppm tolerances scale with mass but the 2.5 Da gate is absolute.
		lo, hi := precursorTol.Window(1000)
		if hi-lo < chimeraFullWidth {
			precursorTol = precursorTol.Widen(chimeraHalfWidth)
		}
	}

	s := &Search{
		FastaPath: in.Database.Fasta,
		DigestParams: peptide.DigestParams{
			Enzyme:           enzyme,
			MissedCleavages:  in.Database.MissedCleavages,
			MinLen:           in.Database.MinLen,
			MaxLen:           in.Database.MaxLen,
			MinMass:          in.Database.MinMass,
			MaxMass:          in.Database.MaxMass,
			StaticMods:       static,
			VariableMods:     variable,
			MaxVariableSites: in.Database.MaxVariableSites,
		},
		FragmentMinMZ: in.Database.FragmentMinMZ,
		FragmentMaxMZ: in.Database.FragmentMaxMZ,
		BucketWidth:   in.Database.BucketWidth,
		ScoreParams: score.Params{
			PrecursorTol:    precursorTol,
			FragmentTol:     fragmentTol,
			IsotopeLo:       isotopeLo,
			IsotopeHi:       isotopeHi,
			MinMatchedPeaks: 4,
			ReportPSMs:      reportPSMs,
			Chimera:         chimera,
		},
		Deisotope:            deisotope,
		MinPeaks:             minPeaks,
		MaxPeaks:             maxPeaks,
		ProcessFilesParallel: parallel,
		OutputDirectory:      in.OutputDirectory,
		MzMLPaths:            in.MzMLPaths,
	}
	if len(s.MzMLPaths) == 0 {
		return nil, &specterr.Config{Err: fmt.Errorf("mzml_paths is required")}
	}
	if s.FragmentMaxMZ <= s.FragmentMinMZ {
		return nil, &specterr.Config{Err: fmt.Errorf("database.fragment_max_mz (%v) must exceed fragment_min_mz (%v)", s.FragmentMaxMZ, s.FragmentMinMZ)}
	}
	return s, nil
}
