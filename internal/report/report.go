// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report writes PSM tables and the run summary: a tab-delimited
// <basename>.sage.pin file per input and a single results.json describing
// the whole run.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"

	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/score"
)

var pinColumns = []string{
	"specid", "label", "scannr", "expmass", "calcmass", "peptide", "proteins",
	"rank", "charge", "peaks_matched", "hyperscore", "poisson", "delta_mass",
	"isotope_error", "delta_rt", "predicted_rt", "discriminant_score",
	"q_value", "peptide_q",
}

// WritePin writes psms to path as a tab-delimited PSM table, one row per
// match, in the fixed column order pinColumns.
func WritePin(path string, table *peptide.Table, psms []score.Feature) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(pinColumns); err != nil {
		return err
	}
	for _, p := range psms {
		pep := table.Get(p.Peptide)
		row := []string{
			strconv.Itoa(p.SpecID),
			strconv.Itoa(int(p.Label)),
			p.Scan,
			strconv.FormatFloat(p.ExpMass, 'f', -1, 64),
			strconv.FormatFloat(p.CalcMass, 'f', -1, 64),
			string(pep.Sequence),
			pep.Protein,
			strconv.Itoa(p.Rank),
			strconv.Itoa(p.Charge),
			strconv.Itoa(p.PeaksMatched),
			strconv.FormatFloat(p.Hyperscore, 'f', -1, 64),
			strconv.FormatFloat(p.Poisson, 'f', -1, 64),
			strconv.FormatFloat(p.DeltaMass(), 'f', -1, 64),
			strconv.Itoa(p.IsotopeError),
			strconv.FormatFloat(p.DeltaRT, 'f', -1, 64),
			strconv.FormatFloat(p.PredictedRT, 'f', -1, 64),
			strconv.FormatFloat(p.DiscriminantScore, 'f', -1, 64),
			strconv.FormatFloat(p.SpectrumQ, 'f', -1, 64),
			strconv.FormatFloat(p.PeptideQ, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Summary is the run-level record serialized to results.json.
type Summary struct {
	Config      interface{} `json:"config"`
	InputFiles  []string    `json:"input_files"`
	OutputFiles []string    `json:"output_files"`
	SearchTime  float64     `json:"search_time"`
}

// WriteSummary writes s to path as JSON.
func WriteSummary(path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
