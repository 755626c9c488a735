// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quant implements the isobaric (SPS/TMT) reporter-ion extraction
// stub: it writes the reporter table's fixed header and a row per MS3 scan
// with empty reporter fields. Full quantification is out of scope; this
// exists so the output shape a downstream SPS/TMT pass would need is
// already wired into the pipeline.
package quant

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/arlowe/specter/internal/spectrum"
)

const nReporters = 11

var header = func() []string {
	h := make([]string, 0, nReporters+1)
	h = append(h, "scannr")
	for i := 1; i <= nReporters; i++ {
		h = append(h, "tmt_"+strconv.Itoa(i))
	}
	return h
}()

// WriteStub writes path with the reporter-table header and one row per
// MS3 spectrum in ms3Scans, with every reporter field left empty.
func WriteStub(path string, ms3Scans []spectrum.RawSpectrum) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, nReporters+1)
	for _, sp := range ms3Scans {
		row[0] = sp.Scan
		for i := 1; i < len(row); i++ {
			row[i] = ""
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
