// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/arlowe/specter/internal/config"
	"github.com/arlowe/specter/internal/index"
	"github.com/arlowe/specter/internal/mass"
	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/score"
)

func encodeFloats(vals []float64) string {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

const mzmlTemplate = `<?xml version="1.0" encoding="utf-8"?>
<indexedmzML><mzML><run><spectrumList>
<spectrum id="scan=1" index="0">
  <cvParam accession="MS:1000511" name="ms level" value="2"/>
  <scanList><scan><cvParam accession="MS:1000016" name="scan start time" value="5.0"/></scan></scanList>
  <precursorList><precursor><selectedIonList><selectedIon>
    <cvParam accession="MS:1000744" name="selected ion m/z" value="{{PRECURSOR_MZ}}"/>
    <cvParam accession="MS:1000041" name="charge state" value="2"/>
  </selectedIon></selectedIonList></precursor></precursorList>
  <binaryDataArrayList>
    <binaryDataArray>
      <cvParam accession="MS:1000523" name="64-bit float"/>
      <cvParam accession="MS:1000514" name="m/z array"/>
      <binary>{{MZ_ARRAY}}</binary>
    </binaryDataArray>
    <binaryDataArray>
      <cvParam accession="MS:1000523" name="64-bit float"/>
      <cvParam accession="MS:1000515" name="intensity array"/>
      <binary>{{INTENSITY_ARRAY}}</binary>
    </binaryDataArray>
  </binaryDataArrayList>
</spectrum>
</spectrumList></run></mzML></indexedmzML>
`

// writeFixtures writes a single-protein FASTA (MKAAAR) and a single-spectrum
// mzML file whose peaks are exactly the b/y ions of the tryptic peptide
// AAAR, so a search against the FASTA should rank AAAR first.
func writeFixtures(t *testing.T, dir string) (fastaPath, mzmlPath string) {
	t.Helper()

	fastaPath = filepath.Join(dir, "db.fasta")
	if err := os.WriteFile(fastaPath, []byte(">P1\nMKAAAR\n"), 0o644); err != nil {
		t.Fatalf("writing fasta fixture: %v", err)
	}

	table, err := peptide.Digest([]peptide.Protein{{Accession: "P1", Sequence: []byte("MKAAAR")}}, peptide.DigestParams{
		Enzyme:  peptide.Trypsin,
		MinLen:  2,
		MaxLen:  10,
		MaxMass: 1e6,
	})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	var aaar *peptide.Peptide
	var aaarHandle peptide.Handle
	for i := range table.Peptides {
		if !table.Peptides[i].Decoy && string(table.Peptides[i].Sequence) == "AAAR" {
			aaar = &table.Peptides[i]
			aaarHandle = peptide.Handle(i)
		}
	}
	if aaar == nil {
		t.Fatal("AAAR not found in fixture digest")
	}
	frags := index.Ions(aaarHandle, aaar, 0, 2000)

	var mzs, intensities []float64
	for _, f := range frags {
		mzs = append(mzs, f.MZ)
		intensities = append(intensities, 100)
	}
	precursorMZ := aaar.Monoisotopic/2 + mass.Proton

	doc := mzmlTemplate
	doc = strings.ReplaceAll(doc, "{{PRECURSOR_MZ}}", strconv.FormatFloat(precursorMZ, 'f', -1, 64))
	doc = strings.ReplaceAll(doc, "{{MZ_ARRAY}}", encodeFloats(mzs))
	doc = strings.ReplaceAll(doc, "{{INTENSITY_ARRAY}}", encodeFloats(intensities))

	mzmlPath = filepath.Join(dir, "run.mzML")
	if err := os.WriteFile(mzmlPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing mzML fixture: %v", err)
	}
	return fastaPath, mzmlPath
}

func testConfig(fastaPath, mzmlPath string, parallel bool) *config.Search {
	return &config.Search{
		FastaPath: fastaPath,
		DigestParams: peptide.DigestParams{
			Enzyme:  peptide.Trypsin,
			MinLen:  2,
			MaxLen:  10,
			MaxMass: 1e6,
		},
		FragmentMinMZ: 0,
		FragmentMaxMZ: 2000,
		BucketWidth:   25,
		ScoreParams: score.Params{
			PrecursorTol:    index.Tolerance{Kind: index.Da, Lo: -2, Hi: 2},
			FragmentTol:     index.Tolerance{Kind: index.PPM, Lo: -10, Hi: 10},
			MinMatchedPeaks: 1,
			ReportPSMs:      1,
		},
		Deisotope:            false,
		MinPeaks:             1,
		MaxPeaks:             50,
		ProcessFilesParallel: parallel,
		MzMLPaths:            []string{mzmlPath},
	}
}

func TestPipelineRunWritesPin(t *testing.T) {
	dir := t.TempDir()
	fastaPath, mzmlPath := writeFixtures(t, dir)

	pl, err := New(testConfig(fastaPath, mzmlPath, true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := pl.Run()
	if res.Failures != 0 {
		t.Fatalf("expected no failures, got %d", res.Failures)
	}
	if len(res.OutputPaths) != 1 {
		t.Fatalf("expected 1 output path, got %d", len(res.OutputPaths))
	}

	data, err := os.ReadFile(res.OutputPaths[0])
	if err != nil {
		t.Fatalf("reading output pin: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected a header and at least one PSM row, got %q", lines)
	}
	if !strings.Contains(lines[1], "AAAR") {
		t.Errorf("expected the top PSM row to contain peptide AAAR, got %q", lines[1])
	}
}

func TestPipelineRunFilesSequential(t *testing.T) {
	dir := t.TempDir()
	fastaPath, mzmlPath := writeFixtures(t, dir)

	pl, err := New(testConfig(fastaPath, mzmlPath, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := pl.Run()
	if res.Failures != 0 || len(res.OutputPaths) != 1 {
		t.Fatalf("expected 1 successful output in files-sequential mode, got %+v", res)
	}
}
