// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mzml

import (
	"strings"
	"testing"
)

// The m/z array below encodes [100.0, 200.0] as uncompressed 64-bit
// little-endian floats; the intensity array encodes [10.0, 20.0] as
// zlib-compressed 64-bit little-endian floats.
const doc = `<?xml version="1.0" encoding="utf-8"?>
<indexedmzML>
<mzML>
<run>
<spectrumList>
<spectrum id="controllerType=0 controllerNumber=1 scan=1" index="0">
  <cvParam accession="MS:1000511" name="ms level" value="2"/>
  <scanList>
    <scan>
      <cvParam accession="MS:1000016" name="scan start time" value="12.5"/>
    </scan>
  </scanList>
  <precursorList>
    <precursor>
      <selectedIonList>
        <selectedIon>
          <cvParam accession="MS:1000744" name="selected ion m/z" value="500.25"/>
          <cvParam accession="MS:1000041" name="charge state" value="2"/>
        </selectedIon>
      </selectedIonList>
    </precursor>
  </precursorList>
  <binaryDataArrayList>
    <binaryDataArray>
      <cvParam accession="MS:1000523" name="64-bit float"/>
      <cvParam accession="MS:1000514" name="m/z array"/>
      <binary>AAAAAAAAWUAAAAAAAABpQA==</binary>
    </binaryDataArray>
    <binaryDataArray>
      <cvParam accession="MS:1000523" name="64-bit float"/>
      <cvParam accession="MS:1000574" name="zlib compression"/>
      <cvParam accession="MS:1000515" name="intensity array"/>
      <binary>eJxjYAABFQcwxWDiAAAEYADZ</binary>
    </binaryDataArray>
  </binaryDataArrayList>
</spectrum>
</spectrumList>
</run>
</mzML>
</indexedmzML>
`

func TestReaderDecodesSpectrum(t *testing.T) {
	r := NewReader(strings.NewReader(doc))
	raw, ok, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatal("expected a spectrum, got none")
	}
	if raw.MSLevel != 2 {
		t.Errorf("MSLevel = %d, want 2", raw.MSLevel)
	}
	if raw.RT != 12.5 {
		t.Errorf("RT = %v, want 12.5", raw.RT)
	}
	if raw.PrecursorMZ != 500.25 {
		t.Errorf("PrecursorMZ = %v, want 500.25", raw.PrecursorMZ)
	}
	if len(raw.PrecursorCharges) != 1 || raw.PrecursorCharges[0] != 2 {
		t.Errorf("PrecursorCharges = %v, want [2]", raw.PrecursorCharges)
	}
	if len(raw.Peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(raw.Peaks))
	}
	if raw.Peaks[0].MZ != 100 || raw.Peaks[0].Intensity != 10 {
		t.Errorf("peak 0 = %+v, want {100 10}", raw.Peaks[0])
	}
	if raw.Peaks[1].MZ != 200 || raw.Peaks[1].Intensity != 20 {
		t.Errorf("peak 1 = %+v, want {200 20}", raw.Peaks[1])
	}

	_, ok, err = r.Next()
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if ok {
		t.Fatal("expected no further spectra")
	}
}
