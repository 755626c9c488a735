// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mzml implements a streaming reader over the mzML XML spectrum
// format, producing spectrum.RawSpectrum records one at a time so a whole
// run file is never held in memory.
package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/arlowe/specter/internal/spectrum"
)

// Reader implements spectrum.SpectrumSource over an mzML XML stream.
type Reader struct {
	dec *xml.Decoder
}

// NewReader wraps r in a streaming mzML Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// Next decodes the next <spectrum> element, or returns ok=false once the
// document is exhausted.
func (rd *Reader) Next() (spectrum.RawSpectrum, bool, error) {
	for {
		tok, err := rd.dec.Token()
		if err == io.EOF {
			return spectrum.RawSpectrum{}, false, nil
		}
		if err != nil {
			return spectrum.RawSpectrum{}, false, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "spectrum" {
			continue
		}
		var raw xmlSpectrum
		if err := rd.dec.DecodeElement(&raw, &se); err != nil {
			return spectrum.RawSpectrum{}, false, fmt.Errorf("decoding spectrum element: %w", err)
		}
		out, err := raw.resolve()
		if err != nil {
			return spectrum.RawSpectrum{}, false, err
		}
		return out, true, nil
	}
}

// xmlSpectrum mirrors the subset of the mzML <spectrum> schema specter
// consumes: the ms level and scan identity cvParams, the precursor ion's
// selected m/z and charge, the scan start time, and the two binary data
// arrays (m/z and intensity).
type xmlSpectrum struct {
	ID               string       `xml:"id,attr"`
	Index            int          `xml:"index,attr"`
	CVParams         []cvParam    `xml:"cvParam"`
	ScanList         scanList     `xml:"scanList"`
	Precursors       []precursor  `xml:"precursorList>precursor"`
	BinaryDataArrays []binaryData `xml:"binaryDataArrayList>binaryDataArray"`
}

type cvParam struct {
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
}

type scanList struct {
	Scans []struct {
		CVParams []cvParam `xml:"cvParam"`
	} `xml:"scan"`
}

type precursor struct {
	SelectedIons struct {
		CVParams []cvParam `xml:"selectedIon>cvParam"`
	} `xml:"selectedIonList"`
}

type binaryData struct {
	CVParams []cvParam `xml:"cvParam"`
	Binary   string    `xml:"binary"`
}

const (
	accMSLevel         = "MS:1000511"
	accScanStartTime   = "MS:1000016"
	accSelectedIonMZ   = "MS:1000744"
	accChargeState     = "MS:1000041"
	accMZArray         = "MS:1000514"
	accIntensityArray  = "MS:1000515"
	accZlibCompression = "MS:1000574"
	acc64BitFloat      = "MS:1000523"
	acc32BitFloat      = "MS:1000521"
)

func cvValue(params []cvParam, accession string) (string, bool) {
	for _, p := range params {
		if p.Accession == accession {
			return p.Value, true
		}
	}
	return "", false
}

func hasCV(params []cvParam, accession string) bool {
	_, ok := cvValue(params, accession)
	return ok
}

func (x *xmlSpectrum) resolve() (spectrum.RawSpectrum, error) {
	out := spectrum.RawSpectrum{Scan: x.ID}

	if v, ok := cvValue(x.CVParams, accMSLevel); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return out, fmt.Errorf("spectrum %s: invalid ms level %q: %w", x.ID, v, err)
		}
		out.MSLevel = n
	}

	if len(x.ScanList.Scans) > 0 {
		if v, ok := cvValue(x.ScanList.Scans[0].CVParams, accScanStartTime); ok {
			rt, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return out, fmt.Errorf("spectrum %s: invalid scan start time %q: %w", x.ID, v, err)
			}
			out.RT = rt
		}
	}

	if len(x.Precursors) > 0 {
		ions := x.Precursors[0].SelectedIons.CVParams
		if v, ok := cvValue(ions, accSelectedIonMZ); ok {
			mz, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return out, fmt.Errorf("spectrum %s: invalid precursor m/z %q: %w", x.ID, v, err)
			}
			out.PrecursorMZ = mz
		}
		if v, ok := cvValue(ions, accChargeState); ok {
			z, err := strconv.Atoi(v)
			if err != nil {
				return out, fmt.Errorf("spectrum %s: invalid charge state %q: %w", x.ID, v, err)
			}
			out.PrecursorCharges = []int{z}
		}
	}

	var mzs, intensities []float64
	for _, arr := range x.BinaryDataArrays {
		values, err := arr.decode()
		if err != nil {
			return out, fmt.Errorf("spectrum %s: %w", x.ID, err)
		}
		switch {
		case hasCV(arr.CVParams, accMZArray):
			mzs = values
		case hasCV(arr.CVParams, accIntensityArray):
			intensities = values
		}
	}
	if len(mzs) != len(intensities) {
		return out, fmt.Errorf("spectrum %s: mismatched m/z (%d) and intensity (%d) array lengths", x.ID, len(mzs), len(intensities))
	}
	out.Peaks = make([]spectrum.Peak, len(mzs))
	for i := range mzs {
		out.Peaks[i] = spectrum.Peak{MZ: mzs[i], Intensity: intensities[i]}
	}
	return out, nil
}

// decode base64-decodes (and, if flagged, zlib-inflates) b.Binary, then
// unpacks it as a little-endian array of 32- or 64-bit floats.
func (b *binaryData) decode() ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(b.Binary)
	if err != nil {
		return nil, fmt.Errorf("base64 decoding binary array: %w", err)
	}
	if hasCV(b.CVParams, accZlibCompression) {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("opening zlib stream: %w", err)
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("inflating zlib stream: %w", err)
		}
	}

	switch {
	case hasCV(b.CVParams, acc64BitFloat):
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("64-bit float array length %d is not a multiple of 8", len(raw))
		}
		out := make([]float64, len(raw)/8)
		for i := range out {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			out[i] = math.Float64frombits(bits)
		}
		return out, nil
	case hasCV(b.CVParams, acc32BitFloat):
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("32-bit float array length %d is not a multiple of 4", len(raw))
		}
		out := make([]float64, len(raw)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("binary array has neither a 32- nor 64-bit float encoding cvParam")
	}
}
