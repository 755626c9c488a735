// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quant

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arlowe/specter/internal/spectrum"
)

func TestWriteStubHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.quant.csv")
	scans := []spectrum.RawSpectrum{{Scan: "1", MSLevel: 3}, {Scan: "2", MSLevel: 3}}
	if err := WriteStub(path, scans); err != nil {
		t.Fatalf("WriteStub: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "scannr,tmt_1,") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
}
