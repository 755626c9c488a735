// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mass

import "testing"

func TestResidue(t *testing.T) {
	for _, aa := range ValidAA {
		if _, ok := Residue(aa); !ok {
			t.Errorf("expected canonical residue %q to have a mass", aa)
		}
	}
	if _, ok := Residue('B'); ok {
		t.Errorf("B is not a canonical residue")
	}
}

func TestIndex(t *testing.T) {
	for i, aa := range ValidAA {
		if got := Index(aa); got != i {
			t.Errorf("Index(%q) = %d, want %d", aa, got, i)
		}
	}
	if got := Index('X'); got != -1 {
		t.Errorf("Index('X') = %d, want -1", got)
	}
}

func TestKnownMasses(t *testing.T) {
	// MK: M + K + water.
	m, _ := Residue('M')
	k, _ := Residue('K')
	got := m + k + Water
	want := 131.04048509 + 128.09496301 + Water
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("MK mass = %v, want %v", got, want)
	}
}
