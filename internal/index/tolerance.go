// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package index builds and queries the two-level bucketed fragment index:
// a flat, mass-sorted array of theoretical fragment ions plus a coarse
// bucket table that lets a probe reject the vast majority of candidates by
// precursor mass before ever touching the dense inner records.
package index

// Kind distinguishes the two tolerance units a window can be expressed in.
// Kept as a tagged variant with a Window method (rather than an interface)
// so the scorer's hot inner loop never pays for dynamic dispatch.
type Kind uint8

const (
	PPM Kind = iota
	Da
)

// Tolerance is a (possibly asymmetric) window around a mass, expressed
// either in parts-per-million or in daltons.
type Tolerance struct {
	Kind   Kind
	Lo, Hi float64
}

// Window returns the absolute [lo, hi] bounds of the tolerance window
// around m.
func (t Tolerance) Window(m float64) (lo, hi float64) {
	switch t.Kind {
	case PPM:
		return m * (1 + t.Lo/1e6), m * (1 + t.Hi/1e6)
	default:
		return m + t.Lo, m + t.Hi
	}
}

// Widen returns a copy of t with its Da-equivalent half-width clamped to be
// at least halfWidth on each side, used by the chimera precursor-window
// override. If t is a PPM tolerance it is replaced
// outright with a symmetric Da tolerance, matching the original engine's
// behaviour of overriding (rather than merely widening) a ppm window.
func (t Tolerance) Widen(halfWidth float64) Tolerance {
	switch t.Kind {
	case Da:
		lo, hi := t.Lo, t.Hi
		if lo > -halfWidth {
			lo = -halfWidth
		}
		if hi < halfWidth {
			hi = halfWidth
		}
		return Tolerance{Kind: Da, Lo: lo, Hi: hi}
	default:
		return Tolerance{Kind: Da, Lo: -halfWidth, Hi: halfWidth}
	}
}
