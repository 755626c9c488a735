// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"math"
	"sort"

	"github.com/arlowe/specter/internal/peptide"
)

// bucket is one coarse partition of the fragment-mass axis: the [Start,End)
// span of FragmentIndex.Fragments it covers, plus the min/max precursor
// mass observed among peptides whose fragments fall in it.
type bucket struct {
	Start, End           int
	MinPrecursor, MaxPrecursor float64
}

// FragmentIndex is a two-level structure: a flat, fragment-mass-sorted
// array plus a coarse bucket table over
// [0, FragmentMaxMZ] used to reject candidates by precursor mass before
// touching the dense inner records.
type FragmentIndex struct {
	Fragments   []Fragment
	buckets     []bucket
	bucketWidth float64
	fragmentMax float64
}

// Build collects the b/y ions of every peptide in table within
// [fragMin, fragMax], sorts them by fragment mass (stable, so peptide
// handle order breaks ties), and partitions the result into buckets of
// width bucketWidth covering [0, fragMax].
func Build(table *peptide.Table, fragMin, fragMax, bucketWidth float64) *FragmentIndex {
	var frags []Fragment
	for i := range table.Peptides {
		h := peptide.Handle(i)
		frags = append(frags, Ions(h, &table.Peptides[i], fragMin, fragMax)...)
	}

	sort.SliceStable(frags, func(i, j int) bool { return frags[i].MZ < frags[j].MZ })

	return fromSortedFragments(frags, bucketWidth, fragMax)
}

// fromSortedFragments builds the bucket table over an already mass-sorted
// fragment slice. Shared by Build (freshly digested fragments) and Load
// (fragments read back from a persisted kv.DB in sorted order).
func fromSortedFragments(frags []Fragment, bucketWidth, fragMax float64) *FragmentIndex {
	nBuckets := int(math.Ceil(fragMax / bucketWidth))
	if nBuckets < 1 {
		nBuckets = 1
	}
	buckets := make([]bucket, nBuckets)
	for i := range buckets {
		buckets[i] = bucket{MinPrecursor: math.Inf(1), MaxPrecursor: math.Inf(-1)}
	}

	bi := 0
	for i, f := range frags {
		for bi < nBuckets-1 && f.MZ >= float64(bi+1)*bucketWidth {
			bi++
		}
		b := &buckets[bi]
		if b.End == 0 {
			b.Start = i
		}
		b.End = i + 1
		if f.Precursor < b.MinPrecursor {
			b.MinPrecursor = f.Precursor
		}
		if f.Precursor > b.MaxPrecursor {
			b.MaxPrecursor = f.Precursor
		}
	}

	return &FragmentIndex{
		Fragments:   frags,
		buckets:     buckets,
		bucketWidth: bucketWidth,
		fragmentMax: fragMax,
	}
}

// Len reports the total number of indexed fragments.
func (idx *FragmentIndex) Len() int { return len(idx.Fragments) }

// FragmentAxisMax reports the upper bound of the indexed fragment m/z axis
// (the fragMax passed to Build).
func (idx *FragmentIndex) FragmentAxisMax() float64 { return idx.fragmentMax }

// FragmentCountInPrecursorRange sums the number of indexed fragments
// belonging to buckets whose observed precursor mass range overlaps
// [lo, hi], the same bucket-level precursor rejection Probe uses.
func (idx *FragmentIndex) FragmentCountInPrecursorRange(lo, hi float64) int {
	var n int
	for _, b := range idx.buckets {
		if b.End <= b.Start {
			continue
		}
		if b.MaxPrecursor < lo || b.MinPrecursor > hi {
			continue
		}
		n += b.End - b.Start
	}
	return n
}

// Probe finds every peptide handle with a b/y ion within tol of
// fragmentMZ, restricted to peptides whose precursor mass lies in
// [precursorLo, precursorHi]. yield is called once per matching fragment
// (a peptide with several matching ions is yielded that many times, which
// is exactly what the scorer's per-peak accumulation in internal/score
// wants).
func (idx *FragmentIndex) Probe(fragmentMZ float64, tol Tolerance, precursorLo, precursorHi float64, yield func(Fragment)) {
	fl, fh := tol.Window(fragmentMZ)
	if fh < 0 || fl > idx.fragmentMax {
		return
	}

	loBucket := bucketFor(fl, idx.bucketWidth, len(idx.buckets))
	hiBucket := bucketFor(fh, idx.bucketWidth, len(idx.buckets))

	for bi := loBucket; bi <= hiBucket; bi++ {
		b := idx.buckets[bi]
		if b.End <= b.Start {
			continue
		}
		if b.MaxPrecursor < precursorLo || b.MinPrecursor > precursorHi {
			continue
		}

		span := idx.Fragments[b.Start:b.End]
		start := sort.Search(len(span), func(i int) bool { return span[i].MZ >= fl })
		for i := start; i < len(span) && span[i].MZ <= fh; i++ {
			f := span[i]
			if f.Precursor >= precursorLo && f.Precursor <= precursorHi {
				yield(f)
			}
		}
	}
}

func bucketFor(mz, width float64, n int) int {
	if mz < 0 {
		return 0
	}
	bi := int(mz / width)
	if bi >= n {
		bi = n - 1
	}
	if bi < 0 {
		bi = 0
	}
	return bi
}
