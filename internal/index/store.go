// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"modernc.org/kv"

	"github.com/arlowe/specter/internal/mass"
	"github.com/arlowe/specter/internal/peptide"
)

// byFragmentMass is a kv compare function ordering entries by fragment
// mass and breaking ties by peptide handle, matching the stable sort order
// Build uses for the in-memory index.
func byFragmentMass(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	fx, hx := unmarshalFragmentKey(x)
	fy, hy := unmarshalFragmentKey(y)
	switch {
	case fx < fy:
		return -1
	case fx > fy:
		return 1
	case hx < hy:
		return -1
	case hx > hy:
		return 1
	default:
		return 0
	}
}

var order = binary.BigEndian

func marshalFragmentKey(mz float64, h peptide.Handle) []byte {
	var buf [12]byte
	order.PutUint64(buf[:8], math.Float64bits(mz))
	order.PutUint32(buf[8:], uint32(h))
	return buf[:]
}

func unmarshalFragmentKey(data []byte) (mz float64, h peptide.Handle) {
	mz = math.Float64frombits(order.Uint64(data[:8]))
	h = peptide.Handle(order.Uint32(data[8:12]))
	return mz, h
}

func marshalFragmentValue(f Fragment) []byte {
	var buf [9]byte
	order.PutUint64(buf[:8], math.Float64bits(f.Precursor))
	buf[8] = byte(f.Kind)
	return buf[:]
}

func unmarshalFragmentValue(data []byte) (precursor float64, kind byte) {
	return math.Float64frombits(order.Uint64(data[:8])), data[8]
}

// Persist writes idx to an ordered on-disk kv.DB at path, so a later run
// against the same database configuration can reopen it with Load instead
// of re-digesting and re-indexing the FASTA. This is a build-time cache
// only: Probe always operates on the in-memory flat-slice-plus-bucket
// structure, never on the kv.DB directly.
func Persist(idx *FragmentIndex, path string) error {
	opts := &kv.Options{Compare: byFragmentMass}
	db, err := kv.Create(path, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	const batch = 1000
	if err := db.BeginTransaction(); err != nil {
		return err
	}
	for i, f := range idx.Fragments {
		key := marshalFragmentKey(f.MZ, f.Handle)
		if err := db.Set(key, marshalFragmentValue(f)); err != nil {
			return err
		}
		if i%batch == batch-1 {
			if err := db.Commit(); err != nil {
				return err
			}
			if err := db.BeginTransaction(); err != nil {
				return err
			}
		}
	}
	return db.Commit()
}

// Load reconstructs a FragmentIndex from a kv.DB written by Persist,
// rebuilding the bucket table with the same bucketWidth/fragMax used when
// the cache was written.
func Load(path string, bucketWidth, fragMax float64) (*FragmentIndex, error) {
	opts := &kv.Options{Compare: byFragmentMass}
	db, err := kv.Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var frags []Fragment
	it, err := db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return fromSortedFragments(nil, bucketWidth, fragMax), nil
		}
		return nil, err
	}
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		mz, h := unmarshalFragmentKey(k)
		precursor, kind := unmarshalFragmentValue(v)
		frags = append(frags, Fragment{MZ: mz, Handle: h, Precursor: precursor, Kind: mass.FragmentKind(kind)})
	}

	return fromSortedFragments(frags, bucketWidth, fragMax), nil
}
