// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The specter-audit command dumps the contents of a persisted fragment
// index kv.DB (written by internal/index.Persist) as a JSON stream on
// stdout, one record per fragment.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"log"
	"math"
	"os"

	"modernc.org/kv"
)

var order = binary.BigEndian

// byFragmentMass mirrors internal/index's unexported kv.Options.Compare
// function so this standalone tool can open the same database without
// importing an internal package.
func byFragmentMass(x, y []byte) int {
	fx := math.Float64frombits(order.Uint64(x[:8]))
	fy := math.Float64frombits(order.Uint64(y[:8]))
	hx := order.Uint32(x[8:12])
	hy := order.Uint32(y[8:12])
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

type record struct {
	FragmentMZ    float64 `json:"fragment_mz"`
	PeptideHandle uint32  `json:"peptide_handle"`
	PrecursorMass float64 `json:"precursor_mass"`
	FragmentKind  string  `json:"fragment_kind"`
}

func main() {
	path := flag.String("db", "", "specify the persisted fragment index to audit (required)")
	flag.Parse()
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := kv.Open(*path, &kv.Options{Compare: byFragmentMass})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	it, err := db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return
		}
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}
		kind := "b"
		if v[8] == 1 {
			kind = "y"
		}
		r := record{
			FragmentMZ:    math.Float64frombits(order.Uint64(k[:8])),
			PeptideHandle: order.Uint32(k[8:12]),
			PrecursorMass: math.Float64frombits(order.Uint64(v[:8])),
			FragmentKind:  kind,
		}
		if err := enc.Encode(r); err != nil {
			log.Fatal(err)
		}
	}
}
