// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// specter-cull removes redundant PSM calls from a .sage.pin table: within
// each scan, a lower-scoring call whose calculated-mass window is entirely
// contained in a higher-scoring call's window is discarded. This collapses
// near-duplicate chimera hits that differ only by an isotope-error shift
// of the same underlying peptide.
//
// usage: specter-cull -window 0.02 < in.sage.pin > out.sage.pin
package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/biogo/store/interval"
)

// massScale converts a Da mass window into the integer coordinate space
// interval.IntTree requires; 1e6 preserves sub-ppm precision at typical
// peptide masses.
const massScale = 1e6

func main() {
	window := flag.Float64("window", 0.02, "half-width in Da of the calculated-mass containment window")
	flag.Usage = func() {
		log.Println("usage: specter-cull -window 0.02 < in.sage.pin > out.sage.pin")
		os.Exit(2)
	}
	flag.Parse()

	r := csv.NewReader(os.Stdin)
	r.Comma = '\t'
	header, err := r.Read()
	if err != nil {
		log.Fatal(err)
	}
	scanCol, calcCol, discCol := colIndex(header, "scannr"), colIndex(header, "calcmass"), colIndex(header, "discriminant_score")

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		rows = append(rows, row)
	}

	byScan := make(map[string][]int)
	for i, row := range rows {
		byScan[row[scanCol]] = append(byScan[row[scanCol]], i)
	}

	culled := make([]bool, len(rows))
	for _, idxs := range byScan {
		cullGroup(rows, idxs, calcCol, discCol, *window, culled)
	}

	w := csv.NewWriter(os.Stdout)
	w.Comma = '\t'
	if err := w.Write(header); err != nil {
		log.Fatal(err)
	}
	for i, row := range rows {
		if culled[i] {
			continue
		}
		if err := w.Write(row); err != nil {
			log.Fatal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal(err)
	}
}

func colIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	log.Fatalf("missing required column %q", name)
	return -1
}

// massInterval is a containment-tested PSM window keyed by its row index.
type massInterval struct {
	id         uintptr
	start, end int
	score      float64
}

func (m massInterval) ID() uintptr { return m.id }
func (m massInterval) Range() interval.IntRange {
	return interval.IntRange{Start: m.start, End: m.end}
}

// Overlap reports whether b completely contains m: this is a
// containment-only predicate, not a general overlap test.
func (m massInterval) Overlap(b interval.IntRange) bool {
	return b.Start <= m.start && m.end <= b.End
}

// cullGroup marks every row in idxs whose mass window is completely
// contained within a strictly higher-scoring row's window.
func cullGroup(rows [][]string, idxs []int, calcCol, discCol int, window float64, culled []bool) {
	var tree interval.IntTree
	windows := make(map[int][2]int, len(idxs))
	scores := make(map[int]float64, len(idxs))
	for _, i := range idxs {
		mass, err := strconv.ParseFloat(rows[i][calcCol], 64)
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(rows[i][discCol], 64)
		if err != nil {
			continue
		}
		lo := int(math.Round((mass - window) * massScale))
		hi := int(math.Round((mass + window) * massScale))
		windows[i] = [2]int{lo, hi}
		scores[i] = score
		if err := tree.Insert(massInterval{id: uintptr(i), start: lo, end: hi, score: score}, true); err != nil {
			log.Fatal(err)
		}
	}
	tree.AdjustRanges()

	for _, i := range idxs {
		w, ok := windows[i]
		if !ok {
			continue
		}
		self := massInterval{start: w[0], end: w[1]}
		for _, hit := range tree.Get(self) {
			h := hit.(massInterval)
			if int(h.id) == i {
				continue
			}
			if h.score > scores[i] {
				culled[i] = true
				break
			}
		}
	}
}
