// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// specter-cmp compares the peptide calls in two .sage.pin tables produced
// from the same spectrum file, for instance outputs from two scoring
// configurations, or a run against a known-truth table. For every scan
// present in either table it compares the peptide assigned at rank 1 and
// reports how many scans agree, how many are called in only one table,
// and how many disagree, split by whether the two peptides share the same
// protein. Counts are emitted as a JSON object on stdout.
//
// If a dot flag is given, the disagreements are also written out as a
// weighted undirected graph in DOT format, with edge weight equal to the
// number of scans sharing that pair of conflicting peptide calls.
//
// usage: specter-cmp -a run1.sage.pin -b run2.sage.pin -dot discord.dot
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

type call struct {
	peptide string
	protein string
}

func main() {
	aFile := flag.String("a", "", "specify the first .sage.pin file (required)")
	bFile := flag.String("b", "", "specify the second .sage.pin file (required)")
	out := flag.String("dot", "", "specify a path to write a DOT graph of disagreements")
	none := flag.String("none", "none", "label used in the DOT graph for an empty peptide call")
	flag.Parse()
	if *aFile == "" || *bFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	a, err := rank1Calls(*aFile)
	if err != nil {
		log.Fatal(err)
	}
	b, err := rank1Calls(*bFile)
	if err != nil {
		log.Fatal(err)
	}

	scans := make(map[string]bool)
	for s := range a {
		scans[s] = true
	}
	for s := range b {
		scans[s] = true
	}

	var agree, aOnly, bOnly, proteinAgree, mismatch int
	mismatches := make(map[[2]call]int)
	for s := range scans {
		ca, okA := a[s]
		cb, okB := b[s]
		switch {
		case okA && okB && ca.peptide == cb.peptide:
			agree++
		case okA && !okB:
			aOnly++
		case !okA && okB:
			bOnly++
		case ca.protein == cb.protein:
			proteinAgree++
			mismatches[[2]call{ca, cb}]++
		default:
			mismatch++
			mismatches[[2]call{ca, cb}]++
		}
	}

	type record struct {
		Agree        int `json:"agree"`
		AOnly        int `json:"a_only"`
		BOnly        int `json:"b_only"`
		ProteinAgree int `json:"protein_agree"`
		Mismatch     int `json:"mismatch"`
	}
	m, err := json.Marshal(record{
		Agree:        agree,
		AOnly:        aOnly,
		BOnly:        bOnly,
		ProteinAgree: proteinAgree,
		Mismatch:     mismatch,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s\n", m)

	if *out != "" {
		if err := dotOut(*out, *aFile, *bFile, mismatches, *none); err != nil {
			log.Fatal(err)
		}
	}
}

// rank1Calls reads a .sage.pin table and returns the rank-1 peptide call
// for each scan.
func rank1Calls(path string) (map[string]call, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	scanCol := colIndex(header, "scannr")
	rankCol := colIndex(header, "rank")
	pepCol := colIndex(header, "peptide")
	protCol := colIndex(header, "proteins")

	calls := make(map[string]call)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if row[rankCol] != "1" {
			continue
		}
		calls[row[scanCol]] = call{peptide: row[pepCol], protein: row[protCol]}
	}
	return calls, nil
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

func dotOut(path, aFile, bFile string, edges map[[2]call]int, none string) error {
	g := newCallGraph(none)
	for pair, w := range edges {
		e := edge{
			f: g.nodeFor(aFile, pair[0].peptide),
			t: g.nodeFor(bFile, pair[1].peptide),
			w: float64(w),
		}
		g.SetWeightedEdge(e)
	}
	b, err := dot.Marshal(g, "discord", "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

type callGraph struct {
	*simple.WeightedUndirectedGraph
	idFor map[string]int64
	none  string
}

func newCallGraph(none string) callGraph {
	return callGraph{
		WeightedUndirectedGraph: simple.NewWeightedUndirectedGraph(0, 0),
		idFor:                   make(map[string]int64),
		none:                    none,
	}
}

func (g callGraph) nodeFor(file, peptide string) graph.Node {
	if peptide == "" {
		peptide = g.none
	}
	key := file + ":" + peptide
	if id, ok := g.idFor[key]; ok {
		return g.Node(id)
	}
	id := g.WeightedUndirectedGraph.NewNode().ID()
	g.idFor[key] = id
	g.AddNode(node{id: id, name: key})
	return g.Node(id)
}

type node struct {
	id   int64
	name string
}

func (n node) ID() int64     { return n.id }
func (n node) DOTID() string { return n.name }

type edge struct {
	f, t graph.Node
	w    float64
}

func (e edge) From() graph.Node         { return e.f }
func (e edge) To() graph.Node           { return e.t }
func (e edge) ReversedEdge() graph.Edge { return edge{f: e.t, t: e.f, w: e.w} }
func (e edge) Weight() float64          { return e.w }
func (e edge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "weight", Value: fmt.Sprint(e.w)}}
}
