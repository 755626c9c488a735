// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package peptide

import (
	"fmt"
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/arlowe/specter/internal/mass"
)

// Protein is a single parsed FASTA record: an accession, its free-text
// description, and its residue sequence.
type Protein struct {
	Accession string
	Desc      string
	Sequence  []byte
}

// ReadFasta scans a protein FASTA stream with a seqio.Scanner wrapping a
// fasta.Reader over a linear.Seq template.
func ReadFasta(src io.Reader) ([]Protein, error) {
	sc := seqio.NewScanner(fasta.NewReader(src, linear.NewSeq("", nil, alphabet.Protein)))
	var proteins []Protein
	for sc.Next() {
		seq := sc.Seq().(*linear.Seq)
		raw := make([]byte, seq.Len())
		for i := range raw {
			raw[i] = byte(seq.Seq[i])
		}
		for _, b := range raw {
			if !IsResidueOrX(b) {
				return nil, fmt.Errorf("peptide: protein %q contains non-canonical residue %q", seq.ID, b)
			}
		}
		proteins = append(proteins, Protein{
			Accession: seq.ID,
			Desc:      seq.Desc,
			Sequence:  raw,
		})
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("peptide: error reading fasta: %w", err)
	}
	return proteins, nil
}

// IsResidueOrX reports whether b is a canonical amino acid code or the
// ambiguous placeholder X. ReadFasta accepts X in protein sequences;
// Digest then fails with an error, because X is outside the canonical
// alphabet.
func IsResidueOrX(b byte) bool {
	return b == 'X' || mass.IsValidResidue(b)
}
