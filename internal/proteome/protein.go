// Package proteome provides reference protein sequences and their coordinate
// segments.
package proteome

import (
	"strings"

	"github.com/inodb/pepgenome/internal/coords"
)

// ProteinSequence is a transcript's translated sequence together with the
// segments that place it on the genome.
type ProteinSequence struct {
	TranscriptID      string           // Transcript ID without version (e.g., ENST00000311936)
	GeneID            string           // Parent gene ID
	Header            string           // Full FASTA header line
	Sequence          string           // Iso-sequence (I and L collapsed to J)
	TranslationOffset int              // Leading untranslated bases to trim from the annotation
	Segments          []coords.Segment // Ordered by protein start, set once by the builder

	index *coords.SegmentIndex
}

// NewProteinSequence creates a protein from a FASTA header and raw residues.
// The residues are upper-cased and converted to an iso-sequence.
func NewProteinSequence(header, residues string) *ProteinSequence {
	h := ParseHeader(header)
	return &ProteinSequence{
		TranscriptID:      h.TranscriptID,
		GeneID:            h.GeneID,
		Header:            header,
		Sequence:          IsoSequence(residues),
		TranslationOffset: h.Offset,
	}
}

// Len returns the number of residues.
func (p *ProteinSequence) Len() int {
	return len(p.Sequence)
}

// SetSegments replaces the protein's segments wholesale.
func (p *ProteinSequence) SetSegments(segments []coords.Segment) {
	p.Segments = segments
	p.index = coords.NewSegmentIndex(segments)
}

// SegmentIndex returns the overlap index over the protein's segments.
func (p *ProteinSequence) SegmentIndex() *coords.SegmentIndex {
	if p.index == nil {
		return coords.NewSegmentIndex(p.Segments)
	}
	return p.index
}

// IsoSequence upper-cases s and replaces I and L with J so that matching is
// insensitive to the isobaric leucine/isoleucine ambiguity.
func IsoSequence(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == 'I' || c == 'L' {
			c = 'J'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// RemovePTMs strips modification annotations from a peptide string, keeping
// only residue letters. Anything inside (), [] or {} is dropped, e.g.
// "PEP(Phospho)TIDE" and "PEP[+80]TIDE" both become "PEPTIDE".
func RemovePTMs(peptide string) string {
	var b strings.Builder
	b.Grow(len(peptide))
	depth := 0
	for i := 0; i < len(peptide); i++ {
		c := peptide[i]
		switch {
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		}
	}
	return b.String()
}
