// Package mapping places peptide matches on the genome.
package mapping

import (
	"github.com/inodb/pepgenome/internal/coords"
	"github.com/inodb/pepgenome/internal/proteome"
)

// Occurrence is a peptide found at a protein position.
type Occurrence struct {
	Position int
	Length   int
}

// Resolve returns the genome fragments of each occurrence, in order. An
// occurrence outside every segment gets an empty fragment list.
func Resolve(protein *proteome.ProteinSequence, occurrences []Occurrence) [][]coords.GenomeCoordinates {
	out := make([][]coords.GenomeCoordinates, len(occurrences))
	for i, occ := range occurrences {
		out[i] = ResolveSpan(protein, occ.Position, occ.Length)
	}
	return out
}

// ResolveSpan returns the genome fragments encoding residues
// [position, position+length-1] of protein, one per overlapping segment in
// protein order.
func ResolveSpan(protein *proteome.ProteinSequence, position, length int) []coords.GenomeCoordinates {
	if length <= 0 {
		return nil
	}
	span := coords.ProteinCoordinates{Start: position, End: position + length - 1}

	var fragments []coords.GenomeCoordinates
	for _, seg := range protein.SegmentIndex().FindEquivalent(span) {
		fragments = append(fragments, fragment(seg, span))
	}
	return fragments
}

// fragment clips span to seg and converts the clipped residues to bases.
//
// A segment with an n-term overhang starts with the tail of a split codon
// that belongs to residue seg.Protein.Start; its first whole codon encodes
// the next residue. Likewise a c-term overhang ends with the head of the
// codon for residue seg.Protein.End.
func fragment(seg coords.Segment, span coords.ProteinCoordinates) coords.GenomeCoordinates {
	p := seg.Protein
	g := seg.Genome
	nterm := p.NTerm.Bases()
	cterm := p.CTerm.Bases()

	first := max(span.Start, p.Start)
	last := min(span.End, p.End)

	// Residue encoded by the first whole codon.
	full := p.Start
	if nterm > 0 {
		full++
	}

	var startOff, endOff int64
	frame := coords.Frame(0)
	if first == p.Start && nterm > 0 {
		startOff = 0
		frame = coords.Frame(nterm)
	} else {
		startOff = int64(nterm + (first-full)*3)
	}
	if last == p.End && cterm > 0 {
		endOff = g.Len() - 1
	} else {
		endOff = int64(nterm + (last-full)*3 + 2)
	}

	return coords.GenomeCoordinates{
		Chrom:        g.Chrom,
		Start:        g.Advance(startOff),
		End:          g.Advance(endOff),
		Strand:       g.Strand,
		TranscriptID: g.TranscriptID,
		ExonID:       g.ExonID,
		Frame:        frame,
	}
}
