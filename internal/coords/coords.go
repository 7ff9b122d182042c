// Package coords provides the protein and genome coordinate types shared by
// the annotation builder, the peptide index and the position resolver.
package coords

import "fmt"

// Offset is the number of bases of a codon that straddle a segment boundary.
// Off3 means the boundary falls exactly on the codon grid.
type Offset uint8

const (
	Off3 Offset = iota // no residual bases
	Off1
	Off2
)

// OffsetFromBases returns the offset for n residual bases, taken modulo 3.
func OffsetFromBases(n int) Offset {
	return Offset(((n % 3) + 3) % 3)
}

// Bases returns the number of residual bases (0 for Off3).
func (o Offset) Bases() int {
	return int(o)
}

func (o Offset) String() string {
	switch o {
	case Off1:
		return "off1"
	case Off2:
		return "off2"
	default:
		return "off3"
	}
}

// Strand is the genomic strand of a feature.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

// ParseStrand converts a GTF/GFF strand column. Anything but "-" is forward.
func ParseStrand(s string) Strand {
	if s == "-" {
		return Reverse
	}
	return Forward
}

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// Frame is the reading-frame phase of a feature, or FrameUnknown.
type Frame int8

// FrameUnknown marks a feature whose frame column was ".".
const FrameUnknown Frame = -1

// ParseFrame converts a GTF/GFF frame column.
func ParseFrame(s string) Frame {
	switch s {
	case "0":
		return 0
	case "1":
		return 1
	case "2":
		return 2
	default:
		return FrameUnknown
	}
}

func (f Frame) String() string {
	if f == FrameUnknown {
		return "."
	}
	return fmt.Sprintf("%d", int(f))
}

// ProteinCoordinates is a closed amino-acid span within a protein (0-based).
// NTerm and CTerm record how many bases of a split codon bleed across the
// span's 5' and 3' boundary respectively.
type ProteinCoordinates struct {
	Start int
	End   int
	NTerm Offset
	CTerm Offset
}

// Len returns the number of amino acids covered, including partial codons.
func (p ProteinCoordinates) Len() int {
	return p.End - p.Start + 1
}

// Precedes reports whether p lies strictly before o.
func (p ProteinCoordinates) Precedes(o ProteinCoordinates) bool {
	return p.End < o.Start
}

// Equivalent reports whether neither span strictly precedes the other.
// This is the key equality used when looking up segments for a peptide, so
// a peptide spanning an exon junction is equivalent to both segments.
func (p ProteinCoordinates) Equivalent(o ProteinCoordinates) bool {
	return !p.Precedes(o) && !o.Precedes(p)
}

func (p ProteinCoordinates) String() string {
	return fmt.Sprintf("[%d,%d](%s,%s)", p.Start, p.End, p.NTerm, p.CTerm)
}

// GenomeCoordinates is a nucleotide range on the reference genome (1-based,
// inclusive). Start is the 5' end in transcript orientation, so on the
// reverse strand Start > End.
type GenomeCoordinates struct {
	Chrom        string
	Start        int64
	End          int64
	Strand       Strand
	TranscriptID string
	ExonID       string
	Frame        Frame
}

// Len returns the number of bases covered.
func (g GenomeCoordinates) Len() int64 {
	if g.Strand == Reverse {
		return g.Start - g.End + 1
	}
	return g.End - g.Start + 1
}

// Low returns the smaller genomic coordinate.
func (g GenomeCoordinates) Low() int64 {
	return min(g.Start, g.End)
}

// High returns the larger genomic coordinate.
func (g GenomeCoordinates) High() int64 {
	return max(g.Start, g.End)
}

// Advance moves n bases downstream of Start in transcript orientation.
func (g GenomeCoordinates) Advance(n int64) int64 {
	if g.Strand == Reverse {
		return g.Start - n
	}
	return g.Start + n
}

func (g GenomeCoordinates) String() string {
	return fmt.Sprintf("%s:%d-%d(%s)", g.Chrom, g.Low(), g.High(), g.Strand)
}

// Segment pairs a protein span with the genomic range that encodes it.
type Segment struct {
	Protein ProteinCoordinates
	Genome  GenomeCoordinates
}
