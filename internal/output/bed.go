package output

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/pepgenome/internal/coords"
	"github.com/inodb/pepgenome/internal/mapping"
)

// Item colours for BED tracks.
const (
	ColorUnique     = "128,0,0"   // peptide maps to a single gene
	ColorSharedGene = "0,0,0"     // peptide maps to several genes
	ColorVariant    = "255,128,0" // occurrence carries a substitution
)

// BEDWriter writes placed occurrences as BED12 lines, one block per fragment.
type BEDWriter struct {
	w *bufio.Writer
}

// NewBEDWriter creates a new BED writer.
func NewBEDWriter(w io.Writer) *BEDWriter {
	return &BEDWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes a track line.
func (bw *BEDWriter) WriteHeader(name string) error {
	_, err := bw.w.WriteString("track name=\"" + name + "\" itemRgb=\"On\"\n")
	return err
}

// Write writes one line per placed occurrence of m.
func (bw *BEDWriter) Write(m *mapping.PeptideMapping) error {
	for _, tm := range m.Transcripts {
		for _, occ := range tm.Occurrences {
			if len(occ.Fragments) == 0 {
				continue
			}

			color := ColorUnique
			switch {
			case occ.Match.Count > 0:
				color = ColorVariant
			case m.Genes > 1:
				color = ColorSharedGene
			}

			if _, err := bw.w.WriteString(BEDLine(m.Peptide, color, occ.Fragments) + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (bw *BEDWriter) Flush() error {
	return bw.w.Flush()
}

// BEDLine formats fragments of one occurrence as a BED12 record. BED
// coordinates are 0-based half-open and blocks are in ascending order.
func BEDLine(name, color string, frags []coords.GenomeCoordinates) string {
	blocks := slices.Clone(frags)
	slices.SortFunc(blocks, func(a, b coords.GenomeCoordinates) int {
		return int(a.Low() - b.Low())
	})

	chromStart := blocks[0].Low() - 1
	chromEnd := blocks[0].High()
	for _, b := range blocks[1:] {
		chromEnd = max(chromEnd, b.High())
	}

	sizes := make([]string, len(blocks))
	starts := make([]string, len(blocks))
	for i, b := range blocks {
		sizes[i] = strconv.FormatInt(b.High()-b.Low()+1, 10)
		starts[i] = strconv.FormatInt(b.Low()-1-chromStart, 10)
	}

	values := []string{
		blocks[0].Chrom,
		strconv.FormatInt(chromStart, 10),
		strconv.FormatInt(chromEnd, 10),
		name,
		"1000",
		blocks[0].Strand.String(),
		strconv.FormatInt(chromStart, 10),
		strconv.FormatInt(chromEnd, 10),
		color,
		strconv.Itoa(len(blocks)),
		strings.Join(sizes, ","),
		strings.Join(starts, ","),
	}
	return strings.Join(values, "\t")
}
