// Package output provides peptide mapping output formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/pepgenome/internal/coords"
	"github.com/inodb/pepgenome/internal/kmer"
	"github.com/inodb/pepgenome/internal/mapping"
)

// TabWriter writes peptide mappings in tab-delimited format, one row per
// placed occurrence.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Sample",
			"Peptide",
			"Gene",
			"Transcript",
			"Chromosome",
			"Strand",
			"Start",
			"End",
			"Fragments",
			"Exons",
			"Protein_position",
			"Mismatches",
			"Variant",
			"Genes",
			"PSMs",
			"Quant",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes all placed occurrences of a mapping. Unmatched peptides and
// occurrences without genome fragments produce no rows.
func (tw *TabWriter) Write(m *mapping.PeptideMapping) error {
	for _, tm := range m.Transcripts {
		for _, occ := range tm.Occurrences {
			if len(occ.Fragments) == 0 {
				continue
			}
			if err := tw.writeRow(m, &tm, &occ); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tw *TabWriter) writeRow(m *mapping.PeptideMapping, tm *mapping.TranscriptMapping, occ *mapping.OccurrenceMapping) error {
	frags := occ.Fragments
	first := frags[0]

	// Overall genomic extent
	low, high := first.Low(), first.High()
	for _, f := range frags[1:] {
		low = min(low, f.Low())
		high = max(high, f.High())
	}

	gene := tm.GeneID
	if gene == "" {
		gene = "-"
	}

	sample := "-"
	psms := "0"
	quant := "0"
	if m.Entry != nil {
		if m.Entry.Sample != "" {
			sample = m.Entry.Sample
		}
		psms = strconv.Itoa(m.Entry.PSMs)
		quant = FormatQuant(m.Entry.Quant)
	}

	variant := "-"
	if occ.Match.Count > 0 {
		variant = "YES"
	}

	values := []string{
		sample,
		m.Peptide,
		gene,
		tm.TranscriptID,
		first.Chrom,
		first.Strand.String(),
		strconv.FormatInt(low, 10),
		strconv.FormatInt(high, 10),
		FormatFragments(frags),
		formatExons(frags),
		strconv.Itoa(occ.Match.Position + 1),
		FormatMismatches(occ.Match),
		variant,
		strconv.Itoa(m.Genes),
		psms,
		quant,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// FormatFragments renders fragments as "low-high" ranges joined by ";".
func FormatFragments(frags []coords.GenomeCoordinates) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = fmt.Sprintf("%d-%d", f.Low(), f.High())
	}
	return strings.Join(parts, ";")
}

func formatExons(frags []coords.GenomeCoordinates) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.ExonID
		if parts[i] == "" {
			parts[i] = "-"
		}
	}
	return strings.Join(parts, ";")
}

// FormatMismatches renders the recorded mismatch offsets (1-based, relative
// to the peptide) as a comma separated list, or "-" for an exact match.
func FormatMismatches(pm kmer.PositionMismatch) string {
	var parts []string
	for _, off := range []int{pm.Mismatch1, pm.Mismatch2} {
		if off != kmer.NoMismatch {
			parts = append(parts, strconv.Itoa(off+1))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// FormatQuant renders a quantification value without trailing zeros.
func FormatQuant(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
