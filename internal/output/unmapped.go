package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/pepgenome/internal/mapping"
)

// UnmappedWriter records peptides that matched no gene.
type UnmappedWriter struct {
	w *bufio.Writer
}

// NewUnmappedWriter creates a new unmapped peptide writer.
func NewUnmappedWriter(w io.Writer) *UnmappedWriter {
	return &UnmappedWriter{w: bufio.NewWriter(w)}
}

// Write writes a row for m if it matched nothing. Mapped peptides are ignored.
func (uw *UnmappedWriter) Write(m *mapping.PeptideMapping) error {
	if m.Mapped() {
		return nil
	}

	sequence := m.Peptide
	sample, psms, quant := "-", "0", "0"
	if m.Entry != nil {
		sequence = m.Entry.Sequence
		sample = m.Entry.Sample
		psms = strconv.Itoa(m.Entry.PSMs)
		quant = FormatQuant(m.Entry.Quant)
	}

	values := []string{"No-Gene", sequence, "No-Transcript", "No-genes", sample, psms, quant}
	_, err := uw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (uw *UnmappedWriter) Flush() error {
	return uw.w.Flush()
}
