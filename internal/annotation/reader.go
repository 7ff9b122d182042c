package annotation

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Reader streams records from a GTF or GFF3 source.
type Reader struct {
	scanner    *bufio.Scanner
	closers    []io.Closer
	lineNumber int
	skipped    int
	logger     *zap.Logger
}

// Open opens an annotation file, handling gzip compression by extension.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}

	var reader io.Reader = f
	closers := []io.Closer{f}

	// Handle gzipped files
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		reader = gz
		closers = append([]io.Closer{gz}, closers...)
	}

	r := NewReader(reader)
	r.closers = closers
	return r, nil
}

// NewReader creates a reader over already opened annotation content.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &Reader{scanner: scanner, logger: zap.NewNop()}
}

// SetLogger sets the logger used to report skipped lines.
func (r *Reader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Next returns the next record. Returns nil, nil at end of input.
// Comments, blank lines and malformed lines are skipped.
func (r *Reader) Next() (*Record, error) {
	for r.scanner.Scan() {
		r.lineNumber++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := ParseLine(line)
		if err != nil {
			r.skipped++
			r.logger.Debug("skipping malformed annotation line",
				zap.Int("line", r.lineNumber),
				zap.Error(err))
			continue
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan annotation: %w", err)
	}
	return nil, nil
}

// ReadAll reads all remaining records.
func (r *Reader) ReadAll() ([]*Record, error) {
	var records []*Record
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, rec)
	}
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Skipped returns the number of malformed lines skipped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Transcript groups one transcript's records in file order.
type Transcript struct {
	ID      string
	GeneID  string
	Records []*Record
}

// GroupByTranscript groups records by transcript, keeping the file order of
// both transcripts (by first appearance) and records within a transcript.
// Records without a transcript ID are dropped.
func GroupByTranscript(records []*Record) []*Transcript {
	byID := make(map[string]*Transcript)
	var order []*Transcript

	for _, rec := range records {
		id := rec.TranscriptID()
		if id == "" {
			continue
		}
		t, ok := byID[id]
		if !ok {
			t = &Transcript{ID: id}
			byID[id] = t
			order = append(order, t)
		}
		if t.GeneID == "" {
			t.GeneID = rec.GeneID()
		}
		if !rec.IsTranscript() {
			t.Records = append(t.Records, rec)
		}
	}

	return order
}
