// Package peptide reads identified peptides from tab-delimited input.
//
// Each row holds Sample, Peptide, PSMs and Quant, optionally followed by a
// per-peptide mismatch budget and a transcript filter.
package peptide

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// NoBudget marks an entry without its own mismatch budget.
const NoBudget = -1

// Entry is one peptide identification.
type Entry struct {
	Line              int
	Sample            string
	Sequence          string // as given, possibly with PTM annotations
	PSMs              int
	Quant             float64
	AllowedMismatches int    // NoBudget if not given
	TranscriptFilter  string // "all" when the column is present but blank
}

// HasBudget returns true if the entry carries its own mismatch budget.
func (e *Entry) HasBudget() bool {
	return e.AllowedMismatches != NoBudget
}

// Reader reads peptide entries.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	skipped    int
}

// Open opens a peptide file. Gzipped input is detected by its magic bytes.
// A path of "-" reads from stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open peptide file: %w", err)
	}

	r := &Reader{file: file}
	br := bufio.NewReader(file)

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		br = bufio.NewReader(r.gzipReader)
	}
	r.reader = br

	return r, nil
}

// NewReader creates a reader from an io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Next returns the next entry with at least one PSM. Returns nil, nil at end
// of input. A malformed row yields a *ParseError; reading may continue
// after it.
func (r *Reader) Next() (*Entry, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read peptide line: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") || isHeader(line) {
			continue
		}

		e, perr := r.parseLine(line)
		if perr != nil {
			return nil, perr
		}
		if e.PSMs <= 0 {
			r.skipped++
			continue
		}
		return e, nil
	}
}

// ReadAll reads all remaining entries, stopping at the first error.
func (r *Reader) ReadAll() ([]*Entry, error) {
	var entries []*Entry
	for {
		e, err := r.Next()
		if err != nil {
			return nil, err
		}
		if e == nil {
			return entries, nil
		}
		entries = append(entries, e)
	}
}

func isHeader(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "sample") || strings.HasPrefix(lower, "experiment")
}

func (r *Reader) parseLine(line string) (*Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 4 {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected at least 4 columns, found %d", len(fields)),
		}
	}

	e := &Entry{
		Line:              r.lineNumber,
		Sample:            strings.TrimSpace(fields[0]),
		Sequence:          strings.TrimSpace(fields[1]),
		AllowedMismatches: NoBudget,
	}
	if e.Sequence == "" {
		return nil, &ParseError{Line: r.lineNumber, Message: "empty peptide"}
	}

	psms := strings.TrimSpace(fields[2])
	if psms != "" {
		n, err := strconv.Atoi(psms)
		if err != nil {
			return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("invalid PSM count: %s", psms)}
		}
		e.PSMs = n
	}

	quant := strings.TrimSpace(fields[3])
	if quant != "" {
		q, err := strconv.ParseFloat(quant, 64)
		if err != nil {
			return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("invalid quant: %s", quant)}
		}
		e.Quant = q
	}

	if len(fields) >= 6 {
		budget := strings.TrimSpace(fields[4])
		if budget != "" {
			n, err := strconv.Atoi(budget)
			if err != nil || n < 0 {
				return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("invalid mismatch budget: %s", budget)}
			}
			e.AllowedMismatches = n
		}
		e.TranscriptFilter = strings.TrimSpace(fields[5])
		if e.TranscriptFilter == "" {
			e.TranscriptFilter = "all"
		}
	}

	return e, nil
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Skipped returns the number of rows dropped for having no PSMs.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParseError represents an error during peptide parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("peptide parse error at line %d: %s", e.Line, e.Message)
}
