package proteome

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// LoadFASTA reads a protein FASTA file (optionally gzipped) into a new proteome.
func LoadFASTA(path string) (*Proteome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	p := New()
	if err := ReadFASTA(reader, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadFASTA parses protein FASTA records from r and adds them to p.
// Records with an empty sequence are skipped.
func ReadFASTA(r io.Reader, p *Proteome) error {
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.Protein)))
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok || len(s.Seq) == 0 {
			continue
		}

		header := ">" + s.ID
		if s.Desc != "" {
			header += " " + s.Desc
		}

		residues := strings.TrimRight(string(alphabet.LettersToBytes(s.Seq)), "*")
		p.Add(NewProteinSequence(header, residues))
	}
	if err := sc.Error(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}
	return nil
}
