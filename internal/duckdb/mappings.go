package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/pepgenome/internal/mapping"
	"github.com/inodb/pepgenome/internal/proteome"
)

// MappingRow is one placed peptide occurrence as stored in DuckDB.
type MappingRow struct {
	Peptide         string // iso-sequence
	GeneID          string
	TranscriptID    string
	ProteinPosition int64 // 0-based
	Chrom           string
	Strand          string
	GenomeStart     int64 // lowest fragment base
	GenomeEnd       int64 // highest fragment base
	Fragments       string
	Exons           string
	Mismatch1       int64
	Mismatch2       int64
	Mismatches      int64
}

// rowKey is the composite key for deduplicating rows before writing.
type rowKey struct {
	peptide, transcriptID string
	position              int64
}

// RowsFromMapping flattens the placed occurrences of a peptide mapping.
func RowsFromMapping(m *mapping.PeptideMapping) []MappingRow {
	var rows []MappingRow
	for _, tm := range m.Transcripts {
		for _, occ := range tm.Occurrences {
			frags := occ.Fragments
			if len(frags) == 0 {
				continue
			}

			low, high := frags[0].Low(), frags[0].High()
			ranges := make([]string, len(frags))
			exons := make([]string, len(frags))
			for i, f := range frags {
				low = min(low, f.Low())
				high = max(high, f.High())
				ranges[i] = fmt.Sprintf("%d-%d", f.Low(), f.High())
				exons[i] = f.ExonID
			}

			rows = append(rows, MappingRow{
				Peptide:         m.Peptide,
				GeneID:          tm.GeneID,
				TranscriptID:    tm.TranscriptID,
				ProteinPosition: int64(occ.Match.Position),
				Chrom:           frags[0].Chrom,
				Strand:          frags[0].Strand.String(),
				GenomeStart:     low,
				GenomeEnd:       high,
				Fragments:       strings.Join(ranges, ";"),
				Exons:           strings.Join(exons, ";"),
				Mismatch1:       int64(occ.Match.Mismatch1),
				Mismatch2:       int64(occ.Match.Mismatch2),
				Mismatches:      int64(occ.Match.Count),
			})
		}
	}
	return rows
}

// WriteMappings batch-inserts rows into DuckDB using the Appender API.
// Duplicate (peptide, transcript_id, protein_position) entries are
// deduplicated before writing, and rows already stored are skipped.
func (s *Store) WriteMappings(rows []MappingRow) error {
	if len(rows) == 0 {
		return nil
	}

	existing, err := s.existingKeys(rows)
	if err != nil {
		return err
	}

	seen := make(map[rowKey]bool, len(rows))
	deduped := make([]MappingRow, 0, len(rows))
	for _, r := range rows {
		k := rowKey{r.Peptide, r.TranscriptID, r.ProteinPosition}
		if !seen[k] && !existing[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}
	if len(deduped) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "peptide_mappings")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(
			r.Peptide, r.GeneID, r.TranscriptID, r.ProteinPosition,
			r.Chrom, r.Strand, r.GenomeStart, r.GenomeEnd,
			r.Fragments, r.Exons,
			r.Mismatch1, r.Mismatch2, r.Mismatches,
		); err != nil {
			return fmt.Errorf("append mapping: %w", err)
		}
	}

	return appender.Flush()
}

// existingKeys returns the keys of rows whose peptide is already stored.
func (s *Store) existingKeys(rows []MappingRow) (map[rowKey]bool, error) {
	peptides := make(map[string]bool)
	for _, r := range rows {
		peptides[r.Peptide] = true
	}

	existing := make(map[rowKey]bool)
	for pep := range peptides {
		stored, err := s.LookupPeptide(pep)
		if err != nil {
			return nil, err
		}
		for _, r := range stored {
			existing[rowKey{r.Peptide, r.TranscriptID, r.ProteinPosition}] = true
		}
	}
	return existing, nil
}

// ClearMappings removes all stored mappings.
func (s *Store) ClearMappings() error {
	_, err := s.db.Exec("DELETE FROM peptide_mappings")
	return err
}

// CountMappings returns the number of stored rows.
func (s *Store) CountMappings() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM peptide_mappings").Scan(&n); err != nil {
		return 0, fmt.Errorf("count mappings: %w", err)
	}
	return n, nil
}

const selectMappings = `SELECT
	peptide, gene_id, transcript_id, protein_position,
	chrom, strand, genome_start, genome_end,
	fragments, exons, mismatch1, mismatch2, mismatches
	FROM peptide_mappings`

// LookupPeptide returns the stored rows of a peptide. The peptide is
// normalized the same way as during mapping.
func (s *Store) LookupPeptide(peptide string) ([]MappingRow, error) {
	iso := proteome.IsoSequence(proteome.RemovePTMs(peptide))
	rows, err := s.db.Query(selectMappings+`
		WHERE peptide=?
		ORDER BY transcript_id, protein_position`, iso)
	if err != nil {
		return nil, fmt.Errorf("query peptide: %w", err)
	}
	defer rows.Close()

	return scanMappingRows(rows)
}

// SearchByGene returns all stored rows for a gene.
func (s *Store) SearchByGene(geneID string) ([]MappingRow, error) {
	rows, err := s.db.Query(selectMappings+`
		WHERE gene_id=?
		ORDER BY peptide, transcript_id, protein_position`, geneID)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	return scanMappingRows(rows)
}

// scanMappingRows scans rows into MappingRow slices.
func scanMappingRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]MappingRow, error) {
	var results []MappingRow
	for rows.Next() {
		var r MappingRow
		if err := rows.Scan(
			&r.Peptide, &r.GeneID, &r.TranscriptID, &r.ProteinPosition,
			&r.Chrom, &r.Strand, &r.GenomeStart, &r.GenomeEnd,
			&r.Fragments, &r.Exons, &r.Mismatch1, &r.Mismatch2, &r.Mismatches,
		); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}
	return results, nil
}
