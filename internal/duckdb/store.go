// Package duckdb provides persistence for peptide mappings and the mapped
// proteome. Proteins with their segments are cached as gob files (fast, pure
// Go). Peptide mappings are stored in DuckDB (queryable, append-only).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for peptide mappings.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS peptide_mappings (
		peptide VARCHAR,
		gene_id VARCHAR,
		transcript_id VARCHAR,
		protein_position BIGINT,
		chrom VARCHAR,
		strand VARCHAR,
		genome_start BIGINT,
		genome_end BIGINT,
		fragments VARCHAR,
		exons VARCHAR,
		mismatch1 BIGINT,
		mismatch2 BIGINT,
		mismatches BIGINT,
		PRIMARY KEY (peptide, transcript_id, protein_position)
	)`)
	return err
}
