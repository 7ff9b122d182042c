package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inodb/pepgenome/internal/proteome"
)

// ProteomeCache manages gob-serialized proteins and their segments on disk,
// so the annotation does not need to be parsed again:
//
//	{dir}/proteome.gob       (serialized proteins with segments)
//	{dir}/proteome.gob.meta  (source file fingerprints and build settings)
type ProteomeCache struct {
	dir string
}

// NewProteomeCache creates a proteome cache for the given directory.
func NewProteomeCache(dir string) *ProteomeCache {
	return &ProteomeCache{dir: dir}
}

func (pc *ProteomeCache) gobPath() string {
	return filepath.Join(pc.dir, "proteome.gob")
}

func (pc *ProteomeCache) metaPath() string {
	return filepath.Join(pc.dir, "proteome.gob.meta")
}

func expectedMeta(fasta, annotation FileFingerprint, mode string) cacheMeta {
	m := cacheMeta{"feature_mode": mode}
	m.setFile("fasta", fasta)
	m.setFile("annotation", annotation)
	return m
}

// Valid checks whether the cached proteome was built from the same source
// files with the same feature mode.
func (pc *ProteomeCache) Valid(fasta, annotation FileFingerprint, mode string) bool {
	meta, err := readMeta(pc.metaPath())
	if err != nil {
		return false
	}
	if !meta.matches(expectedMeta(fasta, annotation, mode)) {
		return false
	}

	// Verify gob file exists
	if _, err := os.Stat(pc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads the cached proteins into a new proteome.
func (pc *ProteomeCache) Load() (*proteome.Proteome, error) {
	f, err := os.Open(pc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open proteome cache: %w", err)
	}
	defer f.Close()

	var proteins []*proteome.ProteinSequence
	if err := gob.NewDecoder(f).Decode(&proteins); err != nil {
		return nil, fmt.Errorf("decode proteome cache: %w", err)
	}

	p := proteome.New()
	for _, prot := range proteins {
		prot.SetSegments(prot.Segments)
		p.Add(prot)
	}
	return p, nil
}

// Write serializes all proteins to disk.
func (pc *ProteomeCache) Write(p *proteome.Proteome, fasta, annotation FileFingerprint, mode string) error {
	if err := os.MkdirAll(pc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(pc.gobPath())
	if err != nil {
		return fmt.Errorf("create proteome cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(p.Proteins()); err != nil {
		f.Close()
		os.Remove(pc.gobPath())
		return fmt.Errorf("encode proteome cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close proteome cache: %w", err)
	}

	// Write metadata
	return writeMeta(pc.metaPath(), expectedMeta(fasta, annotation, mode))
}

// Clear removes the cached proteome files.
func (pc *ProteomeCache) Clear() {
	os.Remove(pc.gobPath())
	os.Remove(pc.metaPath())
}
