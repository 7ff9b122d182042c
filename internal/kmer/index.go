// Package kmer implements a k-mer index over protein iso-sequences that
// answers exact and bounded-mismatch peptide queries.
package kmer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/inodb/pepgenome/internal/proteome"
	"go.uber.org/zap"
)

// ErrSealed is returned when adding proteins after the first query.
var ErrSealed = errors.New("k-mer index is sealed")

// Config holds the index parameters fixed at construction.
type Config struct {
	KmerLength        int  // residues per key
	AllowedMismatches int  // default mismatch budget
	MinimumSpacing    bool // use the minimum-spacing matcher when the budget is > 1
}

// DefaultConfig returns the default index configuration.
func DefaultConfig() Config {
	return Config{KmerLength: 5}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.KmerLength < 1 {
		return fmt.Errorf("kmer length must be positive, got %d", c.KmerLength)
	}
	if c.AllowedMismatches < 0 {
		return fmt.Errorf("allowed mismatches must not be negative, got %d", c.AllowedMismatches)
	}
	return nil
}

// Entry is one k-mer occurrence: a protein and the window start within it.
type Entry struct {
	Protein  *proteome.ProteinSequence
	Position int
}

// Index maps each k-mer to the protein positions where it occurs.
//
// The index is filled by Add or Build and becomes read-only on the first
// query. Queries may run concurrently.
type Index struct {
	cfg     Config
	keys    KeyGenerator
	matcher Matcher
	logger  *zap.Logger

	mu       sync.Mutex
	sealed   bool
	sealOnce sync.Once
	table    map[string][]Entry
	residues [256]bool // every residue seen by Add
	proteins int
	entries  int
}

// New creates an empty index.
func New(cfg Config) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	matcher := MatchNormal
	if cfg.MinimumSpacing && cfg.AllowedMismatches > 1 {
		matcher = MatchMinimumSpacing
	}

	return &Index{
		cfg:     cfg,
		keys:    NewKeyGenerator(cfg.KmerLength),
		matcher: matcher,
		logger:  zap.NewNop(),
		table:   make(map[string][]Entry),
	}, nil
}

// SetLogger sets the logger.
func (ix *Index) SetLogger(l *zap.Logger) {
	ix.logger = l
}

// Config returns the index configuration.
func (ix *Index) Config() Config {
	return ix.cfg
}

// Matcher returns the comparison strategy chosen at construction.
func (ix *Index) Matcher() Matcher {
	return ix.matcher
}

// Add indexes every k-length window of the protein's sequence. Proteins
// shorter than k are ignored.
func (ix *Index) Add(protein *proteome.ProteinSequence) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.sealed {
		return ErrSealed
	}

	k := ix.cfg.KmerLength
	seq := protein.Sequence
	if len(seq) < k {
		return nil
	}

	for i := 0; i < len(seq); i++ {
		ix.residues[seq[i]] = true
	}
	for i := 0; i+k <= len(seq); i++ {
		key := seq[i : i+k]
		ix.table[key] = append(ix.table[key], Entry{Protein: protein, Position: i})
	}
	ix.proteins++
	ix.entries += len(seq) - k + 1
	return nil
}

// Build indexes all proteins of a proteome.
func (ix *Index) Build(p *proteome.Proteome) error {
	for _, protein := range p.Proteins() {
		if err := ix.Add(protein); err != nil {
			return fmt.Errorf("index protein %s: %w", protein.TranscriptID, err)
		}
	}

	ix.logger.Info("built k-mer index",
		zap.Int("proteins", ix.proteins),
		zap.Int("kmers", ix.Size()),
		zap.Int("entries", ix.entries),
		zap.Int("k", ix.cfg.KmerLength),
		zap.Stringer("matcher", ix.matcher))
	return nil
}

// Size returns the number of distinct k-mers.
func (ix *Index) Size() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.table)
}

// Entries returns the total number of indexed windows.
func (ix *Index) Entries() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.entries
}

// Contains reports whether key occurs in any indexed protein.
func (ix *Index) Contains(key string) bool {
	ix.seal()
	_, ok := ix.table[proteome.IsoSequence(key)]
	return ok
}

// Find queries with the configured default budget and no transcript filter.
func (ix *Index) Find(peptide string) *MatchResult {
	return ix.Query(peptide, ix.cfg.AllowedMismatches, All)
}

// Query returns every occurrence of peptide in the indexed proteins with at
// most budget substitutions. A negative budget selects the configured
// default. No match yields an empty result.
func (ix *Index) Query(peptide string, budget int, filter TranscriptFilter) *MatchResult {
	ix.seal()

	if budget < 0 {
		budget = ix.cfg.AllowedMismatches
	}
	peptide = proteome.IsoSequence(peptide)
	result := newMatchResult()

	mode, seeds := ix.keys.Generate(peptide, budget)

	type hit struct {
		protein  *proteome.ProteinSequence
		position int
	}
	seen := make(map[hit]bool)

	for _, seed := range seeds {
		offset := seed.Multiplier * ix.cfg.KmerLength
		for _, entry := range ix.table[seed.Key] {
			if !filter.Accepts(entry.Protein.TranscriptID) {
				continue
			}

			start := entry.Position
			if mode == ModeBackward {
				if entry.Position < offset {
					continue
				}
				start -= offset
			}

			h := hit{entry.Protein, start}
			if seen[h] {
				continue
			}
			seen[h] = true

			mismatches, ok := ix.matcher.compare(peptide, entry.Protein.Sequence, start, budget)
			if !ok {
				continue
			}
			result.add(entry.Protein, NewPositionMismatch(start, mismatches))
		}
	}

	result.sort()
	return result
}

// seal ends the build phase. The table is never written afterwards, so
// queries read it without locking. Substituted seeds range over IsoAlphabet
// plus any other residue the indexed proteins contain (U, X, *).
func (ix *Index) seal() {
	ix.sealOnce.Do(func() {
		ix.mu.Lock()
		ix.sealed = true
		ix.keys.Alphabet = extendAlphabet(IsoAlphabet, ix.residues)
		ix.mu.Unlock()
	})
}

// Alphabet returns the residues substituted into forward-mode seeds. It
// seals the index.
func (ix *Index) Alphabet() string {
	ix.seal()
	return ix.keys.Alphabet
}

func extendAlphabet(base string, seen [256]bool) string {
	for _, c := range []byte(base) {
		seen[c] = false
	}
	var extra []byte
	for c, ok := range seen {
		if ok {
			extra = append(extra, byte(c))
		}
	}
	return base + string(extra)
}
