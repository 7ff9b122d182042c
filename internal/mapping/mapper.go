package mapping

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/pepgenome/internal/coords"
	"github.com/inodb/pepgenome/internal/kmer"
	"github.com/inodb/pepgenome/internal/peptide"
	"github.com/inodb/pepgenome/internal/proteome"
)

// PeptideLookup defines the interface for finding peptides in the proteome.
type PeptideLookup interface {
	Query(peptide string, budget int, filter kmer.TranscriptFilter) *kmer.MatchResult
}

// OccurrenceMapping is one match of a peptide and where it lies on the genome.
type OccurrenceMapping struct {
	Match     kmer.PositionMismatch
	Fragments []coords.GenomeCoordinates
}

// TranscriptMapping holds a peptide's matches within one transcript.
type TranscriptMapping struct {
	GeneID       string
	TranscriptID string
	Occurrences  []OccurrenceMapping
}

// Placed returns true if at least one occurrence has genome fragments.
func (t *TranscriptMapping) Placed() bool {
	for _, occ := range t.Occurrences {
		if len(occ.Fragments) > 0 {
			return true
		}
	}
	return false
}

// PeptideMapping is the result of mapping one peptide entry.
type PeptideMapping struct {
	Entry       *peptide.Entry
	Peptide     string // iso-sequence without PTMs
	Genes       int    // number of matched genes
	Variant     bool   // true if any match has a substitution
	Transcripts []TranscriptMapping
}

// Mapped returns true if the peptide matched any protein.
func (m *PeptideMapping) Mapped() bool {
	return len(m.Transcripts) > 0
}

type cacheKey struct {
	peptide string
	budget  int
	filter  kmer.TranscriptFilter
}

type cached struct {
	genes       int
	variant     bool
	transcripts []TranscriptMapping
}

// Mapper matches peptides against the index and resolves their coordinates.
// Results are reused for repeated peptides, so a peptide seen in many
// samples is resolved once.
type Mapper struct {
	index  PeptideLookup
	budget int // used for entries without their own budget
	logger *zap.Logger
	cache  sync.Map // cacheKey -> *cached
}

// NewMapper creates a mapper over the given index. defaultBudget applies to
// entries that carry no mismatch budget of their own.
func NewMapper(index PeptideLookup, defaultBudget int) *Mapper {
	return &Mapper{
		index:  index,
		budget: defaultBudget,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for debug messages.
func (m *Mapper) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Map maps a single peptide entry. A peptide with no match yields a mapping
// with no transcripts.
func (m *Mapper) Map(e *peptide.Entry) *PeptideMapping {
	budget := m.budget
	if e.HasBudget() {
		budget = e.AllowedMismatches
	}
	key := cacheKey{
		peptide: proteome.IsoSequence(proteome.RemovePTMs(e.Sequence)),
		budget:  budget,
		filter:  kmer.TranscriptFilter(e.TranscriptFilter),
	}

	c, ok := m.cache.Load(key)
	if !ok {
		c, _ = m.cache.LoadOrStore(key, m.resolve(key))
	}
	r := c.(*cached)

	return &PeptideMapping{
		Entry:       e,
		Peptide:     key.peptide,
		Genes:       r.genes,
		Variant:     r.variant,
		Transcripts: r.transcripts,
	}
}

func (m *Mapper) resolve(key cacheKey) *cached {
	result := m.index.Query(key.peptide, key.budget, key.filter)
	out := &cached{genes: len(result.Genes), variant: result.Variant}

	for _, geneID := range result.GeneIDs() {
		for _, transcriptID := range result.TranscriptIDs(geneID) {
			protein := result.Proteins[transcriptID]
			matches := result.Genes[geneID][transcriptID]

			occurrences := make([]Occurrence, len(matches))
			for i, pm := range matches {
				occurrences[i] = Occurrence{Position: pm.Position, Length: len(key.peptide)}
			}

			tm := TranscriptMapping{GeneID: geneID, TranscriptID: transcriptID}
			for i, fragments := range Resolve(protein, occurrences) {
				tm.Occurrences = append(tm.Occurrences, OccurrenceMapping{Match: matches[i], Fragments: fragments})
			}
			if !tm.Placed() {
				m.logger.Debug("peptide matched a transcript without coordinates",
					zap.String("peptide", key.peptide),
					zap.String("transcript", transcriptID))
			}
			out.transcripts = append(out.transcripts, tm)
		}
	}

	return out
}

// String formats a mapping summary for log messages.
func (m *PeptideMapping) String() string {
	return fmt.Sprintf("%s: %d genes, %d transcripts, variant=%t", m.Peptide, m.Genes, len(m.Transcripts), m.Variant)
}
