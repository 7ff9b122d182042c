package kmer

import (
	"sort"
	"strings"

	"github.com/inodb/pepgenome/internal/proteome"
)

// NoMismatch fills unused mismatch slots in a PositionMismatch.
const NoMismatch = -1

// PositionMismatch is one occurrence of a peptide within a protein.
// Only the first two mismatch offsets (relative to the peptide start) are
// kept; Count holds the total.
type PositionMismatch struct {
	Position  int
	Mismatch1 int
	Mismatch2 int
	Count     int
}

// NewPositionMismatch records a match at position with the given mismatch offsets.
func NewPositionMismatch(position int, mismatches []int) PositionMismatch {
	pm := PositionMismatch{Position: position, Mismatch1: NoMismatch, Mismatch2: NoMismatch, Count: len(mismatches)}
	if len(mismatches) > 0 {
		pm.Mismatch1 = mismatches[0]
	}
	if len(mismatches) > 1 {
		pm.Mismatch2 = mismatches[1]
	}
	return pm
}

// MatchResult holds the matches of one query, grouped gene -> transcript.
// Each query returns its own MatchResult.
type MatchResult struct {
	Genes    map[string]map[string][]PositionMismatch
	Proteins map[string]*proteome.ProteinSequence // keyed by transcript ID
	Variant  bool                                 // true if any match has a mismatch
}

func newMatchResult() *MatchResult {
	return &MatchResult{
		Genes:    make(map[string]map[string][]PositionMismatch),
		Proteins: make(map[string]*proteome.ProteinSequence),
	}
}

func (r *MatchResult) add(protein *proteome.ProteinSequence, pm PositionMismatch) {
	transcripts, ok := r.Genes[protein.GeneID]
	if !ok {
		transcripts = make(map[string][]PositionMismatch)
		r.Genes[protein.GeneID] = transcripts
	}
	transcripts[protein.TranscriptID] = append(transcripts[protein.TranscriptID], pm)
	r.Proteins[protein.TranscriptID] = protein
	if pm.Count > 0 {
		r.Variant = true
	}
}

// sort orders each transcript's matches by position.
func (r *MatchResult) sort() {
	for _, transcripts := range r.Genes {
		for _, pms := range transcripts {
			sort.Slice(pms, func(i, j int) bool { return pms[i].Position < pms[j].Position })
		}
	}
}

// Empty returns true if the query matched nothing.
func (r *MatchResult) Empty() bool {
	return len(r.Genes) == 0
}

// Len returns the total number of matches.
func (r *MatchResult) Len() int {
	n := 0
	for _, transcripts := range r.Genes {
		for _, pms := range transcripts {
			n += len(pms)
		}
	}
	return n
}

// GeneIDs returns the matched gene IDs in sorted order.
func (r *MatchResult) GeneIDs() []string {
	genes := make([]string, 0, len(r.Genes))
	for g := range r.Genes {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

// TranscriptIDs returns the matched transcript IDs of a gene in sorted order.
func (r *MatchResult) TranscriptIDs(geneID string) []string {
	transcripts := r.Genes[geneID]
	ids := make([]string, 0, len(transcripts))
	for id := range transcripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Matches returns the matches of one transcript, or nil.
func (r *MatchResult) Matches(transcriptID string) []PositionMismatch {
	protein := r.Proteins[transcriptID]
	if protein == nil {
		return nil
	}
	return r.Genes[protein.GeneID][transcriptID]
}

// TranscriptFilter restricts a query to some transcripts. A transcript is
// accepted when its ID occurs within the filter value, so a comma separated
// list of IDs works as a set.
type TranscriptFilter string

// All accepts every transcript.
const All TranscriptFilter = "all"

// Accepts reports whether a transcript passes the filter. The empty filter
// accepts everything.
func (f TranscriptFilter) Accepts(transcriptID string) bool {
	if f == "" || f == All {
		return true
	}
	return strings.Contains(string(f), transcriptID)
}
