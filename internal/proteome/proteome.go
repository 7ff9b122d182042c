package proteome

import "sort"

// Proteome holds reference proteins indexed by transcript ID.
type Proteome struct {
	proteins map[string]*ProteinSequence
	order    []string // insertion order, for deterministic iteration
	offsets  map[string]int
}

// New creates an empty proteome.
func New() *Proteome {
	return &Proteome{
		proteins: make(map[string]*ProteinSequence),
		offsets:  make(map[string]int),
	}
}

// Add registers a protein. A later protein with the same transcript ID
// replaces the earlier one. Non-zero header offsets are recorded as the
// transcript's translation offset.
func (p *Proteome) Add(protein *ProteinSequence) {
	id := protein.TranscriptID
	if _, ok := p.proteins[id]; !ok {
		p.order = append(p.order, id)
	}
	p.proteins[id] = protein
	if protein.TranslationOffset != 0 {
		p.offsets[id] = protein.TranslationOffset
	} else {
		delete(p.offsets, id)
	}
}

// Lookup returns the protein for a transcript ID, or nil if not found.
func (p *Proteome) Lookup(transcriptID string) *ProteinSequence {
	return p.proteins[transcriptID]
}

// TranslationOffset returns the number of leading untranslated bases for a
// transcript and whether a header declared one.
func (p *Proteome) TranslationOffset(transcriptID string) (int, bool) {
	off, ok := p.offsets[transcriptID]
	return off, ok
}

// Proteins returns all proteins in insertion order.
func (p *Proteome) Proteins() []*ProteinSequence {
	out := make([]*ProteinSequence, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.proteins[id])
	}
	return out
}

// Len returns the number of proteins.
func (p *Proteome) Len() int {
	return len(p.proteins)
}

// MappedCount returns the number of proteins that have coordinate segments.
func (p *Proteome) MappedCount() int {
	n := 0
	for _, prot := range p.proteins {
		if len(prot.Segments) > 0 {
			n++
		}
	}
	return n
}

// GeneIDs returns the sorted set of gene IDs in the proteome.
func (p *Proteome) GeneIDs() []string {
	seen := make(map[string]bool)
	for _, prot := range p.proteins {
		seen[prot.GeneID] = true
	}
	genes := make([]string, 0, len(seen))
	for g := range seen {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}
