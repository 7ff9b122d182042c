package kmer

// Matcher is the residue comparison strategy of an index.
type Matcher int

const (
	// MatchNormal accepts any alignment with at most budget mismatches.
	MatchNormal Matcher = iota
	// MatchMinimumSpacing additionally rejects alignments where two
	// mismatches are fewer than budget residues apart.
	MatchMinimumSpacing
)

func (m Matcher) String() string {
	if m == MatchMinimumSpacing {
		return "minimum-spacing"
	}
	return "normal"
}

// compare aligns peptide against protein at start and returns the mismatch
// offsets. ok is false when the protein is too short or the alignment is
// rejected.
func (m Matcher) compare(peptide, protein string, start, budget int) (mismatches []int, ok bool) {
	if start < 0 || start+len(peptide) > len(protein) {
		return nil, false
	}

	last := -1
	for i := 0; i < len(peptide); i++ {
		if peptide[i] == protein[start+i] {
			continue
		}
		if m == MatchMinimumSpacing && last >= 0 && i-last < budget {
			return nil, false
		}
		mismatches = append(mismatches, i)
		if len(mismatches) > budget {
			return nil, false
		}
		last = i
	}
	return mismatches, true
}
