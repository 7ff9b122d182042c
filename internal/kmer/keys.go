package kmer

// IsoAlphabet is the residue alphabet of iso-sequences (I and L folded to J).
const IsoAlphabet = "ACDEFGHJKMNPQRSTVWY"

// KeyMode says how candidates found under a seed are aligned to the peptide.
type KeyMode int

const (
	// ModeExact seeds with the peptide's first k residues.
	ModeExact KeyMode = iota
	// ModeBackward seeds with budget+1 disjoint k-mers; a candidate's
	// alignment start is its position minus Multiplier*k.
	ModeBackward
	// ModeForward seeds with every variant of the first k residues that has
	// at most budget substitutions.
	ModeForward
)

func (m KeyMode) String() string {
	switch m {
	case ModeBackward:
		return "backward"
	case ModeForward:
		return "forward"
	default:
		return "exact"
	}
}

// Seed is one lookup key and its distance from the peptide start in units of k.
type Seed struct {
	Key        string
	Multiplier int
}

// KeyGenerator derives lookup seeds from a peptide.
type KeyGenerator struct {
	K        int
	Alphabet string
}

// NewKeyGenerator returns a generator for k-mers of length k over IsoAlphabet.
func NewKeyGenerator(k int) KeyGenerator {
	return KeyGenerator{K: k, Alphabet: IsoAlphabet}
}

// Generate returns the seeds for peptide under a mismatch budget. Peptides
// shorter than k produce no seeds.
//
// With budget 0 the only seed is the peptide prefix. With a positive budget
// and a peptide of at least (budget+1)*k residues, the peptide is cut into
// budget+1 disjoint k-mers, at least one of which must be free of
// substitutions. Shorter peptides fall back to enumerating the substituted
// variants of the prefix.
func (g KeyGenerator) Generate(peptide string, budget int) (KeyMode, []Seed) {
	if len(peptide) < g.K {
		return ModeExact, nil
	}

	if budget <= 0 {
		return ModeExact, []Seed{{Key: peptide[:g.K]}}
	}

	if len(peptide) >= (budget+1)*g.K {
		seeds := make([]Seed, 0, budget+1)
		for i := 0; i <= budget; i++ {
			seeds = append(seeds, Seed{Key: peptide[i*g.K : (i+1)*g.K], Multiplier: i})
		}
		return ModeBackward, seeds
	}

	var seeds []Seed
	g.substitute([]byte(peptide[:g.K]), 0, budget, func(key string) {
		seeds = append(seeds, Seed{Key: key})
	})
	return ModeForward, seeds
}

// substitute emits key and every variant of it with up to budget residues at
// positions >= from replaced by a different alphabet letter. Each variant is
// emitted once.
func (g KeyGenerator) substitute(key []byte, from, budget int, emit func(string)) {
	emit(string(key))
	if budget == 0 {
		return
	}
	for i := from; i < len(key); i++ {
		orig := key[i]
		for j := 0; j < len(g.Alphabet); j++ {
			c := g.Alphabet[j]
			if c == orig {
				continue
			}
			key[i] = c
			g.substitute(key, i+1, budget-1, emit)
		}
		key[i] = orig
	}
}
