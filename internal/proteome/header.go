package proteome

import (
	"regexp"
	"strconv"
	"strings"
)

// Header holds the identifiers extracted from a protein FASTA header.
type Header struct {
	TranscriptID string
	GeneID       string
	Offset       int // Translation start offset in bases, 0 if absent
}

var (
	reEnsemblTranscript = regexp.MustCompile(`transcript:(\S+)`)
	reEnsemblGene       = regexp.MustCompile(`gene:(\S+)`)
	reGeneTag           = regexp.MustCompile(`gene=(\S+)`)
	reOffsetTag         = regexp.MustCompile(`\boffset=(\d+)`)
)

// ParseHeader extracts transcript and gene identifiers from a FASTA header.
// Supported layouts:
//
//	Ensembl:  >ENSP00000308495.3 pep chromosome:GRCh38:12:... gene:ENSG00000133703.14 transcript:ENST00000311936.8 ...
//	GENCODE:  >ENSP00000493376.2|ENST00000641515.2|ENSG00000186092.7|OTTHUMG...|OTTHUMT...|OR4F5-201|OR4F5|326
//	Variant:  >alt_3prime.4188_iso2| gene=GENE1 offset=385
//
// Anything else uses the first word as transcript and gene ID.
func ParseHeader(header string) Header {
	header = strings.TrimPrefix(strings.TrimSpace(header), ">")

	var h Header
	if m := reOffsetTag.FindStringSubmatch(header); m != nil {
		h.Offset, _ = strconv.Atoi(m[1])
	}

	// Ensembl tagged format
	if m := reEnsemblTranscript.FindStringSubmatch(header); m != nil {
		h.TranscriptID = NormalizeID(m[1])
		if g := reEnsemblGene.FindStringSubmatch(header); g != nil {
			h.GeneID = NormalizeID(g[1])
		}
		return h
	}

	// GENCODE pipe format
	if fields := strings.Split(header, "|"); len(fields) >= 8 {
		h.TranscriptID = NormalizeID(fields[1])
		h.GeneID = NormalizeID(fields[2])
		return h
	}

	// Variant pipeline format: ID terminated by a pipe, gene in a tag
	if idx := strings.Index(header, "|"); idx != -1 {
		h.TranscriptID = strings.TrimSpace(header[:idx])
		if g := reGeneTag.FindStringSubmatch(header); g != nil {
			h.GeneID = g[1]
		} else {
			h.GeneID = h.TranscriptID
		}
		return h
	}

	// Plain format: first word
	id := header
	if idx := strings.IndexAny(header, " \t"); idx != -1 {
		id = header[:idx]
	}
	h.TranscriptID = NormalizeID(id)
	h.GeneID = h.TranscriptID
	if g := reGeneTag.FindStringSubmatch(header); g != nil {
		h.GeneID = g[1]
	}
	return h
}

// NormalizeID removes the version suffix from an Ensembl ID. Non-Ensembl IDs
// may legitimately contain dots and are returned unchanged.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func NormalizeID(id string) string {
	if !strings.HasPrefix(id, "ENS") {
		return id
	}
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}
