// Package annotation decodes GTF/GFF3 annotation records and converts a
// transcript's exon or CDS records into protein-to-genome coordinate segments.
package annotation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/pepgenome/internal/coords"
	"github.com/inodb/pepgenome/internal/proteome"
)

// Feature types used by the builder.
const (
	FeatureExon = "exon"
	FeatureCDS  = "CDS"
)

// Record is a decoded GTF or GFF3 feature line.
type Record struct {
	Chrom      string
	Source     string
	Feature    string
	Start      int64 // 1-based, as in the file
	End        int64 // 1-based inclusive, as in the file
	Strand     coords.Strand
	Frame      coords.Frame
	Attributes map[string]string
}

// IsTranscript returns true for transcript-level features ("transcript" in
// GTF, "mRNA" or "transcript" in GFF3).
func (r *Record) IsTranscript() bool {
	return r.Feature == "transcript" || r.Feature == "mRNA"
}

// TranscriptID returns the ID of the transcript the record belongs to.
func (r *Record) TranscriptID() string {
	if id := r.Attributes["transcript_id"]; id != "" {
		return proteome.NormalizeID(id)
	}
	// GFF3: transcripts carry their own ID, children point at it via Parent.
	if r.IsTranscript() {
		return normalizeGFFID(r.Attributes["ID"])
	}
	parent := r.Attributes["Parent"]
	if idx := strings.Index(parent, ","); idx != -1 {
		parent = parent[:idx]
	}
	return normalizeGFFID(parent)
}

// GeneID returns the record's gene ID, if present.
func (r *Record) GeneID() string {
	if id := r.Attributes["gene_id"]; id != "" {
		return proteome.NormalizeID(id)
	}
	if r.IsTranscript() {
		return normalizeGFFID(r.Attributes["Parent"])
	}
	return ""
}

// ExonID returns the exon identifier, falling back to the exon number.
func (r *Record) ExonID() string {
	for _, key := range []string{"exon_id", "ID", "exon_number"} {
		if v := r.Attributes[key]; v != "" {
			return normalizeGFFID(v)
		}
	}
	return ""
}

// Genome returns the record's genomic range in transcript orientation.
func (r *Record) Genome() coords.GenomeCoordinates {
	g := coords.GenomeCoordinates{
		Chrom:        r.Chrom,
		Start:        r.Start,
		End:          r.End,
		Strand:       r.Strand,
		TranscriptID: r.TranscriptID(),
		ExonID:       r.ExonID(),
		Frame:        r.Frame,
	}
	if r.Strand == coords.Reverse {
		g.Start, g.End = r.End, r.Start
	}
	return g
}

// ParseLine decodes a single tab-separated GTF or GFF3 line.
func ParseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid annotation line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}
	if end < start {
		return nil, fmt.Errorf("invalid range %d-%d", start, end)
	}

	return &Record{
		Chrom:      normalizeChrom(fields[0]),
		Source:     fields[1],
		Feature:    fields[2],
		Start:      start,
		End:        end,
		Strand:     coords.ParseStrand(fields[6]),
		Frame:      coords.ParseFrame(fields[7]),
		Attributes: parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses the attribute column of either dialect.
// GTF:  key "value"; key "value"; ...
// GFF3: key=value;key=value;...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		eq := strings.Index(part, "=")
		sp := strings.Index(part, " ")

		var key, value string
		switch {
		case eq != -1 && (sp == -1 || eq < sp):
			key, value = part[:eq], part[eq+1:]
		case sp != -1:
			key, value = part[:sp], strings.TrimSpace(part[sp+1:])
		default:
			continue
		}

		attrs[key] = strings.Trim(value, "\"")
	}

	return attrs
}

// normalizeGFFID strips Ensembl GFF3 type prefixes ("transcript:", "gene:")
// and the version suffix.
func normalizeGFFID(id string) string {
	if idx := strings.Index(id, ":"); idx != -1 {
		switch id[:idx] {
		case "transcript", "gene", "exon", "CDS":
			id = id[idx+1:]
		}
	}
	return proteome.NormalizeID(id)
}

// normalizeChrom removes the "chr" prefix so that GENCODE and Ensembl names agree.
func normalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom[3:]
	}
	return chrom
}
