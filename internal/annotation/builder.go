package annotation

import (
	"fmt"

	"github.com/inodb/pepgenome/internal/coords"
	"github.com/inodb/pepgenome/internal/proteome"
	"go.uber.org/zap"
)

// FeatureMode selects which record type drives segment construction.
type FeatureMode int

const (
	// ModeAuto uses CDS records when a transcript has any, exons otherwise.
	ModeAuto FeatureMode = iota
	// ModeCDS uses only CDS records.
	ModeCDS
	// ModeExon uses only exon records, trimming the translation offset.
	ModeExon
)

// ParseFeatureMode converts "auto", "cds" or "exon" to a FeatureMode.
func ParseFeatureMode(s string) (FeatureMode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "cds", "CDS":
		return ModeCDS, nil
	case "exon":
		return ModeExon, nil
	default:
		return ModeAuto, fmt.Errorf("unknown feature mode %q (want auto, cds or exon)", s)
	}
}

func (m FeatureMode) String() string {
	switch m {
	case ModeCDS:
		return "cds"
	case ModeExon:
		return "exon"
	default:
		return "auto"
	}
}

// ProteinLookup finds the reference protein for a transcript.
type ProteinLookup interface {
	Lookup(transcriptID string) *proteome.ProteinSequence
}

// OffsetLookup returns the leading untranslated bases of a transcript and
// whether the lookup knows the transcript.
type OffsetLookup interface {
	TranslationOffset(transcriptID string) (int, bool)
}

// OffsetMap is a fixed table of translation offsets.
type OffsetMap map[string]int

// TranslationOffset implements OffsetLookup.
func (m OffsetMap) TranslationOffset(transcriptID string) (int, bool) {
	off, ok := m[transcriptID]
	return off, ok
}

// Stats summarizes a builder run.
type Stats struct {
	Transcripts int // transcripts seen in the annotation
	Mapped      int // transcripts with at least one segment
	Unknown     int // transcripts without a reference protein
	Segments    int // segments produced
}

// Builder turns annotation records into protein-to-genome segments.
type Builder struct {
	proteins ProteinLookup
	offsets  OffsetLookup
	mode     FeatureMode
	logger   *zap.Logger
}

// NewBuilder creates a builder. offsets may be nil, in which case the
// proteins' own translation offsets are used. An offset known to the lookup,
// including 0, overrides the protein's.
func NewBuilder(proteins ProteinLookup, offsets OffsetLookup) *Builder {
	return &Builder{
		proteins: proteins,
		offsets:  offsets,
		logger:   zap.NewNop(),
	}
}

// SetMode sets the feature mode.
func (b *Builder) SetMode(m FeatureMode) {
	b.mode = m
}

// SetLogger sets the logger used for warnings.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Apply builds segments for every transcript and stores them on the matching
// proteins. Transcripts with no reference protein are skipped.
func (b *Builder) Apply(transcripts []*Transcript) Stats {
	var stats Stats
	for _, t := range transcripts {
		stats.Transcripts++

		protein := b.proteins.Lookup(t.ID)
		if protein == nil {
			stats.Unknown++
			b.logger.Debug("no reference protein for transcript", zap.String("transcript", t.ID))
			continue
		}

		segments := b.Build(protein, t.Records)
		if len(segments) == 0 {
			b.logger.Warn("transcript produced no segments",
				zap.String("transcript", t.ID),
				zap.Int("records", len(t.Records)))
			continue
		}
		protein.SetSegments(segments)
		stats.Mapped++
		stats.Segments += len(segments)
	}
	return stats
}

// cTermTable gives the 3' overhang of a segment indexed by its length modulo 3
// and its 5' overhang.
var cTermTable = [3][3]coords.Offset{
	// n_term:   Off3         Off1         Off2
	{coords.Off3, coords.Off2, coords.Off1}, // length%3 == 0
	{coords.Off1, coords.Off3, coords.Off2}, // length%3 == 1
	{coords.Off2, coords.Off1, coords.Off3}, // length%3 == 2
}

// Build converts one transcript's records (in transcript order) into
// segments for protein. Records not matching the feature mode are ignored.
func (b *Builder) Build(protein *proteome.ProteinSequence, records []*Record) []coords.Segment {
	feature := b.featureFor(records)

	offset := protein.TranslationOffset
	if b.offsets != nil {
		if off, ok := b.offsets.TranslationOffset(protein.TranscriptID); ok {
			offset = off
		}
	}
	if feature == FeatureCDS {
		offset = 0
	}

	remaining := protein.Len()
	prev := coords.ProteinCoordinates{NTerm: coords.Off3, CTerm: coords.Off3}
	var segments []coords.Segment

	for _, rec := range records {
		if rec.Feature != feature {
			continue
		}

		genome := rec.Genome()
		genome.TranscriptID = protein.TranscriptID
		length := int(genome.Len())

		// Entirely untranslated, or the protein is already fully placed.
		if offset >= length || remaining <= 0 {
			offset -= length
			if offset < 0 {
				offset = 0
			}
			continue
		}

		if offset > 0 {
			genome.Start = genome.Advance(int64(offset))
			length -= offset
			offset = 0
		}

		var nterm coords.Offset
		switch {
		case rec.Frame != coords.FrameUnknown:
			nterm = coords.OffsetFromBases(int(rec.Frame))
		case prev.CTerm != coords.Off3:
			nterm = coords.OffsetFromBases(3 - prev.CTerm.Bases())
		default:
			nterm = coords.Off3
		}
		cterm := cTermTable[length%3][nterm]

		var start int
		switch {
		case nterm != coords.Off3:
			start = prev.End
		case len(segments) == 0:
			start = 0
		default:
			start = prev.End + 1
		}

		peplength := (length - nterm.Bases()) / 3
		remaining -= peplength

		end := start + peplength - 1
		if cterm != coords.Off3 {
			end++
		}
		if nterm != coords.Off3 {
			end++
		}

		genome.Frame = coords.Frame(nterm.Bases())
		pc := coords.ProteinCoordinates{Start: start, End: end, NTerm: nterm, CTerm: cterm}
		segments = append(segments, coords.Segment{Protein: pc, Genome: genome})
		prev = pc
	}

	return segments
}

func (b *Builder) featureFor(records []*Record) string {
	switch b.mode {
	case ModeCDS:
		return FeatureCDS
	case ModeExon:
		return FeatureExon
	}
	for _, rec := range records {
		if rec.Feature == FeatureCDS {
			return FeatureCDS
		}
	}
	return FeatureExon
}
