package coords

import "sort"

// SegmentIndex answers overlap queries over a transcript's segments in
// O(log n + k) using a sorted-slice approach. It is built once and never
// modified.
type SegmentIndex struct {
	segments []Segment
	maxEnd   []int // maxEnd[i] = max(Protein.End) for segments[:i+1]
}

// NewSegmentIndex creates an index over segments. The input order is kept
// when segments are already ordered by protein start, which is the
// authoritative order produced by the builder.
func NewSegmentIndex(segments []Segment) *SegmentIndex {
	if len(segments) == 0 {
		return &SegmentIndex{}
	}

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Protein.Start < sorted[j].Protein.Start
	})

	// Prefix-max array: maxEnd[i] = max(end) for sorted[:i+1]
	maxEnd := make([]int, len(sorted))
	maxEnd[0] = sorted[0].Protein.End
	for i := 1; i < len(sorted); i++ {
		maxEnd[i] = max(maxEnd[i-1], sorted[i].Protein.End)
	}

	return &SegmentIndex{segments: sorted, maxEnd: maxEnd}
}

// Len returns the number of indexed segments.
func (x *SegmentIndex) Len() int {
	return len(x.segments)
}

// FindEquivalent returns, in protein order, every segment whose protein
// coordinates are equivalent to span.
func (x *SegmentIndex) FindEquivalent(span ProteinCoordinates) []Segment {
	if len(x.segments) == 0 {
		return nil
	}

	// Candidates must start at or before span.End.
	hi := sort.Search(len(x.segments), func(i int) bool {
		return x.segments[i].Protein.Start > span.End
	})
	// The first candidate is the first index whose running max end reaches span.Start.
	lo := sort.Search(hi, func(i int) bool {
		return x.maxEnd[i] >= span.Start
	})

	var result []Segment
	for i := lo; i < hi; i++ {
		if x.segments[i].Protein.Equivalent(span) {
			result = append(result, x.segments[i])
		}
	}
	return result
}
