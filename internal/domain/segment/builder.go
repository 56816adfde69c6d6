// Package segment turns a text buffer plus a possibly-overlapping annotation
// set into an ordered, non-overlapping sequence of rendering segments.  The
// central invariant: the output partitions [0, len(text)) exactly once, with
// no gaps and no overlaps, so concatenating segment texts reproduces the
// input byte for byte.
package segment

import (
	"sort"

	"github.com/annolens/annolens/internal/domain/annotation"
)

// Segment is a maximal run of the buffer with uniform annotation membership.
// Annotation is nil for plain runs; for annotated runs it is the owning
// annotation, stored on the segment so hit-testing never re-runs the sweep.
type Segment struct {
	Start      int                    `json:"start"`
	End        int                    `json:"end"`
	Text       string                 `json:"text"`
	Annotation *annotation.Annotation `json:"annotation,omitempty"`
}

// Annotated reports whether the segment belongs to an annotation.
func (s Segment) Annotated() bool {
	return s.Annotation != nil
}

// Build produces the ordered segment list for text and annotations.
//
// Annotations are sorted by Start ascending with smaller End first on ties,
// giving nested or contained ranges rendering priority at their own start
// boundary.  A left-to-right sweep then emits a plain segment for each gap
// and one annotated segment per annotation.
//
// Overlap policy: when two annotations overlap, only the first in sort order
// renders the overlapping span; the later annotation's overlapping portion is
// absorbed into cursor advancement and gets no visual segment of its own.
// This avoids nested or conflicting styling.  The annotation list itself is
// untouched; only the rendering collapses.
//
// Annotations whose ranges fall outside [0, len(text)) are skipped: they can
// only arise from stale offsets after a buffer edit, which the product
// accepts as bounded drift rather than a panic.
func Build(text string, annotations []*annotation.Annotation) []Segment {
	if len(text) == 0 {
		return nil
	}

	sorted := make([]*annotation.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a == nil || a.Start < 0 || a.End > len(text) || a.Start > a.End {
			continue
		}
		sorted = append(sorted, a)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	segments := make([]Segment, 0, 2*len(sorted)+1)
	cursor := 0

	for _, a := range sorted {
		if a.End <= cursor {
			// Entirely absorbed by an earlier annotation.
			continue
		}
		if cursor < a.Start {
			segments = append(segments, Segment{
				Start: cursor,
				End:   a.Start,
				Text:  text[cursor:a.Start],
			})
			cursor = a.Start
		}
		start := a.Start
		if start < cursor {
			// Partial overlap: the earlier annotation owns [start, cursor).
			start = cursor
		}
		segments = append(segments, Segment{
			Start:      start,
			End:        a.End,
			Text:       text[start:a.End],
			Annotation: a,
		})
		cursor = a.End
	}

	if cursor < len(text) {
		segments = append(segments, Segment{
			Start: cursor,
			End:   len(text),
			Text:  text[cursor:],
		})
	}

	return segments
}

// At returns the segment containing offset, using binary search over the
// ordered partition.  The second result is false when offset is outside
// [0, len(text)).
func At(segments []Segment, offset int) (Segment, bool) {
	i := sort.Search(len(segments), func(i int) bool {
		return segments[i].End > offset
	})
	if i == len(segments) || offset < segments[i].Start {
		return Segment{}, false
	}
	return segments[i], true
}

// Owner resolves the annotation owning the segment at offset, or nil for a
// plain segment or an out-of-range offset.  This is the hit-testing path:
// the owner comes from the segment, never from re-deriving by character
// offset.
func Owner(segments []Segment, offset int) *annotation.Annotation {
	seg, ok := At(segments, offset)
	if !ok {
		return nil
	}
	return seg.Annotation
}
