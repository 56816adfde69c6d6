// Package annotation implements the range model: the Annotation entity, its
// bounds invariant, identity generation, and the persistence contract.  All
// business rules concerning individual annotations live here; rendering and
// generation concerns belong to the segment and pipeline packages.
package annotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/annolens/annolens/pkg/errors"
)

// Kind classifies what an annotation is to the user.
type Kind string

const (
	KindHighlight Kind = "highlight"
	KindComment   Kind = "comment"
	KindTag       Kind = "tag"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindHighlight, KindComment, KindTag:
		return true
	}
	return false
}

// Color is the highlight palette.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
)

// Valid reports whether c is a known color.  The empty color is valid; only
// highlight-kind annotations carry one.
func (c Color) Valid() bool {
	switch c {
	case "", ColorYellow, ColorRed, ColorGreen, ColorBlue, ColorPurple:
		return true
	}
	return false
}

// Category records which generation source produced an annotation.  Manual
// annotations carry CategoryManual.  Categories drive per-category caps in
// the pipeline and grouping in exports.
type Category string

const (
	CategoryAIWarning    Category = "ai-warning"
	CategoryAIPattern    Category = "ai-pattern"
	CategoryComplexWord  Category = "complex-word"
	CategoryLongSentence Category = "long-sentence"
	CategoryFactualClaim Category = "factual-claim"
	CategorySummary      Category = "summary"
	CategoryManual       Category = "manual"
)

// Annotation is a persisted range-bound note over a text buffer.  The range
// is half-open: [Start, End).
//
// Text is a snapshot of the buffer slice taken at creation time.  It is
// informational only and is never re-derived: when the underlying buffer is
// edited afterwards, offsets are not re-anchored and the snapshot may no
// longer match the buffer (accepted drift; the next generation pass replaces
// generated annotations anyway).
type Annotation struct {
	ID        string    `json:"id"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Kind      Kind      `json:"kind"`
	Category  Category  `json:"category"`
	Text      string    `json:"text"`
	Color     Color     `json:"color,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Option customises a new Annotation.
type Option func(*Annotation)

// WithColor sets the highlight color.
func WithColor(c Color) Option {
	return func(a *Annotation) { a.Color = c }
}

// WithComment sets the comment body.
func WithComment(body string) Option {
	return func(a *Annotation) { a.Comment = body }
}

// WithTags sets the tag list.
func WithTags(tags []string) Option {
	return func(a *Annotation) { a.Tags = tags }
}

// WithCategory records the generation source.
func WithCategory(c Category) Option {
	return func(a *Annotation) { a.Category = c }
}

// New constructs an Annotation over buffer with the bounds invariant
// 0 <= start <= end <= len(buffer).  Violations yield an
// ErrCodeAnnotationInvalidRange error; such annotations are never persisted.
// The id must come from an IDGenerator so uniqueness holds within the
// buffer's annotation set.
func New(id string, start, end int, kind Kind, buffer string, opts ...Option) (*Annotation, error) {
	if id == "" {
		return nil, errors.InvalidParam("annotation id must not be empty")
	}
	if !kind.Valid() {
		return nil, errors.Newf(errors.ErrCodeAnnotationInvalidKind, "unknown annotation kind %q", kind)
	}
	if start < 0 {
		return nil, errors.InvalidRange("start must not be negative").
			WithDetail(rangeDetail(start, end, len(buffer)))
	}
	if start > end {
		return nil, errors.InvalidRange("start exceeds end").
			WithDetail(rangeDetail(start, end, len(buffer)))
	}
	if end > len(buffer) {
		return nil, errors.InvalidRange("end exceeds buffer length").
			WithDetail(rangeDetail(start, end, len(buffer)))
	}

	a := &Annotation{
		ID:        id,
		Start:     start,
		End:       end,
		Kind:      kind,
		Category:  CategoryManual,
		Text:      buffer[start:end],
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if !a.Color.Valid() {
		return nil, errors.Newf(errors.ErrCodeAnnotationInvalidColor, "unknown highlight color %q", a.Color)
	}
	return a, nil
}

func rangeDetail(start, end, buflen int) string {
	return fmt.Sprintf("start=%d end=%d len=%d", start, end, buflen)
}

// Len returns the range length in bytes.
func (a *Annotation) Len() int {
	return a.End - a.Start
}

// Contains reports whether the half-open range covers offset.
func (a *Annotation) Contains(offset int) bool {
	return offset >= a.Start && offset < a.End
}

// Overlaps reports whether two annotations share at least one offset.
func (a *Annotation) Overlaps(other *Annotation) bool {
	return a.Start < other.End && other.Start < a.End
}

// SetComment replaces the comment body.
func (a *Annotation) SetComment(body string) {
	a.Comment = body
}

// SetTags replaces the tag list.
func (a *Annotation) SetTags(tags []string) {
	a.Tags = tags
}

// SetColor replaces the highlight color; unknown colors are rejected.
func (a *Annotation) SetColor(c Color) error {
	if !c.Valid() {
		return errors.Newf(errors.ErrCodeAnnotationInvalidColor, "unknown highlight color %q", c)
	}
	a.Color = c
	return nil
}

// keyLength is the number of leading characters of the collapsed text that
// form the persistence key.
const keyLength = 50

// DeriveKey computes the persistence key for a text buffer: the first 50
// characters after collapsing all whitespace runs to single spaces.  Two
// buffers sharing this prefix share a key; callers accept that collision
// semantic.
func DeriveKey(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	// Count characters, not bytes; a byte cut could split a multibyte rune.
	if runes := []rune(collapsed); len(runes) > keyLength {
		collapsed = string(runes[:keyLength])
	}
	return collapsed
}
