package document

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/domain/segment"
	"github.com/annolens/annolens/internal/domain/selection"
)

// session is the per-document view state.  The text buffer and annotation
// list are replaced whole on every mutation; partial in-place updates are
// never visible to concurrent readers.
type session struct {
	id string

	mu          sync.Mutex
	text        string
	annotations []*annotation.Annotation
	sel         *selection.Controller
	updatedAt   time.Time

	// epoch increments on every text replacement.  A generation result is
	// applied only while its epoch still matches; anything else is stale.
	epoch atomic.Uint64
}

func newSession(id string) *session {
	return &session{
		id:          id,
		annotations: []*annotation.Annotation{},
		sel:         selection.New(),
		updatedAt:   time.Now(),
	}
}

// snapshot returns the buffer and its epoch for a generation pass.
func (s *session) snapshot() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.epoch.Load()
}

// replaceText swaps the buffer, bumps the epoch, and enforces the edit
// invariant: selection returns to Idle and no active annotation survives.
func (s *session) replaceText(text string, annotations []*annotation.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.epoch.Add(1)
	s.sel.ResetForEdit()
	if annotations == nil {
		annotations = []*annotation.Annotation{}
	}
	s.annotations = annotations
	s.updatedAt = time.Now()
}

// applyGenerated merges a generation result: manual annotations are kept,
// previously generated ones are replaced.  Returns false without touching
// state when the result's epoch no longer matches.
func (s *session) applyGenerated(epoch uint64, generated []*annotation.Annotation) ([]*annotation.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch.Load() != epoch {
		return nil, false
	}
	merged := make([]*annotation.Annotation, 0, len(s.annotations)+len(generated))
	for _, a := range s.annotations {
		if a.Category == annotation.CategoryManual {
			merged = append(merged, a)
		}
	}
	merged = append(merged, generated...)
	s.annotations = merged
	s.updatedAt = time.Now()
	return s.annotationsLocked(), true
}

// applyFactCheck merges a factual-only pass: manual annotations and
// generated annotations of every other category are kept; only prior
// factual-claim annotations are replaced by the new result.  Returns false
// without touching state when the result's epoch no longer matches.
func (s *session) applyFactCheck(epoch uint64, generated []*annotation.Annotation) ([]*annotation.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch.Load() != epoch {
		return nil, false
	}
	merged := make([]*annotation.Annotation, 0, len(s.annotations)+len(generated))
	for _, a := range s.annotations {
		if a.Category != annotation.CategoryFactualClaim {
			merged = append(merged, a)
		}
	}
	merged = append(merged, generated...)
	s.annotations = merged
	s.updatedAt = time.Now()
	return s.annotationsLocked(), true
}

func (s *session) annotationsLocked() []*annotation.Annotation {
	cp := make([]*annotation.Annotation, len(s.annotations))
	copy(cp, s.annotations)
	return cp
}

func (s *session) segments() []segment.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return segment.Build(s.text, s.annotations)
}
