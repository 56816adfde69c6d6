package analysis

import (
	"context"
	"fmt"
)

// Thresholds below which a text is too short to deserve a summary note.
const (
	summaryMinLength    = 500
	summaryMinSentences = 10
)

// SummaryAdapter emits a single summary candidate for substantial texts,
// anchored to the first sentence's range.  It is fully local.
type SummaryAdapter struct{}

// NewSummaryAdapter constructs the adapter.
func NewSummaryAdapter() *SummaryAdapter {
	return &SummaryAdapter{}
}

func (a *SummaryAdapter) Name() string { return "summary" }

func (a *SummaryAdapter) Analyze(_ context.Context, text string) ([]Candidate, error) {
	if len(text) <= summaryMinLength {
		return nil, nil
	}
	sentences := SplitSentences(text)
	if len(sentences) <= summaryMinSentences {
		return nil, nil
	}

	first := sentences[0]
	words := 0
	for _, s := range sentences {
		words += s.WordCount
	}

	return []Candidate{{
		Start:      first.Start,
		End:        first.End,
		SourceKind: SourceSummary,
		RawText:    first.Text,
		Explanation: fmt.Sprintf("Long read: %d sentences, about %d words. Skim the opening for the main point.",
			len(sentences), words),
	}}, nil
}
