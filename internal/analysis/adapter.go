package analysis

import "context"

// SourceKind identifies which detector produced a candidate.
type SourceKind string

const (
	SourceAIWarning    SourceKind = "ai-warning"
	SourceAIPattern    SourceKind = "ai-pattern"
	SourceComplexWord  SourceKind = "complex-word"
	SourceLongSentence SourceKind = "long-sentence"
	SourceFactual      SourceKind = "factual"
	SourceSummary      SourceKind = "summary"
)

// Candidate is a pre-filter annotation suggestion.  Candidates are neither
// deduplicated nor capped and may overlap; the pipeline turns them into
// annotations.
type Candidate struct {
	Start       int
	End         int
	SourceKind  SourceKind
	RawText     string
	Explanation string

	// Score is the 0-100 AI-likelihood score; meaningful for SourceAIWarning
	// and copied onto SourceAIPattern candidates from the same response.
	Score int

	// Confidence is "high", "medium", or "low"; meaningful for SourceFactual.
	Confidence string

	// ClaimType is "statistic", "claim", "quote", or "date"; meaningful for
	// SourceFactual.
	ClaimType string

	// Word and Simplification are meaningful for SourceComplexWord.
	Word           string
	Simplification string

	// WordCount is meaningful for SourceLongSentence.
	WordCount int
}

// Adapter produces candidates from one detection source.  Adapters are
// independently callable and independently failable: the pipeline treats an
// adapter error as an empty candidate list and never aborts a generation
// pass over it.
type Adapter interface {
	// Name identifies the adapter in logs and metrics.
	Name() string

	// Analyze inspects text and returns candidate annotations.  A nil or
	// empty slice with a nil error means the source found nothing.
	Analyze(ctx context.Context, text string) ([]Candidate, error)
}
