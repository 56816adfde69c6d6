package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/annolens/annolens/internal/analysis/llm"
)

// complexityResponse is the tagged contract requested from the structured
// analysis call.
type complexityResponse struct {
	ComplexWords []struct {
		Word           string `json:"word"`
		Position       int    `json:"position"`
		Simplification string `json:"simplification"`
	} `json:"complex_words"`
	LongSentences []struct {
		Sentence  string `json:"sentence"`
		Start     int    `json:"start"`
		End       int    `json:"end"`
		WordCount int    `json:"word_count"`
	} `json:"long_sentences"`
}

// ComplexityAdapter finds hard-to-read words and overlong sentences.  It
// prefers the remote structured analysis (which supplies simplification
// suggestions) and falls back to the local heuristic detector when the
// remote call fails, since complexity is fully computable locally.
type ComplexityAdapter struct {
	client *llm.Client
}

// NewComplexityAdapter wraps the remote client; a nil client selects the
// local detector only.
func NewComplexityAdapter(client *llm.Client) *ComplexityAdapter {
	return &ComplexityAdapter{client: client}
}

func (a *ComplexityAdapter) Name() string { return "complexity" }

func (a *ComplexityAdapter) Analyze(ctx context.Context, text string) ([]Candidate, error) {
	if text == "" {
		return nil, nil
	}

	if a.client != nil {
		var resp complexityResponse
		if err := a.client.Structured(ctx, complexityPrompt(text), &resp); err == nil {
			if out := a.fromRemote(text, resp); len(out) > 0 {
				return out, nil
			}
		}
		// Remote failure or empty result: degrade to the local scan.
	}

	return a.local(text), nil
}

// fromRemote converts the remote shape, discarding entries whose offsets do
// not land on the claimed text.
func (a *ComplexityAdapter) fromRemote(text string, resp complexityResponse) []Candidate {
	var out []Candidate
	for _, cw := range resp.ComplexWords {
		start := cw.Position
		end := start + len(cw.Word)
		if start < 0 || end > len(text) || text[start:end] != cw.Word {
			continue
		}
		out = append(out, Candidate{
			Start:          start,
			End:            end,
			SourceKind:     SourceComplexWord,
			RawText:        cw.Word,
			Word:           cw.Word,
			Simplification: cw.Simplification,
			Explanation:    fmt.Sprintf("Consider a simpler word: %q", cw.Simplification),
		})
	}
	for _, ls := range resp.LongSentences {
		if ls.Start < 0 || ls.End > len(text) || ls.Start >= ls.End {
			continue
		}
		out = append(out, Candidate{
			Start:       ls.Start,
			End:         ls.End,
			SourceKind:  SourceLongSentence,
			RawText:     text[ls.Start:ls.End],
			WordCount:   ls.WordCount,
			Explanation: fmt.Sprintf("This sentence runs %d words; consider splitting it.", ls.WordCount),
		})
	}
	return out
}

// local is the heuristic detector: words of four or more estimated syllables
// are complex, and sentences are flagged with their word counts so the
// pipeline can gate on length.
func (a *ComplexityAdapter) local(text string) []Candidate {
	var out []Candidate

	for _, w := range Words(text) {
		if CountSyllables(w.Text) < 4 {
			continue
		}
		out = append(out, Candidate{
			Start:       w.Start,
			End:         w.End,
			SourceKind:  SourceComplexWord,
			RawText:     w.Text,
			Word:        w.Text,
			Explanation: fmt.Sprintf("%q is a complex word; a shorter synonym may read better.", w.Text),
		})
	}

	for _, s := range SplitSentences(text) {
		out = append(out, Candidate{
			Start:       s.Start,
			End:         s.End,
			SourceKind:  SourceLongSentence,
			RawText:     s.Text,
			WordCount:   s.WordCount,
			Explanation: fmt.Sprintf("This sentence runs %d words; consider splitting it.", s.WordCount),
		})
	}

	return out
}

func complexityPrompt(text string) string {
	var b strings.Builder
	b.WriteString(`Identify complex words and overlong sentences in the following text.
Respond with JSON: {"complex_words": [{"word": string, "position": int, "simplification": string}], "long_sentences": [{"sentence": string, "start": int, "end": int, "word_count": int}]}.
Positions and offsets are byte positions into the text exactly as given.

Text:
`)
	b.WriteString(text)
	return b.String()
}
