package analysis

import (
	"context"
	"strings"

	"github.com/annolens/annolens/internal/analysis/llm"
	"github.com/annolens/annolens/pkg/errors"
)

// factualResponse is the tagged contract requested from the structured
// analysis call.
type factualResponse struct {
	Claims []struct {
		Text       string `json:"text"`
		Start      int    `json:"start"`
		End        int    `json:"end"`
		Confidence string `json:"confidence"`
		Type       string `json:"type"`
	} `json:"claims"`
}

// FactualAdapter extracts verifiable claims (statistics, dates, quotes,
// general claims) via the remote structured analysis.  Texts that fail the
// local fact-check-worthiness gate skip the remote call entirely and yield
// no candidates.
type FactualAdapter struct {
	client *llm.Client
}

// NewFactualAdapter wraps the remote client.
func NewFactualAdapter(client *llm.Client) *FactualAdapter {
	return &FactualAdapter{client: client}
}

func (a *FactualAdapter) Name() string { return "factual-claims" }

func (a *FactualAdapter) Analyze(ctx context.Context, text string) ([]Candidate, error) {
	if !IsFactCheckWorthy(text) {
		return nil, nil
	}

	var resp factualResponse
	if err := a.client.Structured(ctx, factualPrompt(text), &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAdapterFailed, "factual-claims analysis failed")
	}

	var out []Candidate
	for _, claim := range resp.Claims {
		start, end := claim.Start, claim.End
		if start < 0 || end > len(text) || start >= end {
			// Offsets from the prompt-driven endpoint are best-effort; try
			// to recover the range by searching for the claim text.
			idx := strings.Index(text, claim.Text)
			if idx < 0 {
				continue
			}
			start, end = idx, idx+len(claim.Text)
		}
		out = append(out, Candidate{
			Start:       start,
			End:         end,
			SourceKind:  SourceFactual,
			RawText:     text[start:end],
			Confidence:  strings.ToLower(claim.Confidence),
			ClaimType:   strings.ToLower(claim.Type),
			Explanation: "This " + claimNoun(claim.Type) + " may be worth verifying.",
		})
	}
	return out, nil
}

func claimNoun(claimType string) string {
	switch strings.ToLower(claimType) {
	case "statistic":
		return "statistic"
	case "quote":
		return "quotation"
	case "date":
		return "date"
	default:
		return "claim"
	}
}

func factualPrompt(text string) string {
	var b strings.Builder
	b.WriteString(`Extract verifiable factual claims from the following text.
Respond with JSON: {"claims": [{"text": string, "start": int, "end": int, "confidence": "high"|"medium"|"low", "type": "statistic"|"claim"|"quote"|"date"}]}.
Offsets are byte positions into the text exactly as given.

Text:
`)
	b.WriteString(text)
	return b.String()
}
