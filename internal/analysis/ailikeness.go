package analysis

import (
	"context"

	"github.com/annolens/annolens/internal/analysis/llm"
	"github.com/annolens/annolens/pkg/errors"
)

// AILikenessAdapter detects AI-generated writing via the remote likelihood
// analysis.  It emits one whole-text AIWarning candidate carrying the score,
// plus one AIPattern candidate per suspicious sub-range the service reports.
type AILikenessAdapter struct {
	client *llm.Client
}

// NewAILikenessAdapter wraps the remote client.
func NewAILikenessAdapter(client *llm.Client) *AILikenessAdapter {
	return &AILikenessAdapter{client: client}
}

func (a *AILikenessAdapter) Name() string { return "ai-likeness" }

// Analyze calls the likelihood endpoint.  Candidate gating by score is the
// pipeline's job; the adapter reports everything the service observed.
func (a *AILikenessAdapter) Analyze(ctx context.Context, text string) ([]Candidate, error) {
	if text == "" {
		return nil, nil
	}

	res, err := a.client.Likelihood(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAdapterFailed, "ai-likeness analysis failed")
	}

	explanation := "Writing patterns suggest this text may be AI-generated."
	if len(res.Observations) > 0 {
		explanation = res.Observations[0]
	}

	candidates := []Candidate{{
		Start:       0,
		End:         len(text),
		SourceKind:  SourceAIWarning,
		Score:       res.Score,
		RawText:     text,
		Explanation: explanation,
	}}

	for _, h := range res.Highlights {
		if h.Start < 0 || h.End > len(text) || h.Start >= h.End {
			// The endpoint is prompt-driven; offsets it returns are not
			// trustworthy and bad ones are dropped rather than clamped.
			continue
		}
		candidates = append(candidates, Candidate{
			Start:       h.Start,
			End:         h.End,
			SourceKind:  SourceAIPattern,
			Score:       res.Score,
			RawText:     text[h.Start:h.End],
			Explanation: h.Reason,
		})
	}

	return candidates, nil
}
