package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolens/annolens/internal/analysis"
	"github.com/annolens/annolens/internal/domain/annotation"
)

type stubAdapter struct {
	name string
	out  []analysis.Candidate
	err  error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Analyze(context.Context, string) ([]analysis.Candidate, error) {
	return s.out, s.err
}

func generate(t *testing.T, text string, opts []Option, adapters ...analysis.Adapter) *Result {
	t.Helper()
	res, err := New(adapters, opts...).Generate(context.Background(), text, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.Epoch, "result echoes the epoch it was generated for")
	return res
}

func warningAdapter(text string, score int, highlights ...[2]int) *stubAdapter {
	out := []analysis.Candidate{{
		Start: 0, End: len(text), SourceKind: analysis.SourceAIWarning,
		RawText: text, Score: score, Explanation: "repetitive phrasing",
	}}
	for _, h := range highlights {
		out = append(out, analysis.Candidate{
			Start: h[0], End: h[1], SourceKind: analysis.SourceAIPattern,
			RawText: text[h[0]:h[1]], Score: score, Explanation: "stock transition",
		})
	}
	return &stubAdapter{name: "ai-likeness", out: out}
}

func TestSmartGatingByScore(t *testing.T) {
	text := strings.Repeat("Plain sentences about gardening. ", 4)

	cases := []struct {
		score         int
		hasHighlight  bool
		wantWarning   bool
		wantPatterns  int
	}{
		{score: 50, hasHighlight: true, wantWarning: false, wantPatterns: 0},
		{score: 70, hasHighlight: true, wantWarning: false, wantPatterns: 0},
		{score: 72, hasHighlight: true, wantWarning: true, wantPatterns: 0},
		{score: 86, hasHighlight: false, wantWarning: true, wantPatterns: 0},
		{score: 86, hasHighlight: true, wantWarning: true, wantPatterns: 1},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("score=%d highlight=%v", tc.score, tc.hasHighlight), func(t *testing.T) {
			var ad *stubAdapter
			if tc.hasHighlight {
				ad = warningAdapter(text, tc.score, [2]int{0, 16})
			} else {
				ad = warningAdapter(text, tc.score)
			}
			res := generate(t, text, nil, ad)
			assert.Equal(t, tc.score, res.Score)

			var warnings, patternHighlights, patternComments int
			for _, a := range res.Annotations {
				switch {
				case a.Category == annotation.CategoryAIWarning:
					warnings++
					assert.True(t, strings.HasPrefix(a.Comment, "🤖"))
				case a.Category == annotation.CategoryAIPattern && a.Kind == annotation.KindHighlight:
					patternHighlights++
					assert.Equal(t, annotation.ColorPurple, a.Color)
				case a.Category == annotation.CategoryAIPattern && a.Kind == annotation.KindComment:
					patternComments++
					assert.True(t, strings.HasPrefix(a.Comment, "✨"))
				}
			}
			if tc.wantWarning {
				assert.Equal(t, 1, warnings)
			} else {
				assert.Zero(t, warnings)
			}
			assert.Equal(t, tc.wantPatterns, patternHighlights)
			assert.Equal(t, tc.wantPatterns, patternComments)
		})
	}
}

func TestPermissiveSurfacesLowScores(t *testing.T) {
	text := strings.Repeat("Plain sentences about gardening. ", 4)
	opts := []Option{WithPolicy(PolicyPermissive)}

	res := generate(t, text, opts, warningAdapter(text, 45))
	require.Len(t, res.Annotations, 1)
	assert.Equal(t, annotation.CategoryAIWarning, res.Annotations[0].Category)

	res = generate(t, text, opts, warningAdapter(text, 40))
	assert.Empty(t, res.Annotations, "permissive still requires the score to exceed its threshold")
}

func TestPatternHighlightPrecedesComment(t *testing.T) {
	text := strings.Repeat("Plain sentences about gardening. ", 4)
	res := generate(t, text, nil, warningAdapter(text, 90, [2]int{0, 16}))

	var ordered []annotation.Kind
	for _, a := range res.Annotations {
		if a.Category == annotation.CategoryAIPattern {
			ordered = append(ordered, a.Kind)
			assert.Equal(t, 0, a.Start)
			assert.Equal(t, 16, a.End)
		}
	}
	assert.Equal(t, []annotation.Kind{annotation.KindHighlight, annotation.KindComment}, ordered)
}

func TestComplexWordCapKeepsEarliestOffsets(t *testing.T) {
	word := "extraordinarily"
	text := strings.Repeat(word+" ", 10)

	var out []analysis.Candidate
	for i := 0; i < 10; i++ {
		start := i * (len(word) + 1)
		out = append(out, analysis.Candidate{
			Start: start, End: start + len(word),
			SourceKind: analysis.SourceComplexWord,
			RawText:    word, Word: word,
			Explanation: "hard to read",
		})
	}
	res := generate(t, text, nil, &stubAdapter{name: "complexity", out: out})

	require.Len(t, res.Annotations, 3)
	for i, a := range res.Annotations {
		assert.Equal(t, i*(len(word)+1), a.Start, "cap keeps the earliest candidates in offset order")
		assert.Equal(t, annotation.CategoryComplexWord, a.Category)
		assert.True(t, strings.HasPrefix(a.Comment, "📘"))
	}
}

func TestCommonWordsNeverSurfaced(t *testing.T) {
	text := "Our business does business with other businesses."
	out := []analysis.Candidate{
		{Start: 4, End: 12, SourceKind: analysis.SourceComplexWord, RawText: "business", Word: "business", Explanation: "x"},
		{Start: 0, End: 3, SourceKind: analysis.SourceComplexWord, RawText: "Our", Word: "Our", Explanation: "x"},
	}
	res := generate(t, text, nil, &stubAdapter{name: "complexity", out: out})
	assert.Empty(t, res.Annotations, "exception-list and short words are suppressed regardless of the adapter")
}

func TestLongSentenceGate(t *testing.T) {
	text := strings.Repeat("word ", 80)
	out := []analysis.Candidate{
		{Start: 0, End: 100, SourceKind: analysis.SourceLongSentence, RawText: text[:100], WordCount: 31, Explanation: "long"},
		{Start: 100, End: 200, SourceKind: analysis.SourceLongSentence, RawText: text[100:200], WordCount: 30, Explanation: "long"},
	}
	res := generate(t, text, nil, &stubAdapter{name: "complexity", out: out})
	require.Len(t, res.Annotations, 1, "exactly thirty words is not long enough")
	assert.Equal(t, 0, res.Annotations[0].Start)
	assert.True(t, strings.HasPrefix(res.Annotations[0].Comment, "📏"))
}

func TestFactualClaimEndToEnd(t *testing.T) {
	text := "The study found that 45% of people agree."
	require.True(t, analysis.IsFactCheckWorthy(text))

	out := []analysis.Candidate{{
		Start: 4, End: 41, SourceKind: analysis.SourceFactual,
		RawText: text[4:41], ClaimType: "statistic", Confidence: "high",
		Explanation: "This statistic may be worth verifying.",
	}}
	res := generate(t, text, nil, &stubAdapter{name: "factual-claims", out: out})

	require.Len(t, res.Annotations, 1)
	a := res.Annotations[0]
	assert.Equal(t, annotation.KindComment, a.Kind)
	assert.Equal(t, 4, a.Start)
	assert.Equal(t, 41, a.End)
	assert.True(t, strings.HasPrefix(a.Comment, "📊"))
}

func TestFactualGateRejectsWeakClaims(t *testing.T) {
	text := "Some people say the park is the nicest spot in town, really."
	out := []analysis.Candidate{{
		Start: 0, End: 20, SourceKind: analysis.SourceFactual,
		RawText: text[:20], ClaimType: "claim", Confidence: "low", Explanation: "x",
	}}
	res := generate(t, text, nil, &stubAdapter{name: "factual-claims", out: out})
	assert.Empty(t, res.Annotations, "type claim with low confidence fails the gate")
}

func TestGenericPhraseSuppression(t *testing.T) {
	text := "All rights reserved. The quarterly numbers improved by 12,000 units."
	out := []analysis.Candidate{{
		Start: 0, End: 20, SourceKind: analysis.SourceFactual,
		RawText: "All rights reserved.", ClaimType: "statistic", Confidence: "high", Explanation: "x",
	}}
	res := generate(t, text, nil, &stubAdapter{name: "factual-claims", out: out})
	assert.Empty(t, res.Annotations, "boilerplate text never produces an annotation")
}

func TestAdapterFailureDoesNotAbortPass(t *testing.T) {
	text := "The study found that 45% of people agree."
	failing := &stubAdapter{name: "ai-likeness", err: fmt.Errorf("proxy unreachable")}
	working := &stubAdapter{name: "factual-claims", out: []analysis.Candidate{{
		Start: 4, End: 41, SourceKind: analysis.SourceFactual,
		RawText: text[4:41], ClaimType: "statistic", Confidence: "high", Explanation: "x",
	}}}

	res := generate(t, text, nil, failing, working)
	assert.Len(t, res.Annotations, 1, "surviving adapters still contribute")
	require.Contains(t, res.AdapterErrors, "ai-likeness")
}

func TestDeterministicModuloIDs(t *testing.T) {
	text := strings.Repeat("Plain sentences about gardening. ", 4)
	adapters := []analysis.Adapter{
		warningAdapter(text, 90, [2]int{0, 16}, [2]int{17, 30}),
		&stubAdapter{name: "summary", out: []analysis.Candidate{{
			Start: 0, End: 32, SourceKind: analysis.SourceSummary, RawText: text[:32], Explanation: "x",
		}}},
	}
	p := New(adapters)

	first, err := p.Generate(context.Background(), text, 1)
	require.NoError(t, err)
	second, err := p.Generate(context.Background(), text, 2)
	require.NoError(t, err)

	require.Equal(t, len(first.Annotations), len(second.Annotations))
	ids := make(map[string]struct{})
	for i := range first.Annotations {
		a, b := first.Annotations[i], second.Annotations[i]
		assert.Equal(t, a.Kind, b.Kind)
		assert.Equal(t, a.Start, b.Start)
		assert.Equal(t, a.End, b.End)
		assert.Equal(t, a.Category, b.Category)
		assert.NotEqual(t, a.ID, b.ID, "regeneration mints fresh ids")
		ids[a.ID] = struct{}{}
		ids[b.ID] = struct{}{}
	}
	assert.Len(t, ids, 2*len(first.Annotations), "no id collisions within or across passes")
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("smart")
	require.NoError(t, err)
	assert.Equal(t, PolicySmart, p)

	p, err = ParsePolicy("permissive")
	require.NoError(t, err)
	assert.Equal(t, PolicyPermissive, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}
