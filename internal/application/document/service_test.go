package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolens/annolens/internal/analysis"
	"github.com/annolens/annolens/internal/analysis/llm"
	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/infrastructure/store/memory"
	"github.com/annolens/annolens/internal/pipeline"
	"github.com/annolens/annolens/pkg/errors"
)

const sample = "The study found that 45% of people agree."

type funcAdapter struct {
	name string
	fn   func(ctx context.Context, text string) ([]analysis.Candidate, error)
}

func (f *funcAdapter) Name() string { return f.name }

func (f *funcAdapter) Analyze(ctx context.Context, text string) ([]analysis.Candidate, error) {
	return f.fn(ctx, text)
}

func factualCandidates(_ context.Context, text string) ([]analysis.Candidate, error) {
	return []analysis.Candidate{{
		Start: 4, End: 41, SourceKind: analysis.SourceFactual,
		RawText: text[4:41], ClaimType: "statistic", Confidence: "high",
		Explanation: "This statistic may be worth verifying.",
	}}, nil
}

func newService(t *testing.T, adapters ...analysis.Adapter) (Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	pipe := pipeline.New(adapters)
	svc := NewService(store, pipe, logging.NewNop(),
		WithFactCheckPipeline(pipe))
	return svc, store
}

func createWithText(t *testing.T, svc Service, text string) *Document {
	t.Helper()
	doc, err := svc.Create(context.Background(), &CreateInput{Text: text})
	require.NoError(t, err)
	return doc
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newService(t)
	doc := createWithText(t, svc, sample)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, sample, doc.Text)
	assert.Empty(t, doc.Annotations)

	got, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = svc.Get(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestManualAnnotationLifecycle(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	r, err := svc.Select(ctx, doc.ID, 4, 9)
	require.NoError(t, err)
	assert.Equal(t, "study", r.Text)

	a, err := svc.Highlight(ctx, &HighlightInput{DocumentID: doc.ID, Color: annotation.ColorYellow})
	require.NoError(t, err)
	assert.Equal(t, annotation.KindHighlight, a.Kind)
	assert.Equal(t, annotation.CategoryManual, a.Category)

	// The selection was consumed; a second annotation needs a new one.
	_, err = svc.Comment(ctx, &CommentInput{DocumentID: doc.ID, Body: "check"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoSelection))

	stored, err := store.Load(ctx, annotation.DeriveKey(sample))
	require.NoError(t, err)
	require.Len(t, stored, 1, "manual annotations are persisted under the text key")

	require.NoError(t, svc.DeleteAnnotation(ctx, doc.ID, a.ID))
	stored, err = store.Load(ctx, annotation.DeriveKey(sample))
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestUpdateAnnotation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	_, err := svc.Select(ctx, doc.ID, 0, 9)
	require.NoError(t, err)
	a, err := svc.Comment(ctx, &CommentInput{DocumentID: doc.ID, Body: "first draft"})
	require.NoError(t, err)

	body := "second draft"
	updated, err := svc.UpdateAnnotation(ctx, &UpdateAnnotationInput{
		DocumentID: doc.ID, AnnotationID: a.ID, Comment: &body,
	})
	require.NoError(t, err)
	assert.Equal(t, "second draft", updated.Comment)

	_, err = svc.UpdateAnnotation(ctx, &UpdateAnnotationInput{DocumentID: doc.ID, AnnotationID: "nope"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnnotationNotFound))
}

func TestGenerateAppliesAndPersists(t *testing.T) {
	svc, store := newService(t, &funcAdapter{name: "factual-claims", fn: factualCandidates})
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	res, err := svc.Generate(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	require.Len(t, res.Annotations, 1)
	assert.Equal(t, annotation.CategoryFactualClaim, res.Annotations[0].Category)

	stored, err := store.Load(ctx, annotation.DeriveKey(sample))
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestGenerateKeepsManualReplacesGenerated(t *testing.T) {
	svc, _ := newService(t, &funcAdapter{name: "factual-claims", fn: factualCandidates})
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	_, err := svc.Select(ctx, doc.ID, 0, 3)
	require.NoError(t, err)
	manual, err := svc.Highlight(ctx, &HighlightInput{DocumentID: doc.ID, Color: annotation.ColorGreen})
	require.NoError(t, err)

	first, err := svc.Generate(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, first.Annotations, 2)

	second, err := svc.Generate(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, second.Annotations, 2, "regeneration replaces generated annotations instead of stacking them")

	var keptManual bool
	for _, a := range second.Annotations {
		if a.ID == manual.ID {
			keptManual = true
		}
	}
	assert.True(t, keptManual, "manual annotations survive regeneration")
}

func TestStaleGenerationResultDiscarded(t *testing.T) {
	var svc Service
	var docID string
	ctx := context.Background()

	// The adapter edits the document mid-pass, bumping the epoch so the
	// pass's own result arrives stale.
	editing := &funcAdapter{name: "factual-claims", fn: func(ctx context.Context, text string) ([]analysis.Candidate, error) {
		if _, err := svc.SetText(ctx, docID, sample+" Updated."); err != nil {
			return nil, err
		}
		return factualCandidates(ctx, text)
	}}

	svc, _ = newService(t, editing)
	doc := createWithText(t, svc, sample)
	docID = doc.ID

	res, err := svc.Generate(ctx, docID)
	require.NoError(t, err)
	assert.False(t, res.Applied, "a result for a replaced buffer is dropped")

	got, err := svc.Get(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, got.Annotations, "stale results never touch the annotation list")
	assert.Equal(t, sample+" Updated.", got.Text)
}

func TestEditResetsSelectionAndActive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	_, err := svc.Select(ctx, doc.ID, 4, 9)
	require.NoError(t, err)
	a, err := svc.Highlight(ctx, &HighlightInput{DocumentID: doc.ID, Color: annotation.ColorYellow})
	require.NoError(t, err)

	clicked, err := svc.Click(ctx, doc.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, clicked)
	assert.Equal(t, a.ID, clicked.ID)

	_, err = svc.Select(ctx, doc.ID, 10, 15)
	require.NoError(t, err)

	_, err = svc.SetText(ctx, doc.ID, sample+" More.")
	require.NoError(t, err)

	// Any text mutation resets selection to Idle and clears the active id:
	// consuming the selection must now fail.
	_, err = svc.Highlight(ctx, &HighlightInput{DocumentID: doc.ID, Color: annotation.ColorYellow})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoSelection), "no selection survives a text edit")

	clicked, err = svc.Click(ctx, doc.ID, len(sample)+2)
	require.NoError(t, err)
	assert.Nil(t, clicked, "plain text click clears rather than resolves")
}

func TestClearingTextClearsAnnotations(t *testing.T) {
	svc, _ := newService(t, &funcAdapter{name: "factual-claims", fn: factualCandidates})
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	_, err := svc.Generate(ctx, doc.ID)
	require.NoError(t, err)

	got, err := svc.SetText(ctx, doc.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got.Annotations)
}

func TestSetTextRestoresPersistedAnnotations(t *testing.T) {
	adapters := []analysis.Adapter{&funcAdapter{name: "factual-claims", fn: factualCandidates}}
	store := memory.New()
	pipe := pipeline.New(adapters)
	svc := NewService(store, pipe, logging.NewNop())
	ctx := context.Background()

	doc := createWithText(t, svc, sample)
	_, err := svc.Generate(ctx, doc.ID)
	require.NoError(t, err)

	// A second session over the same text sees the persisted annotations.
	other, err := svc.Create(ctx, &CreateInput{Text: sample})
	require.NoError(t, err)
	assert.Len(t, other.Annotations, 1)
}

func TestFactCheckSurfacesRemoteFailure(t *testing.T) {
	failing := &funcAdapter{name: "factual-claims", fn: func(context.Context, string) ([]analysis.Candidate, error) {
		return nil, errors.New(errors.ErrCodeRemoteStatus, "analysis endpoint returned 502")
	}}
	svc, _ := newService(t, failing)
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	// Background generation degrades silently.
	res, err := svc.Generate(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Empty(t, res.Annotations)

	// Foreground fact-check surfaces the failure as retryable.
	_, err = svc.FactCheck(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestFactCheckRemoteOutageWithRealAdapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	adapter := analysis.NewFactualAdapter(llm.NewClient(srv.URL))
	store := memory.New()
	pipe := pipeline.New([]analysis.Adapter{adapter})
	svc := NewService(store, pipe, logging.NewNop(), WithFactCheckPipeline(pipe))
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	_, err := svc.FactCheck(ctx, doc.ID)
	require.Error(t, err, "remote outage must not look like an empty result")
	assert.True(t, errors.IsRetryable(err))
	assert.True(t, errors.IsCode(err, errors.ErrCodeRemoteUnavailable))
}

func TestFactCheckKeepsOtherGeneratedCategories(t *testing.T) {
	warning := &funcAdapter{name: "ai-likeness", fn: func(_ context.Context, text string) ([]analysis.Candidate, error) {
		return []analysis.Candidate{{
			Start: 0, End: len(text), SourceKind: analysis.SourceAIWarning,
			RawText: text, Score: 90, Explanation: "repetitive phrasing",
		}}, nil
	}}
	factual := &funcAdapter{name: "factual-claims", fn: factualCandidates}

	store := memory.New()
	svc := NewService(store, pipeline.New([]analysis.Adapter{warning, factual}), logging.NewNop(),
		WithFactCheckPipeline(pipeline.New([]analysis.Adapter{factual})))
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	first, err := svc.Generate(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, first.Annotations, 2)

	res, err := svc.FactCheck(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, res.Applied)

	categories := map[annotation.Category]int{}
	for _, a := range res.Annotations {
		categories[a.Category]++
	}
	assert.Equal(t, 1, categories[annotation.CategoryAIWarning], "fact-check replaces only factual claims")
	assert.Equal(t, 1, categories[annotation.CategoryFactualClaim])
}

func TestSegmentsAndClear(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	doc := createWithText(t, svc, sample)

	_, err := svc.Select(ctx, doc.ID, 4, 9)
	require.NoError(t, err)
	_, err = svc.Highlight(ctx, &HighlightInput{DocumentID: doc.ID, Color: annotation.ColorBlue})
	require.NoError(t, err)

	segs, err := svc.Segments(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.True(t, segs[1].Annotated())

	require.NoError(t, svc.ClearAnnotations(ctx, doc.ID))
	segs, err = svc.Segments(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.False(t, segs[0].Annotated())
}
