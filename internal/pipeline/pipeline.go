package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/annolens/annolens/internal/analysis"
	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/prometheus"
)

// Caps bound how many annotations each category may contribute per pass.
// Caps apply after filtering; truncation keeps earliest offsets.
type Caps struct {
	ComplexWords  int
	LongSentences int
	FactualClaims int
	AIPatterns    int
}

// DefaultCaps mirrors the defaults in internal/config.
func DefaultCaps() Caps {
	return Caps{ComplexWords: 3, LongSentences: 2, FactualClaims: 3, AIPatterns: 2}
}

// Result is the output of one generation pass.  Epoch echoes the token the
// caller passed in; the document service compares it against the current
// buffer epoch before applying the annotations.
type Result struct {
	Annotations []*annotation.Annotation
	Epoch       uint64
	// Score is the raw AI-likelihood score, reported even when gating
	// suppressed the warning annotation.
	Score int
	// AdapterErrors records adapters that failed this pass, keyed by
	// adapter name.  A failed adapter contributes no candidates but never
	// aborts the pass.
	AdapterErrors map[string]error
}

// Pipeline fans text out to the source adapters, gates and caps their
// candidates per the configured policy, and converts the survivors into
// annotations with fresh ids.
type Pipeline struct {
	adapters []analysis.Adapter
	policy   GatingPolicy
	caps     Caps
	ids      *annotation.IDGenerator
	logger   logging.Logger
	metrics  *prometheus.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPolicy overrides the default smart gating policy.
func WithPolicy(p GatingPolicy) Option {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithCaps overrides the per-category caps.
func WithCaps(c Caps) Option {
	return func(pl *Pipeline) { pl.caps = c }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// WithMetrics attaches the metric surface.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

// New builds a Pipeline over the given adapters.
func New(adapters []analysis.Adapter, opts ...Option) *Pipeline {
	p := &Pipeline{
		adapters: adapters,
		policy:   PolicySmart,
		caps:     DefaultCaps(),
		ids:      annotation.NewIDGenerator(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the active gating policy.
func (p *Pipeline) Policy() GatingPolicy { return p.policy }

// Generate runs one pass over text.  All adapters run concurrently; an
// adapter failure is logged and recorded but never fails the pass.  The
// returned error is reserved for context cancellation.
func (p *Pipeline) Generate(ctx context.Context, text string, epoch uint64) (*Result, error) {
	started := time.Now()

	candidates := make([][]analysis.Candidate, len(p.adapters))
	adapterErrs := make(map[string]error)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, ad := range p.adapters {
		i, ad := i, ad
		g.Go(func() error {
			callStart := time.Now()
			out, err := ad.Analyze(gctx, text)
			p.observeAdapter(ad.Name(), time.Since(callStart), err)
			if err != nil {
				p.logger.Warn("adapter failed, continuing without its candidates",
					logging.String("adapter", ad.Name()),
					logging.Err(err))
				mu.Lock()
				adapterErrs[ad.Name()] = err
				mu.Unlock()
				return nil
			}
			candidates[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := p.assemble(text, flatten(candidates))
	result.Epoch = epoch
	result.AdapterErrors = adapterErrs

	if p.metrics != nil {
		p.metrics.GenerationDuration.WithLabelValues(string(p.policy)).Observe(time.Since(started).Seconds())
	}
	p.logger.Debug("generation pass complete",
		logging.String("policy", string(p.policy)),
		logging.Int("annotations", len(result.Annotations)),
		logging.Int("adapter_errors", len(adapterErrs)))
	return result, nil
}

func flatten(groups [][]analysis.Candidate) []analysis.Candidate {
	var all []analysis.Candidate
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// assemble is the pure filtering/capping/conversion stage: given identical
// candidates it yields the same (kind, range, category) sequence every time.
func (p *Pipeline) assemble(text string, all []analysis.Candidate) *Result {
	buckets := make(map[analysis.SourceKind][]analysis.Candidate)
	for _, c := range all {
		p.countCandidate(c.SourceKind, "produced")
		buckets[c.SourceKind] = append(buckets[c.SourceKind], c)
	}

	score := 0
	for _, c := range buckets[analysis.SourceAIWarning] {
		if c.Score > score {
			score = c.Score
		}
	}

	result := &Result{Score: score}

	if p.policy.surfaceWarning(score) {
		if w, ok := firstByOffset(buckets[analysis.SourceAIWarning]); ok && !containsGenericPhrase(w.RawText) {
			result.Annotations = append(result.Annotations, p.convertWarning(text, w)...)
			p.countCandidate(analysis.SourceAIWarning, "accepted")
		}
	}

	if p.policy.surfaceHighlights(score) {
		patterns := filterByOffset(buckets[analysis.SourceAIPattern], p.caps.AIPatterns, func(c analysis.Candidate) bool {
			return !containsGenericPhrase(c.RawText)
		})
		for _, c := range patterns {
			result.Annotations = append(result.Annotations, p.convertPattern(text, c)...)
			p.countCandidate(analysis.SourceAIPattern, "accepted")
		}
	}

	words := filterByOffset(buckets[analysis.SourceComplexWord], p.caps.ComplexWords, func(c analysis.Candidate) bool {
		return isComplexWordWorthy(c.Word) && !containsGenericPhrase(c.RawText)
	})
	for _, c := range words {
		result.Annotations = append(result.Annotations, p.convertComment(text, c, "📘", annotation.CategoryComplexWord)...)
		p.countCandidate(analysis.SourceComplexWord, "accepted")
	}

	sentences := filterByOffset(buckets[analysis.SourceLongSentence], p.caps.LongSentences, func(c analysis.Candidate) bool {
		return c.WordCount > 30 && !containsGenericPhrase(c.RawText)
	})
	for _, c := range sentences {
		result.Annotations = append(result.Annotations, p.convertComment(text, c, "📏", annotation.CategoryLongSentence)...)
		p.countCandidate(analysis.SourceLongSentence, "accepted")
	}

	claims := filterByOffset(buckets[analysis.SourceFactual], p.caps.FactualClaims, func(c analysis.Candidate) bool {
		return isFactualWorthy(c.ClaimType, c.Confidence) && !containsGenericPhrase(c.RawText)
	})
	for _, c := range claims {
		result.Annotations = append(result.Annotations, p.convertComment(text, c, "📊", annotation.CategoryFactualClaim)...)
		p.countCandidate(analysis.SourceFactual, "accepted")
	}

	if s, ok := firstByOffset(buckets[analysis.SourceSummary]); ok {
		result.Annotations = append(result.Annotations, p.convertComment(text, s, "📝", annotation.CategorySummary)...)
		p.countCandidate(analysis.SourceSummary, "accepted")
	}

	return result
}

// filterByOffset keeps candidates passing keep, deduplicates identical
// ranges, orders by start offset, and truncates to limit.
func filterByOffset(in []analysis.Candidate, limit int, keep func(analysis.Candidate) bool) []analysis.Candidate {
	var out []analysis.Candidate
	seen := make(map[[2]int]struct{})
	for _, c := range in {
		if !keep(c) {
			continue
		}
		key := [2]int{c.Start, c.End}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func firstByOffset(in []analysis.Candidate) (analysis.Candidate, bool) {
	if len(in) == 0 {
		return analysis.Candidate{}, false
	}
	best := in[0]
	for _, c := range in[1:] {
		if c.Start < best.Start {
			best = c
		}
	}
	return best, true
}

func (p *Pipeline) convertWarning(text string, c analysis.Candidate) []*annotation.Annotation {
	msg := fmt.Sprintf("🤖 AI-likeness score %d/100. %s", c.Score, c.Explanation)
	ann, err := annotation.New(p.ids.Next(), c.Start, c.End, annotation.KindComment, text,
		annotation.WithComment(msg),
		annotation.WithCategory(annotation.CategoryAIWarning))
	if err != nil {
		p.logger.Warn("dropping warning candidate with invalid range", logging.Err(err))
		return nil
	}
	return []*annotation.Annotation{ann}
}

// convertPattern emits the highlight first and the comment second, both on
// the same range.
func (p *Pipeline) convertPattern(text string, c analysis.Candidate) []*annotation.Annotation {
	hl, err := annotation.New(p.ids.Next(), c.Start, c.End, annotation.KindHighlight, text,
		annotation.WithColor(annotation.ColorPurple),
		annotation.WithCategory(annotation.CategoryAIPattern))
	if err != nil {
		p.logger.Warn("dropping pattern candidate with invalid range", logging.Err(err))
		return nil
	}
	cm, err := annotation.New(p.ids.Next(), c.Start, c.End, annotation.KindComment, text,
		annotation.WithComment("✨ "+c.Explanation),
		annotation.WithCategory(annotation.CategoryAIPattern))
	if err != nil {
		p.logger.Warn("dropping pattern candidate with invalid range", logging.Err(err))
		return nil
	}
	return []*annotation.Annotation{hl, cm}
}

func (p *Pipeline) convertComment(text string, c analysis.Candidate, emoji string, cat annotation.Category) []*annotation.Annotation {
	ann, err := annotation.New(p.ids.Next(), c.Start, c.End, annotation.KindComment, text,
		annotation.WithComment(emoji+" "+c.Explanation),
		annotation.WithCategory(cat))
	if err != nil {
		p.logger.Warn("dropping candidate with invalid range",
			logging.String("category", string(cat)),
			logging.Err(err))
		return nil
	}
	return []*annotation.Annotation{ann}
}

func (p *Pipeline) observeAdapter(name string, d time.Duration, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.AdapterCallsTotal.WithLabelValues(name, outcome).Inc()
	p.metrics.AdapterDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (p *Pipeline) countCandidate(source analysis.SourceKind, stage string) {
	if p.metrics == nil {
		return
	}
	p.metrics.CandidatesTotal.WithLabelValues(string(source), stage).Inc()
}
