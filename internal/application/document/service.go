// Package document provides the application-level service for document
// sessions: the text buffer, its annotations, selection state, and the
// generation passes that tie them together.
package document

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/domain/segment"
	"github.com/annolens/annolens/internal/domain/selection"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/prometheus"
	"github.com/annolens/annolens/internal/pipeline"
	"github.com/annolens/annolens/pkg/errors"
)

// Service defines the application operations over document sessions.
type Service interface {
	Create(ctx context.Context, input *CreateInput) (*Document, error)
	Get(ctx context.Context, id string) (*Document, error)
	Delete(ctx context.Context, id string) error

	SetText(ctx context.Context, id, text string) (*Document, error)
	Generate(ctx context.Context, id string) (*GenerateResult, error)
	FactCheck(ctx context.Context, id string) (*GenerateResult, error)

	Select(ctx context.Context, id string, start, end int) (selection.Range, error)
	Highlight(ctx context.Context, input *HighlightInput) (*annotation.Annotation, error)
	Comment(ctx context.Context, input *CommentInput) (*annotation.Annotation, error)
	Tag(ctx context.Context, input *TagInput) (*annotation.Annotation, error)

	UpdateAnnotation(ctx context.Context, input *UpdateAnnotationInput) (*annotation.Annotation, error)
	DeleteAnnotation(ctx context.Context, id, annotationID string) error
	ClearAnnotations(ctx context.Context, id string) error

	Segments(ctx context.Context, id string) ([]segment.Segment, error)
	Click(ctx context.Context, id string, offset int) (*annotation.Annotation, error)
}

// CreateInput contains input for creating a document session.
type CreateInput struct {
	Text string
}

// HighlightInput consumes the committed selection as a highlight.
type HighlightInput struct {
	DocumentID string
	Color      annotation.Color
}

// CommentInput consumes the committed selection as a comment.
type CommentInput struct {
	DocumentID string
	Body       string
}

// TagInput consumes the committed selection as a tag annotation.
type TagInput struct {
	DocumentID string
	Tags       []string
}

// UpdateAnnotationInput mutates an existing annotation's payload.
type UpdateAnnotationInput struct {
	DocumentID   string
	AnnotationID string
	Comment      *string
	Tags         []string
	Color        *annotation.Color
}

// Document is the session view returned to callers.
type Document struct {
	ID          string                   `json:"id"`
	Text        string                   `json:"text"`
	Annotations []*annotation.Annotation `json:"annotations"`
	Epoch       uint64                   `json:"epoch"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// GenerateResult reports one generation or fact-check pass.
type GenerateResult struct {
	Applied     bool                     `json:"applied"`
	Score       int                      `json:"score"`
	Annotations []*annotation.Annotation `json:"annotations"`
}

type service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	store    annotation.Store
	pipe     *pipeline.Pipeline
	factPipe *pipeline.Pipeline
	ids      *annotation.IDGenerator
	logger   logging.Logger
	metrics  *prometheus.Metrics
}

// Option configures the service.
type Option func(*service)

// WithMetrics attaches the metric surface.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithFactCheckPipeline sets the pipeline used by FactCheck; it should wrap
// the factual adapter only.
func WithFactCheckPipeline(p *pipeline.Pipeline) Option {
	return func(s *service) { s.factPipe = p }
}

// NewService builds the document service.
func NewService(store annotation.Store, pipe *pipeline.Pipeline, logger logging.Logger, opts ...Option) Service {
	s := &service{
		sessions: make(map[string]*session),
		store:    store,
		pipe:     pipe,
		ids:      annotation.NewIDGenerator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, input *CreateInput) (*Document, error) {
	sess := newSession(uuid.NewString())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	if input != nil && input.Text != "" {
		return s.SetText(ctx, sess.id, input.Text)
	}
	return s.view(sess), nil
}

func (s *service) Get(_ context.Context, id string) (*Document, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return errors.NotFound("document not found: "+id)
	}
	delete(s.sessions, id)
	return nil
}

// SetText replaces the buffer.  Stored annotations for the new text are
// loaded best-effort; clearing the text clears the annotation list.
func (s *service) SetText(ctx context.Context, id, text string) (*Document, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	var restored []*annotation.Annotation
	if text != "" {
		restored, err = s.store.Load(ctx, annotation.DeriveKey(text))
		if err != nil {
			s.logger.Warn("annotation restore failed, starting empty",
				logging.String("document_id", id),
				logging.Err(err))
			restored = nil
		}
	}
	sess.replaceText(text, restored)
	return s.view(sess), nil
}

// Generate runs a full pipeline pass.  The result is applied only when the
// buffer epoch is unchanged; a stale result is dropped without touching
// state.  Adapter failures inside the pass degrade to "no detection".
func (s *service) Generate(ctx context.Context, id string) (*GenerateResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	text, epoch := sess.snapshot()
	if text == "" {
		return &GenerateResult{Applied: true, Annotations: []*annotation.Annotation{}}, nil
	}

	res, err := s.pipe.Generate(ctx, text, epoch)
	if err != nil {
		s.countPass("failed")
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "generation pass")
	}
	for name, aerr := range res.AdapterErrors {
		s.logger.Warn("adapter degraded to no detection",
			logging.String("document_id", id),
			logging.String("adapter", name),
			logging.Err(aerr))
	}

	merged, applied := sess.applyGenerated(res.Epoch, res.Annotations)
	if !applied {
		s.countPass("stale")
		s.logger.Info("discarding stale generation result",
			logging.String("document_id", id),
			logging.Uint64("result_epoch", res.Epoch))
		return &GenerateResult{Applied: false, Score: res.Score}, nil
	}
	s.countPass("applied")

	s.persist(ctx, sess, text, merged)
	return &GenerateResult{Applied: true, Score: res.Score, Annotations: merged}, nil
}

// FactCheck is the user-initiated foreground pass over the factual adapter
// only.  Unlike Generate, a remote failure is surfaced to the caller as a
// retryable error; retry is the user's action, never automatic.
func (s *service) FactCheck(ctx context.Context, id string) (*GenerateResult, error) {
	if s.factPipe == nil {
		return nil, errors.New(errors.ErrCodeInternal, "fact-check pipeline not configured")
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	text, epoch := sess.snapshot()
	if text == "" {
		return &GenerateResult{Applied: true, Annotations: []*annotation.Annotation{}}, nil
	}

	res, err := s.factPipe.Generate(ctx, text, epoch)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "fact-check pass")
	}
	// The pipeline runs the factual adapter alone, so any adapter error is a
	// remote fact-check failure.
	for _, aerr := range res.AdapterErrors {
		return nil, errors.Wrap(aerr, errors.ErrCodeRemoteUnavailable, "fact-check failed; retry when ready")
	}

	merged, applied := sess.applyFactCheck(res.Epoch, res.Annotations)
	if !applied {
		return &GenerateResult{Applied: false}, nil
	}
	s.persist(ctx, sess, text, merged)
	return &GenerateResult{Applied: true, Annotations: merged}, nil
}

// Select drives the selection controller through one begin/extend/commit
// cycle.  An empty or fully clamped-away range leaves the controller Idle.
func (s *service) Select(_ context.Context, id string, start, end int) (selection.Range, error) {
	sess, err := s.session(id)
	if err != nil {
		return selection.Range{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.sel.Begin(start)
	sess.sel.Extend(end)
	r, ok := sess.sel.Commit(sess.text)
	if !ok {
		return selection.Range{}, errors.InvalidParam("selection is empty")
	}
	return r, nil
}

func (s *service) Highlight(ctx context.Context, input *HighlightInput) (*annotation.Annotation, error) {
	return s.fromSelection(ctx, input.DocumentID, annotation.KindHighlight,
		annotation.WithColor(input.Color))
}

func (s *service) Comment(ctx context.Context, input *CommentInput) (*annotation.Annotation, error) {
	return s.fromSelection(ctx, input.DocumentID, annotation.KindComment,
		annotation.WithComment(input.Body))
}

func (s *service) Tag(ctx context.Context, input *TagInput) (*annotation.Annotation, error) {
	return s.fromSelection(ctx, input.DocumentID, annotation.KindTag,
		annotation.WithTags(input.Tags))
}

// fromSelection consumes the committed selection into a manual annotation
// and returns the controller to Idle.
func (s *service) fromSelection(ctx context.Context, id string, kind annotation.Kind, opts ...annotation.Option) (*annotation.Annotation, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	r, ok := sess.sel.Consume()
	if !ok {
		sess.mu.Unlock()
		return nil, errors.New(errors.ErrCodeNoSelection, "no committed selection to annotate")
	}
	a, err := annotation.New(s.ids.Next(), r.Start, r.End, kind, sess.text, opts...)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	list := append(sess.annotationsLocked(), a)
	sess.annotations = list
	sess.updatedAt = time.Now()
	text := sess.text
	sess.mu.Unlock()

	s.persist(ctx, sess, text, list)
	return a, nil
}

func (s *service) UpdateAnnotation(ctx context.Context, input *UpdateAnnotationInput) (*annotation.Annotation, error) {
	sess, err := s.session(input.DocumentID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	var target *annotation.Annotation
	for _, a := range sess.annotations {
		if a.ID == input.AnnotationID {
			target = a
			break
		}
	}
	if target == nil {
		sess.mu.Unlock()
		return nil, errors.New(errors.ErrCodeAnnotationNotFound, "annotation not found: "+input.AnnotationID)
	}
	if input.Comment != nil {
		target.SetComment(*input.Comment)
	}
	if input.Tags != nil {
		target.SetTags(input.Tags)
	}
	if input.Color != nil {
		if err := target.SetColor(*input.Color); err != nil {
			sess.mu.Unlock()
			return nil, err
		}
	}
	list := sess.annotationsLocked()
	text := sess.text
	sess.updatedAt = time.Now()
	sess.mu.Unlock()

	s.persist(ctx, sess, text, list)
	return target, nil
}

// DeleteAnnotation removes one annotation and clears the active id if it
// pointed at it.
func (s *service) DeleteAnnotation(ctx context.Context, id, annotationID string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	list := make([]*annotation.Annotation, 0, len(sess.annotations))
	found := false
	for _, a := range sess.annotations {
		if a.ID == annotationID {
			found = true
			continue
		}
		list = append(list, a)
	}
	if !found {
		sess.mu.Unlock()
		return errors.New(errors.ErrCodeAnnotationNotFound, "annotation not found: "+annotationID)
	}
	sess.annotations = list
	sess.sel.ClearActiveIf(annotationID)
	sess.updatedAt = time.Now()
	text := sess.text
	sess.mu.Unlock()

	s.persist(ctx, sess, text, list)
	return nil
}

func (s *service) ClearAnnotations(ctx context.Context, id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	sess.annotations = []*annotation.Annotation{}
	sess.sel.ClearActive()
	sess.updatedAt = time.Now()
	text := sess.text
	sess.mu.Unlock()

	if text != "" {
		if err := s.store.Clear(ctx, annotation.DeriveKey(text)); err != nil {
			s.logger.Warn("annotation clear not persisted",
				logging.String("document_id", id),
				logging.Err(err))
		}
	}
	return nil
}

func (s *service) Segments(_ context.Context, id string) ([]segment.Segment, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.segments(), nil
}

// Click resolves the owning annotation at offset from the prebuilt segments
// and marks it active.  Clicking plain text clears the active id.
func (s *service) Click(_ context.Context, id string, offset int) (*annotation.Annotation, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	owner := segment.Owner(segment.Build(sess.text, sess.annotations), offset)
	if owner == nil {
		sess.sel.ClearActive()
		return nil, nil
	}
	sess.sel.SetActive(owner.ID)
	return owner, nil
}

func (s *service) session(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("document not found: "+id)
	}
	return sess, nil
}

func (s *service) view(sess *session) *Document {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return &Document{
		ID:          sess.id,
		Text:        sess.text,
		Annotations: sess.annotationsLocked(),
		Epoch:       sess.epoch.Load(),
		UpdatedAt:   sess.updatedAt,
	}
}

// persist writes the merged list under the text-derived key.  A store
// failure is logged and swallowed: in-memory state is authoritative and is
// never rolled back.
func (s *service) persist(ctx context.Context, sess *session, text string, list []*annotation.Annotation) {
	if text == "" {
		return
	}
	if err := s.store.Save(ctx, annotation.DeriveKey(text), list); err != nil {
		s.logger.Warn("annotation persistence failed, keeping in-memory state",
			logging.String("document_id", sess.id),
			logging.Err(err))
	}
}

func (s *service) countPass(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.GenerationPassesTotal.WithLabelValues(string(s.pipe.Policy()), outcome).Inc()
}
