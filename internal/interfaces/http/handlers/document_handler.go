package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/annolens/annolens/internal/application/document"
	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/export"
	"github.com/annolens/annolens/pkg/errors"
)

// DocumentHandler exposes document sessions over HTTP.
type DocumentHandler struct {
	svc document.Service
}

// NewDocumentHandler builds the handler.
func NewDocumentHandler(svc document.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type createDocumentRequest struct {
	Text string `json:"text"`
}

// Create makes a new document session, optionally seeded with text.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	doc, err := h.svc.Create(r.Context(), &document.CreateInput{Text: req.Text})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// Get returns the session view.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Get(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Delete drops the session.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "documentID")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setTextRequest struct {
	Text string `json:"text"`
}

// SetText replaces the buffer; selection and active annotation reset.
func (h *DocumentHandler) SetText(w http.ResponseWriter, r *http.Request) {
	var req setTextRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	doc, err := h.svc.SetText(r.Context(), chi.URLParam(r, "documentID"), req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Generate runs a background-style generation pass.  A result superseded by
// a newer edit returns 202 with applied=false.
func (h *DocumentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Generate(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !res.Applied {
		writeJSON(w, http.StatusAccepted, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// FactCheck runs the foreground factual pass; remote failures surface as
// retryable errors rather than degrading silently.
func (h *DocumentHandler) FactCheck(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.FactCheck(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !res.Applied {
		writeJSON(w, http.StatusAccepted, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Segments returns the rendered segment partition.
func (h *DocumentHandler) Segments(w http.ResponseWriter, r *http.Request) {
	segs, err := h.svc.Segments(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"segments": segs})
}

type createAnnotationRequest struct {
	Start   int      `json:"start"`
	End     int      `json:"end"`
	Kind    string   `json:"kind"`
	Color   string   `json:"color,omitempty"`
	Comment string   `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// CreateAnnotation creates a manual annotation against an explicit range.
// The range is committed through the selection controller so the same
// normalization and clamping rules apply as for interactive selections.
func (h *DocumentHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req createAnnotationRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	id := chi.URLParam(r, "documentID")
	ctx := r.Context()

	if _, err := h.svc.Select(ctx, id, req.Start, req.End); err != nil {
		writeAppError(w, err)
		return
	}

	var (
		a   *annotation.Annotation
		err error
	)
	switch annotation.Kind(req.Kind) {
	case annotation.KindHighlight:
		a, err = h.svc.Highlight(ctx, &document.HighlightInput{
			DocumentID: id, Color: annotation.Color(req.Color),
		})
	case annotation.KindComment:
		a, err = h.svc.Comment(ctx, &document.CommentInput{DocumentID: id, Body: req.Comment})
	case annotation.KindTag:
		a, err = h.svc.Tag(ctx, &document.TagInput{DocumentID: id, Tags: req.Tags})
	default:
		err = errors.New(errors.ErrCodeAnnotationInvalidKind, "unknown annotation kind: "+req.Kind)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type updateAnnotationRequest struct {
	Comment *string  `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Color   *string  `json:"color,omitempty"`
}

// UpdateAnnotation patches an annotation's payload in place.
func (h *DocumentHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req updateAnnotationRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	input := &document.UpdateAnnotationInput{
		DocumentID:   chi.URLParam(r, "documentID"),
		AnnotationID: chi.URLParam(r, "annotationID"),
		Comment:      req.Comment,
		Tags:         req.Tags,
	}
	if req.Color != nil {
		c := annotation.Color(*req.Color)
		input.Color = &c
	}
	a, err := h.svc.UpdateAnnotation(r.Context(), input)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAnnotation removes one annotation.
func (h *DocumentHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteAnnotation(r.Context(),
		chi.URLParam(r, "documentID"), chi.URLParam(r, "annotationID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAnnotations removes every annotation on the document.
func (h *DocumentHandler) ClearAnnotations(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearAnnotations(r.Context(), chi.URLParam(r, "documentID")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clickRequest struct {
	Offset int `json:"offset"`
}

// Click resolves the owning annotation at an offset and marks it active.
func (h *DocumentHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	a, err := h.svc.Click(r.Context(), chi.URLParam(r, "documentID"), req.Offset)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"annotation": a})
}

// Export renders the document in the requested format.
func (h *DocumentHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	doc, err := h.svc.Get(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	out, err := export.Render(format, doc.Text, doc.Annotations)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
