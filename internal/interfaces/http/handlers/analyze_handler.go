package handlers

import (
	"net/http"

	"github.com/annolens/annolens/internal/analysis"
	"github.com/annolens/annolens/internal/domain/segment"
	"github.com/annolens/annolens/internal/pipeline"
	"github.com/annolens/annolens/pkg/errors"
)

// AnalyzeHandler runs stateless one-shot analysis: no session, no
// persistence, just pipeline output and the rendered segments.
type AnalyzeHandler struct {
	adapters []analysis.Adapter
	opts     []pipeline.Option
}

// NewAnalyzeHandler builds the handler; opts are applied to every per-request
// pipeline after the policy.
func NewAnalyzeHandler(adapters []analysis.Adapter, opts ...pipeline.Option) *AnalyzeHandler {
	return &AnalyzeHandler{adapters: adapters, opts: opts}
}

type analyzeRequest struct {
	Text   string `json:"text"`
	Policy string `json:"policy,omitempty"`
}

type analyzeResponse struct {
	Score       int               `json:"score"`
	Annotations interface{}       `json:"annotations"`
	Segments    []segment.Segment `json:"segments"`
}

// Analyze runs one pass over the posted text with the requested policy.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.Text == "" {
		writeAppError(w, errors.InvalidParam("text is required"))
		return
	}

	policy := pipeline.PolicySmart
	if req.Policy != "" {
		parsed, err := pipeline.ParsePolicy(req.Policy)
		if err != nil {
			writeAppError(w, err)
			return
		}
		policy = parsed
	}

	opts := append([]pipeline.Option{pipeline.WithPolicy(policy)}, h.opts...)
	res, err := pipeline.New(h.adapters, opts...).Generate(r.Context(), req.Text, 0)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Score:       res.Score,
		Annotations: res.Annotations,
		Segments:    segment.Build(req.Text, res.Annotations),
	})
}
