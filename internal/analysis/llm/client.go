// Package llm implements the client for the remote analysis endpoint: a
// single opaque proxy accepting {prompt, structured} envelopes and returning
// JSON whose shape is selected by the structured flag.  The endpoint is
// prompt-driven, not schema-enforced, so every response is validated on
// receipt and decoding fails closed to zero values.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/annolens/annolens/internal/infrastructure/monitoring/prometheus"
	"github.com/annolens/annolens/pkg/errors"
)

// DefaultTimeout bounds one round trip to the analysis endpoint.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read; the analysis
// proxy returns small JSON documents and anything larger is malformed.
const maxResponseBytes = 1 << 20

// Client talks to the remote analysis endpoint.  It performs no retries;
// retry is a caller-driven action.
type Client struct {
	proxyURL   string
	userAgent  string
	httpClient *http.Client
	metrics    *prometheus.Metrics
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMetrics attaches the metric surface; calls are recorded on
// RemoteRequestsTotal and RemoteDuration labeled by the structured flag.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a client for the given proxy URL.
func NewClient(proxyURL string, opts ...Option) *Client {
	c := &Client{
		proxyURL:  proxyURL,
		userAgent: "annolens/1.0",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request is the envelope every call sends.  structured=false selects the
// AI-likelihood response shape; structured=true requests whatever JSON shape
// the prompt itself describes.
type request struct {
	Prompt     string `json:"prompt"`
	Structured bool   `json:"structured"`
}

// Highlight is a suspicious sub-range reported by the likelihood analysis.
type Highlight struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// LikelihoodResult is the structured=false response shape.
type LikelihoodResult struct {
	Score        int         `json:"likelihood_score"`
	Observations []string    `json:"observations"`
	Highlights   []Highlight `json:"highlights"`
}

// Likelihood runs AI-likelihood detection over text.  Missing response
// fields default to their zero values; an out-of-range score is clamped to
// [0, 100].
func (c *Client) Likelihood(ctx context.Context, text string) (*LikelihoodResult, error) {
	prompt := likelihoodPrompt(text)

	body, err := c.post(ctx, request{Prompt: prompt, Structured: false})
	if err != nil {
		return nil, err
	}

	out := &LikelihoodResult{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteMalformed,
			"likelihood response is not valid JSON")
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 100 {
		out.Score = 100
	}
	if out.Observations == nil {
		out.Observations = []string{}
	}
	if out.Highlights == nil {
		out.Highlights = []Highlight{}
	}
	return out, nil
}

// Structured runs a prompt with structured=true and decodes the response
// into out.  The prompt must describe the expected JSON shape; out is the
// tagged contract for that shape.  On malformed JSON the error carries
// ErrCodeRemoteMalformed and out is left zero-valued, so callers that ignore
// the error still observe the fail-closed default.
func (c *Client) Structured(ctx context.Context, prompt string, out interface{}) error {
	body, err := c.post(ctx, request{Prompt: prompt, Structured: true})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.ErrCodeRemoteMalformed,
			"structured response does not match the requested shape")
	}
	return nil
}

// post sends one envelope and returns the raw response body.
func (c *Client) post(ctx context.Context, req request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal request envelope")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteUnavailable, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.Structured, start, "error")
		return nil, errors.Wrap(err, errors.ErrCodeRemoteUnavailable, "analysis endpoint unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(req.Structured, start, "error")
		return nil, errors.Wrap(err, errors.ErrCodeRemoteUnavailable, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(req.Structured, start, "error")
		return nil, errors.Newf(errors.ErrCodeRemoteStatus,
			"analysis endpoint returned %d", resp.StatusCode).
			WithDetail(truncate(string(body), 200))
	}

	c.observe(req.Structured, start, "ok")
	return body, nil
}

func (c *Client) observe(structured bool, start time.Time, outcome string) {
	if c.metrics == nil {
		return
	}
	s := strconv.FormatBool(structured)
	c.metrics.RemoteRequestsTotal.WithLabelValues(s, outcome).Inc()
	c.metrics.RemoteDuration.WithLabelValues(s).Observe(time.Since(start).Seconds())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func likelihoodPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following text for signs of AI generation.
Respond with JSON: {"likelihood_score": 0-100, "observations": [string], "highlights": [{"start": int, "end": int, "text": string, "reason": string}]}.
Offsets are byte positions into the text exactly as given.

Text:
%s`, text)
}
