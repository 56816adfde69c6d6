// Package http wires the chi route tree and the HTTP server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/prometheus"
	"github.com/annolens/annolens/internal/interfaces/http/handlers"
	"github.com/annolens/annolens/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware for the route tree.
type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	AnalyzeHandler  *handlers.AnalyzeHandler
	HealthHandler   *handlers.HealthHandler

	CORS      *middleware.CORSConfig
	RateLimit middleware.RateLimiter

	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// NewRouter builds the full route tree: global middleware, probes, metrics,
// and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, middleware.DefaultLoggingConfig()))
	}
	if cfg.RateLimit != nil {
		r.Use(middleware.RateLimit(cfg.RateLimit, middleware.DefaultRateLimitConfig()))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerDocumentRoutes(api, cfg.DocumentHandler)
		if cfg.AnalyzeHandler != nil {
			api.Post("/analyze", cfg.AnalyzeHandler.Analyze)
		}
	})

	return r
}

func registerDocumentRoutes(r chi.Router, h *handlers.DocumentHandler) {
	if h == nil {
		return
	}
	r.Route("/documents", func(dr chi.Router) {
		dr.Post("/", h.Create)

		dr.Route("/{documentID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Put("/text", h.SetText)
			item.Post("/generate", h.Generate)
			item.Post("/factcheck", h.FactCheck)
			item.Get("/segments", h.Segments)
			item.Post("/click", h.Click)
			item.Get("/export", h.Export)

			item.Route("/annotations", func(ar chi.Router) {
				ar.Post("/", h.CreateAnnotation)
				ar.Delete("/", h.ClearAnnotations)
				ar.Patch("/{annotationID}", h.UpdateAnnotation)
				ar.Delete("/{annotationID}", h.DeleteAnnotation)
			})
		})
	})
}
