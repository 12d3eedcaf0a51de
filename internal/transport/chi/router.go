package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// RouterConfig holds cross-cutting HTTP settings.
type RouterConfig struct {
	APIKeys     []string
	CORSOrigins []string // empty disables CORS headers
}

// NewRouter mounts the FAQ API on a chi router with the standard middleware stack.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "Content-Type", APIKeyHeader},
			ExposedHeaders: []string{"X-Request-ID"},
		}).Handler)
	}
	r.Use(APIKeyAuthMiddleware(cfg.APIKeys))
	metrics.RegisterHTTPMetrics()
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/health/live", s.Live)
	r.Get("/health/ready", s.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/search", s.SearchGet)
		r.Get("/faqs/{id}", s.GetFAQ)
		r.Post("/corpus/reload", s.ReloadCorpus)
	})

	return r
}
