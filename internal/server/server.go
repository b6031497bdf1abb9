package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gaspardpetit/chatpredict/internal/api"
	"github.com/gaspardpetit/chatpredict/internal/config"
	"github.com/gaspardpetit/chatpredict/internal/generator"
	"github.com/gaspardpetit/chatpredict/internal/mcpserver"
	"github.com/gaspardpetit/chatpredict/internal/metrics"
	"github.com/gaspardpetit/chatpredict/internal/serverstate"
)

// Deps are the collaborators of one server instance.
type Deps struct {
	Generator generator.Generator
	// Redis enables the answer cache when set.
	Redis redis.UniversalClient
	// Tracker defaults to an in-memory tracker.
	Tracker *serverstate.Tracker
	// Registry receives the server metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry

	Version   string
	BuildSHA  string
	BuildDate string
}

// New constructs the HTTP handler for the server.
func New(cfg config.ServerConfig, deps Deps) (http.Handler, error) {
	if deps.Generator == nil {
		return nil, errors.New("server: generator is required")
	}
	landing, err := api.NewLandingPage(cfg.LandingTemplate)
	if err != nil {
		return nil, err
	}
	if deps.Tracker == nil {
		deps.Tracker = serverstate.NewTracker(nil)
	}
	preg := deps.Registry
	if preg == nil {
		preg = prometheus.NewRegistry()
	}
	m := metrics.New(preg)
	m.SetBuildInfo(deps.Version, deps.BuildSHA, deps.BuildDate)

	gen := deps.Generator
	if deps.Redis != nil {
		gen = generator.NewCached(gen, deps.Redis, generator.Namespace(cfg), cfg.CacheTTL, m)
	}
	gen = generator.NewInstrumented(gen, m)

	openapiHandler, err := api.OpenAPIHandler(api.NewOpenAPI(deps.Version))
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}
	for _, mw := range api.MiddlewareChain() {
		r.Use(mw)
	}

	r.Method(http.MethodGet, "/", landing)
	r.Method(http.MethodPost, "/predict", &api.PredictHandler{
		Generator:    gen,
		Timeout:      cfg.RequestTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Metrics:      m,
	})
	r.Get("/healthz", api.HealthzHandler(deps.Tracker))
	r.Get("/state", StateHandler(deps.Tracker))
	r.Route("/api", func(r chi.Router) {
		r.Get("/openapi.json", openapiHandler)
		r.Get("/docs", api.SwaggerHandler())
	})
	if cfg.MCPEnabled {
		r.Handle("/mcp", mcpserver.NewHandler(gen, deps.Version, cfg.RequestTimeout))
	}

	if !cfg.SeparateMetrics() {
		r.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
	}

	return r, nil
}

// MetricsHandler serves reg on a dedicated listener.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}
