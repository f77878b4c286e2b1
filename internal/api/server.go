// Package api serves lead scoring over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-scorer/internal/config"
	"github.com/sells-group/lead-scorer/internal/leadsource"
	"github.com/sells-group/lead-scorer/internal/model"
	"github.com/sells-group/lead-scorer/internal/query"
)

// LeadProvider supplies the lead collection scored by GET /api/leads.
type LeadProvider interface {
	Leads(ctx context.Context) ([]model.Lead, error)
}

// RunRecorder persists a record of each scoring request.
type RunRecorder interface {
	SaveRun(ctx context.Context, run *model.ScoreRun, results []model.ScoredLead) error
}

// maxBodyBytes caps POST /api/leads/score payloads.
const maxBodyBytes = 10 << 20

// Server holds the HTTP handlers' dependencies.
type Server struct {
	engine  *query.Engine
	leads   LeadProvider
	runs    RunRecorder
	decoder *leadsource.Loader
	cfg     config.ServerConfig
}

// Option configures a Server.
type Option func(*Server)

// WithRunRecorder enables run persistence.
func WithRunRecorder(r RunRecorder) Option {
	return func(s *Server) { s.runs = r }
}

// New creates a Server.
func New(engine *query.Engine, leads LeadProvider, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		leads:   leads,
		decoder: leadsource.NewLoader(leadsource.Options{}),
		cfg:     cfg,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Score-Run-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(NewIPRateLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst).Middleware)
		}
		r.Get("/api/leads", s.handleLeads)
		r.Post("/api/leads/score", s.handleScore)
		r.Get("/api/weights", s.handleWeights)
	})

	return r
}

// NewHTTPServer wraps the router with the configured port and timeouts.
func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
