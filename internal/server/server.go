package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/formcoach/internal/metrics"
	"github.com/meltforce/formcoach/internal/storage"
	"github.com/meltforce/formcoach/internal/workout"
)

// Options tunes the HTTP surface.
type Options struct {
	// APIKey, when set, is required on every endpoint that changes the workout.
	APIKey string
	// MaxFPS caps frames per second on each stream connection. 0 disables the cap.
	MaxFPS int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	tracker *workout.Controller
	journal storage.Journal
	metrics *metrics.Collector
	log     *slog.Logger
	opts    Options
	whois   WhoIser
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(tracker *workout.Controller, journal storage.Journal, collector *metrics.Collector, opts Options, log *slog.Logger) *Server {
	if journal == nil {
		journal = storage.Nop{}
	}
	if collector == nil {
		collector = metrics.NewCollector(log)
	}
	s := &Server{
		tracker: tracker,
		journal: journal,
		metrics: collector,
		log:     log,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(s.identify)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	// Workout control and frame input (API key required when configured)
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireKey)
		r.Post("/start_workout", s.handleStartWorkout)
		r.Post("/end_workout", s.handleEndWorkout)
		r.Post("/api/v1/frames", s.handleFrame)
		r.Get("/ws", s.handleStream)
	})

	s.router.Get("/api/v1/workout", s.handleWorkoutStatus)
	s.router.Get("/api/v1/exercises", s.handleExercises)
	s.router.Get("/api/v1/sessions", s.handleSessions)
}

// SetMCP mounts an MCP streamable HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Mount("/mcp", s.requireKey(h))
}

// SetTailscale enables per-request identity lookup through the tailnet.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	if s.opts.APIKey == "" {
		return next
	}
	return APIKeyAuth(s.opts.APIKey)(next)
}
