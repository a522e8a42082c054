package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zalepa/infractions/choropleth"
	"github.com/zalepa/infractions/config"
	"github.com/zalepa/infractions/pages"
	"github.com/zalepa/infractions/render"
)

// Options configures the dashboard API.
type Options struct {
	Pages      *pages.Set
	Sources    pages.Sources
	Boundaries choropleth.Boundaries
	ChartSize  render.Size
}

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	router   *chi.Mux
	pages    *pages.Set
	sources  pages.Sources
	bounds   choropleth.Boundaries
	size     render.Size
	sessions *sessionStore
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, opts Options) *Server {
	s := &Server{
		pages:    opts.Pages,
		sources:  opts.Sources,
		bounds:   opts.Boundaries,
		size:     opts.ChartSize,
		sessions: newSessionStore(),
	}
	if s.pages == nil {
		s.pages = pages.NewSet()
	}
	if s.size.Width == 0 || s.size.Height == 0 {
		s.size = render.DefaultSize
	}

	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", s.listPages)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getPage)
				r.Get("/series", s.getSeries)
				r.Get("/map.geojson", s.getMap)
				r.Get("/chart.{format}", s.getChart)
				r.Get("/export.{format}", s.getExport)
				r.Post("/reload", s.reloadPage)
				r.Post("/sessions", s.createSession)
			})
		})

		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/events", s.postEvents)
			r.Delete("/", s.deleteSession)
		})
	})

	// WebSocket endpoint for session events
	router.Get("/ws/sessions/{sid}", s.sessionWebSocket)

	s.router = router
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server and drops every session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.clear()
	return s.server.Shutdown(ctx)
}
