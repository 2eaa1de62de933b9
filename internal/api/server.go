package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/casegen/internal/chat"
	"github.com/dgallion1/casegen/internal/config"
	"github.com/dgallion1/casegen/internal/generator"
	"github.com/dgallion1/casegen/internal/resolver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for casegen.
type Server struct {
	router   chi.Router
	resolver *resolver.Resolver
	chat     *chat.Service
	stats    *generator.LatencyStats
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(res *resolver.Resolver, chatSvc *chat.Service, stats *generator.LatencyStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		resolver: res,
		chat:     chatSvc,
		stats:    stats,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.CasegenAPIKey, s.log))

		r.Route("/api/issues/{issueKey}", func(r chi.Router) {
			r.Use(IssueKeyMiddleware)

			r.Get("/", s.handleGetIssue)
			r.Get("/messages", s.handleGetMessages)
			r.Put("/messages", s.handleStoreMessages)
			r.Delete("/messages", s.handleClearMessages)
			r.Post("/chat", s.handleChat)

			r.Get("/testcases/latest", s.handleLatestTestCases)
			r.Get("/testcases.csv", s.handleExportCSV)
			r.Get("/testcases.html", s.handleExportHTML)
			r.Get("/testcases.docx", s.handleExportDOCX)
			r.Get("/story.html", s.handleStoryHTML)
		})

		r.Get("/api/stats/generator", s.handleGeneratorStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
