package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roshankumarc210506-arch/learnsphere/internal/interface/http/handlers"
)

// routes builds the router and its middleware chain.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(handlers.Recovery)
	r.Use(handlers.RequestID(s.log))
	r.Use(handlers.Logging(s.deps.Clock))
	r.Use(handlers.SecurityHeaders)
	if s.config.EnableCORS {
		r.Use(handlers.CORS(s.config.AllowedOrigins, 24*time.Hour))
	}
	if s.config.MaxBodyBytes > 0 {
		r.Use(handlers.RequestSizeLimit(s.config.MaxBodyBytes))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.NoCache)

		if s.deps.Leaderboard != nil {
			r.Get("/leaderboard", s.handleLeaderboard)
		}

		r.Route("/students/{username}", func(r chi.Router) {
			r.Post("/session", s.handleOpenSession)
			r.Delete("/session", s.handleCloseSession)
			r.Get("/progress", s.handleProgress)
			r.Post("/events", s.handleEvent)
			r.Get("/quiz", s.handleQuiz)
			r.Get("/final", s.handleFinal)
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/read", s.handleMarkRead)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}
