package http

import (
	"net/http"
	"time"

	"codeduel/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Contests  *ContestHandler
	Questions *QuestionHandler
	Profiles  *ProfileHandler
}

// NewRouter builds the API router with logging, recovery, CORS and metrics.
func NewRouter(h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/contests", func(r chi.Router) {
			r.Post("/", h.Contests.Create)
			r.Get("/live", h.Contests.ListLive)
			r.Get("/past", h.Contests.ListPast)
			r.Get("/stats", h.Contests.Stats)
			r.Get("/{code}", h.Contests.Get)
			r.Post("/{code}/solve", h.Contests.Solve)
		})
		r.Route("/questions", func(r chi.Router) {
			r.Get("/", h.Questions.List)
			r.Post("/", h.Questions.Create)
			r.Get("/random", h.Questions.Random)
			r.Patch("/{id}/solve", h.Questions.ToggleSolved)
		})
		r.Get("/leetcode/{username}", h.Profiles.Get)
		r.Get("/profiles", h.Profiles.Both)
	})
	return r
}
