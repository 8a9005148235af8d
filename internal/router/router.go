package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/NotescapeAi/notescape-backend/internal/handlers"
	"github.com/NotescapeAi/notescape-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	classHandler *handlers.ClassHandler,
	noteHandler *handlers.NoteHandler,
	flashcardHandler *handlers.FlashcardHandler,
	reviewHandler *handlers.ReviewHandler,
	studyHandler *handlers.StudyHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/google", authHandler.GoogleLogin)
		})

		// ──── Class Routes ────
		r.Route("/classes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", classHandler.Create)
			r.Get("/", classHandler.List)
			r.Get("/{id}", classHandler.Get)
			r.Delete("/{id}", classHandler.Delete)
		})

		// ──── Note File Routes ────
		r.Route("/files", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/upload", noteHandler.Upload)
			r.Get("/{id}", noteHandler.Get)
			r.Delete("/{id}", noteHandler.Delete)
		})

		// ──── Flashcard Routes ────
		r.Route("/flashcards", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", flashcardHandler.Create)
			r.Post("/generate", flashcardHandler.Generate)
			r.Get("/{id}", flashcardHandler.Get)
			r.Delete("/{id}", flashcardHandler.Delete)

			r.Post("/{id}/review", reviewHandler.Submit)
			r.Get("/{id}/review/preview", reviewHandler.Preview)
			r.Get("/{id}/reviews", reviewHandler.History)
		})

		// ──── Study Routes ────
		r.Route("/study", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/due", studyHandler.Due)
			r.Get("/progress", studyHandler.Progress)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", flashcardHandler.GetJob)
		})
	})

	return r
}
