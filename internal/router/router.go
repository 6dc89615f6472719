package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"eduvoice-backend/internal/handlers"
	"eduvoice-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	systemHandler *handlers.SystemHandler,
	flashcardHandler *handlers.FlashcardHandler,
	reviewHandler *handlers.ReviewHandler,
	wsHandler http.HandlerFunc,
	generateLimiter *middleware.RateLimiter,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", systemHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", systemHandler.Health)
		r.Get("/config", systemHandler.Config)

		// ──── Flashcard Routes ────
		r.Route("/flashcards", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.With(generateLimiter.Middleware).Post("/generate", flashcardHandler.Generate)
			r.Post("/performance", flashcardHandler.RecordPerformance)
			r.Get("/performance", flashcardHandler.History)
			r.Get("/difficulty", flashcardHandler.Difficulty)
		})

		// ──── Review Session Routes ────
		r.Route("/review-sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.With(generateLimiter.Middleware).Post("/", reviewHandler.Start)
			r.Get("/{id}", reviewHandler.Get)
			r.Post("/{id}/answers", reviewHandler.Answer)
			r.Delete("/{id}", reviewHandler.End)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHandler)
	})

	return r
}
