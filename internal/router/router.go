package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"smartchat-backend/internal/handlers"
	"smartchat-backend/internal/middleware"
	"smartchat-backend/internal/session"
)

func New(
	sessions *session.Manager,
	pageHandler *handlers.PageHandler,
	chatHandler *handlers.ChatHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Chat rate limiter (30 req/min per IP)
	chatLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Everything conversational needs a session.
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/", pageHandler.Index)
		r.Get("/clear", chatHandler.Clear)

		r.Group(func(r chi.Router) {
			r.Use(chatLimiter.Middleware)
			r.Post("/chat_api", chatHandler.Message)
		})
	})

	return r
}
