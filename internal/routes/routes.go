package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/mindcare-backend/internal/handlers"
	"github.com/AnshRaj112/mindcare-backend/internal/metrics"
)

type Deps struct {
	Handler *handlers.Handler
	Metrics *metrics.Metrics // optional; serves /metrics when set
	// ChatLimiter guards the routes that can reach the text generator.
	ChatLimiter func(http.Handler) http.Handler
}

func SetupRoutes(r chi.Router, d Deps) {
	h := d.Handler
	chatLimiter := d.ChatLimiter
	if chatLimiter == nil {
		chatLimiter = func(next http.Handler) http.Handler { return next }
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/resources", h.Resources)

		r.With(chatLimiter).Post("/chat", h.Chat)

		// Mood tracking
		r.Post("/mood", h.LogMood)
		r.Get("/mood-history/{user_id:[0-9]+}", h.MoodHistory)
		r.Get("/conversation-history/{user_id:[0-9]+}", h.ConversationHistory)

		// Users
		r.Post("/users", h.CreateUser)
		r.Get("/users/{user_id:[0-9]+}", h.GetUser)
	})

	r.With(chatLimiter).Get("/ws/chat", h.ChatWebSocket)

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
}
