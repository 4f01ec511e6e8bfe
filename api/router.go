package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"batepapo/services"
)

// NewRouter wires the HTTP surface to the chat service.
func NewRouter(log *slog.Logger, svc services.IChatService, health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	NewChatHandler(log, svc).RegisterRoutes(r)
	if health != nil {
		health.RegisterRoutes(r)
	}
	return r
}
