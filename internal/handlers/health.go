package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"ikshan/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	sessions *services.SessionStore
	started  time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions *services.SessionStore) *HealthHandler {
	return &HealthHandler{sessions: sessions, started: time.Now()}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"sessions":  h.sessions.Count(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
