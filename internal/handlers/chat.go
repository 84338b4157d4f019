package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"ikshan/internal/services"
)

// ChatHandler handles persona chat requests from the marketing site
type ChatHandler struct {
	responder *services.Responder
}

// NewChatHandler creates a new chat handler
func NewChatHandler(responder *services.Responder) *ChatHandler {
	return &ChatHandler{responder: responder}
}

// Handle answers one conversational turn
// POST /api/chat
func (h *ChatHandler) Handle(c *fiber.Ctx) error {
	var req services.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}

	reply, err := h.responder.Chat(c.Context(), req)
	if err != nil {
		log.Printf("❌ [CHAT] persona %q reply failed: %v", req.Persona, err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "I'm having a little trouble right now. Please try again in a moment.",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": reply,
	})
}
