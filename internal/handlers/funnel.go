package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"ikshan/internal/logging"
	"ikshan/internal/models"
	"ikshan/internal/services"
)

// FunnelHandler drives the lead-qualification state machine over REST
type FunnelHandler struct {
	sessions *services.SessionStore
	funnel   *services.Funnel
}

// NewFunnelHandler creates a new funnel handler
func NewFunnelHandler(sessions *services.SessionStore, funnel *services.Funnel) *FunnelHandler {
	return &FunnelHandler{sessions: sessions, funnel: funnel}
}

// Create starts a new funnel session and runs the opening transition
// POST /api/funnel
func (h *FunnelHandler) Create(c *fiber.Ctx) error {
	session := h.sessions.Create()

	var effects []models.Effect
	err := h.sessions.WithSession(session.ID, func(s *models.FunnelSession) error {
		var dispatchErr error
		effects, dispatchErr = h.funnel.Dispatch(c.Context(), s, models.Action{Type: models.ActionStart})
		return dispatchErr
	})
	if err != nil {
		log.Printf("❌ [FUNNEL] session open failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sessionId": session.ID,
		"stage":     session.Stage.String(),
		"effects":   effects,
	})
}

// Dispatch applies one user action to an existing session
// POST /api/funnel/:sessionID/dispatch
func (h *FunnelHandler) Dispatch(c *fiber.Ctx) error {
	sessionID := c.Params("sessionID")

	var action models.Action
	if err := c.BodyParser(&action); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if action.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "action type is required",
		})
	}

	var (
		effects []models.Effect
		stage   string
	)
	err := h.sessions.WithSession(sessionID, func(s *models.FunnelSession) error {
		var dispatchErr error
		effects, dispatchErr = h.funnel.Dispatch(c.Context(), s, action)
		stage = s.Stage.String()
		return dispatchErr
	})
	if err != nil {
		return h.dispatchError(c, sessionID, err)
	}

	logging.WithSession(sessionID, stage).Debug("funnel action dispatched", "action", action.Type)
	return c.JSON(fiber.Map{
		"sessionId": sessionID,
		"stage":     stage,
		"effects":   effects,
	})
}

// Results returns the matching outcome for a completed session
// GET /api/funnel/:sessionID/results
func (h *FunnelHandler) Results(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("sessionID"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found or expired",
		})
	}

	if session.Stage != models.StageComplete {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Session has not completed yet",
			"stage": session.Stage.String(),
		})
	}

	return c.JSON(fiber.Map{
		"sessionId":     session.ID,
		"stage":         session.Stage.String(),
		"results":       session.Results,
		"fallbackShown": session.FallbackShown,
	})
}

func (h *FunnelHandler) dispatchError(c *fiber.Ctx, sessionID string, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found or expired",
		})
	case errors.Is(err, services.ErrActionInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Another action is already being processed for this session",
		})
	case errors.Is(err, services.ErrInvalidAction):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Action not valid for current stage",
		})
	}
	log.Printf("❌ [FUNNEL] session %s dispatch failed: %v", sessionID, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Dispatch failed",
	})
}
