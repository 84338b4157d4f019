package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"ikshan/internal/models"
	"ikshan/internal/services"
)

// FunnelWebSocketHandler drives the lead-qualification state machine over a
// live websocket channel, for clients that keep the widget open instead of
// polling the REST endpoints.
type FunnelWebSocketHandler struct {
	sessions *services.SessionStore
	funnel   *services.Funnel
}

// NewFunnelWebSocketHandler creates a new funnel websocket handler
func NewFunnelWebSocketHandler(sessions *services.SessionStore, funnel *services.Funnel) *FunnelWebSocketHandler {
	return &FunnelWebSocketHandler{sessions: sessions, funnel: funnel}
}

// dispatchTimeout bounds one transition, which may include ranking calls.
const dispatchTimeout = 90 * time.Second

// HandleConnection runs the read loop for one widget connection. A session
// is resumed from the session_id query param or created fresh.
func (h *FunnelWebSocketHandler) HandleConnection(c *websocket.Conn) {
	defer c.Close()

	sessionID := c.Query("session_id")
	if sessionID != "" {
		if _, err := h.sessions.Get(sessionID); err != nil {
			c.WriteJSON(fiber.Map{"type": "error", "error": "Session not found or expired"})
			sessionID = ""
		}
	}
	if sessionID == "" {
		session := h.sessions.Create()
		sessionID = session.ID
		if !h.dispatch(c, sessionID, models.Action{Type: models.ActionStart}) {
			return
		}
	} else {
		log.Printf("🔌 [FUNNEL-WS] session %s resumed", sessionID)
		c.WriteJSON(fiber.Map{"type": "resumed", "sessionId": sessionID})
	}

	const readTimeout = 5 * time.Minute
	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var action models.Action
		if err := c.ReadJSON(&action); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ [FUNNEL-WS] session %s read error: %v", sessionID, err)
			}
			return
		}
		c.SetReadDeadline(time.Now().Add(readTimeout))

		if action.Type == "" {
			c.WriteJSON(fiber.Map{"type": "error", "error": "action type is required"})
			continue
		}
		if !h.dispatch(c, sessionID, action) {
			return
		}
	}
}

// dispatch applies one action and streams the resulting effects back. It
// reports false when the connection should be dropped.
func (h *FunnelWebSocketHandler) dispatch(c *websocket.Conn, sessionID string, action models.Action) bool {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	var (
		effects []models.Effect
		stage   string
	)
	err := h.sessions.WithSession(sessionID, func(s *models.FunnelSession) error {
		var dispatchErr error
		effects, dispatchErr = h.funnel.Dispatch(ctx, s, action)
		stage = s.Stage.String()
		return dispatchErr
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.WriteJSON(fiber.Map{"type": "error", "error": "Session not found or expired"})
			return false
		case errors.Is(err, services.ErrActionInFlight):
			c.WriteJSON(fiber.Map{"type": "error", "error": "Another action is already being processed"})
			return true
		case errors.Is(err, services.ErrInvalidAction):
			c.WriteJSON(fiber.Map{"type": "error", "error": "Action not valid for current stage"})
			return true
		}
		log.Printf("❌ [FUNNEL-WS] session %s dispatch failed: %v", sessionID, err)
		c.WriteJSON(fiber.Map{"type": "error", "error": "Dispatch failed"})
		return true
	}

	return c.WriteJSON(fiber.Map{
		"type":      "effects",
		"sessionId": sessionID,
		"stage":     stage,
		"effects":   effects,
	}) == nil
}
