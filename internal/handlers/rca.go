package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"ikshan/internal/models"
	"ikshan/internal/services"
)

// RCAHandler serves root-cause diagnostic questions parsed from the
// per-domain task documents
type RCAHandler struct {
	search *services.SearchService
}

// NewRCAHandler creates a new RCA handler
func NewRCAHandler(search *services.SearchService) *RCAHandler {
	return &RCAHandler{search: search}
}

type rcaRequest struct {
	Domain string `json:"domain"`
	Task   string `json:"task"`
}

type rcaQuestion struct {
	Complaint   string `json:"complaint"`
	Metric      string `json:"metric"`
	Category    string `json:"category"`
	DisplayText string `json:"displayText"`
}

// Handle returns the diagnostic questions for a domain, narrowed to one task
// when a task name fuzzy-matches
// POST /api/rca-questions
func (h *RCAHandler) Handle(c *fiber.Ctx) error {
	var req rcaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "domain is required",
		})
	}

	doc, err := h.search.DomainTasks(req.Domain)
	if err != nil || doc == nil || len(doc.Tasks) == 0 {
		if err != nil {
			log.Printf("⚠️ [RCA] no document for domain %q: %v", req.Domain, err)
		}
		return c.JSON(fiber.Map{
			"success":      false,
			"message":      fmt.Sprintf("No RCA data found for domain %q", req.Domain),
			"rcaQuestions": []rcaQuestion{},
		})
	}

	if req.Task != "" {
		match, score, err := h.search.MatchTask(req.Domain, req.Task)
		if err == nil && match != nil {
			opportunities := match.Opportunities
			if len(opportunities) > 5 {
				opportunities = opportunities[:5]
			}
			strategies := match.Strategies
			if len(strategies) > 3 {
				strategies = strategies[:3]
			}
			return c.JSON(fiber.Map{
				"success":       true,
				"domain":        req.Domain,
				"task":          match.Title,
				"matchScore":    score,
				"rcaQuestions":  bridgeQuestions(match.Bridge),
				"problems":      match.Problems,
				"opportunities": opportunities,
				"strategies":    strategies,
			})
		}
	}

	available := make([]fiber.Map, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		available = append(available, fiber.Map{
			"task":         t.Title,
			"rcaCount":     len(t.Bridge),
			"rcaQuestions": bridgeQuestions(t.Bridge),
		})
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"domain":         req.Domain,
		"tasksAvailable": available,
	})
}

func bridgeQuestions(entries []models.BridgeEntry) []rcaQuestion {
	questions := make([]rcaQuestion, 0, len(entries))
	for _, e := range entries {
		questions = append(questions, rcaQuestion{
			Complaint:   e.Complaint,
			Metric:      e.Metric,
			Category:    e.Category,
			DisplayText: e.Complaint,
		})
	}
	return questions
}
