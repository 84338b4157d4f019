package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"ikshan/internal/catalog"
	"ikshan/internal/models"
	"ikshan/internal/services"
)

// SearchHandler handles matching-pipeline requests for all three datasets
type SearchHandler struct {
	search *services.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type companySearchRequest struct {
	Domain      string             `json:"domain"`
	Subdomain   string             `json:"subdomain"`
	Requirement string             `json:"requirement"`
	UserContext models.UserContext `json:"userContext"`
}

// SearchCompanies matches a requirement against the startup directory. With
// no requirement it returns a plain domain listing instead of ranking.
// POST /api/search-companies
func (h *SearchHandler) SearchCompanies(c *fiber.Ctx) error {
	var req companySearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Requirement == "" {
		companies, total, err := h.search.ListCompanies(c.Context(), req.Domain)
		if err != nil {
			return h.datasetError(c, "companies", err)
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"companies":     companies,
			"totalInDomain": len(companies),
			"totalSearched": total,
		})
	}

	set, err := h.search.SearchCompanies(c.Context(), req.Domain, req.Subdomain, req.Requirement, req.UserContext)
	if err != nil {
		return h.datasetError(c, "companies", err)
	}
	return c.JSON(matchSetResponse(set))
}

// SearchTools matches the funnel answers against the unified tools list
// POST /api/search-tools
func (h *SearchHandler) SearchTools(c *fiber.Ctx) error {
	var req services.ToolSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	set, err := h.search.SearchTools(c.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyIntent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return h.datasetError(c, "tools", err)
	}
	return c.JSON(matchSetResponse(set))
}

// SearchAssistants matches the funnel answers against the assistant list
// POST /api/search-gpts
func (h *SearchHandler) SearchAssistants(c *fiber.Ctx) error {
	var req services.AssistantSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	set, err := h.search.SearchAssistants(c.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyIntent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return h.datasetError(c, "assistants", err)
	}
	return c.JSON(matchSetResponse(set))
}

func (h *SearchHandler) datasetError(c *fiber.Ctx, dataset string, err error) error {
	log.Printf("❌ [SEARCH] %s search failed: %v", dataset, err)
	if errors.Is(err, catalog.ErrSourceUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "The " + dataset + " dataset is temporarily unavailable. Please try again shortly.",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Search failed",
	})
}

func matchSetResponse(set *models.MatchSet) fiber.Map {
	return fiber.Map{
		"success":             true,
		"topMatches":          set.TopMatches,
		"alternatives":        set.Alternatives,
		"helpfulResponse":     set.Explanation,
		"searchMethod":        set.SearchMethod,
		"totalSearched":       set.TotalSearched,
		"candidatesEvaluated": set.CandidatesEvaluated,
		"degraded":            set.Degraded,
	}
}
