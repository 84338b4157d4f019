package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ikshan/internal/catalog"
	"ikshan/internal/logging"
	"ikshan/internal/models"
)

// ErrEmptyIntent is returned when a search request carries no usable signal.
var ErrEmptyIntent = errors.New("at least one search parameter is required")

const companyListingLimit = 10

// ToolSearchRequest carries the five funnel answers that shape a tool search.
type ToolSearchRequest struct {
	Goal        string             `json:"goal"`
	Role        string             `json:"role"`
	Category    string             `json:"category"`
	SubCategory string             `json:"subCategory"`
	Task        string             `json:"task"`
	UserContext models.UserContext `json:"userContext"`
}

// AssistantSearchRequest carries the signals for an assistant search.
type AssistantSearchRequest struct {
	Outcome     string             `json:"outcome"`
	Domain      string             `json:"domain"`
	Task        string             `json:"task"`
	RCAAnswer   string             `json:"rcaAnswer"`
	UserContext models.UserContext `json:"userContext"`
}

// SearchService runs the two-stage matching pipeline (keyword pre-filter,
// model-assisted ranking) over the catalog datasets.
type SearchService struct {
	loader   *catalog.Loader
	taskDocs *catalog.TaskDocStore
	ranker   *Ranker
	metrics  *Metrics
}

func NewSearchService(loader *catalog.Loader, taskDocs *catalog.TaskDocStore, ranker *Ranker, metrics *Metrics) *SearchService {
	return &SearchService{loader: loader, taskDocs: taskDocs, ranker: ranker, metrics: metrics}
}

// SearchTools matches the user's need against the unified tools list.
func (s *SearchService) SearchTools(ctx context.Context, req ToolSearchRequest) (*models.MatchSet, error) {
	intent := joinIntent([]intentPart{
		{"Goal", req.Goal},
		{"Role", req.Role},
		{"Category", req.Category},
		{"Sub-category", req.SubCategory},
		{"Task", req.Task},
	})
	if intent == "" {
		return nil, ErrEmptyIntent
	}

	tools, err := s.loader.Tools(ctx)
	if err != nil {
		return nil, fmt.Errorf("tools dataset: %w", err)
	}

	start := time.Now()
	filterIntent := strings.TrimSpace(req.Category + " " + req.SubCategory + " " + req.Task)
	candidates := PreFilterTools(tools, filterIntent)

	task := req.Task
	if task == "" {
		task = req.SubCategory
	}
	if task == "" {
		task = req.Category
	}

	set := s.ranker.RankTools(ctx, candidates, intent, task, len(tools))
	s.record("tools", set.SearchMethod, start)
	return set, nil
}

// SearchAssistants matches the user's need against the curated assistant
// list.
func (s *SearchService) SearchAssistants(ctx context.Context, req AssistantSearchRequest) (*models.MatchSet, error) {
	intent := joinIntent([]intentPart{
		{"Outcome", req.Outcome},
		{"Domain", req.Domain},
		{"Task", req.Task},
		{"User situation", req.RCAAnswer},
	})
	if intent == "" {
		return nil, ErrEmptyIntent
	}

	assistants, err := s.loader.Assistants(ctx)
	if err != nil {
		return nil, fmt.Errorf("assistants dataset: %w", err)
	}

	start := time.Now()
	filterIntent := strings.TrimSpace(req.Domain + " " + req.Task + " " + req.RCAAnswer)
	candidates := PreFilterAssistants(assistants, filterIntent)

	task := req.Task
	if task == "" {
		task = req.Domain
	}

	set := s.ranker.RankAssistants(ctx, candidates, intent, task, len(assistants))
	s.record("assistants", set.SearchMethod, start)
	return set, nil
}

// SearchCompanies matches a free-text requirement against the startup
// directory.
func (s *SearchService) SearchCompanies(ctx context.Context, domain, subdomain, requirement string, uc models.UserContext) (*models.MatchSet, error) {
	companies, err := s.loader.Companies(ctx)
	if err != nil {
		return nil, fmt.Errorf("companies dataset: %w", err)
	}
	if len(companies) == 0 {
		return &models.MatchSet{SearchMethod: models.SearchMethodAI}, nil
	}

	start := time.Now()
	set := s.ranker.RankCompanies(ctx, companies, requirement, domain, subdomain, BuildUserProfile(uc))
	s.record("companies", set.SearchMethod, start)
	return set, nil
}

// ListCompanies returns up to 10 directory entries for a domain without
// ranking, for browsing before any requirement is typed.
func (s *SearchService) ListCompanies(ctx context.Context, domain string) ([]models.CatalogRecord, int, error) {
	companies, err := s.loader.Companies(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("companies dataset: %w", err)
	}

	matches := companies
	if domain != "" {
		domainLower := strings.ToLower(domain)
		matches = nil
		for _, c := range companies {
			if strings.Contains(strings.ToLower(c.Domain), domainLower) {
				matches = append(matches, c)
			}
		}
	}

	if len(matches) > companyListingLimit {
		matches = matches[:companyListingLimit]
	}
	return matches, len(companies), nil
}

// DomainTasks returns all parsed tasks for a domain document.
func (s *SearchService) DomainTasks(domain string) (*models.TaskDocument, error) {
	return s.taskDocs.Document(domain)
}

// MatchTask fuzzy-matches a task name inside a domain document. A nil task
// with a nil error means no task cleared the match threshold.
func (s *SearchService) MatchTask(domain, task string) (*models.Task, float64, error) {
	doc, err := s.taskDocs.Document(domain)
	if err != nil {
		return nil, 0, err
	}
	matched, score := catalog.FindBestTask(doc, task)
	return matched, score, nil
}

// BuildUserProfile renders the visitor's funnel answers as prompt context.
func BuildUserProfile(uc models.UserContext) string {
	orDefault := func(v string) string {
		if v == "" {
			return "Not specified"
		}
		return v
	}

	switch uc.Role {
	case "business-owner":
		return fmt.Sprintf("User Profile: Business Owner\n- Business type: %s\n- Industry: %s\n- Target audience: %s\n- Market segment: %s",
			orDefault(uc.BusinessType), orDefault(uc.Industry), orDefault(uc.TargetAudience), orDefault(uc.MarketSegment))
	case "professional":
		profile := fmt.Sprintf("User Profile: Working Professional\n- Role & Industry: %s\n- Solution for: %s",
			orDefault(uc.RoleAndIndustry), orDefault(uc.SolutionFor))
		if uc.SalaryContext != "" {
			profile += "\n- Context: " + uc.SalaryContext
		}
		return profile
	case "freelancer":
		return fmt.Sprintf("User Profile: Freelancer\n- Type of work: %s\n- Main challenge: %s",
			orDefault(uc.FreelanceType), orDefault(uc.Challenge))
	case "student":
		return "User Profile: Student/Learner exploring solutions"
	}
	return ""
}

type intentPart struct {
	label string
	value string
}

func joinIntent(parts []intentPart) string {
	var out []string
	for _, p := range parts {
		if p.value != "" {
			out = append(out, p.label+": "+p.value)
		}
	}
	return strings.Join(out, " | ")
}

func (s *SearchService) record(dataset, method string, start time.Time) {
	elapsed := time.Since(start)
	logging.WithSearch(slog.Default(), dataset, method).Debug("matching pipeline run", "elapsed", elapsed)
	if s.metrics != nil {
		s.metrics.RecordSearch(dataset, method, elapsed.Seconds())
	}
}
