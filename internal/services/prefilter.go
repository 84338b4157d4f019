package services

import (
	"sort"
	"strconv"
	"strings"

	"ikshan/internal/models"
)

// Candidate list shaping. The caps bound prompt size for the ranking model;
// the floors trigger gap-filling when keyword scoring finds too little.
const (
	toolCandidateCap      = 150
	toolGapFillFloor      = 30
	toolGapFillBatch      = 100
	assistantCandidateCap = 50
	assistantGapFillFloor = 10
	companyResultCap      = 3
)

// Intent keywords mapped to likely tool domains, used to widen thin
// candidate lists with plausible records at nominal score.
var toolDomainGuesses = map[string][]string{
	"marketing": {"marketing", "social media", "advertising"},
	"social":    {"social media", "communication"},
	"seo":       {"marketing", "seo"},
	"content":   {"content", "design", "media"},
	"lead":      {"sales", "marketing", "crm"},
	"sales":     {"sales", "crm", "commerce"},
	"automat":   {"productivity", "automation", "workflow"},
	"email":     {"communication", "marketing", "email"},
	"crm":       {"crm", "sales"},
	"hr":        {"human resources", "recruiting"},
	"recruit":   {"recruiting", "human resources"},
	"hire":      {"recruiting", "human resources"},
	"finance":   {"finance", "accounting"},
	"invoice":   {"finance", "accounting", "billing"},
	"account":   {"finance", "accounting"},
	"support":   {"customer support", "helpdesk"},
	"ticket":    {"customer support", "helpdesk"},
	"chat":      {"communication", "customer support"},
	"design":    {"design", "creative"},
	"video":     {"media", "video", "entertainment"},
	"photo":     {"design", "photo", "media"},
	"document":  {"productivity", "document"},
	"project":   {"project management", "productivity"},
	"analytics": {"analytics", "business intelligence"},
	"data":      {"analytics", "data", "business intelligence"},
	"ecommerce": {"e-commerce", "commerce", "shopping"},
	"shop":      {"e-commerce", "commerce", "shopping"},
	"shipping":  {"logistics", "shipping"},
	"legal":     {"legal", "compliance"},
	"contract":  {"legal", "document"},
	"meeting":   {"collaboration", "video conferencing"},
	"schedule":  {"productivity", "schedule"},
	"calendar":  {"productivity", "schedule"},
	"whatsapp":  {"communication", "messaging"},
	"instagram": {"social media", "marketing"},
	"linkedin":  {"social media", "professional networking"},
	"google":    {"productivity", "advertising"},
	"pdf":       {"document", "productivity"},
	"excel":     {"productivity", "spreadsheet"},
	"dashboard": {"analytics", "business intelligence"},
}

// Intent keywords mapped to assistant categories.
var assistantCategoryGuesses = map[string][]string{
	"content":      {"productivity", "writing", "marketing"},
	"social media": {"marketing", "productivity", "writing"},
	"seo":          {"marketing", "research"},
	"lead":         {"marketing", "sales", "productivity"},
	"sales":        {"sales", "productivity", "marketing"},
	"customer":     {"customer service", "productivity"},
	"finance":      {"finance", "education"},
	"hr":           {"productivity", "education"},
	"recruit":      {"productivity", "education"},
	"analytics":    {"research", "productivity", "data analysis"},
	"automat":      {"productivity", "programming"},
	"market":       {"marketing", "research"},
	"personal":     {"lifestyle", "productivity", "education"},
	"support":      {"customer service", "productivity"},
}

func intentKeywords(intent string, minLen int) []string {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(intent)) {
		if len(w) > minLen {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// PreFilterTools scores the tools list against the user intent and returns
// up to 150 candidates. Subdomain hits weigh heaviest because the funnel
// already narrowed the user to a subdomain; an intent that names the tool's
// whole domain gets an extra boost.
func PreFilterTools(tools []models.CatalogRecord, intent string) []models.ScoredRecord {
	intentLower := strings.ToLower(intent)
	keywords := intentKeywords(intent, 2)
	firstWord := strings.SplitN(intentLower, " ", 2)[0]

	scored := make([]models.ScoredRecord, 0, len(tools))
	for _, tool := range tools {
		domainLower := strings.ToLower(tool.Domain)
		subdomainLower := strings.ToLower(tool.Subdomain)
		tasksLower := strings.ToLower(tool.TasksText)

		score := 0
		for _, kw := range keywords {
			if strings.Contains(domainLower, kw) {
				score += 3
			}
			if strings.Contains(subdomainLower, kw) {
				score += 4
			}
			if strings.Contains(tasksLower, kw) {
				score += 2
			}
		}
		if domainLower != "" && (strings.Contains(intentLower, domainLower) || strings.Contains(domainLower, firstWord)) {
			score += 5
		}

		scored = append(scored, models.ScoredRecord{Record: tool, PreScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PreScore > scored[j].PreScore
	})

	candidates := make([]models.ScoredRecord, 0, toolCandidateCap)
	for _, s := range scored {
		if s.PreScore <= 0 || len(candidates) == toolCandidateCap {
			break
		}
		candidates = append(candidates, s)
	}

	if len(candidates) < toolGapFillFloor {
		candidates = gapFillTools(candidates, tools, intentLower)
	}

	if len(candidates) > toolCandidateCap {
		candidates = candidates[:toolCandidateCap]
	}
	return candidates
}

func gapFillTools(candidates []models.ScoredRecord, tools []models.CatalogRecord, intentLower string) []models.ScoredRecord {
	guesses := guessFromMap(toolDomainGuesses, intentLower)
	if len(guesses) == 0 {
		return candidates
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.Record.ToolID] = true
	}

	added := 0
	for _, tool := range tools {
		if added == toolGapFillBatch {
			break
		}
		domainLower := strings.ToLower(tool.Domain)
		subdomainLower := strings.ToLower(tool.Subdomain)
		for _, g := range guesses {
			if strings.Contains(domainLower, g) || strings.Contains(subdomainLower, g) {
				if !seen[tool.ToolID] {
					seen[tool.ToolID] = true
					candidates = append(candidates, models.ScoredRecord{Record: tool, PreScore: 1})
					added++
				}
				break
			}
		}
	}
	return candidates
}

// PreFilterAssistants scores the assistant list against the user intent and
// returns up to 50 candidates. Highly rated assistants get a small boost so
// the model sees quality options even on sparse keyword overlap.
func PreFilterAssistants(assistants []models.CatalogRecord, intent string) []models.ScoredRecord {
	keywords := intentKeywords(intent, 2)

	scored := make([]models.ScoredRecord, 0, len(assistants))
	for _, a := range assistants {
		nameLower := strings.ToLower(a.Name)
		catLower := strings.ToLower(a.Category)

		score := 0
		for _, kw := range keywords {
			if strings.Contains(a.SearchText, kw) {
				score += 2
			}
			if strings.Contains(nameLower, kw) {
				score += 3
			}
			if strings.Contains(catLower, kw) {
				score += 2
			}
		}

		if rating, err := strconv.ParseFloat(a.Rating, 64); err == nil {
			if rating >= 4.5 {
				score += 2
			} else if rating >= 4.0 {
				score++
			}
		}

		scored = append(scored, models.ScoredRecord{Record: a, PreScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PreScore > scored[j].PreScore
	})

	candidates := make([]models.ScoredRecord, 0, assistantCandidateCap)
	for _, s := range scored {
		if s.PreScore <= 0 || len(candidates) == assistantCandidateCap {
			break
		}
		candidates = append(candidates, s)
	}

	if len(candidates) < assistantGapFillFloor {
		candidates = gapFillAssistants(candidates, assistants, strings.ToLower(intent))
	}

	if len(candidates) > assistantCandidateCap {
		candidates = candidates[:assistantCandidateCap]
	}
	return candidates
}

func gapFillAssistants(candidates []models.ScoredRecord, assistants []models.CatalogRecord, intentLower string) []models.ScoredRecord {
	guesses := guessFromMap(assistantCategoryGuesses, intentLower)
	if len(guesses) == 0 {
		return candidates
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.Record.Name] = true
	}

	for _, a := range assistants {
		catLower := strings.ToLower(a.Category)
		for _, g := range guesses {
			if strings.Contains(catLower, g) {
				if !seen[a.Name] {
					seen[a.Name] = true
					candidates = append(candidates, models.ScoredRecord{Record: a, PreScore: 1})
				}
				break
			}
		}
	}
	return candidates
}

func guessFromMap(m map[string][]string, intentLower string) []string {
	seen := map[string]bool{}
	var guesses []string
	for keyword, targets := range m {
		if !strings.Contains(intentLower, keyword) {
			continue
		}
		for _, t := range targets {
			if !seen[t] {
				seen[t] = true
				guesses = append(guesses, t)
			}
		}
	}
	sort.Strings(guesses)
	return guesses
}

// ScoreCompaniesByKeyword is the degraded ranking for the startup dataset:
// +2 per significant requirement word found in the record's search text, +1
// when the user's domain matches the record's section.
func ScoreCompaniesByKeyword(companies []models.CatalogRecord, requirement, domain string) []models.ScoredRecord {
	keywords := intentKeywords(requirement, 3)
	domainLower := strings.ToLower(domain)

	scored := make([]models.ScoredRecord, 0, len(companies))
	for _, c := range companies {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(c.SearchText, kw) {
				score += 2
			}
		}
		if domainLower != "" && strings.Contains(strings.ToLower(c.Domain), domainLower) {
			score++
		}
		scored = append(scored, models.ScoredRecord{Record: c, PreScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PreScore > scored[j].PreScore
	})
	return scored
}
