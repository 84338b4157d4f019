package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"ikshan/internal/models"
)

// Subdomain names as they appear in the tools list mapped to the document
// filenames, which were authored separately and do not always line up.
var subdomainDocFiles = map[string]string{
	"Content & Social Media":            "Content & Social Media.docx",
	"SEO & Organic Visibility":          "SEO & Organic Visibility.docx",
	"Paid Media & Ads":                  "Paid Media & Ads.docx",
	"B2B Lead Generation":               "B2B Lead Generation.docx",
	"Sales Execution & Enablement":      "Sales Execution & Enablement.docx",
	"Lead Management & Conversion":      "Lead Management & Conversion.docx",
	"Customer Success & Reputation":     "Customer Success & Reputation.docx",
	"Repeate Sales":                     "Same User More Sale_.docx",
	"Business Intelligence & Analytics": "Business Intelligence & Analytics.docx",
	"Market Strategy & Innovation":      "Market Strategy & Innovation.docx",
	"Financial Health & Risk":           "Financial Health & Risk.docx",
	"Org Efficiency & Hiring":           "Org Efficiency & Hiring.docx",
	"Improve yourself":                  "Owner_ Founder Improvements.docx",
	"Sales & Content Automation":        "Marketing  & Sales Automation.docx",
	"Finance Legal & Admin":             "Finance Legal & Admin.docx",
	"Customer Support Ops":              "Customer Support Ops.docx",
	"Recruiting & HR Ops":               "Recruiting & HR Ops.docx",
	"Personal & Team Productivity":      "Personal & Team Productivity.docx",
}

// TaskDocStore parses per-domain task documents on demand and caches them
// for the process lifetime.
type TaskDocStore struct {
	dir    string
	cache  *cache.Cache
	logger *logrus.Logger
}

func NewTaskDocStore(dir string, logger *logrus.Logger) *TaskDocStore {
	return &TaskDocStore{
		dir:    dir,
		cache:  cache.New(cache.NoExpiration, cache.NoExpiration),
		logger: logger,
	}
}

// Document returns the parsed task document for a domain. Unknown domains
// return an error; a known domain whose file is missing does too.
func (s *TaskDocStore) Document(domain string) (*models.TaskDocument, error) {
	if cached, found := s.cache.Get(domain); found {
		return cached.(*models.TaskDocument), nil
	}

	filename, ok := subdomainDocFiles[domain]
	if !ok {
		return nil, fmt.Errorf("no task document for domain %q", domain)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read task document for %q: %w", domain, err)
	}

	lines, err := extractDocxLines(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task document for %q: %w", domain, err)
	}

	doc := &models.TaskDocument{
		Domain: domain,
		Tasks:  parseTaskLines(lines),
	}

	s.logger.WithFields(logrus.Fields{
		"domain": domain,
		"tasks":  len(doc.Tasks),
	}).Info("Task document parsed")

	s.cache.SetDefault(domain, doc)
	return doc, nil
}

// Invalidate drops all cached documents.
func (s *TaskDocStore) Invalidate() {
	s.cache.Flush()
}

// Section markers inside a task block. The documents follow a fixed authored
// template: TASK: title, then four numbered sections, with two list blocks
// ("5 Variants:", "5 Adjacent Terms:") that carry no diagnostic content.
const (
	sectionNone = iota
	sectionProblems
	sectionOpportunities
	sectionStrategies
	sectionBridge
	sectionSkip
)

func parseTaskLines(lines []string) []models.Task {
	var tasks []models.Task
	var current *models.Task
	section := sectionNone

	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "TASK:") {
			if current != nil {
				tasks = append(tasks, *current)
			}
			current = &models.Task{
				Title: strings.TrimSpace(strings.TrimPrefix(text, "TASK:")),
			}
			section = sectionNone
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.Contains(text, "SECTION 1") && strings.Contains(text, "Problems"):
			section = sectionProblems
			continue
		case strings.Contains(text, "SECTION 2") && strings.Contains(text, "Opportunities"):
			section = sectionOpportunities
			continue
		case strings.Contains(text, "SECTION 3") && strings.Contains(text, "Strategies"):
			section = sectionStrategies
			continue
		case strings.Contains(text, "SECTION 4") && strings.Contains(text, "RCA Bridge"):
			section = sectionBridge
			// Entries sometimes continue on the header line itself.
			if _, after, found := strings.Cut(text, "total)"); found {
				if after = strings.TrimSpace(after); after != "" && strings.Contains(after, "→") {
					current.Bridge = append(current.Bridge, parseBridgeEntries(after)...)
				}
			}
			continue
		case strings.HasPrefix(text, "5 Variants:") || strings.HasPrefix(text, "5 Adjacent Terms:"):
			section = sectionSkip
			continue
		}

		switch section {
		case sectionProblems:
			current.Problems = append(current.Problems, text)
		case sectionOpportunities:
			current.Opportunities = append(current.Opportunities, text)
		case sectionStrategies:
			current.Strategies = append(current.Strategies, text)
		case sectionBridge:
			current.Bridge = append(current.Bridge, parseBridgeEntries(text)...)
		}
	}

	if current != nil {
		tasks = append(tasks, *current)
	}
	return tasks
}

// parseBridgeEntries splits a line of `"complaint" → metric → category`
// entries. Multiple entries can be run together on one line; each starts at
// a quote followed by a letter.
func parseBridgeEntries(text string) []models.BridgeEntry {
	var entries []models.BridgeEntry

	for _, part := range splitAtQuotedStarts(text) {
		part = strings.TrimSpace(part)
		if part == "" || !strings.Contains(part, "→") {
			continue
		}

		segments := strings.Split(part, "→")
		for i := range segments {
			segments[i] = strings.TrimSpace(segments[i])
		}
		if len(segments) < 2 {
			continue
		}

		complaint := strings.Trim(segments[0], `"`)
		complaint = strings.TrimSpace(complaint)
		if len(complaint) <= 5 {
			continue
		}

		entry := models.BridgeEntry{Complaint: complaint, Metric: segments[1]}
		if len(segments) > 2 {
			entry.Category = segments[2]
		}
		entries = append(entries, entry)
	}

	return entries
}

func splitAtQuotedStarts(text string) []string {
	var parts []string
	start := 0
	for i := 1; i < len(text)-1; i++ {
		if text[i] != '"' {
			continue
		}
		next := text[i+1]
		if (next >= 'A' && next <= 'Z') || (next >= 'a' && next <= 'z') {
			parts = append(parts, text[start:i])
			start = i
		}
	}
	parts = append(parts, text[start:])
	return parts
}
