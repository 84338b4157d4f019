package catalog

import (
	"strings"

	"ikshan/internal/models"
)

// MinTaskMatchScore is the acceptance floor for fuzzy task matching. Matches
// at or below it are treated as no match.
const MinTaskMatchScore = 20.0

// FindBestTask fuzzy-matches a free-text task name against a document's
// tasks. An exact case-insensitive title match scores 100 and wins
// immediately; otherwise each task scores by the fraction of the query's
// significant words (longer than 3 characters) contained in its title.
// Earlier tasks win ties. Returns nil when the best score does not clear
// MinTaskMatchScore.
func FindBestTask(doc *models.TaskDocument, query string) (*models.Task, float64) {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return nil, 0
	}

	var queryWords []string
	for _, w := range strings.Fields(queryLower) {
		if len(w) > 3 {
			queryWords = append(queryWords, w)
		}
	}

	var best *models.Task
	bestScore := 0.0

	for i := range doc.Tasks {
		task := &doc.Tasks[i]
		titleLower := strings.ToLower(task.Title)

		if titleLower == queryLower {
			return task, 100
		}

		matched := 0
		for _, w := range queryWords {
			if strings.Contains(titleLower, w) {
				matched++
			}
		}
		total := len(queryWords)
		if total == 0 {
			total = 1
		}
		score := float64(matched) / float64(total) * 100
		if score > bestScore {
			bestScore = score
			best = task
		}
	}

	if best == nil || bestScore <= MinTaskMatchScore {
		return nil, bestScore
	}
	return best, bestScore
}
