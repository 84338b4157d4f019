package catalog

import (
	"strings"

	"ikshan/internal/models"
)

// parseAssistants reads the curated assistant list. The file carries no
// header row; columns are positional:
// name, description, creator, rating, reviews, installs, category, features, url.
func parseAssistants(rows [][]string) []models.CatalogRecord {
	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []models.CatalogRecord
	for i, row := range rows {
		rec := models.CatalogRecord{
			Kind:        models.KindAssistant,
			Name:        cell(row, 0),
			Description: cell(row, 1),
			Creator:     cell(row, 2),
			Rating:      cell(row, 3),
			Reviews:     cell(row, 4),
			Installs:    cell(row, 5),
			Category:    cell(row, 6),
			Features:    cell(row, 7),
			URL:         cell(row, 8),
			SourceRow:   i + 1,
		}
		// Both name and description are required; the rest is optional.
		if rec.Name == "" || rec.Description == "" {
			continue
		}

		var parts []string
		for _, p := range []string{rec.Name, rec.Description, rec.Category, rec.Features} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		rec.SearchText = strings.ToLower(strings.Join(parts, " "))
		records = append(records, rec)
	}
	return records
}
