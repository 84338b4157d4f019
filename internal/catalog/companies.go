package catalog

import (
	"strings"

	"ikshan/internal/models"
)

// parseCompanies walks the consolidated startup sheet top to bottom,
// carrying the current section label and header mapping. A data row before
// the first header row is skipped because its cells cannot be named yet.
func parseCompanies(rows [][]string) []models.CatalogRecord {
	currentDomain := "General"
	var currentHeaders []string
	var records []models.CatalogRecord

	for i, row := range rows {
		switch classifyRow(row) {
		case rowSectionLabel:
			if label := strings.TrimSpace(row[0]); label != "" {
				currentDomain = label
			}

		case rowColumnHeader:
			currentHeaders = make([]string, len(row))
			for j, h := range row {
				currentHeaders[j] = strings.TrimSpace(h)
			}

		case rowDataRecord:
			if len(currentHeaders) == 0 {
				continue
			}
			rec := companyFromRow(row, currentHeaders)
			if len(rec.Name) <= 1 {
				continue
			}
			rec.Domain = currentDomain
			rec.SourceRow = i + 1
			if rec.HasContent() {
				records = append(records, rec)
			}
		}
	}

	return records
}

func companyFromRow(row, headers []string) models.CatalogRecord {
	description := columnValue(row, headers, descriptionColumns)
	productDesc := columnValue(row, headers, productDescColumns)
	if description == "" {
		description = productDesc
	}

	rec := models.CatalogRecord{
		Kind:           models.KindCompany,
		Name:           columnValue(row, headers, nameColumns),
		Country:        columnValue(row, headers, countryColumns),
		Problem:        columnValue(row, headers, problemColumns),
		Description:    description,
		Differentiator: columnValue(row, headers, differentiatorColumns),
		AIAdvantage:    columnValue(row, headers, aiAdvantageColumns),
		FundingAmount:  columnValue(row, headers, fundingAmountColumns),
		FundingDate:    columnValue(row, headers, fundingDateColumns),
		Pricing:        columnValue(row, headers, pricingColumns),
	}

	parts := []string{rec.Name, rec.Country, rec.Problem, description, productDesc}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	rec.SearchText = strings.ToLower(strings.Join(nonEmpty, " "))

	return rec
}
