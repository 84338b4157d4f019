package catalog

import "strings"

// Section labels recognized in the consolidated startup sheet. A near-empty
// row whose first cell matches one of these starts a new domain section.
var domainLabels = []string{
	"LEGAL", "MARKETING", "SALES", "HR", "FINANCE",
	"SUPPLY CHAIN", "RESEARCH", "DATA", "SOCIAL MEDIA", "CUSTOMER SUPPORT",
}

// Substrings that identify a column-header row.
var headerIndicators = []string{
	"startup name", "company", "country", "basic problem",
	"core product", "description", "differentiator",
}

// Accepted header spellings per logical company field, in priority order.
var (
	nameColumns        = []string{"Startup name", "Startup Name", "Company", "Name", "Company Name"}
	countryColumns     = []string{"Country", "Location", "Region"}
	problemColumns     = []string{"Basic problem", "Basic Problem", "Problem", "Problem Statement", "What they solve"}
	descriptionColumns = []string{
		"Core product description (<=3 lines)", "Core product description",
		"Description", "Product Description", "What they do",
	}
	productDescColumns    = []string{"Product description", "Product Description", "Full Description"}
	differentiatorColumns = []string{"Differentiator", "Unique Value", "USP", "What makes them special"}
	aiAdvantageColumns    = []string{"Main AI / data advantage", "Main AI/data advantage", "AI Advantage", "Tech Advantage"}
	fundingAmountColumns  = []string{"Latest Funding Amount", "Funding", "Funding Amount"}
	fundingDateColumns    = []string{"Latest Funding Date", "Funding Date"}
	pricingColumns        = []string{"Pricing motion & segment", "Pricing", "Price", "Pricing Model"}
)

// columnValue finds a cell by flexible header matching: exact
// case-insensitive header match first, then a header containing the first
// word of the wanted name. Returns the first non-empty hit.
func columnValue(row, headers []string, wanted []string) string {
	for _, name := range wanted {
		nameLower := strings.ToLower(name)
		firstWord := strings.SplitN(nameLower, " ", 2)[0]
		for idx, header := range headers {
			h := strings.ToLower(strings.TrimSpace(header))
			if h != nameLower && !strings.Contains(h, firstWord) {
				continue
			}
			if idx < len(row) && strings.TrimSpace(row[idx]) != "" {
				return strings.TrimSpace(row[idx])
			}
		}
	}
	return ""
}
