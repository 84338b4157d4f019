package services

import (
	"testing"

	"ikshan/internal/models"
)

func tool(name, id, domain, subdomain, tasks string) models.CatalogRecord {
	return models.CatalogRecord{
		Kind:      models.KindTool,
		Name:      name,
		ToolID:    id,
		Domain:    domain,
		Subdomain: subdomain,
		TasksText: tasks,
	}
}

func TestPreFilterToolsScoring(t *testing.T) {
	tools := []models.CatalogRecord{
		tool("LeadGen Pro", "t1", "Marketing", "Lead Generation", "capture leads, score leads"),
		tool("InvoiceBot", "t2", "Finance", "Invoicing", "generate invoices"),
		tool("AdWriter", "t3", "Marketing", "Advertising", "write ad copy"),
	}

	candidates := PreFilterTools(tools, "marketing lead generation")
	if len(candidates) == 0 {
		t.Fatal("expected candidates")
	}
	if candidates[0].Record.ToolID != "t1" {
		t.Errorf("expected t1 first, got %s", candidates[0].Record.ToolID)
	}
	// subdomain hits (+4 each) must outweigh a lone domain hit
	if candidates[0].PreScore <= candidates[len(candidates)-1].PreScore {
		t.Errorf("scores not descending: %d vs %d", candidates[0].PreScore, candidates[len(candidates)-1].PreScore)
	}
	for _, c := range candidates {
		if c.Record.ToolID == "t2" && c.PreScore > 1 {
			t.Errorf("finance tool should not score on marketing intent, got %d", c.PreScore)
		}
	}
}

func TestPreFilterToolsDomainBoost(t *testing.T) {
	tools := []models.CatalogRecord{
		tool("A", "a", "Legal", "Contracts", ""),
		tool("B", "b", "Design", "Logos", ""),
	}

	candidates := PreFilterTools(tools, "legal help with paperwork")
	if len(candidates) == 0 || candidates[0].Record.ToolID != "a" {
		t.Fatalf("expected the domain-named tool first, got %+v", candidates)
	}
	if candidates[0].PreScore < 5 {
		t.Errorf("expected exact-domain boost, score %d", candidates[0].PreScore)
	}
}

func TestPreFilterToolsGapFill(t *testing.T) {
	// No tool matches the intent keywords directly, but the intent mentions
	// "invoice" so finance-domain tools should be pulled in at nominal score.
	tools := []models.CatalogRecord{
		tool("InvoiceBot", "t1", "Finance", "Invoicing", ""),
		tool("PhotoFix", "t2", "Design", "Photo Editing", ""),
	}

	candidates := PreFilterTools(tools, "invoice")
	found := false
	for _, c := range candidates {
		if c.Record.ToolID == "t1" {
			found = true
		}
		if c.Record.ToolID == "t2" {
			t.Error("design tool should not be gap-filled for an invoice intent")
		}
	}
	if !found {
		t.Error("expected gap-fill to add the finance tool")
	}
}

func TestPreFilterAssistantsRatingBoost(t *testing.T) {
	assistants := []models.CatalogRecord{
		{Kind: models.KindAssistant, Name: "Sales Coach", Category: "Sales", Rating: "4.7", SearchText: "sales coach sales closing"},
		{Kind: models.KindAssistant, Name: "Sales Helper", Category: "Sales", Rating: "3.2", SearchText: "sales helper sales outreach"},
	}

	candidates := PreFilterAssistants(assistants, "sales coaching")
	if len(candidates) < 2 {
		t.Fatalf("expected both assistants, got %d", len(candidates))
	}
	if candidates[0].Record.Name != "Sales Coach" {
		t.Errorf("expected the higher-rated assistant first, got %s", candidates[0].Record.Name)
	}
}

func TestPreFilterAssistantsGapFill(t *testing.T) {
	assistants := []models.CatalogRecord{
		{Kind: models.KindAssistant, Name: "Ledger GPT", Category: "Finance", SearchText: "bookkeeping ledger"},
		{Kind: models.KindAssistant, Name: "Recipe GPT", Category: "Cooking", SearchText: "recipes dinner"},
	}

	candidates := PreFilterAssistants(assistants, "finance")
	found := false
	for _, c := range candidates {
		if c.Record.Name == "Ledger GPT" {
			found = true
		}
	}
	if !found {
		t.Error("expected gap-fill to add the finance-category assistant")
	}
}

func TestScoreCompaniesByKeyword(t *testing.T) {
	companies := []models.CatalogRecord{
		{Kind: models.KindCompany, Name: "Acme", Domain: "MARKETING", SearchText: "acme india lead generation automation"},
		{Kind: models.KindCompany, Name: "Beta", Domain: "FINANCE", SearchText: "beta invoicing"},
	}

	scored := ScoreCompaniesByKeyword(companies, "lead generation automation", "marketing")
	if scored[0].Record.Name != "Acme" {
		t.Fatalf("expected Acme first, got %s", scored[0].Record.Name)
	}
	// three keyword hits (+2 each) plus the domain bonus
	if scored[0].PreScore != 7 {
		t.Errorf("expected score 7, got %d", scored[0].PreScore)
	}
	if scored[1].PreScore != 0 {
		t.Errorf("expected score 0 for the unrelated company, got %d", scored[1].PreScore)
	}
}

func TestIntentKeywordsMinLength(t *testing.T) {
	keywords := intentKeywords("get me a big CRM now", 2)
	for _, kw := range keywords {
		if len(kw) <= 2 {
			t.Errorf("keyword %q shorter than the minimum", kw)
		}
	}
}
