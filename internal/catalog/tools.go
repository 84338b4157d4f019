package catalog

import (
	"encoding/json"
	"strings"

	"ikshan/internal/models"
)

// Display names for store package IDs that do not clean up mechanically.
var appNameOverrides = map[string]string{
	"play::com.ubercab":                     "Uber",
	"play::com.whatsapp":                    "WhatsApp",
	"play::com.instagram.android":           "Instagram",
	"play::com.facebook.katana":             "Facebook",
	"play::com.twitter.android":             "Twitter / X",
	"play::com.linkedin.android":            "LinkedIn",
	"play::com.google.android.youtube":      "YouTube",
	"play::com.spotify.music":               "Spotify",
	"play::com.slack":                       "Slack",
	"play::com.Slack":                       "Slack",
	"play::com.microsoft.teams":             "Microsoft Teams",
	"play::com.google.android.apps.docs":    "Google Docs",
	"play::com.google.android.apps.sheets":  "Google Sheets",
	"play::com.google.android.gm":           "Gmail",
	"play::com.canva.editor":                "Canva",
	"play::com.shopify.mobile":              "Shopify",
	"play::com.notion.id":                   "Notion",
	"play::com.trello":                      "Trello",
	"play::com.asana.app":                   "Asana",
	"play::com.hubspot.android":             "HubSpot",
	"play::com.mailchimp.mailchimp":         "Mailchimp",
	"play::com.stripe.android.dashboard":    "Stripe",
	"play::com.salesforce.chatter":          "Salesforce",
	"play::com.zapier.android":              "Zapier",
	"play::com.calendly.app":                "Calendly",
	"play::com.grammarly.android.keyboard":  "Grammarly",
	"play::com.freshdesk.helpdesk":          "Freshdesk",
	"play::com.zendesk.android":             "Zendesk",
	"play::com.intercom.intercomsdk":        "Intercom",
	"play::com.hootsuite.droid.full":        "Hootsuite",
	"play::com.buffer.android":              "Buffer",
	"play::com.semrush.app":                 "Semrush",
	"play::com.ahrefs.com":                  "Ahrefs",
	"play::com.figma.mirror":                "Figma",
	"play::com.adobe.creativeapps.gather":   "Adobe Creative Cloud",
	"play::com.zoom.videomeetings":          "Zoom",
	"play::com.loom.android":                "Loom",
	"play::com.monday.monday":               "Monday.com",
	"play::com.clickup.app":                 "ClickUp",
	"play::com.todoist":                     "Todoist",
	"play::com.evernote":                    "Evernote",
	"play::com.xero.touch":                  "Xero",
	"play::com.intuit.quickbooks":           "QuickBooks",
	"play::com.freshbooks.andromeda":        "FreshBooks",
	"play::com.wave.personal":               "Wave Accounting",
}

// Package-name segments that carry no meaning for display.
var genericIDParts = map[string]bool{
	"android": true, "app": true, "mobile": true, "id": true, "full": true,
	"lite": true, "free": true, "pro": true, "sdk": true, "touch": true,
}

// DisplayName derives a readable app name from a store package ID like
// "play::com.microsoft.office.word".
func DisplayName(toolID string) string {
	if name, ok := appNameOverrides[toolID]; ok {
		return name
	}

	name := strings.TrimPrefix(toolID, "play::com.")
	var parts []string
	for _, p := range strings.Split(name, ".") {
		if len(p) > 1 && !genericIDParts[strings.ToLower(p)] {
			parts = append(parts, strings.ToUpper(p[:1])+p[1:])
		}
	}
	if len(parts) == 0 {
		return toolID
	}
	return strings.Join(parts, " ")
}

// parseTaskList decodes the top_5_tasks cell. The cell is written with
// single quotes, so it is rewritten to valid JSON first; if that still
// fails, it is split on commas after stripping brackets and quotes.
func parseTaskList(raw string) []string {
	var tasks []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(raw, "'", `"`)), &tasks); err == nil {
		return tasks
	}

	cleaned := strings.NewReplacer("[", "", "]", "", "'", "").Replace(raw)
	for _, t := range strings.Split(cleaned, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// parseTools reads the unified tools list. The first row is the header;
// records without a tool ID or primary domain are dropped.
func parseTools(rows [][]string) []models.CatalogRecord {
	if len(rows) == 0 {
		return nil
	}

	headers := rows[0]
	col := map[string]int{}
	for i, h := range headers {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cell := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []models.CatalogRecord
	for i, row := range rows[1:] {
		toolID := cell(row, "tool_id")
		domain := cell(row, "primary_domain")
		if toolID == "" || domain == "" {
			continue
		}

		tasks := parseTaskList(cell(row, "top_5_tasks"))
		rec := models.CatalogRecord{
			Kind:      models.KindTool,
			ToolID:    toolID,
			Name:      DisplayName(toolID),
			Domain:    domain,
			Subdomain: cell(row, "subdomain"),
			TopTasks:  tasks,
			TasksText: strings.Join(tasks, " | "),
			SourceRow: i + 2,
		}
		rec.SearchText = strings.ToLower(rec.Name + " " + rec.Domain + " " + rec.Subdomain + " " + rec.TasksText)
		records = append(records, rec)
	}
	return records
}
