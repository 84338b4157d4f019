package models

// RecordKind identifies which dataset a catalog record came from.
type RecordKind string

const (
	KindCompany   RecordKind = "company"
	KindTool      RecordKind = "tool"
	KindAssistant RecordKind = "assistant"
)

// CatalogRecord is a normalized entity from one of the tabular datasets
// (startup directory, unified tools list, curated assistant list). Records
// are built once by the catalog loader and never mutated afterwards.
type CatalogRecord struct {
	Kind RecordKind `json:"kind"`
	Name string     `json:"name"`

	// Company fields
	Country        string `json:"country,omitempty"`
	Problem        string `json:"problem,omitempty"`
	Description    string `json:"description,omitempty"`
	Differentiator string `json:"differentiator,omitempty"`
	AIAdvantage    string `json:"aiAdvantage,omitempty"`
	FundingAmount  string `json:"fundingAmount,omitempty"`
	FundingDate    string `json:"fundingDate,omitempty"`
	Pricing        string `json:"pricing,omitempty"`

	// Tool fields
	ToolID    string   `json:"toolId,omitempty"`
	Subdomain string   `json:"subdomain,omitempty"`
	TopTasks  []string `json:"topTasks,omitempty"`
	TasksText string   `json:"-"`

	// Assistant (custom GPT) fields
	Creator  string `json:"creator,omitempty"`
	Rating   string `json:"rating,omitempty"`
	Reviews  string `json:"reviews,omitempty"`
	Installs string `json:"installs,omitempty"`
	Category string `json:"category,omitempty"`
	Features string `json:"features,omitempty"`
	URL      string `json:"url,omitempty"`

	// Provenance
	Domain    string `json:"domain,omitempty"` // source section label (e.g. "MARKETING")
	SourceRow int    `json:"rowNumber,omitempty"`

	// Lowercase concatenation of the priority fields, precomputed at load
	// time for keyword scoring.
	SearchText string `json:"-"`
}

// HasContent reports whether the record carries at least one descriptive
// field. Records without a name or without any content are dropped at load.
func (r *CatalogRecord) HasContent() bool {
	if r.Name == "" {
		return false
	}
	return r.Problem != "" || r.Description != "" || r.TasksText != "" ||
		r.Features != "" || r.Subdomain != "" || r.Category != ""
}
