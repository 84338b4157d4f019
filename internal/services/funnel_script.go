package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScriptDomain is one selectable problem domain with its subdomain options.
type ScriptDomain struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Subdomains []string `yaml:"subdomains" json:"subdomains"`
}

// ScriptRole is one selectable visitor role.
type ScriptRole struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// FunnelScript holds the conversational copy and option lists the funnel
// walks through. The defaults match the marketing site; an optional YAML
// file overrides them without a redeploy.
type FunnelScript struct {
	Welcome         string         `yaml:"welcome"`
	DomainPrompt    string         `yaml:"domainPrompt"`
	SubdomainPrompt string         `yaml:"subdomainPrompt"`
	RolePrompt      string         `yaml:"rolePrompt"`
	DetailsPrompt   string         `yaml:"detailsPrompt"`
	IdentityPrompt  string         `yaml:"identityPrompt"`
	Domains         []ScriptDomain `yaml:"domains"`
	Roles           []ScriptRole   `yaml:"roles"`
}

// DefaultFunnelScript returns the built-in script.
func DefaultFunnelScript() *FunnelScript {
	return &FunnelScript{
		Welcome:         "Hi! 👋 I'm here to help you find the right AI solution for your business. To get started, please select a domain from the options below:",
		DomainPrompt:    "Please select a domain from the options below:",
		SubdomainPrompt: "Great! Now please choose a specific area from the options below:",
		RolePrompt:      "Got it! 🎯 Now tell me a bit about yourself. What describes you best?",
		DetailsPrompt:   "Excellent choice! 🚀\n\nPlease share more details about your specific problem or what you want to achieve.\n\n(Tell me in 2-3 lines so I can find the best solutions for you)",
		IdentityPrompt:  "Please share your name and email address.",
		Domains: []ScriptDomain{
			{ID: "marketing", Name: "Marketing", Subdomains: []string{
				"Getting more leads",
				"Replying to customers fast",
				"Following up properly",
				"Selling on WhatsApp/Instagram",
				"Reducing sales/agency cost",
				"Understanding customer conversion",
				"Other",
			}},
			{ID: "sales-support", Name: "Sales & Support", Subdomains: []string{
				"AI Sales Agent",
				"Customer Support Automation",
				"Conversational Bots",
				"Lead Qualification",
				"Customer Retention",
				"Call Intelligence",
				"Other",
			}},
			{ID: "social-media", Name: "Social Media", Subdomains: []string{
				"Content Creation",
				"Scheduling & Automation",
				"Analytics & Insights",
				"Community Management",
				"Influencer Outreach",
				"Other",
			}},
			{ID: "legal", Name: "Legal", Subdomains: []string{
				"Contract Analysis",
				"Document Review",
				"Compliance Monitoring",
				"Legal Research",
				"Case Management",
				"Other",
			}},
			{ID: "hr-hiring", Name: "HR & Hiring", Subdomains: []string{
				"Resume Screening",
				"Candidate Matching",
				"Interview Scheduling",
				"Employee Onboarding",
				"Performance Reviews",
				"Other",
			}},
			{ID: "finance", Name: "Finance", Subdomains: []string{
				"Invoice Processing",
				"Expense Management",
				"Financial Reporting",
				"Fraud Detection",
				"Budget Planning",
				"Other",
			}},
			{ID: "supply-chain", Name: "Supply Chain", Subdomains: []string{
				"Inventory Management",
				"Demand Forecasting",
				"Supplier Management",
				"Logistics Optimization",
				"Order Tracking",
				"Other",
			}},
			{ID: "research", Name: "Research", Subdomains: []string{
				"Market Research",
				"Competitive Analysis",
				"Data Collection",
				"Trend Analysis",
				"Report Generation",
				"Other",
			}},
			{ID: "data-analysis", Name: "Data Analysis", Subdomains: []string{
				"Business Intelligence",
				"Predictive Analytics",
				"Data Visualization",
				"Customer Insights",
				"Performance Metrics",
				"Other",
			}},
			{ID: "other", Name: "Other", Subdomains: []string{
				"Process Automation",
				"Document Processing",
				"Workflow Optimization",
				"Custom AI Solution",
				"Integration Support",
				"Other",
			}},
		},
		Roles: []ScriptRole{
			{ID: "business-owner", Name: "Business Owner", Description: "I run my own business"},
			{ID: "professional", Name: "Professional", Description: "I work for a company"},
			{ID: "freelancer", Name: "Freelancer", Description: "I work independently"},
			{ID: "student", Name: "Student", Description: "Learning & exploring"},
		},
	}
}

// LoadFunnelScript returns the default script merged with overrides from
// path. An empty path returns the defaults unchanged.
func LoadFunnelScript(path string) (*FunnelScript, error) {
	script := DefaultFunnelScript()
	if path == "" {
		return script, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read funnel script: %w", err)
	}

	var override FunnelScript
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse funnel script: %w", err)
	}

	if override.Welcome != "" {
		script.Welcome = override.Welcome
	}
	if override.DomainPrompt != "" {
		script.DomainPrompt = override.DomainPrompt
	}
	if override.SubdomainPrompt != "" {
		script.SubdomainPrompt = override.SubdomainPrompt
	}
	if override.RolePrompt != "" {
		script.RolePrompt = override.RolePrompt
	}
	if override.DetailsPrompt != "" {
		script.DetailsPrompt = override.DetailsPrompt
	}
	if override.IdentityPrompt != "" {
		script.IdentityPrompt = override.IdentityPrompt
	}
	if len(override.Domains) > 0 {
		script.Domains = override.Domains
	}
	if len(override.Roles) > 0 {
		script.Roles = override.Roles
	}
	return script, nil
}

// DomainNames lists the display names in script order.
func (s *FunnelScript) DomainNames() []string {
	names := make([]string, len(s.Domains))
	for i, d := range s.Domains {
		names[i] = d.Name
	}
	return names
}

// RoleNames lists the role display names in script order.
func (s *FunnelScript) RoleNames() []string {
	names := make([]string, len(s.Roles))
	for i, r := range s.Roles {
		names[i] = r.Name
	}
	return names
}
