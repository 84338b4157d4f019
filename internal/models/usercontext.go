package models

// UserContext is the profile a visitor builds up while answering the funnel
// questions. Which fields are set depends on the chosen role.
type UserContext struct {
	Role string `json:"role,omitempty"` // business-owner, professional, freelancer, student

	// business-owner
	BusinessType   string `json:"businessType,omitempty"`
	Industry       string `json:"industry,omitempty"`
	TargetAudience string `json:"targetAudience,omitempty"`
	MarketSegment  string `json:"marketSegment,omitempty"`

	// professional
	RoleAndIndustry string `json:"roleAndIndustry,omitempty"`
	SolutionFor     string `json:"solutionFor,omitempty"`
	SalaryContext   string `json:"salaryContext,omitempty"`

	// freelancer
	FreelanceType string `json:"freelanceType,omitempty"`
	Challenge     string `json:"challenge,omitempty"`
}
