package models

// BridgeEntry is one root-cause-bridge line from a domain task document:
// "complaint" → metric → category.
type BridgeEntry struct {
	Complaint string `json:"complaint"`
	Metric    string `json:"metric"`
	Category  string `json:"category"`
}

// Task is one TASK: block from a domain document, with its parsed sections.
type Task struct {
	Title         string        `json:"task"`
	Problems      []string      `json:"problems"`
	Opportunities []string      `json:"opportunities"`
	Strategies    []string      `json:"strategies"`
	Bridge        []BridgeEntry `json:"rcaBridge"`
}

// TaskDocument is the ordered decomposition of a per-domain document into
// tasks. Parsed lazily on first request for a domain and cached for the
// process lifetime.
type TaskDocument struct {
	Domain string `json:"domain"`
	Tasks  []Task `json:"tasks"`
}
