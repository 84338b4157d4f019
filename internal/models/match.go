package models

// Search method / provenance markers carried on match results so the UI can
// tell an AI-ranked result from a degraded one.
const (
	SearchMethodAI              = "ai"
	SearchMethodKeywordFallback = "keyword-fallback"
	SearchMethodParseSalvage    = "parse-salvage"
	SearchMethodBackfill        = "backfill"
)

// MatchResult is one ranked entry from the matching pipeline. Index refers
// to the candidate's position in the pre-filtered candidate list at call
// time; out-of-range model references never survive to a MatchResult.
type MatchResult struct {
	Record     CatalogRecord `json:"record"`
	Index      int           `json:"index"`
	Score      float64       `json:"matchScore"`
	Reason     string        `json:"matchReason,omitempty"`
	Provenance string        `json:"provenance"`
}

// MatchSet is the full outcome of one matching-pipeline run.
type MatchSet struct {
	TopMatches          []MatchResult `json:"topMatches"`
	Alternatives        []MatchResult `json:"alternatives,omitempty"`
	Explanation         string        `json:"helpfulResponse,omitempty"`
	SearchMethod        string        `json:"searchMethod"`
	TotalSearched       int           `json:"totalSearched"`
	CandidatesEvaluated int           `json:"candidatesEvaluated"`
	// Degraded is set when any fallback tier was engaged; the funnel keeps
	// advancing but queues a generic recovery message for display.
	Degraded bool `json:"degraded,omitempty"`
}

// ScoredRecord pairs a catalog record with its pre-filter keyword score.
type ScoredRecord struct {
	Record   CatalogRecord
	PreScore int
}
