package models

import (
	"strings"
	"time"
)

// Stage is a funnel conversation stage. Transitions are monotonic forward
// except Restart, which is valid from any stage.
type Stage int

const (
	StageWelcome Stage = iota
	StageDomainSelect
	StageSubdomainSelect
	StageRoleSelect
	StageDetailsCapture
	StageIdentityCapture
	StageConsultantDeepDive
	StageComplete
)

var stageNames = map[Stage]string{
	StageWelcome:            "welcome",
	StageDomainSelect:       "domain",
	StageSubdomainSelect:    "subdomain",
	StageRoleSelect:         "role",
	StageDetailsCapture:     "requirement",
	StageIdentityCapture:    "identity",
	StageConsultantDeepDive: "consultant",
	StageComplete:           "complete",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ActionType is a user action dispatched into the funnel.
type ActionType string

const (
	ActionStart          ActionType = "start"
	ActionSelectOption   ActionType = "select_option"
	ActionFreeText       ActionType = "free_text"
	ActionSubmitIdentity ActionType = "submit_identity"
	ActionSkipDeepDive   ActionType = "skip_deep_dive"
	ActionRestart        ActionType = "restart"
)

// Action is a tagged user action. Value carries the selected option or free
// text; Name/Email are only set for ActionSubmitIdentity.
type Action struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value,omitempty"`
	Name  string     `json:"name,omitempty"`
	Email string     `json:"email,omitempty"`
}

// EffectType classifies side effects returned by a funnel dispatch. The
// funnel itself performs no I/O for these; the caller dispatches them.
type EffectType string

const (
	EffectSay              EffectType = "say"
	EffectPromptOptions    EffectType = "prompt_options"
	EffectShowIdentityForm EffectType = "show_identity_form"
	EffectValidationError  EffectType = "validation_error"
	EffectRecordLead       EffectType = "record_lead"
	EffectShowResults      EffectType = "show_results"
)

// Effect is one side effect produced by a transition.
type Effect struct {
	Type     EffectType        `json:"type"`
	Text     string            `json:"text,omitempty"`
	Options  []string          `json:"options,omitempty"`
	Event    string            `json:"event,omitempty"`
	Payload  map[string]string `json:"payload,omitempty"`
	Results  *MatchSet         `json:"results,omitempty"`
	Degraded bool              `json:"degraded,omitempty"`
}

// ConversationTurn is one exchange in the consultant deep-dive.
type ConversationTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// FunnelSession is the live conversational state for one visitor. All
// transitions for a session are strictly sequential; the session store
// rejects overlapping dispatches.
type FunnelSession struct {
	ID    string `json:"sessionId"`
	Stage Stage  `json:"stage"`

	Domain      string `json:"domain,omitempty"`
	Subdomain   string `json:"subdomain,omitempty"`
	Role        string `json:"role,omitempty"`
	Requirement string `json:"requirement,omitempty"`
	UserName    string `json:"userName,omitempty"`
	UserEmail   string `json:"userEmail,omitempty"`

	// Consultant deep-dive state
	Turns        []ConversationTurn `json:"turns,omitempty"`
	DeepInsights string             `json:"deepInsights,omitempty"`

	Results *MatchSet `json:"results,omitempty"`
	// FallbackShown is set when an external call failed during a transition
	// and degraded content was queued instead.
	FallbackShown bool `json:"fallbackShown,omitempty"`

	// Generation is bumped on every restart; in-flight remote results
	// stamped with an older generation are discarded on arrival.
	Generation int       `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UserReplies counts the visitor's turns in the deep-dive sub-dialogue.
func (s *FunnelSession) UserReplies() int {
	n := 0
	for _, t := range s.Turns {
		if t.Role == "user" {
			n++
		}
	}
	return n
}

// ValidEmail reports whether an address passes the funnel's syntactic check:
// it must contain an '@' with at least one '.' somewhere after it.
func ValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	rest := email[at+1:]
	dot := strings.Index(rest, ".")
	return dot > 0 && dot < len(rest)-1
}
