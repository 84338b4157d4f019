package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ikshan/internal/models"
)

// ErrInvalidAction is returned when an action is not legal for the session's
// current stage.
var ErrInvalidAction = errors.New("action not valid for current stage")

// deepDiveMaxReplies caps the consultant sub-dialogue: after this many user
// replies the funnel completes with whatever insight it has.
const deepDiveMaxReplies = 2

// LeadRecorder receives captured leads. Recording is fire-and-forget; the
// funnel never blocks or fails on it.
type LeadRecorder interface {
	Record(event string, payload map[string]string)
}

// Funnel is the multi-stage lead-qualification state machine. Dispatch
// mutates the session and returns effects as data; callers (REST handler,
// websocket handler) render them. The funnel does no transport I/O itself.
type Funnel struct {
	script    *FunnelScript
	responder *Responder
	search    *SearchService
	leads     LeadRecorder
	metrics   *Metrics
}

func NewFunnel(script *FunnelScript, responder *Responder, search *SearchService, leads LeadRecorder, metrics *Metrics) *Funnel {
	return &Funnel{script: script, responder: responder, search: search, leads: leads, metrics: metrics}
}

// Dispatch applies one user action to the session. The caller must hold the
// session's dispatch lock (SessionStore.WithSession).
func (f *Funnel) Dispatch(ctx context.Context, session *models.FunnelSession, action models.Action) ([]models.Effect, error) {
	if f.metrics != nil {
		f.metrics.RecordDispatch(session.Stage.String(), string(action.Type))
	}

	if action.Type == models.ActionRestart {
		return f.restart(session), nil
	}

	switch session.Stage {
	case models.StageWelcome:
		if action.Type != models.ActionStart {
			return nil, ErrInvalidAction
		}
		session.Stage = models.StageDomainSelect
		return []models.Effect{
			{Type: models.EffectSay, Text: f.script.Welcome},
			{Type: models.EffectPromptOptions, Options: f.script.DomainNames()},
		}, nil

	case models.StageDomainSelect:
		return f.selectDomain(ctx, session, action)

	case models.StageSubdomainSelect:
		return f.selectSubdomain(ctx, session, action)

	case models.StageRoleSelect:
		return f.selectRole(session, action)

	case models.StageDetailsCapture:
		return f.captureDetails(session, action)

	case models.StageIdentityCapture:
		return f.captureIdentity(ctx, session, action)

	case models.StageConsultantDeepDive:
		return f.deepDive(ctx, session, action)

	case models.StageComplete:
		return nil, ErrInvalidAction
	}
	return nil, ErrInvalidAction
}

func (f *Funnel) restart(session *models.FunnelSession) []models.Effect {
	log.Printf("🔄 [FUNNEL] session %s restarted", session.ID)
	session.Stage = models.StageDomainSelect
	session.Domain = ""
	session.Subdomain = ""
	session.Role = ""
	session.Requirement = ""
	session.Turns = nil
	session.DeepInsights = ""
	session.Results = nil
	session.FallbackShown = false
	session.Generation++
	return []models.Effect{
		{Type: models.EffectSay, Text: "Let's start over! 🚀\n\n" + f.script.DomainPrompt},
		{Type: models.EffectPromptOptions, Options: f.script.DomainNames()},
	}
}

func (f *Funnel) selectDomain(ctx context.Context, session *models.FunnelSession, action models.Action) ([]models.Effect, error) {
	if action.Type != models.ActionSelectOption && action.Type != models.ActionFreeText {
		return nil, ErrInvalidAction
	}

	domain, ok := f.matchDomain(action.Value)
	if !ok {
		return f.redirect(ctx, session, action.Value, f.script.DomainPrompt, f.script.DomainNames()), nil
	}

	session.Domain = domain.Name
	session.Stage = models.StageSubdomainSelect
	log.Printf("🎯 [FUNNEL] session %s selected domain %q", session.ID, domain.Name)
	return []models.Effect{
		{Type: models.EffectSay, Text: f.script.SubdomainPrompt},
		{Type: models.EffectPromptOptions, Options: domain.Subdomains},
	}, nil
}

func (f *Funnel) selectSubdomain(ctx context.Context, session *models.FunnelSession, action models.Action) ([]models.Effect, error) {
	if action.Type != models.ActionSelectOption && action.Type != models.ActionFreeText {
		return nil, ErrInvalidAction
	}

	domain, _ := f.matchDomain(session.Domain)
	var options []string
	if domain != nil {
		options = domain.Subdomains
	}

	matched, ok := matchOption(options, action.Value)
	if !ok {
		// Free text that matches nothing becomes the subdomain itself when
		// the domain offers an "Other" escape hatch.
		if action.Type == models.ActionFreeText && strings.TrimSpace(action.Value) != "" {
			matched = strings.TrimSpace(action.Value)
		} else {
			return f.redirect(ctx, session, action.Value, f.script.SubdomainPrompt, options), nil
		}
	}

	session.Subdomain = matched
	session.Stage = models.StageRoleSelect
	return []models.Effect{
		{Type: models.EffectSay, Text: f.script.RolePrompt},
		{Type: models.EffectPromptOptions, Options: f.script.RoleNames()},
	}, nil
}

func (f *Funnel) selectRole(session *models.FunnelSession, action models.Action) ([]models.Effect, error) {
	if action.Type != models.ActionSelectOption && action.Type != models.ActionFreeText {
		return nil, ErrInvalidAction
	}

	role, ok := f.matchRole(action.Value)
	if !ok {
		return []models.Effect{
			{Type: models.EffectValidationError, Text: "Please pick one of the options below."},
			{Type: models.EffectPromptOptions, Options: f.script.RoleNames()},
		}, nil
	}

	session.Role = role.ID
	session.Stage = models.StageDetailsCapture
	return []models.Effect{
		{Type: models.EffectSay, Text: f.script.DetailsPrompt},
	}, nil
}

func (f *Funnel) captureDetails(session *models.FunnelSession, action models.Action) ([]models.Effect, error) {
	if action.Type != models.ActionFreeText {
		return nil, ErrInvalidAction
	}
	details := strings.TrimSpace(action.Value)
	if details == "" {
		return []models.Effect{
			{Type: models.EffectValidationError, Text: "Please describe your problem in a couple of lines."},
		}, nil
	}

	session.Requirement = details
	session.Stage = models.StageIdentityCapture
	return []models.Effect{
		{Type: models.EffectSay, Text: fmt.Sprintf("Got it! **%s** - that's interesting! 🎯\n\nNow tell me a bit about yourself:", truncate(details, 80))},
		{Type: models.EffectSay, Text: f.script.IdentityPrompt},
		{Type: models.EffectShowIdentityForm},
	}, nil
}

func (f *Funnel) captureIdentity(ctx context.Context, session *models.FunnelSession, action models.Action) ([]models.Effect, error) {
	if action.Type != models.ActionSubmitIdentity {
		return nil, ErrInvalidAction
	}

	name := strings.TrimSpace(action.Name)
	email := strings.TrimSpace(action.Email)
	if name == "" {
		return []models.Effect{{Type: models.EffectValidationError, Text: "Please enter your name"}}, nil
	}
	if !models.ValidEmail(email) {
		return []models.Effect{{Type: models.EffectValidationError, Text: "Please enter a valid email address"}}, nil
	}

	session.UserName = name
	session.UserEmail = email
	log.Printf("📧 [FUNNEL] session %s captured lead %s", session.ID, email)

	effects := []models.Effect{
		{
			Type:  models.EffectRecordLead,
			Event: "identity_captured",
			Payload: map[string]string{
				"name":        name,
				"email":       email,
				"domain":      session.Domain,
				"subdomain":   session.Subdomain,
				"role":        session.Role,
				"requirement": session.Requirement,
			},
		},
		{Type: models.EffectSay, Text: fmt.Sprintf("Thank you, %s! Before I recommend solutions, let me understand your situation a bit deeper.", name)},
	}
	if f.leads != nil {
		f.leads.Record("identity_captured", effects[0].Payload)
	}
	if f.metrics != nil {
		f.metrics.RecordLead()
	}

	opening := f.responder.ConsultantOpening(ctx, session.Role, session.Domain, session.Subdomain, session.Requirement)
	session.Turns = append(session.Turns, models.ConversationTurn{Role: "assistant", Content: opening})
	session.Stage = models.StageConsultantDeepDive
	effects = append(effects, models.Effect{Type: models.EffectSay, Text: opening})
	return effects, nil
}

func (f *Funnel) deepDive(ctx context.Context, session *models.FunnelSession, action models.Action) ([]models.Effect, error) {
	switch action.Type {
	case models.ActionSkipDeepDive:
		session.DeepInsights = session.Requirement
		return f.complete(ctx, session, nil)

	case models.ActionFreeText:
		message := strings.TrimSpace(action.Value)
		if message == "" {
			return []models.Effect{{Type: models.EffectValidationError, Text: "Please type an answer, or skip the deep dive."}}, nil
		}
		session.Turns = append(session.Turns, models.ConversationTurn{Role: "user", Content: message})

		if session.UserReplies() >= deepDiveMaxReplies {
			session.DeepInsights = f.syntheticInsights(session, message)
			return f.complete(ctx, session, nil)
		}

		reply, err := f.responder.ConsultantTurn(ctx, session.Role, session.Domain, session.Subdomain,
			session.Requirement, renderHistory(session.Turns[:len(session.Turns)-1]), message)
		if err != nil {
			log.Printf("⚠️ [FUNNEL] session %s consultant turn failed: %v", session.ID, err)
			session.DeepInsights = f.syntheticInsights(session, message)
			session.FallbackShown = true
			return f.complete(ctx, session, nil)
		}

		if summary, done := ParseDiagnosis(reply); done {
			session.DeepInsights = summary
			ack := []models.Effect{{Type: models.EffectSay, Text: "Perfect, I have a clear picture now. Let me find the best solutions for you... 🔍"}}
			return f.complete(ctx, session, ack)
		}

		session.Turns = append(session.Turns, models.ConversationTurn{Role: "assistant", Content: reply})
		return []models.Effect{{Type: models.EffectSay, Text: reply}}, nil
	}
	return nil, ErrInvalidAction
}

// complete runs the matching pipeline and transitions to the terminal stage.
// Search failure degrades instead of erroring: the visitor always gets a
// closing message.
func (f *Funnel) complete(ctx context.Context, session *models.FunnelSession, effects []models.Effect) ([]models.Effect, error) {
	session.Stage = models.StageComplete
	if f.metrics != nil {
		f.metrics.RecordCompletion()
	}

	requirement := session.Requirement
	if session.DeepInsights != "" && session.DeepInsights != session.Requirement {
		requirement = session.Requirement + "\n\nDEEP INSIGHTS FROM CONSULTATION:\n" + session.DeepInsights
	}

	generation := session.Generation
	set, err := f.search.SearchCompanies(ctx, session.Domain, session.Subdomain, requirement, models.UserContext{Role: session.Role})
	if session.Generation != generation {
		// Restarted while the search was running; drop the stale result.
		return effects, nil
	}
	if err != nil {
		log.Printf("⚠️ [FUNNEL] session %s result search failed: %v", session.ID, err)
		session.FallbackShown = true
		session.Results = &models.MatchSet{Degraded: true}
		effects = append(effects,
			models.Effect{Type: models.EffectSay, Text: "I couldn't reach our solution directory just now, but your request is saved and our team will follow up with matches by email. 💙"},
			models.Effect{Type: models.EffectShowResults, Results: session.Results, Degraded: true},
		)
		return effects, nil
	}

	session.Results = set
	log.Printf("✅ [FUNNEL] session %s complete: %d matches via %s", session.ID, len(set.TopMatches), set.SearchMethod)
	effects = append(effects,
		models.Effect{Type: models.EffectSay, Text: "Here are the best matches for your needs:"},
		models.Effect{Type: models.EffectShowResults, Results: set, Degraded: set.Degraded},
	)
	return effects, nil
}

// redirect answers off-script input conversationally, then re-prompts the
// current options without changing stage.
func (f *Funnel) redirect(ctx context.Context, session *models.FunnelSession, input, prompt string, options []string) []models.Effect {
	reply, err := f.responder.Chat(ctx, ChatRequest{
		Message: input,
		Persona: PersonaAssistant,
		Context: &ChatContext{IsRedirecting: true, Domain: session.Domain, SubDomain: session.Subdomain},
	})
	text := prompt
	if err == nil && reply != "" {
		text = reply + "\n\n" + prompt
	}
	return []models.Effect{
		{Type: models.EffectSay, Text: text},
		{Type: models.EffectPromptOptions, Options: options},
	}
}

func (f *Funnel) syntheticInsights(session *models.FunnelSession, lastMessage string) string {
	return fmt.Sprintf("User needs %s solution in %s. They are a %s. Additional context: %s",
		session.Subdomain, session.Domain, session.Role, lastMessage)
}

func (f *Funnel) matchDomain(value string) (*ScriptDomain, bool) {
	name, ok := matchOption(f.script.DomainNames(), value)
	if !ok {
		return nil, false
	}
	for i := range f.script.Domains {
		if f.script.Domains[i].Name == name {
			return &f.script.Domains[i], true
		}
	}
	return nil, false
}

func (f *Funnel) matchRole(value string) (*ScriptRole, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	for i := range f.script.Roles {
		if v == strings.ToLower(f.script.Roles[i].ID) {
			return &f.script.Roles[i], true
		}
	}
	name, ok := matchOption(f.script.RoleNames(), value)
	if !ok {
		return nil, false
	}
	for i := range f.script.Roles {
		if f.script.Roles[i].Name == name {
			return &f.script.Roles[i], true
		}
	}
	return nil, false
}

// matchOption fuzzy-matches user input against a list: exact wins, then
// case-insensitive substring in either direction. First match in list order
// wins so results are deterministic.
func matchOption(options []string, value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	for _, opt := range options {
		if strings.ToLower(opt) == v {
			return opt, true
		}
	}
	for _, opt := range options {
		lower := strings.ToLower(opt)
		if strings.Contains(lower, v) || strings.Contains(v, lower) {
			return opt, true
		}
	}
	return "", false
}

func renderHistory(turns []models.ConversationTurn) string {
	var b strings.Builder
	for _, t := range turns {
		role := "User"
		if t.Role == "assistant" {
			role = "Consultant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
