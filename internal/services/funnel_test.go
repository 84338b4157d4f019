package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"ikshan/internal/catalog"
	"ikshan/internal/models"
)

type stubFetcher struct {
	rows [][]string
}

func (f *stubFetcher) Rows(ctx context.Context, src catalog.Source) ([][]string, error) {
	return f.rows, nil
}

type memoryLeads struct {
	mu     sync.Mutex
	events []string
}

func (m *memoryLeads) Record(event string, payload map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// testFunnel wires a funnel over a stub company sheet and a stubbed ranking
// endpoint. The conversation endpoint has no credentials, so responder calls
// fail fast and exercise the canned fallbacks deterministically.
func testFunnel(t *testing.T, rankerURL string) (*Funnel, *memoryLeads) {
	t.Helper()
	responder := NewResponder(NewLLMClient("http://127.0.0.1:1", "test-model", NewKeyPool(nil), 100))
	return buildFunnel(t, rankerURL, responder)
}

// testFunnelWithConsultant points the responder at its own stub endpoint so
// deep-dive turns get scripted replies instead of the canned fallbacks.
func testFunnelWithConsultant(t *testing.T, rankerURL, chatURL string) (*Funnel, *memoryLeads) {
	t.Helper()
	responder := NewResponder(NewLLMClient(chatURL, "test-model", NewKeyPool([]string{"k"}), 100))
	return buildFunnel(t, rankerURL, responder)
}

func buildFunnel(t *testing.T, rankerURL string, responder *Responder) (*Funnel, *memoryLeads) {
	t.Helper()

	fetcher := &stubFetcher{rows: [][]string{
		{"MARKETING"},
		{"Startup name", "Country", "Problem it is solving", "Description"},
		{"LeadCo", "India", "Lead generation is slow and manual", "AI-driven lead capture and routing"},
		{"FollowUpAI", "USA", "Sales teams forget follow-ups", "Automated follow-up sequences"},
	}}
	loader := catalog.NewLoader(fetcher, catalog.Sources{
		Companies: catalog.Source{Name: "companies", SheetID: "stub"},
	}, time.Minute, quietLogger())

	ranker := NewRanker(NewLLMClient(rankerURL, "test-model", NewKeyPool([]string{"k"}), 100), nil, nil)
	search := NewSearchService(loader, catalog.NewTaskDocStore(t.TempDir(), quietLogger()), ranker, nil)

	leads := &memoryLeads{}
	return NewFunnel(DefaultFunnelScript(), responder, search, leads, nil), leads
}

// walkToDeepDive drives a session from welcome to the consultant stage.
func walkToDeepDive(t *testing.T, funnel *Funnel, session *models.FunnelSession) {
	t.Helper()
	dispatch(t, funnel, session, models.Action{Type: models.ActionStart})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Marketing"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Getting more leads"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Business Owner"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "Traffic is fine but conversions are terrible"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSubmitIdentity, Name: "Priya", Email: "priya@example.com"})
	if session.Stage != models.StageConsultantDeepDive {
		t.Fatalf("stage after identity: %s", session.Stage)
	}
}

func dispatch(t *testing.T, f *Funnel, s *models.FunnelSession, action models.Action) []models.Effect {
	t.Helper()
	effects, err := f.Dispatch(context.Background(), s, action)
	if err != nil {
		t.Fatalf("dispatch %s at stage %s: %v", action.Type, s.Stage, err)
	}
	return effects
}

func newSession() *models.FunnelSession {
	now := time.Now()
	return &models.FunnelSession{ID: "test-session", Stage: models.StageWelcome, CreatedAt: now, UpdatedAt: now}
}

func hasEffect(effects []models.Effect, kind models.EffectType) bool {
	for _, e := range effects {
		if e.Type == kind {
			return true
		}
	}
	return false
}

func TestFunnelFullWalk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`{"topMatches":[{"index":0,"score":9,"matchReason":"Direct fit"}],"alternatives":[]}`)))
	}))
	defer srv.Close()

	funnel, leads := testFunnel(t, srv.URL)
	session := newSession()

	effects := dispatch(t, funnel, session, models.Action{Type: models.ActionStart})
	if session.Stage != models.StageDomainSelect {
		t.Fatalf("stage after start: %s", session.Stage)
	}
	if !hasEffect(effects, models.EffectPromptOptions) {
		t.Fatal("welcome must prompt domain options")
	}

	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Marketing"})
	if session.Domain != "Marketing" || session.Stage != models.StageSubdomainSelect {
		t.Fatalf("domain=%q stage=%s", session.Domain, session.Stage)
	}

	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "getting more leads"})
	if session.Subdomain != "Getting more leads" {
		t.Fatalf("fuzzy subdomain match failed: %q", session.Subdomain)
	}

	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Business Owner"})
	if session.Role != "business-owner" {
		t.Fatalf("role id not stored: %q", session.Role)
	}

	effects = dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "We get plenty of traffic but almost no leads convert"})
	if session.Stage != models.StageIdentityCapture || !hasEffect(effects, models.EffectShowIdentityForm) {
		t.Fatalf("details capture should show the identity form, stage=%s", session.Stage)
	}

	effects = dispatch(t, funnel, session, models.Action{Type: models.ActionSubmitIdentity, Name: "Priya", Email: "priya@example.com"})
	if session.Stage != models.StageConsultantDeepDive {
		t.Fatalf("stage after identity: %s", session.Stage)
	}
	if !hasEffect(effects, models.EffectRecordLead) {
		t.Fatal("identity must queue a record_lead effect")
	}
	leads.mu.Lock()
	if len(leads.events) != 1 || leads.events[0] != "identity_captured" {
		t.Fatalf("lead recorder events: %v", leads.events)
	}
	leads.mu.Unlock()
	// consultant endpoint is down, so the opening is the canned one
	if len(session.Turns) != 1 || session.Turns[0].Role != "assistant" {
		t.Fatalf("expected one canned assistant turn, got %+v", session.Turns)
	}

	// the first reply triggers a consultant call that fails, which completes
	// the funnel with synthetic insights
	effects = dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "We tried email blasts but nobody replies"})
	if session.Stage != models.StageComplete {
		t.Fatalf("stage after deep-dive fallback: %s", session.Stage)
	}
	if !session.FallbackShown {
		t.Error("consultant failure must set the fallback flag")
	}
	if session.DeepInsights == "" {
		t.Error("synthetic insights missing")
	}
	if !hasEffect(effects, models.EffectShowResults) {
		t.Fatal("completion must show results")
	}
	if session.Results == nil || len(session.Results.TopMatches) != 1 {
		t.Fatalf("results: %+v", session.Results)
	}
	if session.Results.TopMatches[0].Record.Name != "LeadCo" {
		t.Errorf("ranked company: %s", session.Results.TopMatches[0].Record.Name)
	}
}

func TestFunnelSkipDeepDive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse(`{"topMatches":[{"index":1,"score":8,"matchReason":"Close fit"}],"alternatives":[]}`)))
	}))
	defer srv.Close()

	funnel, _ := testFunnel(t, srv.URL)
	session := newSession()

	dispatch(t, funnel, session, models.Action{Type: models.ActionStart})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Marketing"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Following up properly"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Freelancer"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "Clients slip away because follow-ups are manual"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSubmitIdentity, Name: "Sam", Email: "sam@example.com"})

	dispatch(t, funnel, session, models.Action{Type: models.ActionSkipDeepDive})
	if session.Stage != models.StageComplete {
		t.Fatalf("skip must complete the funnel, stage=%s", session.Stage)
	}
	if session.DeepInsights != session.Requirement {
		t.Error("skip should carry the raw details as insights")
	}
}

func TestFunnelDeepDiveAutoCompletesAfterTwoReplies(t *testing.T) {
	rankSrv := rankServer(t, `{"topMatches":[{"index":0,"score":9,"matchReason":"Direct fit"}],"alternatives":[]}`)
	defer rankSrv.Close()
	chatSrv := rankServer(t,
		"What have you already tried to fix the conversion problem?",
		"How much revenue do you estimate those lost leads cost you each month?",
	)
	defer chatSrv.Close()

	funnel, _ := testFunnelWithConsultant(t, rankSrv.URL, chatSrv.URL)
	session := newSession()
	walkToDeepDive(t, funnel, session)

	effects := dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "We tried popups and a new landing page"})
	if session.Stage != models.StageConsultantDeepDive {
		t.Fatalf("first reply must keep the consultation going, stage=%s", session.Stage)
	}
	if !hasEffect(effects, models.EffectSay) {
		t.Fatal("consultant turn must answer")
	}
	if len(session.Turns) != 3 || session.Turns[2].Role != "assistant" {
		t.Fatalf("history after first reply: %+v", session.Turns)
	}

	dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "Probably a few lakh rupees a month"})
	if session.Stage != models.StageComplete {
		t.Fatalf("second reply must complete the funnel, stage=%s", session.Stage)
	}
	if session.FallbackShown {
		t.Error("auto-complete is not a failure path")
	}
	if !strings.Contains(session.DeepInsights, "Getting more leads") ||
		!strings.Contains(session.DeepInsights, "Additional context: Probably a few lakh rupees a month") {
		t.Errorf("synthetic insights: %q", session.DeepInsights)
	}
	if session.Results == nil || len(session.Results.TopMatches) != 1 {
		t.Fatalf("results: %+v", session.Results)
	}
}

func TestFunnelDeepDiveDiagnosisMarkerCompletes(t *testing.T) {
	rankSrv := rankServer(t, `{"topMatches":[{"index":0,"score":9,"matchReason":"Direct fit"}],"alternatives":[]}`)
	defer rankSrv.Close()
	chatSrv := rankServer(t,
		"What have you already tried to fix the conversion problem?",
		"DIAGNOSIS_COMPLETE: They lose leads because follow-up is manual and slow. They need automated lead capture with instant routing.",
	)
	defer chatSrv.Close()

	funnel, _ := testFunnelWithConsultant(t, rankSrv.URL, chatSrv.URL)
	session := newSession()
	walkToDeepDive(t, funnel, session)

	effects := dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "We reply to enquiries two days late"})
	if session.Stage != models.StageComplete {
		t.Fatalf("diagnosis marker must complete the funnel, stage=%s", session.Stage)
	}
	if session.FallbackShown {
		t.Error("marker completion is not a failure path")
	}
	if session.DeepInsights != "They lose leads because follow-up is manual and slow. They need automated lead capture with instant routing." {
		t.Errorf("marker summary not extracted: %q", session.DeepInsights)
	}
	if !hasEffect(effects, models.EffectShowResults) {
		t.Fatal("completion must show results")
	}
}

func TestFunnelIdentityValidation(t *testing.T) {
	funnel, leads := testFunnel(t, "http://127.0.0.1:1")
	session := newSession()

	dispatch(t, funnel, session, models.Action{Type: models.ActionStart})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Finance"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Invoice Processing"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Professional"})
	dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "Invoices pile up every month end"})

	cases := []models.Action{
		{Type: models.ActionSubmitIdentity, Name: "", Email: "a@b.co"},
		{Type: models.ActionSubmitIdentity, Name: "Ann", Email: "not-an-email"},
		{Type: models.ActionSubmitIdentity, Name: "Ann", Email: "ann@nodot"},
	}
	for _, action := range cases {
		effects := dispatch(t, funnel, session, action)
		if !hasEffect(effects, models.EffectValidationError) {
			t.Errorf("action %+v should fail validation", action)
		}
		if session.Stage != models.StageIdentityCapture {
			t.Fatalf("invalid identity must not advance, stage=%s", session.Stage)
		}
	}
	leads.mu.Lock()
	if len(leads.events) != 0 {
		t.Errorf("no leads should be recorded, got %v", leads.events)
	}
	leads.mu.Unlock()
}

func TestFunnelOffScriptInputKeepsStage(t *testing.T) {
	funnel, _ := testFunnel(t, "http://127.0.0.1:1")
	session := newSession()

	dispatch(t, funnel, session, models.Action{Type: models.ActionStart})
	effects := dispatch(t, funnel, session, models.Action{Type: models.ActionFreeText, Value: "what even is this thing?"})
	if session.Stage != models.StageDomainSelect {
		t.Fatalf("off-script input must not advance, stage=%s", session.Stage)
	}
	if !hasEffect(effects, models.EffectPromptOptions) {
		t.Fatal("redirect must re-prompt the options")
	}
}

func TestFunnelRestart(t *testing.T) {
	funnel, _ := testFunnel(t, "http://127.0.0.1:1")
	session := newSession()

	dispatch(t, funnel, session, models.Action{Type: models.ActionStart})
	dispatch(t, funnel, session, models.Action{Type: models.ActionSelectOption, Value: "Legal"})
	generation := session.Generation

	effects := dispatch(t, funnel, session, models.Action{Type: models.ActionRestart})
	if session.Stage != models.StageDomainSelect || session.Domain != "" {
		t.Fatalf("restart must reset: stage=%s domain=%q", session.Stage, session.Domain)
	}
	if session.Generation != generation+1 {
		t.Errorf("restart must bump the generation: %d -> %d", generation, session.Generation)
	}
	if !hasEffect(effects, models.EffectPromptOptions) {
		t.Fatal("restart must re-prompt domains")
	}
}

func TestFunnelInvalidAction(t *testing.T) {
	funnel, _ := testFunnel(t, "http://127.0.0.1:1")
	session := newSession()

	if _, err := funnel.Dispatch(context.Background(), session, models.Action{Type: models.ActionSubmitIdentity, Name: "x", Email: "x@y.co"}); err != ErrInvalidAction {
		t.Errorf("expected ErrInvalidAction at welcome, got %v", err)
	}
}

func TestMatchOption(t *testing.T) {
	options := []string{"Contract Analysis", "Document Review", "Other"}
	cases := []struct {
		in    string
		want  string
		found bool
	}{
		{"Contract Analysis", "Contract Analysis", true},
		{"contract analysis", "Contract Analysis", true},
		{"contract", "Contract Analysis", true},
		{"I need help with document review please", "Document Review", true},
		{"", "", false},
		{"quantum computing", "", false},
	}
	for _, tc := range cases {
		got, found := matchOption(options, tc.in)
		if got != tc.want || found != tc.found {
			t.Errorf("matchOption(%q) = %q,%v want %q,%v", tc.in, got, found, tc.want, tc.found)
		}
	}
}
