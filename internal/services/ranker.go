package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ikshan/internal/models"
)

// Result list caps per dataset.
const (
	toolTopCap        = 5
	toolAltCap        = 3
	assistantTopCap   = 5
	companyTopCap     = 3
	companyAltCap     = 4
	rankCacheTTL      = time.Hour
	rankCacheKeyStem  = "rank:"
)

var numberPattern = regexp.MustCompile(`\d+`)

// rankEntry mirrors one entry of the model's ranking payload.
type rankEntry struct {
	Index       int     `json:"index"`
	Score       float64 `json:"score"`
	MatchReason string  `json:"matchReason"`
}

type rankPayload struct {
	TopMatches          []rankEntry `json:"topMatches"`
	Alternatives        []rankEntry `json:"alternatives"`
	RecommendedCategory string      `json:"recommendedCategory"`
}

// Ranker runs the model-assisted ranking stage over a pre-filtered candidate
// list. Every failure mode degrades to a weaker tier instead of erroring:
// transport failures fall back to keyword order, unparseable output is
// salvaged for bare indices, and an empty result list is backfilled from the
// candidates. Callers always get a non-empty MatchSet when candidates exist.
type Ranker struct {
	llm     *LLMClient
	redis   *RedisService // nil disables result caching
	metrics *Metrics      // nil disables instrumentation
}

func NewRanker(llm *LLMClient, redis *RedisService, metrics *Metrics) *Ranker {
	return &Ranker{llm: llm, redis: redis, metrics: metrics}
}

type rankRequest struct {
	dataset       string
	candidates    []models.ScoredRecord
	systemPrompt  string
	userPrompt    string
	temperature   float64
	maxTokens     int
	topCap        int
	altCap        int
	totalSearched int
	cacheKey      string
}

// RankTools matches the user intent against pre-filtered tool candidates.
func (r *Ranker) RankTools(ctx context.Context, candidates []models.ScoredRecord, userIntent, task string, totalSearched int) *models.MatchSet {
	summaries := make([]string, len(candidates))
	for i, c := range candidates {
		tasks := c.Record.TopTasks
		if len(tasks) > 5 {
			tasks = tasks[:5]
		}
		summaries[i] = fmt.Sprintf("[%d] %s (%s) | Domain: %s | Subdomain: %s\n   Tasks: %s",
			i, c.Record.Name, c.Record.ToolID, c.Record.Domain, c.Record.Subdomain, strings.Join(tasks, "; "))
	}

	systemPrompt := fmt.Sprintf(`You are an expert AI tool recommendation engine. Your job is to match a user's specific business need to the most relevant software tools from a curated database.

USER CONTEXT:
%s

MATCHING RULES:
1. Focus primarily on the TASK - this is the most specific signal
2. Use the sub-category to narrow the domain
3. Match against each tool's subdomain AND top tasks for relevance
4. Prioritize tools whose top tasks directly address the user's specific task
5. Consider the user's role to prefer tools suited for that persona

SCORING:
- 9-10: Tool's top tasks directly solve the user's exact task
- 7-8: Tool is highly relevant to the sub-category and partially addresses the task
- 5-6: Tool is in the right domain but tasks only loosely match
- Below 5: Do not include

AVAILABLE TOOLS (%d pre-filtered candidates):

%s

Return EXACTLY this JSON format (no extra text):
{
  "topMatches": [
    {"index": 0, "score": 9, "matchReason": "Brief explanation of why this tool matches"},
    {"index": 5, "score": 8, "matchReason": "Brief explanation"},
    {"index": 12, "score": 7, "matchReason": "Brief explanation"}
  ],
  "alternatives": [
    {"index": 20, "score": 6},
    {"index": 25, "score": 5}
  ],
  "recommendedCategory": "The primary domain these tools fall under"
}

Find the TOP 5 most relevant tools. Always return at least 3 top matches.`, userIntent, len(candidates), strings.Join(summaries, "\n\n"))

	set := r.rank(ctx, rankRequest{
		dataset:       "tools",
		candidates:    candidates,
		systemPrompt:  systemPrompt,
		userPrompt:    fmt.Sprintf("Find the best tools for this specific need: %q", task),
		temperature:   0.1,
		maxTokens:     800,
		topCap:        toolTopCap,
		altCap:        toolAltCap,
		totalSearched: totalSearched,
		cacheKey:      rankCacheKey("tools", userIntent),
	})

	if set.SearchMethod == models.SearchMethodAI && set.Explanation == "" {
		set.Explanation = r.explainTools(ctx, set, userIntent, task)
	}
	return set
}

// RankAssistants matches the user intent against pre-filtered assistant
// candidates.
func (r *Ranker) RankAssistants(ctx context.Context, candidates []models.ScoredRecord, userIntent, task string, totalSearched int) *models.MatchSet {
	summaries := make([]string, len(candidates))
	for i, c := range candidates {
		desc := c.Record.Description
		if len(desc) > 150 {
			desc = desc[:150]
		}
		summaries[i] = fmt.Sprintf("[%d] %s | Category: %s | Rating: %s | Reviews: %s\n   %s\n   Features: %s",
			i, c.Record.Name, c.Record.Category, c.Record.Rating, c.Record.Reviews, desc, c.Record.Features)
	}

	systemPrompt := fmt.Sprintf(`You are a Custom GPT recommendation engine. Match the user's business need to the most relevant Custom GPTs.

USER CONTEXT:
%s

MATCHING RULES:
1. The user's TASK and situation are the strongest signals
2. Match GPTs whose description directly addresses the user's specific need
3. Prefer GPTs with higher ratings (4.0+) and more reviews
4. Consider the category alignment
5. Return TOP 5 most relevant GPTs

AVAILABLE CUSTOM GPTs (%d candidates):

%s

Return EXACTLY this JSON (no extra text):
{
  "topMatches": [
    {"index": 0, "score": 9, "matchReason": "Brief reason this GPT helps"},
    {"index": 3, "score": 8, "matchReason": "Brief reason"},
    {"index": 7, "score": 7, "matchReason": "Brief reason"},
    {"index": 12, "score": 7, "matchReason": "Brief reason"},
    {"index": 15, "score": 6, "matchReason": "Brief reason"}
  ]
}`, userIntent, len(candidates), strings.Join(summaries, "\n\n"))

	return r.rank(ctx, rankRequest{
		dataset:       "assistants",
		candidates:    candidates,
		systemPrompt:  systemPrompt,
		userPrompt:    fmt.Sprintf("Find the best Custom GPTs for: %q", task),
		temperature:   0.1,
		maxTokens:     600,
		topCap:        assistantTopCap,
		totalSearched: totalSearched,
		cacheKey:      rankCacheKey("assistants", userIntent),
	})
}

// RankCompanies matches a requirement against the full startup directory.
// Unlike the other datasets the candidate list is not keyword-capped; the
// directory is small enough to show whole.
func (r *Ranker) RankCompanies(ctx context.Context, companies []models.CatalogRecord, requirement, domain, subdomain, userProfile string) *models.MatchSet {
	candidates := make([]models.ScoredRecord, len(companies))
	summaries := make([]string, len(companies))
	for i, c := range companies {
		candidates[i] = models.ScoredRecord{Record: c}
		country := c.Country
		if country == "" {
			country = "Global"
		}
		problem := c.Problem
		if problem == "" {
			problem = "N/A"
		}
		description := c.Description
		if description == "" {
			description = "N/A"
		}
		summaries[i] = fmt.Sprintf("[%d] %s (%s) [Domain: %s] [Row: %d]\nProblem: %s\nDescription: %s",
			i, c.Name, country, c.Domain, c.SourceRow, problem, description)
	}

	contextLine := domainContext(domain, subdomain)

	systemPrompt := fmt.Sprintf(`You are an AI search assistant that matches user requirements to startups.

PRIORITY SEARCH RULES:
1. Search ONLY using these fields (in order of importance):
   - Basic problem (weight: +4 for direct match)
   - Core product/description (weight: +3 for direct match)
   - Startup name (weight: +1 if obviously indicates category)
   - Country (weight: +1 if user specified preference)
   - Domain (weight: +1 if matches user's domain)

2. SCORING:
   - Score 8-10: Excellent match (problem directly addresses user need)
   - Score 6-7: Good match (description relates to user need)
   - Score 4-5: Partial match (some keyword overlap)
   - Score 0-3: Weak match

3. ALWAYS find TOP 3 matches - there is always a best fit.

%s

User's domain context: %s
User's requirement: %q

Available startups (%d total):
%s

Return EXACTLY this JSON format:
{
  "topMatches": [
    {"index": 0, "score": 9, "matchReason": "Two bullet points explaining why"},
    {"index": 2, "score": 7, "matchReason": "Two bullet points explaining why"},
    {"index": 5, "score": 6, "matchReason": "Two bullet points explaining why"}
  ],
  "alternatives": [{"index": 8, "score": 5}, {"index": 12, "score": 4}]
}`, userProfile, contextLine, requirement, len(companies), strings.Join(summaries, "\n\n"))

	set := r.rank(ctx, rankRequest{
		dataset:       "companies",
		candidates:    candidates,
		systemPrompt:  systemPrompt,
		userPrompt:    fmt.Sprintf("Find relevant companies for: %q", requirement),
		temperature:   0.3,
		maxTokens:     800,
		topCap:        companyTopCap,
		altCap:        companyAltCap,
		totalSearched: len(companies),
		cacheKey:      rankCacheKey("companies", requirement+"|"+contextLine),
	})

	// The keyword fallback for companies scores by requirement words, not
	// the zero pre-scores used above.
	if set.SearchMethod == models.SearchMethodKeywordFallback {
		scored := ScoreCompaniesByKeyword(companies, requirement, domain)
		set.TopMatches = keywordMatches(scored, companyResultCap)
	}

	if set.SearchMethod == models.SearchMethodAI && set.Explanation == "" {
		set.Explanation = r.explainCompanies(ctx, set, requirement, contextLine, userProfile)
	}
	return set
}

func domainContext(domain, subdomain string) string {
	switch {
	case subdomain != "" && domain != "":
		return fmt.Sprintf("%s in %s", subdomain, domain)
	case domain != "":
		return domain
	default:
		return "General business"
	}
}

// rank performs one ranking call with the full fallback ladder.
func (r *Ranker) rank(ctx context.Context, req rankRequest) *models.MatchSet {
	if len(req.candidates) == 0 {
		return &models.MatchSet{
			SearchMethod:  models.SearchMethodKeywordFallback,
			TotalSearched: req.totalSearched,
			Degraded:      true,
		}
	}

	if cached := r.cachedResult(ctx, req.cacheKey); cached != nil {
		return cached
	}

	start := time.Now()
	content, err := r.llm.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: req.systemPrompt},
			{Role: "user", Content: req.userPrompt},
		},
		Temperature: req.temperature,
		MaxTokens:   req.maxTokens,
	})
	if r.metrics != nil {
		r.metrics.RecordLLMCall(time.Since(start).Seconds())
	}
	if err != nil {
		log.Printf("⚠️ [RANKER] %s ranking call failed: %v", req.dataset, err)
		r.recordFallback(req.dataset, "transport")
		return r.keywordTier(req)
	}

	payload, parsed := parseRankPayload(content)
	if !parsed {
		log.Printf("⚠️ [RANKER] %s response not parseable, salvaged indices", req.dataset)
		r.recordFallback(req.dataset, "parse")
	}

	set := &models.MatchSet{
		SearchMethod:        models.SearchMethodAI,
		TotalSearched:       req.totalSearched,
		CandidatesEvaluated: len(req.candidates),
	}
	if !parsed {
		set.SearchMethod = models.SearchMethodParseSalvage
		set.Degraded = true
	}

	for _, m := range payload.TopMatches {
		if len(set.TopMatches) == req.topCap {
			break
		}
		if m.Index < 0 || m.Index >= len(req.candidates) {
			continue
		}
		set.TopMatches = append(set.TopMatches, models.MatchResult{
			Record:     req.candidates[m.Index].Record,
			Index:      m.Index,
			Score:      m.Score,
			Reason:     m.MatchReason,
			Provenance: set.SearchMethod,
		})
	}
	for _, m := range payload.Alternatives {
		if len(set.Alternatives) == req.altCap {
			break
		}
		if m.Index < 0 || m.Index >= len(req.candidates) {
			continue
		}
		set.Alternatives = append(set.Alternatives, models.MatchResult{
			Record:     req.candidates[m.Index].Record,
			Index:      m.Index,
			Score:      m.Score,
			Provenance: set.SearchMethod,
		})
	}

	if len(set.TopMatches) == 0 {
		r.recordFallback(req.dataset, "backfill")
		set.SearchMethod = models.SearchMethodBackfill
		set.Degraded = true
		set.TopMatches = backfillMatches(req.candidates, req.topCap)
	}

	if set.SearchMethod == models.SearchMethodAI {
		r.cacheResult(ctx, req.cacheKey, set)
	}
	return set
}

func (r *Ranker) recordFallback(dataset, tier string) {
	if r.metrics != nil {
		r.metrics.RecordFallback(dataset, tier)
	}
}

// keywordTier is the bottom fallback: candidates in pre-filter order.
func (r *Ranker) keywordTier(req rankRequest) *models.MatchSet {
	set := &models.MatchSet{
		SearchMethod:        models.SearchMethodKeywordFallback,
		TotalSearched:       req.totalSearched,
		CandidatesEvaluated: len(req.candidates),
		Degraded:            true,
	}
	set.TopMatches = keywordMatches(req.candidates, req.topCap)
	return set
}

func keywordMatches(candidates []models.ScoredRecord, limit int) []models.MatchResult {
	var matches []models.MatchResult
	for i, c := range candidates {
		if i == limit {
			break
		}
		matches = append(matches, models.MatchResult{
			Record:     c.Record,
			Index:      i,
			Score:      float64(c.PreScore),
			Reason:     "Keyword-based match",
			Provenance: models.SearchMethodKeywordFallback,
		})
	}
	return matches
}

func backfillMatches(candidates []models.ScoredRecord, limit int) []models.MatchResult {
	var matches []models.MatchResult
	for i, c := range candidates {
		if i == limit {
			break
		}
		score := 4.0
		if c.PreScore > 0 {
			score = 6
		}
		matches = append(matches, models.MatchResult{
			Record:     c.Record,
			Index:      i,
			Score:      score,
			Reason:     "Best available match",
			Provenance: models.SearchMethodBackfill,
		})
	}
	return matches
}

// parseRankPayload extracts the ranking JSON from model output. When no
// valid JSON object is present it salvages bare integers as indices with
// descending synthetic scores; the second return value reports whether real
// JSON was found.
func parseRankPayload(content string) (rankPayload, bool) {
	if raw := extractBalancedJSON(content); raw != "" {
		var payload rankPayload
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return payload, true
		}
	}

	var payload rankPayload
	for i, match := range numberPattern.FindAllString(content, 3) {
		idx, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		payload.TopMatches = append(payload.TopMatches, rankEntry{
			Index:       idx,
			Score:       float64(7 - i),
			MatchReason: "Matches your requirements",
		})
	}
	return payload, false
}

func (r *Ranker) explainTools(ctx context.Context, set *models.MatchSet, userIntent, task string) string {
	var lines []string
	for i, m := range set.TopMatches {
		tasks := m.Record.TopTasks
		if len(tasks) > 3 {
			tasks = tasks[:3]
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s > %s)\n   Score: %v/10 — %s\n   What it does: %s",
			i+1, m.Record.Name, m.Record.Domain, m.Record.Subdomain, m.Score, m.Reason, strings.Join(tasks, "; ")))
	}

	need := task
	if need == "" {
		need = "solve this"
	}

	prompt := fmt.Sprintf(`You are a friendly AI advisor helping someone find the right tools.

User needs: %s

TOP MATCHED TOOLS:
%s

Write a helpful, concise recommendation (150-200 words):
1. Start with "Based on your need to %s..."
2. For each tool, explain in 1-2 sentences how it specifically helps
3. End with a practical next step suggestion

RULES:
- Be positive and practical
- Use simple, everyday language
- Never say "no matches" or "not ideal"
- Keep it under 200 words`, userIntent, strings.Join(lines, "\n\n"), need)

	return r.explain(ctx, prompt, "Explain these tool recommendations.", 400)
}

func (r *Ranker) explainCompanies(ctx context.Context, set *models.MatchSet, requirement, contextLine, userProfile string) string {
	var lines []string
	for i, m := range set.TopMatches {
		country := m.Record.Country
		if country == "" {
			country = "Global"
		}
		problem := m.Record.Problem
		if problem == "" {
			problem = "Business automation"
		}
		description := m.Record.Description
		if description == "" {
			description = "AI solution"
		}
		reason := m.Reason
		if reason == "" {
			reason = "Relevant to your need"
		}
		lines = append(lines, fmt.Sprintf("**%d. %s** (%s) [Score: %v/10]\n- Problem solved: %s\n- What they do: %s\n- Why it matches: %s\n- Row #%d",
			i+1, m.Record.Name, country, m.Score, problem, description, reason, m.Record.SourceRow))
	}

	prompt := fmt.Sprintf(`You are a friendly business advisor helping someone find AI tools.
Write in VERY SIMPLE language - like explaining to a friend.

%s

User needs: %q
Context: %s

TOP MATCHES FOUND:
%s

Write a helpful response:
1. Start with "Based on what you're looking for..." (1 sentence)
2. For each tool, explain in 2-3 simple sentences:
   - What it does
   - How it helps with their specific need
3. End with encouragement

RULES:
- NEVER say "no matches" or "not perfect"
- Be positive and show how each tool helps
- Use everyday language, no jargon
- Keep under 250 words`, userProfile, requirement, contextLine, strings.Join(lines, "\n"))

	return r.explain(ctx, prompt, fmt.Sprintf("Help me understand these tools for: %q", requirement), 600)
}

// explain runs the second, presentation-only model call. Failures return an
// empty string; results stay usable without prose.
func (r *Ranker) explain(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) string {
	content, err := r.llm.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		log.Printf("⚠️ [RANKER] Explanation call failed: %v", err)
		return ""
	}
	return content
}

func rankCacheKey(dataset, intent string) string {
	sum := sha1.Sum([]byte(intent))
	return rankCacheKeyStem + dataset + ":" + hex.EncodeToString(sum[:])
}

func (r *Ranker) cachedResult(ctx context.Context, key string) *models.MatchSet {
	if r.redis == nil || key == "" {
		return nil
	}
	raw, err := r.redis.Get(ctx, key)
	if err != nil {
		return nil
	}
	var set models.MatchSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil
	}
	return &set
}

func (r *Ranker) cacheResult(ctx context.Context, key string, set *models.MatchSet) {
	if r.redis == nil || key == "" {
		return
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, raw, rankCacheTTL); err != nil {
		log.Printf("⚠️ [RANKER] Failed to cache result: %v", err)
	}
}
