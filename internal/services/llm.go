package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoCredentials is returned when a completion is requested but no API key
// is configured for the endpoint.
var ErrNoCredentials = errors.New("no API credentials configured")

// CredentialProvider hands out an API key per call.
type CredentialProvider interface {
	Next() (string, error)
}

// KeyPool rotates a fixed set of API keys round-robin so load spreads evenly
// across them.
type KeyPool struct {
	keys []string
	next int
	mu   sync.Mutex
}

func NewKeyPool(keys []string) *KeyPool {
	return &KeyPool{keys: keys}
}

func (p *KeyPool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", ErrNoCredentials
	}
	key := p.keys[p.next]
	p.next = (p.next + 1) % len(p.keys)
	return key, nil
}

// ChatMessage is one message in a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// LLMClient calls an OpenAI-compatible chat completions endpoint. All calls
// share one rate limiter so burst traffic from the funnel cannot exhaust the
// upstream quota.
type LLMClient struct {
	url     string
	model   string
	creds   CredentialProvider
	client  *http.Client
	limiter *rate.Limiter
	// Extra headers some gateways want for attribution
	referer string
	title   string
}

// NewLLMClient creates a client for one endpoint+model pair. rps limits
// requests per second across all callers; a burst of 2 smooths the
// ranker's search+explanation call pairs.
func NewLLMClient(url, model string, creds CredentialProvider, rps float64) *LLMClient {
	return &LLMClient{
		url:     url,
		model:   model,
		creds:   creds,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 2),
	}
}

// SetAttribution sets the referer/title headers sent to gateway endpoints.
func (c *LLMClient) SetAttribution(referer, title string) {
	c.referer = referer
	c.title = title
}

// Model returns the configured model name.
func (c *LLMClient) Model() string {
	return c.model
}

// Complete performs one chat completion and returns the assistant content.
func (c *LLMClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	key, err := c.creds.Next()
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	requestBody := map[string]interface{}{
		"model":       c.model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
	}
	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [LLM] API error: %s", string(body))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return stripMarkdownCodeBlock(apiResponse.Choices[0].Message.Content), nil
}

// stripMarkdownCodeBlock removes ```json ... ``` wrapping that some models
// add around JSON output.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractBalancedJSON returns the first balanced {...} object in s, so JSON
// survives being wrapped in prose. Returns "" when no complete object exists.
func extractBalancedJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
