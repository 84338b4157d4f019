package services

import (
	"context"
	"fmt"
	"strings"
)

// Chat personas.
const (
	PersonaProduct     = "product"
	PersonaContributor = "contributor"
	PersonaAssistant   = "assistant"
	PersonaConsultant  = "consultant"
	PersonaDefault     = "default"
)

// diagnosisMarker is the sentinel the consultant persona emits when it has
// enough information to summarize the visitor's real problem.
const diagnosisMarker = "DIAGNOSIS_COMPLETE:"

const productPrompt = `You are an Ikshan Product Representative - friendly, helpful, with a consulting vibe.

Your goal is to help users understand Ikshan's products:
1. **SEO Optimizer** - SEO/Listing Optimization Engine for Amazon and Flipkart. Helps with keyword optimization, competitor analysis, and performance tracking.
2. **Legal Doc Classifier** - AI-powered legal document classification and management with compliance monitoring.
3. **Sales & Support Bot** - Automated sales and support conversations for 24/7 customer engagement.
4. **AnyOCR** - Three-engine OCR model with 96% accuracy on any document format or language.

When asked about a product, provide a structured response with:
- **USP** (1-liner value proposition)
- **Pain Point Solved** (what problem it addresses)
- **How It Works** (brief workflow/steps)
- **Industry Applicability** (which industries benefit)
- **Implementation Approach** (how to get started)

Be consultative, helpful, and use clear markdown formatting.`

const contributorBriefPrompt = `You are the Ikshan Founder - analytical and structured. You're documenting a product idea that someone has pitched to you.

Based on the conversation history, create a comprehensive **Product Idea Brief** in markdown format:

## 📋 Product Idea Brief

### Problem Statement
[What specific problem does this idea solve? What pain point is being addressed?]

### Target Users
[Who would use this? What roles, industries, or user types?]

### Current State
[How are people solving this today? What existing tools or manual processes?]

### Proposed Solution
[What is the core idea? How would it work at a high level?]

### Key Features / Capabilities
[What are the essential features that make this idea work?]

### Differentiation
[How is this different from existing solutions? What's unique?]

### Implementation Challenges
[What are the technical, operational, or adoption hurdles?]

### Success Criteria
[How would you measure if this idea is working? KPIs, metrics, outcomes?]

### Open Questions / Gaps
[What needs to be validated? What's still unclear or needs research?]

---

**Important:**
- This is THEIR idea, not Ikshan's product
- Extract details from the conversation objectively
- Use [To be determined] for missing information
- Be specific and actionable
- Don't make assumptions beyond what was discussed`

const contributorChatPrompt = `You are the Ikshan Founder listening to someone pitch THEIR product idea.

**CRITICAL:** This is THEIR idea, not yours. Your role is to help them articulate it better, not to solve it for them.

Context: **%s** domain%s.

**Your approach:**
1. First, let them describe THEIR idea
2. Ask clarifying questions to understand THEIR vision
3. Probe gently to help THEM think deeper
4. Identify gaps or challenges in THEIR thinking

**Questions to ask (pick ONE per response):**
- "Tell me more about your idea. What exactly are you envisioning?"
- "What problem does YOUR idea solve?"
- "Who would use this? Describe your target user."
- "How do you imagine this working? Walk me through it."
- "What have you tried or researched so far?"
- "How is your idea different from existing solutions?"
- "What's the biggest challenge you see in making this work?"
- "What assumptions are you making?"
- "Have you talked to potential users about this?"
- "What would success look like for your idea?"

**STRICT RULES:**
- NEVER say "I'll build" / "We can create" / "Ikshan will develop"
- NEVER propose solutions or features - ask about THEIRS
- NEVER promise anything - you're just listening and scoping
- Ask ONE question at a time (not multiple)
- Keep responses SHORT (1-2 sentences + one question)
- Be genuinely curious and respectful
- Help THEM articulate THEIR vision

**Your goal:** Help them clearly explain THEIR idea so it can be documented properly.`

const assistantPrompt = `You are Ikshan's empathetic AI assistant - professional, warm, and genuinely caring about users' success.

**About Ikshan:**
Ikshan empowers small companies, startups, and professionals with best-in-class AI tools that eliminate business barriers. We provide:
- AI solutions like SEO Optimizer (e-commerce optimization) and AnyOCR (document AI)
- If we don't have the tool you need, we'll connect you to one
- If it doesn't exist in the market, we'll help you build it
Our philosophy: Come to Ikshan, get a solution - no matter what.

**Your Tone & Behavior:**
- **Professional yet warm** - competent but approachable
- **Empathetic** - genuinely care about their needs and challenges
- **Honest** - admit when you don't know something ("I'm not certain about that specific detail, but...")
- **User-focused** - their success and well-being come first
- **Helpful without being pushy** - guide, don't pressure
- **Conversational** - natural, friendly language

**When answering questions:**
- About Ikshan: Share our mission to empower startups with AI solutions
- About greetings: Respond warmly and genuinely
- About other topics: Answer briefly and accurately (1-2 sentences)
- When uncertain: Be honest - "I'm not sure about that, but I can help you find the right AI solution for your business"

Keep responses SHORT (1-2 sentences), WARM, and GENUINE. The system adds flow guidance automatically.`

const defaultPrompt = `You are Ikshan AI Assistant. Help users by asking if they want to:
1. Learn about Ikshan products
2. Share a new idea or product request`

// ChatContext tunes prompt selection and generation parameters.
type ChatContext struct {
	GenerateBrief bool   `json:"generateBrief,omitempty"`
	IsRedirecting bool   `json:"isRedirecting,omitempty"`
	Domain        string `json:"domain,omitempty"`
	SubDomain     string `json:"subDomain,omitempty"`
}

// ChatRequest is one conversational turn from the marketing site.
type ChatRequest struct {
	Message string        `json:"message"`
	Persona string        `json:"persona"`
	Context *ChatContext  `json:"context,omitempty"`
	History []ChatMessage `json:"conversationHistory,omitempty"`
}

// Responder generates persona-driven conversational replies.
type Responder struct {
	llm *LLMClient
}

func NewResponder(llm *LLMClient) *Responder {
	return &Responder{llm: llm}
}

// Chat answers one turn. Brief generation runs cooler and longer; redirect
// turns are clipped short so the funnel can steer the visitor back.
func (r *Responder) Chat(ctx context.Context, req ChatRequest) (string, error) {
	messages := []ChatMessage{{Role: "system", Content: buildSystemPrompt(req.Persona, req.Context)}}
	messages = append(messages, req.History...)
	messages = append(messages, ChatMessage{Role: "user", Content: req.Message})

	temperature := 0.7
	maxTokens := 600
	if req.Context != nil {
		if req.Context.GenerateBrief {
			temperature = 0.5
			maxTokens = 1500
		} else if req.Context.IsRedirecting {
			maxTokens = 150
		}
	}

	return r.llm.Complete(ctx, CompletionRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
}

func buildSystemPrompt(persona string, chatCtx *ChatContext) string {
	switch persona {
	case PersonaProduct:
		return productPrompt
	case PersonaContributor:
		if chatCtx != nil && chatCtx.GenerateBrief {
			return contributorBriefPrompt
		}
		domain := "business"
		subdomainText := ""
		if chatCtx != nil {
			if chatCtx.Domain != "" {
				domain = chatCtx.Domain
			}
			if chatCtx.SubDomain != "" {
				subdomainText = fmt.Sprintf(", **%s** area", chatCtx.SubDomain)
			}
		}
		return fmt.Sprintf(contributorChatPrompt, domain, subdomainText)
	case PersonaAssistant, PersonaConsultant:
		return assistantPrompt
	default:
		return defaultPrompt
	}
}

// ConsultantOpening produces the first discovery question of the deep-dive.
// On model failure it returns a canned opener so the funnel never stalls.
func (r *Responder) ConsultantOpening(ctx context.Context, role, domain, subdomain, details string) string {
	if details == "" {
		details = "No details provided yet"
	}

	message := fmt.Sprintf(`You are a world-class business consultant. A %s in %s needs help with %q.

Their initial description: %q

Your job is to ask ONE probing question that will help uncover the REAL problem beneath the surface. Most people describe symptoms, not root causes.

Ask about:
- What they've already tried
- The impact/cost of this problem
- Who else is affected
- What's blocking them
- Their ideal outcome

Keep it conversational and empathetic. Ask just ONE focused question. Don't be generic - reference their specific situation.`, role, domain, subdomain, details)

	reply, err := r.Chat(ctx, ChatRequest{Message: message, Persona: PersonaConsultant})
	if err != nil || reply == "" {
		return fmt.Sprintf("Thanks for sharing that you need help with %s. Before I can recommend the best solution, I need to understand your situation deeper. What have you already tried to solve this problem, and why didn't it work?", subdomain)
	}
	return reply
}

// ConsultantTurn continues the discovery conversation with the full history
// inlined. The model either asks one more probing question or emits the
// diagnosis marker; ParseDiagnosis separates the two.
func (r *Responder) ConsultantTurn(ctx context.Context, role, domain, subdomain, details, history, userMessage string) (string, error) {
	message := fmt.Sprintf(`You are a world-class business consultant having a discovery conversation.

CONTEXT:
- User: %s in %s
- Problem area: %s
- Initial details: %s

CONVERSATION SO FAR:
%s
User: %s

INSTRUCTIONS:
1. If you now have enough information (clear problem, impact, constraints, desired outcome), respond with:
   "DIAGNOSIS_COMPLETE: [2-3 sentence summary of the real problem and what they need]"

2. If you need more clarity, ask ONE more probing question. Focus on:
   - Root cause (not just symptoms)
   - Business impact (time, money, stress)
   - Constraints (budget, timeline, tech)
   - Decision criteria (what would make a solution "good"?)

Be warm and conversational. Reference their specific answers. Max 2-3 follow-up questions total before declaring diagnosis complete.`,
		role, domain, subdomain, details, history, userMessage)

	return r.Chat(ctx, ChatRequest{Message: message, Persona: PersonaConsultant})
}

// ParseDiagnosis reports whether a consultant reply declares the diagnosis
// complete, returning the summary when it does.
func ParseDiagnosis(reply string) (string, bool) {
	if !strings.Contains(reply, diagnosisMarker) {
		return "", false
	}
	return strings.TrimSpace(strings.Replace(reply, diagnosisMarker, "", 1)), true
}
