package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port string
	Env  string // "development" or "production"

	// Catalog sources
	CompaniesSheetID string // consolidated startup sheet
	ToolsPath        string // unified tools list (.csv or .xlsx)
	AssistantsPath   string // curated assistant list (.csv or .xlsx)
	DataDir          string // task documents and local dataset overrides
	WatchDataDir     bool
	CatalogTTL       time.Duration
	RefreshInterval  time.Duration // background catalog refresh, 0 disables

	// Ranking model (OpenRouter-compatible endpoint, rotated key pool)
	RankerURL   string
	RankerKeys  []string
	RankerModel string

	// Conversation model (OpenAI-compatible endpoint)
	ChatURL   string
	ChatKey   string
	ChatModel string

	// LLM call budget across both endpoints, requests per second
	LLMRateLimit float64

	RedisURL   string // optional ranker result cache, empty disables
	LeadDBPath string // sqlite lead sink

	FunnelScriptPath string // optional YAML override for the funnel script
	SessionTTL       time.Duration

	AllowedOrigins string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "3001"),
		Env:  getEnv("APP_ENV", "development"),

		CompaniesSheetID: getEnv("COMPANIES_SHEET_ID", "1d6nrGP4yRbx_ddzClAheicsavF2OsmINJmMDIQIL4m0"),
		ToolsPath:        getEnv("TOOLS_PATH", "data/unified tools list  - Sheet1.csv"),
		AssistantsPath:   getEnv("ASSISTANTS_PATH", "data/custom gpt list - Sheet1.csv"),
		DataDir:          getEnv("DATA_DIR", "data"),
		WatchDataDir:     getBoolEnv("WATCH_DATA_DIR", true),
		CatalogTTL:       getDurationEnv("CATALOG_TTL", 15*time.Minute),
		RefreshInterval:  getDurationEnv("CATALOG_REFRESH_INTERVAL", time.Hour),

		RankerURL:   getEnv("RANKER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		RankerKeys:  splitList(getEnv("RANKER_API_KEYS", "")),
		RankerModel: getEnv("RANKER_MODEL", "anthropic/claude-3.5-sonnet"),

		ChatURL:   getEnv("CHAT_URL", "https://api.openai.com/v1/chat/completions"),
		ChatKey:   getEnv("OPENAI_API_KEY", ""),
		ChatModel: getEnv("OPENAI_MODEL_NAME", "gpt-4o-mini"),

		LLMRateLimit: getFloatEnv("LLM_RATE_LIMIT", 5),

		RedisURL:   getEnv("REDIS_URL", ""),
		LeadDBPath: getEnv("LEAD_DB_PATH", "data/leads.db"),

		FunnelScriptPath: getEnv("FUNNEL_SCRIPT_PATH", ""),
		SessionTTL:       getDurationEnv("SESSION_TTL", 2*time.Hour),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
	}
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
