package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by ApplyEnvToConfig.
const (
	EnvMode         = "ANSWERSYNTH_MODE"
	EnvSite         = "ANSWERSYNTH_SITE"
	EnvModel        = "ANSWERSYNTH_MODEL"
	EnvLLMBaseURL   = "ANSWERSYNTH_LLM_BASE_URL"
	EnvSerperURL    = "ANSWERSYNTH_SERPER_URL"
	EnvSearchFile   = "ANSWERSYNTH_SEARCH_FILE"
	EnvSelectors    = "ANSWERSYNTH_SELECTORS"
	EnvExtractor    = "ANSWERSYNTH_EXTRACTOR"
	EnvUserAgent    = "ANSWERSYNTH_USER_AGENT"
	EnvFetchTimeout = "ANSWERSYNTH_FETCH_TIMEOUT"
	EnvMaxResults   = "ANSWERSYNTH_MAX_RESULTS"
	EnvSystemPrompt = "ANSWERSYNTH_SYSTEM_PROMPT"
	EnvListenAddr   = "ANSWERSYNTH_ADDR"
	EnvVerbose      = "ANSWERSYNTH_VERBOSE"
	EnvRobots       = "ANSWERSYNTH_RESPECT_ROBOTS"
	EnvMinSnippet   = "ANSWERSYNTH_MIN_SNIPPET_CHARS"

	EnvGeminiKey = "GEMINI_API_KEY"
	EnvSerperKey = "SERPER_API_KEY"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// A field still holding its DefaultConfig value counts as unset, so explicit
// flags take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	def := DefaultConfig()

	if v := env(EnvMode); v != "" && (cfg.Mode == "" || cfg.Mode == def.Mode) {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if v := env(EnvSite); v != "" && (cfg.Site == "" || cfg.Site == def.Site) {
		cfg.Site = v
	}
	if v := env(EnvModel); v != "" && cfg.Model == "" {
		cfg.Model = v
	}
	if v := env(EnvLLMBaseURL); v != "" && cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = v
	}
	if v := env(EnvSerperURL); v != "" && cfg.SerperURL == "" {
		cfg.SerperURL = v
	}
	if v := env(EnvSearchFile); v != "" && cfg.SearchFile == "" {
		cfg.SearchFile = v
	}
	if v := env(EnvSelectors); v != "" && cfg.SelectorsPath == "" {
		cfg.SelectorsPath = v
	}
	if v := env(EnvExtractor); v != "" && (cfg.Extractor == "" || cfg.Extractor == def.Extractor) {
		cfg.Extractor = v
	}
	if v := env(EnvUserAgent); v != "" && cfg.UserAgent == "" {
		cfg.UserAgent = v
	}
	if v := env(EnvSystemPrompt); v != "" && cfg.SystemPrompt == "" {
		cfg.SystemPrompt = v
	}
	if v := env(EnvListenAddr); v != "" && (cfg.ListenAddr == "" || cfg.ListenAddr == def.ListenAddr) {
		cfg.ListenAddr = v
	}
	if v := env(EnvFetchTimeout); v != "" && (cfg.FetchTimeout == 0 || cfg.FetchTimeout == def.FetchTimeout) {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.FetchTimeout = d
		}
	}
	if v := env(EnvMaxResults); v != "" && (cfg.MaxResults == 0 || cfg.MaxResults == def.MaxResults) {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	if v := env(EnvMinSnippet); v != "" && cfg.MinSnippetChars == 0 {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinSnippetChars = n
		}
	}
	if !cfg.Verbose && truthy(env(EnvVerbose)) {
		cfg.Verbose = true
	}
	if !cfg.RespectRobots && truthy(env(EnvRobots)) {
		cfg.RespectRobots = true
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// ApplyKeysFromEnv fills missing API keys from GEMINI_API_KEY and
// SERPER_API_KEY. Only the ask and models commands use it; the shell always
// takes keys from the user.
func ApplyKeysFromEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = env(EnvGeminiKey)
	}
	if cfg.SerperKey == "" {
		cfg.SerperKey = env(EnvSerperKey)
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
