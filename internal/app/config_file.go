package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/answersynth/internal/extract"
	sel "github.com/hyperifyio/answersynth/internal/select"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Mode string `yaml:"mode" json:"mode"`
	Site string `yaml:"site" json:"site"`

	Search struct {
		SerperURL  string `yaml:"serperURL" json:"serperURL"`
		File       string `yaml:"file" json:"file"`
		MaxResults int    `yaml:"maxResults" json:"maxResults"`
		StrictHost bool   `yaml:"strictHost" json:"strictHost"`
		MinSnippet int    `yaml:"minSnippetChars" json:"minSnippetChars"`
	} `yaml:"search" json:"search"`

	Scrape struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		UserAgent string        `yaml:"userAgent" json:"userAgent"`
		Selectors string        `yaml:"selectors" json:"selectors"`
		Extractor string        `yaml:"extractor" json:"extractor"`
		Robots    bool          `yaml:"respectRobots" json:"respectRobots"`
	} `yaml:"scrape" json:"scrape"`

	LLM struct {
		BaseURL      string `yaml:"base" json:"base"`
		Model        string `yaml:"model" json:"model"`
		SystemPrompt string `yaml:"systemPrompt" json:"systemPrompt"`
	} `yaml:"llm" json:"llm"`

	Serve struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"serve" json:"serve"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are still unset or at their defaults, so explicit flags and env win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	def := DefaultConfig()

	if (cfg.Mode == "" || cfg.Mode == def.Mode) && fc.Mode != "" {
		cfg.Mode = Mode(strings.ToLower(fc.Mode))
	}
	if (cfg.Site == "" || cfg.Site == def.Site) && fc.Site != "" {
		cfg.Site = fc.Site
	}

	if cfg.SerperURL == "" && fc.Search.SerperURL != "" {
		cfg.SerperURL = fc.Search.SerperURL
	}
	if cfg.SearchFile == "" && fc.Search.File != "" {
		cfg.SearchFile = fc.Search.File
	}
	if (cfg.MaxResults == 0 || cfg.MaxResults == def.MaxResults) && fc.Search.MaxResults > 0 {
		cfg.MaxResults = fc.Search.MaxResults
	}
	if !cfg.StrictHost && fc.Search.StrictHost {
		cfg.StrictHost = true
	}
	if cfg.MinSnippetChars == 0 && fc.Search.MinSnippet > 0 {
		cfg.MinSnippetChars = fc.Search.MinSnippet
	}

	if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == def.FetchTimeout) && fc.Scrape.Timeout > 0 {
		cfg.FetchTimeout = fc.Scrape.Timeout
	}
	if cfg.UserAgent == "" && fc.Scrape.UserAgent != "" {
		cfg.UserAgent = fc.Scrape.UserAgent
	}
	if cfg.SelectorsPath == "" && fc.Scrape.Selectors != "" {
		cfg.SelectorsPath = fc.Scrape.Selectors
	}
	if (cfg.Extractor == "" || cfg.Extractor == def.Extractor) && fc.Scrape.Extractor != "" {
		cfg.Extractor = fc.Scrape.Extractor
	}
	if !cfg.RespectRobots && fc.Scrape.Robots {
		cfg.RespectRobots = true
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.Model == "" && fc.LLM.Model != "" {
		cfg.Model = fc.LLM.Model
	}
	if cfg.SystemPrompt == "" && fc.LLM.SystemPrompt != "" {
		cfg.SystemPrompt = fc.LLM.SystemPrompt
	}

	if (cfg.ListenAddr == "" || cfg.ListenAddr == def.ListenAddr) && fc.Serve.Addr != "" {
		cfg.ListenAddr = fc.Serve.Addr
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	switch cfg.Mode {
	case ModeSnippets, ModeScrape:
	default:
		return fmt.Errorf("config: unknown mode %q (want %q or %q)", cfg.Mode, ModeSnippets, ModeScrape)
	}
	if strings.TrimSpace(cfg.Site) == "" {
		return errors.New("config: site is required")
	}
	if cfg.MaxResults < 0 || cfg.MinSnippetChars < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.MaxResults > sel.DefaultMaxTotal {
		return fmt.Errorf("config: max results %d exceeds the limit of %d", cfg.MaxResults, sel.DefaultMaxTotal)
	}
	if cfg.FetchTimeout < 0 {
		return errors.New("config: negative fetch timeout")
	}
	if _, err := extract.New(cfg.Extractor, extract.DefaultSelectors()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
