package app

import (
	"strings"
	"time"
	"unicode"
)

// Mode selects how fragments are collected from search results.
type Mode string

const (
	// ModeSnippets uses the search-result snippets directly.
	ModeSnippets Mode = "snippets"
	// ModeScrape fetches every result page and extracts the answer text.
	ModeScrape Mode = "scrape"
)

// Defaults applied by DefaultConfig and used by ApplyFileConfig to detect
// values still sitting at their flag defaults.
const (
	DefaultSite         = "quora.com"
	DefaultMaxResults   = 10
	DefaultListenAddr   = ":8080"
	DefaultExtractor    = "selectors"
	DefaultFetchTimeout = 10 * time.Second
)

// Config holds runtime configuration for the application.
type Config struct {
	Mode Mode

	// Search
	Site       string
	SerperURL  string
	SearchFile string
	MaxResults int
	StrictHost bool
	// MinSnippetChars drops results with shorter snippets; zero keeps all.
	MinSnippetChars int

	// Scrape
	FetchTimeout  time.Duration
	UserAgent     string
	SelectorsPath string
	Extractor     string
	RespectRobots bool

	// LLM
	LLMBaseURL   string
	Model        string
	SystemPrompt string

	// Keys used by non-interactive commands; the shell takes keys per request.
	GeminiKey string
	SerperKey string

	// Output (ask)
	OutputPath    string
	OutputPDFPath string

	ListenAddr string
	Verbose    bool
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeSnippets,
		Site:         DefaultSite,
		MaxResults:   DefaultMaxResults,
		FetchTimeout: DefaultFetchTimeout,
		Extractor:    DefaultExtractor,
		ListenAddr:   DefaultListenAddr,
	}
}

// SiteLabel turns the target domain into the display name used in prompts and
// progress text, e.g. "www.quora.com" -> "Quora".
func (c Config) SiteLabel() string {
	site := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Site)), "www.")
	if site == "" {
		site = DefaultSite
	}
	name := site
	if i := strings.IndexByte(site, '.'); i > 0 {
		name = site[:i]
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
