package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/answersynth/internal/extract"
	"github.com/hyperifyio/answersynth/internal/fetch"
	"github.com/hyperifyio/answersynth/internal/llm"
	"github.com/hyperifyio/answersynth/internal/metrics"
	"github.com/hyperifyio/answersynth/internal/robots"
	"github.com/hyperifyio/answersynth/internal/search"
	sel "github.com/hyperifyio/answersynth/internal/select"
	"github.com/hyperifyio/answersynth/internal/synth"
)

// Level classifies a progress message for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is one line of user-visible progress.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Reporter receives progress messages as the run advances.
type Reporter interface {
	Report(Message)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Message)

func (f ReporterFunc) Report(m Message) { f(m) }

// Request carries the per-run user input. Keys are never logged.
type Request struct {
	Question  string
	GeminiKey string
	SerperKey string
}

// Outcome is everything a run produced. Result is nil unless synthesis
// succeeded.
type Outcome struct {
	RunID     string
	Mode      Mode
	Links     []search.Result
	Fragments []synth.Fragment
	Result    *synth.Result
	Messages  []Message
}

var (
	// ErrSearchFailed means the search API call failed; no later stage ran.
	ErrSearchFailed = errors.New("search failed")
	// ErrNoResults means no result linked to the target site.
	ErrNoResults = errors.New("no matching results")
	// ErrNoUsableContent means every link yielded an empty fragment.
	ErrNoUsableContent = errors.New("no usable content")
	// ErrSynthesisFailed wraps any error from the model call.
	ErrSynthesisFailed = errors.New("synthesis failed")
)

// SearchFactory builds the search provider for one run's Serper key.
type SearchFactory func(serperKey string) search.Provider

// LLMFactory builds the model client for one run's Gemini key.
type LLMFactory func(geminiKey string) llm.Client

// PageGetter fetches one page. *fetch.Client satisfies it.
type PageGetter interface {
	Get(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// RobotsAgent is the product token matched against robots.txt groups.
const RobotsAgent = "answersynth"

type App struct {
	cfg       Config
	extractor extract.Extractor
	pages     PageGetter
	newSearch SearchFactory
	newLLM    LLMFactory
	metrics   *metrics.Recorder
	robots    *robots.Manager
}

// Option customizes App construction.
type Option func(*App)

// WithSearchFactory replaces the Serper/file provider selection.
func WithSearchFactory(f SearchFactory) Option { return func(a *App) { a.newSearch = f } }

// WithLLMFactory replaces the OpenAI-compatible Gemini client.
func WithLLMFactory(f LLMFactory) Option { return func(a *App) { a.newLLM = f } }

// WithPageGetter replaces the page fetcher used in scrape mode.
func WithPageGetter(g PageGetter) Option { return func(a *App) { a.pages = g } }

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option { return func(a *App) { a.metrics = m } }

// New validates cfg, loads the selector configuration and wires the default
// search, fetch and LLM clients.
func New(cfg Config, opts ...Option) (*App, error) {
	cfg = withDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	selectors, err := extract.LoadSelectors(cfg.SelectorsPath)
	if err != nil {
		return nil, fmt.Errorf("load selectors: %w", err)
	}
	ex, err := extract.New(cfg.Extractor, selectors)
	if err != nil {
		return nil, err
	}

	shared := newSharedHTTPClient()
	a := &App{
		cfg:       cfg,
		extractor: ex,
		pages: &fetch.Client{
			UserAgent:         cfg.UserAgent,
			PerRequestTimeout: cfg.FetchTimeout,
		},
		newSearch: defaultSearchFactory(cfg, shared),
		newLLM: func(key string) llm.Client {
			return llm.NewProvider(key, cfg.LLMBaseURL, shared)
		},
	}
	if cfg.RespectRobots {
		a.robots = &robots.Manager{
			HTTPClient: &http.Client{Timeout: cfg.FetchTimeout},
			UserAgent:  RobotsAgent,
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	log.Debug().
		Str("mode", string(cfg.Mode)).
		Str("site", cfg.Site).
		Str("model", cfg.Model).
		Str("extractor", ex.Name()).
		Int("selectors_version", selectors.Version).
		Msg("app configured")
	return a, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if strings.TrimSpace(cfg.Site) == "" {
		cfg.Site = def.Site
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.Extractor == "" {
		cfg.Extractor = def.Extractor
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = llm.DefaultModel
	}
	return cfg
}

func defaultSearchFactory(cfg Config, hc *http.Client) SearchFactory {
	if strings.TrimSpace(cfg.SearchFile) != "" {
		return func(string) search.Provider { return &search.FileProvider{Path: cfg.SearchFile} }
	}
	return func(key string) search.Provider {
		return &search.Serper{Endpoint: cfg.SerperURL, APIKey: key, HTTPClient: hc}
	}
}

// Config returns the effective configuration after defaults.
func (a *App) Config() Config { return a.cfg }

// Metrics returns the attached recorder, possibly nil.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// AnswerHeading is the title shown above a generated answer.
func AnswerHeading(siteLabel, model string) string {
	return fmt.Sprintf("Generated %s Answer (%s):", siteLabel, model)
}

// Run executes search, fragment collection and synthesis in order. Every
// stage emits progress to rep before it starts. The returned error wraps one
// of the package sentinels; Outcome is populated as far as the run got.
func (a *App) Run(ctx context.Context, req Request, rep Reporter) (Outcome, error) {
	out := Outcome{RunID: uuid.NewString(), Mode: a.cfg.Mode}
	logger := log.With().Str("run", out.RunID).Str("mode", string(a.cfg.Mode)).Logger()
	emit := func(level Level, format string, args ...any) {
		m := Message{Level: level, Text: fmt.Sprintf(format, args...)}
		out.Messages = append(out.Messages, m)
		if rep != nil {
			rep.Report(m)
		}
	}
	label := a.cfg.SiteLabel()
	started := time.Now()
	a.metrics.RunStarted()
	outcome := metrics.OutcomeSuccess
	defer func() {
		a.metrics.RunFinished(outcome, string(a.cfg.Mode))
		logger.Info().Str("outcome", outcome).Dur("elapsed", time.Since(started)).Msg("run finished")
	}()

	emit(LevelSuccess, "Processing your request...")

	emit(LevelInfo, "Searching %s for relevant answers...", label)
	links, err := a.search(ctx, req, logger)
	if err != nil {
		outcome = metrics.OutcomeSearchFailed
		emit(LevelError, "Error searching %s: %v", label, err)
		return out, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	out.Links = links
	if len(links) == 0 {
		outcome = metrics.OutcomeNoResults
		emit(LevelWarning, "Could not find any relevant %s answers. Please try a different question or keywords.", label)
		return out, ErrNoResults
	}

	kind := synth.KindSnippet
	switch a.cfg.Mode {
	case ModeScrape:
		kind = synth.KindScraped
		emit(LevelInfo, "Found %d %s links. Attempting to scrape answers...", len(links), label)
		out.Fragments = a.scrape(ctx, links, emit, logger)
	default:
		emit(LevelInfo, "Found %d %s links. Using search snippets...", len(links), label)
		out.Fragments = snippetFragments(links, emit)
	}
	a.metrics.ObserveFragments(len(out.Fragments))
	if len(out.Fragments) == 0 {
		outcome = metrics.OutcomeNoUsableContent
		if kind == synth.KindScraped {
			emit(LevelWarning, "Could not extract any usable answers from the found %s links. This might be due to anti-scraping measures on %s's side.", label, label)
		} else {
			emit(LevelWarning, "Could not extract any usable snippets from the found %s links.", label)
		}
		return out, ErrNoUsableContent
	}

	emit(LevelInfo, "Generating new answer with LLM...")
	syn := &synth.Synthesizer{Client: a.newLLM(req.GeminiKey), Model: a.cfg.Model, SystemPrompt: a.cfg.SystemPrompt}
	synthStart := time.Now()
	res, err := syn.Synthesize(ctx, synth.Request{
		Question:  req.Question,
		Fragments: out.Fragments,
		Kind:      kind,
		SiteName:  label,
	})
	a.metrics.ObserveStage("synthesize", synthStart)
	if err != nil {
		outcome = metrics.OutcomeSynthesisFailed
		logger.Warn().Err(err).Msg("synthesis failed")
		emit(LevelError, "Error generating content with LLM: %v", err)
		return out, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	out.Result = &res
	if res.Dropped > 0 {
		logger.Warn().Int("dropped", res.Dropped).Msg("fragments trimmed to fit context")
		emit(LevelWarning, "Left out %d of %d sources to fit the model context.", res.Dropped, len(out.Fragments))
	}
	return out, nil
}

func (a *App) search(ctx context.Context, req Request, logger zerolog.Logger) ([]search.Result, error) {
	start := time.Now()
	defer a.metrics.ObserveStage("search", start)

	provider := a.newSearch(req.SerperKey)
	query := search.SiteQuery(req.Question, a.cfg.Site)
	results, err := provider.Search(ctx, query, a.cfg.MaxResults)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider.Name()).Msg("search error")
		return nil, err
	}
	selected := sel.Select(results, sel.Options{
		Site:            a.cfg.Site,
		StrictHost:      a.cfg.StrictHost,
		MaxTotal:        a.cfg.MaxResults,
		MinSnippetChars: a.cfg.MinSnippetChars,
		// duplicates only cost extra fetches in scrape mode
		Dedupe: a.cfg.Mode == ModeScrape,
	})
	logger.Debug().Str("provider", provider.Name()).Int("results", len(results)).Int("selected", len(selected)).Msg("search done")
	return selected, nil
}

// snippetFragments emits one fragment per link in result order, blank
// snippets included. It returns nil when no link carries any snippet text.
func snippetFragments(links []search.Result, emit func(Level, string, ...any)) []synth.Fragment {
	usable := false
	for _, r := range links {
		if strings.TrimSpace(r.Snippet) == "" {
			emit(LevelWarning, "No snippet returned for: %s.", r.URL)
			continue
		}
		usable = true
	}
	if !usable {
		return nil
	}
	return synth.FromSnippets(links)
}

// scrape fetches and extracts each link in turn. Failures are isolated per
// URL: they are reported and the link is skipped.
func (a *App) scrape(ctx context.Context, links []search.Result, emit func(Level, string, ...any), logger zerolog.Logger) []synth.Fragment {
	start := time.Now()
	defer a.metrics.ObserveStage("scrape", start)

	frags := make([]synth.Fragment, 0, len(links))
	for i, r := range links {
		emit(LevelInfo, "Scraping %d/%d: %s", i+1, len(links), r.URL)
		if a.robots != nil {
			allowed, err := a.robots.Allowed(ctx, r.URL)
			if err != nil {
				logger.Warn().Err(err).Str("url", r.URL).Msg("robots check failed; skipping source")
				emit(LevelWarning, "Skipping %s: robots.txt could not be read (%v).", r.URL, err)
				continue
			}
			if !allowed {
				logger.Debug().Str("url", r.URL).Msg("disallowed by robots.txt")
				emit(LevelWarning, "Skipping %s: disallowed by robots.txt.", r.URL)
				continue
			}
		}
		page, err := a.pages.Get(ctx, r.URL)
		if err != nil {
			a.metrics.FetchFailed()
			logger.Warn().Err(err).Str("url", r.URL).Msg("fetch failed; skipping source")
			emit(LevelError, "Error fetching %s: %v", r.URL, err)
			continue
		}
		doc, err := a.extractor.Extract(page.Body, page.URL)
		if err != nil {
			logger.Warn().Err(err).Str("url", r.URL).Msg("parse failed; skipping source")
			emit(LevelError, "Error parsing %s: %v", r.URL, err)
			continue
		}
		if doc.Empty() {
			a.metrics.EmptyExtraction()
			logger.Debug().Str("url", r.URL).Msg("no extractable content")
			emit(LevelWarning, "Could not extract content from: %s. The page might be heavily JavaScript-rendered or blocking direct access.", r.URL)
			continue
		}
		logger.Debug().Str("url", r.URL).Str("strategy", string(doc.Strategy)).Int("chars", len(doc.Text)).Msg("extracted")
		frags = append(frags, synth.Fragment{SourceURL: r.URL, Text: doc.Text, Kind: synth.KindScraped})
	}
	return frags
}
