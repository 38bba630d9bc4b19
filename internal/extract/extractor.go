package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap readability tactics without changing callers.
type Extractor interface {
	// Extract converts raw HTML bytes fetched from pageURL into a Document.
	// An empty Document is not an error.
	Extract(input []byte, pageURL string) (Document, error)
	Name() string
}

// SelectorExtractor applies a Selectors configuration via FromHTML.
type SelectorExtractor struct {
	Selectors Selectors
}

func (SelectorExtractor) Name() string { return "selectors" }

func (e SelectorExtractor) Extract(input []byte, _ string) (Document, error) {
	sel := e.Selectors
	if sel.Version == 0 {
		sel = DefaultSelectors()
	}
	return FromHTML(input, sel)
}

// ReadabilityExtractor runs Mozilla's readability algorithm. It copes better
// with sites that do not expose stable class names, at the cost of sometimes
// picking the question text instead of an answer.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Name() string { return "readability" }

func (ReadabilityExtractor) Extract(input []byte, pageURL string) (Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Document{}, fmt.Errorf("parse url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(input), u)
	if err != nil {
		return Document{}, fmt.Errorf("readability: %w", err)
	}
	text := normalizeLines(article.TextContent)
	if text == "" {
		return Document{Title: strings.TrimSpace(article.Title)}, nil
	}
	return Document{Title: strings.TrimSpace(article.Title), Text: text, Strategy: StrategyReadability}, nil
}

// New returns the extractor registered under name ("selectors" or "readability").
func New(name string, sel Selectors) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "selectors":
		return SelectorExtractor{Selectors: sel}, nil
	case "readability":
		return ReadabilityExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if t := collapseSpaces(strings.TrimSpace(line)); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}
