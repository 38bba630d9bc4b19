package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Strategy names which rule produced a Document's text.
type Strategy string

const (
	StrategyNone        Strategy = ""
	StrategyContainer   Strategy = "container"
	StrategyParagraphs  Strategy = "paragraphs"
	StrategyReadability Strategy = "readability"
)

// Document is a simplified representation of extracted page content.
type Document struct {
	Title    string
	Text     string
	Strategy Strategy
}

// Empty reports whether no text was extracted.
func (d Document) Empty() bool { return strings.TrimSpace(d.Text) == "" }

// FromHTML extracts answer text using sel. It returns the text of the first
// container element whose class contains one of the configured substrings,
// empty or not. Without a container it joins every fallback element's text,
// and otherwise returns a Document with empty Text. Only an unparsable
// document is an error.
func FromHTML(input []byte, sel Selectors) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())

	if c := findContainer(doc, sel); c != nil {
		// a matched container is authoritative even when empty
		return Document{Title: title, Text: nodeText(c), Strategy: StrategyContainer}, nil
	}

	var parts []string
	doc.Find(sel.Fallback.Tag).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			if t := nodeText(n); t != "" {
				parts = append(parts, t)
			}
		}
	})
	if len(parts) > 0 {
		return Document{Title: title, Text: strings.Join(parts, "\n"), Strategy: StrategyParagraphs}, nil
	}
	return Document{Title: title}, nil
}

func findContainer(doc *goquery.Document, sel Selectors) *html.Node {
	needles := make([]string, 0, len(sel.Container.ClassContains))
	for _, c := range sel.Container.ClassContains {
		needles = append(needles, strings.ToLower(c))
	}
	match := doc.Find(sel.Container.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		if !ok || class == "" {
			return false
		}
		return containsAny(strings.ToLower(class), needles)
	}).First()
	if match.Length() == 0 {
		return nil
	}
	return match.Nodes[0]
}

// nodeText returns the visible text under n with text nodes separated by
// newlines, each line trimmed and blank lines dropped.
func nodeText(n *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if cur.Type == html.TextNode {
			if t := collapseSpaces(strings.TrimSpace(cur.Data)); t != "" {
				lines = append(lines, t)
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(lines, "\n")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
