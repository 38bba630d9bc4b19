package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_PrefersAnswerContainer(t *testing.T) {
	html := `<!doctype html>
    <html>
      <head><title>What is Go? - Quora</title></head>
      <body>
        <p>Related question teaser</p>
        <div class="q-box qu-pt--medium AnswerBase-sc-1">
          <span>Go is a statically typed language.</span>
          <span>It compiles fast.</span>
          <script>var x = 1;</script>
        </div>
      </body>
    </html>`

	doc, err := FromHTML([]byte(html), DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "What is Go? - Quora" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
	if doc.Strategy != StrategyContainer {
		t.Fatalf("expected container strategy, got %q", doc.Strategy)
	}
	if doc.Text != "Go is a statically typed language.\nIt compiles fast." {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "teaser") || strings.Contains(doc.Text, "var x") {
		t.Fatalf("did not expect text outside the container: %q", doc.Text)
	}
}

func TestFromHTML_ClassMatchIsCaseInsensitive(t *testing.T) {
	html := `<html><body><div class="answeritem_wrapper">Lower case answer</div></body></html>`
	doc, err := FromHTML([]byte(html), DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "Lower case answer" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestFromHTML_FallbackToParagraphs(t *testing.T) {
	html := `<html><body>
        <div class="other">ignored div</div>
        <p> First  paragraph </p>
        <p>   </p>
        <p>Second <b>bold</b> paragraph</p>
      </body></html>`

	doc, err := FromHTML([]byte(html), DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Strategy != StrategyParagraphs {
		t.Fatalf("expected paragraphs strategy, got %q", doc.Strategy)
	}
	if doc.Text != "First paragraph\nSecond\nbold\nparagraph" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestFromHTML_EmptyWhenNothingMatches(t *testing.T) {
	html := `<html><head><title>Loading</title></head><body><div id="root"></div><script>render()</script></body></html>`
	doc, err := FromHTML([]byte(html), DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Empty() {
		t.Fatalf("expected empty document, got %q", doc.Text)
	}
	if doc.Strategy != StrategyNone {
		t.Fatalf("expected no strategy, got %q", doc.Strategy)
	}
}

func TestFromHTML_EmptyContainerDoesNotFallBack(t *testing.T) {
	html := `<html><body><div class="AnswerBase"></div><p>Related question sidebar</p></body></html>`
	doc, err := FromHTML([]byte(html), DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Empty() {
		t.Fatalf("expected empty text from the matched container, got %q", doc.Text)
	}
	if doc.Strategy != StrategyContainer {
		t.Fatalf("expected container strategy, got %q", doc.Strategy)
	}
}

func TestFromHTML_CustomSelectors(t *testing.T) {
	sel := DefaultSelectors()
	sel.Container.Tag = "section"
	sel.Container.ClassContains = []string{"post-body"}
	html := `<html><body><div class="AnswerBase">not this</div><section class="Post-Body main">custom</section></body></html>`
	doc, err := FromHTML([]byte(html), sel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "custom" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestSelectorExtractor_ZeroValueUsesDefaults(t *testing.T) {
	var e SelectorExtractor
	doc, err := e.Extract([]byte(`<div class="AnswerBase">x</div>`), "https://www.quora.com/q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "x" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestNew_UnknownExtractor(t *testing.T) {
	if _, err := New("headless", DefaultSelectors()); err == nil {
		t.Fatalf("expected error for unknown extractor")
	}
	e, err := New("readability", DefaultSelectors())
	if err != nil || e.Name() != "readability" {
		t.Fatalf("expected readability extractor, got %v %v", e, err)
	}
}
