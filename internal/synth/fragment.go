package synth

import (
	"fmt"

	"github.com/hyperifyio/answersynth/internal/search"
)

// Kind tells whether a fragment holds a scraped answer or a search snippet.
type Kind string

const (
	KindSnippet Kind = "snippet"
	KindScraped Kind = "scraped"
)

// Fragment is one unit of collected text attributed to a source URL.
type Fragment struct {
	SourceURL string
	Text      string
	Kind      Kind
}

// String renders the fragment the way it is embedded in the prompt.
func (f Fragment) String() string {
	if f.Kind == KindScraped {
		return fmt.Sprintf("Answer from %s:\n%s\n---", f.SourceURL, f.Text)
	}
	return fmt.Sprintf("Source: %s\nSnippet: %s", f.SourceURL, f.Text)
}

// FromSnippets turns search results into snippet fragments, preserving order.
func FromSnippets(results []search.Result) []Fragment {
	out := make([]Fragment, 0, len(results))
	for _, r := range results {
		out = append(out, Fragment{SourceURL: r.URL, Text: r.Snippet, Kind: KindSnippet})
	}
	return out
}
