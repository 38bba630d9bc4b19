package selecter

import (
	"net/url"
	"strings"

	"github.com/hyperifyio/answersynth/internal/search"
)

// DefaultMaxTotal caps how many results are processed per run.
const DefaultMaxTotal = 10

// Options configures selection constraints.
type Options struct {
	// Site keeps only results whose link contains this domain. Empty keeps all.
	Site string
	// StrictHost requires the URL host to be Site or one of its subdomains
	// instead of a substring match on the whole link.
	StrictHost bool
	// MaxTotal caps the output length. Zero means DefaultMaxTotal.
	MaxTotal int
	// MinSnippetChars drops results whose snippet has fewer than this many
	// non-whitespace characters. Zero disables low-signal filtering.
	MinSnippetChars int
	// Dedupe drops results whose canonical URL was already kept.
	Dedupe bool
}

// Select filters results to the target site, optionally drops duplicate
// links and caps the list. Search order is preserved.
func Select(results []search.Result, opt Options) []search.Result {
	if opt.MaxTotal <= 0 {
		opt.MaxTotal = DefaultMaxTotal
	}
	seenURL := map[string]struct{}{}
	out := make([]search.Result, 0, min(len(results), opt.MaxTotal))
	for _, r := range results {
		link := strings.TrimSpace(r.URL)
		if link == "" {
			continue
		}
		if !onSite(link, opt) {
			continue
		}
		if opt.MinSnippetChars > 0 && nonSpaceLen(r.Snippet) < opt.MinSnippetChars {
			continue
		}
		if opt.Dedupe {
			canon := link
			if u, err := url.Parse(link); err == nil && u.Host != "" {
				canon = canonicalizeURL(u)
			}
			if _, ok := seenURL[canon]; ok {
				continue
			}
			seenURL[canon] = struct{}{}
		}
		out = append(out, r)
		if len(out) >= opt.MaxTotal {
			break
		}
	}
	return out
}

func onSite(link string, opt Options) bool {
	if strings.TrimSpace(opt.Site) == "" {
		return true
	}
	if opt.StrictHost {
		return search.HostOnSite(link, opt.Site)
	}
	return search.OnSite(link, opt.Site)
}

func nonSpaceLen(s string) int {
	return len(strings.Join(strings.Fields(s), ""))
}

func canonicalizeURL(u *url.URL) string {
	// drop fragments, tracking params and default ports; lower-case host
	u2 := *u
	u2.Fragment = ""
	u2.Host = strings.ToLower(u2.Host)
	if (u2.Scheme == "http" && strings.HasSuffix(u2.Host, ":80")) || (u2.Scheme == "https" && strings.HasSuffix(u2.Host, ":443")) {
		u2.Host = u2.Hostname()
	}
	q := u2.Query()
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u2.RawQuery = q.Encode()
	return u2.String()
}
