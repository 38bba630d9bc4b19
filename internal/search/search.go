package search

import (
	"context"
	"net/url"
	"strings"
)

// Result represents a single search hit from any provider.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"-"` // provider name for observability
}

// Provider is a minimal interface for search providers.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// SiteQuery appends a site restriction term for domain to query.
func SiteQuery(query, domain string) string {
	query = strings.TrimSpace(query)
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return query
	}
	return query + " site:" + domain
}

// OnSite reports whether rawURL contains domain. This is a plain substring
// test on the whole link; see HostOnSite for a host-based check.
func OnSite(rawURL, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rawURL), domain)
}

// HostOnSite is the strict variant of OnSite: the URL host must equal domain
// or be a subdomain of it.
func HostOnSite(rawURL, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}
