package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultSerperURL is the Serper Google search endpoint.
const DefaultSerperURL = "https://google.serper.dev/search"

// Serper implements Provider against the Serper search API.
type Serper struct {
	Endpoint   string // defaults to DefaultSerperURL
	APIKey     string
	HTTPClient *http.Client
}

func (s *Serper) Name() string { return "serper" }

// StatusError is returned when the search API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("serper status: %d", e.StatusCode)
	}
	return fmt.Sprintf("serper status: %d: %s", e.StatusCode, e.Body)
}

func (s *Serper) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("serper: empty query")
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fmt.Errorf("serper: missing api key")
	}
	if limit <= 0 {
		limit = 10
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultSerperURL
	}
	payload, err := json.Marshal(serperRequest{Q: query, Num: limit})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	hc := s.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}
	out := make([]Result, 0, len(sr.Organic))
	for _, r := range sr.Organic {
		if strings.TrimSpace(r.Link) == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.Link),
			Snippet: strings.TrimSpace(r.Snippet),
			Source:  s.Name(),
		})
	}
	return out, nil
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}
