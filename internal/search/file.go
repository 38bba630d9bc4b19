package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider loads search results from a local JSON file for offline/testing use.
// The file uses the Serper response shape: {"organic": [{"title": "...", "link": "...", "snippet": "..."}]}.
// A bare array of the same objects is accepted too.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

// Search ignores the query text; the file is assumed to already hold the
// results for the question being asked.
func (f *FileProvider) Search(_ context.Context, _ string, limit int) ([]Result, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var raw []Result
	var wrapped struct {
		Organic []Result `json:"organic"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Organic != nil {
		raw = wrapped.Organic
	} else if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		r.Source = f.Name()
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
