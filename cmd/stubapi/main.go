// Command stubapi serves offline stand-ins for the Serper search API, an
// OpenAI-compatible chat endpoint and a handful of forum pages, so the whole
// pipeline runs without real keys.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

// forumPages are served under /forum/<id>. "js" mimics a page whose content
// is rendered client-side and so yields nothing to extract.
var forumPages = map[string]string{
	"1":  `<html><head><title>Forum</title></head><body><div class="q-box AnswerBase"><p>Start with the tour and write small programs every day.</p><p>Read other people's code.</p></div></body></html>`,
	"2":  `<html><body><div class="AnswerItem">Build a CLI tool end to end; it touches files, flags and errors.</div></body></html>`,
	"3":  `<html><body><p>Effective Go is worth reading twice.</p><p></p><p>Use the race detector early.</p></body></html>`,
	"js": `<html><body><div id="root"></div><script>window.render()</script></body></html>`,
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	base := os.Getenv("PUBLIC_URL")
	if strings.TrimSpace(base) == "" {
		base = "http://localhost" + addr
	}

	log.Info().Str("addr", addr).Str("model", model).Str("public_url", base).Msg("stubapi listening")
	srv := &http.Server{Addr: addr, Handler: newMux(base, model), ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("stubapi stopped")
	}
}

// newMux builds the handlers. Search results link back to base so scrape
// mode fetches the local forum pages.
func newMux(base, model string) *http.ServeMux {
	base = strings.TrimRight(base, "/")
	mux := http.NewServeMux()

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if strings.TrimSpace(r.Header.Get("X-API-KEY")) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized.","statusCode":401}`))
			return
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		topic := strings.TrimSpace(strings.Split(req.Q, " site:")[0])
		organic := []map[string]any{}
		for i, id := range []string{"1", "2", "3", "js"} {
			organic = append(organic, map[string]any{
				"title":    fmt.Sprintf("%s (thread %s)", topic, id),
				"link":     base + "/forum/" + id,
				"snippet":  fmt.Sprintf("Snippet %d about %s.", i+1, topic),
				"position": i + 1,
			})
		}
		organic = append(organic, map[string]any{
			"title":   "Unrelated",
			"link":    "https://example.com/elsewhere",
			"snippet": "Off-site result.",
		})
		if req.Num > 0 && len(organic) > req.Num {
			organic = organic[:req.Num]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"searchParameters": map[string]any{"q": req.Q, "num": req.Num},
			"organic":          organic,
		})
	})

	mux.HandleFunc("/forum/", func(w http.ResponseWriter, r *http.Request) {
		page, ok := forumPages[strings.TrimPrefix(r.URL.Path, "/forum/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		prompt := req.Messages[len(req.Messages)-1].Content
		sources := strings.Count(prompt, "Source: ") + strings.Count(prompt, "Answer from ")
		content := fmt.Sprintf("## Summary\n\nThis answer draws on %d collected sources.\n\n- Practice regularly.\n- Read existing code.\n- Ship something small.", sources)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub-1",
			"object": "chat.completion",
			"model":  pickModel(req.Model, model),
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	})
	return mux
}

func pickModel(requested, fallback string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return fallback
}
