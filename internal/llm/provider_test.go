package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestNewProvider_SendsBearerKeyAndModel(t *testing.T) {
	var auth, path string
	var body openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "x",
			"object":  "chat.completion",
			"model":   body.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "hello"}}},
		})
	}))
	defer srv.Close()

	p := NewProvider("gem-key", srv.URL+"/v1beta/openai/", srv.Client())
	resp, err := p.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    DefaultModel,
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer gem-key" {
		t.Fatalf("expected bearer key, got %q", auth)
	}
	if path != "/v1beta/openai/chat/completions" {
		t.Fatalf("unexpected path %q", path)
	}
	if body.Model != DefaultModel {
		t.Fatalf("unexpected model %q", body.Model)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNewProvider_DefaultsToGemini(t *testing.T) {
	p := NewProvider("k", "", nil)
	if p.Inner == nil {
		t.Fatalf("expected inner client")
	}
}
