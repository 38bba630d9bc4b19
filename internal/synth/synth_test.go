package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/answersynth/internal/search"
)

type capturingClient struct {
	lastReq openai.ChatCompletionRequest
	calls   int
	content string
	err     error
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.content},
		}},
	}, nil
}

func TestFragment_SnippetFormat(t *testing.T) {
	frags := FromSnippets([]search.Result{
		{URL: "https://www.quora.com/a", Snippet: "first"},
		{URL: "https://www.quora.com/b", Snippet: "second"},
	})
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}
	if got := frags[0].String(); got != "Source: https://www.quora.com/a\nSnippet: first" {
		t.Fatalf("unexpected fragment: %q", got)
	}
	if got := frags[1].String(); got != "Source: https://www.quora.com/b\nSnippet: second" {
		t.Fatalf("unexpected fragment: %q", got)
	}
}

func TestFragment_ScrapedFormat(t *testing.T) {
	f := Fragment{SourceURL: "https://www.quora.com/a", Text: "body", Kind: KindScraped}
	if got := f.String(); got != "Answer from https://www.quora.com/a:\nbody\n---" {
		t.Fatalf("unexpected fragment: %q", got)
	}
}

func TestBuildPrompt_ContainsQuestionAndFragmentsInOrder(t *testing.T) {
	req := Request{
		Question: "How do I learn Go quickly?",
		Kind:     KindSnippet,
		Fragments: []Fragment{
			{SourceURL: "https://www.quora.com/1", Text: "alpha", Kind: KindSnippet},
			{SourceURL: "https://www.quora.com/2", Text: "beta", Kind: KindSnippet},
			{SourceURL: "https://www.quora.com/3", Text: "gamma", Kind: KindSnippet},
		},
	}
	p := BuildPrompt(req)
	if !strings.Contains(p, "'How do I learn Go quickly?'") {
		t.Fatalf("prompt missing question:\n%s", p)
	}
	last := -1
	for _, f := range req.Fragments {
		idx := strings.Index(p, f.String())
		if idx < 0 {
			t.Fatalf("prompt missing fragment %q", f.String())
		}
		if idx <= last {
			t.Fatalf("fragment %q out of order", f.Text)
		}
		last = idx
	}
	if !strings.HasSuffix(p, "Generated Quora Answer:") {
		t.Fatalf("unexpected prompt ending:\n%s", p)
	}
}

func TestBuildPrompt_ScrapedUsesCollectedAnswers(t *testing.T) {
	p := BuildPrompt(Request{
		Question:  "q",
		Kind:      KindScraped,
		SiteName:  "Stack Overflow",
		Fragments: []Fragment{{SourceURL: "u", Text: "t", Kind: KindScraped}},
	})
	if !strings.Contains(p, "Given the following Stack Overflow answers to the question 'q'") {
		t.Fatalf("unexpected lead-in:\n%s", p)
	}
	if !strings.Contains(p, "Collected Answers:\nAnswer from u:\nt\n---") {
		t.Fatalf("unexpected answers block:\n%s", p)
	}
}

func TestSynthesizer_SendsSinglePromptWithModel(t *testing.T) {
	cc := &capturingClient{content: "  # Answer  "}
	s := &Synthesizer{Client: cc, Model: "gemini-2.5-flash"}
	res, err := s.Synthesize(context.Background(), Request{Question: "q", Fragments: []Fragment{{SourceURL: "u", Text: "t"}}})
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if res.Text != "# Answer" || res.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if cc.lastReq.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected model %q", cc.lastReq.Model)
	}
	if len(cc.lastReq.Messages) != 1 || cc.lastReq.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("expected one user message, got %+v", cc.lastReq.Messages)
	}
}

func TestSynthesizer_SystemPrompt(t *testing.T) {
	cc := &capturingClient{content: "ok"}
	s := &Synthesizer{Client: cc, Model: "m", SystemPrompt: "be brief"}
	if _, err := s.Synthesize(context.Background(), Request{Question: "q"}); err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if len(cc.lastReq.Messages) != 2 || cc.lastReq.Messages[0].Content != "be brief" {
		t.Fatalf("expected system message first, got %+v", cc.lastReq.Messages)
	}
}

func TestSynthesizer_NoRetryOnError(t *testing.T) {
	cc := &capturingClient{err: errors.New("quota exceeded")}
	s := &Synthesizer{Client: cc, Model: "m"}
	_, err := s.Synthesize(context.Background(), Request{Question: "q"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if cc.calls != 1 {
		t.Fatalf("expected a single call, got %d", cc.calls)
	}
}

func TestSynthesizer_EmptyBody(t *testing.T) {
	cc := &capturingClient{content: "   "}
	s := &Synthesizer{Client: cc, Model: "m"}
	if _, err := s.Synthesize(context.Background(), Request{Question: "q"}); !errors.Is(err, ErrNoSubstantiveBody) {
		t.Fatalf("expected ErrNoSubstantiveBody, got %v", err)
	}
}

func TestSynthesizer_NotConfigured(t *testing.T) {
	s := &Synthesizer{}
	if _, err := s.Synthesize(context.Background(), Request{Question: "q"}); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestSynthesizer_DropsTrailingFragmentsOverBudget(t *testing.T) {
	cc := &capturingClient{content: "ok"}
	// An unknown model gets a 32k window; three 10k-token fragments leave room for two.
	s := &Synthesizer{Client: cc, Model: "m"}
	big := strings.Repeat("x", 40_000)
	frags := []Fragment{
		{SourceURL: "https://www.quora.com/1", Text: big, Kind: KindScraped},
		{SourceURL: "https://www.quora.com/2", Text: big, Kind: KindScraped},
		{SourceURL: "https://www.quora.com/3", Text: big, Kind: KindScraped},
	}
	res, err := s.Synthesize(context.Background(), Request{Question: "q", Fragments: frags, Kind: KindScraped})
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if res.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", res.Dropped)
	}
	prompt := cc.lastReq.Messages[0].Content
	if !strings.Contains(prompt, "quora.com/2") || strings.Contains(prompt, "quora.com/3") {
		t.Fatalf("expected the last fragment to be dropped")
	}
}

func TestSynthesizer_ContextExceeded(t *testing.T) {
	cc := &capturingClient{content: "ok"}
	s := &Synthesizer{Client: cc, Model: "m", ReservedOutput: 40_000}
	_, err := s.Synthesize(context.Background(), Request{Question: "q", Fragments: []Fragment{{SourceURL: "u", Text: "t"}}})
	if !errors.Is(err, ErrContextExceeded) {
		t.Fatalf("expected ErrContextExceeded, got %v", err)
	}
	if cc.calls != 0 {
		t.Fatalf("model should not be called")
	}
}
