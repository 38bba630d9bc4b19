package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/answersynth/internal/budget"
	"github.com/hyperifyio/answersynth/internal/llm"
)

// Request bundles the question and the ordered fragments to synthesize from.
type Request struct {
	Question  string
	Fragments []Fragment
	Kind      Kind
	// SiteName labels the forum in the prompt, e.g. "Quora".
	SiteName string
}

// Result is the model's composite answer.
type Result struct {
	Model string
	Text  string
	// Dropped counts trailing fragments left out to fit the context window.
	Dropped int
}

// Synthesizer calls the LLM once per request; no retry, no streaming.
type Synthesizer struct {
	Client llm.Client
	Model  string
	// SystemPrompt, when non-empty, is sent as a system message ahead of the prompt.
	SystemPrompt string
	// ReservedOutput is the token budget kept free for the answer; zero means
	// budget.DefaultReservedOutput.
	ReservedOutput int
}

var (
	// ErrNoSubstantiveBody indicates the model produced no usable text.
	ErrNoSubstantiveBody = errors.New("no substantive body")
	// ErrContextExceeded means not even the first fragment fits the model context.
	ErrContextExceeded = errors.New("prompt exceeds model context")
)

// Synthesize sends one prompt built from req and returns the model text.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	if s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return Result{}, errors.New("synthesizer not configured")
	}
	req, dropped := s.fit(req)
	if dropped > 0 && len(req.Fragments) == 0 {
		return Result{}, ErrContextExceeded
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(s.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)})

	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.Model,
		Messages: messages,
		N:        1,
	})
	if err != nil {
		return Result{}, fmt.Errorf("synthesis call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, ErrNoSubstantiveBody
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return Result{}, ErrNoSubstantiveBody
	}
	return Result{Model: s.Model, Text: out, Dropped: dropped}, nil
}

// fit trims trailing fragments until the estimated prompt fits the model's
// context window.
func (s *Synthesizer) fit(req Request) (Request, int) {
	reserve := s.ReservedOutput
	if reserve <= 0 {
		reserve = budget.DefaultReservedOutput
	}
	bare := req
	bare.Fragments = nil
	items := make([]string, len(req.Fragments))
	for i, f := range req.Fragments {
		items[i] = f.String() + "\n\n"
	}
	n := budget.FitCount(s.Model, reserve, s.SystemPrompt+BuildPrompt(bare), items)
	dropped := len(req.Fragments) - n
	req.Fragments = req.Fragments[:n]
	return req, dropped
}

// BuildPrompt renders the single prompt string embedding the question and
// every fragment in order.
func BuildPrompt(req Request) string {
	site := strings.TrimSpace(req.SiteName)
	if site == "" {
		site = "Quora"
	}
	var sb strings.Builder
	if req.Kind == KindScraped {
		fmt.Fprintf(&sb, "Given the following %s answers to the question '%s', ", site, req.Question)
	} else {
		fmt.Fprintf(&sb, "Given the following %s search snippets related to the question '%s', ", site, req.Question)
	}
	sb.WriteString("synthesize a comprehensive and well-structured answer. ")
	sb.WriteString("Ensure the answer is natural, engaging, and incorporates insights from multiple sources. ")
	sb.WriteString("Aim for a professional but accessible tone.")

	sep := "\n\n"
	if req.Kind == KindScraped {
		sb.WriteString("\n\nCollected Answers:\n")
		sep = "\n"
	} else {
		sb.WriteString("\n\nCollected Snippets:\n")
	}
	for i, f := range req.Fragments {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(f.String())
	}
	fmt.Fprintf(&sb, "\n\nGenerated %s Answer:", site)
	return sb.String()
}
