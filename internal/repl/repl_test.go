package repl

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/peterh/liner"

	"github.com/hyperifyio/answersynth/internal/app"
	"github.com/hyperifyio/answersynth/internal/synth"
)

// scriptedReader replays canned answers; once exhausted every prompt is EOF.
type scriptedReader struct {
	lines     []string
	passwords []string
	prompts   []string
	history   []string
	closed    bool
}

func (s *scriptedReader) Prompt(p string) (string, error) {
	s.prompts = append(s.prompts, p)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	if l == "^C" {
		return "", liner.ErrPromptAborted
	}
	return l, nil
}

func (s *scriptedReader) PasswordPrompt(p string) (string, error) {
	s.prompts = append(s.prompts, p)
	if len(s.passwords) == 0 {
		return "", io.EOF
	}
	k := s.passwords[0]
	s.passwords = s.passwords[1:]
	return k, nil
}

func (s *scriptedReader) AppendHistory(item string) { s.history = append(s.history, item) }
func (s *scriptedReader) Close() error              { s.closed = true; return nil }

type recordingSubmitter struct {
	reqs []app.Request
}

func (r *recordingSubmitter) Submit(_ context.Context, req app.Request, rep app.Reporter) (app.Outcome, error) {
	r.reqs = append(r.reqs, req)
	rep.Report(app.Message{Level: app.LevelSuccess, Text: "Processing your request..."})
	if req.Question == "" {
		return app.Outcome{}, nil
	}
	return app.Outcome{Result: &synth.Result{Model: "gemini-2.5-flash", Text: "**Answer** to " + req.Question}}, nil
}

func newTestREPL(in *scriptedReader, sub *recordingSubmitter, out *bytes.Buffer) *REPL {
	return &REPL{
		Shell:     sub,
		In:        in,
		Out:       out,
		SiteLabel: "Quora",
		Render:    func(s string) (string, error) { return "[md]" + s, nil },
	}
}

func TestLoop_PromptsKeysThenAnswers(t *testing.T) {
	in := &scriptedReader{passwords: []string{" g-key ", "s-key"}, lines: []string{"Why Go?", ":quit", "never reached"}}
	sub := &recordingSubmitter{}
	var out bytes.Buffer
	r := newTestREPL(in, sub, &out)

	if err := r.Loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if len(sub.reqs) != 1 {
		t.Fatalf("expected one submission, got %d", len(sub.reqs))
	}
	if got := sub.reqs[0]; got.GeminiKey != "g-key" || got.SerperKey != "s-key" || got.Question != "Why Go?" {
		t.Fatalf("unexpected request: %+v", got)
	}
	text := out.String()
	if !strings.Contains(text, "Generated Quora Answer (gemini-2.5-flash):") || !strings.Contains(text, "[md]**Answer** to Why Go?") {
		t.Fatalf("answer not printed:\n%s", text)
	}
	if !strings.Contains(text, "✓ Processing your request...") {
		t.Fatalf("progress not printed:\n%s", text)
	}
	if !in.closed {
		t.Fatalf("reader not closed")
	}
	if len(in.history) != 1 || in.history[0] != "Why Go?" {
		t.Fatalf("history = %v", in.history)
	}
}

func TestLoop_SkipsKeyPromptsWhenProvided(t *testing.T) {
	in := &scriptedReader{lines: []string{"q1"}}
	sub := &recordingSubmitter{}
	var out bytes.Buffer
	r := newTestREPL(in, sub, &out)
	r.GeminiKey, r.SerperKey = "g", "s"

	if err := r.Loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	for _, p := range in.prompts {
		if strings.Contains(p, "API Key") {
			t.Fatalf("unexpected key prompt %q", p)
		}
	}
	if len(sub.reqs) != 1 {
		t.Fatalf("expected one submission before EOF, got %d", len(sub.reqs))
	}
}

func TestLoop_CtrlCContinuesAndKeysCommand(t *testing.T) {
	in := &scriptedReader{
		passwords: []string{"new-g", "new-s"},
		lines:     []string{"^C", ":keys", "q"},
	}
	sub := &recordingSubmitter{}
	var out bytes.Buffer
	r := newTestREPL(in, sub, &out)
	r.GeminiKey, r.SerperKey = "old-g", "old-s"

	if err := r.Loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if len(sub.reqs) != 1 || sub.reqs[0].GeminiKey != "new-g" || sub.reqs[0].SerperKey != "new-s" {
		t.Fatalf("unexpected requests: %+v", sub.reqs)
	}
}

func TestLoop_EmptyQuestionStillGoesThroughShell(t *testing.T) {
	in := &scriptedReader{lines: []string{"   "}}
	sub := &recordingSubmitter{}
	var out bytes.Buffer
	r := newTestREPL(in, sub, &out)
	r.GeminiKey, r.SerperKey = "g", "s"

	if err := r.Loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if len(sub.reqs) != 1 || sub.reqs[0].Question != "" {
		t.Fatalf("expected shell to see the blank question, got %+v", sub.reqs)
	}
	if len(in.history) != 0 {
		t.Fatalf("blank input must not enter history")
	}
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Title\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Fatalf("unexpected render: %q", out)
	}
}
