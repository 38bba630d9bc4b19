// Package repl is the terminal front-end: hidden key prompts, then one run
// per question with the answer rendered as Markdown.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/hyperifyio/answersynth/internal/app"
)

// LineReader is the subset of *liner.State the loop needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// Submitter runs one request. *shell.Shell satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req app.Request, rep app.Reporter) (app.Outcome, error)
}

type REPL struct {
	Shell     Submitter
	In        LineReader
	Out       io.Writer
	SiteLabel string
	// Render turns Markdown into terminal output. Nil prints it as is.
	Render func(markdown string) (string, error)

	GeminiKey string
	SerperKey string
}

// New returns a REPL reading from the controlling terminal via liner and
// rendering answers with glamour.
func New(sh Submitter, out io.Writer, siteLabel, geminiKey, serperKey string) *REPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &REPL{
		Shell:     sh,
		In:        line,
		Out:       out,
		SiteLabel: siteLabel,
		Render:    RenderMarkdown,
		GeminiKey: geminiKey,
		SerperKey: serperKey,
	}
}

// RenderMarkdown renders Markdown as ANSI text for the terminal.
func RenderMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return rendered, nil
}

const help = `Commands: :keys re-enter API keys, :help, :quit`

// Loop prompts for missing keys, then asks questions until EOF or :quit.
func (r *REPL) Loop(ctx context.Context) error {
	defer r.In.Close()

	if err := r.promptKeys(false); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "AI %s Answer Generator. %s\n", r.SiteLabel, help)
	prompt := strings.ToLower(r.SiteLabel) + "> "
	for {
		if ctx.Err() != nil {
			return nil
		}
		q, err := r.In.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.Out)
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.Out)
				return nil
			}
			return fmt.Errorf("read question: %w", err)
		}
		q = strings.TrimSpace(q)
		switch q {
		case ":q", ":quit", ":exit":
			return nil
		case ":help":
			fmt.Fprintln(r.Out, help)
			continue
		case ":keys":
			if err := r.promptKeys(true); err != nil {
				return err
			}
			continue
		}
		if q != "" {
			r.In.AppendHistory(q)
		}
		r.ask(ctx, q)
	}
}

func (r *REPL) promptKeys(force bool) error {
	if force || strings.TrimSpace(r.GeminiKey) == "" {
		k, err := r.In.PasswordPrompt("Gemini API Key: ")
		if err != nil && !errors.Is(err, liner.ErrPromptAborted) {
			return fmt.Errorf("read gemini key: %w", err)
		}
		r.GeminiKey = strings.TrimSpace(k)
	}
	if force || strings.TrimSpace(r.SerperKey) == "" {
		k, err := r.In.PasswordPrompt("Serper API Key: ")
		if err != nil && !errors.Is(err, liner.ErrPromptAborted) {
			return fmt.Errorf("read serper key: %w", err)
		}
		r.SerperKey = strings.TrimSpace(k)
	}
	return nil
}

func (r *REPL) ask(ctx context.Context, question string) {
	req := app.Request{Question: question, GeminiKey: r.GeminiKey, SerperKey: r.SerperKey}
	out, _ := r.Shell.Submit(ctx, req, app.ReporterFunc(r.printMessage))
	if out.Result == nil {
		return
	}
	fmt.Fprintf(r.Out, "\n%s\n", app.AnswerHeading(r.SiteLabel, out.Result.Model))
	text := out.Result.Text
	if r.Render != nil {
		if rendered, err := r.Render(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(r.Out, text)
}

var levelPrefix = map[app.Level]string{
	app.LevelInfo:    "  ",
	app.LevelSuccess: "✓ ",
	app.LevelWarning: "! ",
	app.LevelError:   "✗ ",
}

func (r *REPL) printMessage(m app.Message) {
	fmt.Fprintf(r.Out, "%s%s\n", levelPrefix[m.Level], m.Text)
}
