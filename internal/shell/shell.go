// Package shell is the idle/processing state machine shared by the web and
// terminal front-ends. It admits one run at a time.
package shell

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/hyperifyio/answersynth/internal/app"
	"github.com/hyperifyio/answersynth/internal/metrics"
)

// State is the shell's current phase.
type State int32

const (
	Idle State = iota
	Processing
)

func (s State) String() string {
	if s == Processing {
		return "processing"
	}
	return "idle"
}

var (
	// ErrMissingInput means a key or the question was blank; the shell stayed idle.
	ErrMissingInput = errors.New("missing input")
	// ErrBusy means a run was already processing.
	ErrBusy = errors.New("busy: a request is already being processed")
)

// Warnings for missing input, checked in this order.
const (
	MsgMissingGeminiKey = "Please enter your Gemini API Key."
	MsgMissingSerperKey = "Please enter your Serper API Key."
	MsgMissingQuestion  = "Please enter a question."
	MsgBusy             = "A request is already being processed. Please wait for it to finish."
)

// Runner executes one pipeline run. *app.App satisfies it.
type Runner interface {
	Run(ctx context.Context, req app.Request, rep app.Reporter) (app.Outcome, error)
}

type Shell struct {
	Runner  Runner
	Metrics *metrics.Recorder
	// Mode labels rejected submissions in metrics.
	Mode string

	state atomic.Int32
}

// New returns an idle shell around r.
func New(r Runner, rec *metrics.Recorder, mode string) *Shell {
	return &Shell{Runner: r, Metrics: rec, Mode: mode}
}

// State reports whether a run is in progress.
func (s *Shell) State() State { return State(s.state.Load()) }

// Validate returns the warning for the first missing input, or false when
// everything needed to start a run is present.
func Validate(req app.Request) (app.Message, bool) {
	switch {
	case strings.TrimSpace(req.GeminiKey) == "":
		return app.Message{Level: app.LevelWarning, Text: MsgMissingGeminiKey}, true
	case strings.TrimSpace(req.SerperKey) == "":
		return app.Message{Level: app.LevelWarning, Text: MsgMissingSerperKey}, true
	case strings.TrimSpace(req.Question) == "":
		return app.Message{Level: app.LevelWarning, Text: MsgMissingQuestion}, true
	}
	return app.Message{}, false
}

// Submit moves idle -> processing, runs the pipeline synchronously and
// returns to idle. Guard failures are reported to rep and returned as
// ErrMissingInput or ErrBusy without touching the runner.
func (s *Shell) Submit(ctx context.Context, req app.Request, rep app.Reporter) (app.Outcome, error) {
	req.Question = strings.TrimSpace(req.Question)
	req.GeminiKey = strings.TrimSpace(req.GeminiKey)
	req.SerperKey = strings.TrimSpace(req.SerperKey)

	if msg, missing := Validate(req); missing {
		report(rep, msg)
		return app.Outcome{Messages: []app.Message{msg}}, ErrMissingInput
	}
	if !s.state.CompareAndSwap(int32(Idle), int32(Processing)) {
		msg := app.Message{Level: app.LevelWarning, Text: MsgBusy}
		report(rep, msg)
		s.Metrics.Rejected(s.Mode)
		return app.Outcome{Messages: []app.Message{msg}}, ErrBusy
	}
	defer s.state.Store(int32(Idle))
	return s.Runner.Run(ctx, req, rep)
}

func report(rep app.Reporter, m app.Message) {
	if rep != nil {
		rep.Report(m)
	}
}
