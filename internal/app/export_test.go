package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperifyio/answersynth/internal/synth"
)

func sampleOutcome() Outcome {
	return Outcome{
		RunID: "run-1",
		Mode:  ModeSnippets,
		Fragments: []synth.Fragment{
			{SourceURL: "https://www.quora.com/a", Text: "alpha", Kind: synth.KindSnippet},
			{SourceURL: "https://www.quora.com/b", Text: "beta", Kind: synth.KindSnippet},
		},
		Result: &synth.Result{Model: "gemini-2.5-flash", Text: "## Answer\n\n- Practice **daily**\n- Read [the tour](https://go.dev/tour)"},
	}
}

func TestRenderMarkdown_Layout(t *testing.T) {
	md, err := RenderMarkdown("How do I learn Go?", sampleOutcome(), DefaultConfig())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"# How do I learn Go?\n",
		"## Generated Quora Answer (gemini-2.5-flash):",
		"## Sources\n\n1. [https://www.quora.com/a](https://www.quora.com/a)\n2. [https://www.quora.com/b]",
		"Generated by answersynth: model=gemini-2.5-flash; mode=snippets; site=quora.com; fragments=2; run=run-1",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_RequiresResult(t *testing.T) {
	if _, err := RenderMarkdown("q", Outcome{}, DefaultConfig()); err == nil {
		t.Fatalf("expected error without result")
	}
}

func TestWriteOutputs_MarkdownManifestAndPDF(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputPath = filepath.Join(dir, "answer.md")
	cfg.OutputPDFPath = filepath.Join(dir, "answer.pdf")
	if err := WriteOutputs("How do I learn Go?", sampleOutcome(), cfg); err != nil {
		t.Fatalf("write outputs: %v", err)
	}

	md, err := os.ReadFile(cfg.OutputPath)
	if err != nil || !strings.Contains(string(md), "Practice **daily**") {
		t.Fatalf("markdown not written: err=%v", err)
	}

	raw, err := os.ReadFile(deriveManifestSidecarPath(cfg.OutputPath))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest struct {
		Meta      manifestMeta    `json:"meta"`
		Fragments []manifestEntry `json:"fragments"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if manifest.Meta.FragmentCount != 2 || len(manifest.Fragments) != 2 {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
	if manifest.Fragments[0].SHA256 != computeSHA256Hex("alpha") || manifest.Fragments[1].Index != 2 {
		t.Fatalf("unexpected entries: %+v", manifest.Fragments)
	}

	pdf, err := os.ReadFile(cfg.OutputPDFPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF-") {
		t.Fatalf("output is not a pdf")
	}
}
