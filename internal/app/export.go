package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/answersynth/internal/synth"
)

// manifestEntry is a compact record of one fragment sent to the model.
type manifestEntry struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	SHA256 string `json:"sha256"`
	Chars  int    `json:"chars"`
}

// manifestMeta captures run details for the sidecar JSON.
type manifestMeta struct {
	RunID         string    `json:"run_id"`
	Question      string    `json:"question"`
	Model         string    `json:"model"`
	LLMBaseURL    string    `json:"llm_base_url,omitempty"`
	Mode          string    `json:"mode"`
	Site          string    `json:"site"`
	FragmentCount int       `json:"fragment_count"`
	GeneratedAt   time.Time `json:"generated_at"`
}

func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func buildManifestEntries(frags []synth.Fragment) []manifestEntry {
	out := make([]manifestEntry, 0, len(frags))
	for i, f := range frags {
		content := strings.TrimSpace(f.Text)
		out = append(out, manifestEntry{
			Index:  i + 1,
			URL:    strings.TrimSpace(f.SourceURL),
			Kind:   string(f.Kind),
			SHA256: computeSHA256Hex(content),
			Chars:  len(content),
		})
	}
	return out
}

// RenderMarkdown lays out a successful outcome as a standalone Markdown
// document: question, answer, numbered sources and a footer.
func RenderMarkdown(question string, out Outcome, cfg Config) (string, error) {
	if out.Result == nil {
		return "", errors.New("render: outcome has no answer")
	}
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\n## ")
	b.WriteString(AnswerHeading(cfg.SiteLabel(), out.Result.Model))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(out.Result.Text))
	b.WriteString("\n\n## Sources\n\n")
	for i, f := range out.Fragments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". [")
		b.WriteString(f.SourceURL)
		b.WriteString("](")
		b.WriteString(f.SourceURL)
		b.WriteString(")\n")
	}
	return appendAnswerFooter(b.String(), out, cfg), nil
}

// appendAnswerFooter records the settings that produced the answer.
func appendAnswerFooter(markdown string, out Outcome, cfg Config) string {
	model := ""
	if out.Result != nil {
		model = out.Result.Model
	}
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n---\n")
	b.WriteString("Generated by answersynth: model=")
	b.WriteString(strings.TrimSpace(model))
	b.WriteString("; mode=")
	b.WriteString(string(out.Mode))
	b.WriteString("; site=")
	b.WriteString(strings.TrimSpace(cfg.Site))
	b.WriteString("; fragments=")
	b.WriteString(strconv.Itoa(len(out.Fragments)))
	b.WriteString("; run=")
	b.WriteString(out.RunID)
	b.WriteString("\n")
	return b.String()
}

func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta      manifestMeta    `json:"meta"`
		Fragments []manifestEntry `json:"fragments"`
	}{Meta: meta, Fragments: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output Markdown.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

// WriteOutputs saves the answer to cfg.OutputPath with a JSON manifest beside
// it, and to cfg.OutputPDFPath when set.
func WriteOutputs(question string, out Outcome, cfg Config) error {
	md, err := RenderMarkdown(question, out, cfg)
	if err != nil {
		return err
	}
	if cfg.OutputPath != "" {
		if err := os.WriteFile(cfg.OutputPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		meta := manifestMeta{
			RunID:         out.RunID,
			Question:      question,
			Model:         out.Result.Model,
			LLMBaseURL:    cfg.LLMBaseURL,
			Mode:          string(out.Mode),
			Site:          cfg.Site,
			FragmentCount: len(out.Fragments),
			GeneratedAt:   time.Now().UTC(),
		}
		data, err := marshalManifestJSON(meta, buildManifestEntries(out.Fragments))
		if err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}
		if err := os.WriteFile(deriveManifestSidecarPath(cfg.OutputPath), data, 0o644); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		log.Info().Str("out", cfg.OutputPath).Msg("wrote answer")
	}
	if cfg.OutputPDFPath != "" {
		if err := writeSimplePDF(md, cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("pdf", cfg.OutputPDFPath).Msg("wrote pdf")
	}
	return nil
}
