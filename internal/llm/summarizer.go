// Package llm writes the optional story caption. Output from any provider is
// reduced to plain text and checked against the story facts; on any failure
// the deterministic facts summary is used instead.
package llm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/lifestory/internal/logging"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/story"
)

// SourceFacts marks a narrative that was not produced by an LLM
const SourceFacts = "facts"

const maxNarrativeLen = 1200

// Summarizer produces story narratives, with or without a provider
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer. An empty provider name disables
// the LLM and yields facts-only narratives.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(p Provider, config Config) *Summarizer {
	return &Summarizer{provider: p, config: config}
}

// IsEnabled reports whether an LLM provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateNarrative returns a caption for the facts. It never fails:
// provider problems are logged and recorded as warnings on a facts-based
// narrative.
func (s *Summarizer) GenerateNarrative(ctx context.Context, f story.Facts) *model.Narrative {
	fallback := &model.Narrative{Text: f.Summary(), Source: SourceFacts}
	if !s.IsEnabled() {
		return fallback
	}

	name := s.provider.Name()
	if !s.provider.IsAvailable(ctx) {
		fallback.Warnings = append(fallback.Warnings, fmt.Sprintf("LLM provider %s is not available", name))
		return fallback
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Facts:     f,
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		logging.Warnf("narrative generation via %s failed: %v", name, err)
		fallback.Warnings = append(fallback.Warnings, fmt.Sprintf("LLM generation failed: %v", err))
		return fallback
	}

	text := PlainText(resp.Summary)
	if text == "" {
		fallback.Warnings = append(fallback.Warnings, "LLM returned an empty narrative")
		return fallback
	}

	if s.config.StrictFacts {
		if bad := unknownNumbers(text, f); len(bad) > 0 {
			logging.Warnf("discarding %s narrative: numbers not in facts: %s", name, strings.Join(bad, ", "))
			fallback.Warnings = append(fallback.Warnings,
				fmt.Sprintf("FACT LEAK: LLM quoted numbers not in the data: %s", strings.Join(bad, ", ")))
			return fallback
		}
	}

	n := &model.Narrative{Text: text, Source: name, Model: resp.Model}
	if resp.TokensUsed > 0 {
		n.Warnings = append(n.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}
	return n
}

// PlainText strips markup from s, collapses whitespace and caps the length.
// Script and style contents are dropped.
func PlainText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return ""
			}
			return clip(strings.Join(strings.Fields(b.String()), " "))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isRawTag(string(name)) && tt == html.StartTagToken {
				skip++
			}
			if isBreakTag(string(name)) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTag(string(name)) && skip > 0 {
				skip--
			}
			if isBreakTag(string(name)) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTag(name string) bool {
	return name == "script" || name == "style"
}

func isBreakTag(name string) bool {
	switch name {
	case "br", "p", "div", "li", "h1", "h2", "h3":
		return true
	}
	return false
}

func clip(s string) string {
	if len(s) <= maxNarrativeLen {
		return s
	}
	cut := maxNarrativeLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "…"
}
