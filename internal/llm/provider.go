package llm

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/lifestory/internal/story"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize rewrites the story facts as a short narrative
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for narrative generation
type SummarizeRequest struct {
	Facts story.Facts

	// Prompt overrides BuildPrompt when set
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	MaxTokens int
}

// SummarizeResponse contains the LLM's output
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	Timeout int // seconds

	// StrictFacts rejects output quoting numbers the facts do not contain
	StrictFacts bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // disabled
		Timeout:     30,
		StrictFacts: true,
		MaxTokens:   300,
	}
}

const systemPrompt = "You write short, warm, plain-text captions for a life expectancy data story. You only use the numbers you are given."

// BuildPrompt constructs the default prompt from the story facts
func BuildPrompt(f story.Facts) string {
	var b strings.Builder
	b.WriteString(`Rewrite the following facts about life expectancy as a 2-3 sentence caption for a data story.

RULES:
1. Use ONLY the numbers listed below. Do not round, estimate or add numbers.
2. Do not give medical, financial or personal advice.
3. Plain text only: no markdown, no HTML, no lists.

Facts:
`)
	b.WriteString(factsBlock(f))
	b.WriteString("\nSummary to rewrite:\n")
	b.WriteString(f.Summary())
	return b.String()
}

func factsBlock(f story.Facts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Country: %s (%s)\n", f.Country, f.CountryCode)
	fmt.Fprintf(&b, "- Gender: %s\n", f.Gender)
	fmt.Fprintf(&b, "- Birth year: %d\n", f.Year)
	if f.HasLifeExpectancy {
		fmt.Fprintf(&b, "- Life expectancy at birth: %.1f years\n", f.LifeExpectancy)
	} else {
		b.WriteString("- Life expectancy at birth: not recorded\n")
	}

	genders := make([]string, 0, len(f.ByGender))
	for g := range f.ByGender {
		genders = append(genders, g)
	}
	sort.Strings(genders)
	for _, g := range genders {
		fmt.Fprintf(&b, "- %s life expectancy in %d: %.1f years\n", g, f.Year, f.ByGender[g])
	}
	for _, r := range f.Ranks {
		fmt.Fprintf(&b, "- Rank %s: %d of %d\n", r.Scope, r.Position, r.Of)
	}
	if f.First != nil && f.Last != nil {
		fmt.Fprintf(&b, "- Trend: %.1f years in %s, %.1f years in %s\n", f.First.Value, f.First.Year, f.Last.Value, f.Last.Year)
	}

	return b.String()
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// extractNumbers returns the distinct numbers in text, normalized so that
// 78.80 and 78.8 compare equal
func extractNumbers(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range numberPattern.FindAllString(text, -1) {
		n := normalizeNumber(m)
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func normalizeNumber(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// allowedNumbers lists every number the narrative may quote
func allowedNumbers(f story.Facts) map[string]bool {
	allowed := make(map[string]bool)
	for _, n := range extractNumbers(factsBlock(f) + f.Summary()) {
		allowed[n] = true
	}
	return allowed
}

// unknownNumbers returns numbers in text that the facts do not contain
func unknownNumbers(text string, f story.Facts) []string {
	allowed := allowedNumbers(f)
	var bad []string
	for _, n := range extractNumbers(text) {
		if !allowed[n] {
			bad = append(bad, n)
		}
	}
	return bad
}
