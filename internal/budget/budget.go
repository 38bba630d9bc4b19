// Package budget estimates prompt sizes against model context windows.
package budget

import (
	"math"
	"strings"
)

// DefaultReservedOutput is the number of tokens kept free for the answer.
const DefaultReservedOutput = 8192

// EstimateTokensFromChars converts a character count into an estimated token
// count at roughly 4 characters per token. The result is at least 1 when
// charCount > 0.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of s.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(len(s))
}

// ModelContextTokens returns the context window for a model name. Unknown
// models get a conservative default.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	name = strings.TrimPrefix(name, "models/")
	if name == "" {
		return 32_768
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for prefix, v := range familyMax {
		if strings.HasPrefix(name, prefix) {
			return v
		}
	}
	switch {
	case strings.HasSuffix(name, "1m"):
		return 1_000_000
	case strings.HasSuffix(name, "128k"):
		return 128_000
	}
	return 32_768
}

// HeadroomTokens is the larger of 5% of the context or 512 tokens, subtracted
// to absorb tokenizer and message framing differences.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingContext returns the input tokens left after reserving output and
// headroom and accounting for promptTokens. Never negative.
func RemainingContext(modelName string, reservedForOutput, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - HeadroomTokens(modelName) - reservedForOutput - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FitCount returns how many leading items fit in the context after the fixed
// prompt overhead. Items are kept in order; the first one that does not fit
// ends the count.
func FitCount(modelName string, reservedForOutput int, overhead string, items []string) int {
	left := RemainingContext(modelName, reservedForOutput, EstimateTokens(overhead))
	for i, it := range items {
		cost := EstimateTokens(it)
		if cost > left {
			return i
		}
		left -= cost
	}
	return len(items)
}

var knownModelMax = map[string]int{
	"gemini-2.5-flash":      1_048_576,
	"gemini-2.5-flash-lite": 1_048_576,
	"gemini-2.5-pro":        1_048_576,
	"gemini-2.0-flash":      1_048_576,
	"gemini-2.0-flash-lite": 1_048_576,
	"gemini-1.5-flash":      1_048_576,
	"gemini-1.5-pro":        2_097_152,
	"gemma-3-27b-it":        131_072,
}

var familyMax = map[string]int{
	"gemini-1.5-pro": 2_097_152,
	"gemini-":        1_048_576,
	"gemma-3":        131_072,
}
