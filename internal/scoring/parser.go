package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultScore is substituted when a labeled score cannot be parsed
// from the generated text at all.
const DefaultScore = 5.0

// justificationFallbackLen caps the raw-text fallback when no
// justification line is present in the response.
const justificationFallbackLen = 300

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ExtractScore parses the numeric score following a field label in
// generated text. The generator's output format is not guaranteed, so
// the parse is staged: label followed by a number anywhere after it,
// then any number on the first line mentioning the label, then
// DefaultScore. The result is clamped to [0,10].
func ExtractScore(text, label string) float64 {
	labelPattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[^\d]*(\d+(?:\.\d+)?)`)
	if m := labelPattern.FindStringSubmatch(text); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Clamp(value)
		}
	}

	// Fallback: any number on the first line containing the label
	lowerLabel := strings.ToLower(label)
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(strings.ToLower(line), lowerLabel) {
			continue
		}
		if num := numberPattern.FindString(line); num != "" {
			value, err := strconv.ParseFloat(num, 64)
			if err == nil {
				return Clamp(value)
			}
		}
		break
	}

	return DefaultScore
}

// ExtractJustification returns the text after the colon on the first
// line mentioning "justification" (case-insensitive). When no such
// line exists it falls back to the leading slice of the raw response.
func ExtractJustification(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), "justification") {
			if _, after, found := strings.Cut(line, ":"); found {
				return strings.TrimSpace(after)
			}
			return strings.TrimSpace(line)
		}
	}

	trimmed := strings.TrimSpace(text)
	if len(trimmed) > justificationFallbackLen {
		return trimmed[:justificationFallbackLen]
	}
	return trimmed
}

// Clamp bounds a score to the valid [0,10] range
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// roundTo2 rounds the recomputed composite to two decimal places
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
