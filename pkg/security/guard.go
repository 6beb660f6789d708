package security

import (
	"regexp"
	"strings"
)

// GuardResult contains the outcome of scanning an inbound message.
type GuardResult struct {
	Safe     bool
	Patterns []string
	Score    float64
}

// PromptGuard detects prompt injection attempts in user messages using
// regex-based pattern matching. The strongest matched category decides:
// input whose score reaches the sensitivity threshold is rejected.
type PromptGuard struct {
	sensitivity float64
	categories  []guardCategory
}

type guardCategory struct {
	name    string
	score   float64
	pattern *regexp.Regexp
}

// NewPromptGuard creates a PromptGuard. Sensitivity is clamped to
// (0.0, 1.0]; out-of-range values fall back to 0.5.
func NewPromptGuard(sensitivity float64) *PromptGuard {
	if sensitivity <= 0 || sensitivity > 1 {
		sensitivity = 0.5
	}
	return &PromptGuard{
		sensitivity: sensitivity,
		categories:  defaultGuardCategories(),
	}
}

func defaultGuardCategories() []guardCategory {
	return []guardCategory{
		{
			name:    "instruction_override",
			score:   1.0,
			pattern: regexp.MustCompile(`(?i)ignore\s+(all\s+|the\s+)?(previous|all|above|prior|your)\s+(instructions?|prompts?|rules?|commands?)`),
		},
		{
			name:    "role_confusion",
			score:   0.9,
			pattern: regexp.MustCompile(`(?i)(you\s+are\s+now|new\s+(role|persona|identity)|act\s+as\s+if|pretend\s+(you'?re|to\s+be))`),
		},
		{
			name:    "memory_wipe",
			score:   0.9,
			pattern: regexp.MustCompile(`(?i)forget\s+(everything|all|your)`),
		},
		{
			name:    "system_prompt_probe",
			score:   0.95,
			pattern: regexp.MustCompile(`(?i)system:?\s*prompt`),
		},
		{
			name:    "template_markers",
			score:   0.8,
			pattern: regexp.MustCompile(`<\|[^|]*\|>|\[INST\]|\[/INST\]`),
		},
		{
			name:    "jailbreak",
			score:   0.85,
			pattern: regexp.MustCompile(`(?i)(DAN\s+mode|do\s+anything\s+now|developer\s+mode\s+(enabled|on|activated)|pretend\s+(there\s+are|you\s+have)\s+no\s+(restrictions|rules|limits))`),
		},
	}
}

// Scan checks an inbound message for injection patterns. The strongest
// matched category decides the score, so one high-confidence pattern is
// enough to reject regardless of message length.
func (pg *PromptGuard) Scan(content string) GuardResult {
	var matched []string
	var score float64

	for _, cat := range pg.categories {
		if cat.pattern.MatchString(content) {
			matched = append(matched, cat.name)
			if cat.score > score {
				score = cat.score
			}
		}
	}

	return GuardResult{
		Safe:     score < pg.sensitivity,
		Patterns: matched,
		Score:    score,
	}
}

var collapseWhitespaceRe = regexp.MustCompile(`\s+`)

// Sanitize normalizes an inbound message before it reaches the model:
// NUL bytes dropped, whitespace collapsed, length capped.
func Sanitize(message string, maxRunes int) string {
	message = strings.ReplaceAll(message, "\x00", "")
	message = collapseWhitespaceRe.ReplaceAllString(message, " ")
	message = strings.TrimSpace(message)

	runes := []rune(message)
	if maxRunes > 0 && len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return message
}
