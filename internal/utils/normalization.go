package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel folds width variants (ＢＡＲ -> BAR), trims and lower-cases a label for comparison
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(label)))
}

// StripFences removes a surrounding markdown code fence (```json ... ```) if present
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// drop the opening fence line, including an optional language tag
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}

	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// ExtractJSONObject returns the outermost {...} span of s, or s unchanged when there is none
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
