package validation

import (
	"fmt"
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

// suggestions further than this many edits away are not offered
const maxSuggestionDistance = 2

// ValidateFormat checks a user supplied grid format string. It never returns
// an error; the outcome is described by the returned FormatValidation.
func ValidateFormat(raw string) models.FormatValidation {
	result := models.FormatValidation{Input: raw}

	if f, ok := models.ParseGridFormat(raw); ok {
		result.IsValid = true
		result.Format = f
		return result
	}

	result.SupportedFormats = models.FormatStrings()
	if strings.TrimSpace(raw) == "" {
		result.ErrorMessage = fmt.Sprintf("grid format is empty; supported formats: %s",
			strings.Join(result.SupportedFormats, ", "))
		return result
	}

	result.ErrorMessage = fmt.Sprintf("unsupported grid format %q; supported formats: %s",
		raw, strings.Join(result.SupportedFormats, ", "))
	if s, ok := SuggestFormat(raw); ok {
		result.Suggestion = string(s)
		result.ErrorMessage += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return result
}

// SuggestFormat returns the supported format closest to raw by edit distance,
// if any is close enough to be a plausible typo.
func SuggestFormat(raw string) (models.GridFormat, bool) {
	normalized := models.NormalizeFormatString(raw)
	if normalized == "" {
		return "", false
	}

	var best models.GridFormat
	bestDist := maxSuggestionDistance + 1
	for _, f := range models.AllFormats() {
		d := levenshtein.Distance(normalized, string(f))
		if d < bestDist {
			best, bestDist = f, d
		}
	}
	if bestDist > maxSuggestionDistance {
		return "", false
	}
	return best, true
}
