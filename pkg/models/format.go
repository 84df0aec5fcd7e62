package models

import "strings"

// GridFormat identifies a panel grid layout as rows x cols
type GridFormat string

const (
	Square3x3 GridFormat = "3x3"
	Linear1x2 GridFormat = "1x2"
	Linear1x3 GridFormat = "1x3"
	Linear1x4 GridFormat = "1x4"
)

var allFormats = []GridFormat{Square3x3, Linear1x2, Linear1x3, Linear1x4}

var formatDimensions = map[GridFormat][2]int{
	Square3x3: {3, 3},
	Linear1x2: {1, 2},
	Linear1x3: {1, 3},
	Linear1x4: {1, 4},
}

// AllFormats returns every supported grid format in canonical order
func AllFormats() []GridFormat {
	out := make([]GridFormat, len(allFormats))
	copy(out, allFormats)
	return out
}

// FormatStrings returns the supported formats as plain strings
func FormatStrings() []string {
	out := make([]string, len(allFormats))
	for i, f := range allFormats {
		out[i] = string(f)
	}
	return out
}

// IsValid reports whether f is one of the supported formats
func (f GridFormat) IsValid() bool {
	_, ok := formatDimensions[f]
	return ok
}

// Rows returns the number of grid rows
func (f GridFormat) Rows() int {
	return formatDimensions[f][0]
}

// Cols returns the number of grid columns
func (f GridFormat) Cols() int {
	return formatDimensions[f][1]
}

// PanelCount returns rows x cols
func (f GridFormat) PanelCount() int {
	return f.Rows() * f.Cols()
}

// IsLinear reports whether panels are laid out as a temporal sequence
func (f GridFormat) IsLinear() bool {
	return f.IsValid() && f.Rows() == 1
}

// Name returns the enum-style identifier, e.g. LINEAR_1X3
func (f GridFormat) Name() string {
	if !f.IsValid() {
		return ""
	}
	prefix := "LINEAR_"
	if !f.IsLinear() {
		prefix = "SQUARE_"
	}
	return prefix + strings.ToUpper(string(f))
}

func (f GridFormat) String() string {
	return string(f)
}

// NormalizeFormatString lowercases, trims and rewrites "×" and enum prefixes so
// "SQUARE_3X3", " 3×3 " and "3x3" compare equal.
func NormalizeFormatString(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "×", "x")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "square_")
	s = strings.TrimPrefix(s, "linear_")
	return s
}

// ParseGridFormat resolves a user supplied format string
func ParseGridFormat(raw string) (GridFormat, bool) {
	f := GridFormat(NormalizeFormatString(raw))
	if !f.IsValid() {
		return "", false
	}
	return f, true
}

// FormatSpec is the static metadata attached to each grid format
type FormatSpec struct {
	Format                  GridFormat    `json:"format"`
	Rows                    int           `json:"rows"`
	Cols                    int           `json:"cols"`
	PanelCount              int           `json:"panel_count"`
	IsLinear                bool          `json:"is_linear"`
	OptimalFor              []ContentType `json:"optimal_for"`
	ProcessingComplexity    float64       `json:"processing_complexity"`
	TemporalCoherenceWeight float64       `json:"temporal_coherence_weight"`
}

// IsOptimalFor reports whether ct is listed among the spec's optimal content types
func (s FormatSpec) IsOptimalFor(ct ContentType) bool {
	for _, c := range s.OptimalFor {
		if c == ct {
			return true
		}
	}
	return false
}

// FormatValidation is the result of checking a user supplied format string
type FormatValidation struct {
	Input            string     `json:"input"`
	IsValid          bool       `json:"is_valid"`
	Format           GridFormat `json:"format,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	SupportedFormats []string   `json:"supported_formats,omitempty"`
	Suggestion       string     `json:"suggestion,omitempty"`
}
