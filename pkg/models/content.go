package models

import "encoding/json"

// ContentType classifies the dominant nature of a storyboard
type ContentType string

const (
	ContentAction    ContentType = "action"
	ContentDialogue  ContentType = "dialogue"
	ContentLandscape ContentType = "landscape"
	ContentPortrait  ContentType = "portrait"
)

// IsValid reports whether ct is a known content type
func (ct ContentType) IsValid() bool {
	switch ct {
	case ContentAction, ContentDialogue, ContentLandscape, ContentPortrait:
		return true
	}
	return false
}

// ProjectData is the storyboard metadata consumed by content analysis.
// Unknown JSON/YAML fields are ignored.
type ProjectData struct {
	Name         string      `json:"name,omitempty" yaml:"name"`
	Shots        []Shot      `json:"shots" yaml:"shots"`
	Characters   []Character `json:"characters" yaml:"characters"`
	AspectRatio  string      `json:"aspect_ratio,omitempty" yaml:"aspect_ratio"`
	ColorPalette []string    `json:"color_palette,omitempty" yaml:"color_palette"`
}

// Shot is one entry of the shot list
type Shot struct {
	ID           string        `json:"id,omitempty" yaml:"id"`
	Description  string        `json:"description" yaml:"description"`
	Duration     float64       `json:"duration,omitempty" yaml:"duration"`
	ContentHints *ContentHints `json:"content_hints,omitempty" yaml:"content_hints"`
}

// ContentHints carries structured overrides for free-text inference
type ContentHints struct {
	MotionLevel          string `json:"motion_level,omitempty" yaml:"motion_level"`
	ContentType          string `json:"content_type,omitempty" yaml:"content_type"`
	TemporalRequirements *bool  `json:"temporal_requirements,omitempty" yaml:"temporal_requirements"`
}

// Character is a named participant of the storyboard
type Character struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role,omitempty" yaml:"role"`
}

// ContentAnalysis is the immutable content profile derived once per request
type ContentAnalysis struct {
	ContentType           ContentType `json:"content_type"`
	SceneComplexity       float64     `json:"scene_complexity"`
	MotionIntensity       float64     `json:"motion_intensity"`
	CharacterCount        int         `json:"character_count"`
	DominantColors        []string    `json:"dominant_colors"`
	AspectRatioPreference string      `json:"aspect_ratio_preference"`
	TemporalRequirements  bool        `json:"temporal_requirements"`
}

// FormatPreferences is user supplied selection configuration
type FormatPreferences struct {
	PreferredFormats        []GridFormat `json:"preferred_formats" yaml:"preferred_formats" validate:"required,min=1,dive,gridformat"`
	QualityVsSpeed          float64      `json:"quality_vs_speed_preference" yaml:"quality_vs_speed_preference" validate:"gte=0,lte=1"`
	MinimumQualityThreshold float64      `json:"minimum_quality_threshold" yaml:"minimum_quality_threshold" validate:"gte=0,lte=100"`
	MaxProcessingTime       *float64     `json:"maximum_processing_time,omitempty" yaml:"maximum_processing_time" validate:"omitempty,gt=0"`
	AutoFormatSelection     bool         `json:"auto_format_selection" yaml:"auto_format_selection"`
}

// DefaultPreferences allows every format with a balanced quality/speed trade-off
func DefaultPreferences() FormatPreferences {
	return FormatPreferences{
		PreferredFormats:        AllFormats(),
		QualityVsSpeed:          0.5,
		MinimumQualityThreshold: 60.0,
		AutoFormatSelection:     true,
	}
}

// UnmarshalJSON decodes over DefaultPreferences so omitted fields keep their
// defaults instead of silently disabling automatic selection
func (p *FormatPreferences) UnmarshalJSON(data []byte) error {
	type plain FormatPreferences
	v := plain(DefaultPreferences())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = FormatPreferences(v)
	return nil
}
