package models

// ValidateFormatRequest asks whether a format string is supported
type ValidateFormatRequest struct {
	Format string `json:"format" binding:"required"`
}

// AnalyzeContentRequest wraps project data for content analysis
type AnalyzeContentRequest struct {
	Project ProjectData `json:"project"`
}

// RecommendRequest asks for a format recommendation.
// Either Analysis or Project must be set; Analysis wins when both are.
type RecommendRequest struct {
	Project     *ProjectData       `json:"project,omitempty"`
	Analysis    *ContentAnalysis   `json:"analysis,omitempty"`
	Preferences *FormatPreferences `json:"preferences,omitempty"`
}

// CoherenceRequest carries rendered panel features for a format
type CoherenceRequest struct {
	Format string  `json:"format" binding:"required"`
	Panels []Panel `json:"panels" binding:"required"`
}

// PanelSource locates one rendered panel image
type PanelSource struct {
	ID       string `json:"id"`
	URL      string `json:"url" binding:"required"`
	Position int    `json:"position"`
}

// QualityRequest asks for a quality analysis of rendered panel images
type QualityRequest struct {
	Format string        `json:"format" binding:"required"`
	Panels []PanelSource `json:"panels" binding:"required"`
}

// FeedbackRequest reports the observed quality of a rendered format
type FeedbackRequest struct {
	Format        string          `json:"format" binding:"required"`
	ActualQuality float64         `json:"actual_quality"`
	Analysis      ContentAnalysis `json:"analysis"`
}

// OptimizeTransitionsResponse returns adjusted panels and decision statistics
type OptimizeTransitionsResponse struct {
	Format    GridFormat           `json:"format"`
	Panels    []Panel              `json:"panels"`
	Decisions []TransitionDecision `json:"decisions"`
	Stats     TransitionStats      `json:"stats"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error            string   `json:"error"`
	Message          string   `json:"message,omitempty"`
	Type             string   `json:"type,omitempty"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
}
