package models

import "time"

// PanelMetrics are base metrics computed from one rendered panel image
type PanelMetrics struct {
	PanelID        string             `json:"panel_id"`
	Position       int                `json:"position"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	LaplacianVar   float64            `json:"laplacian_variance"`
	SharpnessScore float64            `json:"sharpness_score"`
	Brightness     float64            `json:"brightness"`
	Contrast       float64            `json:"contrast"`
	Saturation     float64            `json:"saturation"`
	ChannelBalance [3]float64         `json:"channel_balance"`
	DominantColors []RGB              `json:"dominant_colors"`
	StyleFeatures  map[string]float64 `json:"style_features,omitempty"`
	Failed         bool               `json:"failed,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// ToPanel converts image metrics into the feature summary used for coherence
func (m PanelMetrics) ToPanel() Panel {
	return Panel{
		ID:                 m.PanelID,
		DominantColors:     m.DominantColors,
		Brightness:         m.Brightness,
		Contrast:           m.Contrast,
		StyleFeatures:      m.StyleFeatures,
		PositionInSequence: m.Position,
	}
}

// QualityMetrics are bundle level quality figures. Scores are in [0,100],
// ColorCoherence and TemporalConsistency in [0,1].
type QualityMetrics struct {
	OverallQuality      float64 `json:"overall_quality"`
	AggregatedSharpness float64 `json:"aggregated_sharpness"`
	GeneralSharpness    float64 `json:"general_sharpness"`
	ColorCoherence      float64 `json:"color_coherence"`
	TemporalConsistency float64 `json:"temporal_consistency"`
	TemporalCoherence   float64 `json:"temporal_coherence"`
	TransitionQuality   float64 `json:"transition_quality"`
	SpatialCoherence    float64 `json:"spatial_coherence"`
	ComplexityHandling  float64 `json:"complexity_handling"`
	FormatSpecificScore float64 `json:"format_specific_score"`
	PanelCount          int     `json:"panel_count"`
	FailedPanels        int     `json:"failed_panels"`
}

// QualityClass is the coarse quality bucket of a score
type QualityClass string

const (
	QualityExcellent  QualityClass = "excellent"
	QualityGood       QualityClass = "good"
	QualityAcceptable QualityClass = "acceptable"
	QualityPoor       QualityClass = "poor"
)

// Trend describes how a format's quality moves over time
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// PanelIssue is a per-panel quality finding
type PanelIssue struct {
	PanelID     string  `json:"panel_id"`
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// QualityReport is the full result of a panel bundle quality analysis
type QualityReport struct {
	ID             string         `json:"id"`
	Format         GridFormat     `json:"format"`
	Metrics        QualityMetrics `json:"metrics"`
	Classification QualityClass   `json:"classification"`
	Strengths      []string       `json:"strengths"`
	Weaknesses     []string       `json:"weaknesses"`
	Suggestions    []string       `json:"suggestions"`
	Issues         []PanelIssue   `json:"issues,omitempty"`
	Trend          Trend          `json:"trend"`
	Panels         []PanelMetrics `json:"panels"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ComparisonEntry is one row of a cross-format comparison
type ComparisonEntry struct {
	Format            GridFormat   `json:"format"`
	Score             float64      `json:"score"`
	DeltaVsBaseline   float64      `json:"delta_vs_baseline"`
	PercentVsBaseline float64      `json:"percent_vs_baseline"`
	Classification    QualityClass `json:"classification"`
}

// FormatComparison ranks formats against a baseline
type FormatComparison struct {
	Baseline      GridFormat        `json:"baseline"`
	BaselineScore float64           `json:"baseline_score"`
	Entries       []ComparisonEntry `json:"entries"`
	BestFormat    GridFormat        `json:"best_format"`
}

// QualityHistoryEntry is one recorded quality outcome
type QualityHistoryEntry struct {
	Timestamp      time.Time    `json:"timestamp"`
	Score          float64      `json:"score"`
	Classification QualityClass `json:"classification"`
}

// QualitySummary is the exported quality history of one format
type QualitySummary struct {
	Entries []QualityHistoryEntry `json:"entries"`
	Average float64               `json:"average"`
	Trend   Trend                 `json:"trend"`
}

// QualityHistoryReport maps each format to its quality summary
type QualityHistoryReport map[GridFormat]QualitySummary
