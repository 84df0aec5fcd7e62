package models

import "time"

// FormatEvaluation holds the sub-scores of one candidate format
type FormatEvaluation struct {
	Format               GridFormat `json:"format"`
	ContentScore         float64    `json:"content_score"`
	ComplexityScore      float64    `json:"complexity_score"`
	MotionScore          float64    `json:"motion_score"`
	TemporalScore        float64    `json:"temporal_score"`
	Score                float64    `json:"score"`
	ProcessingComplexity float64    `json:"processing_complexity"`
}

// FormatAlternative is a ranked runner-up
type FormatAlternative struct {
	Format GridFormat `json:"format"`
	Score  float64    `json:"score"`
}

// QualityPrediction is the predicted outcome of rendering content in a format
type QualityPrediction struct {
	Format                GridFormat `json:"format"`
	PredictedQuality      float64    `json:"predicted_quality"`
	ImprovementPercentage float64    `json:"improvement_percentage"`
	EstimatedTime         float64    `json:"estimated_time"`
	ConfidenceLevel       float64    `json:"confidence_level"`
	RiskFactors           []string   `json:"risk_factors"`
}

// FormatRecommendation is the output of format selection
type FormatRecommendation struct {
	ID                          string              `json:"id"`
	RecommendedFormat           GridFormat          `json:"recommended_format"`
	ConfidenceScore             float64             `json:"confidence_score"`
	PredictedQualityImprovement float64             `json:"predicted_quality_improvement"`
	EstimatedProcessingTime     float64             `json:"estimated_processing_time"`
	Justification               string              `json:"justification"`
	Alternatives                []FormatAlternative `json:"alternatives"`
	Evaluations                 []FormatEvaluation  `json:"evaluations,omitempty"`
	Prediction                  QualityPrediction   `json:"prediction"`
	FallbackApplied             bool                `json:"fallback_applied"`
	Warnings                    []string            `json:"warnings,omitempty"`
	CreatedAt                   time.Time           `json:"created_at"`
}

// PredictionUpdate describes one feedback step applied to the learning state
type PredictionUpdate struct {
	Format         GridFormat `json:"format"`
	Predicted      float64    `json:"predicted"`
	Actual         float64    `json:"actual"`
	Error          float64    `json:"error"`
	BaselineBefore float64    `json:"baseline_before"`
	BaselineAfter  float64    `json:"baseline_after"`
	Adjusted       bool       `json:"adjusted"`
}

// PerformanceEntry is one exported performance record
type PerformanceEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Quality       float64   `json:"quality"`
	Improvement   float64   `json:"improvement"`
	EstimatedTime float64   `json:"estimated_time"`
}

// PerformanceReport maps each format to its performance history
type PerformanceReport map[GridFormat][]PerformanceEntry
