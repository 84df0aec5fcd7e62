package optimizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/internal/analyzer"
	"github.com/zedarvates/storycore-grid/internal/coherence"
	"github.com/zedarvates/storycore-grid/internal/content"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/internal/observer"
	"github.com/zedarvates/storycore-grid/internal/predictor"
	"github.com/zedarvates/storycore-grid/internal/quality"
	"github.com/zedarvates/storycore-grid/internal/selector"
	"github.com/zedarvates/storycore-grid/pkg/models"
	"github.com/zedarvates/storycore-grid/pkg/validation"
)

// Optimizer composes content analysis, format selection, quality prediction,
// temporal coherence and quality analysis behind one facade
type Optimizer interface {
	ValidateFormatCompatibility(format string) models.FormatValidation
	AnalyzeContent(project models.ProjectData) models.ContentAnalysis
	GetOptimalFormat(ctx context.Context, analysis models.ContentAnalysis, prefs *models.FormatPreferences) (models.FormatRecommendation, error)

	AnalyzeTemporalCoherence(ctx context.Context, panels []models.Panel, format models.GridFormat) (models.CoherenceAnalysis, error)
	OptimizePanelTransitions(ctx context.Context, panels []models.Panel, format models.GridFormat) (models.OptimizeTransitionsResponse, error)
	TransitionStats() models.TransitionStats

	AnalyzePanelQuality(ctx context.Context, format models.GridFormat, panels []analyzer.PanelImage) (models.QualityReport, error)
	AnalyzePanelMetrics(ctx context.Context, format models.GridFormat, panels []models.PanelMetrics) (models.QualityReport, error)
	CompareFormats(results map[models.GridFormat]models.QualityMetrics, baseline models.GridFormat) (models.FormatComparison, error)

	RecordQualityOutcome(ctx context.Context, format models.GridFormat, actual float64, analysis models.ContentAnalysis) (models.PredictionUpdate, error)
	ExportPerformanceReport() models.PerformanceReport
	RestorePerformanceReport(report models.PerformanceReport) int
	ExportQualityReport() models.QualityHistoryReport
	RestoreQualityReport(report models.QualityHistoryReport) int

	Close() error
}

type gridOptimizer struct {
	content   content.Analyzer
	selector  selector.Selector
	predictor predictor.Predictor
	coherence coherence.Engine
	quality   quality.Analyzer
	publisher observer.Subject
	log       *logrus.Entry
	now       func() time.Time
}

// NewOptimizer wires the optimizer components
func NewOptimizer(opts Options, deps Dependencies) Optimizer {
	state := deps.LearningState
	if state == nil {
		state = predictor.NewLearningState(opts.PredictionHistoryCap)
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = observer.NewEventPublisher()
	}
	return &gridOptimizer{
		content:   content.NewAnalyzer(deps.Classifier),
		selector:  selector.NewSelector(),
		predictor: predictor.NewPredictor(state),
		coherence: coherence.NewEngine(opts.Coherence, deps.Autofixer),
		quality:   quality.NewAnalyzer(opts.Quality, deps.PanelAnalyzer),
		publisher: publisher,
		log:       logger.ForComponent("grid_optimizer"),
		now:       time.Now,
	}
}

func (o *gridOptimizer) ValidateFormatCompatibility(format string) models.FormatValidation {
	return validation.ValidateFormat(format)
}

func (o *gridOptimizer) AnalyzeContent(project models.ProjectData) models.ContentAnalysis {
	return o.content.Analyze(project)
}

// GetOptimalFormat validates preferences before any scoring, selects a
// format, predicts its outcome and records the prediction
func (o *gridOptimizer) GetOptimalFormat(ctx context.Context, analysis models.ContentAnalysis, prefs *models.FormatPreferences) (models.FormatRecommendation, error) {
	start := o.now()
	p := models.DefaultPreferences()
	if prefs != nil {
		p = *prefs
	}
	if err := validation.ValidatePreferences(p); err != nil {
		return models.FormatRecommendation{}, err
	}

	sel, err := o.selectFormat(analysis, p)
	if err != nil {
		return models.FormatRecommendation{}, err
	}

	pred := o.predictor.Predict(sel.Format, analysis)
	warnings := append([]string{}, sel.Warnings...)
	if p.MaxProcessingTime != nil && pred.EstimatedTime > *p.MaxProcessingTime {
		pred.RiskFactors = append(pred.RiskFactors, predictor.RiskExceedsProcessingTime)
		warnings = append(warnings, fmt.Sprintf(
			"estimated processing time %.1fs exceeds the maximum of %.1fs", pred.EstimatedTime, *p.MaxProcessingTime))
	}

	rec := models.FormatRecommendation{
		ID:                          uuid.New().String(),
		RecommendedFormat:           sel.Format,
		ConfidenceScore:             clamp01((sel.Score + pred.ConfidenceLevel) / 2),
		PredictedQualityImprovement: pred.ImprovementPercentage,
		EstimatedProcessingTime:     pred.EstimatedTime,
		Justification:               sel.Justification,
		Alternatives:                sel.Alternatives,
		Evaluations:                 sel.Evaluations,
		Prediction:                  pred,
		FallbackApplied:             sel.FallbackApplied,
		Warnings:                    warnings,
		CreatedAt:                   o.now().UTC(),
	}
	if rec.Alternatives == nil {
		rec.Alternatives = []models.FormatAlternative{}
	}
	o.predictor.RecordPerformance(pred)

	o.log.WithFields(logrus.Fields{
		"recommendation_id": rec.ID,
		"format":            rec.RecommendedFormat,
		"confidence":        rec.ConfidenceScore,
		"improvement":       rec.PredictedQualityImprovement,
		"estimated_time":    rec.EstimatedProcessingTime,
		"fallback":          rec.FallbackApplied,
	}).Info("Grid format recommended")

	o.publish(ctx, observer.OptimizationEvent{
		EventType: observer.FormatRecommended,
		Format:    rec.RecommendedFormat,
		Score:     rec.ConfidenceScore,
		Duration:  o.now().Sub(start),
		Success:   true,
		Metadata: map[string]interface{}{
			"recommendation_id": rec.ID,
			"fallback":          rec.FallbackApplied,
		},
	})
	return rec, nil
}

// selectFormat honours manual selection: with auto selection off the first
// preferred format is used as given and the rest are ranked as alternatives
func (o *gridOptimizer) selectFormat(analysis models.ContentAnalysis, p models.FormatPreferences) (selector.Selection, error) {
	if p.AutoFormatSelection {
		return o.selector.Select(analysis, p)
	}

	manual := p.PreferredFormats[0]
	all, err := o.selector.Select(analysis, models.FormatPreferences{
		PreferredFormats:        models.AllFormats(),
		QualityVsSpeed:          p.QualityVsSpeed,
		MinimumQualityThreshold: 0,
	})
	if err != nil {
		return selector.Selection{}, err
	}

	sel := selector.Selection{
		Format:             manual,
		RefinedContentType: all.RefinedContentType,
		Evaluations:        all.Evaluations,
		Alternatives:       []models.FormatAlternative{},
		Justification:      fmt.Sprintf("%s selected manually (automatic format selection is disabled).", manual),
	}
	for _, e := range all.Evaluations {
		if e.Format == manual {
			sel.Score = e.Score
		} else if len(sel.Alternatives) < 3 {
			sel.Alternatives = append(sel.Alternatives, models.FormatAlternative{Format: e.Format, Score: e.Score})
		}
	}
	if threshold := p.MinimumQualityThreshold / 100; sel.Score < threshold {
		sel.Warnings = append(sel.Warnings, fmt.Sprintf(
			"manually selected format %s scores %.2f, below the minimum quality threshold of %.0f",
			manual, sel.Score, p.MinimumQualityThreshold))
	}
	return sel, nil
}

// AnalyzeTemporalCoherence measures a rendered sequence. When the score is
// below the fatal floor the filled analysis is returned together with the
// TemporalCoherenceError.
func (o *gridOptimizer) AnalyzeTemporalCoherence(ctx context.Context, panels []models.Panel, format models.GridFormat) (models.CoherenceAnalysis, error) {
	start := o.now()
	report, err := o.coherence.EnsureVisualContinuity(panels, format)
	if err != nil {
		return models.CoherenceAnalysis{}, err
	}

	result := models.CoherenceAnalysis{
		Format:           format,
		ContinuityReport: report,
		ThresholdMet:     true,
	}
	if !report.Applicable {
		o.log.WithField("format", format).Debug("Coherence check skipped for square grid")
		return result, nil
	}

	result.CoherenceMetrics = report.Metrics
	score := report.Metrics.TemporalCoherenceScore
	result.ThresholdMet = score >= o.coherence.Threshold()

	action, err := o.coherence.TriggerAutofixIfNeeded(score)
	if err != nil {
		o.publish(ctx, observer.OptimizationEvent{
			EventType:    observer.CoherenceFailed,
			Format:       format,
			Score:        score,
			Duration:     o.now().Sub(start),
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return result, err
	}
	if action != nil {
		result.AutofixTriggered = true
		result.AutofixAction = action
		o.publish(ctx, observer.OptimizationEvent{
			EventType: observer.AutofixTriggered,
			Format:    format,
			Score:     score,
			Success:   true,
			Metadata: map[string]interface{}{
				"action_id": action.ID,
				"severity":  string(action.Severity),
				"source":    action.Source,
			},
		})
	}

	o.publish(ctx, observer.OptimizationEvent{
		EventType: observer.CoherenceAnalyzed,
		Format:    format,
		Score:     score,
		Duration:  o.now().Sub(start),
		Success:   true,
		Metadata: map[string]interface{}{
			"problem_areas": len(report.ProblemAreas),
			"threshold_met": result.ThresholdMet,
		},
	})
	return result, nil
}

func (o *gridOptimizer) OptimizePanelTransitions(ctx context.Context, panels []models.Panel, format models.GridFormat) (models.OptimizeTransitionsResponse, error) {
	adjusted, decisions, err := o.coherence.OptimizePanelTransitions(panels, format)
	if err != nil {
		return models.OptimizeTransitionsResponse{}, err
	}
	if decisions == nil {
		decisions = []models.TransitionDecision{}
	}
	return models.OptimizeTransitionsResponse{
		Format:    format,
		Panels:    adjusted,
		Decisions: decisions,
		Stats:     o.coherence.Stats(),
	}, nil
}

func (o *gridOptimizer) TransitionStats() models.TransitionStats {
	return o.coherence.Stats()
}

func (o *gridOptimizer) AnalyzePanelQuality(ctx context.Context, format models.GridFormat, panels []analyzer.PanelImage) (models.QualityReport, error) {
	start := o.now()
	report, err := o.quality.AnalyzeImages(format, panels)
	if err != nil {
		return models.QualityReport{}, err
	}
	o.publishQuality(ctx, report, o.now().Sub(start))
	return report, nil
}

func (o *gridOptimizer) AnalyzePanelMetrics(ctx context.Context, format models.GridFormat, panels []models.PanelMetrics) (models.QualityReport, error) {
	start := o.now()
	report, err := o.quality.AnalyzeMetrics(format, panels)
	if err != nil {
		return models.QualityReport{}, err
	}
	o.publishQuality(ctx, report, o.now().Sub(start))
	return report, nil
}

func (o *gridOptimizer) publishQuality(ctx context.Context, report models.QualityReport, elapsed time.Duration) {
	for _, p := range report.Panels {
		if !p.Failed {
			continue
		}
		o.publish(ctx, observer.OptimizationEvent{
			EventType:    observer.PanelMetricFailed,
			Format:       report.Format,
			Success:      false,
			ErrorMessage: p.Error,
			Metadata: map[string]interface{}{
				"panel_id": p.PanelID,
				"position": p.Position,
			},
		})
	}
	o.publish(ctx, observer.OptimizationEvent{
		EventType: observer.QualityAnalyzed,
		Format:    report.Format,
		Score:     report.Metrics.FormatSpecificScore,
		Duration:  elapsed,
		Success:   true,
		Metadata: map[string]interface{}{
			"report_id":      report.ID,
			"classification": string(report.Classification),
			"failed_panels":  report.Metrics.FailedPanels,
		},
	})
}

func (o *gridOptimizer) CompareFormats(results map[models.GridFormat]models.QualityMetrics, baseline models.GridFormat) (models.FormatComparison, error) {
	return o.quality.CompareFormats(results, baseline)
}

// RecordQualityOutcome feeds an observed quality score back into the
// predictor and the quality history of the format
func (o *gridOptimizer) RecordQualityOutcome(ctx context.Context, format models.GridFormat, actual float64, analysis models.ContentAnalysis) (models.PredictionUpdate, error) {
	if !format.IsValid() {
		return models.PredictionUpdate{}, apperrors.NewUnsupportedFormatError(string(format), models.FormatStrings())
	}
	if math.IsNaN(actual) || actual < 0 || actual > 100 {
		return models.PredictionUpdate{}, apperrors.NewValidationError(
			fmt.Sprintf("actual quality %v outside [0,100]", actual), nil)
	}
	update := o.predictor.UpdatePredictionModels(actual, format, analysis)
	o.quality.RecordQuality(format, actual)
	return update, nil
}

func (o *gridOptimizer) ExportPerformanceReport() models.PerformanceReport {
	return o.predictor.ExportPerformanceHistory()
}

func (o *gridOptimizer) RestorePerformanceReport(report models.PerformanceReport) int {
	return o.predictor.RestorePerformanceHistory(report)
}

func (o *gridOptimizer) ExportQualityReport() models.QualityHistoryReport {
	return o.quality.ExportHistory()
}

func (o *gridOptimizer) RestoreQualityReport(report models.QualityHistoryReport) int {
	return o.quality.RestoreHistory(report)
}

func (o *gridOptimizer) Close() error {
	return o.quality.Close()
}

func (o *gridOptimizer) publish(ctx context.Context, event observer.OptimizationEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = o.now().UTC()
	}
	o.publisher.NotifyObservers(ctx, event)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
