package predictor

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/internal/strategy"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

const (
	maxEstimatedTime = 300.0

	baseConfidence        = 0.8
	defaultAccuracyFactor = 0.8

	// feedback below this absolute error leaves baselines untouched
	adjustmentTolerance = 10.0
	adjustmentRate      = 0.1
)

// Risk factor identifiers
const (
	RiskHighComplexity        = "high_scene_complexity"
	RiskMotionInSquareGrid    = "high_motion_in_square_grid"
	RiskManyCharacters        = "many_characters"
	RiskTemporalInSquareGrid  = "temporal_requirements_in_square_grid"
	RiskLongProcessingTime    = "long_processing_time"
	RiskExceedsProcessingTime = "exceeds_maximum_processing_time"
)

// Predictor estimates quality, time and risk and learns from outcomes
type Predictor interface {
	Predict(format models.GridFormat, analysis models.ContentAnalysis) models.QualityPrediction
	UpdatePredictionModels(actual float64, format models.GridFormat, analysis models.ContentAnalysis) models.PredictionUpdate
	RecordPerformance(prediction models.QualityPrediction)
	ExportPerformanceHistory() models.PerformanceReport
	RestorePerformanceHistory(report models.PerformanceReport) int
	State() *LearningState
}

type predictor struct {
	state *LearningState
	now   func() time.Time
	log   *logrus.Entry
}

// NewPredictor creates a predictor over an explicit learning state.
// A nil state gets a fresh one with the default history cap.
func NewPredictor(state *LearningState) Predictor {
	if state == nil {
		state = NewLearningState(DefaultHistoryCap)
	}
	return &predictor{
		state: state,
		now:   time.Now,
		log:   logger.ForComponent("quality_predictor"),
	}
}

func (p *predictor) State() *LearningState {
	return p.state
}

// Predict is a pure read of the learning state
func (p *predictor) Predict(format models.GridFormat, a models.ContentAnalysis) models.QualityPrediction {
	st, ok := strategy.For(format)
	if !ok {
		return models.QualityPrediction{Format: format, RiskFactors: []string{}}
	}
	spec := st.Spec()

	baseline := p.state.BaselineQuality(format)
	predicted := clamp(baseline*(1+contentAdjustment(spec, a)), 0, 100)

	reference := p.state.BaselineQuality(models.Square3x3)
	improvement := 0.0
	if reference > 0 {
		improvement = (predicted - reference) / reference * 100
	}

	estimated := p.state.BaselineTime(format) *
		(1 + 0.4*a.SceneComplexity) *
		(1 + 0.3*a.MotionIntensity) *
		(1 + 0.1*float64(a.CharacterCount))
	if a.TemporalRequirements {
		estimated *= 1.2
	}
	estimated = math.Min(estimated, maxEstimatedTime)

	return models.QualityPrediction{
		Format:                format,
		PredictedQuality:      predicted,
		ImprovementPercentage: improvement,
		EstimatedTime:         estimated,
		ConfidenceLevel:       p.confidence(spec, a),
		RiskFactors:           riskFactors(spec, a, estimated),
	}
}

func contentAdjustment(spec models.FormatSpec, a models.ContentAnalysis) float64 {
	adj := 0.0
	if spec.IsOptimalFor(a.ContentType) {
		adj += 0.15
	}
	if a.TemporalRequirements && spec.IsLinear {
		adj += spec.TemporalCoherenceWeight * 0.1
	}
	if (!spec.IsLinear && a.SceneComplexity > 0.7) || (spec.IsLinear && a.SceneComplexity < 0.3) {
		adj += 0.1
	}
	return adj
}

func (p *predictor) confidence(spec models.FormatSpec, a models.ContentAnalysis) float64 {
	c := baseConfidence
	if !spec.IsOptimalFor(a.ContentType) {
		c -= 0.2
	}
	if a.SceneComplexity > 0.8 {
		c -= 0.1
	}
	factor := defaultAccuracyFactor
	if avg, ok := p.state.AverageError(spec.Format); ok {
		factor = 1 - avg/100
	}
	return clamp(c*factor, 0, 1)
}

func riskFactors(spec models.FormatSpec, a models.ContentAnalysis, estimated float64) []string {
	risks := []string{}
	if a.SceneComplexity > 0.8 {
		risks = append(risks, RiskHighComplexity)
	}
	if a.MotionIntensity > 0.8 && !spec.IsLinear {
		risks = append(risks, RiskMotionInSquareGrid)
	}
	if a.CharacterCount > 5 {
		risks = append(risks, RiskManyCharacters)
	}
	if a.TemporalRequirements && spec.Format == models.Square3x3 {
		risks = append(risks, RiskTemporalInSquareGrid)
	}
	if estimated > 240 {
		risks = append(risks, RiskLongProcessingTime)
	}
	return risks
}

// UpdatePredictionModels feeds an observed quality back into the baseline
func (p *predictor) UpdatePredictionModels(actual float64, format models.GridFormat, a models.ContentAnalysis) models.PredictionUpdate {
	pred := p.Predict(format, a)
	delta := actual - pred.PredictedQuality
	p.state.RecordError(format, math.Abs(delta))

	update := models.PredictionUpdate{
		Format:    format,
		Predicted: pred.PredictedQuality,
		Actual:    actual,
		Error:     delta,
	}
	update.BaselineBefore = p.state.BaselineQuality(format)
	update.BaselineAfter = update.BaselineBefore
	if math.Abs(delta) > adjustmentTolerance {
		update.BaselineBefore, update.BaselineAfter = p.state.AdjustBaseline(format, adjustmentRate*delta)
		update.Adjusted = true
	}

	p.log.WithFields(logrus.Fields{
		"format":          format,
		"predicted":       pred.PredictedQuality,
		"actual":          actual,
		"baseline_before": update.BaselineBefore,
		"baseline_after":  update.BaselineAfter,
		"adjusted":        update.Adjusted,
	}).Info("Prediction model updated")

	return update
}

// RecordPerformance appends a prediction to the exported performance history
func (p *predictor) RecordPerformance(pred models.QualityPrediction) {
	if !pred.Format.IsValid() {
		return
	}
	p.state.AppendPerformance(pred.Format, models.PerformanceEntry{
		Timestamp:     p.now().UTC(),
		Quality:       pred.PredictedQuality,
		Improvement:   pred.ImprovementPercentage,
		EstimatedTime: pred.EstimatedTime,
	})
}

func (p *predictor) ExportPerformanceHistory() models.PerformanceReport {
	return p.state.Performance()
}

func (p *predictor) RestorePerformanceHistory(report models.PerformanceReport) int {
	n := p.state.RestorePerformance(report)
	p.log.WithField("entries", n).Info("Performance history restored")
	return n
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
