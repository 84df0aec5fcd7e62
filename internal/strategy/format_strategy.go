package strategy

import (
	"math"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

// QualityInputs are the bundle level figures a strategy composes into a
// format specific score. Scores are in [0,100], TemporalCoherence in [0,1].
type QualityInputs struct {
	BaseQuality        float64
	TemporalCoherence  float64
	TransitionQuality  float64
	SpatialCoherence   float64
	ComplexityHandling float64
	PanelCount         int
}

// FormatStrategy holds everything that differs between grid formats
type FormatStrategy interface {
	Format() models.GridFormat
	Spec() models.FormatSpec
	ContentAffinity(ct models.ContentType) float64
	ComplexityFit(sceneComplexity float64) float64
	MotionFit(motionIntensity float64) float64
	TemporalFit(temporalRequired bool) float64
	BaselineQuality() float64
	BaselineTime() float64
	ComposeQuality(in QualityInputs) float64
	GetStrategyName() string
}

// neutralTemporalFit is used when content has no temporal requirements
const neutralTemporalFit = 0.7

// neutralSpatialCoherence is used when a square grid is not fully populated
const neutralSpatialCoherence = 50.0

type profile struct {
	format               models.GridFormat
	optimalFor           []models.ContentType
	processingComplexity float64
	temporalWeight       float64
	affinity             map[models.ContentType]float64
	baselineQuality      float64
	baselineTime         float64
}

func (p profile) Format() models.GridFormat {
	return p.format
}

func (p profile) Spec() models.FormatSpec {
	optimal := make([]models.ContentType, len(p.optimalFor))
	copy(optimal, p.optimalFor)
	return models.FormatSpec{
		Format:                  p.format,
		Rows:                    p.format.Rows(),
		Cols:                    p.format.Cols(),
		PanelCount:              p.format.PanelCount(),
		IsLinear:                p.format.IsLinear(),
		OptimalFor:              optimal,
		ProcessingComplexity:    p.processingComplexity,
		TemporalCoherenceWeight: p.temporalWeight,
	}
}

func (p profile) ContentAffinity(ct models.ContentType) float64 {
	if v, ok := p.affinity[ct]; ok {
		return v
	}
	return 0.5
}

func (p profile) TemporalFit(temporalRequired bool) float64 {
	if temporalRequired {
		return p.temporalWeight
	}
	return neutralTemporalFit
}

func (p profile) BaselineQuality() float64 {
	return p.baselineQuality
}

func (p profile) BaselineTime() float64 {
	return p.baselineTime
}

// squareStrategy scores the 3x3 overview grid
type squareStrategy struct {
	profile
}

func (s squareStrategy) ComplexityFit(sceneComplexity float64) float64 {
	return clamp01(sceneComplexity)
}

func (s squareStrategy) MotionFit(motionIntensity float64) float64 {
	return clamp01(1 - clamp01(motionIntensity)*0.5)
}

// ComposeQuality weights base quality with spatial coherence and how evenly
// exposure is handled across the grid.
func (s squareStrategy) ComposeQuality(in QualityInputs) float64 {
	spatial := in.SpatialCoherence
	if in.PanelCount != s.format.PanelCount() {
		spatial = neutralSpatialCoherence
	}
	return clamp(0.6*in.BaseQuality+0.25*spatial+0.15*in.ComplexityHandling, 0, 100)
}

func (s squareStrategy) GetStrategyName() string {
	return "square_grid"
}

// linearStrategy scores the temporally ordered strips
type linearStrategy struct {
	profile
}

func (l linearStrategy) ComplexityFit(sceneComplexity float64) float64 {
	return clamp01(1 - clamp01(sceneComplexity))
}

func (l linearStrategy) MotionFit(motionIntensity float64) float64 {
	return clamp01(motionIntensity)
}

// ComposeQuality weights base quality with temporal coherence and transitions
func (l linearStrategy) ComposeQuality(in QualityInputs) float64 {
	return clamp(0.5*in.BaseQuality+0.3*(in.TemporalCoherence*100)+0.2*in.TransitionQuality, 0, 100)
}

func (l linearStrategy) GetStrategyName() string {
	return "linear_sequence"
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
