package quality

import (
	"math"
	"sort"

	"github.com/zedarvates/storycore-grid/internal/analyzer"
	"github.com/zedarvates/storycore-grid/internal/coherence"
	"github.com/zedarvates/storycore-grid/internal/strategy"
	"github.com/zedarvates/storycore-grid/pkg/models"
	"gonum.org/v1/gonum/stat"
)

const (
	weightAggregatedSharpness = 0.35
	weightGeneralSharpness    = 0.25
	weightColorCoherence      = 0.25
	weightTemporalConsistency = 0.15
)

// TrimmedMean drops ceil(fraction*n) samples at each end once there are at
// least three samples, then averages the rest.
func TrimmedMean(values []float64, fraction float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n >= 3 && fraction > 0 {
		k := int(math.Ceil(fraction * float64(n)))
		if 2*k >= n {
			k = (n - 1) / 2
		}
		sorted = sorted[k : n-k]
	}
	return stat.Mean(sorted, nil)
}

// computeMetrics derives bundle metrics from per-panel metrics ordered by position
func computeMetrics(format models.GridFormat, panels []models.PanelMetrics, opts Options) models.QualityMetrics {
	m := models.QualityMetrics{PanelCount: len(panels)}
	if len(panels) == 0 {
		return m
	}

	sharpness := make([]float64, len(panels))
	variances := make([]float64, len(panels))
	brightness := make([]float64, len(panels))
	contrast := make([]float64, len(panels))
	seq := make([]models.Panel, len(panels))
	for i, p := range panels {
		if p.Failed {
			m.FailedPanels++
		}
		sharpness[i] = analyzer.SharpnessScore(p.LaplacianVar, opts.BlurThreshold)
		variances[i] = p.LaplacianVar
		brightness[i] = p.Brightness
		contrast[i] = p.Contrast
		seq[i] = p.ToPanel()
	}

	m.AggregatedSharpness = TrimmedMean(sharpness, opts.TrimFraction)
	m.GeneralSharpness = analyzer.SharpnessScore(TrimmedMean(variances, opts.TrimFraction), opts.BlurThreshold)

	seqMetrics := coherence.SequenceMetrics(seq)
	m.ColorCoherence = seqMetrics.ColorSmoothness
	m.TemporalConsistency = seqMetrics.LightingCoherence
	m.TemporalCoherence = seqMetrics.TemporalCoherenceScore
	m.TransitionQuality = seqMetrics.VisualSimilarity * 100

	m.OverallQuality = clamp100(weightAggregatedSharpness*m.AggregatedSharpness +
		weightGeneralSharpness*m.GeneralSharpness +
		weightColorCoherence*m.ColorCoherence*100 +
		weightTemporalConsistency*m.TemporalConsistency*100)

	m.SpatialCoherence = spatialCoherence(format, seq)
	m.ComplexityHandling = complexityHandling(brightness, contrast)

	m.FormatSpecificScore = clamp100(strategy.MustFor(format).ComposeQuality(strategy.QualityInputs{
		BaseQuality:        m.OverallQuality,
		TemporalCoherence:  m.TemporalCoherence,
		TransitionQuality:  m.TransitionQuality,
		SpatialCoherence:   m.SpatialCoherence,
		ComplexityHandling: m.ComplexityHandling,
		PanelCount:         len(panels),
	}))
	return m
}

// spatialCoherence averages pairwise coherence of horizontally and vertically
// adjacent cells of a fully populated square grid. Anything else is neutral.
func spatialCoherence(format models.GridFormat, panels []models.Panel) float64 {
	if format.IsLinear() || len(panels) != format.PanelCount() {
		return 50.0
	}
	rows, cols := format.Rows(), format.Cols()
	var scores []float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if c+1 < cols {
				scores = append(scores, coherence.PairwiseCoherence(panels[i], panels[i+1]).Overall)
			}
			if r+1 < rows {
				scores = append(scores, coherence.PairwiseCoherence(panels[i], panels[i+cols]).Overall)
			}
		}
	}
	return clamp100(stat.Mean(scores, nil) * 100)
}

// complexityHandling rewards grids whose panels keep similar exposure
func complexityHandling(brightness, contrast []float64) float64 {
	if len(brightness) < 2 {
		return 100
	}
	spread := stat.PopVariance(brightness, nil) + stat.PopVariance(contrast, nil)
	return clamp100(100 * (1 - math.Min(1, 2*spread)))
}

// Classify buckets a score in [0,100]
func Classify(score float64) models.QualityClass {
	switch {
	case score >= 90:
		return models.QualityExcellent
	case score >= 75:
		return models.QualityGood
	case score >= 60:
		return models.QualityAcceptable
	default:
		return models.QualityPoor
	}
}

func clamp100(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
