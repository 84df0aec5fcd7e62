package coherence

import (
	"math"
	"sort"

	"github.com/zedarvates/storycore-grid/pkg/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	maxDominantColors = 3

	weightColor      = 0.4
	weightBrightness = 0.2
	weightContrast   = 0.2
	weightStyle      = 0.2

	weightSimilarity = 0.3
	weightSmoothness = 0.25
	weightStyleSeq   = 0.25
	weightLighting   = 0.2

	// neutral score when only one side carries data
	neutralCoherence = 0.5
)

// maxRGBDistance is the distance between black and white
var maxRGBDistance = math.Sqrt(3 * 255 * 255)

// ColorCoherence compares dominant colour palettes. For each of the first
// palette's colours the nearest colour of the second is found; the mean of
// those distances is normalised by the black-to-white distance.
func ColorCoherence(c1, c2 []models.RGB) float64 {
	c1 = limitColors(c1)
	c2 = limitColors(c2)
	switch {
	case len(c1) == 0 && len(c2) == 0:
		return 1.0
	case len(c1) == 0 || len(c2) == 0:
		return neutralCoherence
	}

	minima := make([]float64, len(c1))
	for i, a := range c1 {
		_, minima[i] = nearestColor(a, c2)
	}
	return clamp01(1 - stat.Mean(minima, nil)/maxRGBDistance)
}

// nearestColor returns the index and distance of the colour in palette closest to c
func nearestColor(c models.RGB, palette []models.RGB) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for j, p := range palette {
		d := floats.Distance(c[:], p[:], 2)
		if d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}

// StyleCoherence is 1 minus the mean absolute difference over shared style
// keys. Panels without any style features are treated as identical in style.
func StyleCoherence(s1, s2 map[string]float64) float64 {
	if len(s1) == 0 && len(s2) == 0 {
		return 1.0
	}
	keys := make([]string, 0, len(s1))
	for k := range s1 {
		if _, ok := s2[k]; ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return neutralCoherence
	}
	sort.Strings(keys)
	diffs := make([]float64, len(keys))
	for i, k := range keys {
		diffs[i] = math.Abs(s1[k] - s2[k])
	}
	return clamp01(1 - stat.Mean(diffs, nil))
}

// PairwiseCoherence scores the visual continuity between two panels
func PairwiseCoherence(p1, p2 models.Panel) models.PairCoherence {
	pc := models.PairCoherence{
		Color:      ColorCoherence(p1.DominantColors, p2.DominantColors),
		Brightness: clamp01(1 - math.Abs(p1.Brightness-p2.Brightness)),
		Contrast:   clamp01(1 - math.Abs(p1.Contrast-p2.Contrast)),
		Style:      StyleCoherence(p1.StyleFeatures, p2.StyleFeatures),
	}
	pc.Overall = clamp01(weightColor*pc.Color +
		weightBrightness*pc.Brightness +
		weightContrast*pc.Contrast +
		weightStyle*pc.Style)
	return pc
}

// SequenceMetrics averages pairwise coherence over adjacent panels, ordered
// by position. Fewer than two panels is perfectly coherent.
func SequenceMetrics(panels []models.Panel) models.CoherenceMetrics {
	ordered := orderedCopy(panels)
	m := models.CoherenceMetrics{PanelCount: len(ordered)}
	if len(ordered) < 2 {
		m.VisualSimilarity = 1
		m.ColorSmoothness = 1
		m.StyleConsistency = 1
		m.LightingCoherence = 1
		m.TemporalCoherenceScore = 1
		return m
	}

	n := len(ordered) - 1
	similarity := make([]float64, n)
	color := make([]float64, n)
	style := make([]float64, n)
	lighting := make([]float64, n)
	for i := 1; i < len(ordered); i++ {
		pc := PairwiseCoherence(ordered[i-1], ordered[i])
		similarity[i-1] = pc.Overall
		color[i-1] = pc.Color
		style[i-1] = pc.Style
		lighting[i-1] = (pc.Brightness + pc.Contrast) / 2
	}

	m.PairCount = n
	m.VisualSimilarity = stat.Mean(similarity, nil)
	m.ColorSmoothness = stat.Mean(color, nil)
	m.StyleConsistency = stat.Mean(style, nil)
	m.LightingCoherence = stat.Mean(lighting, nil)
	m.TemporalCoherenceScore = clamp01(weightSimilarity*m.VisualSimilarity +
		weightSmoothness*m.ColorSmoothness +
		weightStyleSeq*m.StyleConsistency +
		weightLighting*m.LightingCoherence)
	return m
}

func orderedCopy(panels []models.Panel) []models.Panel {
	out := make([]models.Panel, len(panels))
	for i, p := range panels {
		out[i] = p.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PositionInSequence < out[j].PositionInSequence
	})
	return out
}

func limitColors(c []models.RGB) []models.RGB {
	if len(c) > maxDominantColors {
		return c[:maxDominantColors]
	}
	return c
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
