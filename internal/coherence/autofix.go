package coherence

import "github.com/zedarvates/storycore-grid/pkg/models"

// Autofixer decides whether a weak sequence should be re-rendered and with
// which adjustment parameters. adapted carries the coherence score expressed
// on a 0-255 scale under the "sharpness" key, plus the raw "coherence_score".
type Autofixer interface {
	ShouldRetry(id string, adapted map[string]float64) (bool, map[string]float64)
}

// AdaptedMetric maps a coherence score in [0,1] onto the 0-255 scale an
// external autofix service expects for its sharpness input.
// TODO: replace the linear score*255 mapping once a calibration against real
// autofix outcomes exists.
func AdaptedMetric(score float64) float64 {
	return clamp01(score) * 255
}

// ladderStep is one rung of the built-in severity ladder
type ladderStep struct {
	severity    models.AutofixSeverity
	improvement float64
	params      map[string]float64
	actions     []string
}

var severityLadder = []ladderStep{
	{
		severity:    models.SeverityMinor,
		improvement: 1.0,
		params:      map[string]float64{"color_blend": 0.3, "brightness_nudge": 0.2, "contrast_nudge": 0.15},
		actions:     []string{"blend_adjacent_colors"},
	},
	{
		severity:    models.SeverityModerate,
		improvement: 0.85,
		params:      map[string]float64{"color_blend": 0.45, "brightness_nudge": 0.3, "contrast_nudge": 0.2, "style_lock": 1},
		actions:     []string{"blend_adjacent_colors", "normalize_lighting", "lock_style_reference"},
	},
	{
		severity:    models.SeverityMajor,
		improvement: 0.7,
		params:      map[string]float64{"color_blend": 0.6, "brightness_nudge": 0.4, "contrast_nudge": 0.3, "style_lock": 1, "rerender": 1},
		actions:     []string{"rerender_sequence", "lock_style_reference", "normalize_lighting"},
	},
}

// ladderFor picks the rung by how far below threshold the score sits,
// relative to the distance between threshold and the fatal floor.
func ladderFor(score, threshold, fatal float64) ladderStep {
	span := threshold - fatal
	ratio := 1.0
	if span > 0 {
		ratio = (threshold - score) / span
	}
	switch {
	case ratio < 1.0/3:
		return severityLadder[0]
	case ratio < 2.0/3:
		return severityLadder[1]
	default:
		return severityLadder[2]
	}
}

// LadderAutofixer is the built-in autofixer; it always retries using the
// parameters of the severity ladder rung matching the score.
type LadderAutofixer struct {
	threshold float64
	fatal     float64
}

// NewLadderAutofixer creates the default autofixer for the given thresholds
func NewLadderAutofixer(threshold, fatal float64) *LadderAutofixer {
	return &LadderAutofixer{threshold: threshold, fatal: fatal}
}

// ShouldRetry implements Autofixer
func (l *LadderAutofixer) ShouldRetry(_ string, adapted map[string]float64) (bool, map[string]float64) {
	score, ok := adapted["coherence_score"]
	if !ok {
		score = adapted["sharpness"] / 255
	}
	if score >= l.threshold {
		return false, nil
	}
	return true, copyParams(ladderFor(score, l.threshold, l.fatal).params)
}

func copyParams(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
