package models

import "time"

// RGB is a colour triple with channels in [0,255]
type RGB [3]float64

// Panel is the feature summary of one rendered image
type Panel struct {
	ID                 string             `json:"id"`
	DominantColors     []RGB              `json:"dominant_colors"`
	Brightness         float64            `json:"brightness"`
	Contrast           float64            `json:"contrast"`
	StyleFeatures      map[string]float64 `json:"style_features,omitempty"`
	PositionInSequence int                `json:"position_in_sequence"`
}

// Clone returns a deep copy of p
func (p Panel) Clone() Panel {
	out := p
	if p.DominantColors != nil {
		out.DominantColors = make([]RGB, len(p.DominantColors))
		copy(out.DominantColors, p.DominantColors)
	}
	if p.StyleFeatures != nil {
		out.StyleFeatures = make(map[string]float64, len(p.StyleFeatures))
		for k, v := range p.StyleFeatures {
			out.StyleFeatures[k] = v
		}
	}
	return out
}

// PairCoherence breaks down the coherence between two adjacent panels
type PairCoherence struct {
	Overall    float64 `json:"overall"`
	Color      float64 `json:"color"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Style      float64 `json:"style"`
}

// CoherenceMetrics aggregates pairwise coherence over a sequence, all in [0,1]
type CoherenceMetrics struct {
	VisualSimilarity       float64 `json:"visual_similarity"`
	ColorSmoothness        float64 `json:"color_smoothness"`
	StyleConsistency       float64 `json:"style_consistency"`
	LightingCoherence      float64 `json:"lighting_coherence"`
	TemporalCoherenceScore float64 `json:"temporal_coherence_score"`
	PanelCount             int     `json:"panel_count"`
	PairCount              int     `json:"pair_count"`
}

// ProblemArea is one continuity issue with its remediation
type ProblemArea struct {
	Area       string  `json:"area"`
	Score      float64 `json:"score"`
	Threshold  float64 `json:"threshold"`
	Suggestion string  `json:"suggestion"`
}

// ContinuityReport wraps coherence metrics with flagged problem areas
type ContinuityReport struct {
	Format               GridFormat       `json:"format"`
	Applicable           bool             `json:"applicable"`
	Metrics              CoherenceMetrics `json:"metrics"`
	ProblemAreas         []ProblemArea    `json:"problem_areas"`
	ContinuityMaintained bool             `json:"continuity_maintained"`
}

// AutofixSeverity grades how far a coherence score fell below threshold
type AutofixSeverity string

const (
	SeverityMinor    AutofixSeverity = "minor"
	SeverityModerate AutofixSeverity = "moderate"
	SeverityMajor    AutofixSeverity = "major"
)

// AutofixAction is a corrective action for a sequence with weak coherence
type AutofixAction struct {
	ID                  string             `json:"id"`
	Severity            AutofixSeverity    `json:"severity"`
	CoherenceScore      float64            `json:"coherence_score"`
	Threshold           float64            `json:"threshold"`
	ExpectedImprovement float64            `json:"expected_improvement"`
	Source              string             `json:"source"`
	Parameters          map[string]float64 `json:"parameters"`
	Actions             []string           `json:"actions"`
	CreatedAt           time.Time          `json:"created_at"`
}

// CoherenceAnalysis is the combined post-render coherence result
type CoherenceAnalysis struct {
	Format           GridFormat       `json:"format"`
	CoherenceMetrics CoherenceMetrics `json:"coherence_metrics"`
	ContinuityReport ContinuityReport `json:"continuity_report"`
	AutofixTriggered bool             `json:"autofix_triggered"`
	AutofixAction    *AutofixAction   `json:"autofix_action,omitempty"`
	ThresholdMet     bool             `json:"threshold_met"`
}

// TransitionDecision records what transition optimization did to one panel
type TransitionDecision struct {
	PanelID         string  `json:"panel_id"`
	Position        int     `json:"position"`
	Decision        string  `json:"decision"`
	CoherenceBefore float64 `json:"coherence_before"`
	CoherenceAfter  float64 `json:"coherence_after"`
}

const (
	DecisionMaintained = "maintained"
	DecisionEnhanced   = "enhanced"
)

// TransitionStats summarises transition decisions
type TransitionStats struct {
	Maintained      int     `json:"maintained"`
	Enhanced        int     `json:"enhanced"`
	EnhancementRate float64 `json:"enhancement_rate"`
}
