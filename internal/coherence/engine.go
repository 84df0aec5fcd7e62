package coherence

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/pkg/models"
	"gonum.org/v1/gonum/floats"
)

const (
	sourceCollaborator = "collaborator"
	sourceBuiltIn      = "built_in"

	// bounded so a long-running service does not grow without limit
	maxDecisionLog = 1000
)

// Engine measures and corrects visual continuity of linear panel sequences.
// Square grids are never coherence-checked.
type Engine interface {
	ColorCoherence(c1, c2 []models.RGB) float64
	PairwiseCoherence(p1, p2 models.Panel) models.PairCoherence
	CalculateSequenceMetrics(panels []models.Panel) models.CoherenceMetrics
	OptimizePanelTransitions(panels []models.Panel, format models.GridFormat) ([]models.Panel, []models.TransitionDecision, error)
	EnsureVisualContinuity(panels []models.Panel, format models.GridFormat) (models.ContinuityReport, error)
	TriggerAutofixIfNeeded(score float64) (*models.AutofixAction, error)
	Stats() models.TransitionStats
	Decisions() []models.TransitionDecision
	Threshold() float64
}

type engine struct {
	opts      Options
	autofixer Autofixer
	builtIn   *LadderAutofixer
	log       *logrus.Entry
	now       func() time.Time

	mu         sync.RWMutex
	decisions  []models.TransitionDecision
	maintained int
	enhanced   int
}

// NewEngine creates a coherence engine. autofixer may be nil, in which case
// the built-in severity ladder decides alone.
func NewEngine(opts Options, autofixer Autofixer) Engine {
	opts = opts.normalized()
	return &engine{
		opts:      opts,
		autofixer: autofixer,
		builtIn:   NewLadderAutofixer(opts.Threshold, opts.FatalThreshold),
		log:       logger.ForComponent("temporal_coherence"),
		now:       time.Now,
	}
}

func (e *engine) Threshold() float64 {
	return e.opts.Threshold
}

func (e *engine) ColorCoherence(c1, c2 []models.RGB) float64 {
	return ColorCoherence(c1, c2)
}

func (e *engine) PairwiseCoherence(p1, p2 models.Panel) models.PairCoherence {
	return PairwiseCoherence(p1, p2)
}

func (e *engine) CalculateSequenceMetrics(panels []models.Panel) models.CoherenceMetrics {
	return SequenceMetrics(panels)
}

// OptimizePanelTransitions returns an adjusted copy of the sequence. Each
// panel is compared with its already adjusted predecessor; weak transitions
// are pulled toward the predecessor's colours and lighting.
func (e *engine) OptimizePanelTransitions(panels []models.Panel, format models.GridFormat) ([]models.Panel, []models.TransitionDecision, error) {
	if !format.IsValid() {
		return nil, nil, apperrors.NewUnsupportedFormatError(string(format), models.FormatStrings())
	}
	out := orderedCopy(panels)
	if !format.IsLinear() || len(out) < 2 {
		return out, nil, nil
	}

	decisions := make([]models.TransitionDecision, 0, len(out)-1)
	for i := 1; i < len(out); i++ {
		prev := out[i-1]
		before := PairwiseCoherence(prev, out[i]).Overall
		d := models.TransitionDecision{
			PanelID:         out[i].ID,
			Position:        out[i].PositionInSequence,
			Decision:        models.DecisionMaintained,
			CoherenceBefore: before,
			CoherenceAfter:  before,
		}
		if before < e.opts.Threshold {
			out[i] = e.blendToward(out[i], prev)
			d.Decision = models.DecisionEnhanced
			d.CoherenceAfter = PairwiseCoherence(prev, out[i]).Overall
		}
		decisions = append(decisions, d)
	}

	e.record(decisions)
	e.log.WithFields(logrus.Fields{
		"format":   format,
		"panels":   len(out),
		"enhanced": countEnhanced(decisions),
	}).Debug("Panel transitions optimized")

	return out, decisions, nil
}

func (e *engine) blendToward(p, prev models.Panel) models.Panel {
	if len(prev.DominantColors) > 0 {
		for i := range p.DominantColors {
			j, _ := nearestColor(p.DominantColors[i], prev.DominantColors)
			target := prev.DominantColors[j]
			diff := make([]float64, 3)
			floats.SubTo(diff, target[:], p.DominantColors[i][:])
			blended := p.DominantColors[i]
			floats.AddScaled(blended[:], e.opts.ColorBlend, diff)
			for c := range blended {
				blended[c] = math.Max(0, math.Min(255, blended[c]))
			}
			p.DominantColors[i] = blended
		}
	}
	p.Brightness = clamp01(p.Brightness + e.opts.BrightnessNudge*(prev.Brightness-p.Brightness))
	p.Contrast = clamp01(p.Contrast + e.opts.ContrastNudge*(prev.Contrast-p.Contrast))
	return p
}

func (e *engine) record(decisions []models.TransitionDecision) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range decisions {
		if d.Decision == models.DecisionEnhanced {
			e.enhanced++
		} else {
			e.maintained++
		}
	}
	e.decisions = append(e.decisions, decisions...)
	if len(e.decisions) > maxDecisionLog {
		e.decisions = e.decisions[len(e.decisions)-maxDecisionLog:]
	}
}

// Stats summarises every transition decision made by this engine
func (e *engine) Stats() models.TransitionStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := models.TransitionStats{Maintained: e.maintained, Enhanced: e.enhanced}
	if total := e.maintained + e.enhanced; total > 0 {
		s.EnhancementRate = float64(e.enhanced) / float64(total)
	}
	return s
}

// Decisions returns a copy of the most recent transition decisions
func (e *engine) Decisions() []models.TransitionDecision {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.TransitionDecision, len(e.decisions))
	copy(out, e.decisions)
	return out
}

// EnsureVisualContinuity wraps sequence metrics into a report of problem areas
func (e *engine) EnsureVisualContinuity(panels []models.Panel, format models.GridFormat) (models.ContinuityReport, error) {
	if !format.IsValid() {
		return models.ContinuityReport{}, apperrors.NewUnsupportedFormatError(string(format), models.FormatStrings())
	}
	report := models.ContinuityReport{
		Format:       format,
		Applicable:   format.IsLinear(),
		ProblemAreas: []models.ProblemArea{},
	}
	if !report.Applicable {
		report.ContinuityMaintained = true
		return report, nil
	}

	m := SequenceMetrics(panels)
	report.Metrics = m

	checks := []struct {
		area       string
		score      float64
		min        float64
		suggestion string
	}{
		{"abrupt_color_transitions", m.ColorSmoothness, e.opts.MinColorSmoothness,
			"Constrain the colour palette across adjacent panels or reuse the previous panel's palette as a reference"},
		{"style_inconsistency", m.StyleConsistency, e.opts.MinStyleConsistency,
			"Lock the style reference and sampler settings for every panel of the sequence"},
		{"lighting_incoherence", m.LightingCoherence, e.opts.MinLightingCoherence,
			"Keep lighting direction and exposure consistent between consecutive panels"},
		{"low_visual_similarity", m.VisualSimilarity, e.opts.MinVisualSimilarity,
			"Anchor each panel on the previous one (image-to-image with low denoise) to keep the scene recognisable"},
	}
	for _, c := range checks {
		if c.score < c.min {
			report.ProblemAreas = append(report.ProblemAreas, models.ProblemArea{
				Area:       c.area,
				Score:      c.score,
				Threshold:  c.min,
				Suggestion: c.suggestion,
			})
		}
	}
	report.ContinuityMaintained = len(report.ProblemAreas) == 0 && m.TemporalCoherenceScore >= e.opts.Threshold
	return report, nil
}

// TriggerAutofixIfNeeded returns nil at or above threshold, an AutofixAction
// between the fatal floor and threshold, and a TemporalCoherenceError below
// the floor. The error is never downgraded to an action.
func (e *engine) TriggerAutofixIfNeeded(score float64) (*models.AutofixAction, error) {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("coherence score %v outside [0,1]", score), nil)
	}
	if score >= e.opts.Threshold {
		return nil, nil
	}
	if score < e.opts.FatalThreshold {
		e.log.WithFields(logrus.Fields{
			"score":   score,
			"minimum": e.opts.FatalThreshold,
		}).Error("Temporal coherence below minimum")
		return nil, apperrors.NewTemporalCoherenceError(score, e.opts.FatalThreshold)
	}

	step := ladderFor(score, e.opts.Threshold, e.opts.FatalThreshold)
	gap := e.opts.Threshold - score
	action := &models.AutofixAction{
		ID:                  uuid.New().String(),
		Severity:            step.severity,
		CoherenceScore:      score,
		Threshold:           e.opts.Threshold,
		ExpectedImprovement: gap * step.improvement,
		Actions:             append([]string(nil), step.actions...),
		CreatedAt:           e.now().UTC(),
	}

	adapted := map[string]float64{
		"sharpness":       AdaptedMetric(score),
		"coherence_score": score,
	}
	if e.autofixer != nil {
		if retry, params := e.autofixer.ShouldRetry(action.ID, adapted); retry {
			action.Source = sourceCollaborator
			action.Parameters = params
		}
	}
	if action.Source == "" {
		_, params := e.builtIn.ShouldRetry(action.ID, adapted)
		action.Source = sourceBuiltIn
		action.Parameters = params
	}

	e.log.WithFields(logrus.Fields{
		"action_id": action.ID,
		"score":     score,
		"severity":  action.Severity,
		"source":    action.Source,
	}).Warn("Autofix triggered")

	return action, nil
}

func countEnhanced(decisions []models.TransitionDecision) int {
	n := 0
	for _, d := range decisions {
		if d.Decision == models.DecisionEnhanced {
			n++
		}
	}
	return n
}
