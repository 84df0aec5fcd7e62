package selector

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/internal/strategy"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

const (
	weightContent    = 0.4
	weightComplexity = 0.2
	weightMotion     = 0.2
	weightTemporal   = 0.2

	tieBreakMargin = 0.05
	// absorbs float noise so a gap of exactly 0.05 still counts as a tie
	tieEpsilon = 1e-9

	maxAlternatives = 3
)

// Selection is the ranked outcome of format selection
type Selection struct {
	Format             models.GridFormat          `json:"format"`
	Score              float64                    `json:"score"`
	RefinedContentType models.ContentType         `json:"refined_content_type"`
	Evaluations        []models.FormatEvaluation  `json:"evaluations"`
	Alternatives       []models.FormatAlternative `json:"alternatives"`
	Justification      string                     `json:"justification"`
	FallbackApplied    bool                       `json:"fallback_applied"`
	TieBroken          bool                       `json:"tie_broken"`
	Warnings           []string                   `json:"warnings,omitempty"`
}

// Selector ranks grid formats for a content profile
type Selector interface {
	RefineContentType(analysis models.ContentAnalysis) models.ContentType
	EvaluateFormats(analysis models.ContentAnalysis) []models.FormatEvaluation
	Select(analysis models.ContentAnalysis, prefs models.FormatPreferences) (Selection, error)
}

type selector struct {
	log *logrus.Entry
}

// NewSelector creates a format selector backed by the strategy table
func NewSelector() Selector {
	return &selector{log: logger.ForComponent("format_selector")}
}

// RefineContentType re-derives the content type from motion and cast size
func (s *selector) RefineContentType(a models.ContentAnalysis) models.ContentType {
	switch {
	case a.MotionIntensity > 0.7:
		return models.ContentAction
	case a.CharacterCount >= 2 && a.MotionIntensity < 0.3:
		return models.ContentDialogue
	case a.CharacterCount <= 1 && a.MotionIntensity < 0.2:
		return models.ContentLandscape
	case a.CharacterCount == 1:
		return models.ContentPortrait
	}
	if a.ContentType.IsValid() {
		return a.ContentType
	}
	return models.ContentDialogue
}

// EvaluateFormats returns exactly one evaluation per format in canonical order
func (s *selector) EvaluateFormats(a models.ContentAnalysis) []models.FormatEvaluation {
	ct := s.RefineContentType(a)
	evals := make([]models.FormatEvaluation, 0, 4)
	for _, st := range strategy.All() {
		eval := models.FormatEvaluation{
			Format:               st.Format(),
			ContentScore:         st.ContentAffinity(ct),
			ComplexityScore:      st.ComplexityFit(a.SceneComplexity),
			MotionScore:          st.MotionFit(a.MotionIntensity),
			TemporalScore:        st.TemporalFit(a.TemporalRequirements),
			ProcessingComplexity: st.Spec().ProcessingComplexity,
		}
		eval.Score = clamp01(weightContent*eval.ContentScore +
			weightComplexity*eval.ComplexityScore +
			weightMotion*eval.MotionScore +
			weightTemporal*eval.TemporalScore)
		evals = append(evals, eval)
	}
	return evals
}

// Select picks the best preferred format. When nothing reaches the minimum
// quality threshold it falls back to 3x3, but only if 3x3 is preferred;
// otherwise the best candidate is kept and a warning is attached.
func (s *selector) Select(a models.ContentAnalysis, prefs models.FormatPreferences) (Selection, error) {
	evals := s.EvaluateFormats(a)
	candidates, err := filterPreferred(evals, prefs.PreferredFormats)
	if err != nil {
		return Selection{}, err
	}

	// stable sort keeps canonical order among equal scores
	ranked := make([]models.FormatEvaluation, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	best := ranked[0]

	sel := Selection{
		RefinedContentType: s.RefineContentType(a),
		Evaluations:        evals,
	}

	threshold := prefs.MinimumQualityThreshold / 100
	chosen := best
	switch {
	case best.Score < threshold:
		if sq, ok := findFormat(candidates, models.Square3x3); ok {
			chosen = sq
			sel.FallbackApplied = true
		} else {
			sel.Warnings = append(sel.Warnings, fmt.Sprintf(
				"no preferred format reaches the minimum quality threshold of %.0f; 3x3 fallback is not among the preferred formats",
				prefs.MinimumQualityThreshold))
		}
	default:
		chosen = tieBreak(ranked)
		sel.TieBroken = chosen.Format != best.Format
	}

	sel.Format = chosen.Format
	sel.Score = chosen.Score
	for _, e := range ranked {
		if e.Format == chosen.Format {
			continue
		}
		if len(sel.Alternatives) == maxAlternatives {
			break
		}
		sel.Alternatives = append(sel.Alternatives, models.FormatAlternative{Format: e.Format, Score: e.Score})
	}
	sel.Justification = justify(sel, a, prefs, chosen)

	s.log.WithFields(logrus.Fields{
		"format":       sel.Format,
		"score":        sel.Score,
		"content_type": sel.RefinedContentType,
		"fallback":     sel.FallbackApplied,
		"tie_broken":   sel.TieBroken,
		"candidates":   len(candidates),
	}).Debug("Format selected")

	return sel, nil
}

func filterPreferred(evals []models.FormatEvaluation, preferred []models.GridFormat) ([]models.FormatEvaluation, error) {
	if len(preferred) == 0 {
		return evals, nil
	}
	allowed := make(map[models.GridFormat]bool, len(preferred))
	for _, f := range preferred {
		allowed[f] = true
	}
	var out []models.FormatEvaluation
	for _, e := range evals {
		if allowed[e.Format] {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.NewConfigurationError(
			"no candidate formats remain after applying preferred_formats", nil).
			WithDetails("supported formats: " + strings.Join(models.FormatStrings(), ", "))
	}
	return out, nil
}

// tieBreak prefers the cheapest format among those within the margin of the best
func tieBreak(ranked []models.FormatEvaluation) models.FormatEvaluation {
	best := ranked[0]
	chosen := best
	for _, e := range ranked[1:] {
		if best.Score-e.Score > tieBreakMargin+tieEpsilon {
			break
		}
		if e.ProcessingComplexity < chosen.ProcessingComplexity {
			chosen = e
		}
	}
	return chosen
}

func findFormat(evals []models.FormatEvaluation, f models.GridFormat) (models.FormatEvaluation, bool) {
	for _, e := range evals {
		if e.Format == f {
			return e, true
		}
	}
	return models.FormatEvaluation{}, false
}

func justify(sel Selection, a models.ContentAnalysis, prefs models.FormatPreferences, chosen models.FormatEvaluation) string {
	spec := strategy.MustFor(chosen.Format).Spec()
	var b strings.Builder
	fmt.Fprintf(&b, "%s selected for %s content (score %.2f).", chosen.Format, sel.RefinedContentType, chosen.Score)

	if sel.FallbackApplied {
		fmt.Fprintf(&b, " No format reached the minimum quality threshold of %.0f, so the 3x3 baseline is used.",
			prefs.MinimumQualityThreshold)
		return b.String()
	}
	if spec.IsLinear && a.TemporalRequirements {
		fmt.Fprintf(&b, " The linear layout keeps sequential panels temporally coherent (coherence weight %.2f).",
			spec.TemporalCoherenceWeight)
	}
	if !spec.IsLinear {
		b.WriteString(" The square grid favours spatial variety over temporal flow.")
	}
	if sel.TieBroken || prefs.QualityVsSpeed < 0.5 {
		fmt.Fprintf(&b, " Its lower processing complexity (%.2f) keeps generation fast.", spec.ProcessingComplexity)
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
