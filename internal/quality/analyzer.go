package quality

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/internal/analyzer"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/pkg/models"
	"github.com/zedarvates/storycore-grid/pkg/validation"
)

// Analyzer scores rendered panel bundles per grid format and keeps a rolling
// quality history for each format.
type Analyzer interface {
	AnalyzeImages(format models.GridFormat, panels []analyzer.PanelImage) (models.QualityReport, error)
	AnalyzeMetrics(format models.GridFormat, panels []models.PanelMetrics) (models.QualityReport, error)
	CalculateMetrics(format models.GridFormat, panels []models.PanelMetrics) (models.QualityMetrics, error)
	Classify(score float64) models.QualityClass
	CompareFormats(results map[models.GridFormat]models.QualityMetrics, baseline models.GridFormat) (models.FormatComparison, error)

	RecordQuality(format models.GridFormat, score float64)
	History(format models.GridFormat) []models.QualityHistoryEntry
	Trend(format models.GridFormat) models.Trend
	ExportHistory() models.QualityHistoryReport
	RestoreHistory(report models.QualityHistoryReport) int

	Close() error
}

type qualityAnalyzer struct {
	opts      Options
	panels    analyzer.PanelAnalyzer
	validator *validation.PanelValidator
	history   *history
	log       *logrus.Entry
	now       func() time.Time
}

// NewAnalyzer creates a quality analyzer. panels may be nil, in which case a
// panel analyzer is built from opts.Panel.
func NewAnalyzer(opts Options, panels analyzer.PanelAnalyzer) Analyzer {
	opts = opts.normalized()
	if panels == nil {
		panels = analyzer.NewPanelAnalyzer(opts.Panel)
	}
	return &qualityAnalyzer{
		opts:      opts,
		panels:    panels,
		validator: validation.NewPanelValidator(),
		history:   newHistory(opts.HistoryCap, opts.TrendWindow, opts.TrendDeadband),
		log:       logger.ForComponent("quality_analyzer"),
		now:       time.Now,
	}
}

func (qa *qualityAnalyzer) AnalyzeImages(format models.GridFormat, panels []analyzer.PanelImage) (models.QualityReport, error) {
	if err := qa.checkInput(format, len(panels)); err != nil {
		return models.QualityReport{}, err
	}
	return qa.AnalyzeMetrics(format, qa.panels.AnalyzePanels(panels))
}

func (qa *qualityAnalyzer) AnalyzeMetrics(format models.GridFormat, panels []models.PanelMetrics) (models.QualityReport, error) {
	metrics, err := qa.CalculateMetrics(format, panels)
	if err != nil {
		return models.QualityReport{}, err
	}

	ordered := orderByPosition(panels)
	report := models.QualityReport{
		ID:             uuid.New().String(),
		Format:         format,
		Metrics:        metrics,
		Classification: Classify(metrics.FormatSpecificScore),
		Issues:         qa.validator.ValidatePanels(ordered),
		Panels:         ordered,
		CreatedAt:      qa.now().UTC(),
	}
	report.Strengths, report.Weaknesses, report.Suggestions = qa.assess(format, metrics)

	qa.RecordQuality(format, metrics.FormatSpecificScore)
	report.Trend = qa.Trend(format)

	qa.log.WithFields(logrus.Fields{
		"format":         format,
		"panels":         metrics.PanelCount,
		"failed_panels":  metrics.FailedPanels,
		"overall":        metrics.OverallQuality,
		"format_score":   metrics.FormatSpecificScore,
		"classification": report.Classification,
		"trend":          report.Trend,
	}).Info("Panel quality analyzed")

	return report, nil
}

func (qa *qualityAnalyzer) CalculateMetrics(format models.GridFormat, panels []models.PanelMetrics) (models.QualityMetrics, error) {
	if err := qa.checkInput(format, len(panels)); err != nil {
		return models.QualityMetrics{}, err
	}
	return computeMetrics(format, orderByPosition(panels), qa.opts), nil
}

func (qa *qualityAnalyzer) checkInput(format models.GridFormat, n int) error {
	if !format.IsValid() {
		return apperrors.NewUnsupportedFormatError(string(format), models.FormatStrings())
	}
	if n == 0 {
		return apperrors.NewQualityAnalysisError("no panels to analyze", nil)
	}
	if n > format.PanelCount() {
		return apperrors.NewQualityAnalysisError(
			fmt.Sprintf("format %s holds %d panels, got %d", format, format.PanelCount(), n), nil)
	}
	return nil
}

func (qa *qualityAnalyzer) Classify(score float64) models.QualityClass {
	return Classify(score)
}

// assess turns metrics into human readable strengths, weaknesses and suggestions
func (qa *qualityAnalyzer) assess(format models.GridFormat, m models.QualityMetrics) (strengths, weaknesses, suggestions []string) {
	strengths, weaknesses, suggestions = []string{}, []string{}, []string{}

	if m.AggregatedSharpness >= 75 {
		strengths = append(strengths, "Panels are consistently sharp")
	} else if m.AggregatedSharpness < 50 {
		weaknesses = append(weaknesses, "Panels lack sharpness")
		suggestions = append(suggestions, "Increase sampling steps or apply detail-preserving upscaling")
	}

	if m.ColorCoherence >= 0.85 {
		strengths = append(strengths, "Colour palette is consistent across panels")
	} else if m.ColorCoherence < 0.6 {
		weaknesses = append(weaknesses, "Colour palette drifts between panels")
		suggestions = append(suggestions, "Reuse a shared palette or colour reference for every panel")
	}

	if m.TemporalConsistency >= 0.85 {
		strengths = append(strengths, "Lighting stays consistent between panels")
	} else if m.TemporalConsistency < 0.6 {
		weaknesses = append(weaknesses, "Lighting varies between panels")
		suggestions = append(suggestions, "Keep lighting direction and exposure fixed across the grid")
	}

	if format.IsLinear() {
		if m.TemporalCoherence >= qa.opts.CoherenceThreshold {
			strengths = append(strengths, "Sequence keeps temporal coherence")
		} else {
			weaknesses = append(weaknesses, fmt.Sprintf("Temporal coherence %.2f is below %.2f", m.TemporalCoherence, qa.opts.CoherenceThreshold))
			suggestions = append(suggestions, "Run transition optimization or anchor each panel on its predecessor")
		}
	} else if m.PanelCount != format.PanelCount() {
		weaknesses = append(weaknesses, "Square grid is not fully populated")
		suggestions = append(suggestions, "Render all nine panels before judging spatial coherence")
	} else if m.SpatialCoherence >= 75 {
		strengths = append(strengths, "Neighbouring panels read as one composition")
	}

	if m.FailedPanels > 0 {
		weaknesses = append(weaknesses, fmt.Sprintf("%d panel(s) could not be measured", m.FailedPanels))
		suggestions = append(suggestions, "Re-render or re-upload the failed panels")
	}
	return strengths, weaknesses, suggestions
}

// CompareFormats ranks format results by format specific score against the
// baseline, best first
func (qa *qualityAnalyzer) CompareFormats(results map[models.GridFormat]models.QualityMetrics, baseline models.GridFormat) (models.FormatComparison, error) {
	if baseline == "" {
		baseline = qa.opts.BaselineFormat
	}
	if !baseline.IsValid() {
		return models.FormatComparison{}, apperrors.NewUnsupportedFormatError(string(baseline), models.FormatStrings())
	}
	base, ok := results[baseline]
	if !ok {
		return models.FormatComparison{}, apperrors.NewQualityAnalysisError(
			fmt.Sprintf("no result for baseline format %s", baseline), nil)
	}

	cmp := models.FormatComparison{
		Baseline:      baseline,
		BaselineScore: base.FormatSpecificScore,
		Entries:       make([]models.ComparisonEntry, 0, len(results)),
	}
	for _, f := range models.AllFormats() {
		m, ok := results[f]
		if !ok {
			continue
		}
		e := models.ComparisonEntry{
			Format:          f,
			Score:           m.FormatSpecificScore,
			DeltaVsBaseline: m.FormatSpecificScore - base.FormatSpecificScore,
			Classification:  Classify(m.FormatSpecificScore),
		}
		if base.FormatSpecificScore > 0 {
			e.PercentVsBaseline = e.DeltaVsBaseline / base.FormatSpecificScore * 100
		}
		cmp.Entries = append(cmp.Entries, e)
	}
	for f := range results {
		if !f.IsValid() {
			qa.log.WithField("format", f).Warn("Ignoring comparison result for unsupported format")
		}
	}

	sort.SliceStable(cmp.Entries, func(i, j int) bool {
		return cmp.Entries[i].Score > cmp.Entries[j].Score
	})
	cmp.BestFormat = cmp.Entries[0].Format
	return cmp, nil
}

func (qa *qualityAnalyzer) RecordQuality(format models.GridFormat, score float64) {
	if !format.IsValid() {
		return
	}
	qa.history.append(format, models.QualityHistoryEntry{
		Timestamp:      qa.now().UTC(),
		Score:          score,
		Classification: Classify(score),
	})
}

func (qa *qualityAnalyzer) History(format models.GridFormat) []models.QualityHistoryEntry {
	return qa.history.get(format)
}

func (qa *qualityAnalyzer) Trend(format models.GridFormat) models.Trend {
	return qa.history.trend(format)
}

func (qa *qualityAnalyzer) ExportHistory() models.QualityHistoryReport {
	return qa.history.export()
}

func (qa *qualityAnalyzer) RestoreHistory(report models.QualityHistoryReport) int {
	n := qa.history.restore(report)
	qa.log.WithField("entries", n).Info("Quality history restored")
	return n
}

func (qa *qualityAnalyzer) Close() error {
	return qa.panels.Close()
}

func orderByPosition(panels []models.PanelMetrics) []models.PanelMetrics {
	out := make([]models.PanelMetrics, len(panels))
	copy(out, panels)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
