package quality

import (
	"github.com/zedarvates/storycore-grid/internal/analyzer"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

// Options configures the quality analyzer
type Options struct {
	// Laplacian variance mapped to a sharpness score of 50
	BlurThreshold float64
	// share of samples dropped at each end before averaging sharpness
	TrimFraction float64

	HistoryCap    int
	TrendWindow   int
	TrendDeadband float64

	// linear sequences below this temporal coherence are reported as weak
	CoherenceThreshold float64

	BaselineFormat models.GridFormat

	Panel analyzer.AnalysisOptions
}

// DefaultOptions returns the default quality analysis settings
func DefaultOptions() Options {
	return Options{
		BlurThreshold:      100.0,
		TrimFraction:       0.1,
		HistoryCap:         50,
		TrendWindow:        5,
		TrendDeadband:      2.0,
		CoherenceThreshold: 0.85,
		BaselineFormat:     models.Square3x3,
		Panel:              analyzer.DefaultOptions(),
	}
}

// WithHistoryCap overrides how many outcomes are kept per format
func (o Options) WithHistoryCap(n int) Options {
	o.HistoryCap = n
	return o
}

// WithBaselineFormat sets the format comparisons are measured against
func (o Options) WithBaselineFormat(f models.GridFormat) Options {
	o.BaselineFormat = f
	return o
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.BlurThreshold <= 0 {
		o.BlurThreshold = d.BlurThreshold
	}
	if o.TrimFraction < 0 || o.TrimFraction >= 0.5 {
		o.TrimFraction = d.TrimFraction
	}
	if o.HistoryCap <= 0 {
		o.HistoryCap = d.HistoryCap
	}
	if o.TrendWindow <= 0 {
		o.TrendWindow = d.TrendWindow
	}
	if o.TrendDeadband < 0 {
		o.TrendDeadband = d.TrendDeadband
	}
	if o.CoherenceThreshold <= 0 || o.CoherenceThreshold > 1 {
		o.CoherenceThreshold = d.CoherenceThreshold
	}
	if !o.BaselineFormat.IsValid() {
		o.BaselineFormat = d.BaselineFormat
	}
	o.Panel.BlurThreshold = o.BlurThreshold
	return o
}
