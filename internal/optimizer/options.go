package optimizer

import (
	"github.com/zedarvates/storycore-grid/internal/analyzer"
	"github.com/zedarvates/storycore-grid/internal/coherence"
	"github.com/zedarvates/storycore-grid/internal/content"
	"github.com/zedarvates/storycore-grid/internal/observer"
	"github.com/zedarvates/storycore-grid/internal/predictor"
	"github.com/zedarvates/storycore-grid/internal/quality"
)

// Options configures the optimizer components
type Options struct {
	Coherence coherence.Options
	Quality   quality.Options
	// PredictionHistoryCap bounds per-format error and performance history
	PredictionHistoryCap int
}

// DefaultOptions returns the default optimizer configuration
func DefaultOptions() Options {
	return Options{
		Coherence:            coherence.DefaultOptions(),
		Quality:              quality.DefaultOptions(),
		PredictionHistoryCap: predictor.DefaultHistoryCap,
	}
}

// Dependencies are optional collaborators. Nil fields get built-in defaults.
type Dependencies struct {
	Classifier    content.Classifier
	Autofixer     coherence.Autofixer
	PanelAnalyzer analyzer.PanelAnalyzer
	LearningState *predictor.LearningState
	Publisher     observer.Subject
}
