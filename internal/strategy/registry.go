package strategy

import "github.com/zedarvates/storycore-grid/pkg/models"

var registry = map[models.GridFormat]FormatStrategy{
	models.Square3x3: squareStrategy{profile{
		format:               models.Square3x3,
		optimalFor:           []models.ContentType{models.ContentPortrait, models.ContentLandscape},
		processingComplexity: 0.7,
		temporalWeight:       0.3,
		affinity: map[models.ContentType]float64{
			models.ContentAction:    0.3,
			models.ContentDialogue:  0.7,
			models.ContentLandscape: 0.9,
			models.ContentPortrait:  0.8,
		},
		baselineQuality: 75.0,
		baselineTime:    120.0,
	}},
	models.Linear1x2: linearStrategy{profile{
		format:               models.Linear1x2,
		optimalFor:           []models.ContentType{models.ContentDialogue},
		processingComplexity: 0.3,
		temporalWeight:       0.8,
		affinity: map[models.ContentType]float64{
			models.ContentAction:    0.6,
			models.ContentDialogue:  0.9,
			models.ContentLandscape: 0.6,
			models.ContentPortrait:  0.8,
		},
		baselineQuality: 78.0,
		baselineTime:    60.0,
	}},
	models.Linear1x3: linearStrategy{profile{
		format:               models.Linear1x3,
		optimalFor:           []models.ContentType{models.ContentAction, models.ContentDialogue},
		processingComplexity: 0.5,
		temporalWeight:       0.9,
		affinity: map[models.ContentType]float64{
			models.ContentAction:    0.9,
			models.ContentDialogue:  0.8,
			models.ContentLandscape: 0.7,
			models.ContentPortrait:  0.6,
		},
		baselineQuality: 80.0,
		baselineTime:    90.0,
	}},
	models.Linear1x4: linearStrategy{profile{
		format:               models.Linear1x4,
		optimalFor:           []models.ContentType{models.ContentAction},
		processingComplexity: 0.6,
		temporalWeight:       0.95,
		affinity: map[models.ContentType]float64{
			models.ContentAction:    1.0,
			models.ContentDialogue:  0.5,
			models.ContentLandscape: 0.6,
			models.ContentPortrait:  0.4,
		},
		baselineQuality: 82.0,
		baselineTime:    110.0,
	}},
}

// For returns the strategy registered for a format
func For(format models.GridFormat) (FormatStrategy, bool) {
	s, ok := registry[format]
	return s, ok
}

// MustFor returns the strategy for a format already known to be valid
func MustFor(format models.GridFormat) FormatStrategy {
	s, ok := registry[format]
	if !ok {
		panic("strategy: no strategy registered for format " + string(format))
	}
	return s
}

// All returns the strategies of every format in canonical order
func All() []FormatStrategy {
	formats := models.AllFormats()
	out := make([]FormatStrategy, 0, len(formats))
	for _, f := range formats {
		out = append(out, registry[f])
	}
	return out
}

// Specs returns the static spec of every format in canonical order
func Specs() []models.FormatSpec {
	out := make([]models.FormatSpec, 0, len(registry))
	for _, s := range All() {
		out = append(out, s.Spec())
	}
	return out
}
