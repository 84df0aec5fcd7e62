package content

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

const (
	defaultMotion   = 0.3
	actionMotion    = 0.8
	landscapeMotion = 0.1

	// shots needed for a scene to count as fully complex
	complexityShotScale = 10.0

	defaultAspectRatio = "16:9"
)

var motionLevels = map[string]float64{
	"very_high": 0.9,
	"high":      0.8,
	"medium":    0.5,
	"low":       0.2,
	"very_low":  0.1,
}

// Analyzer derives a content profile from project data
type Analyzer interface {
	Analyze(project models.ProjectData) models.ContentAnalysis
}

type analyzer struct {
	classifier Classifier
	log        *logrus.Entry
}

// NewAnalyzer creates a content analyzer. A nil classifier selects the keyword classifier.
func NewAnalyzer(classifier Classifier) Analyzer {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &analyzer{
		classifier: classifier,
		log:        logger.ForComponent("content_analyzer"),
	}
}

// Analyze never fails: missing or partial input falls back to defaults
func (a *analyzer) Analyze(project models.ProjectData) models.ContentAnalysis {
	result := models.ContentAnalysis{
		ContentType:           models.ContentDialogue,
		SceneComplexity:       math.Min(float64(len(project.Shots))/complexityShotScale, 1.0),
		MotionIntensity:       defaultMotion,
		CharacterCount:        len(project.Characters),
		DominantColors:        copyStrings(project.ColorPalette),
		AspectRatioPreference: strings.TrimSpace(project.AspectRatio),
	}
	if result.AspectRatioPreference == "" {
		result.AspectRatioPreference = defaultAspectRatio
	}
	if len(project.Shots) == 0 {
		return result
	}

	a.inferFromText(project.Shots, &result)
	temporalHint := a.applyHints(project.Shots, &result)

	result.TemporalRequirements = result.ContentType == models.ContentAction || temporalHint

	a.log.WithFields(logrus.Fields{
		"shots":            len(project.Shots),
		"content_type":     result.ContentType,
		"motion_intensity": result.MotionIntensity,
		"scene_complexity": result.SceneComplexity,
		"temporal":         result.TemporalRequirements,
	}).Debug("Content analyzed")

	return result
}

func (a *analyzer) inferFromText(shots []models.Shot, result *models.ContentAnalysis) {
	landscapeShots := 0
	for _, shot := range shots {
		switch a.classifier.Classify(shot.Description) {
		case models.ContentAction:
			result.ContentType = models.ContentAction
			result.MotionIntensity = actionMotion
			return
		case models.ContentLandscape:
			landscapeShots++
		}
	}
	if float64(landscapeShots) > float64(len(shots))/2 {
		result.ContentType = models.ContentLandscape
		result.MotionIntensity = landscapeMotion
	}
}

// applyHints lets structured hints override free-text inference and reports
// whether any shot explicitly demands temporal continuity. An explicit
// content_type hint wins over a motion_level hint.
func (a *analyzer) applyHints(shots []models.Shot, result *models.ContentAnalysis) bool {
	hintedMotion := -1.0
	typeCounts := make(map[models.ContentType]int)
	var typeOrder []models.ContentType
	temporal := false

	for _, shot := range shots {
		h := shot.ContentHints
		if h == nil {
			continue
		}
		if level, ok := motionLevels[strings.ToLower(strings.TrimSpace(h.MotionLevel))]; ok {
			hintedMotion = math.Max(hintedMotion, level)
		}
		if ct := models.ContentType(strings.ToLower(strings.TrimSpace(h.ContentType))); ct.IsValid() {
			if typeCounts[ct] == 0 {
				typeOrder = append(typeOrder, ct)
			}
			typeCounts[ct]++
		}
		if h.TemporalRequirements != nil && *h.TemporalRequirements {
			temporal = true
		}
	}

	if hintedMotion >= 0 {
		result.MotionIntensity = hintedMotion
	}
	// a high motion hint implies action unless a shot names the type
	if len(typeOrder) == 0 && hintedMotion >= actionMotion {
		result.ContentType = models.ContentAction
	}
	if len(typeOrder) > 0 {
		best := typeOrder[0]
		for _, ct := range typeOrder[1:] {
			if typeCounts[ct] > typeCounts[best] {
				best = ct
			}
		}
		result.ContentType = best
	}
	return temporal
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
