package content

import (
	"math"
	"reflect"
	"testing"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

func shots(descriptions ...string) []models.Shot {
	out := make([]models.Shot, len(descriptions))
	for i, d := range descriptions {
		out[i] = models.Shot{Description: d}
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}

func TestAnalyze_EmptyProject(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze(models.ProjectData{})

	if got.ContentType != models.ContentDialogue {
		t.Errorf("Expected dialogue, got %s", got.ContentType)
	}
	if got.SceneComplexity != 0 {
		t.Errorf("Expected zero complexity, got %f", got.SceneComplexity)
	}
	if got.MotionIntensity != defaultMotion {
		t.Errorf("Expected default motion %f, got %f", defaultMotion, got.MotionIntensity)
	}
	if got.TemporalRequirements {
		t.Error("Expected no temporal requirements")
	}
	if got.AspectRatioPreference != "16:9" {
		t.Errorf("Expected default aspect ratio, got %q", got.AspectRatioPreference)
	}
}

func TestAnalyze_ActionKeywords(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze(models.ProjectData{
		Shots: shots("The hero runs", "A car chase through the market", "Combat on the rooftop"),
	})

	if got.ContentType != models.ContentAction {
		t.Errorf("Expected action, got %s", got.ContentType)
	}
	if got.MotionIntensity != actionMotion {
		t.Errorf("Expected motion %f, got %f", actionMotion, got.MotionIntensity)
	}
	if !got.TemporalRequirements {
		t.Error("Expected action content to require temporal coherence")
	}
	if math.Abs(got.SceneComplexity-0.3) > 1e-9 {
		t.Errorf("Expected complexity 0.3, got %f", got.SceneComplexity)
	}
}

func TestAnalyze_LandscapeDominates(t *testing.T) {
	a := NewAnalyzer(nil)

	tests := []struct {
		name string
		desc []string
		want models.ContentType
	}{
		{"majority landscape", []string{"Panorama of the valley", "Aerial view of the coast", "Two friends talk"}, models.ContentLandscape},
		{"half landscape", []string{"Panorama of the valley", "Two friends talk"}, models.ContentDialogue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(models.ProjectData{Shots: shots(tt.desc...)})
			if got.ContentType != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.ContentType)
			}
			if tt.want == models.ContentLandscape && got.MotionIntensity != landscapeMotion {
				t.Errorf("Expected landscape motion %f, got %f", landscapeMotion, got.MotionIntensity)
			}
		})
	}
}

func TestAnalyze_ComplexityCapped(t *testing.T) {
	a := NewAnalyzer(nil)
	descs := make([]string, 25)
	got := a.Analyze(models.ProjectData{Shots: shots(descs...)})
	if got.SceneComplexity != 1.0 {
		t.Errorf("Expected complexity capped at 1.0, got %f", got.SceneComplexity)
	}
}

func TestAnalyze_HintsOverrideText(t *testing.T) {
	a := NewAnalyzer(nil)
	project := models.ProjectData{
		Shots: []models.Shot{
			{Description: "A sword fight", ContentHints: &models.ContentHints{MotionLevel: "low", ContentType: "portrait"}},
			{Description: "Close-up", ContentHints: &models.ContentHints{MotionLevel: "medium"}},
		},
		Characters: []models.Character{{Name: "Ada"}},
	}
	got := a.Analyze(project)

	if got.MotionIntensity != 0.5 {
		t.Errorf("Expected highest hinted motion 0.5, got %f", got.MotionIntensity)
	}
	if got.ContentType != models.ContentPortrait {
		t.Errorf("Expected hinted portrait, got %s", got.ContentType)
	}
	if got.TemporalRequirements {
		t.Error("Expected no temporal requirements once hints remove action")
	}
	if got.CharacterCount != 1 {
		t.Errorf("Expected 1 character, got %d", got.CharacterCount)
	}
}

func TestAnalyze_TemporalHint(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze(models.ProjectData{
		Shots: []models.Shot{
			{Description: "Two people talk", ContentHints: &models.ContentHints{TemporalRequirements: boolPtr(true)}},
		},
	})
	if !got.TemporalRequirements {
		t.Error("Expected explicit hint to force temporal requirements")
	}
	if got.ContentType != models.ContentDialogue {
		t.Errorf("Expected dialogue, got %s", got.ContentType)
	}
}

func TestAnalyze_HighMotionHintImpliesAction(t *testing.T) {
	a := NewAnalyzer(nil)

	testCases := []struct {
		name         string
		hints        models.ContentHints
		wantType     models.ContentType
		wantTemporal bool
	}{
		{"very high", models.ContentHints{MotionLevel: "very_high"}, models.ContentAction, true},
		{"high", models.ContentHints{MotionLevel: "high"}, models.ContentAction, true},
		{"medium", models.ContentHints{MotionLevel: "medium"}, models.ContentDialogue, false},
		{"type hint wins", models.ContentHints{MotionLevel: "very_high", ContentType: "portrait"}, models.ContentPortrait, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hints := tc.hints
			got := a.Analyze(models.ProjectData{
				Shots: []models.Shot{{Description: "Two people talk", ContentHints: &hints}},
			})
			if got.ContentType != tc.wantType {
				t.Errorf("Expected %s, got %s", tc.wantType, got.ContentType)
			}
			if got.TemporalRequirements != tc.wantTemporal {
				t.Errorf("Expected temporal %v, got %v", tc.wantTemporal, got.TemporalRequirements)
			}
		})
	}
}

func TestAnalyze_UnknownHintValuesIgnored(t *testing.T) {
	a := NewAnalyzer(nil)
	got := a.Analyze(models.ProjectData{
		Shots: []models.Shot{
			{Description: "Quiet talk", ContentHints: &models.ContentHints{MotionLevel: "ludicrous", ContentType: "musical"}},
		},
	})
	if got.ContentType != models.ContentDialogue || got.MotionIntensity != defaultMotion {
		t.Errorf("Expected defaults, got %s / %f", got.ContentType, got.MotionIntensity)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := NewAnalyzer(nil)
	project := models.ProjectData{
		Shots: []models.Shot{
			{Description: "Chase across rooftops"},
			{Description: "Panorama", ContentHints: &models.ContentHints{ContentType: "landscape"}},
			{Description: "Dialogue", ContentHints: &models.ContentHints{ContentType: "action"}},
		},
		Characters:   []models.Character{{Name: "A"}, {Name: "B"}},
		ColorPalette: []string{"#ff0000", "#00ff00"},
	}

	first := a.Analyze(project)
	for i := 0; i < 10; i++ {
		if got := a.Analyze(project); !reflect.DeepEqual(first, got) {
			t.Fatalf("Expected identical analysis on run %d: %+v vs %+v", i, first, got)
		}
	}
	// tie between landscape and action hints goes to the first seen
	if first.ContentType != models.ContentLandscape {
		t.Errorf("Expected first seen hint on tie, got %s", first.ContentType)
	}
}

type fixedClassifier models.ContentType

func (f fixedClassifier) Classify(string) models.ContentType {
	return models.ContentType(f)
}

func TestAnalyze_InjectedClassifier(t *testing.T) {
	a := NewAnalyzer(fixedClassifier(models.ContentAction))
	got := a.Analyze(models.ProjectData{Shots: shots("anything")})
	if got.ContentType != models.ContentAction {
		t.Errorf("Expected injected classifier result, got %s", got.ContentType)
	}
}
