package validation

import (
	"strings"
	"testing"

	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

func TestValidateFormat(t *testing.T) {
	testCases := []struct {
		input      string
		valid      bool
		format     models.GridFormat
		suggestion string
	}{
		{"3x3", true, models.Square3x3, ""},
		{" 1×4 ", true, models.Linear1x4, ""},
		{"LINEAR_1X3", true, models.Linear1x3, ""},
		{"1x5", false, "", "1x2"},
		{"3x4", false, "", "3x3"},
		{"2x2", false, "", "1x2"},
		{"panorama", false, "", ""},
		{"", false, "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			v := ValidateFormat(tc.input)

			if v.IsValid != tc.valid {
				t.Fatalf("Expected IsValid=%v, got %v (%s)", tc.valid, v.IsValid, v.ErrorMessage)
			}
			if v.Format != tc.format {
				t.Errorf("Expected format %q, got %q", tc.format, v.Format)
			}
			if v.Suggestion != tc.suggestion {
				t.Errorf("Expected suggestion %q, got %q", tc.suggestion, v.Suggestion)
			}
			if !tc.valid {
				if len(v.SupportedFormats) != 4 {
					t.Errorf("Expected 4 supported formats, got %v", v.SupportedFormats)
				}
				if !strings.Contains(v.ErrorMessage, "3x3, 1x2, 1x3, 1x4") {
					t.Errorf("Expected error message to list formats, got %q", v.ErrorMessage)
				}
			}
		})
	}
}

func TestValidatePreferences(t *testing.T) {
	maxTime := 90.0
	negative := -1.0

	testCases := []struct {
		name    string
		mutate  func(p *models.FormatPreferences)
		wantErr string
	}{
		{"defaults", func(p *models.FormatPreferences) {}, ""},
		{"with max time", func(p *models.FormatPreferences) { p.MaxProcessingTime = &maxTime }, ""},
		{"empty formats", func(p *models.FormatPreferences) { p.PreferredFormats = nil }, "PreferredFormats is required"},
		{"unknown format", func(p *models.FormatPreferences) {
			p.PreferredFormats = []models.GridFormat{models.Linear1x3, "2x2"}
		}, "unsupported format 2x2"},
		{"quality vs speed too high", func(p *models.FormatPreferences) { p.QualityVsSpeed = 1.5 }, "QualityVsSpeed must be <= 1"},
		{"threshold negative", func(p *models.FormatPreferences) { p.MinimumQualityThreshold = -3 }, "MinimumQualityThreshold must be >= 0"},
		{"negative max time", func(p *models.FormatPreferences) { p.MaxProcessingTime = &negative }, "MaxProcessingTime must be > 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prefs := models.DefaultPreferences()
			tc.mutate(&prefs)

			err := ValidatePreferences(prefs)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tc.wantErr)
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
				t.Errorf("Expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestPanelValidator_Issues(t *testing.T) {
	pv := NewPanelValidator()

	good := models.PanelMetrics{
		PanelID:        "ok",
		Width:          512,
		Height:         512,
		LaplacianVar:   450,
		Brightness:     0.5,
		Contrast:       0.3,
		Saturation:     0.4,
		ChannelBalance: [3]float64{0.5, 0.45, 0.4},
	}
	if issues := pv.ValidatePanel(good); len(issues) != 0 {
		t.Errorf("Expected no issues for a healthy panel, got %+v", issues)
	}

	blurry := good
	blurry.PanelID = "soft"
	blurry.LaplacianVar = 20
	blurry.Brightness = 0.95
	issues := pv.ValidatePanel(blurry)
	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %+v", issues)
	}
	if issues[0].Type != "blurriness" || issues[0].Severity != SeverityError {
		t.Errorf("Expected blurriness error first, got %+v", issues[0])
	}
	if issues[1].Type != "too_bright" || issues[1].PanelID != "soft" {
		t.Errorf("Expected too_bright on panel soft, got %+v", issues[1])
	}
	if !pv.HasCriticalIssues(issues) {
		t.Error("Expected blurriness to be critical")
	}
	if msgs := pv.ConvertIssuesToMessages(issues); len(msgs) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(msgs))
	}
}

func TestPanelValidator_FailedPanel(t *testing.T) {
	pv := NewPanelValidator()

	issues := pv.ValidatePanels([]models.PanelMetrics{
		{PanelID: "broken", Failed: true, Error: "decode failed"},
	})

	if len(issues) != 1 || issues[0].Type != "metric_failure" {
		t.Fatalf("Expected a single metric_failure issue, got %+v", issues)
	}
	if !strings.Contains(issues[0].Message, "decode failed") {
		t.Errorf("Expected failure reason in message, got %q", issues[0].Message)
	}
}

func TestPanelValidator_CustomThresholds(t *testing.T) {
	th := DefaultPanelThresholds()
	th.MinLaplacianVariance = 1000
	pv := NewPanelValidatorWithThresholds(th)

	issues := pv.ValidatePanel(models.PanelMetrics{
		Width: 512, Height: 512, LaplacianVar: 450, Brightness: 0.5, Contrast: 0.3, Saturation: 0.4,
	})
	if len(issues) != 1 || issues[0].Threshold != 1000 {
		t.Errorf("Expected one blurriness issue against the custom threshold, got %+v", issues)
	}
	if pv.HasCriticalIssues(nil) {
		t.Error("Expected no critical issues for an empty list")
	}
}
