package validation

import (
	"math"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

// Issue severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// PanelThresholds defines configurable limits for per-panel checks.
// Brightness, contrast, saturation and channel values are in [0,1].
type PanelThresholds struct {
	// Sharpness thresholds
	MinLaplacianVariance float64
	MaxLaplacianVariance float64

	MinBrightness float64
	MaxBrightness float64

	MinContrast   float64
	MinSaturation float64

	MaxChannelImbalance float64

	MinWidth  int
	MinHeight int
}

// DefaultPanelThresholds returns the default panel thresholds
func DefaultPanelThresholds() PanelThresholds {
	return PanelThresholds{
		MinLaplacianVariance: 100.0,
		MaxLaplacianVariance: 4000.0, // beyond this it is noise, not detail
		MinBrightness:        0.15,
		MaxBrightness:        0.9,
		MinContrast:          0.08,
		MinSaturation:        0.05,
		MaxChannelImbalance:  0.25,
		MinWidth:             64,
		MinHeight:            64,
	}
}

// PanelValidator flags individual panels that drag the bundle quality down
type PanelValidator struct {
	thresholds PanelThresholds
}

// NewPanelValidator creates a new panel validator with default thresholds
func NewPanelValidator() *PanelValidator {
	return &PanelValidator{thresholds: DefaultPanelThresholds()}
}

// NewPanelValidatorWithThresholds creates a panel validator with custom thresholds
func NewPanelValidatorWithThresholds(thresholds PanelThresholds) *PanelValidator {
	return &PanelValidator{thresholds: thresholds}
}

// ValidatePanel lists the issues found on one panel. A panel whose metrics
// could not be computed yields a single metric_failure issue.
func (pv *PanelValidator) ValidatePanel(m models.PanelMetrics) []models.PanelIssue {
	if m.Failed {
		return []models.PanelIssue{{
			PanelID:  m.PanelID,
			Type:     "metric_failure",
			Message:  "Panel could not be measured and was scored with neutral values: " + m.Error,
			Severity: SeverityError,
		}}
	}

	var issues []models.PanelIssue
	add := func(issueType, message, severity string, actual, threshold float64) {
		issues = append(issues, models.PanelIssue{
			PanelID:     m.PanelID,
			Type:        issueType,
			Message:     message,
			Severity:    severity,
			ActualValue: actual,
			Threshold:   threshold,
		})
	}

	t := pv.thresholds

	// 1. Sharpness
	if m.LaplacianVar < t.MinLaplacianVariance {
		add("blurriness", "Panel is soft. Increase sampling steps or upscale with detail enhancement.",
			SeverityError, m.LaplacianVar, t.MinLaplacianVariance)
	} else if m.LaplacianVar > t.MaxLaplacianVariance {
		add("over_sharpening", "Panel shows noise or sharpening artefacts. Lower the detail strength.",
			SeverityWarning, m.LaplacianVar, t.MaxLaplacianVariance)
	}

	// 2. Exposure
	if m.Brightness < t.MinBrightness {
		add("too_dark", "Panel is underexposed.", SeverityWarning, m.Brightness, t.MinBrightness)
	} else if m.Brightness > t.MaxBrightness {
		add("too_bright", "Panel is overexposed.", SeverityWarning, m.Brightness, t.MaxBrightness)
	}

	// 3. Contrast and colour
	if m.Contrast < t.MinContrast {
		add("low_contrast", "Panel looks flat. Add tonal separation.", SeverityWarning, m.Contrast, t.MinContrast)
	}
	if m.Saturation < t.MinSaturation {
		add("low_saturation", "Panel looks washed out.", SeverityInfo, m.Saturation, t.MinSaturation)
	}
	if imbalance := channelImbalance(m.ChannelBalance); imbalance > t.MaxChannelImbalance {
		add("channel_imbalance", "Panel has a strong colour cast.", SeverityInfo, imbalance, t.MaxChannelImbalance)
	}

	// 4. Resolution
	if m.Width < t.MinWidth || m.Height < t.MinHeight {
		add("low_resolution", "Panel resolution is too small to evaluate reliably.",
			SeverityWarning, float64(m.Width*m.Height), float64(t.MinWidth*t.MinHeight))
	}

	return issues
}

// ValidatePanels validates every panel in order
func (pv *PanelValidator) ValidatePanels(panels []models.PanelMetrics) []models.PanelIssue {
	issues := []models.PanelIssue{}
	for _, m := range panels {
		issues = append(issues, pv.ValidatePanel(m)...)
	}
	return issues
}

// ConvertIssuesToMessages converts panel issues to plain messages
func (pv *PanelValidator) ConvertIssuesToMessages(issues []models.PanelIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any error severity issues
func (pv *PanelValidator) HasCriticalIssues(issues []models.PanelIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func channelImbalance(c [3]float64) float64 {
	max := math.Max(c[0], math.Max(c[1], c[2]))
	min := math.Min(c[0], math.Min(c[1], c[2]))
	return max - min
}
