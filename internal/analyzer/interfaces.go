package analyzer

import (
	"image"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

// PanelAnalyzer computes base metrics for rendered panel images
type PanelAnalyzer interface {
	// AnalyzePanel never fails; a panel that cannot be measured comes back
	// with neutral values and Failed set.
	AnalyzePanel(panel PanelImage) models.PanelMetrics
	// AnalyzePanels preserves input order
	AnalyzePanels(panels []PanelImage) []models.PanelMetrics
	Stats() PoolStats

	Close() error
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	CalculateColorStats(img image.Image) colorStats
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateBrightness(gray *image.Gray) float64
	CalculateContrast(gray *image.Gray) float64
	CalculateEdgeDensity(gray *image.Gray, threshold float64) float64
	DominantColors(img image.Image, k, levels int) []models.RGB
}
