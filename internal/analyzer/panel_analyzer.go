package analyzer

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

// Style feature keys attached to every measured panel
const (
	StyleSaturation  = "saturation"
	StyleEdgeDensity = "edge_density"
	StyleWarmth      = "warmth"
)

// panelAnalyzer implements PanelAnalyzer and orchestrates the metric components
type panelAnalyzer struct {
	opts              AnalysisOptions
	workerPool        *WorkerPool
	metricsCalculator MetricsCalculator
	grayPool          sync.Pool
	log               *logrus.Entry
}

// NewPanelAnalyzer creates a panel analyzer; with UseWorkerPool set the pool
// is started immediately and released by Close.
func NewPanelAnalyzer(opts AnalysisOptions) PanelAnalyzer {
	opts = opts.normalized()
	pa := &panelAnalyzer{
		opts:              opts,
		metricsCalculator: NewMetricsCalculator(),
		grayPool: sync.Pool{
			New: func() interface{} {
				return &image.Gray{}
			},
		},
		log: logger.ForComponent("panel_analyzer"),
	}
	if opts.UseWorkerPool {
		pa.workerPool = NewWorkerPool(opts.MaxWorkers)
		pa.workerPool.Start()
	}
	return pa
}

// NeutralMetrics is the stand-in for a panel that could not be measured
func NeutralMetrics(id string, position int, blurThreshold float64, reason string) models.PanelMetrics {
	if blurThreshold <= 0 {
		blurThreshold = DefaultOptions().BlurThreshold
	}
	return models.PanelMetrics{
		PanelID:        id,
		Position:       position,
		LaplacianVar:   blurThreshold,
		SharpnessScore: 50,
		Brightness:     0.5,
		Contrast:       0.5,
		Saturation:     0.5,
		ChannelBalance: [3]float64{0.5, 0.5, 0.5},
		Failed:         true,
		Error:          reason,
	}
}

func (pa *panelAnalyzer) AnalyzePanel(panel PanelImage) (m models.PanelMetrics) {
	defer func() {
		if r := recover(); r != nil {
			m = pa.failed(panel, apperrors.NewImageProcessingError(fmt.Sprintf("panic while measuring panel: %v", r), nil))
		}
	}()

	if panel.Image == nil {
		return pa.failed(panel, apperrors.NewImageProcessingError("panel image is nil", nil))
	}
	bounds := panel.Image.Bounds()
	if bounds.Empty() {
		return pa.failed(panel, apperrors.NewImageProcessingError("panel image has no pixels", nil))
	}

	gray := pa.grayPool.Get().(*image.Gray)
	defer pa.grayPool.Put(gray)
	if cap(gray.Pix) >= bounds.Dx()*bounds.Dy() {
		gray.Pix = gray.Pix[:bounds.Dx()*bounds.Dy()]
		gray.Stride = bounds.Dx()
		gray.Rect = bounds
	} else {
		*gray = *image.NewGray(bounds)
	}
	draw.Draw(gray, bounds, panel.Image, bounds.Min, draw.Src)

	stats := pa.metricsCalculator.CalculateColorStats(panel.Image)

	m = models.PanelMetrics{
		PanelID:        panel.ID,
		Position:       panel.Position,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Saturation:     stats.avgSaturation,
		ChannelBalance: [3]float64{stats.avgR, stats.avgG, stats.avgB},
	}

	m.LaplacianVar = pa.metricsCalculator.CalculateLaplacianVariance(gray)
	m.SharpnessScore = SharpnessScore(m.LaplacianVar, pa.opts.BlurThreshold)
	m.Brightness = pa.metricsCalculator.CalculateBrightness(gray) / 255
	m.Contrast = pa.metricsCalculator.CalculateContrast(gray)

	if !pa.opts.SkipDominantColors {
		m.DominantColors = pa.metricsCalculator.DominantColors(panel.Image, pa.opts.DominantColorCount, pa.opts.QuantizationLevels)
	}

	m.StyleFeatures = map[string]float64{
		StyleSaturation: stats.avgSaturation,
		StyleWarmth:     clampUnit((stats.avgR - stats.avgB + 1) / 2),
	}
	if !pa.opts.SkipEdgeDetection {
		m.StyleFeatures[StyleEdgeDensity] = pa.metricsCalculator.CalculateEdgeDensity(gray, pa.opts.EdgeThreshold)
	}

	if math.IsNaN(m.LaplacianVar) || math.IsNaN(m.Contrast) {
		return pa.failed(panel, apperrors.NewMetricCalculationError("metric evaluated to NaN", nil))
	}
	return m
}

func (pa *panelAnalyzer) failed(panel PanelImage, err *apperrors.AppError) models.PanelMetrics {
	pa.log.WithError(err).WithFields(logrus.Fields{
		"panel_id": panel.ID,
		"position": panel.Position,
	}).Warn("Panel metrics replaced with neutral values")
	return NeutralMetrics(panel.ID, panel.Position, pa.opts.BlurThreshold, err.Error())
}

func (pa *panelAnalyzer) AnalyzePanels(panels []PanelImage) []models.PanelMetrics {
	out := make([]models.PanelMetrics, len(panels))
	if pa.workerPool == nil || len(panels) < 2 {
		for i, p := range panels {
			out[i] = pa.AnalyzePanel(p)
		}
		return out
	}

	jobs := make([]func(), len(panels))
	for i := range panels {
		i := i
		jobs[i] = func() { out[i] = pa.AnalyzePanel(panels[i]) }
	}
	pa.workerPool.RunBatch(jobs)
	return out
}

func (pa *panelAnalyzer) Stats() PoolStats {
	if pa.workerPool == nil {
		return PoolStats{Workers: 1}
	}
	return pa.workerPool.GetStats()
}

func (pa *panelAnalyzer) Close() error {
	if pa.workerPool != nil {
		pa.workerPool.Close()
	}
	return nil
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
