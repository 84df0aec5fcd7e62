package repository

import (
	"context"
	"image"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

// PanelRepository loads rendered panel images from their source locations
type PanelRepository interface {
	// FetchPanel retrieves one panel image
	FetchPanel(ctx context.Context, source string) (image.Image, error)

	// ValidatePanelSource checks a location before anything is fetched
	ValidatePanelSource(source string) error

	// Schemes lists the source schemes this repository can serve
	Schemes() []string
}

// HistoryStore persists the exported performance and quality reports so a
// restarted service can restore its learning state
type HistoryStore interface {
	SavePerformance(ctx context.Context, report models.PerformanceReport) error
	LoadPerformance(ctx context.Context) (models.PerformanceReport, error)

	SaveQualityHistory(ctx context.Context, report models.QualityHistoryReport) error
	LoadQualityHistory(ctx context.Context) (models.QualityHistoryReport, error)

	Close() error
}
