package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zedarvates/storycore-grid/internal/analyzer"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/internal/optimizer"
	"github.com/zedarvates/storycore-grid/internal/repository"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

// OptimizationService exposes the grid optimizer to the transport and CLI
// layers: it resolves panel sources, parses formats and persists history.
type OptimizationService interface {
	ValidateFormat(format string) models.FormatValidation
	AnalyzeContent(project models.ProjectData) models.ContentAnalysis
	Recommend(ctx context.Context, req models.RecommendRequest) (models.FormatRecommendation, error)

	AnalyzeCoherence(ctx context.Context, req models.CoherenceRequest) (models.CoherenceAnalysis, error)
	OptimizeTransitions(ctx context.Context, req models.CoherenceRequest) (models.OptimizeTransitionsResponse, error)

	AnalyzeQuality(ctx context.Context, req models.QualityRequest) (models.QualityReport, error)
	RecordFeedback(ctx context.Context, req models.FeedbackRequest) (models.PredictionUpdate, error)

	PerformanceReport() models.PerformanceReport
	QualityReport() models.QualityHistoryReport

	// Restore loads persisted history into the optimizer
	Restore(ctx context.Context) error
	Close() error
}

// Options tunes panel fetching
type Options struct {
	FetchTimeout time.Duration
}

type optimizationService struct {
	opt   optimizer.Optimizer
	repo  repository.PanelRepository
	store repository.HistoryStore
	opts  Options
	log   *logrus.Entry
}

// NewOptimizationService creates the service. store may be nil, in which case
// history lives only in memory.
func NewOptimizationService(opt optimizer.Optimizer, repo repository.PanelRepository, store repository.HistoryStore, opts Options) OptimizationService {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &optimizationService{
		opt:   opt,
		repo:  repo,
		store: store,
		opts:  opts,
		log:   logger.ForComponent("optimization_service"),
	}
}

func parseFormat(raw string) (models.GridFormat, error) {
	format, ok := models.ParseGridFormat(raw)
	if !ok {
		return "", apperrors.NewUnsupportedFormatError(raw, models.FormatStrings())
	}
	return format, nil
}

func (s *optimizationService) ValidateFormat(format string) models.FormatValidation {
	return s.opt.ValidateFormatCompatibility(format)
}

func (s *optimizationService) AnalyzeContent(project models.ProjectData) models.ContentAnalysis {
	return s.opt.AnalyzeContent(project)
}

func (s *optimizationService) Recommend(ctx context.Context, req models.RecommendRequest) (models.FormatRecommendation, error) {
	var analysis models.ContentAnalysis
	switch {
	case req.Analysis != nil:
		analysis = *req.Analysis
	case req.Project != nil:
		analysis = s.opt.AnalyzeContent(*req.Project)
	default:
		return models.FormatRecommendation{}, apperrors.NewValidationError("either project or analysis is required", nil)
	}

	rec, err := s.opt.GetOptimalFormat(ctx, analysis, req.Preferences)
	if err != nil {
		return models.FormatRecommendation{}, err
	}
	s.persistPerformance(ctx)
	return rec, nil
}

func (s *optimizationService) AnalyzeCoherence(ctx context.Context, req models.CoherenceRequest) (models.CoherenceAnalysis, error) {
	format, err := parseFormat(req.Format)
	if err != nil {
		return models.CoherenceAnalysis{}, err
	}
	return s.opt.AnalyzeTemporalCoherence(ctx, req.Panels, format)
}

func (s *optimizationService) OptimizeTransitions(ctx context.Context, req models.CoherenceRequest) (models.OptimizeTransitionsResponse, error) {
	format, err := parseFormat(req.Format)
	if err != nil {
		return models.OptimizeTransitionsResponse{}, err
	}
	return s.opt.OptimizePanelTransitions(ctx, req.Panels, format)
}

// AnalyzeQuality fetches every panel concurrently and measures the grid.
// A panel that cannot be fetched still takes its slot and is reported with
// neutral metrics.
func (s *optimizationService) AnalyzeQuality(ctx context.Context, req models.QualityRequest) (models.QualityReport, error) {
	format, err := parseFormat(req.Format)
	if err != nil {
		return models.QualityReport{}, err
	}
	if len(req.Panels) == 0 {
		return models.QualityReport{}, apperrors.NewValidationError("at least one panel is required", nil)
	}
	if len(req.Panels) > format.PanelCount() {
		return models.QualityReport{}, apperrors.NewValidationError(
			fmt.Sprintf("format %s holds %d panels, got %d", format, format.PanelCount(), len(req.Panels)), nil)
	}
	for _, p := range req.Panels {
		if err := s.repo.ValidatePanelSource(p.URL); err != nil {
			return models.QualityReport{}, apperrors.NewValidationError("invalid panel source", err).
				WithDetails(p.URL)
		}
	}

	panels := s.fetchPanels(ctx, req.Panels)
	if err := ctx.Err(); err != nil {
		return models.QualityReport{}, apperrors.NewTimeoutError("panel fetch cancelled", err)
	}

	report, err := s.opt.AnalyzePanelQuality(ctx, format, panels)
	if err != nil {
		return models.QualityReport{}, err
	}
	s.persistQuality(ctx)
	return report, nil
}

// fetchPanels keeps request order. Positions default to list order when
// the request leaves them all at zero.
func (s *optimizationService) fetchPanels(ctx context.Context, sources []models.PanelSource) []analyzer.PanelImage {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	positioned := false
	for _, src := range sources {
		if src.Position != 0 {
			positioned = true
			break
		}
	}

	panels := make([]analyzer.PanelImage, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		id := src.ID
		if id == "" {
			id = fmt.Sprintf("panel-%d", i+1)
		}
		pos := i
		if positioned {
			pos = src.Position
		}
		panels[i] = analyzer.PanelImage{ID: id, Position: pos}

		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			img, err := s.repo.FetchPanel(ctx, url)
			if err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{
					"panel_id": panels[i].ID,
					"source":   url,
					"missing":  errors.Is(err, repository.ErrPanelNotFound),
				}).Warn("Panel fetch failed, using neutral metrics")
				return
			}
			panels[i].Image = img
		}(i, src.URL)
	}
	wg.Wait()
	return panels
}

func (s *optimizationService) RecordFeedback(ctx context.Context, req models.FeedbackRequest) (models.PredictionUpdate, error) {
	format, err := parseFormat(req.Format)
	if err != nil {
		return models.PredictionUpdate{}, err
	}
	update, err := s.opt.RecordQualityOutcome(ctx, format, req.ActualQuality, req.Analysis)
	if err != nil {
		return models.PredictionUpdate{}, err
	}
	s.persistPerformance(ctx)
	s.persistQuality(ctx)
	return update, nil
}

func (s *optimizationService) PerformanceReport() models.PerformanceReport {
	return s.opt.ExportPerformanceReport()
}

func (s *optimizationService) QualityReport() models.QualityHistoryReport {
	return s.opt.ExportQualityReport()
}

func (s *optimizationService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	perf, err := s.store.LoadPerformance(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", repository.ErrHistoryUnavailable, err)
	}
	quality, err := s.store.LoadQualityHistory(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", repository.ErrHistoryUnavailable, err)
	}
	s.log.WithFields(logrus.Fields{
		"performance_entries": s.opt.RestorePerformanceReport(perf),
		"quality_entries":     s.opt.RestoreQualityReport(quality),
	}).Info("History restored")
	return nil
}

// History writes are best effort; a failed save never fails the request.
func (s *optimizationService) persistPerformance(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SavePerformance(ctx, s.opt.ExportPerformanceReport()); err != nil {
		s.log.WithError(err).Warn("Failed to persist performance history")
	}
}

func (s *optimizationService) persistQuality(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveQualityHistory(ctx, s.opt.ExportQualityReport()); err != nil {
		s.log.WithError(err).Warn("Failed to persist quality history")
	}
}

func (s *optimizationService) Close() error {
	err := s.opt.Close()
	if s.store != nil {
		if serr := s.store.Close(); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}
