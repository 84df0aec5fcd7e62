package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zedarvates/storycore-grid/internal/config"
	"github.com/zedarvates/storycore-grid/internal/content"
	"github.com/zedarvates/storycore-grid/internal/factory"
	"github.com/zedarvates/storycore-grid/internal/logger"
	"github.com/zedarvates/storycore-grid/internal/observer"
	"github.com/zedarvates/storycore-grid/internal/optimizer"
	"github.com/zedarvates/storycore-grid/internal/repository"
	"github.com/zedarvates/storycore-grid/internal/service"
	"github.com/zedarvates/storycore-grid/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	metrics    *observer.MetricsObserver
	repository repository.PanelRepository
	history    repository.HistoryStore
	service    service.OptimizationService
	handler    http.Handler
}

// NewContainer builds the dependency graph from cfg and restores persisted
// history when a history database is configured
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger.Configure(cfg.LogLevel)
	components := factory.NewComponentFactory(cfg)

	fetchers, err := components.StorageFactory.Fetchers()
	if err != nil {
		return nil, fmt.Errorf("failed to create panel storage: %w", err)
	}
	panelRepository := repository.NewPanelRepository(fetchers)

	panelAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(factory.StandardAnalyzer)
	if err != nil {
		return nil, err
	}

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	opt := optimizer.NewOptimizer(components.OptimizerOptions(), optimizer.Dependencies{
		Classifier:    content.NewKeywordClassifier(),
		PanelAnalyzer: panelAnalyzer,
		Publisher:     publisher,
	})

	var history repository.HistoryStore
	if cfg.HistoryDBPath != "" {
		store, err := repository.NewSQLiteHistoryStore(cfg.HistoryDBPath)
		if err != nil {
			opt.Close()
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		history = store
	}

	svc := service.NewOptimizationService(opt, panelRepository, history, service.Options{
		FetchTimeout: cfg.ImageFetchTimeout,
	})
	if err := svc.Restore(ctx); err != nil {
		svc.Close()
		return nil, err
	}

	logger.ForComponent("container").
		WithField("schemes", panelRepository.Schemes()).
		WithField("history", cfg.HistoryDBPath != "").
		Info("Container initialised")

	return &Container{
		config:     cfg,
		metrics:    metrics,
		repository: panelRepository,
		history:    history,
		service:    svc,
		handler:    transport.NewHandler(svc, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the optimization service shared by HTTP and CLI callers
func (c *Container) Service() service.OptimizationService {
	return c.service
}

// EventMetrics returns the in-process event counters
func (c *Container) EventMetrics() map[string]interface{} {
	return c.metrics.GetMetrics()
}

// Close releases the analyzer worker pool and the history store
func (c *Container) Close() error {
	return c.service.Close()
}
