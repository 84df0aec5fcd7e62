package factory

import (
	"errors"
	"fmt"

	"github.com/zedarvates/storycore-grid/internal/analyzer"
	"github.com/zedarvates/storycore-grid/internal/config"
	"github.com/zedarvates/storycore-grid/internal/optimizer"
	"github.com/zedarvates/storycore-grid/internal/storage"
)

// ErrStorageNotConfigured is returned for a storage backend the config leaves disabled
var ErrStorageNotConfigured = errors.New("storage backend not configured")

// AnalyzerType represents different panel analysis profiles
type AnalyzerType string

const (
	// StandardAnalyzer measures every metric
	StandardAnalyzer AnalyzerType = "standard"
	// FastAnalyzer skips edge detection and uses coarser colour buckets
	FastAnalyzer AnalyzerType = "fast"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based panel fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for a panel directory on the local file system
	LocalStorage StorageType = "local"
)

// AnalyzerFactory creates panel analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(analyzerType AnalyzerType) (analyzer.PanelAnalyzer, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
	// Fetchers returns every configured backend keyed by source scheme
	Fetchers() (map[string]storage.ImageFetcher, error)
}

type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

func (f *analyzerFactory) CreateAnalyzer(analyzerType AnalyzerType) (analyzer.PanelAnalyzer, error) {
	switch analyzerType {
	case StandardAnalyzer:
		return analyzer.NewPanelAnalyzer(analyzer.DefaultOptions().WithMaxWorkers(f.cfg.MaxWorkers)), nil
	case FastAnalyzer:
		return analyzer.NewPanelAnalyzer(analyzer.FastOptions().WithMaxWorkers(f.cfg.MaxWorkers)), nil
	default:
		return nil, fmt.Errorf("unsupported analyzer type: %s", analyzerType)
	}
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		opts := storage.DefaultHTTPOptions()
		opts.Timeout = f.cfg.ImageFetchTimeout
		return storage.NewHTTPImageFetcherWithOptions(opts), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("%w: %s", ErrStorageNotConfigured, storageType)
		}
		return storage.NewAzureBlobFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
	case LocalStorage:
		if f.cfg.LocalPanelRoot == "" {
			return nil, fmt.Errorf("%w: %s", ErrStorageNotConfigured, storageType)
		}
		return storage.NewLocalImageFetcher(f.cfg.LocalPanelRoot)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func (f *storageFactory) Fetchers() (map[string]storage.ImageFetcher, error) {
	httpFetcher, err := f.CreateStorage(HTTPStorage)
	if err != nil {
		return nil, err
	}
	fetchers := map[string]storage.ImageFetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
	}

	optional := []struct {
		kind   StorageType
		scheme string
	}{
		{AzureStorage, "azblob"},
		{LocalStorage, "file"},
	}
	for _, o := range optional {
		fetcher, err := f.CreateStorage(o.kind)
		if errors.Is(err, ErrStorageNotConfigured) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create %s storage: %w", o.kind, err)
		}
		fetchers[o.scheme] = fetcher
	}
	return fetchers, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
	cfg             *config.Config
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
		cfg:             cfg,
	}
}

// OptimizerOptions maps the configuration onto optimizer settings
func (f *ComponentFactory) OptimizerOptions() optimizer.Options {
	opts := optimizer.DefaultOptions()
	opts.Coherence = opts.Coherence.WithThreshold(f.cfg.CoherenceThreshold)
	opts.Quality = opts.Quality.
		WithHistoryCap(f.cfg.QualityHistoryCap).
		WithBaselineFormat(f.cfg.QualityBaselineFormat)
	opts.Quality.CoherenceThreshold = f.cfg.CoherenceThreshold
	opts.PredictionHistoryCap = f.cfg.PredictionHistoryCap
	return opts
}

