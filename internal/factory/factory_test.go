package factory

import (
	"errors"
	"sort"
	"testing"

	"github.com/zedarvates/storycore-grid/internal/config"
	"github.com/zedarvates/storycore-grid/internal/storage"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

func schemes(m map[string]storage.ImageFetcher) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestStorageFactory_Fetchers(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		schemes []string
	}{
		{"http only", func(*config.Config) {}, []string{"http", "https"}},
		{"with local root", func(cfg *config.Config) { cfg.LocalPanelRoot = t.TempDir() }, []string{"file", "http", "https"}},
		{"with azure", func(cfg *config.Config) {
			cfg.AzureStorageAccount = "panels"
			cfg.AzureStorageKey = "dGVzdGtleQ=="
		}, []string{"azblob", "http", "https"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			fetchers, err := NewStorageFactory(cfg).Fetchers()
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			got := schemes(fetchers)
			if len(got) != len(tt.schemes) {
				t.Fatalf("Expected schemes %v, got %v", tt.schemes, got)
			}
			for i := range got {
				if got[i] != tt.schemes[i] {
					t.Errorf("Expected schemes %v, got %v", tt.schemes, got)
				}
			}
		})
	}
}

func TestStorageFactory_CreateStorage(t *testing.T) {
	f := NewStorageFactory(config.Default())

	if _, err := f.CreateStorage(LocalStorage); !errors.Is(err, ErrStorageNotConfigured) {
		t.Errorf("Expected ErrStorageNotConfigured, got %v", err)
	}
	if _, err := f.CreateStorage(AzureStorage); !errors.Is(err, ErrStorageNotConfigured) {
		t.Errorf("Expected ErrStorageNotConfigured, got %v", err)
	}
	if _, err := f.CreateStorage(StorageType("ftp")); err == nil {
		t.Error("Expected error for unsupported storage type")
	}

	cfg := config.Default()
	cfg.LocalPanelRoot = "/definitely/not/a/panel/root"
	if _, err := NewStorageFactory(cfg).Fetchers(); err == nil {
		t.Error("Expected error for a missing local panel root")
	}
}

func TestAnalyzerFactory_CreateAnalyzer(t *testing.T) {
	f := NewAnalyzerFactory(config.Default())

	for _, kind := range []AnalyzerType{StandardAnalyzer, FastAnalyzer} {
		a, err := f.CreateAnalyzer(kind)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", kind, err)
		}
		if err := a.Close(); err != nil {
			t.Errorf("%s: close failed: %v", kind, err)
		}
	}

	if _, err := f.CreateAnalyzer(AnalyzerType("ocr")); err == nil {
		t.Error("Expected error for unsupported analyzer type")
	}
}

func TestComponentFactory_OptimizerOptions(t *testing.T) {
	cfg := config.Default()
	cfg.CoherenceThreshold = 0.9
	cfg.QualityHistoryCap = 7
	cfg.PredictionHistoryCap = 12
	cfg.QualityBaselineFormat = models.Linear1x3

	opts := NewComponentFactory(cfg).OptimizerOptions()
	if opts.Coherence.Threshold != 0.9 {
		t.Errorf("Expected coherence threshold 0.9, got %v", opts.Coherence.Threshold)
	}
	if opts.Quality.HistoryCap != 7 || opts.Quality.BaselineFormat != models.Linear1x3 {
		t.Errorf("Unexpected quality options: %+v", opts.Quality)
	}
	if opts.PredictionHistoryCap != 12 {
		t.Errorf("Expected prediction history cap 12, got %d", opts.PredictionHistoryCap)
	}
}
