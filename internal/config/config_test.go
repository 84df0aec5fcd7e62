package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zedarvates/storycore-grid/pkg/models"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	if cfg.CoherenceThreshold != 0.85 {
		t.Errorf("Expected threshold 0.85, got %v", cfg.CoherenceThreshold)
	}
	if cfg.QualityBaselineFormat != models.Square3x3 {
		t.Errorf("Expected 3x3 baseline, got %s", cfg.QualityBaselineFormat)
	}
	if cfg.AzureEnabled() {
		t.Error("Expected azure to be disabled by default")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridopt.yaml")
	data := []byte(`
port: "9090"
request_timeout: 45s
coherence_threshold: 0.9
quality_baseline_format: "1x3"
history_db_path: /var/lib/gridopt/history.db
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("QUALITY_BASELINE_FORMAT", "LINEAR_1X4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Expected env port to win, got %s", cfg.Port)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("Expected 45s from file, got %s", cfg.RequestTimeout)
	}
	if cfg.CoherenceThreshold != 0.9 {
		t.Errorf("Expected 0.9 from file, got %v", cfg.CoherenceThreshold)
	}
	if cfg.QualityBaselineFormat != models.Linear1x4 {
		t.Errorf("Expected env baseline 1x4, got %s", cfg.QualityBaselineFormat)
	}
	if cfg.HistoryDBPath != "/var/lib/gridopt/history.db" {
		t.Errorf("Expected db path from file, got %s", cfg.HistoryDBPath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non numeric port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"zero body size", "MAX_REQUEST_BODY_SIZE", "0"},
		{"threshold at fatal floor", "COHERENCE_THRESHOLD", "0.5"},
		{"threshold above one", "COHERENCE_THRESHOLD", "1.2"},
		{"unknown baseline", "QUALITY_BASELINE_FORMAT", "5x5"},
		{"zero history cap", "QUALITY_HISTORY_CAP", "0"},
		{"negative workers", "MAX_WORKERS", "-2"},
		{"azure account without key", "AZURE_STORAGE_ACCOUNT", "panels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoad_BadDurationKeepsDefault(t *testing.T) {
	t.Setenv("ANALYSIS_TIMEOUT", "soon")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.AnalysisTimeout != 20*time.Second {
		t.Errorf("Expected default 20s, got %s", cfg.AnalysisTimeout)
	}
}
