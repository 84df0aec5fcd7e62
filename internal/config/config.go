package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zedarvates/storycore-grid/pkg/models"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the optional YAML file applied before env overrides
const EnvConfigFile = "GRIDOPT_CONFIG"

type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ImageFetchTimeout  time.Duration `yaml:"image_fetch_timeout"`
	AnalysisTimeout    time.Duration `yaml:"analysis_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`

	CoherenceThreshold    float64           `yaml:"coherence_threshold"`
	QualityBaselineFormat models.GridFormat `yaml:"quality_baseline_format"`
	PredictionHistoryCap  int               `yaml:"prediction_history_cap"`
	QualityHistoryCap     int               `yaml:"quality_history_cap"`
	MaxWorkers            int               `yaml:"max_workers"`

	LocalPanelRoot      string `yaml:"local_panel_root"`
	AzureStorageAccount string `yaml:"azure_storage_account"`
	AzureStorageKey     string `yaml:"azure_storage_key"`
	HistoryDBPath       string `yaml:"history_db_path"`

	LogLevel string `yaml:"log_level"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob panel sources can be fetched
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:                  "0.0.0.0",
		Port:                  "8080",
		RequestTimeout:        30 * time.Second,
		ImageFetchTimeout:     15 * time.Second,
		AnalysisTimeout:       20 * time.Second,
		MaxRequestBodySize:    10 * 1024 * 1024, // 10MB
		CoherenceThreshold:    0.85,
		QualityBaselineFormat: models.Square3x3,
		PredictionHistoryCap:  100,
		QualityHistoryCap:     50,
		MaxWorkers:            0,
		LogLevel:              "info",
	}
}

// LoadFromEnv loads defaults, the file named by GRIDOPT_CONFIG if set, then
// environment overrides
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigFile))
}

// Load applies the YAML file at path (if any) over the defaults, then
// environment overrides, and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ImageFetchTimeout = parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", cfg.ImageFetchTimeout)
	cfg.AnalysisTimeout = parseDurationOrDefault("ANALYSIS_TIMEOUT", cfg.AnalysisTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)

	cfg.CoherenceThreshold = parseFloatOrDefault("COHERENCE_THRESHOLD", cfg.CoherenceThreshold)
	if raw := os.Getenv("QUALITY_BASELINE_FORMAT"); raw != "" {
		cfg.QualityBaselineFormat = models.GridFormat(models.NormalizeFormatString(raw))
	}
	cfg.PredictionHistoryCap = int(parseIntOrDefault("PREDICTION_HISTORY_CAP", int64(cfg.PredictionHistoryCap)))
	cfg.QualityHistoryCap = int(parseIntOrDefault("QUALITY_HISTORY_CAP", int64(cfg.QualityHistoryCap)))
	cfg.MaxWorkers = int(parseIntOrDefault("MAX_WORKERS", int64(cfg.MaxWorkers)))

	cfg.LocalPanelRoot = getEnvOrDefault("LOCAL_PANEL_ROOT", cfg.LocalPanelRoot)
	cfg.AzureStorageAccount = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.AzureStorageAccount)
	cfg.AzureStorageKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.AzureStorageKey)
	cfg.HistoryDBPath = getEnvOrDefault("HISTORY_DB_PATH", cfg.HistoryDBPath)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.CoherenceThreshold <= 0.5 || c.CoherenceThreshold > 1 {
		return fmt.Errorf("COHERENCE_THRESHOLD must be in (0.5, 1] (got %v)", c.CoherenceThreshold)
	}
	if !c.QualityBaselineFormat.IsValid() {
		return fmt.Errorf("QUALITY_BASELINE_FORMAT %q is not one of %s",
			c.QualityBaselineFormat, strings.Join(models.FormatStrings(), ", "))
	}
	if c.PredictionHistoryCap <= 0 || c.QualityHistoryCap <= 0 {
		return fmt.Errorf("history caps must be > 0 (got prediction=%d, quality=%d)",
			c.PredictionHistoryCap, c.QualityHistoryCap)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("MAX_WORKERS must be >= 0 (got %d)", c.MaxWorkers)
	}
	if (c.AzureStorageAccount == "") != (c.AzureStorageKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
