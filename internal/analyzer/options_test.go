package analyzer

import (
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.FastMode {
		t.Error("Expected FastMode to be false by default")
	}
	if opts.BlurThreshold != 100.0 {
		t.Errorf("Expected BlurThreshold to be 100.0, got %f", opts.BlurThreshold)
	}
	if opts.DominantColorCount != 3 {
		t.Errorf("Expected DominantColorCount to be 3, got %d", opts.DominantColorCount)
	}
	if !opts.UseWorkerPool {
		t.Error("Expected UseWorkerPool to be true by default")
	}
}

func TestFastOptions(t *testing.T) {
	opts := FastOptions()

	if !opts.FastMode {
		t.Error("Expected FastMode to be true for fast options")
	}
	if !opts.SkipEdgeDetection {
		t.Error("Expected SkipEdgeDetection to be true for fast options")
	}
	if opts.QuantizationLevels != 2 {
		t.Errorf("Expected QuantizationLevels to be 2, got %d", opts.QuantizationLevels)
	}
}

func TestChainedOptions(t *testing.T) {
	opts := DefaultOptions().
		WithBlurThreshold(250).
		WithoutDominantColors().
		WithMaxWorkers(1)

	if opts.BlurThreshold != 250 {
		t.Errorf("Expected BlurThreshold 250, got %f", opts.BlurThreshold)
	}
	if !opts.SkipDominantColors {
		t.Error("Expected SkipDominantColors to be true")
	}
	if opts.UseWorkerPool {
		t.Error("Expected a single worker to disable the pool")
	}
}

func TestOptionsNormalized(t *testing.T) {
	opts := AnalysisOptions{QuantizationLevels: 64}.normalized()

	if opts.BlurThreshold != 100 {
		t.Errorf("Expected default BlurThreshold, got %f", opts.BlurThreshold)
	}
	if opts.EdgeThreshold != 50 {
		t.Errorf("Expected default EdgeThreshold, got %f", opts.EdgeThreshold)
	}
	if opts.QuantizationLevels != 16 {
		t.Errorf("Expected QuantizationLevels capped at 16, got %d", opts.QuantizationLevels)
	}
}
