package analyzer

// AnalysisOptions configures per-panel metric extraction
type AnalysisOptions struct {
	FastMode bool

	// Laplacian variance that maps to a sharpness score of 50
	BlurThreshold float64
	// Sobel magnitude above which a pixel counts as an edge
	EdgeThreshold float64

	DominantColorCount int
	// buckets per channel for colour clustering
	QuantizationLevels int

	SkipDominantColors bool
	SkipEdgeDetection  bool

	UseWorkerPool bool
	MaxWorkers    int
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		FastMode:           false,
		BlurThreshold:      100.0,
		EdgeThreshold:      50.0,
		DominantColorCount: 3,
		QuantizationLevels: 4,
		SkipDominantColors: false,
		SkipEdgeDetection:  false,
		UseWorkerPool:      true,
		MaxWorkers:         0, // Use default CPU count
	}
}

// FastOptions skips edge detection and uses coarser colour buckets
func FastOptions() AnalysisOptions {
	return DefaultOptions().WithFastMode()
}

// WithBlurThreshold overrides the Laplacian variance reference point
func (opts AnalysisOptions) WithBlurThreshold(threshold float64) AnalysisOptions {
	opts.BlurThreshold = threshold
	return opts
}

// WithFastMode enables fast analysis mode
func (opts AnalysisOptions) WithFastMode() AnalysisOptions {
	opts.FastMode = true
	opts.SkipEdgeDetection = true
	opts.QuantizationLevels = 2
	return opts
}

// WithMaxWorkers bounds the number of panels analysed concurrently
func (opts AnalysisOptions) WithMaxWorkers(n int) AnalysisOptions {
	opts.MaxWorkers = n
	opts.UseWorkerPool = n != 1
	return opts
}

// WithoutDominantColors disables colour clustering
func (opts AnalysisOptions) WithoutDominantColors() AnalysisOptions {
	opts.SkipDominantColors = true
	return opts
}

func (opts AnalysisOptions) normalized() AnalysisOptions {
	d := DefaultOptions()
	if opts.BlurThreshold <= 0 {
		opts.BlurThreshold = d.BlurThreshold
	}
	if opts.EdgeThreshold <= 0 {
		opts.EdgeThreshold = d.EdgeThreshold
	}
	if opts.DominantColorCount <= 0 {
		opts.DominantColorCount = d.DominantColorCount
	}
	if opts.QuantizationLevels < 2 {
		opts.QuantizationLevels = 2
	}
	if opts.QuantizationLevels > 16 {
		opts.QuantizationLevels = 16
	}
	return opts
}
