package coherence

// Options configures the temporal coherence engine
type Options struct {
	// Threshold below which transitions are enhanced and autofix triggers
	Threshold float64
	// FatalThreshold below which a sequence is rejected outright
	FatalThreshold float64

	ColorBlend      float64
	BrightnessNudge float64
	ContrastNudge   float64

	// Continuity report limits per dimension
	MinColorSmoothness   float64
	MinStyleConsistency  float64
	MinLightingCoherence float64
	MinVisualSimilarity  float64
}

// DefaultOptions returns the default coherence policy
func DefaultOptions() Options {
	return Options{
		Threshold:            0.85,
		FatalThreshold:       0.5,
		ColorBlend:           0.3,
		BrightnessNudge:      0.2,
		ContrastNudge:        0.15,
		MinColorSmoothness:   0.7,
		MinStyleConsistency:  0.8,
		MinLightingCoherence: 0.75,
		MinVisualSimilarity:  0.6,
	}
}

// WithThreshold overrides the coherence threshold
func (o Options) WithThreshold(threshold float64) Options {
	o.Threshold = threshold
	return o
}

// WithBlendFactors overrides how strongly weak transitions are corrected
func (o Options) WithBlendFactors(color, brightness, contrast float64) Options {
	o.ColorBlend = color
	o.BrightnessNudge = brightness
	o.ContrastNudge = contrast
	return o
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = d.Threshold
	}
	if o.FatalThreshold <= 0 || o.FatalThreshold >= o.Threshold {
		o.FatalThreshold = d.FatalThreshold
	}
	if o.FatalThreshold >= o.Threshold {
		o.Threshold = d.Threshold
	}
	if o.ColorBlend <= 0 || o.ColorBlend > 1 {
		o.ColorBlend = d.ColorBlend
	}
	if o.BrightnessNudge <= 0 || o.BrightnessNudge > 1 {
		o.BrightnessNudge = d.BrightnessNudge
	}
	if o.ContrastNudge <= 0 || o.ContrastNudge > 1 {
		o.ContrastNudge = d.ContrastNudge
	}
	if o.MinColorSmoothness <= 0 {
		o.MinColorSmoothness = d.MinColorSmoothness
	}
	if o.MinStyleConsistency <= 0 {
		o.MinStyleConsistency = d.MinStyleConsistency
	}
	if o.MinLightingCoherence <= 0 {
		o.MinLightingCoherence = d.MinLightingCoherence
	}
	if o.MinVisualSimilarity <= 0 {
		o.MinVisualSimilarity = d.MinVisualSimilarity
	}
	return o
}
