package analyzer

import "image"

// PanelImage is one decoded panel of a rendered grid
type PanelImage struct {
	ID       string
	Position int
	Image    image.Image
}

// colorStats holds averaged per-pixel colour figures, all in [0,1]
type colorStats struct {
	avgLuminance, avgSaturation float64
	avgR, avgG, avgB            float64
}
