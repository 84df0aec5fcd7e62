package analyzer

import (
	"image"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/zedarvates/storycore-grid/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// colour clustering looks at no more than this many pixels
const maxColorSamples = 1 << 16

// metricsCalculator implements MetricsCalculator with Gonum statistics
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// SharpnessScore maps a Laplacian variance onto [0,100]: linear up to 50 at
// threshold, linear again up to 100 at twice the threshold.
func SharpnessScore(variance, threshold float64) float64 {
	if threshold <= 0 || math.IsNaN(variance) || variance <= 0 {
		return 0
	}
	if variance >= threshold*2 {
		return 100.0
	}
	if variance >= threshold {
		return 50.0 + (variance-threshold)/threshold*50.0
	}
	return variance / threshold * 50.0
}

// CalculateColorStats averages luminance, saturation and channel balance,
// processing horizontal strips in parallel
func (mc *metricsCalculator) CalculateColorStats(img image.Image) colorStats {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return colorStats{}
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	type stripResult struct {
		lum, sat, r, g, b float64
		pixelCount        int
	}

	results := make(chan stripResult, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		startY := bounds.Min.Y + i*rowsPerWorker
		if startY >= bounds.Max.Y {
			break
		}
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()

			var res stripResult
			for y := startY; y < endY; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					rVal, gVal, bVal, _ := img.At(x, y).RGBA()
					rf := float64(rVal) / 65535.0
					gf := float64(gVal) / 65535.0
					bf := float64(bVal) / 65535.0

					_, s, v := rgbToHSV(rf, gf, bf)
					res.sat += s
					res.lum += v
					res.r += rf
					res.g += gf
					res.b += bf
					res.pixelCount++
				}
			}
			results <- res
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total stripResult
	for res := range results {
		total.lum += res.lum
		total.sat += res.sat
		total.r += res.r
		total.g += res.g
		total.b += res.b
		total.pixelCount += res.pixelCount
	}
	if total.pixelCount == 0 {
		return colorStats{}
	}

	n := float64(total.pixelCount)
	return colorStats{
		avgLuminance:  total.lum / n,
		avgSaturation: total.sat / n,
		avgR:          total.r / n,
		avgG:          total.g / n,
		avgB:          total.b / n,
	}
}

// CalculateLaplacianVariance computes the variance of the 4-neighbour Laplacian
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	if cap(data) < (width-2)*(height-2) {
		data = make([]float64, 0, (width-2)*(height-2))
	}
	defer func() { mc.slicePool.Put(data[:0]) }()

	// kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// CalculateBrightness returns the mean grey level in [0,255]
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) float64 {
	b := gray.Bounds()
	if b.Empty() {
		return 0
	}

	var total float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			total += float64(gray.GrayAt(x, y).Y)
		}
	}
	return total / float64(b.Dx()*b.Dy())
}

// CalculateContrast returns the grey level standard deviation scaled to [0,1]
func (mc *metricsCalculator) CalculateContrast(gray *image.Gray) float64 {
	b := gray.Bounds()
	if b.Dx()*b.Dy() < 2 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	if cap(data) < b.Dx()*b.Dy() {
		data = make([]float64, 0, b.Dx()*b.Dy())
	}
	defer func() { mc.slicePool.Put(data[:0]) }()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			data = append(data, float64(gray.GrayAt(x, y).Y))
		}
	}

	return math.Min(1, stat.StdDev(data, nil)/127.5)
}

// CalculateEdgeDensity returns the share of interior pixels whose Sobel
// magnitude exceeds threshold
func (mc *metricsCalculator) CalculateEdgeDensity(gray *image.Gray, threshold float64) float64 {
	b := gray.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return 0
	}

	edges, total := 0, 0
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			if math.Sqrt(float64(gx*gx+gy*gy)) > threshold {
				edges++
			}
			total++
		}
	}
	return float64(edges) / float64(total)
}

func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

// DominantColors clusters pixels into levels³ uniform RGB buckets and returns
// the mean colour of the k most populated buckets, most populated first.
func (mc *metricsCalculator) DominantColors(img image.Image, k, levels int) []models.RGB {
	b := img.Bounds()
	if b.Empty() || k <= 0 || levels < 2 {
		return nil
	}

	step := 1
	for (b.Dx()/step)*(b.Dy()/step) > maxColorSamples {
		step++
	}

	type bucket struct {
		index int
		count int
		sum   [3]float64
	}
	buckets := make([]bucket, levels*levels*levels)
	for i := range buckets {
		buckets[i].index = i
	}

	quantize := func(c uint32) int {
		q := int(c>>8) * levels / 256
		if q >= levels {
			q = levels - 1
		}
		return q
	}

	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			idx := (quantize(r)*levels+quantize(g))*levels + quantize(bl)
			bk := &buckets[idx]
			bk.count++
			bk.sum[0] += float64(r >> 8)
			bk.sum[1] += float64(g >> 8)
			bk.sum[2] += float64(bl >> 8)
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].count > buckets[j].count
	})

	colors := make([]models.RGB, 0, k)
	for _, bk := range buckets {
		if bk.count == 0 || len(colors) == k {
			break
		}
		n := float64(bk.count)
		colors = append(colors, models.RGB{bk.sum[0] / n, bk.sum[1] / n, bk.sum[2] / n})
	}
	return colors
}

// rgbToHSV provides RGB to HSV conversion
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max

	if max == 0 {
		s = 0
	} else {
		s = delta / max
	}

	if delta == 0 {
		h = 0
	} else if max == r {
		h = 60 * ((g - b) / delta)
	} else if max == g {
		h = 60 * (((b - r) / delta) + 2)
	} else {
		h = 60 * (((r - g) / delta) + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}
