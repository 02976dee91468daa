// Package filter implements the convolution-based pixel algorithms:
// separable blur, edge detection, unsharp masking, bilateral noise
// reduction, color balance, and generative overlays.
//
// All functions operate on interleaved RGBA data (4 bytes per pixel) and
// are deterministic: the same inputs always produce the same outputs. The
// only pseudo-random terms (noise, light leak) are explicitly seeded.
package filter

import (
	"math"

	"github.com/gogpu/fx/internal/cache"
)

// MaxRadius is the upper bound applied to every blur radius.
const MaxRadius = 100

// kernelCacheSize bounds the number of cached Gaussian kernels.
const kernelCacheSize = 50

// kernelKey identifies a cached kernel by its exact parameters.
type kernelKey struct {
	radius int
	sigma  float64
}

// kernelCache memoizes Gaussian kernels; building one is cheap but blur is
// called per slider tick, so the same few kernels recur constantly.
var kernelCache = cache.New[kernelKey, []float64](kernelCacheSize)

// GaussianKernel returns a normalized 1D Gaussian kernel of size 2*radius+1.
// If sigma <= 0, it defaults to radius/3 so the kernel tail reaches three
// standard deviations at the window edge.
//
// Kernels are cached by (radius, sigma); callers must not mutate the
// returned slice.
func GaussianKernel(radius int, sigma float64) []float64 {
	if radius <= 0 {
		return []float64{1}
	}
	if sigma <= 0 {
		sigma = float64(radius) / 3
	}

	key := kernelKey{radius: radius, sigma: sigma}
	if k, ok := kernelCache.Get(key); ok {
		return k
	}

	size := 2*radius + 1
	kernel := make([]float64, size)
	twoSigmaSq := 2 * sigma * sigma
	sum := 0.0
	for i := range size {
		x := float64(i - radius)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	kernelCache.Set(key, kernel)
	return kernel
}

// clampRadius clamps a requested radius to [1, MaxRadius].
// Callers handle radius <= 0 as a no-op before clamping.
func clampRadius(radius int) int {
	if radius < 1 {
		return 1
	}
	if radius > MaxRadius {
		return MaxRadius
	}
	return radius
}

// clampU8 rounds and clamps a float to the uint8 range.
func clampU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// clampIndex clamps a coordinate to [0, n-1], extending edge samples.
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
