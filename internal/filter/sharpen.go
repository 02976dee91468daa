package filter

import "math"

// SharpenParams collects the unsharp-mask parameters.
type SharpenParams struct {
	// Radius of the internal blur that produces the unsharp mask.
	Radius int

	// Amount scales the sharpening term: out = orig + Amount*(orig-blur).
	Amount float64

	// Threshold is the minimum edge strength (0..1) for sharpening to
	// apply when PreserveDetails is off.
	Threshold float64

	// Mode selects the edge detector used to gate sharpening.
	Mode EdgeMode

	// PreserveDetails blends sharpening proportionally to edge strength
	// instead of the hard threshold cutoff.
	PreserveDetails bool

	// Denoise runs an edge-preserving bilateral pre-pass so noise is not
	// amplified into false edges.
	Denoise bool

	// DenoiseStrength is the bilateral intensity sigma (default 25).
	DenoiseStrength float64
}

// UnsharpMask sharpens the image in place using edge-aware unsharp
// masking: a blurred copy is subtracted from the original and the
// difference re-added scaled by Amount, gated per pixel by edge strength.
// Alpha is never sharpened.
func UnsharpMask(data []uint8, w, h int, p SharpenParams, sc Scratch) {
	if w <= 0 || h <= 0 || p.Amount == 0 {
		return
	}
	if p.Radius < 1 {
		p.Radius = 1
	}

	if p.Denoise {
		strength := p.DenoiseStrength
		if strength <= 0 {
			strength = 25
		}
		Bilateral(data, w, h, 2, strength, sc)
	}

	edges := EdgeMap(data, w, h, p.Mode)

	blurred := acquire(sc, len(data))
	defer release(sc, blurred)
	copy(blurred, data)
	GaussianBlur(blurred, w, h, p.Radius, 0, sc)

	for pix, edge := range edges {
		var t float64
		if p.PreserveDetails {
			t = edge
		} else if edge > p.Threshold {
			t = 1
		}
		if t == 0 {
			continue
		}
		i := pix * 4
		for c := 0; c < 3; c++ {
			orig := float64(data[i+c])
			sharp := orig + p.Amount*(orig-float64(blurred[i+c]))
			data[i+c] = clampU8(orig + t*(clampF(sharp)-orig))
		}
	}
}

// Bilateral applies an edge-preserving smoothing filter in place.
// Neighbor weights combine a spatial Gaussian with an intensity-difference
// Gaussian, so similar pixels average together while edges survive.
func Bilateral(data []uint8, w, h, radius int, intensitySigma float64, sc Scratch) {
	if w <= 0 || h <= 0 || radius < 1 {
		return
	}
	if radius > 10 {
		radius = 10
	}
	if intensitySigma <= 0 {
		intensitySigma = 25
	}

	src := acquire(sc, len(data))
	defer release(sc, src)
	copy(src, data)

	spatialSigma := float64(radius) / 2
	twoSpatialSq := 2 * spatialSigma * spatialSigma
	twoIntensitySq := 2 * intensitySigma * intensitySigma

	// Precompute the spatial weights once; they depend only on offset.
	size := 2*radius + 1
	spatial := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*size+(dx+radius)] = math.Exp(-d / twoSpatialSq)
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			for c := 0; c < 3; c++ {
				center := float64(src[i+c])
				var sum, weightSum float64
				for dy := -radius; dy <= radius; dy++ {
					sy := clampIndex(y+dy, h)
					for dx := -radius; dx <= radius; dx++ {
						sx := clampIndex(x+dx, w)
						sample := float64(src[(sy*w+sx)*4+c])
						diff := sample - center
						weight := spatial[(dy+radius)*size+(dx+radius)] *
							math.Exp(-(diff*diff)/twoIntensitySq)
						sum += sample * weight
						weightSum += weight
					}
				}
				data[i+c] = clampU8(sum / weightSum)
			}
		}
	}
}

// clampF clamps a float to the displayable [0, 255] range.
func clampF(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
