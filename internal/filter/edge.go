package filter

import "math"

// EdgeMode selects the edge-detection operator.
type EdgeMode int

const (
	// EdgeSobel uses the Sobel gradient magnitude with gamma 2.0,
	// suppressing weak edges.
	EdgeSobel EdgeMode = iota

	// EdgeLaplacian uses the Laplacian with gamma 0.5, expanding weak
	// edges. The opposing gammas make the two modes comparably selective.
	EdgeLaplacian
)

// sobelX and sobelY are the 3x3 Sobel gradient kernels.
var sobelX = [9]float64{-1, 0, 1, -2, 0, 2, -1, 0, 1}
var sobelY = [9]float64{-1, -2, -1, 0, 0, 0, 1, 2, 1}

// laplacian is the 4-neighbor Laplacian kernel.
var laplacian = [9]float64{0, -1, 0, -1, 4, -1, 0, -1, 0}

// Luminance converts RGBA data to a per-pixel luminance plane in [0, 255]
// using the Rec. 601 weights 0.299R + 0.587G + 0.114B.
func Luminance(data []uint8, w, h int) []float64 {
	lum := make([]float64, w*h)
	for p := range lum {
		i := p * 4
		lum[p] = 0.299*float64(data[i]) + 0.587*float64(data[i+1]) + 0.114*float64(data[i+2])
	}
	return lum
}

// EdgeMap computes per-pixel edge strength normalized to [0, 1].
// Sobel mode takes the gradient magnitude sqrt(gx^2+gy^2); Laplacian mode
// the absolute response. Strengths are normalized by the image maximum and
// shaped by a mode-specific gamma.
func EdgeMap(data []uint8, w, h int, mode EdgeMode) []float64 {
	lum := Luminance(data, w, h)
	edges := make([]float64, w*h)

	maxMag := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mag float64
			if mode == EdgeLaplacian {
				mag = math.Abs(convolve3x3(lum, w, h, x, y, &laplacian))
			} else {
				gx := convolve3x3(lum, w, h, x, y, &sobelX)
				gy := convolve3x3(lum, w, h, x, y, &sobelY)
				mag = math.Sqrt(gx*gx + gy*gy)
			}
			edges[y*w+x] = mag
			if mag > maxMag {
				maxMag = mag
			}
		}
	}

	// Flat fields leave float summation residue in the gradients; a
	// sub-epsilon maximum is noise, not an edge, and must not be
	// normalized up to full strength.
	if maxMag < 1e-9 {
		for i := range edges {
			edges[i] = 0
		}
		return edges
	}
	gamma := 2.0
	if mode == EdgeLaplacian {
		gamma = 0.5
	}
	for i := range edges {
		edges[i] = math.Pow(edges[i]/maxMag, gamma)
	}
	return edges
}

// EdgeDetect replaces the image with its edge map rendered as grayscale.
// Alpha is forced opaque.
func EdgeDetect(data []uint8, w, h int, mode EdgeMode) {
	edges := EdgeMap(data, w, h, mode)
	for p, e := range edges {
		i := p * 4
		v := clampU8(e * 255)
		data[i] = v
		data[i+1] = v
		data[i+2] = v
		data[i+3] = 255
	}
}

// Emboss applies a 3x3 emboss kernel to the luminance gradient, rendering
// the relief over mid-gray. strength scales the relief depth.
func Emboss(data []uint8, w, h int, strength float64) {
	lum := Luminance(data, w, h)
	kernel := [9]float64{-2, -1, 0, -1, 1, 1, 0, 1, 2}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := convolve3x3(lum, w, h, x, y, &kernel)
			relief := clampU8(128 + (v-lum[y*w+x])*strength)
			i := (y*w + x) * 4
			data[i] = relief
			data[i+1] = relief
			data[i+2] = relief
			// Alpha untouched.
		}
	}
}

// convolve3x3 applies a 3x3 kernel to the luminance plane at (x, y),
// clamping out-of-bounds samples to the edge.
func convolve3x3(lum []float64, w, h, x, y int, kernel *[9]float64) float64 {
	sum := 0.0
	k := 0
	for dy := -1; dy <= 1; dy++ {
		sy := clampIndex(y+dy, h)
		for dx := -1; dx <= 1; dx++ {
			sx := clampIndex(x+dx, w)
			sum += lum[sy*w+sx] * kernel[k]
			k++
		}
	}
	return sum
}
