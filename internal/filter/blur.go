package filter

import "math"

// Scratch supplies temporary byte buffers for two-pass algorithms.
// The engine injects its buffer pool; a nil Scratch falls back to plain
// allocation.
type Scratch interface {
	Acquire(size int) []byte
	Release(buf []byte)
}

// acquire returns a zeroed scratch buffer of the given size.
func acquire(sc Scratch, size int) []byte {
	if sc == nil {
		return make([]byte, size)
	}
	return sc.Acquire(size)
}

// release returns a scratch buffer if a pool is present.
func release(sc Scratch, buf []byte) {
	if sc != nil {
		sc.Release(buf)
	}
}

// GaussianBlur applies an exact separable Gaussian blur in place.
// The 2D convolution decomposes into a horizontal and a vertical 1D pass,
// O(n*r) instead of O(n*r^2). Out-of-bounds samples clamp to the edge
// pixel. radius <= 0 is a no-op; radius is clamped to [1, MaxRadius].
func GaussianBlur(data []uint8, w, h, radius int, sigma float64, sc Scratch) {
	if radius <= 0 || w <= 0 || h <= 0 {
		return
	}
	radius = clampRadius(radius)
	kernel := GaussianKernel(radius, sigma)

	tmp := acquire(sc, len(data))
	defer release(sc, tmp)

	convolveRows(data, tmp, w, h, kernel)
	convolveCols(tmp, data, w, h, kernel)
}

// convolveRows convolves each row of src with a 1D kernel, writing to dst.
func convolveRows(src, dst []uint8, w, h int, kernel []float64) {
	radius := len(kernel) / 2
	for y := 0; y < h; y++ {
		row := y * w * 4
		for x := 0; x < w; x++ {
			var r, g, b, a float64
			for k, weight := range kernel {
				sx := clampIndex(x+k-radius, w)
				i := row + sx*4
				r += float64(src[i]) * weight
				g += float64(src[i+1]) * weight
				b += float64(src[i+2]) * weight
				a += float64(src[i+3]) * weight
			}
			o := row + x*4
			dst[o] = clampU8(r)
			dst[o+1] = clampU8(g)
			dst[o+2] = clampU8(b)
			dst[o+3] = clampU8(a)
		}
	}
}

// convolveCols convolves each column of src with a 1D kernel, writing to dst.
func convolveCols(src, dst []uint8, w, h int, kernel []float64) {
	radius := len(kernel) / 2
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var r, g, b, a float64
			for k, weight := range kernel {
				sy := clampIndex(y+k-radius, h)
				i := (sy*w + x) * 4
				r += float64(src[i]) * weight
				g += float64(src[i+1]) * weight
				b += float64(src[i+2]) * weight
				a += float64(src[i+3]) * weight
			}
			o := (y*w + x) * 4
			dst[o] = clampU8(r)
			dst[o+1] = clampU8(g)
			dst[o+2] = clampU8(b)
			dst[o+3] = clampU8(a)
		}
	}
}

// BoxBlur applies a box blur in place using a running-window sum, so each
// pixel step costs O(1) regardless of radius. Used as a cheap
// approximation for large radii. radius <= 0 is a no-op.
func BoxBlur(data []uint8, w, h, radius int, sc Scratch) {
	if radius <= 0 || w <= 0 || h <= 0 {
		return
	}
	radius = clampRadius(radius)

	tmp := acquire(sc, len(data))
	defer release(sc, tmp)

	boxRows(data, tmp, w, h, radius)
	boxCols(tmp, data, w, h, radius)
}

// boxRows box-filters each row of src into dst with a sliding sum.
func boxRows(src, dst []uint8, w, h, radius int) {
	window := uint32(2*radius + 1)
	for y := 0; y < h; y++ {
		row := y * w * 4
		var r, g, b, a uint32

		// Prime the window for x = 0, clamping samples to the edge.
		for k := -radius; k <= radius; k++ {
			i := row + clampIndex(k, w)*4
			r += uint32(src[i])
			g += uint32(src[i+1])
			b += uint32(src[i+2])
			a += uint32(src[i+3])
		}

		for x := 0; x < w; x++ {
			o := row + x*4
			dst[o] = uint8((r + window/2) / window)
			dst[o+1] = uint8((g + window/2) / window)
			dst[o+2] = uint8((b + window/2) / window)
			dst[o+3] = uint8((a + window/2) / window)

			// Slide: add the sample entering on the right, drop the one
			// leaving on the left.
			in := row + clampIndex(x+radius+1, w)*4
			out := row + clampIndex(x-radius, w)*4
			r += uint32(src[in]) - uint32(src[out])
			g += uint32(src[in+1]) - uint32(src[out+1])
			b += uint32(src[in+2]) - uint32(src[out+2])
			a += uint32(src[in+3]) - uint32(src[out+3])
		}
	}
}

// boxCols box-filters each column of src into dst with a sliding sum.
func boxCols(src, dst []uint8, w, h, radius int) {
	window := uint32(2*radius + 1)
	stride := w * 4
	for x := 0; x < w; x++ {
		col := x * 4
		var r, g, b, a uint32

		for k := -radius; k <= radius; k++ {
			i := clampIndex(k, h)*stride + col
			r += uint32(src[i])
			g += uint32(src[i+1])
			b += uint32(src[i+2])
			a += uint32(src[i+3])
		}

		for y := 0; y < h; y++ {
			o := y*stride + col
			dst[o] = uint8((r + window/2) / window)
			dst[o+1] = uint8((g + window/2) / window)
			dst[o+2] = uint8((b + window/2) / window)
			dst[o+3] = uint8((a + window/2) / window)

			in := clampIndex(y+radius+1, h)*stride + col
			out := clampIndex(y-radius, h)*stride + col
			r += uint32(src[in]) - uint32(src[out])
			g += uint32(src[in+1]) - uint32(src[out+1])
			b += uint32(src[in+2]) - uint32(src[out+2])
			a += uint32(src[in+3]) - uint32(src[out+3])
		}
	}
}

// StackBlur approximates a Gaussian blur. Small radii (<= 3) use the exact
// separable Gaussian; larger radii run three box-blur passes whose repeated
// box filter converges on a Gaussian (central limit), with
// boxRadius = round(radius / sqrt(3)).
func StackBlur(data []uint8, w, h, radius int, sc Scratch) {
	if radius <= 0 || w <= 0 || h <= 0 {
		return
	}
	radius = clampRadius(radius)

	if radius <= 3 {
		GaussianBlur(data, w, h, radius, 0, sc)
		return
	}

	boxRadius := int(math.Round(float64(radius) / math.Sqrt(3)))
	if boxRadius < 1 {
		boxRadius = 1
	}
	for range 3 {
		BoxBlur(data, w, h, boxRadius, sc)
	}
}
