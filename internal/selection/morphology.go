package selection

import "math"

// Dilate grows the selected region: a pixel becomes selected if itself or
// any 4-neighbor is selected. Runs n iterations in place.
func Dilate(mask []uint8, w, h, n int) {
	for range n {
		morphStep(mask, w, h, true)
	}
}

// Erode shrinks the selected region: a pixel stays selected only if itself
// and all 4-neighbors are selected. Runs n iterations in place.
func Erode(mask []uint8, w, h, n int) {
	for range n {
		morphStep(mask, w, h, false)
	}
}

// Adjust grows (pixels > 0) or shrinks (pixels < 0) the selection by
// |pixels| iterations.
func Adjust(mask []uint8, w, h, pixels int) {
	if pixels > 0 {
		Dilate(mask, w, h, pixels)
	} else if pixels < 0 {
		Erode(mask, w, h, -pixels)
	}
}

// morphStep performs one dilation (grow=true) or erosion (grow=false)
// pass over the mask.
func morphStep(mask []uint8, w, h int, grow bool) {
	src := make([]uint8, len(mask))
	copy(src, mask)

	at := func(x, y int) bool {
		if x < 0 || x >= w || y < 0 || y >= h {
			// Outside the image counts as unselected, so erosion eats
			// the border and dilation does not wrap.
			return false
		}
		return Selected(src[y*w+x])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			self := at(x, y)
			n := at(x, y-1)
			s := at(x, y+1)
			e := at(x+1, y)
			west := at(x-1, y)

			var sel bool
			if grow {
				sel = self || n || s || e || west
			} else {
				sel = self && n && s && e && west
			}
			if sel {
				mask[y*w+x] = 255
			} else {
				mask[y*w+x] = 0
			}
		}
	}
}

// Feather softens mask boundaries by applying a separable Gaussian blur to
// the mask values themselves, producing 0-255 gradients. radius <= 0 is a
// no-op.
func Feather(mask []uint8, w, h, radius int) {
	if radius <= 0 || w <= 0 || h <= 0 {
		return
	}

	kernel := gaussianKernel1D(radius)
	tmp := make([]float64, w*h)

	// Horizontal pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, weight := range kernel {
				sx := x + k - radius
				if sx < 0 {
					sx = 0
				} else if sx >= w {
					sx = w - 1
				}
				sum += float64(mask[y*w+sx]) * weight
			}
			tmp[y*w+x] = sum
		}
	}

	// Vertical pass.
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var sum float64
			for k, weight := range kernel {
				sy := y + k - radius
				if sy < 0 {
					sy = 0
				} else if sy >= h {
					sy = h - 1
				}
				sum += tmp[sy*w+x] * weight
			}
			v := sum
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			mask[y*w+x] = uint8(v + 0.5)
		}
	}
}

// gaussianKernel1D builds a normalized kernel of size 2*radius+1 with
// sigma = radius/3. Feathering has its own tiny builder rather than
// depending on the filter package's RGBA-oriented cache.
func gaussianKernel1D(radius int) []float64 {
	sigma := float64(radius) / 3
	if sigma <= 0 {
		sigma = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		x := float64(i - radius)
		v := math.Exp(-(x * x) / (2 * sigma * sigma))
		kernel[i] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// Prune removes connected components of the selection whose pixel count is
// below minArea. Components are found with the same stack-based
// 4-connected flood fill the selection tool uses.
func Prune(mask []uint8, w, h, minArea int) {
	if minArea <= 1 || w <= 0 || h <= 0 {
		return
	}

	visited := make([]bool, w*h)
	component := make([]int, 0, 256)
	stack := make([][2]int, 0, 256)

	for start := range mask {
		if visited[start] || !Selected(mask[start]) {
			continue
		}

		component = component[:0]
		stack = stack[:0]
		stack = append(stack, [2]int{start % w, start / w})
		visited[start] = true

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p[0], p[1]
			component = append(component, y*w+x)

			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if !visited[ni] && Selected(mask[ni]) {
					visited[ni] = true
					stack = append(stack, [2]int{nx, ny})
				}
			}
		}

		if len(component) < minArea {
			for _, i := range component {
				mask[i] = 0
			}
		}
	}
}
