// Package selection implements region algorithms on pixel buffers and
// masks: flood-fill selection, mask morphology, and boundary tracing.
//
// Masks are one byte per pixel: 0 unselected, 255 selected; values above
// 127 count as selected.
package selection

import "math"

// Rect is an integer pixel rectangle with inclusive bounds.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Selected is the mask membership cutoff.
func Selected(v uint8) bool { return v > 127 }

// colorDistance returns the perceptually weighted Euclidean distance
// between two RGBA pixels: sqrt(0.3dR^2 + 0.59dG^2 + 0.11dB^2 + 0.1dA^2).
func colorDistance(data []uint8, i, j int) float64 {
	dr := float64(data[i]) - float64(data[j])
	dg := float64(data[i+1]) - float64(data[j+1])
	db := float64(data[i+2]) - float64(data[j+2])
	da := float64(data[i+3]) - float64(data[j+3])
	return math.Sqrt(0.3*dr*dr + 0.59*dg*dg + 0.11*db*db + 0.1*da*da)
}

// FloodFill selects pixels whose color lies within tolerance of the seed
// pixel's color.
//
// Contiguous mode grows a 4-connected region from the seed with an
// explicit stack (never recursion, so large images cannot overflow the
// call stack), visiting each pixel at most once. Non-contiguous mode
// scans the whole image and selects every matching pixel regardless of
// connectivity.
//
// The returned bounds are the bounding box of the selection; when nothing
// is selected they degenerate to the seed point, never an inverted
// rectangle.
func FloodFill(data []uint8, w, h, seedX, seedY int, tolerance float64, contiguous bool) ([]uint8, Rect) {
	mask := make([]uint8, w*h)
	bounds := Rect{MinX: seedX, MinY: seedY, MaxX: seedX, MaxY: seedY}
	if w <= 0 || h <= 0 || seedX < 0 || seedX >= w || seedY < 0 || seedY >= h {
		return mask, bounds
	}

	seedIdx := (seedY*w + seedX) * 4
	selected := false

	include := func(x, y int) {
		mask[y*w+x] = 255
		if !selected {
			bounds = Rect{MinX: x, MinY: y, MaxX: x, MaxY: y}
			selected = true
			return
		}
		if x < bounds.MinX {
			bounds.MinX = x
		}
		if x > bounds.MaxX {
			bounds.MaxX = x
		}
		if y < bounds.MinY {
			bounds.MinY = y
		}
		if y > bounds.MaxY {
			bounds.MaxY = y
		}
	}

	if !contiguous {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if colorDistance(data, (y*w+x)*4, seedIdx) <= tolerance {
					include(x, y)
				}
			}
		}
		return mask, bounds
	}

	visited := make([]bool, w*h)
	stack := make([][2]int, 0, 256)
	stack = append(stack, [2]int{seedX, seedY})
	visited[seedY*w+seedX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p[0], p[1]

		if colorDistance(data, (y*w+x)*4, seedIdx) > tolerance {
			continue
		}
		include(x, y)

		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if ni := ny*w + nx; !visited[ni] {
				visited[ni] = true
				stack = append(stack, [2]int{nx, ny})
			}
		}
	}

	return mask, bounds
}
