package selection

import "math"

// Point is a 2D point in pixel coordinates.
type Point struct {
	X, Y float64
}

// moore holds the 8 neighbor offsets in clockwise order starting east.
// Direction indices are taken modulo 8 throughout.
var moore = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// TraceBoundaries vectorizes the foreground regions of an image.
//
// Pixels are binarized by luminance threshold (0-255). Every unvisited
// foreground pixel that touches background (the image border or an empty
// neighbor) starts a boundary walk: at each step the next pixel is the
// first unvisited foreground boundary pixel among the 8 neighbors,
// searching clockwise from the direction two steps counterclockwise of the
// incoming direction. Backing the search off by two keeps the walk hugging
// the region edge (wall-follower rule). A walk ends when it returns to its
// start or after width*height steps; closed walks of at least 3 points are
// emitted as polygons, simplified with Ramer-Douglas-Peucker at the given
// tolerance.
func TraceBoundaries(data []uint8, w, h int, threshold, simplifyTolerance float64) [][]Point {
	if w <= 0 || h <= 0 {
		return nil
	}

	fg := make([]bool, w*h)
	for p := range fg {
		i := p * 4
		lum := 0.299*float64(data[i]) + 0.587*float64(data[i+1]) + 0.114*float64(data[i+2])
		fg[p] = lum >= threshold
	}

	isFg := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && fg[y*w+x]
	}
	isBoundary := func(x, y int) bool {
		if !isFg(x, y) {
			return false
		}
		if x == 0 || y == 0 || x == w-1 || y == h-1 {
			return true
		}
		return !fg[y*w+x-1] || !fg[y*w+x+1] || !fg[(y-1)*w+x] || !fg[(y+1)*w+x]
	}

	visited := make([]bool, w*h)
	maxSteps := w * h
	var polygons [][]Point

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !isBoundary(x, y) {
				continue
			}
			if poly, ok := walkBoundary(x, y, w, isBoundary, visited, maxSteps); ok {
				poly = SimplifyRDP(poly, simplifyTolerance)
				if len(poly) >= 3 {
					polygons = append(polygons, poly)
				}
			}
		}
	}
	return polygons
}

// walkBoundary follows the region edge from (sx, sy), returning the walk
// and whether it closed back on its start with at least 3 points.
func walkBoundary(sx, sy, w int, isBoundary func(int, int) bool, visited []bool, maxSteps int) ([]Point, bool) {
	points := []Point{{X: float64(sx), Y: float64(sy)}}
	visited[sy*w+sx] = true

	x, y := sx, sy
	dir := 0

	for step := 0; step < maxSteps; step++ {
		// Start the neighbor search two directions back from the way we
		// came, so the walk turns along the wall instead of cutting
		// across the region.
		start := (dir + 6) % 8

		advanced := false
		for k := range 8 {
			d := (start + k) % 8
			nx := x + moore[d][0]
			ny := y + moore[d][1]

			if nx == sx && ny == sy && len(points) >= 3 {
				return points, true
			}
			if !isBoundary(nx, ny) || visited[ny*w+nx] {
				continue
			}

			visited[ny*w+nx] = true
			points = append(points, Point{X: float64(nx), Y: float64(ny)})
			x, y = nx, ny
			dir = d
			advanced = true
			break
		}
		if !advanced {
			return points, false
		}
	}
	return points, false
}

// SimplifyRDP reduces a polyline with the Ramer-Douglas-Peucker algorithm:
// recursively split at the point of maximum deviation from the chord,
// dropping all points whose deviation stays within tolerance.
func SimplifyRDP(points []Point, tolerance float64) []Point {
	if len(points) < 3 || tolerance <= 0 {
		return points
	}

	maxDist := 0.0
	maxIdx := 0
	first := points[0]
	last := points[len(points)-1]
	for i := 1; i < len(points)-1; i++ {
		if d := perpendicularDistance(points[i], first, last); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return []Point{first, last}
	}

	left := SimplifyRDP(points[:maxIdx+1], tolerance)
	right := SimplifyRDP(points[maxIdx:], tolerance)

	out := make([]Point, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}

// perpendicularDistance returns the distance from p to the line through a
// and b, or to a when the segment degenerates to a point.
func perpendicularDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dx*(a.Y-p.Y)-(a.X-p.X)*dy) / length
}
