package selection

import (
	"math"
	"testing"
)

// whiteSquareImage returns a black image with a white square region.
func whiteSquareImage(w, h, x0, y0, size int) []uint8 {
	data := make([]uint8, w*h*4)
	for i := 3; i < len(data); i += 4 {
		data[i] = 255
	}
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			i := (y*w + x) * 4
			data[i] = 255
			data[i+1] = 255
			data[i+2] = 255
		}
	}
	return data
}

func TestTraceSquare(t *testing.T) {
	data := whiteSquareImage(30, 30, 10, 10, 8)
	polys := TraceBoundaries(data, 30, 30, 128, 1)

	if len(polys) != 1 {
		t.Fatalf("traced %d polygons, want 1", len(polys))
	}

	// RDP should reduce a square boundary to roughly its corners.
	poly := polys[0]
	if len(poly) < 3 || len(poly) > 8 {
		t.Errorf("simplified square has %d points, want a handful", len(poly))
	}

	// Every point lies on the square's boundary ring.
	for _, p := range poly {
		onX := p.X == 10 || p.X == 17
		onY := p.Y == 10 || p.Y == 17
		inX := p.X >= 10 && p.X <= 17
		inY := p.Y >= 10 && p.Y <= 17
		if !((onX && inY) || (onY && inX)) {
			t.Errorf("point (%v,%v) not on square boundary", p.X, p.Y)
		}
	}
}

func TestTraceEmptyImage(t *testing.T) {
	data := make([]uint8, 20*20*4)
	if polys := TraceBoundaries(data, 20, 20, 128, 1); len(polys) != 0 {
		t.Errorf("traced %d polygons on empty image, want 0", len(polys))
	}
}

func TestTraceTwoRegions(t *testing.T) {
	data := whiteSquareImage(40, 40, 5, 5, 6)
	// Second square, well separated.
	for y := 25; y < 31; y++ {
		for x := 25; x < 31; x++ {
			i := (y*40 + x) * 4
			data[i] = 255
			data[i+1] = 255
			data[i+2] = 255
		}
	}

	polys := TraceBoundaries(data, 40, 40, 128, 1)
	if len(polys) != 2 {
		t.Errorf("traced %d polygons, want 2", len(polys))
	}
}

func TestTraceIgnoresTinyRegions(t *testing.T) {
	// A 1-pixel region cannot close a 3-point walk.
	data := make([]uint8, 10*10*4)
	i := (5*10 + 5) * 4
	data[i], data[i+1], data[i+2], data[i+3] = 255, 255, 255, 255

	if polys := TraceBoundaries(data, 10, 10, 128, 0); len(polys) != 0 {
		t.Errorf("traced %d polygons from a single pixel, want 0", len(polys))
	}
}

func TestSimplifyRDPCollinear(t *testing.T) {
	line := []Point{{0, 0}, {1, 0.001}, {2, 0}, {3, -0.001}, {4, 0}}
	got := SimplifyRDP(line, 0.01)
	if len(got) != 2 {
		t.Fatalf("collinear line simplified to %d points, want 2", len(got))
	}
	if got[0] != line[0] || got[1] != line[4] {
		t.Error("simplification lost the endpoints")
	}
}

func TestSimplifyRDPKeepsCorner(t *testing.T) {
	corner := []Point{{0, 0}, {5, 0}, {10, 0}, {10, 5}, {10, 10}}
	got := SimplifyRDP(corner, 0.5)
	if len(got) != 3 {
		t.Fatalf("corner simplified to %d points, want 3", len(got))
	}
	mid := got[1]
	if math.Abs(mid.X-10) > 1e-9 || math.Abs(mid.Y) > 1e-9 {
		t.Errorf("kept point (%v,%v), want the corner (10,0)", mid.X, mid.Y)
	}
}

func TestSimplifyRDPZeroToleranceKeepsAll(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}, {2, 0}}
	if got := SimplifyRDP(pts, 0); len(got) != 3 {
		t.Errorf("zero tolerance dropped points: %d", len(got))
	}
}
