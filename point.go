package fx

// Point is a 2D point in pixel coordinates.
type Point struct {
	X, Y float64
}

// Polygon is a closed boundary emitted by TraceVector: move-to the first
// point, line-to each subsequent point, implicit close back to the first.
type Polygon []Point

// Rect is an integer pixel rectangle with inclusive bounds.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Width returns the rectangle width in pixels (inclusive bounds).
func (r Rect) Width() int { return r.MaxX - r.MinX + 1 }

// Height returns the rectangle height in pixels (inclusive bounds).
func (r Rect) Height() int { return r.MaxY - r.MinY + 1 }
