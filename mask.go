package fx

import (
	"github.com/gogpu/fx/internal/selection"
)

// Mask represents a selection mask for pixel operations.
// Values range from 0 (unselected) to 255 (selected); any value above 127
// is treated as selected. A mask never aliases the buffer it was derived
// from.
type Mask struct {
	width  int
	height int
	data   []uint8
}

// MaskOp identifies a boolean combination of two masks.
type MaskOp int

const (
	// MaskUnion selects pixels present in either mask.
	MaskUnion MaskOp = iota

	// MaskIntersect selects pixels present in both masks.
	MaskIntersect

	// MaskSubtract selects pixels in the first mask but not the second.
	MaskSubtract

	// MaskXor selects pixels in exactly one of the two masks.
	MaskXor
)

// NewMask creates a new empty mask with the given dimensions.
// All values are initialized to 0 (unselected).
func NewMask(width, height int) *Mask {
	return &Mask{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}
}

// NewMaskFromAlpha creates a mask from a buffer's alpha channel.
func NewMaskFromAlpha(buf *Buffer) *Mask {
	mask := NewMask(buf.Width(), buf.Height())
	data := buf.Data()
	for i := range mask.data {
		mask.data[i] = data[i*4+3]
	}
	return mask
}

// Width returns the mask width.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height.
func (m *Mask) Height() int { return m.height }

// Data returns the underlying mask data slice.
func (m *Mask) Data() []uint8 { return m.data }

// At returns the mask value at (x, y).
// Returns 0 for coordinates outside the mask bounds.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.width+x]
}

// Set sets the mask value at (x, y).
// Coordinates outside the mask bounds are ignored.
func (m *Mask) Set(x, y int, value uint8) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.data[y*m.width+x] = value
}

// Selected reports whether the pixel at (x, y) is selected (value > 127).
func (m *Mask) Selected(x, y int) bool { return m.At(x, y) > 127 }

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v > 127 {
			n++
		}
	}
	return n
}

// Fill fills the entire mask with a value.
func (m *Mask) Fill(value uint8) {
	for i := range m.data {
		m.data[i] = value
	}
}

// Invert inverts all mask values (255 - value).
func (m *Mask) Invert() {
	for i := range m.data {
		m.data[i] = 255 - m.data[i]
	}
}

// Clone creates a copy of the mask.
func (m *Mask) Clone() *Mask {
	clone := NewMask(m.width, m.height)
	copy(clone.data, m.data)
	return clone
}

// Bounds returns the bounding rectangle of the selected region and whether
// any pixel is selected at all.
func (m *Mask) Bounds() (Rect, bool) {
	r := Rect{MinX: m.width, MinY: m.height, MaxX: -1, MaxY: -1}
	for y := 0; y < m.height; y++ {
		row := y * m.width
		for x := 0; x < m.width; x++ {
			if m.data[row+x] > 127 {
				if x < r.MinX {
					r.MinX = x
				}
				if x > r.MaxX {
					r.MaxX = x
				}
				if y < r.MinY {
					r.MinY = y
				}
				if y > r.MaxY {
					r.MaxY = y
				}
			}
		}
	}
	if r.MaxX < 0 {
		return Rect{}, false
	}
	return r, true
}

// Adjust grows (pixels > 0) or shrinks (pixels < 0) the selected region by
// iterated 4-neighbor dilation or erosion.
func (m *Mask) Adjust(pixels int) {
	selection.Adjust(m.data, m.width, m.height, pixels)
}

// Feather softens the mask boundary by blurring the mask values with a
// separable Gaussian of the given radius, producing 0-255 gradients.
func (m *Mask) Feather(radius int) {
	selection.Feather(m.data, m.width, m.height, radius)
}

// Prune removes connected components of the selection smaller than
// minArea pixels.
func (m *Mask) Prune(minArea int) {
	selection.Prune(m.data, m.width, m.height, minArea)
}

// ApplyToAlpha multiplies the buffer's alpha channel by the mask.
// Returns ErrDimensionMismatch if the sizes differ.
func (m *Mask) ApplyToAlpha(buf *Buffer) error {
	if buf.Width() != m.width || buf.Height() != m.height {
		return ErrDimensionMismatch
	}
	data := buf.Data()
	for i, v := range m.data {
		ai := i*4 + 3
		data[ai] = uint8(uint32(data[ai]) * uint32(v) / 255)
	}
	return nil
}

// CombineMasks applies a pointwise boolean operation to two equal-sized
// masks, producing a new mask. Membership is value > 127; result pixels
// are 0 or 255. Returns ErrDimensionMismatch if the sizes differ.
func CombineMasks(a, b *Mask, op MaskOp) (*Mask, error) {
	if a.width != b.width || a.height != b.height {
		return nil, ErrDimensionMismatch
	}
	out := NewMask(a.width, a.height)
	for i := range a.data {
		sa := a.data[i] > 127
		sb := b.data[i] > 127
		var sel bool
		switch op {
		case MaskUnion:
			sel = sa || sb
		case MaskIntersect:
			sel = sa && sb
		case MaskSubtract:
			sel = sa && !sb
		case MaskXor:
			sel = sa != sb
		}
		if sel {
			out.data[i] = 255
		}
	}
	return out, nil
}
