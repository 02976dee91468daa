package fx

import (
	"image"
	"image/color"
	"image/draw"
)

// Buffer represents a rectangular pixel buffer in interleaved RGBA format,
// 8 bits per channel. Invariant: len(Data()) == Width()*Height()*4.
//
// A Buffer is exclusively owned by whichever stage is currently
// transforming it. Ownership is handed off (moved), never shared mutably;
// the engine clones before dispatching work to a worker.
type Buffer struct {
	width  int
	height int
	data   []uint8
}

// NewBuffer creates a new zero-filled buffer with the given dimensions.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// FromData wraps caller-supplied pixel data in a Buffer.
// Returns ErrInvalidBuffer if len(data) != width*height*4.
// The buffer takes ownership of data; the caller must not retain it.
func FromData(width, height int, data []uint8) (*Buffer, error) {
	if width <= 0 || height <= 0 || len(data) != width*height*4 {
		return nil, ErrInvalidBuffer
	}
	return &Buffer{width: width, height: height, data: data}, nil
}

// FromImage creates a buffer from an image, copying its pixels.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewBuffer(w, h)

	// Fast path: draw into an RGBA backed by the buffer's own storage.
	rgba := &image.RGBA{Pix: buf.data, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	return buf
}

// Width returns the width of the buffer in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the height of the buffer in pixels.
func (b *Buffer) Height() int { return b.height }

// Data returns the raw pixel data (RGBA, 4 bytes per pixel).
func (b *Buffer) Data() []uint8 { return b.data }

// Bounds implements the image.Image interface.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *Buffer) ColorModel() color.Model { return color.RGBAModel }

// At implements the image.Image interface.
// Returns transparent black for coordinates outside the buffer.
func (b *Buffer) At(x, y int) color.Color {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return color.RGBA{}
	}
	i := (y*b.width + x) * 4
	return color.RGBA{R: b.data[i], G: b.data[i+1], B: b.data[i+2], A: b.data[i+3]}
}

// Pixel returns the RGBA channels of a single pixel.
// Returns zeros for coordinates outside the buffer.
func (b *Buffer) Pixel(x, y int) (r, g, bl, a uint8) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0, 0, 0, 0
	}
	i := (y*b.width + x) * 4
	return b.data[i], b.data[i+1], b.data[i+2], b.data[i+3]
}

// SetPixel sets the RGBA channels of a single pixel.
// Coordinates outside the buffer are ignored.
func (b *Buffer) SetPixel(x, y int, r, g, bl, a uint8) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	i := (y*b.width + x) * 4
	b.data[i+0] = r
	b.data[i+1] = g
	b.data[i+2] = bl
	b.data[i+3] = a
}

// Fill sets every pixel to the given RGBA value.
func (b *Buffer) Fill(r, g, bl, a uint8) {
	for i := 0; i < len(b.data); i += 4 {
		b.data[i+0] = r
		b.data[i+1] = g
		b.data[i+2] = bl
		b.data[i+3] = a
	}
}

// Clone creates a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	clone := &Buffer{
		width:  b.width,
		height: b.height,
		data:   make([]uint8, len(b.data)),
	}
	copy(clone.data, b.data)
	return clone
}

// cloneInto copies the buffer into storage acquired elsewhere (typically
// the engine's buffer pool). len(dst) must equal len(b.data).
func (b *Buffer) cloneInto(dst []uint8) *Buffer {
	copy(dst, b.data)
	return &Buffer{width: b.width, height: b.height, data: dst}
}

// ToImage converts the buffer to an image.RGBA, copying its pixels.
func (b *Buffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.data)
	return img
}

// Equal reports whether two buffers have identical dimensions and pixels.
func (b *Buffer) Equal(other *Buffer) bool {
	if other == nil || b.width != other.width || b.height != other.height {
		return false
	}
	for i := range b.data {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}
