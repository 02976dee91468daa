package fx

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestFromDataValidates(t *testing.T) {
	if _, err := FromData(4, 4, make([]uint8, 4*4*4)); err != nil {
		t.Errorf("valid data rejected: %v", err)
	}
	if _, err := FromData(4, 4, make([]uint8, 10)); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("short data: got %v, want ErrInvalidBuffer", err)
	}
	if _, err := FromData(0, 4, nil); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("zero width: got %v, want ErrInvalidBuffer", err)
	}
}

func TestBufferPixelRoundTrip(t *testing.T) {
	buf := NewBuffer(3, 3)
	buf.SetPixel(1, 2, 10, 20, 30, 40)

	r, g, b, a := buf.Pixel(1, 2)
	if r != 10 || g != 20 || b != 30 || a != 40 {
		t.Errorf("Pixel = (%d,%d,%d,%d), want (10,20,30,40)", r, g, b, a)
	}

	// Out-of-bounds writes are ignored, reads return zero.
	buf.SetPixel(5, 5, 1, 1, 1, 1)
	if r, _, _, _ := buf.Pixel(5, 5); r != 0 {
		t.Errorf("out-of-bounds read = %d, want 0", r)
	}
}

func TestBufferCloneIndependent(t *testing.T) {
	buf := flatBuffer(4, 4, 7, 7, 7, 255)
	cl := buf.Clone()
	cl.SetPixel(0, 0, 99, 0, 0, 255)

	if r, _, _, _ := buf.Pixel(0, 0); r != 7 {
		t.Errorf("clone mutation leaked into original: red = %d", r)
	}
	if !buf.Equal(flatBuffer(4, 4, 7, 7, 7, 255)) {
		t.Error("original changed after clone mutation")
	}
}

func TestBufferImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 1, color.RGBA{B: 128, A: 255})

	buf := FromImage(img)
	if r, _, _, _ := buf.Pixel(0, 0); r != 255 {
		t.Errorf("FromImage red = %d, want 255", r)
	}

	back := buf.ToImage()
	if got := back.RGBAAt(1, 1); got.B != 128 {
		t.Errorf("ToImage blue = %d, want 128", got.B)
	}
}

func TestBufferImplementsImage(t *testing.T) {
	var _ image.Image = NewBuffer(1, 1)

	buf := flatBuffer(2, 2, 100, 150, 200, 255)
	c := buf.At(0, 0)
	r, g, b, a := c.RGBA()
	if r>>8 != 100 || g>>8 != 150 || b>>8 != 200 || a>>8 != 255 {
		t.Errorf("At(0,0).RGBA() = (%d,%d,%d,%d)", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestCrossFadeEndpoints(t *testing.T) {
	from := flatBuffer(4, 4, 0, 0, 0, 255)
	to := flatBuffer(4, 4, 200, 100, 50, 255)

	start, err := CrossFade(from, to, 0)
	if err != nil {
		t.Fatalf("CrossFade: %v", err)
	}
	if !start.Equal(from) {
		t.Error("t=0 should equal the from buffer")
	}

	end, err := CrossFade(from, to, 1)
	if err != nil {
		t.Fatalf("CrossFade: %v", err)
	}
	if !end.Equal(to) {
		t.Error("t=1 should equal the to buffer")
	}

	mid, err := CrossFade(from, to, 0.5)
	if err != nil {
		t.Fatalf("CrossFade: %v", err)
	}
	if r, _, _, _ := mid.Pixel(0, 0); r != 100 {
		t.Errorf("midpoint red = %d, want 100", r)
	}
}

func TestCrossFadeDimensionMismatch(t *testing.T) {
	if _, err := CrossFade(NewBuffer(2, 2), NewBuffer(3, 3), 0.5); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}
