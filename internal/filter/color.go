package filter

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// BalanceParams collects the pointwise color adjustments. All four can be
// applied in a single buffer pass, which is why the optimizer merges
// color-family operations into one of these.
type BalanceParams struct {
	Brightness float64 // -100..100, additive
	Contrast   float64 // -100..100, scaled around mid-gray
	Saturation float64 // -100..100, HSL saturation scale
	Hue        float64 // -180..180, HSL hue shift in degrees
}

// ColorBalance applies brightness, contrast, saturation, and hue
// adjustments in place in one pass. Alpha is untouched.
func ColorBalance(data []uint8, w, h int, p BalanceParams) {
	if w <= 0 || h <= 0 {
		return
	}

	delta := p.Brightness * 255 / 100
	// Standard contrast correction factor over a -255..255 domain.
	ca := p.Contrast * 255 / 100
	factor := (259 * (ca + 255)) / (255 * (259 - ca))
	adjustHSL := p.Saturation != 0 || p.Hue != 0
	satScale := 1 + p.Saturation/100

	for i := 0; i < len(data); i += 4 {
		r := float64(data[i])
		g := float64(data[i+1])
		b := float64(data[i+2])

		if delta != 0 {
			r += delta
			g += delta
			b += delta
		}
		if p.Contrast != 0 {
			r = factor*(r-128) + 128
			g = factor*(g-128) + 128
			b = factor*(b-128) + 128
		}

		if adjustHSL {
			c := colorful.Color{R: clampF(r) / 255, G: clampF(g) / 255, B: clampF(b) / 255}
			hue, sat, lum := c.Hsl()
			hue = math.Mod(hue+p.Hue+360, 360)
			sat = math.Min(1, math.Max(0, sat*satScale))
			c = colorful.Hsl(hue, sat, lum).Clamped()
			r = c.R * 255
			g = c.G * 255
			b = c.B * 255
		}

		data[i] = clampU8(r)
		data[i+1] = clampU8(g)
		data[i+2] = clampU8(b)
	}
}

// Opacity scales the alpha channel in place. amount is clamped to [0, 1].
func Opacity(data []uint8, amount float64) {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	for i := 3; i < len(data); i += 4 {
		data[i] = clampU8(float64(data[i]) * amount)
	}
}
