package filter

import (
	"math"
	"math/rand/v2"
)

// LightLeak composites seeded pseudo-random warm radial gradients over the
// image with screen blending, imitating film light leaks. The same
// (seed, frame) pair always produces the same leak pattern; frame nudges
// the leak centers so consecutive frames animate smoothly.
func LightLeak(data []uint8, w, h int, intensity float64, seed, frame uint64) {
	if w <= 0 || h <= 0 || intensity <= 0 {
		return
	}
	if intensity > 1 {
		intensity = 1
	}

	rng := rand.New(rand.NewPCG(seed, 0x6c65616b)) // stream constant, arbitrary
	drift := float64(frame) * 0.8

	type leak struct {
		cx, cy, radius float64
		r, g, b        float64
	}
	count := 2 + rng.IntN(3)
	leaks := make([]leak, count)
	for i := range leaks {
		leaks[i] = leak{
			cx:     rng.Float64()*float64(w) + drift,
			cy:     rng.Float64() * float64(h),
			radius: (0.2 + rng.Float64()*0.4) * float64(max(w, h)),
			// Warm palette: strong red, moderate green, little blue.
			r: 180 + rng.Float64()*75,
			g: 60 + rng.Float64()*120,
			b: rng.Float64() * 80,
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var lr, lg, lb float64
			for _, lk := range leaks {
				dx := float64(x) - lk.cx
				dy := float64(y) - lk.cy
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist >= lk.radius {
					continue
				}
				falloff := 1 - dist/lk.radius
				falloff *= falloff
				lr += lk.r * falloff
				lg += lk.g * falloff
				lb += lk.b * falloff
			}
			if lr == 0 && lg == 0 && lb == 0 {
				continue
			}
			i := (y*w + x) * 4
			data[i] = screen(data[i], lr*intensity)
			data[i+1] = screen(data[i+1], lg*intensity)
			data[i+2] = screen(data[i+2], lb*intensity)
		}
	}
}

// Noise adds seeded uniform grain of +/- amount to each color channel.
// Deterministic per (seed, frame) so frame sequences are reproducible.
func Noise(data []uint8, w, h int, amount float64, seed, frame uint64) {
	if w <= 0 || h <= 0 || amount <= 0 {
		return
	}

	rng := rand.New(rand.NewPCG(seed, frame))
	for i := 0; i < len(data); i += 4 {
		grain := (rng.Float64()*2 - 1) * amount
		data[i] = clampU8(float64(data[i]) + grain)
		data[i+1] = clampU8(float64(data[i+1]) + grain)
		data[i+2] = clampU8(float64(data[i+2]) + grain)
	}
}

// screen applies screen blending: out = 255 - (255-base)*(255-over)/255.
func screen(base uint8, over float64) uint8 {
	if over > 255 {
		over = 255
	}
	return clampU8(255 - (255-float64(base))*(255-over)/255)
}
