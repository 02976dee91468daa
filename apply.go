package fx

import (
	"github.com/gogpu/fx/internal/filter"
)

// effectPass is one planned effect application within a layer task:
// an operation validated and normalized before the task was queued.
type effectPass struct {
	spec     EffectSpec
	settings Settings
}

// applyGroup executes one operation group on buf. A pairwise color group
// whose operations drive the same algorithm runs as a single fused buffer
// pass; any other group falls back to sequential application.
func (e *Engine) applyGroup(buf *Buffer, group []effectPass) {
	if len(group) == 2 {
		a, b := group[0], group[1]
		data, w, h := buf.Data(), buf.Width(), buf.Height()
		switch {
		case a.spec.ID == "color-balance" && b.spec.ID == "color-balance":
			e.computes.Add(2)
			filter.ColorBalance(data, w, h, filter.BalanceParams{
				Brightness: a.settings.Get("brightness", 0) + b.settings.Get("brightness", 0),
				Contrast:   a.settings.Get("contrast", 0) + b.settings.Get("contrast", 0),
				Saturation: a.settings.Get("saturation", 0) + b.settings.Get("saturation", 0),
				Hue:        a.settings.Get("hue", 0) + b.settings.Get("hue", 0),
			})
			return
		case a.spec.ID == "opacity" && b.spec.ID == "opacity":
			e.computes.Add(2)
			filter.Opacity(data, a.settings.Get("amount", 1)*b.settings.Get("amount", 1))
			return
		}
	}
	for _, p := range group {
		e.applyInPlace(buf, p.spec, p.settings)
	}
}

// compute runs one normalized effect on a copy of src and returns the
// copy. Settings must already be normalized.
func (e *Engine) compute(src *Buffer, spec EffectSpec, settings Settings) *Buffer {
	out := src.Clone()
	e.applyInPlace(out, spec, settings)
	return out
}

// applyInPlace dispatches a normalized effect to its pixel algorithm,
// mutating buf. The engine's buffer pool supplies filter scratch space.
func (e *Engine) applyInPlace(buf *Buffer, spec EffectSpec, settings Settings) {
	e.computes.Add(1)
	data, w, h := buf.Data(), buf.Width(), buf.Height()

	switch spec.ID {
	case "blur":
		radius := int(settings.Get("radius", 5))
		switch int(settings.Get("quality", 1)) {
		case 0:
			filter.BoxBlur(data, w, h, radius, e.buffers)
		case 2:
			filter.GaussianBlur(data, w, h, radius, 0, e.buffers)
		default:
			filter.StackBlur(data, w, h, radius, e.buffers)
		}

	case "sharpen":
		filter.UnsharpMask(data, w, h, filter.SharpenParams{
			Radius:          int(settings.Get("radius", 2)),
			Amount:          settings.Get("amount", 1),
			Threshold:       settings.Get("threshold", 0.1),
			Mode:            filter.EdgeMode(settings.Get("mode", 0)),
			PreserveDetails: settings.Get("preserveDetails", 0) > 0,
			Denoise:         settings.Get("denoise", 0) > 0,
			DenoiseStrength: settings.Get("denoiseStrength", 25),
		}, e.buffers)

	case "edge-detect":
		mode := filter.EdgeSobel
		if int(settings.Get("mode", 0)) == 1 {
			mode = filter.EdgeLaplacian
		}
		filter.EdgeDetect(data, w, h, mode)

	case "emboss":
		filter.Emboss(data, w, h, settings.Get("strength", 1))

	case "noise-reduction":
		filter.Bilateral(data, w, h,
			int(settings.Get("radius", 3)),
			settings.Get("strength", 25),
			e.buffers)

	case "brightness":
		filter.ColorBalance(data, w, h, filter.BalanceParams{Brightness: settings.Get("amount", 0)})

	case "contrast":
		filter.ColorBalance(data, w, h, filter.BalanceParams{Contrast: settings.Get("amount", 0)})

	case "saturation":
		filter.ColorBalance(data, w, h, filter.BalanceParams{Saturation: settings.Get("amount", 0)})

	case "hue":
		filter.ColorBalance(data, w, h, filter.BalanceParams{Hue: settings.Get("shift", 0)})

	case "color-balance":
		filter.ColorBalance(data, w, h, filter.BalanceParams{
			Brightness: settings.Get("brightness", 0),
			Contrast:   settings.Get("contrast", 0),
			Saturation: settings.Get("saturation", 0),
			Hue:        settings.Get("hue", 0),
		})

	case "opacity":
		filter.Opacity(data, settings.Get("amount", 1))

	case "light-leak":
		filter.LightLeak(data, w, h,
			settings.Get("intensity", 0.5),
			uint64(settings.Get("seed", 1)),
			uint64(settings.Get("frame", 0)))

	case "noise":
		filter.Noise(data, w, h,
			settings.Get("amount", 20),
			uint64(settings.Get("seed", 1)),
			uint64(settings.Get("frame", 0)))

	default:
		// Registry and dispatch are maintained together; an unknown ID
		// here means a registered effect without an implementation.
		Logger().Error("fx: no implementation for effect", "effect", spec.ID)
	}
}
