package fx

import "fmt"

// Kind categorizes an operation for the batch optimizer.
type Kind int

const (
	// KindEffect is a generative or stylistic effect (light leak, noise).
	KindEffect Kind = iota

	// KindTransform is a geometric transform.
	KindTransform

	// KindFilter is a pixel filter (blur, sharpen, color adjustments).
	KindFilter

	// KindComposite blends an overlay into the image.
	KindComposite
)

// Family groups effects for the optimizer's rewrite and grouping rules.
// Operations in the same family may be merged or may share a buffer pass;
// the rules differ per family.
type Family int

const (
	// FamilyBlur effects merge by summing radii.
	FamilyBlur Family = iota

	// FamilyConvolution effects (sharpen, emboss, edge detection) are
	// never merged; merging degrades visual quality. They may be
	// reordered by ascending cost.
	FamilyConvolution

	// FamilyColor effects (brightness, contrast, saturation, hue) merge
	// into a single combined color-balance pass.
	FamilyColor

	// FamilyOverlay effects composite generated content over the image.
	FamilyOverlay
)

// Settings holds the numeric parameters for one effect invocation.
// Keys are validated against the effect's declared schema at submission.
type Settings map[string]float64

// Clone returns a copy of the settings map.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Get returns the value for key, or def if the key is absent.
func (s Settings) Get(key string, def float64) float64 {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

// Operation describes one requested effect application.
// An Operation is immutable once submitted.
type Operation struct {
	// ID uniquely identifies the operation within its layer.
	ID string

	// Kind categorizes the operation.
	Kind Kind

	// EffectID names the registered effect to apply.
	EffectID string

	// Settings holds the effect parameters.
	Settings Settings

	// Priority orders operations, 1 (lowest) to 10 (highest).
	Priority uint8

	// DependsOn lists operation IDs that must complete first.
	DependsOn []string
}

// ParamSpec declares one parameter of an effect: its valid range and the
// value used when the caller omits it.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// EffectSpec declares a registered effect: identity, optimizer family,
// relative computational cost, and parameter schema.
type EffectSpec struct {
	ID     string
	Kind   Kind
	Family Family

	// Cost ranks relative computational expense within a family; the
	// optimizer reorders convolution effects by ascending cost.
	Cost int

	// Heavy effects are always routed to the worker pool. Light
	// pointwise effects may run inline on the caller's goroutine when
	// the pool is saturated.
	Heavy bool

	Params []ParamSpec
}

// registry holds every built-in effect schema, keyed by effect ID.
// The set is fixed at init; lookups need no synchronization.
var registry = map[string]EffectSpec{}

func register(spec EffectSpec) {
	registry[spec.ID] = spec
}

func init() {
	register(EffectSpec{
		ID: "blur", Kind: KindFilter, Family: FamilyBlur, Cost: 3, Heavy: true,
		Params: []ParamSpec{
			{Name: "radius", Min: 1, Max: 100, Default: 5},
			// quality: 0 = box, 1 = stack, 2 = exact gaussian
			{Name: "quality", Min: 0, Max: 2, Default: 1},
		},
	})
	register(EffectSpec{
		ID: "sharpen", Kind: KindFilter, Family: FamilyConvolution, Cost: 4, Heavy: true,
		Params: []ParamSpec{
			{Name: "radius", Min: 1, Max: 50, Default: 2},
			{Name: "amount", Min: 0, Max: 5, Default: 1},
			{Name: "threshold", Min: 0, Max: 1, Default: 0.1},
			// mode: 0 = sobel, 1 = laplacian
			{Name: "mode", Min: 0, Max: 1, Default: 0},
			{Name: "preserveDetails", Min: 0, Max: 1, Default: 0},
			{Name: "denoise", Min: 0, Max: 1, Default: 0},
			{Name: "denoiseStrength", Min: 1, Max: 100, Default: 25},
		},
	})
	register(EffectSpec{
		ID: "edge-detect", Kind: KindFilter, Family: FamilyConvolution, Cost: 2, Heavy: true,
		Params: []ParamSpec{
			{Name: "mode", Min: 0, Max: 1, Default: 0},
		},
	})
	register(EffectSpec{
		ID: "emboss", Kind: KindFilter, Family: FamilyConvolution, Cost: 1, Heavy: true,
		Params: []ParamSpec{
			{Name: "strength", Min: 0, Max: 4, Default: 1},
		},
	})
	register(EffectSpec{
		ID: "noise-reduction", Kind: KindFilter, Family: FamilyConvolution, Cost: 5, Heavy: true,
		Params: []ParamSpec{
			{Name: "radius", Min: 1, Max: 10, Default: 3},
			{Name: "strength", Min: 1, Max: 100, Default: 25},
		},
	})
	register(EffectSpec{
		ID: "brightness", Kind: KindFilter, Family: FamilyColor, Cost: 1, Heavy: false,
		Params: []ParamSpec{
			{Name: "amount", Min: -100, Max: 100, Default: 0},
		},
	})
	register(EffectSpec{
		ID: "contrast", Kind: KindFilter, Family: FamilyColor, Cost: 1, Heavy: false,
		Params: []ParamSpec{
			{Name: "amount", Min: -100, Max: 100, Default: 0},
		},
	})
	register(EffectSpec{
		ID: "saturation", Kind: KindFilter, Family: FamilyColor, Cost: 1, Heavy: false,
		Params: []ParamSpec{
			{Name: "amount", Min: -100, Max: 100, Default: 0},
		},
	})
	register(EffectSpec{
		ID: "hue", Kind: KindFilter, Family: FamilyColor, Cost: 1, Heavy: false,
		Params: []ParamSpec{
			{Name: "shift", Min: -180, Max: 180, Default: 0},
		},
	})
	register(EffectSpec{
		ID: "color-balance", Kind: KindFilter, Family: FamilyColor, Cost: 1, Heavy: false,
		Params: []ParamSpec{
			{Name: "brightness", Min: -100, Max: 100, Default: 0},
			{Name: "contrast", Min: -100, Max: 100, Default: 0},
			{Name: "saturation", Min: -100, Max: 100, Default: 0},
			{Name: "hue", Min: -180, Max: 180, Default: 0},
		},
	})
	register(EffectSpec{
		ID: "opacity", Kind: KindFilter, Family: FamilyColor, Cost: 1, Heavy: false,
		Params: []ParamSpec{
			{Name: "amount", Min: 0, Max: 1, Default: 1},
		},
	})
	register(EffectSpec{
		ID: "light-leak", Kind: KindComposite, Family: FamilyOverlay, Cost: 3, Heavy: true,
		Params: []ParamSpec{
			{Name: "intensity", Min: 0, Max: 1, Default: 0.5},
			{Name: "seed", Min: 0, Max: 1 << 31, Default: 1},
			{Name: "frame", Min: 0, Max: 1 << 20, Default: 0},
		},
	})
	register(EffectSpec{
		ID: "noise", Kind: KindEffect, Family: FamilyOverlay, Cost: 2, Heavy: true,
		Params: []ParamSpec{
			{Name: "amount", Min: 0, Max: 100, Default: 20},
			{Name: "seed", Min: 0, Max: 1 << 31, Default: 1},
			{Name: "frame", Min: 0, Max: 1 << 20, Default: 0},
		},
	})
}

// LookupEffect returns the schema for an effect ID.
func LookupEffect(effectID string) (EffectSpec, bool) {
	spec, ok := registry[effectID]
	return spec, ok
}

// Effects returns the IDs of all registered effects.
func Effects() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

// normalizeSettings validates settings against the effect's schema.
// Unknown keys are rejected with ErrInvalidSetting; missing keys take the
// declared default; out-of-range values are clamped to the declared range.
func normalizeSettings(spec EffectSpec, s Settings) (Settings, error) {
	for key := range s {
		found := false
		for _, p := range spec.Params {
			if p.Name == key {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: effect %q has no parameter %q",
				ErrInvalidSetting, spec.ID, key)
		}
	}

	out := make(Settings, len(spec.Params))
	for _, p := range spec.Params {
		v := p.Default
		if got, ok := s[p.Name]; ok {
			v = got
		}
		if v < p.Min {
			v = p.Min
		}
		if v > p.Max {
			v = p.Max
		}
		out[p.Name] = v
	}
	return out, nil
}
