package fx

import (
	"context"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/google/uuid"
	"github.com/gogpu/fx/internal/sched"
)

// Phase identifies a stage of a progressive render.
type Phase int

const (
	// PhasePreview is the fast low-resolution pass.
	PhasePreview Phase = iota
	// PhaseFull is the full-resolution pass.
	PhaseFull
)

func (p Phase) String() string {
	switch p {
	case PhasePreview:
		return "preview"
	case PhaseFull:
		return "full"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Preview applies an effect to a downscaled copy of the buffer and
// returns the small result. Previews are cached with a TTL so scrubbing
// a parameter slider back and forth reuses recent renders; the cache key
// deliberately ignores settings, keeping one slot per (buffer, effect)
// that the latest preview overwrites.
func (e *Engine) Preview(ctx context.Context, effectID string, settings Settings, buf *Buffer) (*Buffer, error) {
	spec, norm, err := e.validate(effectID, settings, buf)
	if err != nil {
		return nil, err
	}

	small := e.downscale(buf, e.opts.previewScale)
	taskID := uuid.NewString()
	task := sched.NewTask(taskID, "preview:"+effectID, func() (any, error) {
		return e.compute(small, spec, norm), nil
	})
	result, err := e.await(ctx, task, taskID, effectID)
	if err != nil {
		return nil, err
	}
	e.previewCache.Set(previewKey(buf, effectID), result.Clone())
	return result, nil
}

// CachedPreview returns the most recent preview for (buffer, effect), if
// one is still live in the TTL cache.
func (e *Engine) CachedPreview(buf *Buffer, effectID string) (*Buffer, bool) {
	if e.closed.Load() {
		return nil, false
	}
	cached, ok := e.previewCache.Get(previewKey(buf, effectID))
	if !ok {
		return nil, false
	}
	return cached.Clone(), true
}

// RenderProgressive renders an effect in two phases: a fast downscaled
// preview, then the full-resolution result. Each completed phase is
// delivered through onPhase before the next begins. Cancelling ctx
// between phases abandons the remaining work with ErrCancelled; the
// preview already delivered stays valid.
func (e *Engine) RenderProgressive(ctx context.Context, effectID string, settings Settings, buf *Buffer, onPhase func(Phase, *Buffer)) (*Buffer, error) {
	spec, norm, err := e.validate(effectID, settings, buf)
	if err != nil {
		return nil, err
	}

	small := e.downscale(buf, e.opts.previewScale)
	previewTask := sched.NewTask(uuid.NewString(), "", func() (any, error) {
		return e.compute(small, spec, norm), nil
	})
	preview, err := e.await(ctx, previewTask, previewTask.ID, effectID)
	if err != nil {
		return nil, err
	}
	e.previewCache.Set(previewKey(buf, effectID), preview.Clone())
	if onPhase != nil {
		onPhase(PhasePreview, preview)
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}

	fullTask := sched.NewTask(uuid.NewString(), "", func() (any, error) {
		return e.compute(buf, spec, norm), nil
	})
	full, err := e.await(ctx, fullTask, fullTask.ID, effectID)
	if err != nil {
		return nil, err
	}
	e.opCache.Set(operationKey(buf, effectID, norm), full.Clone())
	if onPhase != nil {
		onPhase(PhaseFull, full)
	}
	return full, nil
}

// downscale resamples the buffer by scale with bilinear interpolation.
// Results are at least 1x1.
func (e *Engine) downscale(buf *Buffer, scale float64) *Buffer {
	if scale <= 0 || scale >= 1 {
		return buf.Clone()
	}
	w := max(1, int(float64(buf.Width())*scale))
	h := max(1, int(float64(buf.Height())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), buf, buf.Bounds(), xdraw.Src, nil)
	return FromImage(dst)
}

// CrossFade linearly blends two equally sized buffers, t in [0,1] where
// 0 is all from and 1 is all to. Used to soften the preview-to-full swap.
func CrossFade(from, to *Buffer, t float64) (*Buffer, error) {
	if from == nil || to == nil {
		return nil, ErrInvalidBuffer
	}
	if from.Width() != to.Width() || from.Height() != to.Height() {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
			from.Width(), from.Height(), to.Width(), to.Height())
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	out := NewBuffer(from.Width(), from.Height())
	fd, td, od := from.Data(), to.Data(), out.Data()
	for i := range od {
		od[i] = uint8(float64(fd[i])*(1-t) + float64(td[i])*t + 0.5)
	}
	return out, nil
}
