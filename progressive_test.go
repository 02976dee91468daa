package fx

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPreviewDownscales(t *testing.T) {
	e := newTestEngine(t)
	src := flatBuffer(64, 64, 90, 90, 90, 255)

	out, err := e.Preview(context.Background(), "brightness", Settings{"amount": 20}, src)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	// Default preview scale is 0.25.
	if out.Width() != 16 || out.Height() != 16 {
		t.Errorf("preview size = %dx%d, want 16x16", out.Width(), out.Height())
	}
	if r, _, _, _ := out.Pixel(8, 8); r != 141 {
		t.Errorf("preview red = %d, want 141", r)
	}

	cached, ok := e.CachedPreview(src, "brightness")
	if !ok {
		t.Fatal("preview not cached")
	}
	if !cached.Equal(out) {
		t.Error("cached preview differs from returned preview")
	}
}

func TestCachedPreviewExpires(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	e := New(
		WithWorkers(2), WithSweepInterval(0),
		WithPreviewTTL(time.Minute), WithClock(clock),
		WithHeartbeat(time.Hour), WithIdleReclaim(time.Hour),
	)
	defer e.Close()

	src := flatBuffer(32, 32, 10, 10, 10, 255)
	if _, err := e.Preview(context.Background(), "blur", nil, src); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if _, ok := e.CachedPreview(src, "blur"); !ok {
		t.Fatal("preview missing immediately after render")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := e.CachedPreview(src, "blur"); ok {
		t.Error("preview survived past its TTL")
	}
}

func TestRenderProgressivePhases(t *testing.T) {
	e := newTestEngine(t)
	src := flatBuffer(40, 40, 60, 60, 60, 255)

	var phases []Phase
	var previewW int
	full, err := e.RenderProgressive(context.Background(), "brightness", Settings{"amount": 20}, src,
		func(p Phase, buf *Buffer) {
			phases = append(phases, p)
			if p == PhasePreview {
				previewW = buf.Width()
			}
		})
	if err != nil {
		t.Fatalf("RenderProgressive: %v", err)
	}

	if len(phases) != 2 || phases[0] != PhasePreview || phases[1] != PhaseFull {
		t.Fatalf("phases = %v, want [preview full]", phases)
	}
	if previewW != 10 {
		t.Errorf("preview width = %d, want 10", previewW)
	}
	if full.Width() != 40 || full.Height() != 40 {
		t.Errorf("full size = %dx%d, want 40x40", full.Width(), full.Height())
	}
	if r, _, _, _ := full.Pixel(20, 20); r != 111 {
		t.Errorf("full red = %d, want 111", r)
	}
}

func TestRenderProgressiveSeedsOperationCache(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	src := flatBuffer(32, 32, 60, 60, 60, 255)
	settings := Settings{"amount": 20}

	if _, err := e.RenderProgressive(ctx, "brightness", settings, src, nil); err != nil {
		t.Fatalf("RenderProgressive: %v", err)
	}
	computes := e.computes.Load()

	// The full-resolution result should now serve ApplyEffect from cache.
	if _, err := e.ApplyEffect(ctx, "brightness", settings, src); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	if got := e.computes.Load(); got != computes {
		t.Errorf("computes = %d after cached apply, want %d", got, computes)
	}
}

func TestRenderProgressiveCancelBetweenPhases(t *testing.T) {
	e := newTestEngine(t)
	src := flatBuffer(40, 40, 60, 60, 60, 255)

	ctx, cancel := context.WithCancel(context.Background())
	var sawFull bool
	_, err := e.RenderProgressive(ctx, "brightness", nil, src, func(p Phase, _ *Buffer) {
		if p == PhasePreview {
			cancel()
		}
		if p == PhaseFull {
			sawFull = true
		}
	})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("got %v, want ErrCancelled", err)
	}
	if sawFull {
		t.Error("full phase delivered after cancellation")
	}
}

func TestPhaseString(t *testing.T) {
	if PhasePreview.String() != "preview" || PhaseFull.String() != "full" {
		t.Errorf("Phase strings = %q, %q", PhasePreview, PhaseFull)
	}
}
