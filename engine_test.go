package fx

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/fx/internal/sched"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(WithWorkers(2), WithWorkerFloor(1), WithSweepInterval(0))
	t.Cleanup(e.Close)
	return e
}

func flatBuffer(w, h int, r, g, b, a uint8) *Buffer {
	buf := NewBuffer(w, h)
	buf.Fill(r, g, b, a)
	return buf
}

func TestApplyEffectBrightness(t *testing.T) {
	e := newTestEngine(t)
	src := flatBuffer(8, 8, 100, 100, 100, 255)

	// amount 20 maps to an additive delta of 51 on the 0-255 scale.
	out, err := e.ApplyEffect(context.Background(), "brightness", Settings{"amount": 20}, src)
	if err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	if r, _, _, _ := out.Pixel(4, 4); r != 151 {
		t.Errorf("brightened red = %d, want 151", r)
	}
	if r, _, _, _ := src.Pixel(4, 4); r != 100 {
		t.Errorf("input mutated: red = %d, want 100", r)
	}
}

func TestApplyEffectSharpenModes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Vertical edge down the middle so both detectors have something
	// to gate on.
	src := NewBuffer(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				src.SetPixel(x, y, 40, 40, 40, 255)
			} else {
				src.SetPixel(x, y, 220, 220, 220, 255)
			}
		}
	}

	for _, mode := range []float64{0, 1} { // sobel, laplacian gating
		out, err := e.ApplyEffect(ctx, "sharpen",
			Settings{"amount": 2, "mode": mode, "denoise": 1}, src)
		if err != nil {
			t.Fatalf("sharpen mode %v: %v", mode, err)
		}
		if out.Width() != 16 || out.Height() != 16 {
			t.Errorf("sharpen mode %v: size %dx%d", mode, out.Width(), out.Height())
		}
	}
}

func TestApplyEffectInvalidInputs(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	buf := flatBuffer(4, 4, 0, 0, 0, 255)

	if _, err := e.ApplyEffect(ctx, "no-such-effect", nil, buf); !errors.Is(err, ErrUnknownEffect) {
		t.Errorf("unknown effect: got %v, want ErrUnknownEffect", err)
	}
	if _, err := e.ApplyEffect(ctx, "blur", Settings{"bogus": 1}, buf); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("unknown setting: got %v, want ErrInvalidSetting", err)
	}
	if _, err := e.ApplyEffect(ctx, "blur", nil, nil); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("nil buffer: got %v, want ErrInvalidBuffer", err)
	}
}

func TestApplyEffectCacheIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	src := flatBuffer(16, 16, 80, 120, 160, 255)
	settings := Settings{"radius": 3, "quality": 2}

	first, err := e.ApplyEffect(ctx, "blur", settings, src)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	computes := e.computes.Load()

	second, err := e.ApplyEffect(ctx, "blur", settings, src)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if got := e.computes.Load(); got != computes {
		t.Errorf("computes = %d after cached apply, want %d", got, computes)
	}
	if !first.Equal(second) {
		t.Error("cached result differs from computed result")
	}

	// Same pixels in a distinct allocation must still hit.
	if _, err := e.ApplyEffect(ctx, "blur", settings, src.Clone()); err != nil {
		t.Fatalf("clone apply: %v", err)
	}
	if got := e.computes.Load(); got != computes {
		t.Errorf("computes = %d after identical-clone apply, want %d", got, computes)
	}
}

func TestApplyEffectCachedResultIsolated(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	src := flatBuffer(8, 8, 50, 50, 50, 255)

	out1, err := e.ApplyEffect(ctx, "brightness", Settings{"amount": 20}, src)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	out1.Fill(0, 0, 0, 0)

	out2, err := e.ApplyEffect(ctx, "brightness", Settings{"amount": 20}, src)
	if err != nil {
		t.Fatalf("cached apply: %v", err)
	}
	if r, _, _, _ := out2.Pixel(0, 0); r != 101 {
		t.Errorf("cached result corrupted by caller mutation: red = %d, want 101", r)
	}
}

func TestGenerateFramesDeterministic(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	src := flatBuffer(16, 16, 128, 128, 128, 255)
	settings := Settings{"amount": 30, "seed": 7}

	frames, err := e.GenerateFrames(ctx, src, "noise", settings, 4)
	if err != nil {
		t.Fatalf("GenerateFrames: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(frames))
	}
	if frames[0].Equal(frames[1]) {
		t.Error("consecutive noise frames are identical, want per-frame grain")
	}

	again, err := e.GenerateFrames(ctx, src, "noise", settings, 4)
	if err != nil {
		t.Fatalf("second GenerateFrames: %v", err)
	}
	for i := range frames {
		if !frames[i].Equal(again[i]) {
			t.Errorf("frame %d not deterministic across runs", i)
		}
	}
}

func TestGenerateFramesBadCount(t *testing.T) {
	e := newTestEngine(t)
	src := flatBuffer(4, 4, 0, 0, 0, 255)
	if _, err := e.GenerateFrames(context.Background(), src, "noise", nil, 0); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("zero frames: got %v, want ErrInvalidSetting", err)
	}
}

func TestSubmitBatchProcessesLayers(t *testing.T) {
	e := newTestEngine(t)

	var progress [][2]int
	job := Job{
		Layers: []Layer{
			{
				ID:     "bg",
				Buffer: flatBuffer(8, 8, 40, 40, 40, 255),
				Operations: []Operation{
					{ID: "b1", EffectID: "brightness", Settings: Settings{"amount": 20}, Priority: 5},
				},
			},
			{
				ID:     "fg",
				Buffer: flatBuffer(8, 8, 200, 200, 200, 255),
				Operations: []Operation{
					{ID: "c1", EffectID: "contrast", Settings: Settings{"amount": 10}, Priority: 5},
				},
			},
		},
		OnProgress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	}

	results, err := e.SubmitBatch(context.Background(), job)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if r, _, _, _ := results[0].Pixel(0, 0); r != 91 {
		t.Errorf("layer bg red = %d, want 91", r)
	}
	want := [][2]int{{1, 2}, {2, 2}}
	if len(progress) != len(want) {
		t.Fatalf("progress calls = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], want[i])
		}
	}
}

func TestSubmitBatchLayerFallback(t *testing.T) {
	e := newTestEngine(t)

	var layerErr error
	job := Job{
		Layers: []Layer{
			{
				ID:     "broken",
				Buffer: flatBuffer(8, 8, 90, 90, 90, 255),
				Operations: []Operation{
					{ID: "x1", EffectID: "no-such-effect", Priority: 5},
				},
			},
		},
		OnLayer: func(_ int, _ *Buffer, err error) { layerErr = err },
	}

	results, err := e.SubmitBatch(context.Background(), job)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if !errors.Is(layerErr, ErrUnknownEffect) {
		t.Errorf("OnLayer error = %v, want ErrUnknownEffect", layerErr)
	}
	// Failed layer falls back to an untouched copy of the original.
	if r, _, _, _ := results[0].Pixel(3, 3); r != 90 {
		t.Errorf("fallback red = %d, want original 90", r)
	}
}

func TestSubmitBatchEmptyChain(t *testing.T) {
	e := newTestEngine(t)
	src := flatBuffer(4, 4, 10, 20, 30, 255)

	results, err := e.SubmitBatch(context.Background(), Job{
		Layers: []Layer{{ID: "plain", Buffer: src}},
	})
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if !results[0].Equal(src) {
		t.Error("layer with no operations should pass through unchanged")
	}
	if results[0] == src {
		t.Error("result must be a copy, not the input buffer")
	}
}

func TestSubmitBatchFusesOpacityPair(t *testing.T) {
	e := newTestEngine(t)

	// Two adjacent opacity operations form one color group; the layer
	// task executes them as a single fused alpha pass.
	results, err := e.SubmitBatch(context.Background(), Job{
		Layers: []Layer{{
			ID:     "fade",
			Buffer: flatBuffer(8, 8, 60, 60, 60, 200),
			Operations: []Operation{
				{ID: "o1", EffectID: "opacity", Settings: Settings{"amount": 0.5}, Priority: 5},
				{ID: "o2", EffectID: "opacity", Settings: Settings{"amount": 0.8}, Priority: 5},
			},
		}},
	})
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if _, _, _, a := results[0].Pixel(3, 3); a != 80 { // 200 * 0.5 * 0.8
		t.Errorf("fused opacity alpha = %d, want 80", a)
	}
}

func TestApplyGroupFusesColorBalancePair(t *testing.T) {
	e := newTestEngine(t)
	buf := flatBuffer(4, 4, 100, 100, 100, 255)

	spec, _ := LookupEffect("color-balance")
	group := []effectPass{
		{spec: spec, settings: Settings{"brightness": 10}},
		{spec: spec, settings: Settings{"brightness": 10}},
	}
	before := e.computes.Load()
	e.applyGroup(buf, group)

	// Combined brightness 20 maps to one additive delta of 51.
	if r, _, _, _ := buf.Pixel(0, 0); r != 151 {
		t.Errorf("fused color-balance red = %d, want 151", r)
	}
	if got := e.computes.Load() - before; got != 2 {
		t.Errorf("computes delta = %d, want 2", got)
	}
}

func TestWorkerFailureDoesNotAffectConcurrentApply(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	boom := errors.New("decode failed")
	failing := sched.NewTask("t-fail", "", func() (any, error) { return nil, boom })
	if err := e.sched.Submit(failing); err != nil {
		t.Fatalf("submit failing task: %v", err)
	}

	applied := make(chan error, 1)
	go func() {
		_, err := e.ApplyEffect(ctx, "brightness", Settings{"amount": 20},
			flatBuffer(8, 8, 50, 50, 50, 255))
		applied <- err
	}()

	res := <-failing.Done()
	mapped := e.mapSchedErr(res.Err, failing.ID, "decode")
	var execErr *ExecError
	if !errors.As(mapped, &execErr) || !errors.Is(mapped, boom) {
		t.Errorf("failing task error = %v, want *ExecError wrapping the cause", mapped)
	}

	if err := <-applied; err != nil {
		t.Errorf("concurrent apply failed alongside an unrelated task error: %v", err)
	}
}

func TestSelectByColorHalves(t *testing.T) {
	e := newTestEngine(t)

	// Left half red, right half blue.
	buf := NewBuffer(100, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				buf.SetPixel(x, y, 255, 0, 0, 255)
			} else {
				buf.SetPixel(x, y, 0, 0, 255, 255)
			}
		}
	}

	res, err := e.SelectByColor(buf, 10, 10, 30, true)
	if err != nil {
		t.Fatalf("SelectByColor: %v", err)
	}
	if got := res.Mask.Count(); got != 5000 {
		t.Errorf("selected %d pixels, want 5000", got)
	}
	want := Rect{MinX: 0, MinY: 0, MaxX: 49, MaxY: 99}
	if res.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", res.Bounds, want)
	}
}

func TestSelectByColorSeedOutOfBounds(t *testing.T) {
	e := newTestEngine(t)
	buf := flatBuffer(10, 10, 0, 0, 0, 255)
	if _, err := e.SelectByColor(buf, 10, 0, 30, true); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("out-of-bounds seed: got %v, want ErrInvalidSetting", err)
	}
}

func TestTraceVectorSquare(t *testing.T) {
	e := newTestEngine(t)

	buf := NewBuffer(40, 40)
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			buf.SetPixel(x, y, 255, 255, 255, 255)
		}
	}

	polys, err := e.TraceVector(buf, 128, 2)
	if err != nil {
		t.Fatalf("TraceVector: %v", err)
	}
	if len(polys) != 1 {
		t.Fatalf("got %d polygons, want 1", len(polys))
	}
	if len(polys[0]) < 3 {
		t.Errorf("polygon has %d points, want at least 3", len(polys[0]))
	}
	for _, p := range polys[0] {
		if p.X < 9 || p.X > 30 || p.Y < 9 || p.Y > 30 {
			t.Errorf("boundary point %+v outside square region", p)
		}
	}
}

func TestEngineClose(t *testing.T) {
	e := New(WithWorkers(2), WithSweepInterval(0))
	e.Close()
	e.Close() // idempotent

	buf := flatBuffer(4, 4, 0, 0, 0, 255)
	if _, err := e.ApplyEffect(context.Background(), "blur", nil, buf); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("apply after close: got %v, want ErrEngineClosed", err)
	}
	if _, err := e.SelectByColor(buf, 0, 0, 10, true); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("select after close: got %v, want ErrEngineClosed", err)
	}
	if _, err := e.SubmitBatch(context.Background(), Job{}); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("batch after close: got %v, want ErrEngineClosed", err)
	}
}

func TestEngineStatus(t *testing.T) {
	e := New(WithWorkers(3), WithWorkerFloor(2), WithSweepInterval(0))
	defer e.Close()

	s := e.Status()
	if s.TotalUnits < 2 {
		t.Errorf("TotalUnits = %d, want at least the floor of 2", s.TotalUnits)
	}
	if s.QueueDepth != 0 {
		t.Errorf("QueueDepth = %d on idle engine, want 0", s.QueueDepth)
	}
}

func TestMapSchedErr(t *testing.T) {
	e := newTestEngine(t)

	if got := e.mapSchedErr(sched.ErrSuperseded, "t1", "blur"); !errors.Is(got, ErrSuperseded) {
		t.Errorf("superseded mapping: got %v", got)
	}
	if got := e.mapSchedErr(sched.ErrShuttingDown, "t1", "blur"); !errors.Is(got, ErrEngineClosed) {
		t.Errorf("shutdown mapping: got %v", got)
	}

	boom := errors.New("boom")
	got := e.mapSchedErr(boom, "t1", "blur")
	var execErr *ExecError
	if !errors.As(got, &execErr) {
		t.Fatalf("worker error mapping: got %T, want *ExecError", got)
	}
	if execErr.EffectID != "blur" || !errors.Is(got, boom) {
		t.Errorf("ExecError = %+v, want effect blur wrapping boom", execErr)
	}
}
