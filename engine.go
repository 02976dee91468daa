package fx

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/fx/internal/bufpool"
	"github.com/gogpu/fx/internal/cache"
	"github.com/gogpu/fx/internal/sched"
	"github.com/gogpu/fx/internal/selection"
)

// SelectionResult is the outcome of SelectByColor: the selection mask and
// its bounding box. When nothing is selected the bounds degenerate to the
// seed point.
type SelectionResult struct {
	Mask   *Mask
	Bounds Rect
}

// Status is an observability snapshot of the engine's scheduler.
type Status struct {
	TotalUnits   int
	BusyUnits    int
	QueueDepth   int
	IdleDuration time.Duration
}

// Engine is the parallel pixel-effects processing engine. It owns a
// worker pool, a buffer pool, and the operation and preview caches;
// construct one per process and inject it into callers.
//
// Engine is safe for concurrent use. Close releases its resources;
// every call after Close returns ErrEngineClosed.
type Engine struct {
	opts engineOptions

	buffers *bufpool.Pool
	sched   *sched.Pool

	opCache      *cache.Cache[string, *Buffer]
	previewCache *cache.TTLCache[string, *Buffer]

	// computes counts actual effect computations, excluding cache hits.
	// Logged at debug level and read by tests.
	computes atomic.Uint64

	closed atomic.Bool
}

// New creates an engine.
func New(opts ...EngineOption) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var poolOpts []bufpool.Option
	if o.buffersPerClass > 0 {
		poolOpts = append(poolOpts, bufpool.WithMaxPerClass(o.buffersPerClass))
	}
	poolOpts = append(poolOpts, bufpool.WithClock(o.now))

	e := &Engine{
		opts:    o,
		buffers: bufpool.New(o.sweepInterval, poolOpts...),
		sched: sched.New(sched.Config{
			MaxUnits:    o.workers,
			FloorUnits:  o.workerFloor,
			Heartbeat:   o.heartbeat,
			IdleReclaim: o.idleReclaim,
			Logger:      Logger(),
			Now:         o.now,
		}),
		opCache:      cache.New[string, *Buffer](o.opCacheSize),
		previewCache: cache.NewTTL[string, *Buffer](o.previewCacheSize, o.previewTTL, o.now),
	}
	Logger().Info("fx: engine started")
	return e
}

// Close shuts the engine down: every queued and in-flight task is
// rejected, units terminate, and the caches and buffer pool are released.
// Safe to call multiple times.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.sched.Shutdown()
	e.buffers.Close()
	e.opCache.Clear()
	e.previewCache.Clear()
	poolHits, poolMisses := e.buffers.Stats()
	Logger().Info("fx: engine closed",
		"computes", e.computes.Load(),
		"poolHits", poolHits,
		"poolMisses", poolMisses)
}

// Status returns a snapshot of the scheduler for observability.
func (e *Engine) Status() Status {
	s := e.sched.Status()
	return Status{
		TotalUnits:   s.TotalUnits,
		BusyUnits:    s.BusyUnits,
		QueueDepth:   s.QueueDepth,
		IdleDuration: s.IdleFor,
	}
}

// ApplyEffect applies one effect to a buffer and returns the transformed
// result in a fresh buffer; the input is never mutated.
//
// Heavy effects run on the worker pool with coalescing key = effectID:
// a rapid burst of ApplyEffect calls for one effect keeps only the newest
// still-queued task, resolving superseded callers with ErrSuperseded.
// Light pointwise effects may run inline when the pool is saturated.
// Identical (buffer, effect, settings) submissions are served from the
// operation cache.
func (e *Engine) ApplyEffect(ctx context.Context, effectID string, settings Settings, buf *Buffer) (*Buffer, error) {
	spec, norm, err := e.validate(effectID, settings, buf)
	if err != nil {
		return nil, err
	}

	key := operationKey(buf, effectID, norm)
	if cached, ok := e.opCache.Get(key); ok {
		Logger().Debug("fx: operation cache hit", "effect", effectID)
		return cached.Clone(), nil
	}

	if !spec.Heavy && e.saturated() {
		result := e.compute(buf, spec, norm)
		e.opCache.Set(key, result.Clone())
		return result, nil
	}

	taskID := uuid.NewString()
	task := sched.NewTask(taskID, effectID, func() (any, error) {
		return e.compute(buf, spec, norm), nil
	})
	result, err := e.await(ctx, task, taskID, effectID)
	if err != nil {
		return nil, err
	}
	e.opCache.Set(key, result.Clone())
	return result, nil
}

// GenerateFrames renders count frames of an animated effect in parallel,
// one task per frame index. The result slice is indexed by frame. Frames
// do not coalesce; every frame resolves or the call fails with the first
// frame error.
func (e *Engine) GenerateFrames(ctx context.Context, buf *Buffer, effectID string, settings Settings, count int) ([]*Buffer, error) {
	spec, norm, err := e.validate(effectID, settings, buf)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: frame count %d", ErrInvalidSetting, count)
	}

	tasks := make([]*sched.Task, count)
	ids := make([]string, count)
	for i := range count {
		frameSettings := norm.Clone()
		frameSettings["frame"] = float64(i)
		ids[i] = uuid.NewString()
		tasks[i] = sched.NewTask(ids[i], "", func() (any, error) {
			return e.compute(buf, spec, frameSettings), nil
		})
		if err := e.sched.Submit(tasks[i]); err != nil {
			return nil, e.mapSchedErr(err, ids[i], effectID)
		}
	}

	frames := make([]*Buffer, count)
	var firstErr error
	for i, task := range tasks {
		frame, err := e.collect(ctx, task, ids[i], effectID)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		frames[i] = frame
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return frames, nil
}

// SubmitBatch processes every layer of a job and returns one result
// buffer per layer, in layer order. A layer whose operation chain fails
// falls back to a copy of its original buffer; the failure is reported
// through OnLayer and logged, but the job still resolves.
func (e *Engine) SubmitBatch(ctx context.Context, job Job) ([]*Buffer, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	total := len(job.Layers)
	results := make([]*Buffer, total)

	for i, layer := range job.Layers {
		if err := validBuffer(layer.Buffer); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if layer.ID == "" {
			layer.ID = uuid.NewString()
		}

		result, err := e.processLayer(ctx, job.ID, layer)
		if err != nil {
			// Partial failure: fall back to the untransformed buffer.
			Logger().Warn("fx: layer failed, falling back to original",
				"job", job.ID, "layer", layer.ID, "error", err)
			result = layer.Buffer.Clone()
		}
		results[i] = result

		if job.OnLayer != nil {
			job.OnLayer(i, result, err)
		}
		if job.OnProgress != nil {
			job.OnProgress(i+1, total)
		}
	}
	return results, nil
}

// processLayer runs one layer's optimized operation chain as a single
// pool task, checking the whole-layer result cache first.
func (e *Engine) processLayer(ctx context.Context, jobID string, layer Layer) (*Buffer, error) {
	key := layerKey(layer.ID, layer.Operations)
	if cached, ok := e.opCache.Get(key); ok {
		Logger().Debug("fx: layer cache hit", "job", jobID, "layer", layer.ID)
		return cached.Clone(), nil
	}

	groups := OptimizeOperations(layer.Operations)

	// Validate the whole chain up front so input errors reject the layer
	// synchronously instead of from inside a worker. Group structure is
	// preserved: each group executes as one pass where possible.
	planned := make([][]effectPass, 0, len(groups))
	total := 0
	for _, group := range groups {
		passes := make([]effectPass, 0, len(group))
		for _, op := range group {
			spec, ok := LookupEffect(op.EffectID)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, op.EffectID)
			}
			norm, err := normalizeSettings(spec, op.Settings)
			if err != nil {
				return nil, err
			}
			passes = append(passes, effectPass{spec: spec, settings: norm})
		}
		planned = append(planned, passes)
		total += len(passes)
	}
	if total == 0 {
		return layer.Buffer.Clone(), nil
	}

	src := layer.Buffer
	taskID := uuid.NewString()
	task := sched.NewTask(taskID, "", func() (any, error) {
		work := src.cloneInto(e.buffers.Acquire(len(src.Data())))
		for _, g := range planned {
			e.applyGroup(work, g)
		}
		return work, nil
	})
	result, err := e.await(ctx, task, taskID, "batch")
	if err != nil {
		return nil, err
	}
	e.opCache.Set(key, result.Clone())
	return result, nil
}

// SelectByColor builds a selection mask of the pixels matching the color
// at the seed coordinate within tolerance. Contiguous mode grows a
// 4-connected region from the seed; otherwise every matching pixel in the
// image is selected. Runs synchronously; selection is interactive and
// must not queue behind heavy effect work.
func (e *Engine) SelectByColor(buf *Buffer, x, y int, tolerance float64, contiguous bool) (*SelectionResult, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if err := validBuffer(buf); err != nil {
		return nil, err
	}
	if x < 0 || x >= buf.Width() || y < 0 || y >= buf.Height() {
		return nil, fmt.Errorf("%w: seed (%d,%d) outside %dx%d buffer",
			ErrInvalidSetting, x, y, buf.Width(), buf.Height())
	}
	if tolerance < 0 {
		tolerance = 0
	}

	maskData, bounds := selection.FloodFill(buf.Data(), buf.Width(), buf.Height(), x, y, tolerance, contiguous)
	mask := &Mask{width: buf.Width(), height: buf.Height(), data: maskData}
	return &SelectionResult{
		Mask:   mask,
		Bounds: Rect{MinX: bounds.MinX, MinY: bounds.MinY, MaxX: bounds.MaxX, MaxY: bounds.MaxY},
	}, nil
}

// TraceVector vectorizes the buffer's foreground regions: binarize by
// luminance threshold (0-255), trace each region boundary, and simplify
// the resulting polygons with the given tolerance.
func (e *Engine) TraceVector(buf *Buffer, threshold, simplifyTolerance float64) ([]Polygon, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	if err := validBuffer(buf); err != nil {
		return nil, err
	}

	raw := selection.TraceBoundaries(buf.Data(), buf.Width(), buf.Height(), threshold, simplifyTolerance)
	polygons := make([]Polygon, len(raw))
	for i, poly := range raw {
		out := make(Polygon, len(poly))
		for j, p := range poly {
			out[j] = Point{X: p.X, Y: p.Y}
		}
		polygons[i] = out
	}
	return polygons, nil
}

// validate performs the synchronous input checks shared by the effect
// entry points.
func (e *Engine) validate(effectID string, settings Settings, buf *Buffer) (EffectSpec, Settings, error) {
	if e.closed.Load() {
		return EffectSpec{}, nil, ErrEngineClosed
	}
	spec, ok := LookupEffect(effectID)
	if !ok {
		return EffectSpec{}, nil, fmt.Errorf("%w: %q", ErrUnknownEffect, effectID)
	}
	if err := validBuffer(buf); err != nil {
		return EffectSpec{}, nil, err
	}
	norm, err := normalizeSettings(spec, settings)
	if err != nil {
		return EffectSpec{}, nil, err
	}
	return spec, norm, nil
}

// validBuffer checks the Buffer invariant.
func validBuffer(buf *Buffer) error {
	if buf == nil || buf.Width() <= 0 || buf.Height() <= 0 ||
		len(buf.Data()) != buf.Width()*buf.Height()*4 {
		return ErrInvalidBuffer
	}
	return nil
}

// saturated reports whether the queue has grown past the unit count,
// the point where queueing a light pointwise operation costs more than
// running it inline.
func (e *Engine) saturated() bool {
	s := e.sched.Status()
	return s.QueueDepth >= s.TotalUnits && s.TotalUnits > 0
}

// await submits a task and collects its result.
func (e *Engine) await(ctx context.Context, task *sched.Task, taskID, effectID string) (*Buffer, error) {
	if err := e.sched.Submit(task); err != nil {
		return nil, e.mapSchedErr(err, taskID, effectID)
	}
	return e.collect(ctx, task, taskID, effectID)
}

// collect blocks until the task resolves or the context is cancelled.
// A dispatched task keeps running after cancellation; only its result is
// abandoned.
func (e *Engine) collect(ctx context.Context, task *sched.Task, taskID, effectID string) (*Buffer, error) {
	select {
	case res := <-task.Done():
		if res.Err != nil {
			return nil, e.mapSchedErr(res.Err, taskID, effectID)
		}
		return res.Value.(*Buffer), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}
}

// mapSchedErr translates scheduler errors into the public taxonomy.
func (e *Engine) mapSchedErr(err error, taskID, effectID string) error {
	switch {
	case errors.Is(err, sched.ErrSuperseded):
		return ErrSuperseded
	case errors.Is(err, sched.ErrShuttingDown):
		return ErrEngineClosed
	default:
		return &ExecError{TaskID: taskID, EffectID: effectID, Err: err}
	}
}
