// Package fx provides a parallel pixel-effects processing engine for Go.
//
// # Overview
//
// fx applies computationally heavy image transformations (blur, sharpening,
// selection, masking, vectorization) to raw RGBA pixel buffers, schedules
// that work across a bounded pool of workers, and avoids redundant
// computation through buffer reuse and result caching.
//
// # Quick Start
//
//	import "github.com/gogpu/fx"
//
//	eng := fx.New()
//	defer eng.Close()
//
//	// Apply an effect
//	buf := fx.NewBuffer(512, 512)
//	out, err := eng.ApplyEffect(context.Background(), "blur",
//		fx.Settings{"radius": 5}, buf)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Engine, Buffer, Mask, Operation, Job, Polygon
//   - Internal: filter (convolution), selection (flood fill, morphology,
//     tracing), sched (worker pool), bufpool (buffer recycling),
//     cache (result memoization)
//
// # Concurrency Model
//
// Heavy effects run on a fixed pool of worker goroutines coordinated by a
// single dispatch loop; callers block on futures, never on shared state.
// Rapid resubmissions of the same effect coalesce: still-queued stale
// tasks are dropped, in-flight tasks always run to completion.
package fx
