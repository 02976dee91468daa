package fx

import "time"

// EngineOption configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Default configuration
//	eng := fx.New()
//
//	// Small deterministic pool for tests
//	eng := fx.New(fx.WithWorkers(2), fx.WithWorkerFloor(1))
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	workers          int
	workerFloor      int
	heartbeat        time.Duration
	idleReclaim      time.Duration
	opCacheSize      int
	previewCacheSize int
	previewTTL       time.Duration
	previewScale     float64
	buffersPerClass  int
	sweepInterval    time.Duration
	now              func() time.Time
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		workers:          0, // scheduler derives min(NumCPU, 8)
		workerFloor:      0, // scheduler default floor
		opCacheSize:      50,
		previewCacheSize: 100,
		previewTTL:       30 * time.Minute,
		previewScale:     0.25,
		buffersPerClass:  0, // bufpool default
		sweepInterval:    60 * time.Second,
		now:              time.Now,
	}
}

// WithWorkers caps the number of concurrent execution units.
// The default is min(NumCPU, 8).
func WithWorkers(n int) EngineOption {
	return func(o *engineOptions) { o.workers = n }
}

// WithWorkerFloor sets the minimum number of units kept alive through
// idle reclamation. The default is 2.
func WithWorkerFloor(n int) EngineOption {
	return func(o *engineOptions) { o.workerFloor = n }
}

// WithHeartbeat sets the keep-warm ping interval for idle units.
// The default is 30 seconds.
func WithHeartbeat(d time.Duration) EngineOption {
	return func(o *engineOptions) { o.heartbeat = d }
}

// WithIdleReclaim sets how long the pool may sit fully idle before excess
// units are reclaimed down to the floor. The default is 60 seconds.
func WithIdleReclaim(d time.Duration) EngineOption {
	return func(o *engineOptions) { o.idleReclaim = d }
}

// WithOperationCacheSize bounds the effect-result cache. Default 50.
func WithOperationCacheSize(n int) EngineOption {
	return func(o *engineOptions) { o.opCacheSize = n }
}

// WithPreviewCacheSize bounds the preview cache. Default 100.
func WithPreviewCacheSize(n int) EngineOption {
	return func(o *engineOptions) { o.previewCacheSize = n }
}

// WithPreviewTTL sets the preview cache entry lifetime. Default 30 minutes.
func WithPreviewTTL(d time.Duration) EngineOption {
	return func(o *engineOptions) { o.previewTTL = d }
}

// WithPreviewScale sets the progressive renderer's preview scale factor,
// clamped to (0, 1]. Default 0.25.
func WithPreviewScale(scale float64) EngineOption {
	return func(o *engineOptions) {
		if scale > 0 && scale <= 1 {
			o.previewScale = scale
		}
	}
}

// WithBuffersPerClass sets how many recycled buffers each size class of
// the buffer pool retains. Default 4.
func WithBuffersPerClass(n int) EngineOption {
	return func(o *engineOptions) { o.buffersPerClass = n }
}

// WithSweepInterval sets the buffer pool sweep cadence. Default 60
// seconds; zero or negative disables the background sweep.
func WithSweepInterval(d time.Duration) EngineOption {
	return func(o *engineOptions) { o.sweepInterval = d }
}

// WithClock injects a time source, used by tests to drive cache TTLs and
// idle reclamation deterministically.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		if now != nil {
			o.now = now
		}
	}
}
