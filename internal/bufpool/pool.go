// Package bufpool provides size-keyed recycling of pixel byte buffers.
package bufpool

import (
	"sync"
	"time"
)

// DefaultMaxPerClass is the number of buffers retained per size class.
const DefaultMaxPerClass = 4

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = 60 * time.Second

// DefaultIdleTimeout is how long a pooled buffer may sit unused before the
// sweep discards it.
const DefaultIdleTimeout = 30 * time.Second

// entry is one pooled buffer with the time it entered the pool.
type entry struct {
	buf      []byte
	lastUsed time.Time
}

// Pool is a thread-safe pool of byte buffers grouped by exact size.
//
// Pool bounds peak resident memory to roughly (distinct sizes x buffers
// per class). Acquire never fails; the worst case is a fresh allocation.
//
// Thread safety: all methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	classes map[int][]entry
	maxSize int

	hits   uint64
	misses uint64

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// Option configures a Pool.
type Option func(*Pool)

// WithMaxPerClass limits how many buffers of each size are retained.
func WithMaxPerClass(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxSize = n
		}
	}
}

// WithClock injects a time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// New creates a buffer pool and starts its background sweep.
// sweepInterval <= 0 disables the sweeper (tests call Sweep directly).
func New(sweepInterval time.Duration, opts ...Option) *Pool {
	p := &Pool{
		classes: make(map[int][]entry),
		maxSize: DefaultMaxPerClass,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if sweepInterval > 0 {
		go p.sweepLoop(sweepInterval)
	}
	return p
}

// Acquire returns a zero-filled buffer of exactly size bytes, reusing a
// pooled buffer when one is available.
func (p *Pool) Acquire(size int) []byte {
	p.mu.Lock()
	class := p.classes[size]
	if n := len(class); n > 0 {
		e := class[n-1]
		p.classes[size] = class[:n-1]
		p.hits++
		p.mu.Unlock()

		// Zero before reuse so stale pixels never leak between stages.
		for i := range e.buf {
			e.buf[i] = 0
		}
		return e.buf
	}
	p.misses++
	p.mu.Unlock()

	return make([]byte, size)
}

// Release returns a buffer to the pool, keyed by its length.
// Buffers beyond the per-class cap are dropped for normal collection.
func (p *Pool) Release(buf []byte) {
	if len(buf) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	class := p.classes[len(buf)]
	if len(class) >= p.maxSize {
		return
	}
	p.classes[len(buf)] = append(class, entry{buf: buf, lastUsed: p.now()})
}

// Sweep discards buffers that have been idle longer than idleTimeout.
// Empty size classes are removed entirely.
func (p *Pool) Sweep(idleTimeout time.Duration) {
	cutoff := p.now().Add(-idleTimeout)

	p.mu.Lock()
	defer p.mu.Unlock()

	for size, class := range p.classes {
		kept := class[:0]
		for _, e := range class {
			if e.lastUsed.After(cutoff) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(p.classes, size)
		} else {
			p.classes[size] = kept
		}
	}
}

// Stats returns cumulative hit and miss counts.
func (p *Pool) Stats() (hits, misses uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}

// Len returns the number of pooled buffers across all size classes.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, class := range p.classes {
		n += len(class)
	}
	return n
}

// Close stops the background sweep. Close is safe to call multiple times.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.done) })
}

// sweepLoop runs Sweep on a fixed interval until Close.
func (p *Pool) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.Sweep(DefaultIdleTimeout)
		}
	}
}
