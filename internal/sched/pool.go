package sched

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultHeartbeat is how often idle units receive a keep-warm ping.
const DefaultHeartbeat = 30 * time.Second

// DefaultIdleReclaim is how long the pool may sit fully idle before excess
// units are terminated down to the floor.
const DefaultIdleReclaim = 60 * time.Second

// DefaultFloor is the minimum number of units kept alive.
const DefaultFloor = 2

// Status is an observability snapshot of the pool.
type Status struct {
	TotalUnits int
	BusyUnits  int
	QueueDepth int
	IdleFor    time.Duration
}

// Config parameterizes a Pool. Zero values take the defaults above;
// MaxUnits defaults to min(NumCPU, 8).
type Config struct {
	MaxUnits    int
	FloorUnits  int
	Heartbeat   time.Duration
	IdleReclaim time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// withDefaults fills unset config fields.
func (c Config) withDefaults() Config {
	if c.MaxUnits <= 0 {
		c.MaxUnits = runtime.NumCPU()
		if c.MaxUnits > 8 {
			c.MaxUnits = 8
		}
	}
	if c.FloorUnits <= 0 {
		c.FloorUnits = DefaultFloor
	}
	if c.FloorUnits > c.MaxUnits {
		c.FloorUnits = c.MaxUnits
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = DefaultHeartbeat
	}
	if c.IdleReclaim <= 0 {
		c.IdleReclaim = DefaultIdleReclaim
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// unit is one execution goroutine. The busy and current fields are owned
// exclusively by the dispatch loop.
type unit struct {
	id      int
	tasks   chan *Task // nil task = heartbeat ping
	busy    bool
	current *Task
}

// event is a message into the dispatch loop.
type event interface{ isEvent() }

type evSubmit struct{ task *Task }
type evDone struct {
	unit  *unit
	task  *Task
	value any
	err   error
}
type evStatus struct{ reply chan Status }
type evShutdown struct{ reply chan struct{} }

func (evSubmit) isEvent()   {}
func (evDone) isEvent()     {}
func (evStatus) isEvent()   {}
func (evShutdown) isEvent() {}

// Pool schedules tasks over a bounded set of execution units.
//
// Dispatch rules: an idle unit gets the task immediately; otherwise a new
// unit is spawned while the pool is below its maximum; otherwise the task
// joins a FIFO queue. Queue growth is unbounded by design - backpressure
// is the caller's responsibility via coalescing keys.
//
// Thread safety: all methods are safe for concurrent use.
type Pool struct {
	cfg      Config
	events   chan event
	loopDone chan struct{}
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// New creates a pool and starts its dispatch loop. The pool begins with
// FloorUnits execution units and grows on demand up to MaxUnits.
func New(cfg Config) *Pool {
	p := &Pool{
		cfg:      cfg.withDefaults(),
		events:   make(chan event, 64),
		loopDone: make(chan struct{}),
	}
	go p.loop()
	return p
}

// Submit hands a task to the dispatch loop. If a still-queued task shares
// the new task's coalescing key, the older task is dropped and resolved
// with ErrSuperseded; dispatched tasks are never interrupted.
func (p *Pool) Submit(t *Task) error {
	if p.closed.Load() {
		return ErrShuttingDown
	}
	select {
	case p.events <- evSubmit{task: t}:
		return nil
	case <-p.loopDone:
		return ErrShuttingDown
	}
}

// Status returns an observability snapshot.
func (p *Pool) Status() Status {
	reply := make(chan Status, 1)
	select {
	case p.events <- evStatus{reply: reply}:
	case <-p.loopDone:
		return Status{}
	}
	select {
	case s := <-reply:
		return s
	case <-p.loopDone:
		return Status{}
	}
}

// Shutdown rejects every queued and in-flight task with ErrShuttingDown
// and terminates all units. Safe to call multiple times.
func (p *Pool) Shutdown() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	reply := make(chan struct{})
	select {
	case p.events <- evShutdown{reply: reply}:
		<-reply
	case <-p.loopDone:
	}
	p.wg.Wait()
}

// loop is the dispatch loop: the sole owner of the unit table and queue.
func (p *Pool) loop() {
	var (
		units      []*unit
		queue      []*Task
		nextID     int
		lastActive = p.cfg.Now()
	)

	ticker := time.NewTicker(p.cfg.Heartbeat)
	defer ticker.Stop()

	spawn := func() *unit {
		u := &unit{id: nextID, tasks: make(chan *Task, 1)}
		nextID++
		units = append(units, u)
		p.wg.Add(1)
		go p.runUnit(u)
		p.cfg.Logger.Info("sched: unit spawned", "unit", u.id, "total", len(units))
		return u
	}

	dispatch := func(u *unit, t *Task) {
		t.state.Store(int32(TaskDispatched))
		u.busy = true
		u.current = t
		u.tasks <- t
	}

	idleUnit := func() *unit {
		for _, u := range units {
			if !u.busy {
				return u
			}
		}
		return nil
	}

	busyCount := func() int {
		n := 0
		for _, u := range units {
			if u.busy {
				n++
			}
		}
		return n
	}

	for i := 0; i < p.cfg.FloorUnits; i++ {
		spawn()
	}

	for {
		select {
		case ev := <-p.events:
			switch ev := ev.(type) {
			case evSubmit:
				t := ev.task
				lastActive = p.cfg.Now()

				// Latest wins: drop still-queued tasks sharing the key.
				if t.Key != "" {
					kept := queue[:0]
					for _, q := range queue {
						if q.Key == t.Key {
							q.resolve(TaskSuperseded, nil, ErrSuperseded)
							p.cfg.Logger.Debug("sched: task superseded",
								"task", q.ID, "key", q.Key, "by", t.ID)
							continue
						}
						kept = append(kept, q)
					}
					queue = kept
				}

				if u := idleUnit(); u != nil {
					dispatch(u, t)
				} else if len(units) < p.cfg.MaxUnits {
					dispatch(spawn(), t)
				} else {
					queue = append(queue, t)
				}

			case evDone:
				u := ev.unit
				u.busy = false
				u.current = nil
				lastActive = p.cfg.Now()

				if ev.err != nil {
					ev.task.resolve(TaskFailed, nil, ev.err)
				} else {
					ev.task.resolve(TaskCompleted, ev.value, nil)
				}

				if len(queue) > 0 {
					next := queue[0]
					queue = queue[1:]
					dispatch(u, next)
				}

			case evStatus:
				busy := busyCount()
				var idleFor time.Duration
				if busy == 0 && len(queue) == 0 {
					idleFor = p.cfg.Now().Sub(lastActive)
				}
				ev.reply <- Status{
					TotalUnits: len(units),
					BusyUnits:  busy,
					QueueDepth: len(queue),
					IdleFor:    idleFor,
				}

			case evShutdown:
				for _, t := range queue {
					t.resolve(TaskFailed, nil, ErrShuttingDown)
				}
				queue = nil
				for _, u := range units {
					if u.current != nil {
						u.current.resolve(TaskFailed, nil, ErrShuttingDown)
						u.current = nil
					}
					close(u.tasks)
				}
				p.cfg.Logger.Info("sched: shutdown", "units", len(units))
				close(p.loopDone)
				close(ev.reply)
				return
			}

		case <-ticker.C:
			// Keep idle units warm with a lightweight ping.
			for _, u := range units {
				if !u.busy {
					select {
					case u.tasks <- nil:
					default:
					}
				}
			}

			// Reclaim excess units after a long fully-idle stretch.
			if busyCount() == 0 && len(queue) == 0 &&
				p.cfg.Now().Sub(lastActive) > p.cfg.IdleReclaim &&
				len(units) > p.cfg.FloorUnits {
				excess := units[p.cfg.FloorUnits:]
				units = units[:p.cfg.FloorUnits]
				for _, u := range excess {
					close(u.tasks)
				}
				p.cfg.Logger.Info("sched: idle units reclaimed",
					"reclaimed", len(excess), "total", len(units))
			}
		}
	}
}

// runUnit is the execution loop of one unit. A closed task channel
// terminates the unit.
func (p *Pool) runUnit(u *unit) {
	defer p.wg.Done()

	for t := range u.tasks {
		if t == nil {
			// Heartbeat ping.
			continue
		}

		value, err := runSafe(t)

		select {
		case p.events <- evDone{unit: u, task: t, value: value, err: err}:
		case <-p.loopDone:
			// The loop already resolved this task during shutdown.
			return
		}
	}
}

// runSafe executes a task, converting a panic into an error so a crashing
// task fails only itself, never the unit's goroutine or the pool.
func runSafe(t *Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sched: task %s panicked: %v", t.ID, r)
		}
	}()
	return t.Run()
}
