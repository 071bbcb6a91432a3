package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	DefaultMaxConcurrent        = 3
	DefaultDelayBetweenRequests = 500 * time.Millisecond
)

// Config bounds how fast queued tasks are started.
type Config struct {
	MaxConcurrent        int           // tasks allowed in flight (default: 3)
	DelayBetweenRequests time.Duration // held after each task settles before its slot frees (default: 500ms)
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrent:        DefaultMaxConcurrent,
		DelayBetweenRequests: DefaultDelayBetweenRequests,
	}
}

// Status is a point-in-time view of the dispatcher.
type Status struct {
	Active     int `json:"active"`
	Queued     int `json:"queued"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	PeakActive int `json:"peak_active"`
}

// Dispatcher runs submitted tasks in FIFO order with at most
// MaxConcurrent in flight. There is no priority and no cancellation: a
// queued task always runs, even if nobody waits for its result.
type Dispatcher struct {
	cfg    Config
	logger logger.Logger

	mu     sync.Mutex
	queue  []func()
	status Status
}

func New(cfg Config, log logger.Logger) *Dispatcher {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.DelayBetweenRequests < 0 {
		cfg.DelayBetweenRequests = 0
	}
	return &Dispatcher{cfg: cfg, logger: log}
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.status
	s.Queued = len(d.queue)
	return s
}

// Future is the pending outcome of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the task has settled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the task settles or ctx ends. Giving up does not stop
// the task.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit enqueues task and returns its future. The task receives a context
// carrying ctx's values but not its cancellation.
func Submit[T any](ctx context.Context, d *Dispatcher, task func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	taskCtx := context.WithoutCancel(ctx)

	run := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		f.value, f.err = task(taskCtx)
	}

	d.mu.Lock()
	d.queue = append(d.queue, func() {
		run()
		d.settle(f.err)
	})
	d.mu.Unlock()

	d.pump()
	return f
}

// pump starts queued tasks while slots are free.
func (d *Dispatcher) pump() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.status.Active < d.cfg.MaxConcurrent && len(d.queue) > 0 {
		next := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]

		d.status.Active++
		if d.status.Active > d.status.PeakActive {
			d.status.PeakActive = d.status.Active
		}
		go next()
	}
}

// settle holds the slot for the configured delay, then frees it.
func (d *Dispatcher) settle(err error) {
	d.mu.Lock()
	d.status.Completed++
	if err != nil {
		d.status.Failed++
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Debug("dispatched task failed", logger.Error(err))
	}

	if d.cfg.DelayBetweenRequests > 0 {
		timer := time.NewTimer(d.cfg.DelayBetweenRequests)
		<-timer.C
	}

	d.mu.Lock()
	d.status.Active--
	d.mu.Unlock()

	d.pump()
}
