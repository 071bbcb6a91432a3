package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// DefaultDelay is the quiet period before an edit is committed.
const DefaultDelay = 500 * time.Millisecond

// CommitFunc persists the last value scheduled for id.
type CommitFunc func(ctx context.Context, id, value string) error

type pending struct {
	value string
	timer *time.Timer
	seq   uint64
}

// Debouncer coalesces bursts of edits per id into one commit.
// Each id has its own timer; scheduling again restarts it.
type Debouncer struct {
	delay  time.Duration
	commit CommitFunc
	logger logger.Logger

	mu      sync.Mutex
	pending map[string]*pending
	seq     uint64
	wg      sync.WaitGroup
}

func New(delay time.Duration, commit CommitFunc, log logger.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		delay:   delay,
		commit:  commit,
		logger:  log,
		pending: make(map[string]*pending),
	}
}

// Schedule replaces any waiting value for id and restarts its timer.
func (d *Debouncer) Schedule(id, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[id]; ok {
		p.timer.Stop()
	}
	d.seq++
	seq := d.seq
	p := &pending{value: value, seq: seq}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(id, seq) })
	d.pending[id] = p
}

// Cancel drops the waiting value for id. It reports whether one existed.
func (d *Debouncer) Cancel(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, id)
	return true
}

// Pending returns the number of ids waiting for their quiet period.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush commits every waiting value now and waits for in-flight commits.
func (d *Debouncer) Flush(ctx context.Context) {
	d.mu.Lock()
	batch := make(map[string]string, len(d.pending))
	for id, p := range d.pending {
		p.timer.Stop()
		batch[id] = p.value
	}
	d.pending = make(map[string]*pending)
	d.mu.Unlock()

	for id, value := range batch {
		d.run(ctx, id, value)
	}
	d.wg.Wait()
}

// Stop cancels every waiting value without committing.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	n := len(d.pending)
	for _, p := range d.pending {
		p.timer.Stop()
	}
	d.pending = make(map[string]*pending)
	d.mu.Unlock()

	if n > 0 {
		d.logger.Warn("debouncer stopped with uncommitted edits", logger.Int("dropped", n))
	}
	d.wg.Wait()
}

func (d *Debouncer) fire(id string, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[id]
	// a newer Schedule or a Cancel won the race with this timer
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, id)
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	d.run(context.Background(), id, p.value)
}

func (d *Debouncer) run(ctx context.Context, id, value string) {
	if err := d.commit(ctx, id, value); err != nil {
		d.logger.Error("debounced commit failed",
			logger.String("id", id),
			logger.Error(err))
		return
	}
	d.logger.Debug("debounced commit", logger.String("id", id))
}
