package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// WriteHook can veto a write. A non-nil error is returned from Set/Delete
// and the value is left untouched.
type WriteHook func(key string, value []byte) error

// Backend is an in-process key/value backend.
// It is used for ephemeral runs and tests.
type Backend struct {
	mu        sync.RWMutex
	values    map[string][]byte
	hook      WriteHook
	lastWrite time.Time
	writes    int
}

// New creates an empty memory backend
func New() *Backend {
	return &Backend{
		values: make(map[string][]byte),
	}
}

func (b *Backend) Name() string { return "memory" }

// Get returns a copy of the stored value, or nil when the key is missing
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set replaces the whole value stored under key
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hook != nil {
		if err := b.hook(key, value); err != nil {
			return err
		}
	}
	v := make([]byte, len(value))
	copy(v, value)
	b.values[key] = v
	b.lastWrite = time.Now()
	b.writes++
	return nil
}

// Delete removes key. Missing keys are ignored.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hook != nil {
		if err := b.hook(key, nil); err != nil {
			return err
		}
	}
	delete(b.values, key)
	b.lastWrite = time.Now()
	b.writes++
	return nil
}

func (b *Backend) Ping(context.Context) error { return nil }

func (b *Backend) Close() error { return nil }

// SetWriteHook installs fn for every subsequent write. nil removes it.
func (b *Backend) SetWriteHook(fn WriteHook) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hook = fn
}

// Writes returns the number of successful writes so far
func (b *Backend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.writes
}

// LastWrite returns the time of the last successful write
func (b *Backend) LastWrite() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lastWrite
}

// Keys lists every key starting with prefix, sorted
func (b *Backend) Keys(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
