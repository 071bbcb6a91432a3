package clipboard

import (
	"errors"
	"fmt"
	"sync"

	sysclip "github.com/atotto/clipboard"
)

// Sink receives export text.
type Sink interface {
	Write(text string) error
}

// System writes to the OS clipboard.
type System struct{}

func NewSystem() (*System, error) {
	if sysclip.Unsupported {
		return nil, errors.New("no clipboard utility available on this system")
	}
	return &System{}, nil
}

func (System) Write(text string) error {
	if err := sysclip.WriteAll(text); err != nil {
		return fmt.Errorf("writing system clipboard: %w", err)
	}
	return nil
}

// Buffer keeps the last written text in memory, for callers that hand
// the text back themselves (HTTP responses, tests).
type Buffer struct {
	mu     sync.Mutex
	last   string
	writes int
	fail   error
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) Write(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fail != nil {
		return b.fail
	}
	b.last = text
	b.writes++
	return nil
}

// Last returns the most recent text written.
func (b *Buffer) Last() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.last
}

// Writes returns how many writes succeeded.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.writes
}

// FailWith makes every later Write return err. nil restores normal behaviour.
func (b *Buffer) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fail = err
}
