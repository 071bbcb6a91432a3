package clipboard

import (
	"errors"
	"testing"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	if err := b.Write("one\ntwo"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if b.Last() != "one\ntwo" || b.Writes() != 1 {
		t.Errorf("Last() = %q, Writes() = %d", b.Last(), b.Writes())
	}

	boom := errors.New("denied")
	b.FailWith(boom)
	if err := b.Write("three"); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want %v", err, boom)
	}
	if b.Last() != "one\ntwo" {
		t.Errorf("failed write replaced text: %q", b.Last())
	}
}
