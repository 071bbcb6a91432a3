package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	b := New()
	if b == nil {
		t.Fatal("New() returned nil")
	}
	v, err := b.Get(context.Background(), "missing")
	if err != nil || v != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, nil", v, err)
	}
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	b := New()

	if err := b.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ := b.Get(ctx, "k")
	if string(got) != "v1" {
		t.Errorf("Get() = %q, want v1", got)
	}

	// returned slices must not alias stored data
	got[0] = 'x'
	again, _ := b.Get(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("stored value mutated through Get() result: %q", again)
	}

	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if v, _ := b.Get(ctx, "k"); v != nil {
		t.Errorf("Get() after Delete() = %q, want nil", v)
	}
	if b.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", b.Writes())
	}
}

func TestWriteHookRejects(t *testing.T) {
	ctx := context.Background()
	b := New()
	_ = b.Set(ctx, "k", []byte("before"))

	boom := errors.New("disk full")
	b.SetWriteHook(func(string, []byte) error { return boom })

	if err := b.Set(ctx, "k", []byte("after")); !errors.Is(err, boom) {
		t.Fatalf("Set() error = %v, want %v", err, boom)
	}
	if err := b.Delete(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("Delete() error = %v, want %v", err, boom)
	}
	got, _ := b.Get(ctx, "k")
	if string(got) != "before" {
		t.Errorf("rejected writes changed the value: %q", got)
	}

	b.SetWriteHook(nil)
	if err := b.Set(ctx, "k", []byte("after")); err != nil {
		t.Errorf("Set() after removing hook error = %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	b := New()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = b.Set(ctx, "k", []byte("v"))
		}()
		go func() {
			defer wg.Done()
			_, _ = b.Get(ctx, "k")
		}()
	}
	wg.Wait()

	if b.Writes() != 10 {
		t.Errorf("Writes() = %d, want 10", b.Writes())
	}
}
