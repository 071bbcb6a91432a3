package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func newTestDispatcher(max int, delay time.Duration) *Dispatcher {
	return New(Config{MaxConcurrent: max, DelayBetweenRequests: delay}, logger.New("error", false))
}

func waitAll[T any](t *testing.T, futures []*Future[T]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i, f := range futures {
		select {
		case <-f.Done():
		case <-ctx.Done():
			t.Fatalf("future %d did not settle", i)
		}
	}
}

func TestDispatcherNeverExceedsMaxConcurrent(t *testing.T) {
	d := newTestDispatcher(2, 5*time.Millisecond)

	var inFlight, peak int32
	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		futures = append(futures, Submit(context.Background(), d, func(context.Context) (int, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return i, nil
		}))
	}

	waitAll(t, futures)

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	for i, f := range futures {
		v, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	require.Eventually(t, func() bool { return d.Status().Active == 0 }, time.Second, 5*time.Millisecond)
	st := d.Status()
	assert.Equal(t, 10, st.Completed)
	assert.LessOrEqual(t, st.PeakActive, 2)
}

func TestDispatcherIsFIFO(t *testing.T) {
	d := newTestDispatcher(1, 0)

	var mu sync.Mutex
	var order []int
	futures := make([]*Future[struct{}], 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		futures = append(futures, Submit(context.Background(), d, func(context.Context) (struct{}, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return struct{}{}, nil
		}))
	}
	waitAll(t, futures)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDispatcherFailureDoesNotHaltQueue(t *testing.T) {
	d := newTestDispatcher(1, 0)
	boom := errors.New("boom")

	bad := Submit(context.Background(), d, func(context.Context) (string, error) { return "", boom })
	panicky := Submit(context.Background(), d, func(context.Context) (string, error) { panic("kaboom") })
	good := Submit(context.Background(), d, func(context.Context) (string, error) { return "ok", nil })

	waitAll(t, []*Future[string]{bad, panicky, good})

	_, err := bad.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = panicky.Wait(context.Background())
	assert.ErrorContains(t, err, "kaboom")
	v, err := good.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	require.Eventually(t, func() bool { return d.Status().Failed == 2 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherHoldsSlotForDelay(t *testing.T) {
	delay := 60 * time.Millisecond
	d := newTestDispatcher(1, delay)

	var firstDone, secondStart time.Time
	first := Submit(context.Background(), d, func(context.Context) (int, error) {
		firstDone = time.Now()
		return 1, nil
	})
	second := Submit(context.Background(), d, func(context.Context) (int, error) {
		secondStart = time.Now()
		return 2, nil
	})
	waitAll(t, []*Future[int]{first, second})

	assert.GreaterOrEqual(t, secondStart.Sub(firstDone), delay-10*time.Millisecond)
}

func TestAbandonedFutureStillRuns(t *testing.T) {
	d := newTestDispatcher(1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	var ran atomic.Bool
	f := Submit(ctx, d, func(taskCtx context.Context) (bool, error) {
		<-release
		ran.Store(true)
		return taskCtx.Err() == nil, nil
	})

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	close(release)

	waitAll(t, []*Future[bool]{f})
	assert.True(t, ran.Load())
	live, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, live, "task context should not inherit cancellation")
}
