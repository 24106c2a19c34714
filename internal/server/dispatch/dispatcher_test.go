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
)

func start(t *testing.T, d *Dispatcher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("dispatcher did not stop")
		}
	}
}

func TestDispatcher_RunsJobs(t *testing.T) {
	d := New(Config{Workers: 3, QueueSize: 10, JobTimeout: time.Second}, nil)
	stop := start(t, d)

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, d.Submit("count", func(ctx context.Context) error {
			n.Add(1)
			return nil
		}))
	}

	stop()
	assert.Equal(t, int32(10), n.Load())
}

func TestDispatcher_ReportsErrors(t *testing.T) {
	var (
		mu   sync.Mutex
		errs = map[string]error{}
	)
	d := New(Config{Workers: 1, QueueSize: 4}, func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs[name] = err
	})
	stop := start(t, d)

	boom := errors.New("boom")
	d.Submit("ok", func(context.Context) error { return nil })
	d.Submit("bad", func(context.Context) error { return boom })
	stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, errs, 1)
	assert.ErrorIs(t, errs["bad"], boom)
}

func TestDispatcher_JobTimeout(t *testing.T) {
	got := make(chan error, 1)
	d := New(Config{Workers: 1, QueueSize: 1, JobTimeout: 10 * time.Millisecond}, func(_ string, err error) {
		got <- err
	})
	stop := start(t, d)
	defer stop()

	d.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout was not applied")
	}
}

func TestDispatcher_FullQueueDropsJob(t *testing.T) {
	// Not started: nothing drains the queue.
	d := New(Config{Workers: 1, QueueSize: 1}, nil)

	assert.True(t, d.Submit("first", func(context.Context) error { return nil }))
	assert.False(t, d.Submit("second", func(context.Context) error { return nil }))
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 1}, nil)
	stop := start(t, d)
	stop()

	assert.False(t, d.Submit("late", func(context.Context) error { return nil }))
}

func TestDispatcher_DetachedFromSubmitter(t *testing.T) {
	d := New(Config{Workers: 1, QueueSize: 1}, nil)
	stop := start(t, d)

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	d.Submit("detached", func(ctx context.Context) error {
		if reqCtx.Err() != nil && ctx.Err() == nil {
			ran.Store(true)
		}
		return nil
	})
	stop()

	assert.True(t, ran.Load())
}
