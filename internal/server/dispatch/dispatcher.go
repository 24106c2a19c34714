// Package dispatch runs fire-and-forget background jobs, such as
// verification notifications, on a bounded worker pool.
package dispatch

import (
	"context"
	"sync"
	"time"
)

// ErrFunc receives the name and error of every failed job.
type ErrFunc func(job string, err error)

// Config sizes the worker pool.
type Config struct {
	Workers   int
	QueueSize int
	// JobTimeout bounds each job. Zero means no timeout.
	JobTimeout time.Duration
}

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher queues jobs and executes them on a fixed number of workers.
// Jobs run detached from the submitting request's context.
type Dispatcher struct {
	cfg        Config
	errHandler ErrFunc

	mu     sync.RWMutex
	closed bool
	queue  chan job
}

func New(cfg Config, errHandler ErrFunc) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if errHandler == nil {
		errHandler = func(string, error) {}
	}
	return &Dispatcher{
		cfg:        cfg,
		errHandler: errHandler,
		queue:      make(chan job, cfg.QueueSize),
	}
}

// Submit enqueues fn without blocking. It returns false when the queue is
// full or the dispatcher has stopped, in which case fn never runs.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.queue <- job{name: name, run: fn}:
		return true
	default:
		return false
	}
}

// Run starts the workers and blocks until ctx is cancelled. Jobs already
// queued at that point are still executed before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range d.queue {
				d.execute(j)
			}
		}()
	}

	<-ctx.Done()

	d.mu.Lock()
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	wg.Wait()
	return nil
}

func (d *Dispatcher) execute(j job) {
	ctx := context.Background()
	if d.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.JobTimeout)
		defer cancel()
	}

	if err := j.run(ctx); err != nil {
		d.errHandler(j.name, err)
	}
}
