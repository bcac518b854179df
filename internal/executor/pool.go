// Package executor runs dispatch work on a bounded set of goroutines.
package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// =============================================================================
// WORKER POOL
// =============================================================================
//
// Pool bounds how many async calls are on the wire at once. Submit never blocks
// the caller: each task gets its own goroutine, which waits for a slot before
// running. Tasks beyond the limit queue on the semaphore in FIFO order.

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("executor: pool closed")

// DefaultMaxWorkers is used when New is given a non-positive limit.
const DefaultMaxWorkers = 8

// Task is one unit of work. ctx is the context passed to Submit.
type Task func(ctx context.Context)

// Pool is a bounded executor. It is safe for concurrent use.
type Pool struct {
	sem        *semaphore.Weighted
	maxWorkers int
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	inFlight  atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	MaxWorkers int
	InFlight   int64 // Running, not waiting
	Submitted  int64
	Completed  int64
}

// New creates a pool running at most maxWorkers tasks at once.
func New(maxWorkers int, logger *zap.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		sem:        semaphore.NewWeighted(int64(maxWorkers)),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// Submit schedules task. It returns ErrClosed after Close and never blocks.
//
// If ctx is done before a slot frees up, the task still runs (without a slot) so it
// can observe ctx.Err() and resolve whatever it owns.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	p.submitted.Add(1)
	go p.run(ctx, task)
	return nil
}

func (p *Pool) run(ctx context.Context, task Task) {
	defer p.wg.Done()
	defer p.completed.Add(1)

	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.logger.Debug("task running without slot", zap.Error(err))
		p.exec(ctx, task)
		return
	}
	defer p.sem.Release(1)

	if wait := time.Since(start); wait > 100*time.Millisecond {
		p.logger.Debug("task waited for slot", zap.Duration("wait", wait))
	}
	p.exec(ctx, task)
}

func (p *Pool) exec(ctx context.Context, task Task) {
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	task(ctx)
}

// Close rejects further submissions and waits for every submitted task to return.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("pool closed", zap.Int64("completed", p.completed.Load()))
}

// InFlight returns the number of tasks currently running.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// MaxWorkers returns the concurrency limit.
func (p *Pool) MaxWorkers() int { return p.maxWorkers }

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		MaxWorkers: p.maxWorkers,
		InFlight:   p.inFlight.Load(),
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
	}
}
