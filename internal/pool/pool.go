// Package pool implements the bounded worker pool spec.md §5 calls for:
// "a worker pool sized to available cores is appropriate; work-stealing
// from the per-worker queues is sufficient." It is a deliberately smaller
// cousin of the teacher's DAG scheduler
// (internal/scheduler/HeavierStartScheduler.go): that scheduler packs
// weighted chunks against a dependency graph for LLM-call batching, which
// is more machinery than a BFS frontier over files needs. What's kept is
// the shape — context-cancelable, goroutines bounded to a fixed width —
// not the chunk-packing or descendant-count prioritization, which have no
// analog here.
//
// The graph builder discovers new work (newly resolved imports) while
// already-submitted work is running, so Pool uses a semaphore-plus-
// WaitGroup shape rather than a fixed job channel: Go may be called
// concurrently, including from inside a job it's currently running, with
// no risk of sending on a closed channel.
package pool

import (
	"context"
	"runtime"
	"sync"
)

// Pool runs Go'd jobs with at most `width` executing concurrently.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup

	mu      sync.Mutex
	firstErr error
}

// New constructs a pool with width concurrent slots (<=0 defaults to
// GOMAXPROCS).
func New(width int) *Pool {
	if width <= 0 {
		width = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: make(chan struct{}, width)}
}

// Go schedules fn to run in a worker slot and returns without blocking:
// the job waits for a free slot in its own goroutine. Safe to call
// concurrently, including from within a job already running in the pool.
// If ctx is canceled before a slot is acquired, fn does not run.
func (p *Pool) Go(ctx context.Context, fn func(ctx context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case <-ctx.Done():
			return
		case p.sem <- struct{}{}:
		}
		defer func() { <-p.sem }()
		if ctx.Err() != nil {
			return
		}
		if err := fn(ctx); err != nil {
			p.recordErr(err)
		}
	}()
}

func (p *Pool) recordErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.firstErr == nil {
		p.firstErr = err
	}
}

// Wait blocks until every job submitted so far has returned. Go counts a
// job before it returns, so a job submitted from inside a running job is
// counted before that running job finishes, and Wait waits for it too.
func (p *Pool) Wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstErr
}
