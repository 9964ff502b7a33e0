// Package scheduler runs independent probe tasks under a fixed concurrency
// ceiling.
//
// RunAll guarantees exactly one outcome per submitted target, stored at the
// target's index. A slot is acquired before a task's goroutine is started, so
// the number of in-flight tasks never exceeds the ceiling and no unbounded
// backlog of waiting goroutines builds up.
package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultProgressEvery is the completion interval between progress callbacks.
const DefaultProgressEvery = 100

// Worker probes one target. It must not panic and must encode failures in
// the returned outcome.
type Worker[T, O any] func(ctx context.Context, target T) O

// Options tunes a RunAll call.
type Options[T, O any] struct {
	// MaxConcurrency caps in-flight workers. Values below 1 mean 1.
	MaxConcurrency int
	// ProgressEvery fires Progress after this many completions; defaults to
	// DefaultProgressEvery. Progress also fires once when the run ends.
	ProgressEvery int
	// Progress receives (completed, total). Calls are serialized.
	Progress func(completed, total int)
	// Limiter, when set, paces task starts.
	Limiter *rate.Limiter
	// StopWhen is checked after each completion; once it returns true no
	// further tasks start. In-flight tasks run to completion.
	StopWhen func(O) bool
	// Skipped builds the outcome for a target that was never started. When
	// nil, the zero value of O is used.
	Skipped func(T) O
}

// RunAll runs worker over every target and returns the outcomes, with
// outcomes[i] belonging to targets[i]. Completion order is unspecified.
//
// When ctx is canceled or StopWhen fires, RunAll stops starting new tasks,
// waits for the in-flight ones and fills the rest with Skipped outcomes.
func RunAll[T, O any](ctx context.Context, targets []T, worker Worker[T, O], opts Options[T, O]) []O {
	total := len(targets)
	outcomes := make([]O, total)
	if total == 0 {
		return outcomes
	}

	limit := opts.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	if limit > total {
		limit = total
	}

	tracker := newProgress(total, opts.ProgressEvery, opts.Progress)
	sem := semaphore.NewWeighted(int64(limit))

	var (
		wg      sync.WaitGroup
		stopMu  sync.Mutex
		stopped bool
	)
	isStopped := func() bool {
		stopMu.Lock()
		defer stopMu.Unlock()
		return stopped
	}

	next := 0
	for ; next < total; next++ {
		if isStopped() || ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		// A stop may have been requested while waiting for the slot.
		if isStopped() {
			sem.Release(1)
			break
		}
		if opts.Limiter != nil {
			if err := opts.Limiter.Wait(ctx); err != nil {
				sem.Release(1)
				break
			}
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			out := worker(ctx, targets[i])
			outcomes[i] = out
			if opts.StopWhen != nil && opts.StopWhen(out) {
				stopMu.Lock()
				stopped = true
				stopMu.Unlock()
			}
			tracker.done()
		}(next)
	}

	wg.Wait()

	for i := next; i < total; i++ {
		if opts.Skipped != nil {
			outcomes[i] = opts.Skipped(targets[i])
		}
		tracker.done()
	}
	tracker.finish()

	return outcomes
}

type progress struct {
	mu        sync.Mutex
	total     int
	every     int
	completed int
	lastSent  int
	fn        func(completed, total int)
}

func newProgress(total, every int, fn func(int, int)) *progress {
	if every <= 0 {
		every = DefaultProgressEvery
	}
	return &progress{total: total, every: every, fn: fn}
}

func (p *progress) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
	if p.fn != nil && p.completed%p.every == 0 {
		p.lastSent = p.completed
		p.fn(p.completed, p.total)
	}
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fn != nil && p.lastSent != p.completed {
		p.lastSent = p.completed
		p.fn(p.completed, p.total)
	}
}
