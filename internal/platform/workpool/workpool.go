// Package workpool runs independent work items on a bounded set of goroutines
// and funnels their results to a single collector
package workpool

import (
	"context"
	"runtime/debug"

	perr "ligprep/internal/platform/errors"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one work item
type Result[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Func does the work for one item
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Run calls do for every item with at most workers calls in flight.
// Results are delivered to collect in completion order from one goroutine, so
// collect may mutate state without locking. Every item is attempted even after
// ctx is done; do is expected to observe ctx itself. A panic in do is reported
// as that item's error
func Run[T, R any](ctx context.Context, workers int, items []T, do Func[T, R], collect func(Result[T, R])) {
	if workers < 1 {
		workers = 1
	}
	results := make(chan Result[T, R], workers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			if collect != nil {
				collect(r)
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)
	for _, it := range items {
		g.Go(func() error {
			v, err := call(ctx, it, do)
			results <- Result[T, R]{Item: it, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-done
}

func call[T, R any](ctx context.Context, it T, do Func[T, R]) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("worker panic: %v\n%s", r, debug.Stack())
		}
	}()
	return do(ctx, it)
}

// Tally counts per-item outcomes and remembers the names of failed items
type Tally struct {
	Succeeded int
	Failed    int
	Failures  []string
}

// Add records one outcome
func (t *Tally) Add(name string, err error) {
	if err != nil {
		t.Failed++
		t.Failures = append(t.Failures, name)
		return
	}
	t.Succeeded++
}

// Done is the number of outcomes recorded
func (t *Tally) Done() int { return t.Succeeded + t.Failed }
