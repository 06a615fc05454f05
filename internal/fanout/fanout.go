// Package fanout runs independent tasks concurrently and waits for every one
// of them to settle. A failing task never cancels or hides its siblings.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Result is the settled outcome of one task: either Value or Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Task is a unit of work tagged by its key in the map passed to Join.
type Task[T any] func(ctx context.Context) (T, error)

// Join runs every task concurrently and returns once all have settled. The
// returned map holds one Result per input key. A panicking task is recorded
// as a failed Result instead of taking down the caller.
func Join[K comparable, T any](ctx context.Context, tasks map[K]Task[T]) map[K]Result[T] {
	var (
		g   errgroup.Group
		mu  sync.Mutex
		out = make(map[K]Result[T], len(tasks))
	)

	for key, task := range tasks {
		key, task := key, task
		g.Go(func() error {
			res := run(ctx, task)

			mu.Lock()
			out[key] = res
			mu.Unlock()

			// Failures stay in the Result; the group itself never errors.
			return nil
		})
	}

	_ = g.Wait()
	return out
}

// JoinIndexed is Join over a slice; the result at position i belongs to tasks[i].
func JoinIndexed[T any](ctx context.Context, tasks []Task[T]) []Result[T] {
	keyed := make(map[int]Task[T], len(tasks))
	for i, t := range tasks {
		keyed[i] = t
	}

	settled := Join(ctx, keyed)

	out := make([]Result[T], len(tasks))
	for i := range tasks {
		out[i] = settled[i]
	}
	return out
}

func run[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[T]{Err: fmt.Errorf("task panicked: %v", p)}
		}
	}()

	v, err := task(ctx)
	return Result[T]{Value: v, Err: err}
}
