// Package pool runs independent pipeline units concurrently with a bounded
// number of workers.
package pool

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Map runs fn over every item with at most workers concurrent executions and
// returns one error slot per item. A failing or panicking item never stops
// the others; callers inspect the slice to report partial failures.
func Map[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) []error {
	if workers < 1 {
		workers = 1
	}

	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("worker panic: %v", r)
					slog.Error("worker panicked", "item", i, "panic", r)
				}
			}()
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	g.Wait()

	return errs
}

// FirstError returns the first non-nil error along with how many items
// failed.
func FirstError(errs []error) (error, int) {
	var first error
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}
	return first, failed
}
