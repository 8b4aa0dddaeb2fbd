package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent requests
const DefaultConcurrency = 5

// BulkResult represents the outcome of a single bulk operation
type BulkResult struct {
	ID      int    `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`

	err error
}

// runBulkOperation runs operation once per id with bounded parallelism.
// Each id gets its own request; one failure does not stop the others.
// Results are returned in the order of ids.
func runBulkOperation[T any](
	ctx context.Context,
	ids []int,
	concurrency int64,
	progress io.Writer,
	operation func(ctx context.Context, id int) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	sem := semaphore.NewWeighted(concurrency)
	results := make([]BulkResult, len(ids))
	var done int64
	var progressMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			results[i].ID = id
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i].err = err
				results[i].Error = err.Error()
				return nil
			}
			defer sem.Release(1)

			data, err := operation(ctx, id)
			if err != nil {
				results[i].err = err
				results[i].Error = err.Error()
			} else {
				results[i].Success = true
				results[i].Data = data
			}

			if progress != nil {
				current := atomic.AddInt64(&done, 1)
				progressMu.Lock()
				_, _ = fmt.Fprintf(progress, "\rProcessed %d/%d", current, len(ids))
				progressMu.Unlock()
			}
			// Individual failures never cancel the group.
			return nil
		})
	}
	_ = g.Wait()

	if progress != nil && len(ids) > 0 {
		_, _ = fmt.Fprintln(progress)
	}
	return results
}

// countResults returns success and failure counts from bulk results
func countResults(results []BulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}

// firstError returns the first failure, used for the exit code when every
// operation failed.
func firstError(results []BulkResult) error {
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}
	return nil
}
