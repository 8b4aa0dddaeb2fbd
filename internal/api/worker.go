package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerClosed is returned by Await when the worker was closed before the
// job's result was delivered.
var ErrWorkerClosed = errors.New("worker closed")

// Result is the outcome of one submitted job.
type Result[T any] struct {
	Value T
	Err   error
}

type job struct {
	run  func()
	drop func()
}

// Worker runs submitted jobs one at a time in submission order on its own
// goroutine. Each job's channel receives exactly one Result and is then
// closed, unless the worker is closed first: queued jobs are then dropped,
// the result of the running job is discarded, and their channels are closed
// without a value.
type Worker struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool
	done   chan struct{}
}

func NewWorker() *Worker {
	w := &Worker{done: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if w.closed {
			pending := w.queue
			w.queue = nil
			w.mu.Unlock()
			for _, j := range pending {
				j.drop()
			}
			return
		}
		j := w.queue[0]
		w.queue[0] = job{}
		w.queue = w.queue[1:]
		w.mu.Unlock()

		j.run()
	}
}

// Close stops the worker. It does not wait for the running job; use Done
// for that.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		w.cond.Broadcast()
	}
	w.mu.Unlock()
}

// Done is closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Submit queues fn on w. ctx is passed to fn as is; the worker does not
// cancel jobs on Close.
func Submit[T any](w *Worker, ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	j := job{
		run: func() {
			v, err := runJob(ctx, fn)
			w.mu.Lock()
			if !w.closed {
				ch <- Result[T]{Value: v, Err: err}
			}
			w.mu.Unlock()
			close(ch)
		},
		drop: func() { close(ch) },
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		close(ch)
		return ch
	}
	w.queue = append(w.queue, j)
	w.cond.Signal()
	w.mu.Unlock()
	return ch
}

func runJob[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job: %v", r)
		}
	}()
	return fn(ctx)
}

// Await waits for a job's result in the caller's goroutine.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	var zero T
	select {
	case r, ok := <-ch:
		if !ok {
			return zero, ErrWorkerClosed
		}
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Call runs fn on the client's worker and waits for its result.
func Call[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error)) (T, error) {
	return Await(ctx, Submit(c.Async(), ctx, fn))
}
