package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerDeliversExactlyOnce(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	ch := Submit(w, context.Background(), func(context.Context) (int, error) { return 7, nil })
	r, ok := <-ch
	if !ok || r.Value != 7 || r.Err != nil {
		t.Fatalf("first receive = %+v, %v", r, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after one delivery")
	}
}

func TestWorkerPropagatesErrors(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	boom := errors.New("boom")
	_, err := Await(context.Background(), Submit(w, context.Background(), func(context.Context) (string, error) {
		return "", boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("Await error = %v, want boom", err)
	}
}

func TestWorkerRecoversPanics(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	_, err := Await(context.Background(), Submit(w, context.Background(), func(context.Context) (int, error) {
		panic("bad job")
	}))
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
	// The worker keeps running after a panicking job.
	v, err := Await(context.Background(), Submit(w, context.Background(), func(context.Context) (int, error) { return 1, nil }))
	if err != nil || v != 1 {
		t.Fatalf("follow-up job = %d, %v", v, err)
	}
}

func TestWorkerFIFO(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	const n = 50
	var mu sync.Mutex
	var order []int
	chans := make([]<-chan Result[int], n)
	for i := 0; i < n; i++ {
		i := i
		chans[i] = Submit(w, context.Background(), func(context.Context) (int, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return i, nil
		})
	}
	for i, ch := range chans {
		v, err := Await(context.Background(), ch)
		if err != nil || v != i {
			t.Fatalf("job %d = %d, %v", i, v, err)
		}
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("execution order %v is not FIFO", order)
		}
	}
}

func TestWorkerSerializesJobs(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	var running, maxRunning int32
	var chans []<-chan Result[struct{}]
	for i := 0; i < 10; i++ {
		chans = append(chans, Submit(w, context.Background(), func(context.Context) (struct{}, error) {
			cur := atomic.AddInt32(&running, 1)
			if cur > atomic.LoadInt32(&maxRunning) {
				atomic.StoreInt32(&maxRunning, cur)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}, nil
		}))
	}
	for _, ch := range chans {
		if _, err := Await(context.Background(), ch); err != nil {
			t.Fatal(err)
		}
	}
	if maxRunning != 1 {
		t.Errorf("max concurrent jobs = %d, want 1", maxRunning)
	}
}

func TestWorkerCloseDropsPendingResults(t *testing.T) {
	w := NewWorker()

	started := make(chan struct{})
	release := make(chan struct{})
	inFlight := Submit(w, context.Background(), func(context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	var queuedRan int32
	queued := Submit(w, context.Background(), func(context.Context) (int, error) {
		atomic.StoreInt32(&queuedRan, 1)
		return 2, nil
	})

	<-started
	w.Close()
	close(release)
	<-w.Done()

	if _, err := Await(context.Background(), inFlight); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("in-flight result after Close: err = %v, want ErrWorkerClosed", err)
	}
	if _, err := Await(context.Background(), queued); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("queued result after Close: err = %v, want ErrWorkerClosed", err)
	}
	if atomic.LoadInt32(&queuedRan) != 0 {
		t.Error("queued job must not run after Close")
	}

	late := Submit(w, context.Background(), func(context.Context) (int, error) { return 3, nil })
	if _, ok := <-late; ok {
		t.Error("jobs submitted after Close must not deliver")
	}
	w.Close()
}

func TestAwaitContextCancel(t *testing.T) {
	w := NewWorker()
	defer w.Close()

	block := make(chan struct{})
	defer close(block)
	ch := Submit(w, context.Background(), func(context.Context) (int, error) {
		<-block
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := Await(ctx, ch); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await = %v, want deadline exceeded", err)
	}
}

func TestIndependentWorkersRunConcurrently(t *testing.T) {
	a, b := NewWorker(), NewWorker()
	defer a.Close()
	defer b.Close()

	release := make(chan struct{})
	blocked := Submit(a, context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	v, err := Await(context.Background(), Submit(b, context.Background(), func(context.Context) (int, error) { return 2, nil }))
	if err != nil || v != 2 {
		t.Fatalf("worker b blocked by worker a: %d, %v", v, err)
	}
	close(release)
	if v, _ := Await(context.Background(), blocked); v != 1 {
		t.Errorf("worker a result = %d", v)
	}
}

func TestClientCallUsesWorker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":1,"name":"Budi"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, StaticToken("tok"))
	u, err := Call(context.Background(), client, client.Auth().Me)
	if err != nil || u.Name != "Budi" {
		t.Fatalf("Call = %+v, %v", u, err)
	}
	if client.Async() != client.Async() {
		t.Error("Async should return the same worker")
	}

	client.Close()
	<-client.Async().Done()
	if _, err := Call(context.Background(), client, client.Auth().Me); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("Call after Close = %v, want ErrWorkerClosed", err)
	}
}
