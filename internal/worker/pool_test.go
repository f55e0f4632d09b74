package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p1 := NewPool[int](context.Background(), 5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}
	p1.Shutdown()

	p2 := NewPool[int](context.Background(), 0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}
	p2.Shutdown()

	p3 := NewPool[int](context.Background(), -1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
	p3.Shutdown()
}

func TestPool_ExecutionOrder(t *testing.T) {
	pool := NewPool[int](context.Background(), 3)
	pool.Start()

	count := 50
	for i := 0; i < count; i++ {
		i := i
		pool.Submit(func(ctx context.Context) (int, error) {
			time.Sleep(time.Duration(count-i) * 100 * time.Microsecond)
			return i * i, nil
		})
	}

	results := pool.Wait()
	if len(results) != count {
		t.Fatalf("expected %d results, got %d", count, len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Value != i*i {
			t.Errorf("expected index %d value %d, got index %d value %d", i, i*i, r.Index, r.Value)
		}
	}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPool[struct{}](context.Background(), workers)
	pool.Start()

	var current, maxConcurrent, completed int32
	var mu sync.Mutex

	totalJobs := 50
	for i := 0; i < totalJobs; i++ {
		pool.Submit(func(ctx context.Context) (struct{}, error) {
			curr := atomic.AddInt32(&current, 1)
			mu.Lock()
			if curr > maxConcurrent {
				maxConcurrent = curr
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			atomic.AddInt32(&completed, 1)
			return struct{}{}, nil
		})
	}

	pool.Wait()

	if atomic.LoadInt32(&completed) != int32(totalJobs) {
		t.Errorf("expected %d completed jobs, got %d", totalJobs, completed)
	}
	mu.Lock()
	max := maxConcurrent
	mu.Unlock()
	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()

	pool.Submit(func(ctx context.Context) (int, error) { return 0, errors.New("job error") })
	pool.Submit(func(ctx context.Context) (int, error) { return 1, nil })

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Error("expected first task to fail")
	}
	if results[1].Err != nil || results[1].Value != 1 {
		t.Errorf("expected second task to succeed, got %+v", results[1])
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(func(ctx context.Context) (int, error) { return 0, nil })
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Error("expected Submit to refuse work after shutdown")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(func(ctx context.Context) (int, error) {
		close(started)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(5 * time.Second):
			return 1, nil
		}
	})
	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Shutdown timed out")
	}
}

func TestMap(t *testing.T) {
	items := []string{"a", "bb", "ccc"}
	outcomes := Map(context.Background(), 2, items, func(ctx context.Context, s string) (int, error) {
		if s == "bb" {
			return 0, errors.New("bad item")
		}
		return len(s), nil
	})

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Value != 1 || outcomes[2].Value != 3 {
		t.Errorf("unexpected values %+v", outcomes)
	}
	if outcomes[1].Err == nil {
		t.Error("expected error for second item")
	}
}

func TestMap_Empty(t *testing.T) {
	outcomes := Map(context.Background(), 2, []int(nil), func(ctx context.Context, n int) (int, error) { return n, nil })
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := Map(ctx, 1, []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) { return n, nil })
	for _, o := range outcomes {
		if o.Err == nil && o.Value == 0 {
			t.Errorf("expected cancelled outcome to carry an error, got %+v", o)
		}
	}
}
