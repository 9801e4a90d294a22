package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func sleepTask(d time.Duration, value int, executed *int32) Task[int] {
	return func(ctx context.Context) (int, error) {
		if executed != nil {
			atomic.AddInt32(executed, 1)
		}
		if d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		return value, nil
	}
}

func TestNewPool(t *testing.T) {
	if p := NewPool[int](context.Background(), 5); p.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p.workers)
	}
	if p := NewPool[int](context.Background(), 0); p.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p.workers)
	}
	if p := NewPool[int](context.Background(), -1); p.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p.workers)
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()

	var executed int32
	count := 10
	for i := 0; i < count; i++ {
		pool.Submit(sleepTask(0, i, &executed))
	}

	outcomes := pool.Wait()
	if len(outcomes) != count {
		t.Fatalf("expected %d outcomes, got %d", count, len(outcomes))
	}
	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed tasks, got %d", count, executed)
	}
	for i, o := range outcomes {
		if !o.Ran || o.Value != i {
			t.Errorf("outcome %d = %+v", i, o)
		}
	}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPool[struct{}](context.Background(), workers)
	pool.Start()

	var current, maxConcurrent, completed int32
	var mu sync.Mutex

	totalTasks := 50
	for i := 0; i < totalTasks; i++ {
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

	if atomic.LoadInt32(&completed) != int32(totalTasks) {
		t.Errorf("expected %d completed tasks, got %d", totalTasks, completed)
	}

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()
	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
	if max <= 1 {
		t.Logf("Warning: max concurrency was %d, expected > 1", max)
	}
}

func TestPool_ErrorsStayWithTheirTask(t *testing.T) {
	pool := NewPool[string](context.Background(), 2)
	pool.Start()

	boom := errors.New("boom")
	pool.Submit(func(context.Context) (string, error) { return "", boom })
	pool.Submit(func(context.Context) (string, error) { return "ok", nil })

	outcomes := pool.Wait()
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !errors.Is(outcomes[0].Err, boom) {
		t.Errorf("outcome 0 error = %v, want boom", outcomes[0].Err)
	}
	if outcomes[1].Err != nil || outcomes[1].Value != "ok" {
		t.Errorf("outcome 1 = %+v", outcomes[1])
	}
}

func TestPool_RecoversPanics(t *testing.T) {
	pool := NewPool[int](context.Background(), 1)
	pool.Start()

	pool.Submit(func(context.Context) (int, error) { panic("kaboom") })
	pool.Submit(sleepTask(0, 7, nil))

	outcomes := pool.Wait()
	if !errors.Is(outcomes[0].Err, ErrPanicked) {
		t.Errorf("expected ErrPanicked, got %v", outcomes[0].Err)
	}
	if outcomes[1].Value != 7 {
		t.Errorf("task after panic = %+v", outcomes[1])
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool[int](context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(sleepTask(0, 1, nil))
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Error("expected submit after shutdown to be rejected")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownCancelsRunningTask(t *testing.T) {
	pool := NewPool[int](context.Background(), 1)
	pool.Start()

	started := make(chan struct{})
	var taskErr atomic.Value
	pool.Submit(func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		taskErr.Store(ctx.Err())
		return 0, ctx.Err()
	})
	<-started

	finished := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(1 * time.Second):
		t.Fatal("Shutdown timed out")
	}
	if err, _ := taskErr.Load().(error); !errors.Is(err, context.Canceled) {
		t.Errorf("task saw %v, want context.Canceled", err)
	}
}

func TestPool_ManyTasksDoNotBlockSubmit(t *testing.T) {
	pool := NewPool[int](context.Background(), 1)
	pool.Start()

	done := make(chan []Outcome[int])
	go func() {
		for i := 0; i < 100; i++ {
			pool.Submit(sleepTask(0, i, nil))
		}
		done <- pool.Wait()
	}()

	select {
	case outcomes := <-done:
		if len(outcomes) != 100 {
			t.Errorf("expected 100 outcomes, got %d", len(outcomes))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pool deadlocked with more tasks than buffer space")
	}
}

func TestPool_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool[int](ctx, 2)
	pool.Start()
	cancel()

	var executed int32
	pool.Submit(sleepTask(50*time.Millisecond, 1, &executed))
	outcomes := pool.Wait()
	if len(outcomes) != 1 {
		t.Fatalf("expected one outcome per submitted task, got %d", len(outcomes))
	}
	if outcomes[0].Ran && outcomes[0].Err == nil {
		t.Errorf("task should not complete normally after cancel: %+v", outcomes[0])
	}
}
