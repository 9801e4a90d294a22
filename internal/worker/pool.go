// Package worker runs independent jobs concurrently and throttles calls to
// rate-limited backends.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPanicked wraps a panic recovered from a task
var ErrPanicked = errors.New("task panicked")

// Task is one unit of work producing a T
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the result of one submitted task. Ran is false when the task
// was never started because the pool was stopped first.
type Outcome[T any] struct {
	Value T
	Err   error
	Ran   bool
}

type slot[T any] struct {
	index int
	task  Task[T]
}

// Pool executes tasks on a fixed number of goroutines. Outcomes are stored
// by submission index, so callers get them back in the order they were
// submitted regardless of completion order.
type Pool[T any] struct {
	workers  int
	queue    chan slot[T]
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	sending  sync.RWMutex // held for writing only while closing queue
	outcomes []Outcome[T]
	next     int
	started  bool
	closed   bool
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops the workers.
func NewPool[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool[T]{
		workers: workers,
		queue:   make(chan slot[T], workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. It is a no-op after the first call.
func (p *Pool[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool[T]) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case s, ok := <-p.queue:
			if !ok {
				return
			}
			value, err := execute(p.ctx, s.task)
			p.record(s.index, Outcome[T]{Value: value, Err: err, Ran: true})
		}
	}
}

// execute runs task and turns a panic into an ErrPanicked error
func execute[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return task(ctx)
}

func (p *Pool[T]) record(index int, o Outcome[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes[index] = o
}

// Submit queues a task and reports whether it was accepted. Tasks submitted
// after the pool stopped are rejected and keep a zero Outcome.
func (p *Pool[T]) Submit(task Task[T]) bool {
	p.sending.RLock()
	defer p.sending.RUnlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	index := p.next
	p.next++
	p.outcomes = append(p.outcomes, Outcome[T]{})
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- slot[T]{index: index, task: task}:
		return true
	}
}

// Wait drains the queue and returns one Outcome per submitted task in
// submission order.
func (p *Pool[T]) Wait() []Outcome[T] {
	p.stop(false)
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Outcome[T](nil), p.outcomes...)
}

// Shutdown stops the pool without running queued tasks
func (p *Pool[T]) Shutdown() {
	p.stop(true)
}

func (p *Pool[T]) stop(abort bool) {
	if abort {
		p.cancel()
	}

	p.sending.Lock()
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.sending.Unlock()

	p.wg.Wait()
	p.cancel()
}
