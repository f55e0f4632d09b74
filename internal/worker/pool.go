package worker

import (
	"context"
	"sort"
	"sync"
)

// Task is a unit of work producing a value of type R
type Task[R any] func(ctx context.Context) (R, error)

// Outcome is the result of one task. Index is the submission order.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

type indexedTask[R any] struct {
	index int
	run   Task[R]
}

// Pool runs tasks on a fixed number of goroutines. Outcomes are drained as
// they arrive, so any number of tasks can be submitted before Wait.
type Pool[R any] struct {
	workers    int
	next       int
	tasks      chan indexedTask[R]
	results    chan Outcome[R]
	collected  []Outcome[R]
	drained    chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool bound to ctx. Non-positive worker counts mean one worker.
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool[R]{
		workers:    workers,
		tasks:      make(chan indexedTask[R], workers*2),
		results:    make(chan Outcome[R], workers*2),
		drained:    make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
	go p.collect()
	return p
}

// Start launches the workers
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			value, err := task.run(p.ctx)
			p.results <- Outcome[R]{Index: task.index, Value: value, Err: err}
		}
	}
}

func (p *Pool[R]) collect() {
	defer close(p.drained)
	for o := range p.results {
		p.collected = append(p.collected, o)
	}
}

// Submit queues a task. It returns false when the pool has been cancelled.
// Submit must not be called concurrently with itself or after Wait.
func (p *Pool[R]) Submit(task Task[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	it := indexedTask[R]{index: p.next, run: task}
	select {
	case <-p.ctx.Done():
		return false
	case p.tasks <- it:
		p.next++
		return true
	}
}

// Wait closes the queue, waits for the workers and returns outcomes in submission order
func (p *Pool[R]) Wait() []Outcome[R] {
	close(p.tasks)
	p.wg.Wait()
	p.closeResults()
	<-p.drained
	p.cancelFunc()

	sort.Slice(p.collected, func(i, j int) bool { return p.collected[i].Index < p.collected[j].Index })
	return p.collected
}

// Shutdown cancels running tasks and stops the workers. Outcomes of tasks
// that finished are discarded.
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.drained
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// Map applies fn to every item with the given concurrency and returns
// outcomes indexed like items. Items not started before ctx is cancelled
// are reported with the context's cause.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) []Outcome[R] {
	outcomes := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return outcomes
	}

	pool := NewPool[R](ctx, workers)
	pool.Start()
	for _, item := range items {
		item := item
		if !pool.Submit(func(ctx context.Context) (R, error) { return fn(ctx, item) }) {
			break
		}
	}

	seen := make([]bool, len(items))
	for _, o := range pool.Wait() {
		outcomes[o.Index] = o
		seen[o.Index] = true
	}
	for i := range outcomes {
		if !seen[i] {
			err := context.Cause(ctx)
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = Outcome[R]{Index: i, Err: err}
		}
	}
	return outcomes
}
