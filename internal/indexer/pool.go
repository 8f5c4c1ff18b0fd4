package indexer

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"movie-indexer/internal/messages"
	"movie-indexer/internal/metrics"
)

type task struct {
	name string
	fn   func(ctx context.Context)
}

// taskPool runs submitted tasks on a fixed number of workers. Once ctx is
// cancelled, queued tasks are abandoned; running tasks complete with a
// context that is no longer cancelled so their writes are not cut short.
type taskPool struct {
	name    string
	workers int
	ctx     context.Context
	sink    messages.Sink

	tasks chan task
	wg    sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	abandoned atomic.Int64
}

func newTaskPool(ctx context.Context, name string, workers int, sink messages.Sink) *taskPool {
	if workers < 1 {
		workers = 1
	}
	if sink == nil {
		sink = messages.Discard
	}

	p := &taskPool{
		name:    name,
		workers: workers,
		ctx:     ctx,
		sink:    sink,
		tasks:   make(chan task, workers*4),
	}

	metrics.PoolWorkers.WithLabelValues(name).Set(float64(workers))
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Submit queues fn. It blocks while the queue is full and reports false
// when the pool's context was cancelled before the task was queued.
func (p *taskPool) Submit(name string, fn func(ctx context.Context)) bool {
	if p.ctx.Err() != nil {
		p.abandon()
		return false
	}

	p.submitted.Add(1)
	metrics.TasksSubmitted.WithLabelValues(p.name).Inc()

	select {
	case p.tasks <- task{name: name, fn: fn}:
		return true
	case <-p.ctx.Done():
		p.abandon()
		return false
	}
}

// Wait closes the queue and blocks until every worker has exited. Submit
// must not be called afterwards.
func (p *taskPool) Wait() {
	close(p.tasks)
	p.wg.Wait()
	metrics.PoolWorkers.WithLabelValues(p.name).Set(0)

	log.Debug("pool %s finished: %d submitted, %d completed, %d crashed, %d abandoned",
		p.name, p.submitted.Load(), p.completed.Load(), p.panicked.Load(), p.abandoned.Load())
}

func (p *taskPool) worker(id int) {
	defer p.wg.Done()

	for t := range p.tasks {
		if p.ctx.Err() != nil {
			p.abandon()
			continue
		}
		p.run(t)
	}
}

func (p *taskPool) run(t task) {
	start := time.Now()
	status := "success"

	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			p.panicked.Add(1)
			metrics.TaskPanics.WithLabelValues(p.name).Inc()
			log.Error("task %q crashed: %v\n%s", t.name, r, debug.Stack())
			p.sink.Push(messages.New(messages.Error, t.name, "message.update.threadcrashed"))
		}

		metrics.TaskDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
		metrics.TasksCompleted.WithLabelValues(p.name, status).Inc()

		done := p.completed.Add(1)
		p.sink.Progress(messages.Progress{
			Task:  p.name,
			Unit:  t.name,
			Done:  int(done),
			Total: int(p.submitted.Load()),
		})
	}()

	t.fn(context.WithoutCancel(p.ctx))
}

func (p *taskPool) abandon() {
	p.abandoned.Add(1)
	metrics.TasksCompleted.WithLabelValues(p.name, "abandoned").Inc()
}

// pathSet is a concurrent set of paths.
type pathSet struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

func newPathSet() *pathSet {
	return &pathSet{paths: make(map[string]struct{})}
}

func (s *pathSet) Add(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
}

func (s *pathSet) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.paths[path]
	return ok
}

func (s *pathSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// pathLocks serializes work on the same movie directory.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *pathLocks) lock(path string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[path]
	if !ok {
		m = &sync.Mutex{}
		l.locks[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
