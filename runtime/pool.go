package runtime

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned when work is handed to a closed pool.
var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool is a fixed set of goroutines that live as long as the engine.
//
// Each worker owns a queue. An idle worker steals from the other queues before
// blocking on its own, so a slow band does not hold back the rest of a phase.
//
// WorkerPool is safe for concurrent use: several steps may share one pool.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// gate keeps Close from stopping workers while a batch is in flight.
	gate sync.RWMutex
}

// NewWorkerPool starts n workers. n <= 0 means GOMAXPROCS.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	depth := max(n*4, 8)

	p := &WorkerPool{
		workers: n,
		queues:  make([]chan func(), n),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.loop(i)
	}
	Logger().Info("worker pool started", "workers", n)
	return p
}

func (p *WorkerPool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case fn := <-own:
			fn()
			continue
		default:
		}

		if fn := p.steal(id); fn != nil {
			fn()
			continue
		}

		select {
		case <-p.done:
			p.drain(own)
			return
		case fn := <-own:
			fn()
		}
	}
}

func (p *WorkerPool) drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case fn := <-p.queues[(id+i)%p.workers]:
			return fn
		default:
		}
	}
	return nil
}

// ExecuteAll runs every task and returns once all of them have finished.
// Task k is queued on worker k mod Workers(). Returning is a full barrier:
// writes made by the tasks happen before ExecuteAll returns.
//
// A task that panics is reported as an error after the barrier.
func (p *WorkerPool) ExecuteAll(tasks []func()) error {
	if len(tasks) == 0 {
		return nil
	}
	p.gate.RLock()
	defer p.gate.RUnlock()
	if !p.running.Load() {
		return ErrPoolClosed
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Pointer[error]
	)
	wg.Add(len(tasks))
	for i, task := range tasks {
		p.queues[i%p.workers] <- func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("task %d panicked: %v", i, r)
					failed.CompareAndSwap(nil, &err)
				}
			}()
			task()
		}
	}
	wg.Wait()

	if err := failed.Load(); err != nil {
		return *err
	}
	return nil
}

// Close waits for in-flight ExecuteAll calls, then stops the workers.
// Close is idempotent.
func (p *WorkerPool) Close() {
	p.gate.Lock()
	defer p.gate.Unlock()
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
	Logger().Info("worker pool stopped", "workers", p.workers)
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork approximates the number of tasks waiting in all queues.
func (p *WorkerPool) QueuedWork() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}
