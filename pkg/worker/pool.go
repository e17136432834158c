package worker

import (
	"errors"
	"fmt"
	"sync"
)

// WorkerPool owns a set of workers and a WaitGroup which
// is automatically controlled by the pool.
type WorkerPool struct {
	workers []Worker
	wg      sync.WaitGroup
	started bool
}

// NewWorkerPool creates a new WorkerPool struct
// and initialises the 'workers' slice.
func NewWorkerPool() *WorkerPool {
	return &WorkerPool{workers: make([]Worker, 0)}
}

// NewTaskPool creates a pool of 'size' workers which all run the same
// task. Labels are derived from the prefix and the workers index.
func NewTaskPool(prefix string, size int, task WorkerTask) *WorkerPool {
	pool := NewWorkerPool()
	for i := 0; i < size; i++ {
		pool.workers = append(pool.workers, NewWorker(labelFor(prefix, i), task))
	}

	return pool
}

// Start cycles through all the workers
// currently inside the WorkerPool and creates
// a goroutine for each. The 'Start' method of
// each worker is executed concurrently.
//
// Start does NOT block; use Wait to block until
// every worker has finished.
func (pool *WorkerPool) Start() error {
	if pool.started {
		return errors.New("cannot start an already started worker pool")
	}
	if len(pool.workers) == 0 {
		return errors.New("cannot start a worker pool with no workers")
	}

	pool.started = true
	for _, worker := range pool.workers {
		pool.wg.Add(1)
		go func(w Worker) {
			defer pool.wg.Done()
			w.Start()
		}(worker)
	}

	return nil
}

// PushWorker inserts the workers provided in to the worker pool. Workers
// cannot be added once the pool has been started.
func (pool *WorkerPool) PushWorker(workers ...Worker) error {
	if pool.started {
		return errors.New("cannot push worker to already started worker pool")
	}

	pool.workers = append(pool.workers, workers...)
	return nil
}

// Wait blocks until every worker in the pool has finished.
func (pool *WorkerPool) Wait() {
	if !pool.started {
		return
	}

	pool.wg.Wait()
	pool.started = false
}

// Run starts the pool and waits for it to drain.
func (pool *WorkerPool) Run() error {
	if err := pool.Start(); err != nil {
		return err
	}

	pool.Wait()
	return nil
}

// Workers returns the workers attached to this pool
func (pool *WorkerPool) Workers() []Worker {
	return pool.workers
}

func labelFor(prefix string, index int) string {
	return fmt.Sprintf("%s-%d", prefix, index)
}
