// ABOUTME: Simple worker pool for parallelizing per-generation batch work
// ABOUTME: Provides submit-and-wait and indexed fan-out used by fitness evaluation

// Package pool provides a fixed-size worker pool for CPU-bound batch tasks.
package pool

import (
	"runtime"
	"sync"
)

// WorkerPool manages a pool of worker goroutines for parallel task execution
type WorkerPool struct {
	workers  int
	taskChan chan func()
	workerWg sync.WaitGroup // tracks worker goroutines lifetime
	taskWg   sync.WaitGroup // tracks submitted tasks completion
	closeMu  sync.Once
}

// NewWorkerPool creates a worker pool with the given number of workers.
// workers <= 0 sizes the pool to available CPUs.
// The bufferSize determines the task channel capacity.
func NewWorkerPool(workers, bufferSize int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if bufferSize < 0 {
		bufferSize = 0
	}

	pool := &WorkerPool{
		workers:  workers,
		taskChan: make(chan func(), bufferSize),
	}

	for range workers {
		pool.workerWg.Add(1)

		go func() {
			defer pool.workerWg.Done()

			for task := range pool.taskChan {
				task()
				pool.taskWg.Done()
			}
		}()
	}

	return pool
}

// Workers returns the number of worker goroutines
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Submit adds a task to the pool
// Blocks if the task channel is full
func (p *WorkerPool) Submit(task func()) {
	p.taskWg.Add(1)
	p.taskChan <- task
}

// Wait blocks until all submitted tasks have completed
func (p *WorkerPool) Wait() {
	p.taskWg.Wait()
}

// ForEach runs fn(i) for every i in [0, n) on the pool and waits for all of them.
// fn must only write to state owned by index i.
func (p *WorkerPool) ForEach(n int, fn func(i int)) {
	for i := range n {
		p.Submit(func() { fn(i) })
	}

	p.Wait()
}

// Close shuts down the worker pool and waits for all workers to exit.
// Safe to call more than once.
func (p *WorkerPool) Close() {
	p.closeMu.Do(func() {
		close(p.taskChan)
	})
	p.workerWg.Wait()
}
