// Package dispatch provides a data-parallel stage executor for the solver.
//
// Every solver stage is a loop over N independent units (particles or grid
// cells). ForEach splits [0, n) across a persistent pool of workers and does
// not return until every chunk has completed, so a call site that runs stage
// A and then stage B gets a full barrier between them: stage B never observes
// a partially committed stage A.
package dispatch

import (
	"runtime"
	"sync"
)

// serialThreshold is the minimum unit count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const serialThreshold = 256

// workChunk represents a range of units for a worker to process.
type workChunk struct {
	start, end int
	fn         func(start, end int)
}

// Pool runs data-parallel stages over persistent worker goroutines.
type Pool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal chunk completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewPool creates a pool with one worker per logical CPU.
func NewPool() *Pool {
	return NewPoolSize(runtime.GOMAXPROCS(0))
}

// NewPoolSize creates a pool with an explicit worker count.
func NewPoolSize(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{numWorkers: workers}
}

// Workers returns the worker count.
func (p *Pool) Workers() int {
	return p.numWorkers
}

// start launches persistent worker goroutines.
func (p *Pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop signals all workers to exit and waits for them.
// The pool restarts lazily on the next ForEach.
func (p *Pool) Stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// ForEach runs fn over [0, n) split into per-worker chunks and blocks until
// all chunks complete. fn must treat its range as independent units: writes
// outside the unit's own slots need their own synchronization. Not safe for
// concurrent ForEach calls on one pool; the solver issues stages one at a time.
func (p *Pool) ForEach(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	// Single-threaded for small stages
	if n < serialThreshold || p.numWorkers == 1 {
		fn(0, n)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks: this join is the stage barrier.
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
