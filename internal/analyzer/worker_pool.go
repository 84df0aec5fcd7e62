package analyzer

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// PoolStats is a snapshot of worker pool activity
type PoolStats struct {
	Workers       int   `json:"workers"`
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
}

// poolJob is a queued function and the batch waiting on it, if any
type poolJob struct {
	fn   func()
	done *sync.WaitGroup
}

// WorkerPool runs panel metric jobs on a fixed number of goroutines
type WorkerPool struct {
	workers  int
	jobQueue chan poolJob
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan poolJob, workers*2),
	}
}

// Start launches the workers; calling it more than once is a no-op
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job poolJob) {
	wp.activeWorkers.Add(1)
	defer func() {
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
		if job.done != nil {
			job.done.Done()
		}
	}()
	job.fn()
}

// Submit queues a job. It returns false once the pool has been closed.
func (wp *WorkerPool) Submit(job func()) bool {
	return wp.submit(poolJob{fn: job})
}

func (wp *WorkerPool) submit(job poolJob) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.totalJobs.Add(1)
	wp.jobQueue <- job
	return true
}

// RunBatch runs jobs on the pool and blocks until all of them have finished.
// Each call tracks only its own jobs, so concurrent batches may share a pool.
// Jobs rejected by a closed pool run on the calling goroutine.
func (wp *WorkerPool) RunBatch(jobs []func()) {
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		if !wp.submit(poolJob{fn: job, done: &wg}) {
			job()
			wg.Done()
		}
	}
	wg.Wait()
}

// GetStats returns the current job counters
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		Workers:       wp.workers,
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}

// Close shuts down the worker pool. Queued jobs still run.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}
