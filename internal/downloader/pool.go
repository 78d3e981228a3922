package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"igharvest/pkg/logger"
)

// Job is one media resource to fetch
type Job struct {
	Index int // one-based position in the exported list
	URL   string
}

// Result represents the result of a fetch job
type Result struct {
	Job      Job
	Data     []byte
	Error    error
	Duration time.Duration
}

// Success reports whether the job produced data
func (r Result) Success() bool { return r.Error == nil }

// Fetcher retrieves the bytes behind a media URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// WorkerPool fetches jobs with a fixed number of concurrent workers
type WorkerPool struct {
	numWorkers int
	fetcher    Fetcher
	logger     logger.Logger
}

// NewWorkerPool creates a new fetch worker pool
func NewWorkerPool(numWorkers int, fetcher Fetcher, log logger.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		fetcher:    fetcher,
		logger:     logger.OrDefault(log).WithField("component", "downloader"),
	}
}

// Run fetches every job and hands each result to sink. sink is only ever
// called from the goroutine that called Run, so it may write to a shared
// archive without locking. A failed fetch is a result, not an error; Run only
// fails when ctx is cancelled, after the workers have stopped.
func (wp *WorkerPool) Run(ctx context.Context, jobs []Job, sink func(Result)) error {
	g, gctx := errgroup.WithContext(ctx)
	jobQueue := make(chan Job)
	resultQueue := make(chan Result, wp.numWorkers)

	g.Go(func() error {
		defer close(jobQueue)
		for _, job := range jobs {
			select {
			case jobQueue <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		workers.Add(1)
		id := i
		g.Go(func() error {
			defer workers.Done()
			return wp.worker(gctx, id, jobQueue, resultQueue)
		})
	}

	go func() {
		workers.Wait()
		close(resultQueue)
	}()

	for result := range resultQueue {
		sink(result)
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("fetch pool stopped: %w", err)
	}
	return nil
}

// worker is the main worker routine
func (wp *WorkerPool) worker(ctx context.Context, id int, jobs <-chan Job, results chan<- Result) error {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := wp.processJob(ctx, job, id)
		select {
		case results <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// processJob handles a single fetch job
func (wp *WorkerPool) processJob(ctx context.Context, job Job, workerID int) Result {
	start := time.Now()
	data, err := wp.fetcher.Fetch(ctx, job.URL)
	result := Result{Job: job, Data: data, Error: err, Duration: time.Since(start)}

	if err != nil {
		wp.logger.DebugWithFields("Fetch failed", map[string]interface{}{
			"worker_id": workerID,
			"index":     job.Index,
			"url":       job.URL,
			"error":     err.Error(),
		})
		return result
	}
	wp.logger.DebugWithFields("Fetch completed", map[string]interface{}{
		"worker_id": workerID,
		"index":     job.Index,
		"size":      len(data),
		"duration":  result.Duration,
	})
	return result
}

// GetActiveWorkers returns the number of workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
