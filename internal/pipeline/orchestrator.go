package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docstruct/internal/config"
)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("pipeline is stopped")
)

// Orchestrator feeds submitted jobs to a fixed pool of workers over a
// bounded queue and evicts finished jobs after the configured TTL.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	worker  *Worker
	log     *slog.Logger
	workers int

	cleanupEvery time.Duration

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, worker *Worker, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		jobs:         NewJobStore(cfg.JobTTL),
		queue:        make(chan *Job, max(cfg.MaxQueueSize, 1)),
		worker:       worker,
		log:          log,
		workers:      workers,
		cleanupEvery: 5 * time.Minute,
	}
}

// Start launches the workers and the job cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for i := range o.workers {
		o.wg.Add(1)
		go o.run(ctx, i)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := o.jobs.Cleanup(); n > 0 {
					o.log.Debug("evicted finished jobs", "count", n)
				}
			}
		}
	}()
}

func (o *Orchestrator) run(ctx context.Context, id int) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			o.log.Debug("job picked up", "job_id", job.ID, "worker", id)
			o.worker.Process(ctx, job)
		}
	}
}

// Stop cancels in-flight work and waits for the workers. Jobs still queued
// are marked failed. Stop is safe to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for job := range o.queue {
		job.AddError("pipeline stopped before the job ran")
		job.SetStatus(StatusFailed, "shutdown")
	}
}

// Submit registers job and queues it. A full queue fails the job
// immediately with ErrQueueFull.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Info("job queued", "job_id", job.ID, "doc_id", job.DocID, "kind", job.Kind)
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d jobs waiting)", ErrQueueFull, cap(o.queue))
	}
}

// GetJob returns a job by ID, or nil once it is unknown or evicted.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of jobs waiting for a worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
