package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reslib/paper-metadata-api/internal/models"
	"github.com/reslib/paper-metadata-api/internal/utils"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Job is one pipeline run for one uploaded paper. The handle (ID) is opaque;
// callers only ever poll it.
type Job struct {
	ID          string
	PaperID     string
	FilePath    string
	Status      Status
	Result      *models.PersistedRecord
	Error       string
	SubmittedAt time.Time
	FinishedAt  *time.Time
}

// Runner executes the full pipeline for one paper. Steps inside a run are
// strictly sequential; concurrency exists only across jobs.
type Runner func(ctx context.Context, paperID, filePath string) (*models.PersistedRecord, error)

var ErrQueueFull = fmt.Errorf("job queue is full")

// Pool dispatches jobs to a fixed set of workers and keeps an in-memory
// record of every job for status polling. Jobs are not persisted; a restart
// forgets unfinished work, which is acceptable for this prototype boundary.
type Pool struct {
	run    Runner
	logger *utils.Logger

	mu      sync.RWMutex
	jobs    map[string]*Job
	closing bool

	queue  chan string
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewPool(workers, queueSize int, run Runner, logger *utils.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		run:    run,
		logger: logger,
		jobs:   make(map[string]*Job),
		queue:  make(chan string, queueSize),
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	return p
}

// Enqueue registers a new pending job and hands it to the workers. Returns
// ErrQueueFull instead of blocking when the queue has no room.
func (p *Pool) Enqueue(paperID, filePath string) (*Job, error) {
	job := &Job{
		ID:          utils.GenerateID(),
		PaperID:     paperID,
		FilePath:    filePath,
		Status:      StatusPending,
		SubmittedAt: time.Now(),
	}

	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return nil, fmt.Errorf("job pool is shutting down")
	}
	p.jobs[job.ID] = job
	// non-blocking send under the lock so Shutdown cannot close the
	// queue between the closing check and the send
	select {
	case p.queue <- job.ID:
	default:
		delete(p.jobs, job.ID)
		p.mu.Unlock()
		return nil, ErrQueueFull
	}
	p.mu.Unlock()

	p.logger.Info("Job enqueued", "job_id", job.ID, "paper_id", paperID)
	return p.snapshot(job.ID), nil
}

// Get returns a copy of the job so callers never observe worker mutations.
func (p *Pool) Get(id string) (*Job, bool) {
	job := p.snapshot(id)
	return job, job != nil
}

func (p *Pool) snapshot(id string) *Job {
	p.mu.RLock()
	defer p.mu.RUnlock()
	job, ok := p.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (p *Pool) worker(ctx context.Context, n int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, id, n)
		}
	}
}

func (p *Pool) process(ctx context.Context, id string, worker int) {
	p.mu.Lock()
	job, ok := p.jobs[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	job.Status = StatusInProgress
	paperID, filePath := job.PaperID, job.FilePath
	p.mu.Unlock()

	p.logger.Info("Job started", "job_id", id, "paper_id", paperID, "worker", worker)

	result, err := p.run(ctx, paperID, filePath)
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	job.FinishedAt = &now
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		p.logger.Error("Job failed", "job_id", id, "paper_id", paperID, "error", err)
		return
	}
	job.Status = StatusSucceeded
	job.Result = result
	p.logger.Info("Job succeeded", "job_id", id, "paper_id", paperID)
}

// Shutdown stops accepting work and waits for in-flight jobs up to the
// context deadline, then cancels whatever is left.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return
	}
	p.closing = true
	p.mu.Unlock()
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.cancel()
		<-done
	}
	p.cancel()
}
