package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of an archive job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one invoice document waiting to be archived
type Job struct {
	ID          uuid.UUID
	AccessKey   string
	Document    []byte
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(accessKey string, document []byte, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		AccessKey:  accessKey,
		Document:   document,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job failed and has attempts left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry moves the job back to pending after delay
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// Archive is the storage backend the queue writes to
type Archive interface {
	Store(ctx context.Context, accessKey string, document []byte) error
}

// QueueConfig holds archive queue configuration
type QueueConfig struct {
	Workers    int
	BufferSize int
	JobTimeout time.Duration
	Retries    int
	RetryDelay time.Duration
}

// DefaultQueueConfig returns default queue configuration
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Workers:    2,
		BufferSize: 100,
		JobTimeout: 30 * time.Second,
		Retries:    3,
		RetryDelay: 10 * time.Second,
	}
}

// ArchiveQueue stores invoice documents in the background with a bounded
// worker pool. Failed uploads are retried after RetryDelay.
type ArchiveQueue struct {
	config  QueueConfig
	archive Archive
	logger  *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewArchiveQueue creates a queue in front of archive
func NewArchiveQueue(config QueueConfig, archive Archive, logger *zap.Logger) *ArchiveQueue {
	defaults := DefaultQueueConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveQueue{
		config:  config,
		archive: archive,
		logger:  logger,
		jobs:    make(chan *Job, config.BufferSize),
	}
}

// Start launches the workers. Cancelling ctx does not stop them; pending
// jobs keep draining until Stop.
func (q *ArchiveQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = true
	q.mu.Unlock()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q.cancel = cancel

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}

	q.logger.Info("Archive queue started",
		zap.Int("workers", q.config.Workers),
		zap.Duration("job_timeout", q.config.JobTimeout),
	)
	return nil
}

// Stop refuses new jobs and waits for queued ones until ctx expires
func (q *ArchiveQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("Archive queue stopped gracefully")
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("Archive queue stop timed out", zap.Int("pending", len(q.jobs)))
		return ctx.Err()
	}
}

// Store queues document for archiving and returns without waiting for the upload
func (q *ArchiveQueue) Store(_ context.Context, accessKey string, document []byte) error {
	job := NewJob(accessKey, document, q.config.Retries)
	if err := q.enqueue(job); err != nil {
		return err
	}
	q.logger.Debug("Archive job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("access_key", accessKey),
	)
	return nil
}

// Pending returns the number of buffered jobs
func (q *ArchiveQueue) Pending() int {
	return len(q.jobs)
}

func (q *ArchiveQueue) enqueue(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.isRunning {
		return ErrQueueNotRunning
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *ArchiveQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.processJob(ctx, job, workerID)
		}
	}
}

func (q *ArchiveQueue) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()

	jobCtx, cancel := context.WithTimeout(ctx, q.config.JobTimeout)
	defer cancel()

	if err := q.archive.Store(jobCtx, job.AccessKey, job.Document); err != nil {
		job.Fail(err.Error())
		q.logger.Warn("Archive job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("access_key", job.AccessKey),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if job.ShouldRetry() {
			q.retryLater(job)
		}
		return
	}

	job.Complete()
	q.logger.Debug("Archive job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("access_key", job.AccessKey),
	)
}

func (q *ArchiveQueue) retryLater(job *Job) {
	job.ScheduleRetry(q.config.RetryDelay)
	time.AfterFunc(q.config.RetryDelay, func() {
		if err := q.enqueue(job); err != nil {
			q.logger.Error("Archive job dropped",
				zap.String("job_id", job.ID.String()),
				zap.String("access_key", job.AccessKey),
				zap.Error(err),
			)
		}
	})
}
