package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Stats counts finished jobs.
type Stats struct {
	Processed int64
	Failed    int64
}

type ProcessorQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// senders hold mu.RLock for the whole send; closing wakes blocked ones
	mu        sync.RWMutex
	closed    bool
	closing   chan struct{}
	closeOnce sync.Once

	processed atomic.Int64
	failed    atomic.Int64
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 256),
		closing: make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.failed.Add(1)
			q.logger.Error("job panicked", "worker_id", workerID, "source", job.Source, "index", job.Index, "panic", r)
		}
	}()

	if err := q.proc.Process(ctx, job); err != nil {
		q.failed.Add(1)
		q.logger.Error("job failed", "worker_id", workerID, "source", job.Source, "index", job.Index, "error", err)
		return
	}
	q.processed.Add(1)
	q.logger.Debug("job processed", "worker_id", workerID, "source", job.Source, "index", job.Index)
}

// Enqueue blocks while the buffer is full, until ctx is done or the queue
// starts shutting down.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "source", job.Source, "index", job.Index)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "source", job.Source, "index", job.Index)
	select {
	case q.ch <- job:
		return nil
	case <-q.closing:
		q.logger.Warn("cannot enqueue: queue is shutting down", "source", job.Source, "index", job.Index)
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (q *ProcessorQueue) Stats() Stats {
	return Stats{Processed: q.processed.Load(), Failed: q.failed.Load()}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.closeOnce.Do(func() { close(q.closing) })
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		s := q.Stats()
		q.logger.Info("queue drained, shutdown complete", "processed", s.Processed, "failed", s.Failed)
	}
}
