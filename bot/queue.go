package bot

import (
	"context"
	"time"

	"github.com/derricw/sigbot/signal"
)

// DefaultQueueSize bounds the dispatch queue when the config doesn't.
const DefaultQueueSize = 100

// Job is one (registration, message) pair waiting for a worker. Ownership
// passes to the worker on dequeue and the job is discarded afterwards.
type Job struct {
	Reg        *Registration
	Msg        *signal.Message
	EnqueuedAt time.Time
}

// Queue is the bounded FIFO between the single stream-consuming producer
// and the worker pool. A full queue blocks the producer rather than
// dropping jobs.
type Queue struct {
	jobs chan Job
}

// NewQueue returns a queue bounded at size (DefaultQueueSize if size <= 0).
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{jobs: make(chan Job, size)}
}

// Enqueue adds a job, blocking while the queue is full. Returns ctx.Err()
// if the context is cancelled first.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest job, blocking while the queue is empty.
// Returns ctx.Err() if the context is cancelled first.
func (q *Queue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}
