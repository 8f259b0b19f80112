package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/KillerHyena/Inquiro/internal/domain"
)

// DefaultCapacity is used when NewQueue is given a non-positive capacity.
const DefaultCapacity = 10

// Queue is a bounded FIFO safe for many producers and a single consumer.
// Admission never waits: a full queue rejects with domain.ErrQueueFull.
type Queue struct {
	jobs chan Job

	// mu serializes admission so reported positions are consistent, and
	// guards the pending counter used for drain accounting.
	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

// NewQueue creates a queue holding at most capacity jobs.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{jobs: make(chan Job, capacity), idle: idle}
}

// Enqueue appends job and returns its 1-based position.
func (q *Queue) Enqueue(job Job) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case q.jobs <- job:
	default:
		return 0, domain.ErrQueueFull
	}
	if q.pending == 0 {
		q.idle = make(chan struct{})
	}
	q.pending++
	position := len(q.jobs)
	if position < 1 {
		// The consumer already took it.
		position = 1
	}
	return position, nil
}

// Dequeue waits up to timeout for the next job.
func (q *Queue) Dequeue(timeout time.Duration) (Job, bool) {
	select {
	case job := <-q.jobs:
		return job, true
	default:
	}
	if timeout <= 0 {
		return Job{}, false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case job := <-q.jobs:
		return job, true
	case <-timer.C:
		return Job{}, false
	}
}

// Done marks one dequeued job as fully processed.
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == 0 {
		return
	}
	q.pending--
	if q.pending == 0 {
		close(q.idle)
	}
}

// Wait blocks until every admitted job has been marked Done or ctx ends.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len reports the number of jobs waiting to be dequeued.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Cap reports the configured capacity.
func (q *Queue) Cap() int {
	return cap(q.jobs)
}

// Pending reports admitted jobs not yet marked Done, including the one
// currently being dispatched.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}
