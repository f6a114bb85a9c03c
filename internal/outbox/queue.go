package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"agrimarket/internal/microservices/http-api/models"
)

var (
	ErrQueueClosed = errors.New("outbox: queue closed")
	ErrQueueFull   = errors.New("outbox: queue full")
)

// Kind selects which alert email a job sends
type Kind string

const (
	KindLowStock   Kind = "low_stock"
	KindOutOfStock Kind = "out_of_stock"
)

// Job is one pending stock alert email. The notification it belongs to is
// already persisted by the time the job exists.
type Job struct {
	ID             string         `json:"id"`
	Kind           Kind           `json:"kind"`
	VendorID       string         `json:"vendorId"`
	Product        models.Product `json:"product"`
	NotificationID string         `json:"notificationId"`
	Attempt        int            `json:"attempt"`
	EnqueuedAt     time.Time      `json:"enqueuedAt"`
	LastError      string         `json:"lastError,omitempty"`
}

// Queue carries jobs from the request path to the worker pool
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available or ctx is done
	Dequeue(ctx context.Context) (Job, error)
	DeadLetter(ctx context.Context, job Job, cause error) error
	Close() error
}

// StatsQueue is a Queue that can report its backlog
type StatsQueue interface {
	Queue
	Len(ctx context.Context) (pending, dead int64, err error)
}

// MemoryQueue is an in-process Queue backed by a buffered channel.
// Jobs do not survive a restart.
type MemoryQueue struct {
	jobs chan Job

	mu     sync.Mutex
	closed bool
	dead   []Job
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryQueue{jobs: make(chan Job, capacity)}
}

// Enqueue never blocks; a full buffer is reported as ErrQueueFull
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return Job{}, ErrQueueClosed
		}
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

func (q *MemoryQueue) DeadLetter(ctx context.Context, job Job, cause error) error {
	if cause != nil {
		job.LastError = cause.Error()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, job)
	return nil
}

// DeadLetters returns a copy of the jobs that exhausted their retries
func (q *MemoryQueue) DeadLetters() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, len(q.dead))
	copy(out, q.dead)
	return out
}

func (q *MemoryQueue) Len(ctx context.Context) (pending, dead int64, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.jobs)), int64(len(q.dead)), nil
}

// Close stops accepting jobs; already buffered jobs can still be dequeued
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	return nil
}
