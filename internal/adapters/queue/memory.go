package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"conferencecentral/internal/domain"
)

// DefaultCapacity bounds the number of pending jobs held by a Memory queue.
const DefaultCapacity = 1024

type pending struct {
	job         domain.Job
	availableAt time.Time
}

// Memory is an in-process JobQueue and JobSource. Jobs do not survive a restart, and a
// claimed job that is never acked is redelivered after Lease.
type Memory struct {
	Lease    time.Duration
	capacity int

	mu   sync.Mutex
	jobs []*pending
	now  func() time.Time
}

// NewMemory returns a queue holding at most capacity jobs; capacity <= 0 uses DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{Lease: 5 * time.Minute, capacity: capacity, now: time.Now}
}

var (
	_ domain.JobQueue  = (*Memory)(nil)
	_ domain.JobSource = (*Memory)(nil)
)

// Enqueue never blocks; it returns domain.ErrQueueFull when the buffer is at capacity.
func (q *Memory) Enqueue(ctx context.Context, job domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) >= q.capacity {
		return fmt.Errorf("enqueue %s: %w", job.Type, domain.ErrQueueFull)
	}
	now := q.now()
	job.ID = uuid.NewString()
	job.Attempts = 0
	job.EnqueuedAt = now
	q.jobs = append(q.jobs, &pending{job: job, availableAt: now})
	return nil
}

// Claim returns the oldest available job, marking it leased.
func (q *Memory) Claim(ctx context.Context) (domain.Job, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Job{}, false, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	var next *pending
	for _, p := range q.jobs {
		if p.availableAt.After(now) {
			continue
		}
		if next == nil || p.availableAt.Before(next.availableAt) {
			next = p
		}
	}
	if next == nil {
		return domain.Job{}, false, nil
	}
	next.job.Attempts++
	next.availableAt = now.Add(q.Lease)
	return next.job, true, nil
}

func (q *Memory) Ack(ctx context.Context, job domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, p := range q.jobs {
		if p.job.ID == job.ID {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *Memory) Nack(ctx context.Context, job domain.Job, retryAfter time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range q.jobs {
		if p.job.ID == job.ID {
			p.availableAt = q.now().Add(retryAfter)
			return nil
		}
	}
	return fmt.Errorf("nack job %s: %w", job.ID, domain.ErrNotFound)
}

// Len reports the number of jobs not yet acked.
func (q *Memory) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
