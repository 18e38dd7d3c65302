package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"conferencecentral/internal/domain"
)

// DefaultLease is how long a claimed job stays invisible before it is redelivered.
const DefaultLease = 5 * time.Minute

// JobQueue is a durable at-least-once queue on the jobs table. Claims use
// FOR UPDATE SKIP LOCKED so several workers can share the table.
type JobQueue struct {
	DB    *sql.DB
	Lease time.Duration
	now   func() time.Time
}

// NewJobQueue returns a queue backed by db.
func NewJobQueue(db *sql.DB) *JobQueue {
	return &JobQueue{DB: db, Lease: DefaultLease, now: time.Now}
}

var (
	_ domain.JobQueue  = (*JobQueue)(nil)
	_ domain.JobSource = (*JobQueue)(nil)
)

func (q *JobQueue) Enqueue(ctx context.Context, job domain.Job) error {
	now := q.now().UTC()
	query := `
		INSERT INTO jobs (id, type, payload, attempts, enqueued_at, available_at)
		VALUES ($1, $2, $3, 0, $4, $4)
	`
	if _, err := q.DB.ExecContext(ctx, query, uuid.NewString(), string(job.Type), []byte(job.Payload), now); err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Type, err)
	}
	return nil
}

func (q *JobQueue) Claim(ctx context.Context) (domain.Job, bool, error) {
	now := q.now().UTC()
	query := `
		UPDATE jobs
		SET attempts = attempts + 1, available_at = $2
		WHERE id = (
			SELECT id FROM jobs
			WHERE available_at <= $1
			ORDER BY available_at, enqueued_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, type, payload, attempts, enqueued_at
	`
	var job domain.Job
	var jobType string
	var payload []byte
	err := q.DB.QueryRowContext(ctx, query, now, now.Add(q.Lease)).Scan(&job.ID, &jobType, &payload, &job.Attempts, &job.EnqueuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, false, nil
		}
		return domain.Job{}, false, fmt.Errorf("claim job: %w", err)
	}
	job.Type = domain.JobType(jobType)
	job.Payload = payload
	return job, true, nil
}

func (q *JobQueue) Ack(ctx context.Context, job domain.Job) error {
	if _, err := q.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, job.ID); err != nil {
		return fmt.Errorf("ack job %s: %w", job.ID, err)
	}
	return nil
}

func (q *JobQueue) Nack(ctx context.Context, job domain.Job, retryAfter time.Duration) error {
	query := `UPDATE jobs SET available_at = $2 WHERE id = $1`
	if _, err := q.DB.ExecContext(ctx, query, job.ID, q.now().UTC().Add(retryAfter)); err != nil {
		return fmt.Errorf("nack job %s: %w", job.ID, err)
	}
	return nil
}
