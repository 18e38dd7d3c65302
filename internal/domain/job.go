package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JobType routes a job to its handler.
type JobType string

const (
	JobFeaturedSpeaker             JobType = "featured_speaker"
	JobConferenceConfirmationEmail JobType = "conference_confirmation_email"
)

// Job is a typed message on the job queue. ID is assigned by the queue.
type Job struct {
	ID         string
	Type       JobType
	Payload    json.RawMessage
	Attempts   int
	EnqueuedAt time.Time
}

// NewJob marshals payload into a job of the given type.
func NewJob(t JobType, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Job{Type: t, Payload: raw}, nil
}

// FeaturedSpeakerJob asks the pipeline to recompute the featured speaker of a conference.
// ConferenceKey is the key path (Key.String).
type FeaturedSpeakerJob struct {
	ConferenceKey string `json:"conference_key"`
	SpeakerID     int64  `json:"speaker_id"`
}

// ConferenceConfirmationEmailJob asks for a confirmation email to the conference organizer.
type ConferenceConfirmationEmailJob struct {
	ConferenceKey string `json:"conference_key"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
}

// JobQueue is the producer side of a durable at-least-once queue.
type JobQueue interface {
	Enqueue(ctx context.Context, job Job) error
}

// JobSource is the consumer side. Claim does not wait: it returns ok=false when no job is
// ready. A claimed job must be acked or nacked; a durable source redelivers a job that is
// neither once its lease expires.
type JobSource interface {
	Claim(ctx context.Context) (job Job, ok bool, err error)
	Ack(ctx context.Context, job Job) error
	Nack(ctx context.Context, job Job, retryAfter time.Duration) error
}

// JobHandler processes one job type.
type JobHandler interface {
	Handle(ctx context.Context, job Job) error
}

// JobHandlerFunc adapts a function to JobHandler.
type JobHandlerFunc func(ctx context.Context, job Job) error

func (f JobHandlerFunc) Handle(ctx context.Context, job Job) error { return f(ctx, job) }
