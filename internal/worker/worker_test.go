package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/adapters/queue"
	"conferencecentral/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func enqueue(t *testing.T, q *queue.Memory, jt domain.JobType) {
	t.Helper()
	job, err := domain.NewJob(jt, map[string]string{"conference_key": "Conference:i:1"})
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), job))
}

func TestRunner_Drain(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name        string
		jobType     domain.JobType
		handlerErr  error
		maxAttempts int
		wantLen     int
		wantCalls   int32
	}{
		{name: "success acks", jobType: domain.JobFeaturedSpeaker, wantLen: 0, wantCalls: 1},
		{name: "failure is retried later", jobType: domain.JobFeaturedSpeaker, handlerErr: boom, maxAttempts: 3, wantLen: 1, wantCalls: 1},
		{name: "failure at max attempts drops", jobType: domain.JobFeaturedSpeaker, handlerErr: boom, maxAttempts: 1, wantLen: 0, wantCalls: 1},
		{name: "validation failure drops without retry", jobType: domain.JobFeaturedSpeaker, handlerErr: fmt.Errorf("send: %w", domain.ErrValidation), maxAttempts: 3, wantLen: 0, wantCalls: 1},
		{name: "missing entity drops without retry", jobType: domain.JobFeaturedSpeaker, handlerErr: domain.ErrNotFound, maxAttempts: 3, wantLen: 0, wantCalls: 1},
		{name: "unknown type drops", jobType: domain.JobType("unknown"), wantLen: 0, wantCalls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := queue.NewMemory(0)
			enqueue(t, q, tt.jobType)
			var calls atomic.Int32
			handlers := map[domain.JobType]domain.JobHandler{
				domain.JobFeaturedSpeaker: domain.JobHandlerFunc(func(ctx context.Context, job domain.Job) error {
					calls.Add(1)
					return tt.handlerErr
				}),
			}
			r := New(q, handlers, Config{MaxAttempts: tt.maxAttempts}, testLogger)

			require.NoError(t, r.drain(context.Background()))
			assert.Equal(t, tt.wantLen, q.Len())
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestRunner_Backoff(t *testing.T) {
	r := New(queue.NewMemory(0), nil, Config{Backoff: time.Second}, testLogger)
	assert.Equal(t, time.Second, r.backoff(1))
	assert.Equal(t, 2*time.Second, r.backoff(2))
	assert.Equal(t, 8*time.Second, r.backoff(4))
	assert.Equal(t, maxBackoff, r.backoff(50))
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	q := queue.NewMemory(0)
	enqueue(t, q, domain.JobFeaturedSpeaker)
	handled := make(chan struct{}, 1)
	handlers := map[domain.JobType]domain.JobHandler{
		domain.JobFeaturedSpeaker: domain.JobHandlerFunc(func(ctx context.Context, job domain.Job) error {
			handled <- struct{}{}
			return nil
		}),
	}
	r := New(q, handlers, Config{PollInterval: 10 * time.Millisecond}, testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not handled")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, q.Len())
}

func TestRunPeriodic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- RunPeriodic(ctx, testLogger, "test", time.Millisecond, func(ctx context.Context) error {
			if calls.Add(1) == 3 {
				cancel()
			}
			return errors.New("ignored")
		})
	}()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("RunPeriodic did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
