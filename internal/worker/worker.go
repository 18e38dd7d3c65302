// Package worker drains the job queue and runs periodic tasks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"conferencecentral/internal/domain"
)

const (
	DefaultPollInterval = time.Second
	DefaultMaxAttempts  = 5
	DefaultBackoff      = 2 * time.Second
	maxBackoff          = 5 * time.Minute
)

// Config tunes a Runner. Zero values use the defaults above.
type Config struct {
	PollInterval time.Duration
	MaxAttempts  int
	Backoff      time.Duration
}

// Runner claims jobs from a JobSource and dispatches them by type.
type Runner struct {
	source   domain.JobSource
	handlers map[domain.JobType]domain.JobHandler
	cfg      Config
	logger   *slog.Logger
}

func New(source domain.JobSource, handlers map[domain.JobType]domain.JobHandler, cfg Config, logger *slog.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &Runner{source: source, handlers: handlers, cfg: cfg, logger: logger}
}

// Run drains the queue once, then again on every tick, until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := r.drain(ctx); err != nil {
			r.logger.ErrorContext(ctx, "error during worker pass", slog.Any("err", err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain processes every job that is ready now.
func (r *Runner) drain(ctx context.Context) error {
	for ctx.Err() == nil {
		job, ok, err := r.source.Claim(ctx)
		if err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		if !ok {
			return nil
		}
		if err := r.process(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) process(ctx context.Context, job domain.Job) error {
	logger := r.logger.With("job_id", job.ID, "job_type", string(job.Type), "attempt", job.Attempts)
	handler, ok := r.handlers[job.Type]
	if !ok {
		logger.ErrorContext(ctx, "no handler for job, dropping")
		return r.ack(ctx, job)
	}
	err := handler.Handle(ctx, job)
	if err == nil {
		return r.ack(ctx, job)
	}
	if permanent(err) || job.Attempts >= r.cfg.MaxAttempts {
		logger.ErrorContext(ctx, "job failed permanently, dropping", slog.Any("err", err))
		return r.ack(ctx, job)
	}
	retryAfter := r.backoff(job.Attempts)
	logger.WarnContext(ctx, "job failed, will retry", slog.Any("err", err), "retry_after", retryAfter)
	if err := r.source.Nack(ctx, job, retryAfter); err != nil {
		return fmt.Errorf("nack %s: %w", job.ID, err)
	}
	return nil
}

// permanent reports failures that no retry can fix.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedKey)
}

func (r *Runner) ack(ctx context.Context, job domain.Job) error {
	if err := r.source.Ack(ctx, job); err != nil {
		return fmt.Errorf("ack %s: %w", job.ID, err)
	}
	return nil
}

// backoff doubles per attempt, capped at maxBackoff.
func (r *Runner) backoff(attempt int) time.Duration {
	d := r.cfg.Backoff
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

// RunPeriodic calls fn immediately and then every interval until ctx is done. Errors are
// logged and do not stop the loop.
func RunPeriodic(ctx context.Context, logger *slog.Logger, name string, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := fn(ctx); err != nil {
			logger.ErrorContext(ctx, "periodic task failed", "task", name, slog.Any("err", err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
