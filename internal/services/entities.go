package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conferencecentral/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	enqueueTimeout = 2 * time.Second
)

// getConference loads a conference. Keys of another kind resolve to ErrNotFound.
func getConference(ctx context.Context, store domain.EntityStore, key *domain.Key) (*domain.Conference, error) {
	if key == nil || key.Kind != domain.KindConference {
		return nil, fmt.Errorf("%w: %s is not a conference", domain.ErrNotFound, key)
	}
	e, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get conference: %w", err)
	}
	c, ok := e.(*domain.Conference)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a conference", domain.ErrNotFound, key)
	}
	return c, nil
}

func getSession(ctx context.Context, store domain.EntityStore, key *domain.Key) (*domain.Session, error) {
	if key == nil || key.Kind != domain.KindSession {
		return nil, fmt.Errorf("%w: %s is not a session", domain.ErrNotFound, key)
	}
	e, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	s, ok := e.(*domain.Session)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a session", domain.ErrNotFound, key)
	}
	return s, nil
}

func getSpeaker(ctx context.Context, store domain.EntityStore, id int64) (*domain.Speaker, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: speaker %d", domain.ErrNotFound, id)
	}
	e, err := store.Get(ctx, domain.SpeakerKey(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	s, ok := e.(*domain.Speaker)
	if !ok {
		return nil, fmt.Errorf("%w: speaker %d", domain.ErrNotFound, id)
	}
	return s, nil
}

// loadProfile returns the caller's profile, creating it in memory on first interaction.
// created reports whether the profile still has to be stored.
func loadProfile(ctx context.Context, store domain.EntityStore, caller domain.Identity) (p *domain.Profile, created bool, err error) {
	if caller.UserID == "" {
		return nil, false, fmt.Errorf("%w: missing user identity", domain.ErrNotAuthorized)
	}
	e, err := store.Get(ctx, domain.ProfileKey(caller.UserID))
	switch {
	case err == nil:
		p, ok := e.(*domain.Profile)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s is not a profile", domain.ErrNotFound, domain.ProfileKey(caller.UserID))
		}
		return p, false, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewProfile(caller), true, nil
	}
	return nil, false, fmt.Errorf("get profile: %w", err)
}

func putProfile(ctx context.Context, store domain.EntityStore, p *domain.Profile) error {
	if _, err := store.Put(ctx, p); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// enqueue publishes a job without failing the caller. The enqueue is bounded by its own
// timeout and survives cancellation of the request context.
func enqueue(ctx context.Context, queue domain.JobQueue, logger *slog.Logger, t domain.JobType, payload any) {
	job, err := domain.NewJob(t, payload)
	if err != nil {
		logger.WarnContext(ctx, "enqueue failed", "job_type", t, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	if err := queue.Enqueue(ctx, job); err != nil {
		logger.WarnContext(ctx, "enqueue failed", "job_type", t, "err", err)
	}
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrValidation, field)
	}
	return &t, nil
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(field, value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be HH:MM", domain.ErrValidation, field)
	}
	m := t.Hour()*60 + t.Minute()
	return &m, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func toConferences(es []domain.Entity) []*domain.Conference {
	out := make([]*domain.Conference, 0, len(es))
	for _, e := range es {
		out = append(out, e.(*domain.Conference))
	}
	return out
}

func toSessions(es []domain.Entity) []*domain.Session {
	out := make([]*domain.Session, 0, len(es))
	for _, e := range es {
		out = append(out, e.(*domain.Session))
	}
	return out
}
