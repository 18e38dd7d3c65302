package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

type sessionService struct {
	store          domain.EntityStore
	planner        *query.Planner
	queue          domain.JobQueue
	sessionTypes   []string
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewSessionService returns a SessionService. When sessionTypes is non-empty it is the closed
// catalog of session types: creates and updates must use one of them and time queries
// rewrite type exclusions into membership filters. Otherwise types are free-form and
// exclusions are applied after the store query.
func NewSessionService(store domain.EntityStore, planner *query.Planner, queue domain.JobQueue, sessionTypes []string, logger *slog.Logger, timeout time.Duration) domain.SessionService {
	return &sessionService{
		store:          store,
		planner:        planner,
		queue:          queue,
		sessionTypes:   sessionTypes,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// CreateSession stores a session under its conference and asks the featured speaker
// pipeline to recompute. Only the conference organizer may add sessions.
func (s *sessionService) CreateSession(ctx context.Context, form *domain.SessionForm, conferenceKey *domain.Key, caller domain.Identity) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, conferenceKey)
	if err != nil {
		return nil, err
	}
	if conf.OrganizerUserID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	if form == nil || form.Name == nil || strings.TrimSpace(*form.Name) == "" {
		return nil, fmt.Errorf("%w: session name is required", domain.ErrValidation)
	}

	session := &domain.Session{
		Key:        domain.IncompleteKey(domain.KindSession, conf.Key),
		Highlights: domain.DefaultSessionHighlights,
	}
	if len(s.sessionTypes) == 0 {
		session.SessionType = domain.DefaultSessionType
	} else if form.SessionType == nil {
		return nil, fmt.Errorf("%w: session_type is required", domain.ErrValidation)
	}
	if err := s.applyForm(ctx, session, form); err != nil {
		return nil, err
	}
	if _, err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("put session: %w", err)
	}
	s.enqueueFeatured(ctx, session)
	return session, nil
}

func (s *sessionService) GetSession(ctx context.Context, key *domain.Key) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return getSession(ctx, s.store, key)
}

// UpdateSession changes the provided fields. A changed speaker triggers a recompute for the
// new speaker.
func (s *sessionService) UpdateSession(ctx context.Context, key *domain.Key, form *domain.SessionForm, caller domain.Identity) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, err := getSession(ctx, s.store, key)
	if err != nil {
		return nil, err
	}
	conf, err := getConference(ctx, s.store, session.ConferenceKey())
	if err != nil {
		return nil, err
	}
	if conf.OrganizerUserID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	if form == nil {
		return session, nil
	}
	if form.Name != nil && strings.TrimSpace(*form.Name) == "" {
		return nil, fmt.Errorf("%w: session name must not be empty", domain.ErrValidation)
	}
	previousSpeaker := session.SpeakerID
	if err := s.applyForm(ctx, session, form); err != nil {
		return nil, err
	}
	if _, err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("put session: %w", err)
	}
	if session.SpeakerID != previousSpeaker {
		s.enqueueFeatured(ctx, session)
	}
	return session, nil
}

func (s *sessionService) GetConferenceSessions(ctx context.Context, conferenceKey *domain.Key) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.children(ctx, conferenceKey, nil)
}

func (s *sessionService) GetConferenceSessionsByType(ctx context.Context, conferenceKey *domain.Key, sessionType string) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.children(ctx, conferenceKey, []domain.Filter{{Field: "sessionType", Op: domain.OpEQ, Value: sessionType}})
}

// GetSessionsBySpeaker spans all conferences, so it only sees sessions the store has made
// visible outside their conference. An unknown speaker yields no sessions, not an error.
func (s *sessionService) GetSessionsBySpeaker(ctx context.Context, speakerID int64) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	found, err := s.store.QueryByAttribute(ctx, domain.KindSession,
		[]domain.Filter{{Field: "speakerId", Op: domain.OpEQ, Value: speakerID}})
	if err != nil {
		return nil, fmt.Errorf("query sessions by speaker: %w", err)
	}
	return toSessions(found), nil
}

// QuerySessionLength filters a conference's sessions by duration in minutes. Sessions without
// a duration never match.
func (s *sessionService) QuerySessionLength(ctx context.Context, conferenceKey *domain.Key, op domain.Operator, minutes int) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if minutes < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", domain.ErrValidation)
	}
	req, err := s.conferenceRequest(ctx, conferenceKey, "durationMinutes", op, minutes)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, req)
}

// QuerySessionTime returns sessions starting relative to hour (0-24) whose type is not in
// excludedTypes, ordered by start time.
func (s *sessionService) QuerySessionTime(ctx context.Context, conferenceKey *domain.Key, excludedTypes []string, op domain.Operator, hour int) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if hour < 0 || hour > 24 {
		return nil, fmt.Errorf("%w: hour must be between 0 and 24", domain.ErrValidation)
	}
	req, err := s.conferenceRequest(ctx, conferenceKey, "startTime", op, hour*60)
	if err != nil {
		return nil, err
	}
	if len(excludedTypes) > 0 {
		req.Exclude = &query.Exclusion{Field: "sessionType", Values: toAny(excludedTypes)}
		if len(s.sessionTypes) > 0 {
			req.Universe = toAny(s.sessionTypes)
		}
	}
	return s.run(ctx, req)
}

// conferenceRequest builds an ancestor request with one comparison on field.
func (s *sessionService) conferenceRequest(ctx context.Context, conferenceKey *domain.Key, field string, op domain.Operator, value int) (query.Request, error) {
	conf, err := getConference(ctx, s.store, conferenceKey)
	if err != nil {
		return query.Request{}, err
	}
	req := query.Request{Kind: domain.KindSession, Ancestor: conf.Key}
	f := domain.Filter{Field: field, Op: op, Value: value}
	switch {
	case op == domain.OpEQ:
		req.Equal = []domain.Filter{f}
		req.Order = []domain.Order{{Field: field}}
	case op.IsRange():
		req.Range = []domain.Filter{f}
	default:
		return query.Request{}, fmt.Errorf("%w: operator %q not supported here", domain.ErrValidation, op)
	}
	return req, nil
}

func (s *sessionService) run(ctx context.Context, req query.Request) ([]*domain.Session, error) {
	found, err := s.planner.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return toSessions(found), nil
}

func (s *sessionService) children(ctx context.Context, conferenceKey *domain.Key, filters []domain.Filter) ([]*domain.Session, error) {
	conf, err := getConference(ctx, s.store, conferenceKey)
	if err != nil {
		return nil, err
	}
	found, err := s.store.QueryChildren(ctx, conf.Key, domain.KindSession, filters)
	if err != nil {
		return nil, fmt.Errorf("query conference sessions: %w", err)
	}
	return toSessions(found), nil
}

func (s *sessionService) applyForm(ctx context.Context, session *domain.Session, form *domain.SessionForm) error {
	if form.DurationMinutes != nil {
		if *form.DurationMinutes < 0 {
			return fmt.Errorf("%w: duration_minutes must not be negative", domain.ErrValidation)
		}
		d := *form.DurationMinutes
		session.DurationMinutes = &d
	}
	if form.Date != nil {
		d, err := parseDate("date", *form.Date)
		if err != nil {
			return err
		}
		session.Date = d
	}
	if form.StartTime != nil {
		m, err := parseClock("start_time", *form.StartTime)
		if err != nil {
			return err
		}
		session.StartTime = m
	}
	if form.SessionType != nil {
		t := strings.TrimSpace(*form.SessionType)
		switch {
		case len(s.sessionTypes) > 0 && !slices.Contains(s.sessionTypes, t):
			return fmt.Errorf("%w: session_type must be one of %s", domain.ErrValidation, strings.Join(s.sessionTypes, ", "))
		case t == "":
			return fmt.Errorf("%w: session_type must not be empty", domain.ErrValidation)
		}
		session.SessionType = t
	}
	if form.SpeakerID != nil && *form.SpeakerID != session.SpeakerID {
		if *form.SpeakerID != 0 {
			if _, err := getSpeaker(ctx, s.store, *form.SpeakerID); err != nil {
				return err
			}
		}
		session.SpeakerID = *form.SpeakerID
	}
	if form.Name != nil {
		session.Name = strings.TrimSpace(*form.Name)
	}
	if form.Highlights != nil {
		session.Highlights = *form.Highlights
	}
	return nil
}

func (s *sessionService) enqueueFeatured(ctx context.Context, session *domain.Session) {
	if session.SpeakerID == 0 {
		return
	}
	enqueue(ctx, s.queue, s.logger, domain.JobFeaturedSpeaker, domain.FeaturedSpeakerJob{
		ConferenceKey: session.ConferenceKey().String(),
		SpeakerID:     session.SpeakerID,
	})
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
