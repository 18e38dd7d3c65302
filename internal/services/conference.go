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

type conferenceService struct {
	store          domain.EntityStore
	planner        *query.Planner
	queue          domain.JobQueue
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewConferenceService returns a ConferenceService. Creating a conference enqueues a
// confirmation email for the organizer.
func NewConferenceService(store domain.EntityStore, planner *query.Planner, queue domain.JobQueue, logger *slog.Logger, timeout time.Duration) domain.ConferenceService {
	return &conferenceService{
		store:          store,
		planner:        planner,
		queue:          queue,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *conferenceService) CreateConference(ctx context.Context, form *domain.ConferenceForm, caller domain.Identity) (*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if form == nil || form.Name == nil || strings.TrimSpace(*form.Name) == "" {
		return nil, fmt.Errorf("%w: conference name is required", domain.ErrValidation)
	}
	profile, created, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	if created {
		if err := putProfile(ctx, s.store, profile); err != nil {
			return nil, err
		}
	}

	conf := &domain.Conference{
		Key:             domain.IncompleteKey(domain.KindConference, nil),
		OrganizerUserID: caller.UserID,
		City:            domain.DefaultConferenceCity,
		Topics:          slices.Clone(domain.DefaultConferenceTopics),
	}
	if err := applyConferenceForm(conf, form); err != nil {
		return nil, err
	}
	if form.SeatsAvailable == nil {
		conf.SeatsAvailable = conf.MaxAttendees
	}
	if _, err := s.store.Put(ctx, conf); err != nil {
		return nil, fmt.Errorf("put conference: %w", err)
	}

	if caller.Email != "" {
		enqueue(ctx, s.queue, s.logger, domain.JobConferenceConfirmationEmail, domain.ConferenceConfirmationEmailJob{
			ConferenceKey: conf.Key.String(),
			Email:         caller.Email,
			DisplayName:   profile.DisplayName,
		})
	}
	return conf, nil
}

func (s *conferenceService) GetConference(ctx context.Context, key *domain.Key) (*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return getConference(ctx, s.store, key)
}

func (s *conferenceService) UpdateConference(ctx context.Context, key *domain.Key, form *domain.ConferenceForm, caller domain.Identity) (*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, key)
	if err != nil {
		return nil, err
	}
	if conf.OrganizerUserID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	if form == nil {
		return conf, nil
	}
	if form.Name != nil && strings.TrimSpace(*form.Name) == "" {
		return nil, fmt.Errorf("%w: conference name is required", domain.ErrValidation)
	}
	if err := applyConferenceForm(conf, form); err != nil {
		return nil, err
	}
	if _, err := s.store.Put(ctx, conf); err != nil {
		return nil, fmt.Errorf("put conference: %w", err)
	}
	return conf, nil
}

func (s *conferenceService) ListConferencesCreated(ctx context.Context, caller domain.Identity) ([]*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	found, err := s.store.QueryByAttribute(ctx, domain.KindConference,
		[]domain.Filter{{Field: "organizerUserId", Op: domain.OpEQ, Value: caller.UserID}})
	if err != nil {
		return nil, fmt.Errorf("list conferences: %w", err)
	}
	return toConferences(found), nil
}

func (s *conferenceService) QueryConferences(ctx context.Context, filters []domain.ConferenceQueryFilter) ([]*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := query.ParseConferenceFilters(filters)
	if err != nil {
		return nil, err
	}
	found, err := s.planner.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query conferences: %w", err)
	}
	return toConferences(found), nil
}

func (s *conferenceService) QuerySimilarConferences(ctx context.Context, key *domain.Key, filter domain.ConferenceQueryFilter) ([]*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ref, err := getConference(ctx, s.store, key)
	if err != nil {
		return nil, err
	}
	return s.planner.SimilarTo(ctx, ref, filter)
}

// applyConferenceForm copies the provided fields. Month follows the start date.
func applyConferenceForm(c *domain.Conference, form *domain.ConferenceForm) error {
	if form.StartDate != nil {
		d, err := parseDate("start_date", *form.StartDate)
		if err != nil {
			return err
		}
		c.StartDate = d
	}
	if form.EndDate != nil {
		d, err := parseDate("end_date", *form.EndDate)
		if err != nil {
			return err
		}
		c.EndDate = d
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("%w: end_date before start_date", domain.ErrValidation)
	}
	if form.MaxAttendees != nil {
		if *form.MaxAttendees < 0 {
			return fmt.Errorf("%w: max_attendees must not be negative", domain.ErrValidation)
		}
		c.MaxAttendees = *form.MaxAttendees
	}
	if form.SeatsAvailable != nil {
		if *form.SeatsAvailable < 0 {
			return fmt.Errorf("%w: seats_available must not be negative", domain.ErrValidation)
		}
		c.SeatsAvailable = *form.SeatsAvailable
	}
	if form.Name != nil {
		c.Name = strings.TrimSpace(*form.Name)
	}
	if form.Description != nil {
		c.Description = *form.Description
	}
	if form.City != nil && strings.TrimSpace(*form.City) != "" {
		c.City = strings.TrimSpace(*form.City)
	}
	if len(form.Topics) > 0 {
		c.Topics = slices.Clone(form.Topics)
	}
	c.Month = 0
	if c.StartDate != nil {
		c.Month = int(c.StartDate.Month())
	}
	return nil
}
