package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"conferencecentral/internal/domain"
)

type profileService struct {
	store          domain.EntityStore
	contextTimeout time.Duration
}

// NewProfileService returns a ProfileService handling profiles and conference registration.
func NewProfileService(store domain.EntityStore, timeout time.Duration) domain.ProfileService {
	return &profileService{store: store, contextTimeout: timeout}
}

func (s *profileService) GetProfile(ctx context.Context, caller domain.Identity) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, created, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	if created {
		if err := putProfile(ctx, s.store, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *profileService) SaveProfile(ctx context.Context, caller domain.Identity, form *domain.ProfileForm) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, _, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	if form != nil {
		if form.DisplayName != nil {
			name := strings.TrimSpace(*form.DisplayName)
			if name == "" {
				return nil, fmt.Errorf("%w: display_name must not be empty", domain.ErrValidation)
			}
			p.DisplayName = name
		}
		if form.TeeShirtSize != nil {
			size := strings.ToUpper(strings.TrimSpace(*form.TeeShirtSize))
			if !slices.Contains(domain.TeeShirtSizes, size) {
				return nil, fmt.Errorf("%w: unknown tee_shirt_size %q", domain.ErrValidation, *form.TeeShirtSize)
			}
			p.TeeShirtSize = size
		}
	}
	if err := putProfile(ctx, s.store, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RegisterForConference takes a seat. The conference and profile writes are separate puts;
// the seat is taken first so a failed profile write can only under-count seats.
func (s *profileService) RegisterForConference(ctx context.Context, conferenceKey *domain.Key, caller domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, _, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return err
	}
	conf, err := getConference(ctx, s.store, conferenceKey)
	if err != nil {
		return err
	}
	if domain.ContainsKey(p.ConferenceKeysToAttend, conf.Key) {
		return domain.ErrAlreadyRegistered
	}
	if conf.SeatsAvailable <= 0 {
		return domain.ErrNoSeatsAvailable
	}
	conf.SeatsAvailable--
	if _, err := s.store.Put(ctx, conf); err != nil {
		return fmt.Errorf("put conference: %w", err)
	}
	p.ConferenceKeysToAttend = append(p.ConferenceKeysToAttend, conf.Key)
	return putProfile(ctx, s.store, p)
}

// UnregisterFromConference releases the caller's seat. It reports false when the caller was
// not registered.
func (s *profileService) UnregisterFromConference(ctx context.Context, conferenceKey *domain.Key, caller domain.Identity) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, _, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return false, err
	}
	conf, err := getConference(ctx, s.store, conferenceKey)
	if err != nil {
		return false, err
	}
	i := domain.IndexOfKey(p.ConferenceKeysToAttend, conf.Key)
	if i < 0 {
		return false, nil
	}
	p.ConferenceKeysToAttend = slices.Delete(p.ConferenceKeysToAttend, i, i+1)
	if err := putProfile(ctx, s.store, p); err != nil {
		return false, err
	}
	conf.SeatsAvailable++
	if _, err := s.store.Put(ctx, conf); err != nil {
		return false, fmt.Errorf("put conference: %w", err)
	}
	return true, nil
}

// ListConferencesToAttend resolves the caller's registrations, skipping keys that no longer
// resolve.
func (s *profileService) ListConferencesToAttend(ctx context.Context, caller domain.Identity) ([]*domain.Conference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, _, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Conference, 0, len(p.ConferenceKeysToAttend))
	for _, k := range p.ConferenceKeysToAttend {
		conf, err := getConference(ctx, s.store, k)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, conf)
	}
	return out, nil
}
