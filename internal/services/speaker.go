package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conferencecentral/internal/domain"
)

type speakerService struct {
	store          domain.EntityStore
	contextTimeout time.Duration
}

// NewSpeakerService returns a SpeakerService.
func NewSpeakerService(store domain.EntityStore, timeout time.Duration) domain.SpeakerService {
	return &speakerService{store: store, contextTimeout: timeout}
}

// CreateSpeaker stores a speaker under a store-assigned id. Names need not be unique.
func (s *speakerService) CreateSpeaker(ctx context.Context, displayName, mainEmail string) (*domain.Speaker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display_name is required", domain.ErrValidation)
	}
	sp := &domain.Speaker{
		Key:         domain.IncompleteKey(domain.KindSpeaker, nil),
		DisplayName: displayName,
		MainEmail:   strings.TrimSpace(mainEmail),
	}
	if _, err := s.store.Put(ctx, sp); err != nil {
		return nil, fmt.Errorf("put speaker: %w", err)
	}
	return sp, nil
}

func (s *speakerService) GetSpeaker(ctx context.Context, id int64) (*domain.Speaker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return getSpeaker(ctx, s.store, id)
}

func (s *speakerService) GetSpeakersByName(ctx context.Context, displayName string) ([]*domain.Speaker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.list(ctx, []domain.Filter{{Field: "displayName", Op: domain.OpEQ, Value: displayName}})
}

func (s *speakerService) ListSpeakers(ctx context.Context) ([]*domain.Speaker, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.list(ctx, nil)
}

func (s *speakerService) list(ctx context.Context, filters []domain.Filter) ([]*domain.Speaker, error) {
	found, err := s.store.QueryByAttribute(ctx, domain.KindSpeaker, filters)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	out := make([]*domain.Speaker, 0, len(found))
	for _, e := range found {
		out = append(out, e.(*domain.Speaker))
	}
	return out, nil
}
