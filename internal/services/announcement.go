package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"conferencecentral/internal/domain"
)

const (
	announcementCacheKey = "announcement"
	nearlySoldOutSeats   = 5
)

type announcementService struct {
	store  domain.EntityStore
	cache  domain.Cache
	logger *slog.Logger
}

// NewAnnouncementService returns the service that publishes nearly sold out conferences.
func NewAnnouncementService(store domain.EntityStore, cache domain.Cache, logger *slog.Logger) domain.AnnouncementService {
	return &announcementService{store: store, cache: cache, logger: logger}
}

// Refresh recomputes the announcement and caches it. The cache has no delete, so an empty
// announcement is stored when nothing qualifies.
func (s *announcementService) Refresh(ctx context.Context) (string, error) {
	found, err := s.store.QueryByAttribute(ctx, domain.KindConference, []domain.Filter{
		{Field: "seatsAvailable", Op: domain.OpGT, Value: 0},
		{Field: "seatsAvailable", Op: domain.OpLTE, Value: nearlySoldOutSeats},
	}, domain.Order{Field: "seatsAvailable"}, domain.Order{Field: "name"})
	if err != nil {
		return "", fmt.Errorf("query nearly sold out conferences: %w", err)
	}
	announcement := ""
	if len(found) > 0 {
		names := make([]string, 0, len(found))
		for _, c := range toConferences(found) {
			names = append(names, c.Name)
		}
		announcement = "Last chance to attend! The following conferences are nearly sold out: " + strings.Join(names, ", ")
	}
	if err := s.cache.Set(ctx, announcementCacheKey, []byte(announcement)); err != nil {
		return "", fmt.Errorf("cache announcement: %w", err)
	}
	s.logger.DebugContext(ctx, "announcement refreshed", "conferences", len(found))
	return announcement, nil
}

// GetAnnouncement reads the cache only; a miss is the empty announcement.
func (s *announcementService) GetAnnouncement(ctx context.Context) (string, error) {
	raw, ok, err := s.cache.Get(ctx, announcementCacheKey)
	if err != nil {
		return "", fmt.Errorf("read announcement: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(raw), nil
}
