package services

import (
	"context"
	"errors"
	"slices"
	"time"

	"conferencecentral/internal/domain"
)

type wishlistService struct {
	store          domain.EntityStore
	contextTimeout time.Duration
}

// NewWishlistService returns a WishlistService. The wishlist is the ordered
// SessionKeysToAttend list on the caller's profile.
func NewWishlistService(store domain.EntityStore, timeout time.Duration) domain.WishlistService {
	return &wishlistService{store: store, contextTimeout: timeout}
}

// AddSessionToWishlist appends the session. The caller must be registered for the session's
// conference, and a session already on the wishlist yields ErrAlreadyWishlisted.
func (s *wishlistService) AddSessionToWishlist(ctx context.Context, sessionKey *domain.Key, caller domain.Identity) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, err := getSession(ctx, s.store, sessionKey)
	if err != nil {
		return nil, err
	}
	p, _, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	if !domain.ContainsKey(p.ConferenceKeysToAttend, session.ConferenceKey()) {
		return nil, domain.ErrNotRegistered
	}
	if domain.ContainsKey(p.SessionKeysToAttend, session.Key) {
		return nil, domain.ErrAlreadyWishlisted
	}
	p.SessionKeysToAttend = append(p.SessionKeysToAttend, session.Key)
	if err := putProfile(ctx, s.store, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveSessionFromWishlist removes the session if present. Removing an absent session, or
// one that no longer exists, is not an error.
func (s *wishlistService) RemoveSessionFromWishlist(ctx context.Context, sessionKey *domain.Key, caller domain.Identity) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, created, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	i := domain.IndexOfKey(p.SessionKeysToAttend, sessionKey)
	if i < 0 {
		if created {
			if err := putProfile(ctx, s.store, p); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
	p.SessionKeysToAttend = slices.Delete(p.SessionKeysToAttend, i, i+1)
	if err := putProfile(ctx, s.store, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListWishlistedSessions resolves the wishlist in order, dropping keys that no longer resolve.
func (s *wishlistService) ListWishlistedSessions(ctx context.Context, caller domain.Identity) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, _, err := loadProfile(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Session, 0, len(p.SessionKeysToAttend))
	for _, k := range p.SessionKeysToAttend {
		session, err := getSession(ctx, s.store, k)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}
