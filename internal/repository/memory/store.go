// Package memory provides an in-process domain.EntityStore with the same filter semantics as
// the PostgreSQL store. Every read observes every completed write.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"conferencecentral/internal/domain"
)

// Store is a mutex-guarded entity store. Entities are cloned on the way in and out.
type Store struct {
	mu       sync.RWMutex
	entities map[domain.Kind]map[string]domain.Entity
	seq      map[domain.Kind]int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entities: make(map[domain.Kind]map[string]domain.Entity),
		seq:      make(map[domain.Kind]int64),
	}
}

var _ domain.EntityStore = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key *domain.Key) (domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == nil || key.Incomplete() {
		return nil, fmt.Errorf("%w: incomplete key", domain.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[key.Kind][key.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return e.Clone(), nil
}

func (s *Store) Put(ctx context.Context, e domain.Entity) (*domain.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := e.EntityKey()
	if key == nil {
		key = domain.IncompleteKey(e.Kind(), nil)
	}
	if key.Kind != e.Kind() {
		return nil, fmt.Errorf("put %s: key kind %s", e.Kind(), key.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if key.Incomplete() {
		s.seq[key.Kind]++
		key = domain.NewIDKey(key.Kind, s.seq[key.Kind], key.Parent)
	} else if key.ID > s.seq[key.Kind] {
		s.seq[key.Kind] = key.ID
	}
	stored := e.Clone()
	stored.SetEntityKey(key)
	if s.entities[key.Kind] == nil {
		s.entities[key.Kind] = make(map[string]domain.Entity)
	}
	s.entities[key.Kind][key.String()] = stored
	e.SetEntityKey(key)
	return key, nil
}

func (s *Store) QueryChildren(ctx context.Context, parent *domain.Key, kind domain.Kind, filters []domain.Filter, order ...domain.Order) ([]domain.Entity, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: nil parent", domain.ErrValidation)
	}
	return s.query(ctx, kind, filters, order, func(k *domain.Key) bool {
		return k.Parent.Equal(parent)
	})
}

func (s *Store) QueryByAttribute(ctx context.Context, kind domain.Kind, filters []domain.Filter, order ...domain.Order) ([]domain.Entity, error) {
	return s.query(ctx, kind, filters, order, func(*domain.Key) bool { return true })
}

func (s *Store) query(ctx context.Context, kind domain.Kind, filters []domain.Filter, order []domain.Order, inScope func(*domain.Key) bool) ([]domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.ValidateFilters(kind, filters, order); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []domain.Entity
	for _, e := range s.entities[kind] {
		if inScope(e.EntityKey()) && domain.MatchesAll(e, filters) {
			out = append(out, e.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Entity) int {
		for _, o := range order {
			if c := compareProperty(a, b, o.Field, o.Desc); c != 0 {
				return c
			}
		}
		return compareKeys(a.EntityKey(), b.EntityKey())
	})
	return out, nil
}

// compareProperty sorts absent values last ascending and first descending, like PostgreSQL.
func compareProperty(a, b domain.Entity, field string, desc bool) int {
	av, _ := a.Property(field)
	bv, _ := b.Property(field)
	var c int
	switch {
	case av == nil && bv == nil:
		c = 0
	case av == nil:
		c = 1
	case bv == nil:
		c = -1
	default:
		c, _ = domain.CompareValues(av, bv)
	}
	if desc {
		return -c
	}
	return c
}

func compareKeys(a, b *domain.Key) int {
	switch {
	case a.ID != b.ID:
		if a.ID < b.ID {
			return -1
		}
		return 1
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	}
	return 0
}
