package domain

import "context"

// EntityStore is the only component that talks to the underlying document store.
//
// Filters follow ValidateFilters: at most one field may carry range operators, EQ and IN are
// unrestricted. Results default to creation order (key ID ascending); explicit orders sort
// first. Reads scoped to one parent observe every write that completed before the read began.
type EntityStore interface {
	// Get returns ErrNotFound when the key resolves to nothing.
	Get(ctx context.Context, key *Key) (Entity, error)
	// Put stores the entity, assigning an ID when its key is incomplete, and returns the key.
	Put(ctx context.Context, e Entity) (*Key, error)
	// QueryChildren returns entities of kind whose key is a direct child of parent.
	QueryChildren(ctx context.Context, parent *Key, kind Kind, filters []Filter, order ...Order) ([]Entity, error)
	// QueryByAttribute returns entities of kind across all parents.
	QueryByAttribute(ctx context.Context, kind Kind, filters []Filter, order ...Order) ([]Entity, error)
}

// Cache is a key-value service with plain set/get and no TTL.
type Cache interface {
	Set(ctx context.Context, key string, value []byte) error
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
}
