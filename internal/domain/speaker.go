package domain

import "context"

// Speaker is a root entity with a store-assigned identity. Sessions reference it by ID.
// swagger:model Speaker
type Speaker struct {
	Key         *Key   `json:"-"`
	DisplayName string `json:"display_name"`
	MainEmail   string `json:"main_email"`
}

func (s *Speaker) Kind() Kind          { return KindSpeaker }
func (s *Speaker) EntityKey() *Key     { return s.Key }
func (s *Speaker) SetEntityKey(k *Key) { s.Key = k }

func (s *Speaker) Property(field string) (any, bool) {
	switch field {
	case "displayName":
		return s.DisplayName, true
	case "mainEmail":
		return s.MainEmail, true
	}
	return nil, false
}

func (s *Speaker) Clone() Entity {
	out := *s
	return &out
}

// ID returns the speaker's native identity, 0 before the first Put.
func (s *Speaker) ID() int64 {
	if s.Key == nil {
		return 0
	}
	return s.Key.ID
}

// SpeakerKey returns the key of the speaker with the given id.
func SpeakerKey(id int64) *Key {
	return NewIDKey(KindSpeaker, id, nil)
}

// SpeakerService defines speaker management.
type SpeakerService interface {
	CreateSpeaker(ctx context.Context, displayName, mainEmail string) (*Speaker, error)
	GetSpeaker(ctx context.Context, id int64) (*Speaker, error)
	GetSpeakersByName(ctx context.Context, displayName string) ([]*Speaker, error)
	ListSpeakers(ctx context.Context) ([]*Speaker, error)
}
