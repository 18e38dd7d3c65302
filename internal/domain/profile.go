package domain

import (
	"context"
	"slices"
)

// TeeShirtSizes lists the accepted tee shirt sizes.
var TeeShirtSizes = []string{
	"NOT_SPECIFIED",
	"XS_M", "XS_W", "S_M", "S_W", "M_M", "M_W", "L_M", "L_W",
	"XL_M", "XL_W", "XXL_M", "XXL_W", "XXXL_M", "XXXL_W",
}

// Identity is the authenticated caller, supplied by the identity resolver.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// Profile holds per-user state. Its key name is the user identity. The wishlist is an
// ordered list attribute rather than a separate kind.
// swagger:model Profile
type Profile struct {
	Key                    *Key   `json:"-"`
	DisplayName            string `json:"display_name"`
	MainEmail              string `json:"main_email"`
	TeeShirtSize           string `json:"tee_shirt_size"`
	ConferenceKeysToAttend []*Key `json:"-"`
	SessionKeysToAttend    []*Key `json:"-"`
}

func (p *Profile) Kind() Kind          { return KindProfile }
func (p *Profile) EntityKey() *Key     { return p.Key }
func (p *Profile) SetEntityKey(k *Key) { p.Key = k }

func (p *Profile) Property(field string) (any, bool) {
	switch field {
	case "displayName":
		return p.DisplayName, true
	case "mainEmail":
		return p.MainEmail, true
	}
	return nil, false
}

func (p *Profile) Clone() Entity {
	out := *p
	out.ConferenceKeysToAttend = slices.Clone(p.ConferenceKeysToAttend)
	out.SessionKeysToAttend = slices.Clone(p.SessionKeysToAttend)
	return &out
}

// ProfileKey returns the key of the profile owned by userID.
func ProfileKey(userID string) *Key {
	return NewNameKey(KindProfile, userID, nil)
}

// NewProfile returns the profile created on a user's first interaction.
func NewProfile(caller Identity) *Profile {
	name := caller.DisplayName
	if name == "" {
		name = caller.Email
	}
	return &Profile{
		Key:          ProfileKey(caller.UserID),
		DisplayName:  name,
		MainEmail:    caller.Email,
		TeeShirtSize: "NOT_SPECIFIED",
	}
}

// ProfileForm carries the user-editable profile fields.
type ProfileForm struct {
	DisplayName  *string `json:"display_name"`
	TeeShirtSize *string `json:"tee_shirt_size"`
}

// ProfileService defines profile access and conference registration.
type ProfileService interface {
	GetProfile(ctx context.Context, caller Identity) (*Profile, error)
	SaveProfile(ctx context.Context, caller Identity, form *ProfileForm) (*Profile, error)
	RegisterForConference(ctx context.Context, conferenceKey *Key, caller Identity) error
	UnregisterFromConference(ctx context.Context, conferenceKey *Key, caller Identity) (bool, error)
	ListConferencesToAttend(ctx context.Context, caller Identity) ([]*Conference, error)
}

// WishlistService maintains the per-user ordered set of wishlisted sessions.
type WishlistService interface {
	AddSessionToWishlist(ctx context.Context, sessionKey *Key, caller Identity) (*Profile, error)
	RemoveSessionFromWishlist(ctx context.Context, sessionKey *Key, caller Identity) (*Profile, error)
	ListWishlistedSessions(ctx context.Context, caller Identity) ([]*Session, error)
}
