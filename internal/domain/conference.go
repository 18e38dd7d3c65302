package domain

import (
	"context"
	"slices"
	"time"
)

// Defaults applied to conferences created without the corresponding field.
const (
	DefaultConferenceCity = "Default City"
)

// DefaultConferenceTopics is applied when a conference is created without topics.
var DefaultConferenceTopics = []string{"Default", "Topic"}

// Conference is a root entity owned by the user who created it.
// swagger:model Conference
type Conference struct {
	Key             *Key       `json:"-"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	OrganizerUserID string     `json:"organizer_user_id"`
	Topics          []string   `json:"topics"`
	City            string     `json:"city"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Month           int        `json:"month"`
	MaxAttendees    int        `json:"max_attendees"`
	SeatsAvailable  int        `json:"seats_available"`
}

func (c *Conference) Kind() Kind          { return KindConference }
func (c *Conference) EntityKey() *Key     { return c.Key }
func (c *Conference) SetEntityKey(k *Key) { c.Key = k }

func (c *Conference) Property(field string) (any, bool) {
	switch field {
	case "name":
		return c.Name, true
	case "organizerUserId":
		return c.OrganizerUserID, true
	case "topics":
		return c.Topics, true
	case "city":
		return c.City, true
	case "startDate":
		return timeOrNil(c.StartDate), true
	case "endDate":
		return timeOrNil(c.EndDate), true
	case "month":
		return int64(c.Month), true
	case "maxAttendees":
		return int64(c.MaxAttendees), true
	case "seatsAvailable":
		return int64(c.SeatsAvailable), true
	}
	return nil, false
}

func (c *Conference) Clone() Entity {
	out := *c
	out.Topics = slices.Clone(c.Topics)
	out.StartDate = cloneTime(c.StartDate)
	out.EndDate = cloneTime(c.EndDate)
	return &out
}

// ConferenceForm carries the user-editable conference fields. Nil fields are left unchanged
// on update. Dates use the "2006-01-02" layout.
type ConferenceForm struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Topics         []string `json:"topics"`
	City           *string  `json:"city"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	MaxAttendees   *int     `json:"max_attendees"`
	SeatsAvailable *int     `json:"seats_available"`
}

// ConferenceQueryFilter is a user-facing filter triple such as {"CITY", "EQ", "London"}.
type ConferenceQueryFilter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ConferenceService defines conference management and discovery.
type ConferenceService interface {
	CreateConference(ctx context.Context, form *ConferenceForm, caller Identity) (*Conference, error)
	GetConference(ctx context.Context, key *Key) (*Conference, error)
	UpdateConference(ctx context.Context, key *Key, form *ConferenceForm, caller Identity) (*Conference, error)
	ListConferencesCreated(ctx context.Context, caller Identity) ([]*Conference, error)
	QueryConferences(ctx context.Context, filters []ConferenceQueryFilter) ([]*Conference, error)
	QuerySimilarConferences(ctx context.Context, key *Key, filter ConferenceQueryFilter) ([]*Conference, error)
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
