package domain

import (
	"context"
	"time"
)

// Defaults applied to sessions created without the corresponding field.
const (
	DefaultSessionType       = "Default Type"
	DefaultSessionHighlights = "Default Highlight"
)

// Session is a talk. Its key is always a direct child of its conference's key.
// swagger:model Session
type Session struct {
	Key             *Key       `json:"-"`
	Name            string     `json:"name"`
	SessionType     string     `json:"session_type"`
	SpeakerID       int64      `json:"speaker_id"`
	Highlights      string     `json:"highlights"`
	Date            *time.Time `json:"date,omitempty"`
	StartTime       *int       `json:"start_time,omitempty"` // minutes since midnight
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

func (s *Session) Kind() Kind          { return KindSession }
func (s *Session) EntityKey() *Key     { return s.Key }
func (s *Session) SetEntityKey(k *Key) { s.Key = k }

func (s *Session) Property(field string) (any, bool) {
	switch field {
	case "name":
		return s.Name, true
	case "sessionType":
		return s.SessionType, true
	case "speakerId":
		return s.SpeakerID, true
	case "date":
		return timeOrNil(s.Date), true
	case "startTime":
		if s.StartTime == nil {
			return nil, true
		}
		return int64(*s.StartTime), true
	case "durationMinutes":
		if s.DurationMinutes == nil {
			return nil, true
		}
		return int64(*s.DurationMinutes), true
	}
	return nil, false
}

func (s *Session) Clone() Entity {
	out := *s
	out.Date = cloneTime(s.Date)
	out.StartTime = cloneInt(s.StartTime)
	out.DurationMinutes = cloneInt(s.DurationMinutes)
	return &out
}

// ConferenceKey returns the parent conference key.
func (s *Session) ConferenceKey() *Key {
	if s.Key == nil {
		return nil
	}
	return s.Key.Parent
}

// SessionForm carries the user-editable session fields. Nil fields are left unchanged on
// update. Date uses "2006-01-02", StartTime uses "15:04".
type SessionForm struct {
	Name            *string `json:"name"`
	SessionType     *string `json:"session_type"`
	SpeakerID       *int64  `json:"speaker_id"`
	Highlights      *string `json:"highlights"`
	Date            *string `json:"date"`
	StartTime       *string `json:"start_time"`
	DurationMinutes *int    `json:"duration_minutes"`
}

// SessionService defines session management and the session filters.
type SessionService interface {
	CreateSession(ctx context.Context, form *SessionForm, conferenceKey *Key, caller Identity) (*Session, error)
	GetSession(ctx context.Context, key *Key) (*Session, error)
	UpdateSession(ctx context.Context, key *Key, form *SessionForm, caller Identity) (*Session, error)
	GetConferenceSessions(ctx context.Context, conferenceKey *Key) ([]*Session, error)
	GetConferenceSessionsByType(ctx context.Context, conferenceKey *Key, sessionType string) ([]*Session, error)
	GetSessionsBySpeaker(ctx context.Context, speakerID int64) ([]*Session, error)
	QuerySessionLength(ctx context.Context, conferenceKey *Key, op Operator, minutes int) ([]*Session, error)
	QuerySessionTime(ctx context.Context, conferenceKey *Key, excludedTypes []string, op Operator, hour int) ([]*Session, error)
}
