package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/delivery/http/middleware"
	"conferencecentral/internal/domain"
)

// KeyCodec turns keys into the opaque tokens clients see, and back.
type KeyCodec interface {
	Encode(k *domain.Key) (string, error)
	Decode(token string, expect domain.Kind) (*domain.Key, error)
}

const dateLayout = "2006-01-02"

// ConferenceView is a conference as returned by the API.
// swagger:model ConferenceView
type ConferenceView struct {
	WebsafeKey string `json:"websafe_key"`
	*domain.Conference
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// SessionView is a session as returned by the API. StartTime uses "15:04".
// swagger:model SessionView
type SessionView struct {
	WebsafeKey    string `json:"websafe_key"`
	ConferenceKey string `json:"conference_key"`
	*domain.Session
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
}

// SpeakerView is a speaker as returned by the API.
// swagger:model SpeakerView
type SpeakerView struct {
	ID int64 `json:"id"`
	*domain.Speaker
}

// ProfileView is the caller's profile with its key lists as tokens.
// swagger:model ProfileView
type ProfileView struct {
	*domain.Profile
	ConferenceKeysToAttend []string `json:"conference_keys_to_attend"`
	SessionKeysWishlist    []string `json:"session_keys_wishlist"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func conferenceView(keys KeyCodec, c *domain.Conference) (ConferenceView, error) {
	token, err := keys.Encode(c.Key)
	if err != nil {
		return ConferenceView{}, fmt.Errorf("encode conference key: %w", err)
	}
	return ConferenceView{
		WebsafeKey: token,
		Conference: c,
		StartDate:  formatDate(c.StartDate),
		EndDate:    formatDate(c.EndDate),
	}, nil
}

func conferenceViews(keys KeyCodec, confs []*domain.Conference) ([]ConferenceView, error) {
	out := make([]ConferenceView, 0, len(confs))
	for _, c := range confs {
		v, err := conferenceView(keys, c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func sessionView(keys KeyCodec, s *domain.Session) (SessionView, error) {
	token, err := keys.Encode(s.Key)
	if err != nil {
		return SessionView{}, fmt.Errorf("encode session key: %w", err)
	}
	confToken, err := keys.Encode(s.ConferenceKey())
	if err != nil {
		return SessionView{}, fmt.Errorf("encode conference key: %w", err)
	}
	v := SessionView{WebsafeKey: token, ConferenceKey: confToken, Session: s, Date: formatDate(s.Date)}
	if s.StartTime != nil {
		v.StartTime = fmt.Sprintf("%02d:%02d", *s.StartTime/60, *s.StartTime%60)
	}
	return v, nil
}

func sessionViews(keys KeyCodec, sessions []*domain.Session) ([]SessionView, error) {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		v, err := sessionView(keys, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func speakerViews(speakers []*domain.Speaker) []SpeakerView {
	out := make([]SpeakerView, 0, len(speakers))
	for _, sp := range speakers {
		out = append(out, SpeakerView{ID: sp.ID(), Speaker: sp})
	}
	return out
}

func profileView(keys KeyCodec, p *domain.Profile) (ProfileView, error) {
	v := ProfileView{
		Profile:                p,
		ConferenceKeysToAttend: make([]string, 0, len(p.ConferenceKeysToAttend)),
		SessionKeysWishlist:    make([]string, 0, len(p.SessionKeysToAttend)),
	}
	for _, k := range p.ConferenceKeysToAttend {
		token, err := keys.Encode(k)
		if err != nil {
			return ProfileView{}, fmt.Errorf("encode conference key: %w", err)
		}
		v.ConferenceKeysToAttend = append(v.ConferenceKeysToAttend, token)
	}
	for _, k := range p.SessionKeysToAttend {
		token, err := keys.Encode(k)
		if err != nil {
			return ProfileView{}, fmt.Errorf("encode session key: %w", err)
		}
		v.SessionKeysWishlist = append(v.SessionKeysWishlist, token)
	}
	return v, nil
}

// pathKey decodes the token in path parameter name. It writes the error response and
// returns false when the token is invalid.
func pathKey(w http.ResponseWriter, r *http.Request, logger *slog.Logger, keys KeyCodec, name string, kind domain.Kind) (*domain.Key, bool) {
	token := r.PathValue(name)
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return nil, false
	}
	k, err := keys.Decode(token, kind)
	if err != nil {
		helpers.WriteServiceError(w, r, logger, err)
		return nil, false
	}
	return k, true
}

// requireCaller returns the authenticated caller or writes 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return caller, ok
}
