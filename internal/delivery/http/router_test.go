package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/adapters/auth"
	"conferencecentral/internal/adapters/cache"
	"conferencecentral/internal/adapters/email"
	"conferencecentral/internal/adapters/queue"
	"conferencecentral/internal/delivery/http/controllers"
	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
	"conferencecentral/internal/keys"
	"conferencecentral/internal/query"
	"conferencecentral/internal/repository/memory"
	"conferencecentral/internal/services"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type app struct {
	t             *testing.T
	server        *httptest.Server
	queue         *queue.Memory
	handlers      map[domain.JobType]domain.JobHandler
	announcements domain.AnnouncementService
	jwt           *auth.JWT
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := memory.NewStore()
	planner := query.NewPlanner(store)
	q := queue.NewMemory(0)
	badger, err := cache.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = badger.Close() })
	registry, err := keys.NewRegistry("test-key-secret")
	require.NoError(t, err)
	mailer, err := email.NewMailer(context.Background(), email.MailerConfig{Provider: "noop"}, testLogger)
	require.NoError(t, err)

	timeout := 5 * time.Second
	profiles := services.NewProfileService(store, timeout)
	featured := services.NewFeaturedSpeakerPipeline(store, badger, 0, testLogger)
	announcements := services.NewAnnouncementService(store, badger, testLogger)
	jwt := auth.NewJWT("test-jwt-secret")

	router := NewRouter(Controllers{
		Conferences: controllers.NewConferenceController(testLogger, services.NewConferenceService(store, planner, q, testLogger, timeout), profiles, registry),
		Sessions:    controllers.NewSessionController(testLogger, services.NewSessionService(store, planner, q, nil, testLogger, timeout), featured, registry),
		Speakers:    controllers.NewSpeakerController(testLogger, services.NewSpeakerService(store, timeout)),
		Profiles:    controllers.NewProfileController(testLogger, profiles, services.NewWishlistService(store, timeout), announcements, registry),
	}, jwt, nil, testLogger)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &app{
		t:      t,
		server: server,
		queue:  q,
		handlers: map[domain.JobType]domain.JobHandler{
			domain.JobFeaturedSpeaker:             featured,
			domain.JobConferenceConfirmationEmail: services.NewConfirmationEmailHandler(store, mailer, email.NewTemplateRenderer(), testLogger),
		},
		announcements: announcements,
		jwt:           jwt,
	}
}

func (a *app) token(userID string) string {
	a.t.Helper()
	token, err := a.jwt.Issue(domain.Identity{UserID: userID, Email: userID + "@example.com"}, time.Hour)
	require.NoError(a.t, err)
	return token
}

// do sends a request and returns the status and the envelope's data.
func (a *app) do(method, path, token string, body any) (int, json.RawMessage) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&envelope))
	if resp.StatusCode < 300 {
		require.Nil(a.t, envelope.Error)
	} else {
		require.NotNil(a.t, envelope.Error)
	}
	return resp.StatusCode, envelope.Data
}

// drain runs every queued job to completion.
func (a *app) drain() {
	a.t.Helper()
	ctx := context.Background()
	for {
		job, ok, err := a.queue.Claim(ctx)
		require.NoError(a.t, err)
		if !ok {
			return
		}
		require.NoError(a.t, a.handlers[job.Type].Handle(ctx, job))
		require.NoError(a.t, a.queue.Ack(ctx, job))
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type conferenceJSON struct {
	WebsafeKey     string `json:"websafe_key"`
	Name           string `json:"name"`
	City           string `json:"city"`
	Month          int    `json:"month"`
	StartDate      string `json:"start_date"`
	SeatsAvailable int    `json:"seats_available"`
}

type sessionJSON struct {
	WebsafeKey    string `json:"websafe_key"`
	ConferenceKey string `json:"conference_key"`
	Name          string `json:"name"`
	StartTime     string `json:"start_time"`
	SpeakerID     int64  `json:"speaker_id"`
}

func names(sessions []sessionJSON) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Name)
	}
	return out
}

func TestRouter_ConferenceLifecycle(t *testing.T) {
	a := newApp(t)
	organizer, attendee := a.token("u1"), a.token("u2")

	status, _ := a.do(http.MethodPost, "/conferences", "", map[string]any{"name": "GopherCon"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, raw := a.do(http.MethodPost, "/conferences", organizer, map[string]any{
		"name": "GopherCon", "city": "Denver", "max_attendees": 5, "start_date": "2026-08-01",
	})
	require.Equal(t, http.StatusCreated, status)
	conf := decode[conferenceJSON](t, raw)
	require.NotEmpty(t, conf.WebsafeKey)
	assert.Equal(t, 8, conf.Month)
	assert.Equal(t, "2026-08-01", conf.StartDate)
	assert.Equal(t, 5, conf.SeatsAvailable)
	confPath := "/conferences/" + conf.WebsafeKey

	status, raw = a.do(http.MethodPost, "/speakers", organizer, map[string]any{"display_name": "Rob"})
	require.Equal(t, http.StatusCreated, status)
	speakerID := decode[struct {
		ID int64 `json:"id"`
	}](t, raw).ID
	require.NotZero(t, speakerID)

	var sessions []sessionJSON
	for _, s := range []map[string]any{
		{"name": "Go Basics", "speaker_id": speakerID, "start_time": "10:00", "duration_minutes": 60},
		{"name": "Go Advanced", "speaker_id": speakerID, "start_time": "14:30", "duration_minutes": 90, "session_type": "Workshop"},
	} {
		status, raw = a.do(http.MethodPost, confPath+"/sessions", organizer, s)
		require.Equal(t, http.StatusCreated, status)
		sessions = append(sessions, decode[sessionJSON](t, raw))
	}
	assert.Equal(t, conf.WebsafeKey, sessions[0].ConferenceKey)
	assert.Equal(t, "14:30", sessions[1].StartTime)

	status, _ = a.do(http.MethodPost, confPath+"/sessions", attendee, map[string]any{"name": "Hijack"})
	require.Equal(t, http.StatusForbidden, status)

	status, raw = a.do(http.MethodGet, confPath+"/featured-speaker", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(raw))

	a.drain()
	status, raw = a.do(http.MethodGet, confPath+"/featured-speaker", "", nil)
	require.Equal(t, http.StatusOK, status)
	featured := decode[controllers.FeaturedSpeakerView](t, raw)
	assert.Equal(t, "Rob", featured.SpeakerName)
	assert.Equal(t, []string{"Go Basics", "Go Advanced"}, featured.SessionNames)

	status, raw = a.do(http.MethodGet, confPath+"/sessions", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Go Basics", "Go Advanced"}, names(decode[[]sessionJSON](t, raw)))

	status, raw = a.do(http.MethodGet, confPath+"/sessions/type/Workshop", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Go Advanced"}, names(decode[[]sessionJSON](t, raw)))

	status, raw = a.do(http.MethodPost, confPath+"/sessions/duration", "", map[string]any{"operator": "GT", "minutes": 60})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Go Advanced"}, names(decode[[]sessionJSON](t, raw)))

	status, raw = a.do(http.MethodPost, confPath+"/sessions/time", "", map[string]any{"excluded_types": []string{"Workshop"}, "operator": "LT", "hour": 19})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Go Basics"}, names(decode[[]sessionJSON](t, raw)))

	status, _ = a.do(http.MethodPost, confPath+"/sessions/duration", "", map[string]any{"operator": "ABOUT", "minutes": 60})
	require.Equal(t, http.StatusBadRequest, status)

	status, raw = a.do(http.MethodGet, fmt.Sprintf("/speakers/%d/sessions", speakerID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]sessionJSON](t, raw), 2)

	status, raw = a.do(http.MethodGet, "/speakers/search?name=Rob", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]controllers.SpeakerView](t, raw), 1)

	// Wishlist requires registration.
	wishPath := "/profile/wishlist/" + sessions[0].WebsafeKey
	status, _ = a.do(http.MethodPost, wishPath, attendee, nil)
	require.Equal(t, http.StatusConflict, status)

	status, _ = a.do(http.MethodPost, confPath+"/registration", attendee, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = a.do(http.MethodPost, confPath+"/registration", attendee, nil)
	require.Equal(t, http.StatusConflict, status)

	status, raw = a.do(http.MethodPost, wishPath, attendee, nil)
	require.Equal(t, http.StatusOK, status)
	profile := decode[controllers.ProfileView](t, raw)
	assert.Equal(t, []string{sessions[0].WebsafeKey}, profile.SessionKeysWishlist)
	assert.Equal(t, []string{conf.WebsafeKey}, profile.ConferenceKeysToAttend)

	status, _ = a.do(http.MethodPost, wishPath, attendee, nil)
	require.Equal(t, http.StatusConflict, status)

	status, raw = a.do(http.MethodGet, "/profile/wishlist", attendee, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Go Basics"}, names(decode[[]sessionJSON](t, raw)))

	status, raw = a.do(http.MethodDelete, wishPath, attendee, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[controllers.ProfileView](t, raw).SessionKeysWishlist)
	status, _ = a.do(http.MethodDelete, wishPath, attendee, nil)
	require.Equal(t, http.StatusOK, status, "removing an absent session is a no-op")

	status, raw = a.do(http.MethodGet, "/conferences/attending", attendee, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]conferenceJSON](t, raw), 1)

	status, raw = a.do(http.MethodPost, "/conferences/query", "", map[string]any{
		"filters": []map[string]string{{"field": "CITY", "operator": "EQ", "value": "Denver"}},
	})
	require.Equal(t, http.StatusOK, status)
	found := decode[[]conferenceJSON](t, raw)
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].SeatsAvailable)

	_, err := a.announcements.Refresh(context.Background())
	require.NoError(t, err)
	status, raw = a.do(http.MethodGet, "/announcement", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, decode[controllers.AnnouncementResponse](t, raw).Announcement, "GopherCon")

	status, raw = a.do(http.MethodDelete, confPath+"/registration", attendee, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[controllers.RegistrationResponse](t, raw).Changed)
}

func TestRouter_KeyErrors(t *testing.T) {
	a := newApp(t)
	organizer := a.token("u1")
	status, raw := a.do(http.MethodPost, "/conferences", organizer, map[string]any{"name": "GopherCon"})
	require.Equal(t, http.StatusCreated, status)
	conf := decode[conferenceJSON](t, raw)

	status, _ = a.do(http.MethodGet, "/conferences/not-a-key", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(http.MethodGet, "/sessions/"+conf.WebsafeKey, "", nil)
	assert.Equal(t, http.StatusNotFound, status, "a conference key is not a session key")

	status, _ = a.do(http.MethodPatch, "/conferences/"+conf.WebsafeKey, a.token("u2"), map[string]any{"city": "Paris"})
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = a.do(http.MethodPatch, "/conferences/"+conf.WebsafeKey, organizer, map[string]any{"city": "Paris"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Paris", decode[conferenceJSON](t, raw).City)
}
