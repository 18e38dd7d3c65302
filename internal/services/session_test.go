package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
)

func TestSessionService_CreateSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")
	speaker := f.speaker(t, "Rob")

	form := domain.SessionForm{
		Name:            strPtr("Intro to Go"),
		SessionType:     strPtr("lecture"),
		SpeakerID:       int64Ptr(speaker.ID()),
		DurationMinutes: intPtr(60),
		Date:            strPtr("2026-06-01"),
		StartTime:       strPtr("09:00"),
	}

	t.Run("organizer succeeds", func(t *testing.T) {
		s, err := f.sessions.CreateSession(ctx, &form, c1.Key, organizer)
		require.NoError(t, err)
		assert.True(t, c1.Key.Equal(s.ConferenceKey()))
		assert.Equal(t, 540, *s.StartTime)
		assert.Equal(t, 60, *s.DurationMinutes)
		assert.Equal(t, domain.DefaultSessionHighlights, s.Highlights)

		listed, err := f.sessions.GetConferenceSessions(ctx, c1.Key)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.True(t, s.Key.Equal(listed[0].Key))

		jobs := f.queue.ofType(domain.JobFeaturedSpeaker)
		require.Len(t, jobs, 1)
		var msg domain.FeaturedSpeakerJob
		require.NoError(t, json.Unmarshal(jobs[0].Payload, &msg))
		assert.Equal(t, domain.FeaturedSpeakerJob{ConferenceKey: c1.Key.String(), SpeakerID: speaker.ID()}, msg)
	})

	t.Run("other user is not authorized and creates nothing", func(t *testing.T) {
		before, err := f.sessions.GetConferenceSessions(ctx, c1.Key)
		require.NoError(t, err)
		_, err = f.sessions.CreateSession(ctx, &form, c1.Key, stranger)
		require.ErrorIs(t, err, domain.ErrNotAuthorized)
		after, err := f.sessions.GetConferenceSessions(ctx, c1.Key)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}

func TestSessionService_CreateSessionErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")

	tests := []struct {
		name    string
		conf    *domain.Key
		form    domain.SessionForm
		wantErr error
	}{
		{"missing conference", domain.NewIDKey(domain.KindConference, 999, nil), domain.SessionForm{Name: strPtr("x")}, domain.ErrNotFound},
		{"wrong kind key", domain.SpeakerKey(1), domain.SessionForm{Name: strPtr("x")}, domain.ErrNotFound},
		{"missing name", c1.Key, domain.SessionForm{}, domain.ErrValidation},
		{"negative duration", c1.Key, domain.SessionForm{Name: strPtr("x"), DurationMinutes: intPtr(-5)}, domain.ErrValidation},
		{"bad date", c1.Key, domain.SessionForm{Name: strPtr("x"), Date: strPtr("June 1")}, domain.ErrValidation},
		{"bad start time", c1.Key, domain.SessionForm{Name: strPtr("x"), StartTime: strPtr("9am")}, domain.ErrValidation},
		{"unknown speaker", c1.Key, domain.SessionForm{Name: strPtr("x"), SpeakerID: int64Ptr(42)}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sessions.CreateSession(ctx, &tt.form, tt.conf, organizer)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSessionService_EnqueueFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")
	sp := f.speaker(t, "Rob")
	f.queue.err = errors.New("queue down")

	s, err := f.sessions.CreateSession(context.Background(), &domain.SessionForm{Name: strPtr("x"), SpeakerID: int64Ptr(sp.ID())}, c1.Key, organizer)
	require.NoError(t, err)
	assert.NotNil(t, s.Key)
}

func TestSessionService_SessionTypeCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "lecture", "workshop")
	c1 := f.conference(t, organizer, "C1")

	_, err := f.sessions.CreateSession(ctx, &domain.SessionForm{Name: strPtr("x"), SessionType: strPtr("party")}, c1.Key, organizer)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.sessions.CreateSession(ctx, &domain.SessionForm{Name: strPtr("x")}, c1.Key, organizer)
	require.ErrorIs(t, err, domain.ErrValidation)
	s, err := f.sessions.CreateSession(ctx, &domain.SessionForm{Name: strPtr("x"), SessionType: strPtr("workshop")}, c1.Key, organizer)
	require.NoError(t, err)
	assert.Equal(t, "workshop", s.SessionType)
}

func TestSessionService_UpdateSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")
	rob := f.speaker(t, "Rob")
	s := f.session(t, c1, domain.SessionForm{Name: strPtr("Intro"), DurationMinutes: intPtr(30)})

	updated, err := f.sessions.UpdateSession(ctx, s.Key, &domain.SessionForm{Name: strPtr("Intro to Go"), SpeakerID: int64Ptr(rob.ID())}, organizer)
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", updated.Name)
	assert.Equal(t, 30, *updated.DurationMinutes, "unset fields are kept")
	assert.Len(t, f.queue.ofType(domain.JobFeaturedSpeaker), 1, "speaker change re-enqueues")

	got, err := f.sessions.GetSession(ctx, s.Key)
	require.NoError(t, err)
	assert.Equal(t, "Intro to Go", got.Name)

	_, err = f.sessions.UpdateSession(ctx, s.Key, &domain.SessionForm{Name: strPtr("hijack")}, stranger)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)

	missing := domain.NewIDKey(domain.KindSession, 999, c1.Key)
	_, err = f.sessions.UpdateSession(ctx, missing, &domain.SessionForm{}, organizer)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.sessions.UpdateSession(ctx, c1.Key, &domain.SessionForm{}, organizer)
	require.ErrorIs(t, err, domain.ErrNotFound, "a conference key is not a session")
}

func TestSessionService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")
	c2 := f.conference(t, organizer, "C2")
	rob := f.speaker(t, "Rob")

	f.session(t, c1, domain.SessionForm{Name: strPtr("long lecture"), SessionType: strPtr("lecture"), DurationMinutes: intPtr(90), SpeakerID: int64Ptr(rob.ID())})
	f.session(t, c1, domain.SessionForm{Name: strPtr("short workshop"), SessionType: strPtr("workshop"), DurationMinutes: intPtr(30)})
	f.session(t, c1, domain.SessionForm{Name: strPtr("open lecture"), SessionType: strPtr("lecture")})
	f.session(t, c2, domain.SessionForm{Name: strPtr("c2 talk"), SessionType: strPtr("lecture"), SpeakerID: int64Ptr(rob.ID())})

	byType, err := f.sessions.GetConferenceSessionsByType(ctx, c1.Key, "lecture")
	require.NoError(t, err)
	assert.Equal(t, []string{"long lecture", "open lecture"}, sessionNames(byType))

	bySpeaker, err := f.sessions.GetSessionsBySpeaker(ctx, rob.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"long lecture", "c2 talk"}, sessionNames(bySpeaker))

	unknown, err := f.sessions.GetSessionsBySpeaker(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	short, err := f.sessions.QuerySessionLength(ctx, c1.Key, domain.OpLTE, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"short workshop"}, sessionNames(short))

	all, err := f.sessions.QuerySessionLength(ctx, c1.Key, domain.OpGTE, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"short workshop", "long lecture"}, sessionNames(all), "sessions without duration never match")

	_, err = f.sessions.QuerySessionLength(ctx, c1.Key, domain.OpLT, -1)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSessionService_QuerySessionTime(t *testing.T) {
	forms := []domain.SessionForm{
		{Name: strPtr("evening lecture"), SessionType: strPtr("lecture"), StartTime: strPtr("19:00")},
		{Name: strPtr("morning workshop"), SessionType: strPtr("workshop"), StartTime: strPtr("09:00")},
		{Name: strPtr("afternoon keynote"), SessionType: strPtr("keynote"), StartTime: strPtr("14:30")},
		{Name: strPtr("morning lecture"), SessionType: strPtr("lecture"), StartTime: strPtr("09:00")},
		{Name: strPtr("unscheduled lecture"), SessionType: strPtr("lecture")},
	}
	want := []string{"morning lecture", "afternoon keynote"}

	tests := []struct {
		name    string
		catalog []string
	}{
		{"post-filter without catalog", nil},
		{"rewrite with catalog", []string{"lecture", "workshop", "keynote"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tt.catalog...)
			c1 := f.conference(t, organizer, "C1")
			for _, form := range forms {
				f.session(t, c1, form)
			}
			got, err := f.sessions.QuerySessionTime(ctx, c1.Key, []string{"workshop"}, domain.OpLT, 19)
			require.NoError(t, err)
			assert.Equal(t, want, sessionNames(got))
		})
	}
}

func TestSessionService_QuerySessionTimeErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")

	_, err := f.sessions.QuerySessionTime(ctx, c1.Key, nil, domain.OpLT, 25)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.sessions.QuerySessionTime(ctx, c1.Key, nil, domain.OpIN, 10)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.sessions.QuerySessionTime(ctx, domain.NewIDKey(domain.KindConference, 404, nil), nil, domain.OpLT, 10)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
