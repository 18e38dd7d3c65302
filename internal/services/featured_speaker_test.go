package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
)

func TestFeaturedSpeakerPipeline_Threshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")
	x := f.speaker(t, "Speaker X")
	y := f.speaker(t, "Speaker Y")
	f.session(t, c1, domain.SessionForm{Name: strPtr("X first"), SpeakerID: int64Ptr(x.ID())})
	f.session(t, c1, domain.SessionForm{Name: strPtr("Y only"), SpeakerID: int64Ptr(y.ID())})
	f.session(t, c1, domain.SessionForm{Name: strPtr("X second"), SpeakerID: int64Ptr(x.ID())})

	require.NoError(t, f.featured.Handle(ctx, featuredJob(t, c1.Key, y.ID())))
	_, ok, err := f.featured.GetFeaturedSpeaker(ctx, c1.Key)
	require.NoError(t, err)
	assert.False(t, ok, "one session is below the threshold")

	require.NoError(t, f.featured.Handle(ctx, featuredJob(t, c1.Key, x.ID())))
	rec, ok, err := f.featured.GetFeaturedSpeaker(ctx, c1.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Speaker X", rec.SpeakerName)
	assert.Equal(t, x.ID(), rec.SpeakerID)
	assert.Equal(t, []string{"X first", "X second"}, rec.SessionNames)

	require.NoError(t, f.featured.Handle(ctx, featuredJob(t, c1.Key, y.ID())))
	again, ok, err := f.featured.GetFeaturedSpeaker(ctx, c1.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Speaker X", again.SpeakerName, "below threshold leaves the record unchanged")
}

func TestFeaturedSpeakerPipeline_EndToEndFromCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")
	x := f.speaker(t, "Speaker X")
	f.session(t, c1, domain.SessionForm{Name: strPtr("one"), SpeakerID: int64Ptr(x.ID())})
	f.session(t, c1, domain.SessionForm{Name: strPtr("two"), SpeakerID: int64Ptr(x.ID())})

	f.runFeatured(t)
	f.runFeatured(t) // redelivery converges

	rec, ok, err := f.featured.GetFeaturedSpeaker(ctx, c1.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, rec.SessionNames)
	assert.Equal(t, c1.Key.String(), rec.ConferenceKey)
}

func TestFeaturedSpeakerPipeline_GetMissAndErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, ok, err := f.featured.GetFeaturedSpeaker(ctx, domain.NewIDKey(domain.KindConference, 1, nil))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)

	_, _, err = f.featured.GetFeaturedSpeaker(ctx, domain.SpeakerKey(1))
	require.ErrorIs(t, err, domain.ErrNotFound)

	f.cache.err = errors.New("cache down")
	_, _, err = f.featured.GetFeaturedSpeaker(ctx, domain.NewIDKey(domain.KindConference, 1, nil))
	require.Error(t, err)
}

func TestFeaturedSpeakerPipeline_HandleErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c1 := f.conference(t, organizer, "C1")
	x := f.speaker(t, "Speaker X")
	f.session(t, c1, domain.SessionForm{Name: strPtr("one"), SpeakerID: int64Ptr(x.ID())})
	f.session(t, c1, domain.SessionForm{Name: strPtr("two"), SpeakerID: int64Ptr(x.ID())})

	require.Error(t, f.featured.Handle(ctx, domain.Job{Payload: []byte(`{`)}))
	require.Error(t, f.featured.Handle(ctx, domain.Job{Payload: []byte(`{"conference_key":"nope","speaker_id":1}`)}))

	f.cache.err = errors.New("cache down")
	require.Error(t, f.featured.Handle(ctx, featuredJob(t, c1.Key, x.ID())), "cache failures are retried by the queue")
}

func TestBuildFeaturedSpeaker(t *testing.T) {
	conf := domain.NewIDKey(domain.KindConference, 3, nil)
	sp := &domain.Speaker{Key: domain.SpeakerKey(7), DisplayName: "Ada"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sessions := []*domain.Session{{Name: "a"}, {Name: "b"}}

	assert.Nil(t, BuildFeaturedSpeaker(conf, sp, sessions[:1], 2, now))
	assert.Equal(t, &domain.FeaturedSpeakerRecord{
		ConferenceKey: "Conference:i:3",
		SpeakerID:     7,
		SpeakerName:   "Ada",
		SessionNames:  []string{"a", "b"},
		ComputedAt:    now,
	}, BuildFeaturedSpeaker(conf, sp, sessions, 2, now))
}
