package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
)

func TestAnnouncementService_Refresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAnnouncementService(f.store, f.cache, discardLogger())

	got, err := svc.GetAnnouncement(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, c := range []struct {
		name  string
		seats int
	}{{"Sold Out", 0}, {"Roomy", 50}, {"Almost", 5}, {"Nearly", 2}} {
		_, err := f.confs.CreateConference(ctx, &domain.ConferenceForm{Name: strPtr(c.name), MaxAttendees: intPtr(c.seats)}, organizer)
		require.NoError(t, err)
	}

	text, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Last chance to attend! The following conferences are nearly sold out: Nearly, Almost", text)

	got, err = svc.GetAnnouncement(ctx)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestAnnouncementService_RefreshClearsWhenNoneQualify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAnnouncementService(f.store, f.cache, discardLogger())
	require.NoError(t, f.cache.Set(ctx, announcementCacheKey, []byte("stale")))

	text, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)
	got, err := svc.GetAnnouncement(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
