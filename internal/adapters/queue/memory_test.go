package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestQueue(capacity int) (*Memory, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	q := NewMemory(capacity)
	q.now = c.now
	return q, c
}

func job(t *testing.T, speakerID int64) domain.Job {
	t.Helper()
	j, err := domain.NewJob(domain.JobFeaturedSpeaker, domain.FeaturedSpeakerJob{ConferenceKey: "Conference:i:1", SpeakerID: speakerID})
	require.NoError(t, err)
	return j
}

func TestMemory_EnqueueClaimAck(t *testing.T) {
	ctx := context.Background()
	q, c := newTestQueue(0)

	_, ok, err := q.Claim(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, q.Enqueue(ctx, job(t, 1)))
	c.advance(time.Second)
	require.NoError(t, q.Enqueue(ctx, job(t, 2)))

	first, ok, err := q.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.Attempts)
	assert.JSONEq(t, `{"conference_key":"Conference:i:1","speaker_id":1}`, string(first.Payload))

	second, ok, err := q.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)

	_, ok, err = q.Claim(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "both jobs are leased")

	require.NoError(t, q.Ack(ctx, first))
	require.NoError(t, q.Ack(ctx, second))
	assert.Equal(t, 0, q.Len())
}

func TestMemory_NackRedelivers(t *testing.T) {
	ctx := context.Background()
	q, c := newTestQueue(0)
	require.NoError(t, q.Enqueue(ctx, job(t, 1)))

	claimed, ok, err := q.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, q.Nack(ctx, claimed, 10*time.Second))

	_, ok, err = q.Claim(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "not available before retryAfter")

	c.advance(10 * time.Second)
	again, ok, err := q.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, claimed.ID, again.ID)
	assert.Equal(t, 2, again.Attempts)
}

func TestMemory_LeaseExpiry(t *testing.T) {
	ctx := context.Background()
	q, c := newTestQueue(0)
	require.NoError(t, q.Enqueue(ctx, job(t, 1)))

	_, ok, err := q.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	c.advance(q.Lease)
	redelivered, ok, err := q.Claim(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, redelivered.Attempts)
}

func TestMemory_Full(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestQueue(1)
	require.NoError(t, q.Enqueue(ctx, job(t, 1)))
	require.ErrorIs(t, q.Enqueue(ctx, job(t, 2)), domain.ErrQueueFull)
}

func TestMemory_NackUnknown(t *testing.T) {
	q, _ := newTestQueue(0)
	require.ErrorIs(t, q.Nack(context.Background(), domain.Job{ID: "missing"}, 0), domain.ErrNotFound)
}
