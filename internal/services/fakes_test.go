package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
	"conferencecentral/internal/repository/memory"
)

const testTimeout = 5 * time.Second

var (
	organizer = domain.Identity{UserID: "u1", Email: "u1@example.com", DisplayName: "Organizer"}
	stranger  = domain.Identity{UserID: "u2", Email: "u2@example.com", DisplayName: "Stranger"}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int        { return &v }
func int64Ptr(v int64) *int64  { return &v }

// fakeQueue records enqueued jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []domain.Job
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, job domain.Job) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) ofType(t domain.JobType) []domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.Job
	for _, j := range q.jobs {
		if j.Type == t {
			out = append(out, j)
		}
	}
	return out
}

// fakeCache is a map-backed Cache.
type fakeCache struct {
	mu     sync.Mutex
	values map[string][]byte
	err    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = append([]byte(nil), value...)
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

// failingStore fails every Put after the first failAfter calls.
type failingStore struct {
	domain.EntityStore
	puts      int
	failAfter int
}

func (s *failingStore) Put(ctx context.Context, e domain.Entity) (*domain.Key, error) {
	s.puts++
	if s.puts > s.failAfter {
		return nil, errors.New("store unavailable")
	}
	return s.EntityStore.Put(ctx, e)
}

// fixture wires the services over one memory store.
type fixture struct {
	store    *memory.Store
	queue    *fakeQueue
	cache    *fakeCache
	sessions domain.SessionService
	confs    domain.ConferenceService
	profiles domain.ProfileService
	speakers domain.SpeakerService
	wishlist domain.WishlistService
	featured *FeaturedSpeakerPipeline
}

func newFixture(t *testing.T, sessionTypes ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	planner := query.NewPlanner(store)
	f := &fixture{
		store: store,
		queue: &fakeQueue{},
		cache: newFakeCache(),
	}
	f.sessions = NewSessionService(store, planner, f.queue, sessionTypes, discardLogger(), testTimeout)
	f.confs = NewConferenceService(store, planner, f.queue, discardLogger(), testTimeout)
	f.profiles = NewProfileService(store, testTimeout)
	f.speakers = NewSpeakerService(store, testTimeout)
	f.wishlist = NewWishlistService(store, testTimeout)
	f.featured = NewFeaturedSpeakerPipeline(store, f.cache, 0, discardLogger())
	return f
}

func (f *fixture) conference(t *testing.T, owner domain.Identity, name string) *domain.Conference {
	t.Helper()
	c, err := f.confs.CreateConference(context.Background(), &domain.ConferenceForm{Name: strPtr(name), MaxAttendees: intPtr(10)}, owner)
	require.NoError(t, err)
	return c
}

func (f *fixture) speaker(t *testing.T, name string) *domain.Speaker {
	t.Helper()
	sp, err := f.speakers.CreateSpeaker(context.Background(), name, "")
	require.NoError(t, err)
	return sp
}

func (f *fixture) session(t *testing.T, conf *domain.Conference, form domain.SessionForm) *domain.Session {
	t.Helper()
	s, err := f.sessions.CreateSession(context.Background(), &form, conf.Key, organizer)
	require.NoError(t, err)
	return s
}

// runFeatured delivers every queued featured_speaker job to the pipeline.
func (f *fixture) runFeatured(t *testing.T) {
	t.Helper()
	for _, job := range f.queue.ofType(domain.JobFeaturedSpeaker) {
		require.NoError(t, f.featured.Handle(context.Background(), job))
	}
}

func featuredJob(t *testing.T, conf *domain.Key, speakerID int64) domain.Job {
	t.Helper()
	raw, err := json.Marshal(domain.FeaturedSpeakerJob{ConferenceKey: conf.String(), SpeakerID: speakerID})
	require.NoError(t, err)
	return domain.Job{Type: domain.JobFeaturedSpeaker, Payload: raw}
}

func sessionNames(sessions []*domain.Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Name)
	}
	return out
}

// mistypedStore answers every Get with an entity of the wrong kind.
type mistypedStore struct {
	domain.EntityStore
}

func (mistypedStore) Get(ctx context.Context, key *domain.Key) (domain.Entity, error) {
	return &domain.Conference{Key: domain.NewIDKey(domain.KindConference, 1, nil)}, nil
}
