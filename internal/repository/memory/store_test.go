package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
)

func intPtr(v int) *int { return &v }

func seedSessions(t *testing.T, s *Store) (*domain.Key, *domain.Key) {
	t.Helper()
	ctx := context.Background()
	c1, err := s.Put(ctx, &domain.Conference{Name: "C1", OrganizerUserID: "u1"})
	require.NoError(t, err)
	c2, err := s.Put(ctx, &domain.Conference{Name: "C2", OrganizerUserID: "u2"})
	require.NoError(t, err)
	sessions := []struct {
		parent *domain.Key
		s      *domain.Session
	}{
		{c1, &domain.Session{Name: "late", SessionType: "lecture", SpeakerID: 1, StartTime: intPtr(1200)}},
		{c1, &domain.Session{Name: "early", SessionType: "workshop", SpeakerID: 1, StartTime: intPtr(540)}},
		{c1, &domain.Session{Name: "untimed", SessionType: "lecture", SpeakerID: 2}},
		{c2, &domain.Session{Name: "other", SessionType: "lecture", SpeakerID: 1, StartTime: intPtr(600)}},
	}
	for _, tt := range sessions {
		tt.s.Key = domain.IncompleteKey(domain.KindSession, tt.parent)
		_, err := s.Put(ctx, tt.s)
		require.NoError(t, err)
	}
	return c1, c2
}

func names(es []domain.Entity) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.(*domain.Session).Name)
	}
	return out
}

func TestStore_PutAssignsKeyAndGetCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	conf := &domain.Conference{Name: "GopherCon", Topics: []string{"Go"}}
	key, err := s.Put(ctx, conf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), key.ID)
	assert.Equal(t, key, conf.Key)

	conf.Topics[0] = "mutated"
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, got.(*domain.Conference).Topics)

	got.(*domain.Conference).Name = "changed"
	again, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "GopherCon", again.(*domain.Conference).Name)
}

func TestStore_GetNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Get(context.Background(), domain.NewIDKey(domain.KindSession, 1, domain.NewIDKey(domain.KindConference, 1, nil)))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_PutNamedKeyOverwrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, err := s.Put(ctx, &domain.Profile{Key: domain.ProfileKey("u1"), DisplayName: "a"})
	require.NoError(t, err)
	_, err = s.Put(ctx, &domain.Profile{Key: domain.ProfileKey("u1"), DisplayName: "b"})
	require.NoError(t, err)
	got, err := s.Get(ctx, domain.ProfileKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "b", got.(*domain.Profile).DisplayName)
}

func TestStore_QueryChildren(t *testing.T) {
	s := NewStore()
	c1, _ := seedSessions(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters []domain.Filter
		order   []domain.Order
		want    []string
	}{
		{"creation order", nil, nil, []string{"late", "early", "untimed"}},
		{"eq", []domain.Filter{{Field: "sessionType", Op: domain.OpEQ, Value: "lecture"}}, nil, []string{"late", "untimed"}},
		{"range ordered", []domain.Filter{{Field: "startTime", Op: domain.OpLT, Value: 1440}},
			[]domain.Order{{Field: "startTime"}}, []string{"early", "late"}},
		{"nil sorts last", nil, []domain.Order{{Field: "startTime"}}, []string{"early", "late", "untimed"}},
		{"desc", nil, []domain.Order{{Field: "startTime", Desc: true}}, []string{"untimed", "late", "early"}},
		{"in", []domain.Filter{{Field: "sessionType", Op: domain.OpIN, Value: []any{"workshop"}}}, nil, []string{"early"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryChildren(ctx, c1, domain.KindSession, tt.filters, tt.order...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestStore_QueryByAttributeSpansParents(t *testing.T) {
	s := NewStore()
	seedSessions(t, s)
	got, err := s.QueryByAttribute(context.Background(), domain.KindSession,
		[]domain.Filter{{Field: "speakerId", Op: domain.OpEQ, Value: int64(1)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "early", "other"}, names(got))
}

func TestStore_RejectsTwoRangeFields(t *testing.T) {
	s := NewStore()
	c1, _ := seedSessions(t, s)
	_, err := s.QueryChildren(context.Background(), c1, domain.KindSession, []domain.Filter{
		{Field: "startTime", Op: domain.OpLT, Value: 1140},
		{Field: "durationMinutes", Op: domain.OpGT, Value: 30},
	})
	require.ErrorIs(t, err, domain.ErrUnsupportedFilterCombination)
}
