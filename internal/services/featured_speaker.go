package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"conferencecentral/internal/domain"
)

// DefaultFeaturedSpeakerThreshold is the session count that makes a speaker featured.
const DefaultFeaturedSpeakerThreshold = 2

const featuredSpeakerCachePrefix = "featured_speaker:"

// FeaturedSpeakerPipeline consumes FeaturedSpeakerJob messages and publishes the result to the
// cache. It always recomputes from store state, so redelivered or reordered jobs converge.
// Featured status is never revoked: a run below the threshold leaves the cache untouched.
type FeaturedSpeakerPipeline struct {
	store     domain.EntityStore
	cache     domain.Cache
	threshold int
	logger    *slog.Logger
	now       func() time.Time
}

// NewFeaturedSpeakerPipeline returns the pipeline. threshold <= 0 uses the default.
func NewFeaturedSpeakerPipeline(store domain.EntityStore, cache domain.Cache, threshold int, logger *slog.Logger) *FeaturedSpeakerPipeline {
	if threshold <= 0 {
		threshold = DefaultFeaturedSpeakerThreshold
	}
	return &FeaturedSpeakerPipeline{
		store:     store,
		cache:     cache,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

var _ domain.FeaturedSpeakerService = (*FeaturedSpeakerPipeline)(nil)

// Handle processes one featured_speaker job.
func (p *FeaturedSpeakerPipeline) Handle(ctx context.Context, job domain.Job) error {
	var msg domain.FeaturedSpeakerJob
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		return fmt.Errorf("decode featured speaker job: %w", err)
	}
	conferenceKey, err := domain.ParseKeyPath(msg.ConferenceKey)
	if err != nil {
		return fmt.Errorf("decode featured speaker job: %w", err)
	}
	rec, err := p.Compute(ctx, conferenceKey, msg.SpeakerID)
	if err != nil {
		return err
	}
	if rec == nil {
		p.logger.DebugContext(ctx, "speaker below featured threshold", "conference", msg.ConferenceKey, "speaker_id", msg.SpeakerID)
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode featured speaker: %w", err)
	}
	if err := p.cache.Set(ctx, featuredSpeakerCacheKey(conferenceKey), raw); err != nil {
		return fmt.Errorf("cache featured speaker: %w", err)
	}
	p.logger.InfoContext(ctx, "featured speaker updated", "conference", msg.ConferenceKey, "speaker_id", msg.SpeakerID, "sessions", len(rec.SessionNames))
	return nil
}

// Compute reads the speaker's sessions in the conference and returns the record, or nil when
// the speaker is below the threshold.
func (p *FeaturedSpeakerPipeline) Compute(ctx context.Context, conferenceKey *domain.Key, speakerID int64) (*domain.FeaturedSpeakerRecord, error) {
	if speakerID == 0 {
		return nil, nil
	}
	found, err := p.store.QueryChildren(ctx, conferenceKey, domain.KindSession,
		[]domain.Filter{{Field: "speakerId", Op: domain.OpEQ, Value: speakerID}})
	if err != nil {
		return nil, fmt.Errorf("query speaker sessions: %w", err)
	}
	if len(found) < p.threshold {
		return nil, nil
	}
	speaker, err := getSpeaker(ctx, p.store, speakerID)
	if err != nil {
		return nil, err
	}
	return BuildFeaturedSpeaker(conferenceKey, speaker, toSessions(found), p.threshold, p.now()), nil
}

// BuildFeaturedSpeaker is the pure mapping from a speaker's sessions in one conference, in
// creation order, to the cached record. It returns nil below threshold.
func BuildFeaturedSpeaker(conferenceKey *domain.Key, speaker *domain.Speaker, sessions []*domain.Session, threshold int, now time.Time) *domain.FeaturedSpeakerRecord {
	if len(sessions) < threshold {
		return nil
	}
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	return &domain.FeaturedSpeakerRecord{
		ConferenceKey: conferenceKey.String(),
		SpeakerID:     speaker.ID(),
		SpeakerName:   speaker.DisplayName,
		SessionNames:  names,
		ComputedAt:    now.UTC(),
	}
}

// GetFeaturedSpeaker reads the cache only. A miss returns ok=false and no error.
func (p *FeaturedSpeakerPipeline) GetFeaturedSpeaker(ctx context.Context, conferenceKey *domain.Key) (*domain.FeaturedSpeakerRecord, bool, error) {
	if conferenceKey == nil || conferenceKey.Kind != domain.KindConference {
		return nil, false, fmt.Errorf("%w: %s is not a conference", domain.ErrNotFound, conferenceKey)
	}
	raw, ok, err := p.cache.Get(ctx, featuredSpeakerCacheKey(conferenceKey))
	if err != nil {
		return nil, false, fmt.Errorf("read featured speaker: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var rec domain.FeaturedSpeakerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode cached featured speaker: %w", err)
	}
	return &rec, true, nil
}

func featuredSpeakerCacheKey(conferenceKey *domain.Key) string {
	return featuredSpeakerCachePrefix + conferenceKey.String()
}
