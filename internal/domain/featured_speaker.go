package domain

import (
	"context"
	"time"
)

// FeaturedSpeakerRecord is the derived, cache-resident featured speaker of one conference.
// swagger:model FeaturedSpeakerRecord
type FeaturedSpeakerRecord struct {
	ConferenceKey string    `json:"conference_key"`
	SpeakerID     int64     `json:"speaker_id"`
	SpeakerName   string    `json:"speaker_name"`
	SessionNames  []string  `json:"session_names"`
	ComputedAt    time.Time `json:"computed_at"`
}

// FeaturedSpeakerService recomputes and serves featured speakers.
type FeaturedSpeakerService interface {
	JobHandler
	GetFeaturedSpeaker(ctx context.Context, conferenceKey *Key) (*FeaturedSpeakerRecord, bool, error)
}

// AnnouncementService recomputes and serves the nearly-sold-out announcement.
type AnnouncementService interface {
	Refresh(ctx context.Context) (string, error)
	GetAnnouncement(ctx context.Context) (string, error)
}
