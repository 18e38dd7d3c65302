package postgres

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"conferencecentral/internal/domain"
)

// column maps one indexed domain field to its SQL column.
type column struct {
	name     string
	repeated bool
}

// table describes how one kind is laid out. parentColumn is set for child kinds and holds the
// parent's integer identity.
type table struct {
	name         string
	idColumn     string
	named        bool
	parentKind   domain.Kind
	parentColumn string
	fields       map[string]column
	// dataColumns excludes the id and parent columns, in the order values returns them.
	dataColumns []string
	values      func(e domain.Entity) ([]any, error)
	// scan reads the id column, the parent column when present, then dataColumns.
	scan func(scan func(dest ...any) error) (domain.Entity, error)
}

func (t *table) selectColumns() []string {
	cols := []string{t.idColumn}
	if t.parentColumn != "" {
		cols = append(cols, t.parentColumn)
	}
	return append(cols, t.dataColumns...)
}

var tables = map[domain.Kind]*table{
	domain.KindProfile:    profileTable,
	domain.KindConference: conferenceTable,
	domain.KindSpeaker:    speakerTable,
	domain.KindSession:    sessionTable,
}

func tableFor(kind domain.Kind) (*table, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no table for kind %q", domain.ErrUnsupportedFilterCombination, kind)
	}
	return t, nil
}

var profileTable = &table{
	name:     "profiles",
	idColumn: "user_id",
	named:    true,
	fields: map[string]column{
		"displayName": {name: "display_name"},
		"mainEmail":   {name: "main_email"},
	},
	dataColumns: []string{"display_name", "main_email", "tee_shirt_size", "conference_keys", "session_keys"},
	values: func(e domain.Entity) ([]any, error) {
		p := e.(*domain.Profile)
		return []any{p.DisplayName, p.MainEmail, p.TeeShirtSize, keyPaths(p.ConferenceKeysToAttend), keyPaths(p.SessionKeysToAttend)}, nil
	},
	scan: func(scan func(dest ...any) error) (domain.Entity, error) {
		p := &domain.Profile{}
		var userID string
		var confKeys, sessionKeys pq.StringArray
		if err := scan(&userID, &p.DisplayName, &p.MainEmail, &p.TeeShirtSize, &confKeys, &sessionKeys); err != nil {
			return nil, err
		}
		p.Key = domain.ProfileKey(userID)
		var err error
		if p.ConferenceKeysToAttend, err = parseKeyPaths(confKeys); err != nil {
			return nil, err
		}
		if p.SessionKeysToAttend, err = parseKeyPaths(sessionKeys); err != nil {
			return nil, err
		}
		return p, nil
	},
}

var conferenceTable = &table{
	name:     "conferences",
	idColumn: "id",
	fields: map[string]column{
		"name":            {name: "name"},
		"organizerUserId": {name: "organizer_user_id"},
		"topics":          {name: "topics", repeated: true},
		"city":            {name: "city"},
		"startDate":       {name: "start_date"},
		"endDate":         {name: "end_date"},
		"month":           {name: "month"},
		"maxAttendees":    {name: "max_attendees"},
		"seatsAvailable":  {name: "seats_available"},
	},
	dataColumns: []string{"name", "description", "organizer_user_id", "topics", "city", "start_date", "end_date", "month", "max_attendees", "seats_available"},
	values: func(e domain.Entity) ([]any, error) {
		c := e.(*domain.Conference)
		return []any{c.Name, c.Description, c.OrganizerUserID, pq.StringArray(c.Topics), c.City,
			nullTime(c.StartDate), nullTime(c.EndDate), c.Month, c.MaxAttendees, c.SeatsAvailable}, nil
	},
	scan: func(scan func(dest ...any) error) (domain.Entity, error) {
		c := &domain.Conference{}
		var id int64
		var topics pq.StringArray
		var start, end sql.NullTime
		if err := scan(&id, &c.Name, &c.Description, &c.OrganizerUserID, &topics, &c.City,
			&start, &end, &c.Month, &c.MaxAttendees, &c.SeatsAvailable); err != nil {
			return nil, err
		}
		c.Key = domain.NewIDKey(domain.KindConference, id, nil)
		c.Topics = []string(topics)
		c.StartDate = timePtr(start)
		c.EndDate = timePtr(end)
		return c, nil
	},
}

var speakerTable = &table{
	name:     "speakers",
	idColumn: "id",
	fields: map[string]column{
		"displayName": {name: "display_name"},
		"mainEmail":   {name: "main_email"},
	},
	dataColumns: []string{"display_name", "main_email"},
	values: func(e domain.Entity) ([]any, error) {
		s := e.(*domain.Speaker)
		return []any{s.DisplayName, s.MainEmail}, nil
	},
	scan: func(scan func(dest ...any) error) (domain.Entity, error) {
		s := &domain.Speaker{}
		var id int64
		if err := scan(&id, &s.DisplayName, &s.MainEmail); err != nil {
			return nil, err
		}
		s.Key = domain.SpeakerKey(id)
		return s, nil
	},
}

var sessionTable = &table{
	name:         "sessions",
	idColumn:     "id",
	parentKind:   domain.KindConference,
	parentColumn: "conference_id",
	fields: map[string]column{
		"name":            {name: "name"},
		"sessionType":     {name: "session_type"},
		"speakerId":       {name: "speaker_id"},
		"date":            {name: "date"},
		"startTime":       {name: "start_time"},
		"durationMinutes": {name: "duration_minutes"},
	},
	dataColumns: []string{"name", "session_type", "speaker_id", "highlights", "date", "start_time", "duration_minutes"},
	values: func(e domain.Entity) ([]any, error) {
		s := e.(*domain.Session)
		return []any{s.Name, s.SessionType, s.SpeakerID, s.Highlights, nullTime(s.Date), nullInt(s.StartTime), nullInt(s.DurationMinutes)}, nil
	},
	scan: func(scan func(dest ...any) error) (domain.Entity, error) {
		s := &domain.Session{}
		var id, conferenceID int64
		var date sql.NullTime
		var start, duration sql.NullInt64
		if err := scan(&id, &conferenceID, &s.Name, &s.SessionType, &s.SpeakerID, &s.Highlights, &date, &start, &duration); err != nil {
			return nil, err
		}
		s.Key = domain.NewIDKey(domain.KindSession, id, domain.NewIDKey(domain.KindConference, conferenceID, nil))
		s.Date = timePtr(date)
		s.StartTime = intPtr(start)
		s.DurationMinutes = intPtr(duration)
		return s, nil
	},
}

func keyPaths(keys []*domain.Key) pq.StringArray {
	out := make(pq.StringArray, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}

func parseKeyPaths(paths []string) ([]*domain.Key, error) {
	out := make([]*domain.Key, 0, len(paths))
	for _, p := range paths {
		k, err := domain.ParseKeyPath(p)
		if err != nil {
			return nil, fmt.Errorf("stored key %q: %w", p, err)
		}
		out = append(out, k)
	}
	return out, nil
}
