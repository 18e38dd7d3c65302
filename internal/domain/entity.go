package domain

// Entity is implemented by every kind the store persists.
type Entity interface {
	Kind() Kind
	EntityKey() *Key
	SetEntityKey(k *Key)
	// Property returns the value of an indexed field for filtering and ordering.
	// Integers are returned as int64, dates as time.Time, sets as []string.
	// Absent optional values return (nil, true).
	Property(field string) (any, bool)
	// Clone returns a deep copy so stores never share memory with callers.
	Clone() Entity
}

// Field describes one indexed field of a kind.
type Field struct {
	// Repeated fields hold a set; EQ and IN match when any element matches.
	Repeated bool
}

// Schema lists the indexed fields of each kind. Filters and orders on other fields are rejected.
var Schema = map[Kind]map[string]Field{
	KindProfile: {
		"displayName": {},
		"mainEmail":   {},
	},
	KindConference: {
		"name":            {},
		"organizerUserId": {},
		"topics":          {Repeated: true},
		"city":            {},
		"startDate":       {},
		"endDate":         {},
		"month":           {},
		"maxAttendees":    {},
		"seatsAvailable":  {},
	},
	KindSession: {
		"name":            {},
		"sessionType":     {},
		"speakerId":       {},
		"date":            {},
		"startTime":       {},
		"durationMinutes": {},
	},
	KindSpeaker: {
		"displayName": {},
		"mainEmail":   {},
	},
}

// LookupField returns an indexed field of kind.
func LookupField(kind Kind, name string) (Field, bool) {
	fields, ok := Schema[kind]
	if !ok {
		return Field{}, false
	}
	f, ok := fields[name]
	return f, ok
}
