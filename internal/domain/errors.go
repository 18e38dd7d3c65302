package domain

import "errors"

// Sentinel errors shared by the store adapters, services and delivery layer.
// Callers attach detail with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrNotFound is returned when a key resolves to nothing or to an entity of another kind.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized is returned when the caller does not own the target entity.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotRegistered is returned by wishlist operations when the caller is not registered
	// for the session's conference.
	ErrNotRegistered = errors.New("not registered for conference")

	// ErrAlreadyWishlisted is returned when a session is already in the caller's wishlist.
	ErrAlreadyWishlisted = errors.New("session already in wishlist")

	// ErrAlreadyRegistered is returned when the caller is already registered for a conference.
	ErrAlreadyRegistered = errors.New("already registered for conference")

	// ErrNoSeatsAvailable is returned when a conference has no seats left.
	ErrNoSeatsAvailable = errors.New("no seats available")

	// ErrUnsupportedFilterCombination signals a filter set the store cannot execute, such as
	// range operators on more than one field. Seeing it outside tests is a programming error.
	ErrUnsupportedFilterCombination = errors.New("unsupported filter combination")

	// ErrMalformedKey is returned when an opaque key cannot be parsed.
	ErrMalformedKey = errors.New("malformed key")

	// ErrKindMismatch is returned when a key decodes to a different kind than expected.
	ErrKindMismatch = errors.New("key kind mismatch")

	// ErrValidation is returned for missing or invalid input fields.
	ErrValidation = errors.New("validation error")

	// ErrQueueFull is returned by the in-process job queue when its buffer is full.
	ErrQueueFull = errors.New("job queue full")
)
