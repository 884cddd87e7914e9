package terminology

import "errors"

var (
	// ErrMalformedDictionary is returned when a dictionary document does not
	// match the expected schema (missing required fields, duplicate ids).
	ErrMalformedDictionary = errors.New("malformed dictionary")

	// ErrNotFound is returned when a context, category, type, modifier or
	// region cannot be resolved.
	ErrNotFound = errors.New("not found")

	// ErrIndexOutOfRange is returned by the Nth accessors.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrMalformedEntryString is returned when a serialized entry cannot be parsed.
	ErrMalformedEntryString = errors.New("malformed entry string")

	// ErrOrphanModifier is returned when an entry carries a modifier without
	// the level it modifies.
	ErrOrphanModifier = errors.New("modifier without parent code")
)
