package config

import "errors"

// Configuration errors. They are returned at configuration time, never
// deferred to the first write.
var (
	// ErrUnsupportedConsistency indicates a write consistency level outside
	// SupportedConsistencies.
	ErrUnsupportedConsistency = errors.New("config: unsupported consistency level")

	// ErrUnknownProperty indicates SetProperty was given a name it does not know.
	ErrUnknownProperty = errors.New("config: unknown appender property")

	// ErrInvalidProperty indicates a property value could not be converted.
	ErrInvalidProperty = errors.New("config: invalid appender property value")
)
