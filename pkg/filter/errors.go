package filter

import "errors"

// Filter errors are caller contract violations, raised synchronously and
// never retried. Match with errors.Is.
var (
	// ErrInvalidParameter reports a configuration value outside its valid
	// range, e.g. a filter strength outside [0,1].
	ErrInvalidParameter = errors.New("invalid filter parameter")

	// ErrConfiguration reports a joint role that does not exist in the first
	// observed frame.
	ErrConfiguration = errors.New("filter configuration error")

	// ErrSchemaMismatch reports a frame whose joint set differs from the
	// first observed frame.
	ErrSchemaMismatch = errors.New("frame schema mismatch")
)
