package toolstring

import "errors"

// Error taxonomy surfaced by the aggregation core. Callers distinguish
// kinds with errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrNotFound: the requested run identifier does not exist. Distinct
	// from an existing run with zero placements, which is a valid result.
	ErrNotFound = errors.New("run not found")

	// ErrInvalidArgument: a malformed filter or limit parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable: the record store cannot be reached. Propagated, not
	// retried — retry policy belongs to the store's operator.
	ErrUnavailable = errors.New("record store unavailable")
)
