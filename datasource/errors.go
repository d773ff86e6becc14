package datasource

import (
	"errors"
)

// Failure classes for an upstream attempt. All three are downgraded to the
// synthetic series by Store and never reach the caller as errors.
var (
	// ErrTransport reports a network, HTTP status or rate limiter failure
	ErrTransport = errors.New("upstream transport failure")
	// ErrSchema reports a response that does not have the expected JSON shape
	ErrSchema = errors.New("upstream schema failure")
	// ErrDataQuality reports a well-formed response with unusable values
	ErrDataQuality = errors.New("upstream data quality failure")
)

// FailureKind returns a short label for the class of err, for logs and metrics
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrDataQuality):
		return "data_quality"
	default:
		return "unknown"
	}
}
