package relay

import (
	"fmt"
	"time"
)

// Result holds the outcome of one relay round trip. A failed relay is a
// valid result, not an error: callers render it with Text and answer the
// original request with HTTP 200 either way.
type Result struct {
	// Target is the normalized target URL the relay was sent to.
	Target string

	// Body is the target's response body, read in full, when the round
	// trip completed. Returned verbatim regardless of the target's status.
	Body string

	// StatusCode is the target's HTTP status code, when it answered.
	StatusCode int

	// Duration is the round-trip time.
	Duration time.Duration

	// Err is the transport failure, when the round trip did not complete.
	Err error
}

// OK reports whether the target answered.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Text renders the result as the response body for the original caller:
// the target's body on success, or a failure description naming the
// normalized target otherwise.
func (r *Result) Text() string {
	if r.Err != nil {
		return fmt.Sprintf("Failed to request %s: %v", r.Target, r.Err)
	}
	return r.Body
}
