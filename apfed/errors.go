package apfed

import "errors"

// Error taxonomy. Each is a sentinel that callers can match with errors.Is;
// wrapping functions attach request-specific context with fmt.Errorf("...: %w", ...).
var (
	// ErrConfigInvalid is returned at startup when a Config is built with a
	// missing domain or an out-of-range worker count.
	ErrConfigInvalid = errors.New("apfed: invalid federation config")

	// ErrUrlBlocked is returned when the configured URL verifier rejects a
	// target URL, whether for an outbound fetch or a delivery.
	ErrUrlBlocked = errors.New("apfed: url rejected by verifier")

	// ErrBudgetExceeded is returned when a RequestData's fetch budget has
	// been exhausted.
	ErrBudgetExceeded = errors.New("apfed: fetch budget exceeded")

	// ErrFetchFailed covers transport errors, timeouts, and non-2xx
	// responses during dereferencing.
	ErrFetchFailed = errors.New("apfed: fetch failed")

	// ErrDeserializationFailed is returned when a fetched body doesn't parse
	// into any accepted kind.
	ErrDeserializationFailed = errors.New("apfed: deserialization failed")

	// ErrIdHostMismatch is returned when a fetched object's id field names a
	// host different from the URL it was fetched from.
	ErrIdHostMismatch = errors.New("apfed: id host mismatch")

	// ErrSignatureInvalid is returned when HTTP signature verification fails.
	ErrSignatureInvalid = errors.New("apfed: signature invalid")

	// ErrMissingHeader is returned when Signature or Digest is absent from a
	// request that requires it.
	ErrMissingHeader = errors.New("apfed: missing required header")

	// ErrClockSkew is returned when Date exceeds the allowed skew window.
	ErrClockSkew = errors.New("apfed: clock skew exceeds tolerance")

	// ErrWebFingerNotFound is returned when no self link in a WebFinger
	// response dereferences into the requested kind.
	ErrWebFingerNotFound = errors.New("apfed: webfinger target not found")

	// ErrHandlerError wraps an error returned by an application's
	// ActivityHandler.
	ErrHandlerError = errors.New("apfed: activity handler failed")

	// ErrQueueShuttingDown is returned when QueueActivity is called after
	// the delivery queue has begun a graceful shutdown.
	ErrQueueShuttingDown = errors.New("apfed: queue is shutting down")

	// ErrPayloadTooLarge is returned when an inbound body exceeds the
	// receiver's size cap.
	ErrPayloadTooLarge = errors.New("apfed: payload too large")
)
