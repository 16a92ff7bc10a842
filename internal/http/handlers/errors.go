package handlers

// Stable, machine-readable error codes carried in ErrorResponse.Code.
// ErrCodeUnauthorized and ErrCodeRateLimited are written by the webhook
// secret and rate-limit middleware, which cannot import this package.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeLookupFailed = "lookup_failed"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeBadUpdate    = "bad_update"
)
