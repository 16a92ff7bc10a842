package telegram

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoLocation is returned for a source location that names no chat.
var ErrNoLocation = errors.New("telegram: empty chat reference")

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// IsRetryable reports flood-control responses worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == 429
}
