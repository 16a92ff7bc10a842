// Package services implements the relay bot's core: code allocation, the
// post registry, ingestion of channel posts, on-demand delivery and the
// timed expiry of delivered copies.
//
// This file centralizes the service-level error values. Sentinels are
// compared with errors.Is; the typed wrappers carry the failing step and
// unwrap to the underlying cause.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrPostNotFound indicates that no post is registered under a code.
	ErrPostNotFound = errors.New("post not found")

	// ErrNoContent is returned when the transport fetch yields nothing.
	ErrNoContent = errors.New("original content unavailable")

	// ErrIneligible marks channel events that carry no content (joins,
	// pins, title changes) and therefore get no code.
	ErrIneligible = errors.New("event is not eligible for ingestion")

	// ErrEmptyRef is returned for a stored location with neither a numeric
	// id nor a textual reference.
	ErrEmptyRef = errors.New("post location is empty")
)

// AllocationError reports a failed counter read-modify-write. No counter
// change is visible when it is returned.
type AllocationError struct {
	Err error
}

func (e *AllocationError) Error() string { return "allocate code: " + e.Err.Error() }
func (e *AllocationError) Unwrap() error { return e.Err }

// FetchError reports that the original post could not be resolved.
type FetchError struct {
	Code int64
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch post %d: %v", e.Code, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// NotifyError reports a failed operator notification. The post it refers
// to is already registered.
type NotifyError struct {
	Code int64
	Err  error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify operator about post %d: %v", e.Code, e.Err)
}
func (e *NotifyError) Unwrap() error { return e.Err }

// DeleteError reports an expiry deletion that did not (fully) succeed.
type DeleteError struct {
	ChatID int64
	IDs    []int64
	Err    error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %d message(s) in chat %d: %v", len(e.IDs), e.ChatID, e.Err)
}
func (e *DeleteError) Unwrap() error { return e.Err }
