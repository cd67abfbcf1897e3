package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoCachedToken    = fmt.Errorf("no cached token for user")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrNoActiveSession    = fmt.Errorf("nothing is currently playing")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// ResourceNotFoundError reports a playlist, track, or device that does not exist or cannot be accessed by the current user.
//
// It matches [ErrNotFound] with [errors.Is].
type ResourceNotFoundError struct {
	Kind string // playlist, track, device, ...
	ID   string
	Err  error
}

// NewResourceNotFound wraps err as a [ResourceNotFoundError] for the given resource.
func NewResourceNotFound(kind, id string, err error) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: kind, ID: id, Err: err}
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *ResourceNotFoundError) Unwrap() error {
	return e.Err
}

func (e *ResourceNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err (or anything it wraps) is a missing-resource condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
