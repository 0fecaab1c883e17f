package gateway

import (
	"errors"
	"fmt"

	gapi "google.golang.org/api/googleapi"
)

// NotFoundError means the remote resource does not exist (or is already gone).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// PermissionDeniedError means the active identity lacks the access role the
// operation needs. Hint carries a human-readable explanation for the caller.
type PermissionDeniedError struct {
	Resource string
	Action   string
	Hint     string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s", e.Action, e.Resource)
}

// InvalidRequestError means the backend rejected the request as malformed.
type InvalidRequestError struct {
	Resource string
	Cause    error
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request for %s: %v", e.Resource, e.Cause)
}

func (e *InvalidRequestError) Unwrap() error { return e.Cause }

// UpstreamError is an opaque backend failure; the diagnostic detail is passed
// through for the caller, never retried automatically.
type UpstreamError struct {
	Op    string
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("calendar backend error during %s: %v", e.Op, e.Cause)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsPermissionDeniedError(err error) bool {
	var e *PermissionDeniedError
	return errors.As(err, &e)
}

// mapError translates a Google API error into the local taxonomy.
func mapError(op, resource, id string, err error) error {
	var ge *gapi.Error
	if errors.As(err, &ge) {
		switch ge.Code {
		case 404, 410:
			return &NotFoundError{Resource: resource, ID: id}
		case 403:
			return &PermissionDeniedError{Resource: resource, Action: op, Hint: ge.Message}
		case 400:
			return &InvalidRequestError{Resource: resource, Cause: err}
		}
	}
	return &UpstreamError{Op: op, Cause: err}
}

// isGone reports whether err means the resource is already absent, which
// delete operations treat as success.
func isGone(err error) bool {
	var ge *gapi.Error
	if errors.As(err, &ge) {
		return ge.Code == 404 || ge.Code == 410
	}
	return false
}
