package github

import "fmt"

// Common errors
var (
	ErrAuthFailed = NewAPIError("authentication failed", "AUTH_FAILED")
	ErrNotFound   = NewAPIError("resource not found", "NOT_FOUND")
)

// APIError represents an error from the GitHub API.
type APIError struct {
	Message string
	Code    string
	Wrapped error
}

// NewAPIError creates a new APIError.
func NewAPIError(message, code string) *APIError {
	return &APIError{Message: message, Code: code}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Wrapped != nil {
		return e.Message + ": " + e.Wrapped.Error()
	}
	return e.Message
}

// Wrap wraps an underlying error.
func (e *APIError) Wrap(err error) *APIError {
	return &APIError{Message: e.Message, Code: e.Code, Wrapped: err}
}

// Unwrap returns the wrapped error.
func (e *APIError) Unwrap() error {
	return e.Wrapped
}

// Is matches errors sharing the same code, so wrapped instances compare
// equal to their sentinel.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// FetchError reports a non-2xx response on a paginated endpoint. It is
// fatal for the sub-pass that issued the request only: pages already
// committed stay committed and the matching scan flag is left unset.
type FetchError struct {
	Resource   string
	StatusCode int
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.Resource, e.StatusCode)
}
