package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotLinked means the caller has a valid session but no GitHub
	// access token stored in the vault. The client maps this to a
	// "(re)link your GitHub account" prompt, NOT a logout — so it must
	// stay distinguishable from ErrUnauthorized.
	ErrNotLinked = errors.New("github account not linked")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing or invalid credentials.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// NotLinked returns an AppError for the "no GitHub token stored" case.
func NotLinked() *AppError {
	return &AppError{
		Err:     ErrNotLinked,
		Message: "no GitHub access token stored — link your GitHub account first",
	}
}

// UpstreamError wraps a non-2xx response from the GitHub API (or any other
// external service we proxy). The upstream status and body text are carried
// through to the client verbatim — these are interactive, user-triggered
// calls where a visible error is acceptable, so we don't retry or reshape.
type UpstreamError struct {
	StatusCode int    // HTTP status the upstream returned
	Body       string // upstream response body text
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}
