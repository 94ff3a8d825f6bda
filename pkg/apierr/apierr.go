// Package apierr defines the API error taxonomy and normalizes any error
// into the {"code", "description"} body returned to clients.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Fixed descriptions of the taxonomy.
const (
	NotFoundDescription         = "Not found."
	PermissionDeniedDescription = "You do not have permission to perform this action."
	PreconditionDescription     = "Precondition failed."
)

var (
	// ErrNotFound reports a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied reports a rejected or missing credential.
	ErrPermissionDenied = errors.New("permission denied")
)

// Body is the JSON error contract.
type Body struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// ValidationError carries one or more client input messages.
type ValidationError struct {
	// Code names the failing input when there is a single one, such as
	// "limit" for page size errors.
	Code     string
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "\n")
}

// Validation returns a ValidationError with the given messages.
func Validation(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// Validationf returns a ValidationError with one formatted message.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// BadPageSize returns the validation error of an invalid limit parameter.
func BadPageSize(message string) *ValidationError {
	return &ValidationError{Code: "limit", Messages: []string{message}}
}

// Error is an API level fault with its own status code.
type Error struct {
	Status      int
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Description)
}

// New returns an Error with status and description.
func New(status int, description string) *Error {
	return &Error{Status: status, Description: description}
}

// PreconditionFailed returns the 412 fault of a failed If-Match or
// If-None-Match check.
func PreconditionFailed() *Error {
	return &Error{Status: http.StatusPreconditionFailed, Description: PreconditionDescription}
}

// IsInternal reports whether err falls outside the taxonomy.
func IsInternal(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermissionDenied) {
		return false
	}
	var verr *ValidationError
	var aerr *Error
	return !errors.As(err, &verr) && !errors.As(err, &aerr)
}

// Normalize maps err to its HTTP status and JSON body.
func Normalize(err error) (int, Body) {
	var verr *ValidationError
	var aerr *Error
	switch {
	case err == nil:
		return http.StatusOK, Body{Code: http.StatusOK}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, Body{Code: http.StatusNotFound, Description: NotFoundDescription}
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden, Body{Code: http.StatusForbidden, Description: PermissionDeniedDescription}
	case errors.As(err, &verr):
		return http.StatusBadRequest, Body{Code: http.StatusBadRequest, Description: verr.Error()}
	case errors.As(err, &aerr):
		return aerr.Status, Body{Code: aerr.Status, Description: aerr.Description}
	default:
		return http.StatusInternalServerError, Body{Code: http.StatusInternalServerError, Description: err.Error()}
	}
}
