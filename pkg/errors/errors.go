// Package errors defines the error kinds returned by the genealogy services. Every kind is an
// httperror so the HTTP layer can map it to a status code without translation.
package errors

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// NewNotFoundError reports an identifier or name lookup miss.
func NewNotFoundError(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusNotFound, format, args...)
}

// NewConflictError reports a uniqueness violation (duplicate samurai or clan name).
func NewConflictError(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusConflict, format, args...)
}

// NewValidationError reports empty or malformed input.
func NewValidationError(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusBadRequest, format, args...)
}

// NewInternalError wraps a failure of a storage or messaging collaborator.
func NewInternalError(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusInternalServerError, format, args...)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, code int) bool {
	if err == nil || !httperror.IsHTTPError(err) {
		return false
	}
	return httperror.GetStatusCode(err) == code
}
