// Package apperr defines the tagged errors returned by services and their HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies an error for clients.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindIntegrity
	KindLocked
	KindTooManyRequests
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindIntegrity:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindLocked:
		return http.StatusLocked
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a service error carrying a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails attaches extra client-facing context.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation builds a 400 error.
func Validation(message string) *Error { return New(KindValidation, message) }

// Authentication builds a 401 error.
func Authentication(message string) *Error { return New(KindAuthentication, message) }

// Authorization builds a 403 error.
func Authorization(message string) *Error { return New(KindAuthorization, message) }

// NotFound builds a 404 error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict builds a 409 error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Integrity builds a 400 error for referential violations.
func Integrity(message string) *Error { return New(KindIntegrity, message) }

// Locked builds a 423 error.
func Locked(message string) *Error { return New(KindLocked, message) }

// TooManyRequests builds a 429 error.
func TooManyRequests(message string) *Error { return New(KindTooManyRequests, message) }

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As returns the tagged error inside err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err; untagged errors are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a foreign key failure.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// FromStore classifies a store error. Tagged errors pass through unchanged.
func FromStore(err error, conflictMessage, integrityMessage string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: "not found", Err: err}
	case IsUniqueViolation(err):
		return &Error{Kind: KindConflict, Message: conflictMessage, Err: err}
	case IsForeignKeyViolation(err):
		return &Error{Kind: KindIntegrity, Message: integrityMessage, Err: err}
	default:
		return Internal("database error", err)
	}
}
