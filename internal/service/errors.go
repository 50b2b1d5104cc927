package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel kinds; handlers map them onto HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a domain error whose message is safe to show to users.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// lookupErr turns a repository miss into ErrNotFound and wraps anything else.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "%s not found", what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
