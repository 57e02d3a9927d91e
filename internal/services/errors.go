package services

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrBadCreds           = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user already registered")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoHandoff          = errors.New("no checkout in progress")
	ErrNoDraft            = errors.New("order is not open for editing")
	ErrLocationDenied     = errors.New("location permission denied")
	ErrServiceUnavailable = errors.New("service not yet available")
)

// ValidationError is raised before any remote call. Msg is shown to the user
// as is.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Msg }

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// RemoteError is a failed call to storage or the geocoder. The operation can
// be retried by the user.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *RemoteError) Unwrap() error { return e.Err }

func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}

// lookup maps a missing row to ErrNotFound and anything else to a remote error.
func lookup(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return remote(op, err)
}

type UnavailableError struct{ Service string }

func (e *UnavailableError) Error() string        { return "service not yet available: " + e.Service }
func (e *UnavailableError) Is(target error) bool { return target == ErrServiceUnavailable }
