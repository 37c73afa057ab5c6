package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrNotFound means the row an operation targets does not exist.
	ErrNotFound = errors.New("database: not found")
	// ErrInvalidInput means the repository rejected the input before touching the store.
	ErrInvalidInput = errors.New("database: invalid input")
	// ErrConstraint means the store rejected a write (foreign key, uniqueness, enum, bad value).
	ErrConstraint = errors.New("database: constraint violation")
	// ErrUnavailable means the store could not be reached or refused the session.
	ErrUnavailable = errors.New("database: store unavailable")
	// ErrStore covers every other store failure.
	ErrStore = errors.New("database: store error")
)

// OpError is returned by every repository operation. Kind is one of the
// sentinel errors above; Err carries the underlying driver message.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func invalidf(op, format string, args ...any) error {
	return &OpError{Op: op, Kind: ErrInvalidInput, Err: fmt.Errorf(format, args...)}
}

func notFoundf(op, format string, args ...any) error {
	return &OpError{Op: op, Kind: ErrNotFound, Err: fmt.Errorf(format, args...)}
}

// wrapError attaches an operation name and error kind, leaving errors that
// already carry a kind untouched.
func wrapError(d Dialect, op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Kind: classify(d, err), Err: err}
}

func classify(d Dialect, err error) error {
	if isConnectivityError(err) {
		return ErrUnavailable
	}
	if d != nil {
		if kind := d.Classify(err); kind != nil {
			return kind
		}
	}
	return ErrStore
}

func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
