package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/schoolrecords/schoolrecords/internal/config"
	"github.com/schoolrecords/schoolrecords/internal/database"
)

const (
	ExitCodeSuccess     = 0
	ExitCodeGeneric     = 1
	ExitCodeUsage       = 2
	ExitCodeNotFound    = 3
	ExitCodeConflict    = 4
	ExitCodeUnavailable = 5
	ExitCodeIO          = 6
)

// ExitError carries the process exit code a failed command should end with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExitError) ExitCode() int {
	if e == nil {
		return ExitCodeGeneric
	}
	return e.Code
}

func asExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}
	return &ExitError{Code: code, Err: err}
}

// mapCommandError picks the exit code for an error returned by the store,
// the config loader or the filesystem.
func mapCommandError(err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}

	var pathErr *fs.PathError
	switch {
	case errors.Is(err, database.ErrInvalidInput), errors.Is(err, config.ErrInvalidConfig):
		return asExitError(ExitCodeUsage, err)
	case errors.Is(err, database.ErrNotFound):
		return asExitError(ExitCodeNotFound, err)
	case errors.Is(err, database.ErrConstraint):
		return asExitError(ExitCodeConflict, err)
	case errors.Is(err, database.ErrUnavailable):
		return asExitError(ExitCodeUnavailable, err)
	case errors.As(err, &pathErr):
		return asExitError(ExitCodeIO, err)
	}
	return asExitError(ExitCodeGeneric, err)
}

func usageErrorf(format string, args ...any) error {
	return &ExitError{
		Code: ExitCodeUsage,
		Err:  fmt.Errorf(format, args...),
	}
}
