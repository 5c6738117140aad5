// Package errors defines the sentinel error kinds shared by every stage of a
// split build and maps them onto process exit codes.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInsufficientPopulation = errors.New("insufficient population")
	ErrTagger                 = errors.New("tagger failure")
	ErrStorage                = errors.New("storage failure")
	ErrUnavailable            = errors.New("dependency unavailable")
	ErrInternal               = errors.New("internal error")
)

// Exit codes returned by the command-line tools.
const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitInvalid     = 2
	ExitPopulation  = 3
	ExitTagger      = 4
	ExitStorage     = 5
	ExitUnavailable = 6
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCodeFor(sentinel),
	}
}

// Is reports whether err matches target. It re-exports the standard library
// helper so callers only import one errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As re-exports the standard library helper.
func As(err error, target any) bool {
	return errors.As(err, target)
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return ExitInvalid
	case errors.Is(err, ErrInsufficientPopulation):
		return ExitPopulation
	case errors.Is(err, ErrTagger):
		return ExitTagger
	case errors.Is(err, ErrStorage):
		return ExitStorage
	case errors.Is(err, ErrUnavailable):
		return ExitUnavailable
	default:
		return ExitInternal
	}
}
