// Package exitcode maps errors from probing and loading to process exit
// codes. The numbering follows the upload tooling this module replaces, so
// schedulers that branch on those codes keep working.
package exitcode

import (
	"context"
	"errors"
	"net/http"
	"os"

	"csvsample/internal/config"
	"csvsample/internal/datasource/httpds"
	csvparser "csvsample/internal/parser/csv"
	"csvsample/internal/probe"
	"csvsample/internal/sampler"
	"csvsample/internal/schema"
)

// Exit codes.
const (
	Success         = 0
	Unknown         = 3
	BadRequest      = 202
	Cancelled       = 211
	FileNotFound    = 214
	InvalidDataType = 218
	ColumnMismatch  = 219
	SourceRead      = 220
)

// BadRequestError marks an error as caused by the invocation itself:
// missing flags, an invalid job file.
type BadRequestError struct {
	Err error
}

func (e *BadRequestError) Error() string { return e.Err.Error() }

func (e *BadRequestError) Unwrap() error { return e.Err }

// AsBadRequest wraps err so that For maps it to BadRequest. A nil err stays nil.
func AsBadRequest(err error) error {
	if err == nil {
		return nil
	}
	return &BadRequestError{Err: err}
}

// For returns the exit code for err. Checks run from the most specific
// cause outwards, so a read failure caused by a canceled context reports
// Cancelled rather than SourceRead.
func For(err error) int {
	if err == nil {
		return Success
	}

	var (
		badReq *BadRequestError
		status *httpds.StatusError
		issue  config.Issue
		sre    *sampler.SourceReadError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Cancelled
	case errors.As(err, &badReq),
		errors.As(err, &issue),
		errors.Is(err, sampler.ErrInvalidArgument),
		errors.Is(err, probe.ErrNoLocation):
		return BadRequest
	case errors.Is(err, schema.ErrInvalidDataType):
		return InvalidDataType
	case errors.Is(err, schema.ErrColumnMismatch):
		return ColumnMismatch
	case errors.Is(err, os.ErrNotExist):
		return FileNotFound
	case errors.As(err, &status):
		if status.Code == http.StatusNotFound || status.Code == http.StatusGone {
			return FileNotFound
		}
		return SourceRead
	case errors.As(err, &sre), errors.Is(err, csvparser.ErrNoHeader):
		return SourceRead
	}
	return Unknown
}

// Exit terminates the process with For(err).
func Exit(err error) {
	os.Exit(For(err))
}
