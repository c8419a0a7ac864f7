package rangeserve

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMissingRange        = errors.New(`"range" header required`)
	ErrMalformedRange      = errors.New("malformed range")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
	ErrResourceNotFound    = errors.New("resource not found")
	// ErrStreamIO is returned once headers are committed, the response can only be aborted
	ErrStreamIO = errors.New("stream io failure")
)

// NotSatisfiableError carries the resource size needed for the 416 Content-Range header
type NotSatisfiableError struct {
	Start int64
	Size  int64
}

func (e *NotSatisfiableError) Error() string {
	return fmt.Sprintf("%v: start %d, size %d", ErrRangeNotSatisfiable, e.Start, e.Size)
}

func (e *NotSatisfiableError) Is(target error) bool {
	return target == ErrRangeNotSatisfiable
}

func malformed(raw, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedRange, raw, reason)
}

// clientMessage drops wrapped details which may carry server paths
func clientMessage(err error) string {
	switch {
	case errors.Is(err, ErrResourceNotFound):
		return ErrResourceNotFound.Error()
	case StatusCode(err) == http.StatusInternalServerError:
		return strings.ToLower(http.StatusText(http.StatusInternalServerError))
	}
	return err.Error()
}

// StatusCode maps errors of this package to http status code.
// ErrStreamIO has no status, callers must abort the connection instead.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingRange), errors.Is(err, ErrMalformedRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, ErrResourceNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
