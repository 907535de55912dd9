package weather

import (
	"errors"
	"fmt"
)

// FetchError covers every failure to obtain provider data: transport errors,
// timeouts, non-success statuses and malformed or incomplete payloads.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err as a FetchError for endpoint.
func NewFetchError(endpoint string, err error) *FetchError {
	return &FetchError{Endpoint: endpoint, Err: err}
}

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// FormatError reports a required field missing from an otherwise valid payload.
type FormatError struct {
	Field string
	Index int // list position, -1 for top-level fields
}

func (e *FormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("missing field %q in list entry %d", e.Field, e.Index)
}

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

var (
	errMissingKeys = errors.New("response missing required keys")
	errAPIStatus   = errors.New("provider reported an error")
)
