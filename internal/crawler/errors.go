package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every *FetchError.
	ErrFetch = errors.New("fetch failed")

	// ErrNoFetcher is returned by NewEngine when no fetcher is configured.
	ErrNoFetcher = errors.New("no fetcher configured")
)

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	// URL is the page that was requested.
	URL string

	// StatusCode is the HTTP status, or 0 for a transport failure.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFetch) true for every FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
