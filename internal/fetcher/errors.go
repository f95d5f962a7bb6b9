package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is wrapped by FetchError when the server answered
	// with a status outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxy is returned when a proxy URL has an unsupported scheme
	// or no host. Supported schemes are socks5, socks5h, http and https.
	ErrInvalidProxy = errors.New("invalid proxy URL: expected socks5://, http:// or https:// with host:port")

	// ErrInvalidPacingPolicy is returned when a pacing policy name is unknown.
	ErrInvalidPacingPolicy = errors.New("invalid pacing policy: expected \"between\" or \"leading\"")
)

// FetchError describes a page that could not be retrieved.
// It is returned for transport failures (StatusCode is 0), non-2xx
// responses (Err wraps ErrUnexpectedStatus) and cancellation while waiting
// on the pacing gate or the network.
type FetchError struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status code, or 0 when no response arrived.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause so errors.Is and errors.As see through
// the FetchError.
func (e *FetchError) Unwrap() error {
	return e.Err
}
