package domain

import (
	"errors"
	"fmt"
)

// NetworkError is a transport-level failure talking to the listing site:
// connection refused, DNS, timeout.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the listing site.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// ParseError means the page markup no longer matches the expected shape,
// which is not the same thing as a page with zero listings.
type ParseError struct {
	Page   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse search results page %d: %s", e.Page, e.Reason)
}

// NotifyError is a failed delivery to the messaging endpoint. It is logged
// at the send site and never stops the monitor.
type NotifyError struct {
	StatusCode int
	Err        error
}

func (e *NotifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notification delivery failed: %v", e.Err)
	}
	return fmt.Sprintf("notification rejected with status %d", e.StatusCode)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// ConfigError is an invalid monitor configuration, rejected before the
// monitor enters the running state.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ErrorKind maps an error to the taxonomy label used in logs and metrics.
func ErrorKind(err error) string {
	var (
		netErr    *NetworkError
		httpErr   *HTTPError
		parseErr  *ParseError
		notifyErr *NotifyError
		cfgErr    *ConfigError
	)
	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &notifyErr):
		return "notify"
	case errors.As(err, &cfgErr):
		return "config"
	default:
		return "internal"
	}
}
