package bsale

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure at the point it happens, so callers
// never have to pattern-match on error messages.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth              // 401: token invalid or expired, requires reconnection
	KindRateLimit         // 429: provider throttling, defer to the next run
	KindServer            // 5xx: provider infrastructure, retried locally
	KindNetwork           // transport-level failure, retried locally
	KindValidation        // malformed payload or unexpected 4xx, fatal per item
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Endpoint   string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("bsale %s: %s (status %d): %v", e.Endpoint, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("bsale %s: %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf extracts the error kind, KindUnknown when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func IsAuth(err error) bool      { return KindOf(err) == KindAuth }
func IsRateLimit(err error) bool { return KindOf(err) == KindRateLimit }

// IsRetryable reports whether the client should retry the request itself.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindServer || k == KindNetwork
}

// IsDeferrable reports whether the orchestrator should leave the tenant in
// pending state and try again on the next scheduled run.
func IsDeferrable(err error) bool {
	k := KindOf(err)
	return k == KindRateLimit || k == KindNetwork
}
