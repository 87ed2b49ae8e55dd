package api

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the members of the client error taxonomy.
type ErrorKind string

const (
	// KindAPI covers any non-2xx response not claimed by a more specific
	// kind, and malformed (unparseable) responses.
	KindAPI ErrorKind = "api"

	// KindAuthentication is a 401 Unauthorized response.
	KindAuthentication ErrorKind = "authentication"

	// KindNotFound is a 404 Not Found response.
	KindNotFound ErrorKind = "not_found"

	// KindRateLimit is a 429 Too Many Requests response.
	KindRateLimit ErrorKind = "rate_limit"

	// KindTimeout means the request exceeded the configured timeout.
	KindTimeout ErrorKind = "timeout"

	// KindNetwork means no response was obtained at all.
	KindNetwork ErrorKind = "network"

	// KindConfig is a construction-time configuration failure, such as a
	// missing API key.
	KindConfig ErrorKind = "config"
)

// Error is the base error for all client failures. Every error returned by
// the client is an *Error; discriminate with errors.As and the Kind field,
// or with the Is* predicates below.
//
// The {Message, StatusCode, Code} triad is the stable contract: it always
// carries enough information to log and act on without inspecting internal
// state.
type Error struct {
	Kind ErrorKind

	// Message is a human-readable description, taken from the response
	// body's "message" field when available.
	Message string

	// StatusCode is the HTTP status, or 0 for transport-local failures.
	StatusCode int

	// Code is the machine-readable error code from the API
	// (e.g. "UNAUTHORIZED", "RATE_LIMITED"), if any.
	Code string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("drip: %s (status %d)", e.Message, e.StatusCode)
	}
	return "drip: " + e.Message
}

// NewError returns a generic API error.
func NewError(message string, statusCode int, code string) *Error {
	return &Error{Kind: KindAPI, Message: message, StatusCode: statusCode, Code: code}
}

// NewAuthenticationError returns a 401 error.
func NewAuthenticationError(message string) *Error {
	if message == "" {
		message = "Invalid or missing API key"
	}
	return &Error{Kind: KindAuthentication, Message: message, StatusCode: 401, Code: "UNAUTHORIZED"}
}

// NewNotFoundError returns a 404 error.
func NewNotFoundError(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{Kind: KindNotFound, Message: message, StatusCode: 404, Code: "NOT_FOUND"}
}

// NewRateLimitError returns a 429 error.
func NewRateLimitError(message string) *Error {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return &Error{Kind: KindRateLimit, Message: message, StatusCode: 429, Code: "RATE_LIMITED"}
}

// NewTimeoutError reports a request that exceeded the configured timeout.
func NewTimeoutError(message string) *Error {
	if message == "" {
		message = "Request timed out"
	}
	return &Error{Kind: KindTimeout, Message: message, StatusCode: 408, Code: "TIMEOUT"}
}

// NewNetworkError reports a connection-level failure with no response.
func NewNetworkError(message string) *Error {
	if message == "" {
		message = "Network error"
	}
	return &Error{Kind: KindNetwork, Message: message, StatusCode: 0, Code: "NETWORK_ERROR"}
}

// NewConfigError reports a construction-time configuration failure.
func NewConfigError(message, code string) *Error {
	return &Error{Kind: KindConfig, Message: message, StatusCode: 0, Code: code}
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsAuthentication reports whether err is a 401 authentication error.
func IsAuthentication(err error) bool { return isKind(err, KindAuthentication) }

// IsNotFound reports whether err is a 404 not-found error.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsRateLimit reports whether err is a 429 rate-limit error.
func IsRateLimit(err error) bool { return isKind(err, KindRateLimit) }

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool { return isKind(err, KindTimeout) }

// IsNetwork reports whether err is a connection-level failure.
func IsNetwork(err error) bool { return isKind(err, KindNetwork) }
