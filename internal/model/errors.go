package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorKind enumerates the failures surfaced to the user.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetworkUnavailable
	KindInvalidResponse
	KindNoResults
	KindLocationDenied
	KindLocationRestricted
	KindLocationUnavailable
	KindRequestTimeout
	KindServerError
	KindDecodingError
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindInvalidResponse:
		return "invalid_response"
	case KindNoResults:
		return "no_results"
	case KindLocationDenied:
		return "location_denied"
	case KindLocationRestricted:
		return "location_restricted"
	case KindLocationUnavailable:
		return "location_unavailable"
	case KindRequestTimeout:
		return "request_timeout"
	case KindServerError:
		return "server_error"
	case KindDecodingError:
		return "decoding_error"
	default:
		return "unknown"
	}
}

// ErrorCategory groups error kinds for presentation.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryLocation
	CategoryNetwork
	CategoryNoContent
)

// Error is a classified failure. Code is set for KindServerError and Message
// for KindUnknown; both are zero otherwise, so two Errors compare equal with ==
// exactly when kind and payload match.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
}

var (
	ErrNetworkUnavailable  = Error{Kind: KindNetworkUnavailable}
	ErrInvalidResponse     = Error{Kind: KindInvalidResponse}
	ErrNoResults           = Error{Kind: KindNoResults}
	ErrLocationDenied      = Error{Kind: KindLocationDenied}
	ErrLocationRestricted  = Error{Kind: KindLocationRestricted}
	ErrLocationUnavailable = Error{Kind: KindLocationUnavailable}
	ErrRequestTimeout      = Error{Kind: KindRequestTimeout}
	ErrDecoding            = Error{Kind: KindDecodingError}
)

// ServerError returns the error for an HTTP 5xx response.
func ServerError(code int) Error {
	return Error{Kind: KindServerError, Code: code}
}

// UnknownError wraps an unrecognized failure message.
func UnknownError(message string) Error {
	return Error{Kind: KindUnknown, Message: message}
}

func (e Error) Error() string { return e.Description() }

// Description is the user-facing message.
func (e Error) Description() string {
	switch e.Kind {
	case KindNetworkUnavailable:
		return "No internet connection available"
	case KindInvalidResponse:
		return "Invalid response from Wikipedia"
	case KindNoResults:
		return "No articles found"
	case KindLocationDenied:
		return "Location access denied. Please enable it in your settings."
	case KindLocationRestricted:
		return "Location access restricted"
	case KindLocationUnavailable:
		return "Unable to determine location"
	case KindRequestTimeout:
		return "Request timed out. Please try again."
	case KindServerError:
		return fmt.Sprintf("Server error (%d). Please try again.", e.Code)
	case KindDecodingError:
		return "Unable to process response"
	default:
		if e.Message == "" {
			return "Something went wrong"
		}
		return e.Message
	}
}

// RecoverySuggestion returns a hint for the user, or "" when there is none.
func (e Error) RecoverySuggestion() string {
	switch e.Kind {
	case KindNetworkUnavailable:
		return "Check your internet connection and try again."
	case KindLocationDenied:
		return "Set location.mode in config.yaml to ip or fixed to enable location."
	case KindRequestTimeout, KindServerError, KindInvalidResponse:
		return "Try again in a few moments."
	case KindNoResults:
		return "Try different search terms."
	case KindLocationRestricted:
		return ""
	default:
		return "Please try again."
	}
}

// ShouldShowRetry reports whether retrying can reasonably succeed.
func (e Error) ShouldShowRetry() bool {
	switch e.Kind {
	case KindNetworkUnavailable, KindRequestTimeout, KindServerError, KindInvalidResponse, KindLocationUnavailable:
		return true
	default:
		return false
	}
}

// Category classifies the error for presentation.
func (e Error) Category() ErrorCategory {
	switch e.Kind {
	case KindLocationDenied, KindLocationRestricted, KindLocationUnavailable:
		return CategoryLocation
	case KindNetworkUnavailable, KindRequestTimeout, KindServerError, KindInvalidResponse:
		return CategoryNetwork
	case KindNoResults:
		return CategoryNoContent
	default:
		return CategoryUnknown
	}
}

// RequiresFullScreen is true for location errors, which block the whole view.
func (e Error) RequiresFullScreen() bool {
	return e.Category() == CategoryLocation
}

// Icon returns a short glyph for the error category.
func (e Error) Icon() string {
	switch e.Category() {
	case CategoryLocation:
		return "⌖"
	case CategoryNetwork:
		if e.Kind == KindRequestTimeout {
			return "⧗"
		}
		return "⚡"
	case CategoryNoContent:
		return "∅"
	default:
		return "⚠"
	}
}

// Classify maps any failure onto the closed error set. Callers must treat
// context.Canceled as cancellation before calling Classify.
func Classify(err error) Error {
	if err == nil {
		return UnknownError("")
	}

	var classified Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrRequestTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrRequestTimeout
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrDecoding
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return ErrNetworkUnavailable
	}

	return UnknownError(err.Error())
}
