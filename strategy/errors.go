package strategy

import (
	"errors"
	"fmt"
)

// Kind classifies the errors produced by a Strategy.
type Kind string

const (
	// KindConfiguration is returned when required configuration is missing or invalid,
	// including a callback URL that cannot be resolved for the current request.
	KindConfiguration Kind = "configuration"

	// KindExchange is returned when the token endpoint rejects the code, the network
	// call fails, the response is malformed, or a required profile fetch fails.
	KindExchange Kind = "exchange"

	// KindVerification is returned when the verify function reports an internal error.
	KindVerification Kind = "verification"

	// KindAuthorization is returned when the authorization server redirected back
	// with an error other than access_denied.
	KindAuthorization Kind = "authorization"
)

// ErrDoneCalledTwice is logged when a verify function settles its result more than once.
var ErrDoneCalledTwice = errors.New("verify completion called more than once")

// Error is the error type returned by a Strategy.
type Error struct {
	// Kind is the error classification
	Kind Kind

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error

	// Code, Description and URI carry the remote error payload
	// (error, error_description, error_uri) when the endpoint supplied one.
	Code        string
	Description string
	URI         string
}

// Error returns the error message
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s", msg, e.Code)
		if e.Description != "" {
			msg += ": " + e.Description
		}
		msg += ")"
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Cause: cause}
}

// NewExchangeError creates a new exchange error
func NewExchangeError(message string, cause error) *Error {
	return &Error{Kind: KindExchange, Message: message, Cause: cause}
}

// NewVerificationError creates a new verification error
func NewVerificationError(message string, cause error) *Error {
	return &Error{Kind: KindVerification, Message: message, Cause: cause}
}

// NewAuthorizationError creates an authorization error from the parameters the
// authorization server appended to the callback.
func NewAuthorizationError(code, description, uri string) *Error {
	return &Error{
		Kind:        KindAuthorization,
		Message:     "authorization server returned an error",
		Code:        code,
		Description: description,
		URI:         uri,
	}
}

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsConfiguration checks if the error is a configuration error
func IsConfiguration(err error) bool {
	return isKind(err, KindConfiguration)
}

// IsExchange checks if the error is an exchange error
func IsExchange(err error) bool {
	return isKind(err, KindExchange)
}

// IsVerification checks if the error is a verification error
func IsVerification(err error) bool {
	return isKind(err, KindVerification)
}

// IsAuthorization checks if the error is an authorization error
func IsAuthorization(err error) bool {
	return isKind(err, KindAuthorization)
}
