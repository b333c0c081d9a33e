package sip

import "github.com/go-siptx/siptx/internal/errorutil"

// Error represents a SIP error.
// See [errorutil.Error].
type Error = errorutil.Error

// Common errors.
const ErrInvalidArgument = errorutil.ErrInvalidArgument

// Transaction errors.
const (
	ErrTransactionNotFound    Error = "transaction not found"
	ErrTransactionExists      Error = "transaction already exists"
	ErrTransactionTimedOut    Error = "transaction timed out"
	ErrTransactionTerminated  Error = "transaction terminated"
	ErrTransactionNotMatched  Error = "transaction not matched"
	ErrTransactionLayerClosed Error = "transaction layer closed"
)

// Message errors.
const (
	ErrInvalidMessage   Error = "invalid message"
	ErrMethodNotAllowed Error = "request method not allowed"
)

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

// NewInvalidMessageError creates a new error with [ErrInvalidMessage] or
// wraps provided error with [ErrInvalidMessage].
func NewInvalidMessageError(args ...any) error {
	return errorutil.NewWrapperError(ErrInvalidMessage, args...) //errtrace:skip
}
