package chathub

import (
	"errors"
	"fmt"

	"anonpair/backend/internal/models"
)

// Code classifies the recoverable failures of the pairing engine.
type Code string

const (
	CodeAlreadyInSession Code = "ALREADY_IN_SESSION"
	CodeAlreadyQueued    Code = "ALREADY_QUEUED"
	CodeNotInSession     Code = "NOT_IN_SESSION"
	CodeDelivery         Code = "DELIVERY_FAILED"
)

// Error is an informational engine error. None of them is fatal.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code, so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

var (
	ErrAlreadyInSession = &Error{Code: CodeAlreadyInSession, Message: "user already has an active session"}
	ErrAlreadyQueued    = &Error{Code: CodeAlreadyQueued, Message: "user is already waiting in the queue"}
	ErrNotInSession     = &Error{Code: CodeNotInSession, Message: "user has no active session"}
)

// DeliveryError reports that the messaging gateway could not deliver to User.
type DeliveryError struct {
	User  models.UserID
	Op    string
	Cause error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to %d: %v", e.Op, e.User, e.Cause)
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, &DeliveryError{}) match any delivery failure.
func (e *DeliveryError) Is(target error) bool {
	_, ok := target.(*DeliveryError)
	return ok
}

// AsDeliveryError normalizes a gateway error into a *DeliveryError.
func AsDeliveryError(user models.UserID, op string, err error) *DeliveryError {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	return &DeliveryError{User: user, Op: op, Cause: err}
}

// IsDeliveryError reports whether err is, or wraps, a delivery failure.
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
