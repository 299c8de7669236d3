package utils

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrKindValidation        ErrorKind = "VALIDATION_ERROR"
	ErrKindInvalidParameter  ErrorKind = "INVALID_PARAMETER"
	ErrKindInvalidBloodType  ErrorKind = "INVALID_BLOOD_TYPE"
	ErrKindInvalidStatus     ErrorKind = "INVALID_STATUS"
	ErrKindNotFound          ErrorKind = "NOT_FOUND"
	ErrKindForbidden         ErrorKind = "FORBIDDEN"
	ErrKindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	ErrKindAlreadyTerminal   ErrorKind = "ALREADY_TERMINAL"
	ErrKindDuplicatePending  ErrorKind = "DUPLICATE_PENDING_REQUEST"
	ErrKindStateConflict     ErrorKind = "STATE_CONFLICT"
	ErrKindDonorUnavailable  ErrorKind = "DONOR_UNAVAILABLE"
	ErrKindInternal          ErrorKind = "INTERNAL_ERROR"
)

// EngineError is the structured error returned across the engine boundary.
// Kind is machine-readable; Message is for humans. Infrastructure failures
// wrap the underlying error under ErrKindInternal.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func NewEngineError(kind ErrorKind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

func WrapEngineError(kind ErrorKind, message string, err error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Err: err}
}

func InternalError(message string, err error) *EngineError {
	return &EngineError{Kind: ErrKindInternal, Message: message, Err: err}
}

// KindOf returns the error kind, or ErrKindInternal for errors that did not
// originate in the engine.
func KindOf(err error) ErrorKind {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ErrKindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
