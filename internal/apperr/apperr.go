// Package apperr defines the error taxonomy shared by the chat layer and the
// single place where it is translated to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindCallerInput
	KindAuthentication
	KindNotFound
	KindBackendUnavailable
	KindBackendInternal
	KindReasoningEngine
	KindUnknownSkill
)

func (k Kind) String() string {
	switch k {
	case KindCallerInput:
		return "CallerInputError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindNotFound:
		return "NotFoundError"
	case KindBackendUnavailable:
		return "BackendUnavailableError"
	case KindBackendInternal:
		return "BackendInternalError"
	case KindReasoningEngine:
		return "ReasoningEngineError"
	case KindUnknownSkill:
		return "UnknownSkillError"
	default:
		return "InternalError"
	}
}

// Error is a typed failure with a message that is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	// Status overrides the kind's default HTTP status when non-zero.
	Status int
	// Retryable marks failures the caller may simply try again.
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode is the HTTP status this error surfaces with.
func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindCallerInput:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func CallerInput(msg string) *Error    { return New(KindCallerInput, msg) }
func Authentication(msg string) *Error { return New(KindAuthentication, msg) }

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
